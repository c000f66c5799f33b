package smartlink

import "github.com/ProjectAether/navlink/pkg/core"

// Marker is a user-positionable endpoint anchor.
type Marker interface {
	LocalPosition() core.Vector3
	SetLocalPosition(core.Vector3)
}

// NavLinkConsumer registers link data with the host's pathfinding.
type NavLinkConsumer interface {
	SetLinkData(start, end core.Vector3, direction core.LinkDirection)
}

// Modifiable is state that can be captured before a mutation and put back
// later.
type Modifiable interface {
	Snapshot() any
	Restore(snapshot any)
}

// ModificationTracker brackets a mutation so undo and persistence can
// capture it. Modify is only meaningful between Begin and End.
type ModificationTracker interface {
	Begin(description string)
	Modify(target Modifiable)
	End()
}

// RenderRefresher is asked to redraw a proxy after an editor-side update.
type RenderRefresher interface {
	MarkRenderStateDirty(name string)
}

type nopTracker struct{}

func (nopTracker) Begin(string)      {}
func (nopTracker) Modify(Modifiable) {}
func (nopTracker) End()              {}

type nopRefresher struct{}

func (nopRefresher) MarkRenderStateDirty(string) {}
