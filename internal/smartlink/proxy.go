// Package smartlink keeps a navigation smart link consistent with the two
// endpoint markers of its proxy, and can snap the end marker to a fixed
// traversal distance from the start marker.
package smartlink

import (
	"github.com/ProjectAether/navlink/pkg/core"
)

// Default endpoint positions of a newly constructed proxy.
var (
	DefaultStartLocal = core.Vector3{X: 0, Y: -50, Z: 0}
	DefaultEndLocal   = core.Vector3{X: 0, Y: 50, Z: 0}
)

// Option configures a Proxy at construction.
type Option func(*Proxy)

// WithTracker sets the modification tracker used around snaps.
func WithTracker(t ModificationTracker) Option {
	return func(p *Proxy) {
		if t != nil {
			p.tracker = t
		}
	}
}

// WithRenderRefresher sets the refresher notified by UpdateLinkNow.
func WithRenderRefresher(r RenderRefresher) Option {
	return func(p *Proxy) {
		if r != nil {
			p.render = r
		}
	}
}

// WithEndpoints places the default arrows at the given local positions.
func WithEndpoints(start, end core.Vector3) Option {
	return func(p *Proxy) {
		p.startAt = start
		p.endAt = end
	}
}

// WithMarkers replaces the default arrows. Either marker may be nil.
func WithMarkers(start, end Marker) Option {
	return func(p *Proxy) {
		p.StartArrow = start
		p.EndArrow = end
		p.customMarkers = true
	}
}

// Proxy is a smart navigation link driven by two endpoint markers.
type Proxy struct {
	Name     string
	Settings Settings

	StartArrow Marker
	EndArrow   Marker

	// LinkStartLocal and LinkEndLocal mirror the markers after each sync.
	LinkStartLocal core.Vector3
	LinkEndLocal   core.Vector3

	// PointLinks is the legacy simple-link list. It is cleared on every sync.
	PointLinks []core.PointLink

	SmartLinkEnabled  bool
	SmartLinkRelevant bool

	context core.HostContext
	nav     NavLinkConsumer
	tracker ModificationTracker
	render  RenderRefresher

	startAt       core.Vector3
	endAt         core.Vector3
	customMarkers bool
}

// New constructs a proxy, creates its endpoint markers and performs the
// initial sync into nav. nav may be nil.
func New(name string, settings Settings, nav NavLinkConsumer, opts ...Option) *Proxy {
	p := &Proxy{
		Name:              name,
		Settings:          settings,
		SmartLinkEnabled:  true,
		SmartLinkRelevant: true,
		context:           core.Editable,
		nav:               nav,
		tracker:           nopTracker{},
		render:            nopRefresher{},
		startAt:           DefaultStartLocal,
		endAt:             DefaultEndLocal,
	}
	for _, opt := range opts {
		opt(p)
	}

	if !p.customMarkers {
		p.StartArrow = NewArrow("StartArrow", p.startAt)
		p.EndArrow = NewArrow("EndArrow", p.endAt)
	}

	p.PointLinks = nil
	p.SyncLinkToEndpoints()
	return p
}

// Context returns the host context the proxy is in.
func (p *Proxy) Context() core.HostContext {
	return p.context
}

// OnConstruction runs when the host finalizes the proxy's placement.
func (p *Proxy) OnConstruction() {
	p.PointLinks = nil
	p.SyncLinkToEndpoints()
}

// BeginPlay moves the proxy into the running context and re-syncs.
func (p *Proxy) BeginPlay() {
	p.context = core.Running
	p.PointLinks = nil
	p.SyncLinkToEndpoints()
}

// SyncLinkToEndpoints copies the marker positions into the link descriptor
// and pushes them to the navigation consumer as a bidirectional link.
func (p *Proxy) SyncLinkToEndpoints() {
	p.PointLinks = nil

	if p.StartArrow == nil || p.EndArrow == nil {
		return
	}

	start := p.StartArrow.LocalPosition()
	end := p.EndArrow.LocalPosition()

	p.LinkStartLocal = start
	p.LinkEndLocal = end

	if p.nav != nil {
		p.nav.SetLinkData(start, end, core.BothWays)
	}
}

// UpdateLinkNow is the manual refresh entry point. It never rebuilds the
// proxy, so edited settings survive.
func (p *Proxy) UpdateLinkNow() {
	p.SyncLinkToEndpoints()

	if p.context == core.Editable {
		p.render.MarkRenderStateDirty(p.Name)
	}
}

// LinkData returns the link as last pushed to the consumer.
func (p *Proxy) LinkData() core.LinkData {
	return core.LinkData{
		Start:     p.LinkStartLocal,
		End:       p.LinkEndLocal,
		Direction: core.BothWays,
	}
}

type proxyState struct {
	Settings Settings
	Start    *core.Vector3
	End      *core.Vector3
}

// Snapshot implements Modifiable.
func (p *Proxy) Snapshot() any {
	st := proxyState{Settings: p.Settings}
	if p.StartArrow != nil {
		v := p.StartArrow.LocalPosition()
		st.Start = &v
	}
	if p.EndArrow != nil {
		v := p.EndArrow.LocalPosition()
		st.End = &v
	}
	return st
}

// Restore implements Modifiable. The link is re-synced afterwards. Running
// proxies ignore restores.
func (p *Proxy) Restore(snapshot any) {
	st, ok := snapshot.(proxyState)
	if !ok || p.context != core.Editable {
		return
	}
	p.Settings = st.Settings
	if st.Start != nil && p.StartArrow != nil {
		p.StartArrow.SetLocalPosition(*st.Start)
	}
	if st.End != nil && p.EndArrow != nil {
		p.EndArrow.SetLocalPosition(*st.End)
	}
	p.UpdateLinkNow()
}
