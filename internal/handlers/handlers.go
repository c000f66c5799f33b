// Package handlers implements the host commands that create and edit
// smart-link proxies.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ProjectAether/navlink/internal/cache"
	"github.com/ProjectAether/navlink/internal/dispatcher"
	"github.com/ProjectAether/navlink/internal/navigation"
	"github.com/ProjectAether/navlink/internal/parser"
	"github.com/ProjectAether/navlink/internal/session"
	"github.com/ProjectAether/navlink/internal/smartlink"
	"github.com/ProjectAether/navlink/internal/undo"
	"github.com/ProjectAether/navlink/internal/util"
	"github.com/ProjectAether/navlink/pkg/core"
)

// Command names understood by the extension.
const (
	CmdLinkCreate   = ":LINK:CREATE:"
	CmdLinkPlace    = ":LINK:PLACE:"
	CmdLinkSet      = ":LINK:SET:"
	CmdLinkMove     = ":LINK:MOVE:"
	CmdLinkSnap     = ":LINK:SNAP:"
	CmdLinkUpdate   = ":LINK:UPDATE:"
	CmdLinkGet      = ":LINK:GET:"
	CmdLinkDelete   = ":LINK:DELETE:"
	CmdLinkList     = ":LINK:LIST:"
	CmdSessionBegin = ":SESSION:BEGIN:"
	CmdSessionLevel = ":SESSION:LEVEL:"
	CmdUndo         = ":UNDO:"
	CmdRedo         = ":REDO:"
	CmdVersion      = ":VERSION:"
)

var (
	// ErrProxyExists is returned when creating a proxy under a taken name.
	ErrProxyExists = errors.New("proxy already exists")
	// ErrNotEditable is returned for editor-only commands on running proxies.
	ErrNotEditable = errors.New("proxy is not editable while running")
)

// OpRecorder receives the outcome of every link command.
type OpRecorder interface {
	RecordOp(op, proxy string, err error)
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Proxies  *cache.ProxyCache
	Registry *navigation.Registry
	Undo     *undo.Manager
	Session  *session.Context
	Logger   *slog.Logger
	// LinkDefaults returns the settings new proxies start with.
	LinkDefaults func() core.LinkSettings
	Render       smartlink.RenderRefresher
	Ops          OpRecorder
	// OnLevelChange is called after :SESSION:LEVEL: switched levels.
	OnLevelChange func(level string)

	ExtensionName    string
	ExtensionVersion string
	BuildDate        string
}

// Service provides the handler methods. Commands are serialized: a proxy is
// only ever touched by one command at a time.
type Service struct {
	deps Dependencies
	mu   sync.Mutex
	now  func() time.Time
}

// NewService creates a handler service, filling in missing dependencies.
func NewService(deps Dependencies) *Service {
	if deps.Proxies == nil {
		deps.Proxies = cache.NewProxyCache()
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Registry == nil {
		deps.Registry = navigation.NewRegistry(deps.Session.Level, nil)
	}
	if deps.Undo == nil {
		deps.Undo = undo.NewManager(undo.DefaultMaxHistory)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.LinkDefaults == nil {
		deps.LinkDefaults = smartlink.DefaultSettings().Record
	}
	return &Service{deps: deps, now: time.Now}
}

// Register wires every command into the dispatcher. All link commands are
// synchronous so each completes before the host call returns.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	link := func(op string, fn func([]string) (any, error)) {
		d.Register(op, func(e dispatcher.Event) (any, error) {
			result, err := fn(e.Args)
			if s.deps.Ops != nil {
				s.deps.Ops.RecordOp(op, firstArg(e.Args), err)
			}
			return result, err
		}, dispatcher.Logged())
	}

	link(CmdLinkCreate, s.CreateLink)
	link(CmdLinkPlace, s.PlaceLink)
	link(CmdLinkSet, s.SetProperty)
	link(CmdLinkMove, s.MoveEndpoint)
	link(CmdLinkSnap, s.SnapLink)
	link(CmdLinkUpdate, s.UpdateLink)
	link(CmdLinkGet, s.GetLink)
	link(CmdLinkDelete, s.DeleteLink)
	link(CmdLinkList, s.ListLinks)
	link(CmdSessionBegin, s.BeginSession)
	link(CmdSessionLevel, s.SetLevel)
	link(CmdUndo, s.Undo)
	link(CmdRedo, s.Redo)

	d.Register(CmdVersion, func(dispatcher.Event) (any, error) {
		return s.Version(), nil
	})
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return util.CleanArg(args[0])
}

// Version returns the extension version and build date.
func (s *Service) Version() []string {
	return []string{s.deps.ExtensionVersion, s.deps.BuildDate}
}

// CreateLink constructs a proxy with the configured default settings.
func (s *Service) CreateLink(args []string) (any, error) {
	req, err := parser.ParseCreateLink(args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deps.Proxies.Get(req.Name); ok {
		return nil, fmt.Errorf("%w: %s", ErrProxyExists, req.Name)
	}

	settings, err := smartlink.SettingsFromRecord(s.deps.LinkDefaults())
	if err != nil {
		s.deps.Logger.Warn("invalid link defaults, using built-in settings", "error", err)
		settings = smartlink.DefaultSettings()
	}

	opts := []smartlink.Option{smartlink.WithTracker(s.deps.Undo)}
	if s.deps.Render != nil {
		opts = append(opts, smartlink.WithRenderRefresher(s.deps.Render))
	}
	if req.Start != nil && req.End != nil {
		opts = append(opts, smartlink.WithEndpoints(*req.Start, *req.End))
	}

	var p *smartlink.Proxy
	consumer := s.deps.Registry.Consumer(req.Name, func() core.LinkSettings {
		if p == nil {
			return settings.Record()
		}
		return p.Settings.Record()
	})
	p = smartlink.New(req.Name, settings, consumer, opts...)
	if s.deps.Session.Host() == core.Running {
		p.BeginPlay()
	}
	s.deps.Proxies.Set(p)

	s.deps.Logger.Info("proxy created", "proxy", req.Name, "settings", settings.Record())
	return s.record(req.Name)
}

// PlaceLink re-runs construction for a proxy that was placed or moved.
func (s *Service) PlaceLink(args []string) (any, error) {
	return s.withProxy(args, func(p *smartlink.Proxy) error {
		p.OnConstruction()
		return nil
	})
}

// SetProperty assigns one field and runs the edit-change policy.
func (s *Service) SetProperty(args []string) (any, error) {
	req, err := parser.ParseSetProperty(args)
	if err != nil {
		return nil, err
	}

	return s.editProxy(req.Name, fmt.Sprintf("Set %s on %s", req.Field, req.Name), func(p *smartlink.Proxy) error {
		if err := assign(p, req.Field, req.Value); err != nil {
			return err
		}
		p.PostEditChange(req.Field)
		return nil
	})
}

// MoveEndpoint moves one marker as an operator drag would.
func (s *Service) MoveEndpoint(args []string) (any, error) {
	req, err := parser.ParseMoveEndpoint(args)
	if err != nil {
		return nil, err
	}

	return s.editProxy(req.Name, fmt.Sprintf("Move %s on %s", req.Field, req.Name), func(p *smartlink.Proxy) error {
		if err := assign(p, req.Field, req.Position); err != nil {
			return err
		}
		p.PostEditChange(req.Field)
		return nil
	})
}

// SnapLink places the end marker at the configured magnitude.
func (s *Service) SnapLink(args []string) (any, error) {
	return s.withProxy(args, func(p *smartlink.Proxy) error {
		if p.Context() != core.Editable {
			return fmt.Errorf("%w: %s", ErrNotEditable, p.Name)
		}
		p.SnapEndToMagnitude()
		return nil
	})
}

// UpdateLink resyncs the link from the markers.
func (s *Service) UpdateLink(args []string) (any, error) {
	return s.withProxy(args, func(p *smartlink.Proxy) error {
		p.UpdateLinkNow()
		return nil
	})
}

// GetLink returns the current link record of a proxy.
func (s *Service) GetLink(args []string) (any, error) {
	return s.withProxy(args, func(*smartlink.Proxy) error { return nil })
}

// DeleteLink removes a proxy and its navigation link.
func (s *Service) DeleteLink(args []string) (any, error) {
	name, err := parser.ParseName(args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.deps.Proxies.Delete(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrProxyNotFound, name)
	}
	s.deps.Undo.Forget(p)
	s.deps.Registry.Remove(name)

	s.deps.Logger.Info("proxy deleted", "proxy", name)
	return name, nil
}

// ListLinks returns the names of every proxy.
func (s *Service) ListLinks([]string) (any, error) {
	return s.deps.Proxies.Names(), nil
}

// BeginSession moves every proxy from the editor into the running session.
// An optional argument names the level being played.
func (s *Service) BeginSession(args []string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Session.Host() == core.Running {
		return nil, errors.New("session already running")
	}
	if len(args) > 0 {
		if level, err := parser.ParseName(args[:1]); err == nil {
			s.deps.Session.SetLevel(level)
		}
	}
	s.deps.Session.BeginPlay(s.now())

	s.deps.Proxies.Each(func(p *smartlink.Proxy) {
		p.BeginPlay()
	})
	s.deps.Logger.Info("session started", "level", s.deps.Session.Level(), "proxies", s.deps.Proxies.Len())
	return s.deps.Proxies.Len(), nil
}

// SetLevel records a newly loaded level and returns to the editor context.
// Proxies, links and history of the previous level are dropped; their
// persisted records stay.
func (s *Service) SetLevel(args []string) (any, error) {
	level, err := parser.ParseName(args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.deps.Session.SetLevel(level)
	s.deps.Proxies.Reset()
	s.deps.Registry.Reset()
	s.deps.Undo.Reset()
	s.deps.Logger.Info("level loaded", "level", level)
	if s.deps.OnLevelChange != nil {
		s.deps.OnLevelChange(level)
	}
	return level, nil
}

// Undo reverts the last modification transaction. History is frozen while
// the session is running.
func (s *Service) Undo([]string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deps.Session.Host() == core.Running {
		return nil, fmt.Errorf("%w: undo", ErrNotEditable)
	}
	return s.deps.Undo.Undo()
}

// Redo reapplies the last undone transaction.
func (s *Service) Redo([]string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deps.Session.Host() == core.Running {
		return nil, fmt.Errorf("%w: redo", ErrNotEditable)
	}
	return s.deps.Undo.Redo()
}

func (s *Service) withProxy(args []string, fn func(*smartlink.Proxy) error) (any, error) {
	name, err := parser.ParseName(args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.deps.Proxies.MustGet(name)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	return s.record(name)
}

// editProxy runs an editor change inside one undo transaction.
func (s *Service) editProxy(name, description string, fn func(*smartlink.Proxy) error) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.deps.Proxies.MustGet(name)
	if err != nil {
		return nil, err
	}
	if p.Context() != core.Editable {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, name)
	}

	s.deps.Undo.Begin(description)
	s.deps.Undo.Modify(p)
	if a, ok := p.StartArrow.(smartlink.Modifiable); ok {
		s.deps.Undo.Modify(a)
	}
	if a, ok := p.EndArrow.(smartlink.Modifiable); ok {
		s.deps.Undo.Modify(a)
	}
	err = fn(p)
	s.deps.Undo.End()
	if err != nil {
		return nil, err
	}
	return s.record(name)
}

func (s *Service) record(name string) (core.LinkRecord, error) {
	rec, ok := s.deps.Registry.Get(name)
	if !ok {
		return core.LinkRecord{}, fmt.Errorf("no navigation link for %s", name)
	}
	return rec, nil
}

// assign writes a typed value into the proxy field it belongs to. The proxy
// is left untouched when the value has the wrong type.
func assign(p *smartlink.Proxy, field core.Field, value any) error {
	invalid := fmt.Errorf("invalid value %v for %s", value, field)
	switch field {
	case core.FieldMagnitude:
		v, ok := value.(core.Magnitude)
		if !ok {
			return invalid
		}
		p.Settings.Magnitude = v
	case core.FieldSnapMode:
		v, ok := value.(core.SnapMode)
		if !ok {
			return invalid
		}
		p.Settings.SnapMode = v
	case core.FieldAcrossAxis:
		v, ok := value.(core.AcrossAxis)
		if !ok {
			return invalid
		}
		p.Settings.AcrossAxis = v
	case core.FieldAutoSnapOnChange:
		v, ok := value.(bool)
		if !ok {
			return invalid
		}
		p.Settings.AutoSnapOnChange = v
	case core.FieldUnitsToCm, core.FieldAcrossExtraCm:
		v, ok := value.(float64)
		if !ok {
			return invalid
		}
		if field == core.FieldUnitsToCm {
			p.Settings.UnitsToCm = v
		} else {
			p.Settings.AcrossExtraCm = v
		}
	case core.FieldLinkStartLocal, core.FieldLinkEndLocal:
		v, ok := value.(core.Vector3)
		if !ok {
			return invalid
		}
		marker := p.StartArrow
		if field == core.FieldLinkEndLocal {
			marker = p.EndArrow
		}
		if marker == nil {
			return fmt.Errorf("proxy %s has no %s marker", p.Name, field)
		}
		marker.SetLocalPosition(v)
	default:
		return invalid
	}
	return nil
}
