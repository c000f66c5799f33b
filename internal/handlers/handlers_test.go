package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ProjectAether/navlink/internal/cache"
	"github.com/ProjectAether/navlink/internal/channel"
	"github.com/ProjectAether/navlink/internal/dispatcher"
	"github.com/ProjectAether/navlink/internal/geo"
	"github.com/ProjectAether/navlink/internal/navigation"
	"github.com/ProjectAether/navlink/internal/session"
	"github.com/ProjectAether/navlink/internal/smartlink"
	"github.com/ProjectAether/navlink/internal/undo"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opCall struct {
	op, proxy string
	err       error
}

type recordingOps struct {
	calls []opCall
}

func (r *recordingOps) RecordOp(op, proxy string, err error) {
	r.calls = append(r.calls, opCall{op, proxy, err})
}

type fixture struct {
	svc     *Service
	records *channel.Buffered[core.LinkRecord]
	undo    *undo.Manager
	session *session.Context
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		records: channel.NewBuffered[core.LinkRecord](64),
		undo:    undo.NewManager(10),
		session: session.NewContext(),
		logs:    &bytes.Buffer{},
	}
	f.session.SetLevel("L_Harbor")
	f.svc = NewService(Dependencies{
		Proxies:          cache.NewProxyCache(),
		Registry:         navigation.NewRegistry(f.session.Level, f.records),
		Undo:             f.undo,
		Session:          f.session,
		Logger:           slog.New(slog.NewTextHandler(f.logs, nil)),
		ExtensionName:    "aether_navlink",
		ExtensionVersion: "1.2.0",
		BuildDate:        "2026-10-01",
	})
	return f
}

func (f *fixture) create(t *testing.T, name string) core.LinkRecord {
	t.Helper()
	out, err := f.svc.CreateLink([]string{name})
	require.NoError(t, err)
	return out.(core.LinkRecord)
}

// asRecord runs a handler and requires a link record back.
func asRecord(t *testing.T, handler func([]string) (any, error), args ...string) core.LinkRecord {
	t.Helper()
	out, err := handler(args)
	require.NoError(t, err)
	rec, ok := out.(core.LinkRecord)
	require.True(t, ok, "expected a link record, got %T", out)
	return rec
}

func TestCreateLink_Defaults(t *testing.T) {
	f := newFixture(t)

	rec := f.create(t, "ramp")

	assert.Equal(t, "ramp", rec.Proxy)
	assert.Equal(t, "L_Harbor", rec.Level)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, smartlink.DefaultStartLocal, rec.Link.Start)
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)
	assert.Equal(t, core.BothWays, rec.Link.Direction)
	assert.Equal(t, smartlink.DefaultSettings().Record(), rec.Settings)
}

func TestCreateLink_WithEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := asRecord(t, f.svc.CreateLink, "ramp", "1,2,3", "4,5,6")

	assert.Equal(t, core.Vector3{X: 1, Y: 2, Z: 3}, rec.Link.Start)
	assert.Equal(t, core.Vector3{X: 4, Y: 5, Z: 6}, rec.Link.End)
}

func TestCreateLink_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	_, err := f.svc.CreateLink([]string{"ramp"})
	assert.ErrorIs(t, err, ErrProxyExists)
}

func TestCreateLink_ConfiguredDefaults(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.LinkDefaults = func() core.LinkSettings {
		return core.LinkSettings{Magnitude: "Jump200", SnapMode: "Down", AcrossAxis: "Right", UnitsToCm: 1}
	}

	rec := f.create(t, "drop")

	assert.Equal(t, "Jump200", rec.Settings.Magnitude)
	assert.Equal(t, "Down", rec.Settings.SnapMode)
	assert.False(t, rec.Settings.AutoSnapOnChange)
}

func TestCreateLink_InvalidDefaultsFallBack(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.LinkDefaults = func() core.LinkSettings { return core.LinkSettings{Magnitude: "Jump1"} }

	rec := f.create(t, "ramp")

	assert.Equal(t, smartlink.DefaultSettings().Record(), rec.Settings)
	assert.Contains(t, f.logs.String(), "invalid link defaults")
}

func TestCreateLink_ArgErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateLink(nil)
	assert.Error(t, err)
	_, err = f.svc.CreateLink([]string{"ramp", "1,2"})
	assert.Error(t, err)
}

func TestSetProperty_AutoSnaps(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	rec := asRecord(t, f.svc.SetProperty, "ramp", "Magnitude", "Jump36")

	assert.InDelta(t, 36*2.54, rec.Link.End.Z, 1e-9)
	assert.Equal(t, "Jump36", rec.Settings.Magnitude)
	assert.Equal(t, uint64(2), rec.Revision)
}

func TestSetProperty_WithoutAutoSnap(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	_, err := f.svc.SetProperty([]string{"ramp", "bAutoSnapOnChange", "false"})
	require.NoError(t, err)
	rec := asRecord(t, f.svc.SetProperty, "ramp", "Magnitude", "Jump348")

	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)
	assert.Equal(t, "Jump348", rec.Settings.Magnitude)
}

func TestSetProperty_UndoRestoresSettingAndEndpoint(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")
	_, err := f.svc.SetProperty([]string{"ramp", "SnapMode", "Down"})
	require.NoError(t, err)

	u, _ := f.undo.Depths()
	require.Equal(t, 1, u, "the edit and its snap form one transaction")

	desc, err := f.svc.Undo(nil)
	require.NoError(t, err)
	assert.Equal(t, "Set SnapMode on ramp", desc)

	rec := asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, "Up", rec.Settings.SnapMode)
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)

	_, err = f.svc.Redo(nil)
	require.NoError(t, err)
	rec = asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, "Down", rec.Settings.SnapMode)
	assert.InDelta(t, -96*2.54, rec.Link.End.Z, 1e-9)
}

func TestSetProperty_Errors(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	_, err := f.svc.SetProperty([]string{"ghost", "Magnitude", "Jump36"})
	assert.ErrorIs(t, err, cache.ErrProxyNotFound)

	_, err = f.svc.SetProperty([]string{"ramp", "Magnitude", "Jump37"})
	assert.Error(t, err)

	u, _ := f.undo.Depths()
	assert.Equal(t, 0, u)
}

func TestMoveEndpoint_NeverSnaps(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	rec := asRecord(t, f.svc.MoveEndpoint, "ramp", "end", "300,0,10")

	assert.Equal(t, core.Vector3{X: 300, Z: 10}, rec.Link.End)
	assert.Equal(t, smartlink.DefaultStartLocal, rec.Link.Start)

	_, err := f.svc.Undo(nil)
	require.NoError(t, err)
	rec = asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)
}

func TestMoveEndpoint_RejectsNonFinite(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	_, err := f.svc.MoveEndpoint([]string{"ramp", "end", "NaN,0,0"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	rec := asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)
	u, _ := f.undo.Depths()
	assert.Equal(t, 0, u)
}

func TestSetProperty_EndpointField(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	rec := asRecord(t, f.svc.SetProperty, "ramp", "LinkStartLocal", "0,0,100")

	assert.Equal(t, core.Vector3{Z: 100}, rec.Link.Start)
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End)
}

func TestSnapLink(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	rec := asRecord(t, f.svc.SnapLink, "ramp")
	again := asRecord(t, f.svc.SnapLink, "ramp")

	assert.InDelta(t, 243.84, rec.Link.End.Z, 1e-9)
	assert.Equal(t, -50.0, rec.Link.End.Y)
	assert.Equal(t, rec.Link, again.Link)
}

func TestPlaceAndUpdate(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	placed := asRecord(t, f.svc.PlaceLink, "ramp")
	updated := asRecord(t, f.svc.UpdateLink, "ramp")

	assert.Equal(t, uint64(2), placed.Revision)
	assert.Equal(t, uint64(3), updated.Revision)
	assert.Equal(t, placed.Link, updated.Link)
}

func TestDeleteLink(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "ramp")
	for f.records.Len() > 0 {
		<-f.records.Receive()
	}

	out, err := f.svc.DeleteLink([]string{"ramp"})
	require.NoError(t, err)
	assert.Equal(t, "ramp", out)

	tomb := <-f.records.Receive()
	assert.True(t, tomb.Deleted)
	assert.Equal(t, created.ID, tomb.ID)

	_, err = f.svc.GetLink([]string{"ramp"})
	assert.ErrorIs(t, err, cache.ErrProxyNotFound)
	_, err = f.svc.DeleteLink([]string{"ramp"})
	assert.ErrorIs(t, err, cache.ErrProxyNotFound)
}

func TestListLinks(t *testing.T) {
	f := newFixture(t)
	f.create(t, "b")
	f.create(t, "a")

	out, err := f.svc.ListLinks(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestBeginSession(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")

	out, err := f.svc.BeginSession([]string{"L_Canyon"})
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Equal(t, core.Running, f.session.Host())
	assert.Equal(t, "L_Canyon", f.session.Level())

	_, err = f.svc.SetProperty([]string{"ramp", "Magnitude", "Jump36"})
	assert.ErrorIs(t, err, ErrNotEditable)

	_, err = f.svc.SnapLink([]string{"ramp"})
	assert.ErrorIs(t, err, ErrNotEditable)
	rec := asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, smartlink.DefaultEndLocal, rec.Link.End, "snapping is editor-only")

	_, err = f.svc.BeginSession(nil)
	assert.Error(t, err)

	late := f.create(t, "late")
	assert.Equal(t, smartlink.DefaultEndLocal, late.Link.End)
	_, err = f.svc.MoveEndpoint([]string{"late", "end", "1,1,1"})
	assert.ErrorIs(t, err, ErrNotEditable, "proxies created while running start running")
}

func TestUndoRedo_FrozenWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")
	before := asRecord(t, f.svc.SetProperty, "ramp", "Magnitude", "Jump36")
	_, err := f.svc.SetProperty([]string{"ramp", "Magnitude", "Jump48"})
	require.NoError(t, err)
	_, err = f.svc.Undo(nil)
	require.NoError(t, err)

	_, err = f.svc.BeginSession(nil)
	require.NoError(t, err)
	running := asRecord(t, f.svc.GetLink, "ramp")

	_, err = f.svc.Undo(nil)
	assert.ErrorIs(t, err, ErrNotEditable)
	_, err = f.svc.Redo(nil)
	assert.ErrorIs(t, err, ErrNotEditable)

	after := asRecord(t, f.svc.GetLink, "ramp")
	assert.Equal(t, running, after)
	assert.Equal(t, "Jump36", after.Settings.Magnitude)
	assert.Equal(t, before.Link.End, after.Link.End)

	u, r := f.undo.Depths()
	assert.Equal(t, 1, u)
	assert.Equal(t, 1, r)
}

func TestSetLevel_DropsPreviousLevel(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ramp")
	_, err := f.svc.SnapLink([]string{"ramp"})
	require.NoError(t, err)

	out, err := f.svc.SetLevel([]string{"L_Canyon"})
	require.NoError(t, err)
	assert.Equal(t, "L_Canyon", out)

	names, _ := f.svc.ListLinks(nil)
	assert.Empty(t, names)
	_, err = f.svc.Undo(nil)
	assert.ErrorIs(t, err, undo.ErrNothingToUndo)

	rec := f.create(t, "ramp")
	assert.Equal(t, "L_Canyon", rec.Level)
	assert.Equal(t, uint64(1), rec.Revision)
}

func TestSetLevel_NotifiesHook(t *testing.T) {
	var levels []string
	svc := NewService(Dependencies{
		OnLevelChange: func(level string) { levels = append(levels, level) },
	})

	_, err := svc.SetLevel([]string{"L_Canyon"})
	require.NoError(t, err)
	_, err = svc.SetLevel(nil)
	require.Error(t, err)

	assert.Equal(t, []string{"L_Canyon"}, levels)
}

func TestUndoRedo_Empty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Undo(nil)
	assert.ErrorIs(t, err, undo.ErrNothingToUndo)
	_, err = f.svc.Redo(nil)
	assert.ErrorIs(t, err, undo.ErrNothingToRedo)
}

func TestRegister_DispatchesAndRecordsOps(t *testing.T) {
	f := newFixture(t)
	ops := &recordingOps{}
	f.svc.deps.Ops = ops
	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	f.svc.Register(d)

	for _, cmd := range []string{
		CmdLinkCreate, CmdLinkPlace, CmdLinkSet, CmdLinkMove, CmdLinkSnap, CmdLinkUpdate,
		CmdLinkGet, CmdLinkDelete, CmdLinkList, CmdSessionBegin, CmdSessionLevel,
		CmdUndo, CmdRedo, CmdVersion,
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}

	_, err = d.Dispatch(dispatcher.Event{Command: CmdLinkCreate, Args: []string{`"ramp"`}})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: CmdLinkSnap, Args: []string{`"ghost"`}})
	require.Error(t, err)

	require.Len(t, ops.calls, 2)
	assert.Equal(t, opCall{CmdLinkCreate, "ramp", nil}, ops.calls[0])
	assert.Equal(t, "ghost", ops.calls[1].proxy)
	assert.True(t, errors.Is(ops.calls[1].err, cache.ErrProxyNotFound))

	version, err := d.Dispatch(dispatcher.Event{Command: CmdVersion})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0", "2026-10-01"}, version)
}

func TestNewService_FillsDefaults(t *testing.T) {
	svc := NewService(Dependencies{})

	out, err := svc.CreateLink([]string{"solo"})
	require.NoError(t, err)
	assert.Equal(t, "No level loaded", out.(core.LinkRecord).Level)
}
