package undo

import (
	"testing"

	"github.com/ProjectAether/navlink/internal/smartlink"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrackedProxy(m *Manager) *smartlink.Proxy {
	return smartlink.New("link", smartlink.DefaultSettings(), nil, smartlink.WithTracker(m))
}

func TestUndoRedo_Snap(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)

	p.SnapEndToMagnitude()
	snapped := p.EndArrow.LocalPosition()
	require.NotEqual(t, smartlink.DefaultEndLocal, snapped)

	desc, err := m.Undo()
	require.NoError(t, err)
	assert.Equal(t, "Snap link", desc)
	assert.Equal(t, smartlink.DefaultEndLocal, p.EndArrow.LocalPosition())
	assert.Equal(t, smartlink.DefaultEndLocal, p.LinkEndLocal)

	_, err = m.Redo()
	require.NoError(t, err)
	assert.Equal(t, snapped, p.EndArrow.LocalPosition())
	assert.Equal(t, snapped, p.LinkEndLocal)
}

func TestEnd_DropsUnchangedTransaction(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)
	p.Settings.SnapMode = core.SnapNone

	p.SnapEndToMagnitude()

	u, r := m.Depths()
	assert.Equal(t, 0, u)
	assert.Equal(t, 0, r)
	_, err := m.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestRepeatedSnap_SecondIsNoop(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)

	p.SnapEndToMagnitude()
	p.SnapEndToMagnitude()

	u, _ := m.Depths()
	assert.Equal(t, 1, u)
}

func TestNestedTransactions_CommitOnce(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)

	m.Begin("outer")
	m.Modify(p)
	p.Settings.Magnitude = core.Jump36
	p.SnapEndToMagnitude()
	m.End()

	u, _ := m.Depths()
	assert.Equal(t, 1, u)

	desc, err := m.Undo()
	require.NoError(t, err)
	assert.Equal(t, "outer", desc)
	assert.Equal(t, core.Jump96, p.Settings.Magnitude)
	assert.Equal(t, smartlink.DefaultEndLocal, p.EndArrow.LocalPosition())
}

func TestNewTransaction_ClearsRedo(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)

	p.SnapEndToMagnitude()
	_, err := m.Undo()
	require.NoError(t, err)

	p.Settings.SnapMode = core.SnapDown
	p.SnapEndToMagnitude()

	_, r := m.Depths()
	assert.Equal(t, 0, r)
	_, err = m.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestMaxHistory(t *testing.T) {
	m := NewManager(2)
	p := newTrackedProxy(m)

	for _, mag := range []core.Magnitude{core.Jump36, core.Jump48, core.Jump72} {
		p.Settings.Magnitude = mag
		m.Begin("set")
		m.Modify(p)
		p.Settings.UnitsToCm++
		m.End()
	}

	u, _ := m.Depths()
	assert.Equal(t, 2, u)
}

func TestModify_OutsideTransactionIgnored(t *testing.T) {
	m := NewManager(0)
	p := newTrackedProxy(m)

	m.Modify(p)
	m.End()

	u, _ := m.Depths()
	assert.Equal(t, 0, u)
	assert.Equal(t, DefaultMaxHistory, m.maxHistory)
}

func TestForget(t *testing.T) {
	m := NewManager(10)
	a := newTrackedProxy(m)
	b := smartlink.New("other", smartlink.DefaultSettings(), nil, smartlink.WithTracker(m))

	a.SnapEndToMagnitude()
	b.SnapEndToMagnitude()
	m.Forget(a)

	u, _ := m.Depths()
	assert.Equal(t, 1, u)
	desc, err := m.Undo()
	require.NoError(t, err)
	assert.Equal(t, "Snap other", desc)
}

func TestReset(t *testing.T) {
	m := NewManager(10)
	p := newTrackedProxy(m)
	p.SnapEndToMagnitude()
	m.Begin("dangling")

	m.Reset()

	u, r := m.Depths()
	assert.Equal(t, 0, u)
	assert.Equal(t, 0, r)
	p.Settings.Magnitude = core.Jump36
	p.SnapEndToMagnitude()
	u, _ = m.Depths()
	assert.Equal(t, 1, u, "transactions commit normally after a reset")
}
