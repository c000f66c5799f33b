package monitor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ProjectAether/navlink/internal/cache"
	"github.com/ProjectAether/navlink/internal/channel"
	"github.com/ProjectAether/navlink/internal/navigation"
	"github.com/ProjectAether/navlink/internal/session"
	"github.com/ProjectAether/navlink/internal/smartlink"
	"github.com/ProjectAether/navlink/internal/undo"
	"github.com/ProjectAether/navlink/internal/worker"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	tags   []map[string]string
	fields []map[string]any
	err    error
}

func (w *recordingWriter) WriteStatus(tags map[string]string, fields map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tags = append(w.tags, tags)
	w.fields = append(w.fields, fields)
	return w.err
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fields)
}

func fixture(t *testing.T) (Dependencies, *recordingWriter) {
	t.Helper()
	sess := session.NewContext()
	sess.SetLevel("L_Harbor")
	ch := channel.NewBuffered[core.LinkRecord](16)
	reg := navigation.NewRegistry(sess.Level, ch)
	proxies := cache.NewProxyCache()
	history := undo.NewManager(10)

	p := smartlink.New("ramp", smartlink.DefaultSettings(), reg.Consumer("ramp", nil), smartlink.WithTracker(history))
	proxies.Set(p)
	p.SnapEndToMagnitude()

	w := &recordingWriter{}
	return Dependencies{
		Proxies:  proxies,
		Registry: reg,
		Worker:   worker.NewManager(ch, nil, nil),
		Undo:     history,
		Session:  sess,
		Writer:   w,
	}, w
}

func TestSnapshot(t *testing.T) {
	deps, _ := fixture(t)
	s := NewService(deps)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	st := s.Snapshot()

	assert.Equal(t, "L_Harbor", st.Level)
	assert.Equal(t, "Editable", st.Host)
	assert.Equal(t, 1, st.Proxies)
	assert.Equal(t, 1, st.Links)
	assert.Equal(t, 2, st.Backlog, "construction and snap each publish a record")
	assert.Equal(t, 1, st.UndoDepth)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), st.Time)
}

func TestSnapshot_NoDependencies(t *testing.T) {
	st := NewService(Dependencies{}).Snapshot()
	assert.Zero(t, st.Proxies)
	assert.Empty(t, st.Level)
}

func TestReport_WritesFileAndMetrics(t *testing.T) {
	deps, w := fixture(t)
	deps.StatusPath = filepath.Join(t.TempDir(), "status.json")
	s := NewService(deps)

	s.Report()

	require.Equal(t, 1, w.count())
	assert.Equal(t, "L_Harbor", w.tags[0]["level"])
	assert.Equal(t, 1, w.fields[0]["links"])

	data, err := os.ReadFile(deps.StatusPath)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, 1, st.Proxies)
}

func TestReport_WriterErrorIsLogged(t *testing.T) {
	deps, w := fixture(t)
	w.err = errors.New("influx down")
	s := NewService(deps)

	st := s.Report()
	assert.Equal(t, 1, st.Links)
}

func TestStartStop(t *testing.T) {
	deps, w := fixture(t)
	s := NewService(deps)

	s.Start(10 * time.Millisecond)
	s.Start(10 * time.Millisecond)
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return w.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}
