package memory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, level, proxy string, rev uint64) *core.LinkRecord {
	return &core.LinkRecord{
		ID:       id,
		Proxy:    proxy,
		Level:    level,
		Link:     core.LinkData{End: core.Vector3{Z: float64(rev)}},
		Revision: rev,
	}
}

func TestSaveLink_NewestRevisionWins(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())

	require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 2)))
	require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 1)))

	links, err := b.Links()
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, uint64(2), links[0].Revision)

	require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 3)))
	links, _ = b.Links()
	assert.Equal(t, 3.0, links[0].Link.End.Z)
}

func TestDeleteLink(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 1)))

	require.NoError(t, b.DeleteLink("a"))
	require.NoError(t, b.DeleteLink("missing"))

	links, err := b.Links()
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLinks_SortedByLevelThenProxy(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.SaveLink(rec("1", "L2", "alpha", 1)))
	require.NoError(t, b.SaveLink(rec("2", "L1", "zeta", 1)))
	require.NoError(t, b.SaveLink(rec("3", "L1", "beta", 1)))

	links, err := b.Links()
	require.NoError(t, err)
	got := []string{links[0].Proxy, links[1].Proxy, links[2].Proxy}
	assert.Equal(t, []string{"beta", "zeta", "alpha"}, got)
}

func TestClose_ExportsJSON(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: compress})
		b.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
		require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 4)))

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		want := filepath.Join(dir, "navlinks_20260301_123000.json")
		if compress {
			want += ".gz"
		}
		assert.Equal(t, want, b.ExportedFilePath())

		export, err := ReadExport(want)
		require.NoError(t, err)
		assert.Equal(t, 1, export.Count)
		require.Len(t, export.Links, 1)
		assert.Equal(t, "ramp", export.Links[0].Proxy)
		assert.Equal(t, uint64(4), export.Links[0].Revision)
	}
}

func TestClose_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.SaveLink(rec("a", "L1", "ramp", 1)))
	require.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())
}

func TestReadExport_Errors(t *testing.T) {
	_, err := ReadExport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
