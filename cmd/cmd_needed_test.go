package cmd_test

import (
	"bytes"
	"testing"

	"github.com/nanovms/ldemul/cmd"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/resolve"
	"github.com/nanovms/ldemul/testutils"
	"github.com/nanovms/ldemul/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neededConfig() *types.Config {
	c := types.NewConfig()
	c.SearchDirs = []types.SearchDir{{Path: "/usr/lib"}}
	return c
}

func TestInputFlagsClass(t *testing.T) {
	inputs := &cmd.InputCommandFlags{
		AsNeeded:    []string{"/a.so", "/b.so"},
		NoAddNeeded: []string{"/b.so"},
		Referenced:  []string{"/a.so"},
	}

	class, referenced := inputs.Class("/a.so")
	assert.Equal(t, resolve.AsNeeded, class)
	assert.True(t, referenced)

	class, referenced = inputs.Class("/b.so")
	assert.Equal(t, resolve.AsNeeded|resolve.NoAddNeeded, class)
	assert.False(t, referenced)

	class, _ = inputs.Class("/c.so")
	assert.Equal(t, resolve.LinkClass(0), class)
}

func TestResolveNeeded(t *testing.T) {
	store := testutils.NewMemStore()
	store.AddLib("/work/app", 1, "", "libfoo.so.1", "libgone.so.3")
	store.AddLib("/usr/lib/libfoo.so.1", 2, "libfoo.so.1")
	store.AddLib("/work/libplug.so", 3, "libplug.so", "libextra.so")

	var b bytes.Buffer
	logger := log.New(&b)
	logger.SetWarn(true)

	inputs := &cmd.InputCommandFlags{AsNeeded: []string{"/work/libplug.so"}}
	report, err := cmd.ResolveNeeded(neededConfig(), store, resolve.Env{}, logger, inputs, []string{"/work/app", "/work/libplug.so"})
	require.NoError(t, err)

	t.Run("should report every entry and the output tags", func(t *testing.T) {
		res := cmd.NeededResultFromReport(report)

		assert.Equal(t, []string{"app"}, res.Tags)
		require.Len(t, res.Objects, 3)
		assert.Equal(t, "libfoo.so.1", res.Objects[2].Name)
		assert.Equal(t, "no-needed|dt-needed", res.Objects[2].Class)
		assert.False(t, res.Objects[2].Tagged)
		assert.True(t, res.Objects[0].Tagged)

		require.Len(t, res.Entries, 3)
		assert.Equal(t, cmd.NeededResolution{
			Requester: "app",
			Name:      "libfoo.so.1",
			State:     "resolved",
			Path:      "/usr/lib/libfoo.so.1",
			Source:    resolve.SourceSearchDir,
			Pass:      "optimistic",
		}, res.Entries[0])
		assert.Equal(t, "unresolved", res.Entries[1].State)
		assert.Equal(t, "skipped", res.Entries[2].State)
	})

	t.Run("should warn about libraries that are not found", func(t *testing.T) {
		assert.Contains(t, b.String(), "libgone.so.3, needed by /work/app, not found (try using -rpath or -rpath-link)")
	})

	t.Run("should print tables", func(t *testing.T) {
		var out bytes.Buffer

		cmd.PrintNeeded(&out, report)

		assert.Contains(t, out.String(), "/usr/lib/libfoo.so.1")
		assert.Contains(t, out.String(), "search-dir")
		assert.Contains(t, out.String(), "DT_NEEDED: app\n")
	})

	t.Run("should fail on inputs that cannot be opened", func(t *testing.T) {
		_, err := cmd.ResolveNeeded(neededConfig(), store, resolve.Env{}, logger, &cmd.InputCommandFlags{}, []string{"/work/missing"})

		assert.Error(t, err)
	})
}
