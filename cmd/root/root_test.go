package root_test

import (
	"context"
	"testing"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "budgie", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "CSV exports")
	assert.Contains(t, root.Cmd.Long, "MONGO_HOST")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()
	for _, name := range []string{"backend", "data-dir", "log-level"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRunWithContainer(t *testing.T) {
	t.Setenv("BUDGIE_STORAGE_BACKEND", "memory")
	t.Chdir(t.TempDir())
	require.NoError(t, root.Cmd.PersistentPreRunE(root.Cmd, nil))

	var got *container.Container
	run := root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		got = c
		return nil
	})
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	require.NoError(t, run(cmd, nil))
	require.NotNil(t, got)
	assert.Equal(t, "memory", got.GetBackend())

	again, err := root.Container(context.Background())
	require.NoError(t, err)
	assert.Same(t, got, again)

	require.NoError(t, root.Shutdown(context.Background()))
	require.NoError(t, root.Shutdown(context.Background()))
}
