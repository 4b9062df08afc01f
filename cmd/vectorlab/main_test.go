package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/vectorlab/internal/config"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestRenderCommand(t *testing.T) {
	out := run(t, "render", "--a", "1,0,0", "--b", "0,1,0", "--grid", "none")

	var snap scene.Snapshot
	require.NoError(t, json.Unmarshal(out, &snap))
	require.Equal(t, [3]float64{1, 1, 0}, snap.Vectors.Sum)
	require.Empty(t, snap.Grids)
	require.Len(t, snap.Arrows, 3)
}

func TestConfigCommand(t *testing.T) {
	out := run(t, "config")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out, &cfg))
	require.Equal(t, config.DefaultConfig().Server.DefaultRoom, cfg.Server.DefaultRoom)
}
