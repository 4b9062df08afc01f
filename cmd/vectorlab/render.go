package main

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/injector"
	"github.com/zeusync/vectorlab/internal/server"
	"github.com/zeusync/vectorlab/pkg/encoding"
)

var renderFlags struct {
	a, b, grid, offset, format string
	scale                      float64
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the scene for two vectors",
	Example: `  vectorlab render --a 1,2,3 --b 3,2,1
  vectorlab render --a 1,0,0 --b 0,1,0 --grid xz --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := encoding.ParseFormat(renderFlags.format)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		renderer, err := injector.InitializeRenderer(cfg)
		if err != nil {
			return err
		}
		base, err := cfg.Scene.InitialState(renderer.Options().Limits)
		if err != nil {
			return err
		}

		q := url.Values{}
		for key, value := range map[string]string{
			"a": renderFlags.a, "b": renderFlags.b, "offset": renderFlags.offset,
		} {
			if value != "" {
				q.Set(key, value)
			}
		}
		if cmd.Flags().Changed("grid") {
			q.Set("grid", renderFlags.grid)
		}
		st, err := server.ParseRenderQuery(q, base, renderer.Options().Limits)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("scale") {
			if st, err = st.WithScale(renderFlags.scale, renderer.Options().Limits); err != nil {
				return err
			}
		}

		frame, err := renderer.Render(st)
		if err != nil {
			return err
		}
		codec, err := encoding.For(format)
		if err != nil {
			return err
		}
		return codec.Encode(cmd.OutOrStdout(), scene.NewSnapshot(frame, 0))
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.a, "a", "", "vector A as x,y,z")
	f.StringVar(&renderFlags.b, "b", "", "vector B as x,y,z")
	f.StringVar(&renderFlags.grid, "grid", "xyz", "grid planes to draw, e.g. xz or none")
	f.StringVar(&renderFlags.offset, "offset", "", "scene offset as x,y,z")
	f.Float64Var(&renderFlags.scale, "scale", 0.1, "scene scale")
	f.StringVar(&renderFlags.format, "format", "json", "output format (json, yaml)")
}
