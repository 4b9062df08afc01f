// Package config loads vectorlab settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

// EnvPrefix prefixes every environment override, e.g. VECTORLAB_SERVER_LISTEN_ADDR.
const EnvPrefix = "VECTORLAB"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full vectorlab configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    log.Config   `yaml:"log" mapstructure:"log"`
	Scene  SceneConfig  `yaml:"scene" mapstructure:"scene"`
}

// ServerConfig contains the scene server settings.
type ServerConfig struct {
	ListenAddr       string        `yaml:"listen_addr" mapstructure:"listen_addr"`
	DefaultRoom      string        `yaml:"default_room" mapstructure:"default_room"`
	MaxClients       int           `yaml:"max_clients" mapstructure:"max_clients"`
	MaxRooms         int           `yaml:"max_rooms" mapstructure:"max_rooms"`
	MaxMessageSize   int64         `yaml:"max_message_size" mapstructure:"max_message_size"`
	SendQueueSize    int           `yaml:"send_queue_size" mapstructure:"send_queue_size"`
	BroadcastWorkers int           `yaml:"broadcast_workers" mapstructure:"broadcast_workers"`
	WriteTimeout     time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	AllowedOrigins   []string      `yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"`
	Token            string        `yaml:"token,omitempty" mapstructure:"token"`
}

// SceneConfig contains rendering dimensions, control limits and the initial state.
type SceneConfig struct {
	ShaftRadius float64   `yaml:"shaft_radius" mapstructure:"shaft_radius"`
	TipRadius   float64   `yaml:"tip_radius" mapstructure:"tip_radius"`
	TipLength   float64   `yaml:"tip_length" mapstructure:"tip_length"`
	GridExtent  int       `yaml:"grid_extent" mapstructure:"grid_extent"`
	GridRadius  float64   `yaml:"grid_radius" mapstructure:"grid_radius"`
	GridColor   []float64 `yaml:"grid_color,flow" mapstructure:"grid_color"`

	MinScale    float64   `yaml:"min_scale" mapstructure:"min_scale"`
	MaxScale    float64   `yaml:"max_scale" mapstructure:"max_scale"`
	ScaleStep   float64   `yaml:"scale_step" mapstructure:"scale_step"`
	OffsetSteps []float64 `yaml:"offset_steps,flow" mapstructure:"offset_steps"`

	InitialA     []float64         `yaml:"initial_a,flow" mapstructure:"initial_a"`
	InitialB     []float64         `yaml:"initial_b,flow" mapstructure:"initial_b"`
	InitialScale float64           `yaml:"initial_scale" mapstructure:"initial_scale"`
	InitialGrid  scene.GridToggles `yaml:"initial_grid" mapstructure:"initial_grid"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	opts := scene.DefaultOptions()
	initial := scene.DefaultState()
	a, b := geometry.Components(initial.Vectors.A), geometry.Components(initial.Vectors.B)
	grid := opts.Grid.Color.Components()

	return &Config{
		Server: ServerConfig{
			ListenAddr:       "127.0.0.1:8080",
			DefaultRoom:      "general",
			MaxClients:       1000,
			MaxRooms:         100,
			MaxMessageSize:   64 * 1024,
			SendQueueSize:    16,
			BroadcastWorkers: 8,
			WriteTimeout:     5 * time.Second,
			PingInterval:     30 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Log: log.DefaultConfig(),
		Scene: SceneConfig{
			ShaftRadius:  opts.Arrow.ShaftRadius,
			TipRadius:    opts.Arrow.TipRadius,
			TipLength:    opts.Arrow.TipLength,
			GridExtent:   opts.Grid.Extent,
			GridRadius:   opts.Grid.Radius,
			GridColor:    grid[:],
			MinScale:     opts.Limits.MinScale,
			MaxScale:     opts.Limits.MaxScale,
			ScaleStep:    opts.Limits.ScaleStep,
			OffsetSteps:  opts.Limits.OffsetSteps,
			InitialA:     a[:],
			InitialB:     b[:],
			InitialScale: initial.Scale,
			InitialGrid:  initial.Grid,
		},
	}
}

// Setup points v at the default search paths and environment prefix.
// A non-empty file overrides the search.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vectorlab"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration known to v over DefaultConfig. A missing
// config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// appear in no config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	s := cfg.Server
	v.SetDefault("server.listen_addr", s.ListenAddr)
	v.SetDefault("server.default_room", s.DefaultRoom)
	v.SetDefault("server.max_clients", s.MaxClients)
	v.SetDefault("server.max_rooms", s.MaxRooms)
	v.SetDefault("server.max_message_size", s.MaxMessageSize)
	v.SetDefault("server.send_queue_size", s.SendQueueSize)
	v.SetDefault("server.broadcast_workers", s.BroadcastWorkers)
	v.SetDefault("server.write_timeout", s.WriteTimeout)
	v.SetDefault("server.ping_interval", s.PingInterval)
	v.SetDefault("server.shutdown_timeout", s.ShutdownTimeout)
	v.SetDefault("server.allowed_origins", s.AllowedOrigins)
	v.SetDefault("server.token", s.Token)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.encoding", cfg.Log.Encoding)

	sc := cfg.Scene
	v.SetDefault("scene.shaft_radius", sc.ShaftRadius)
	v.SetDefault("scene.tip_radius", sc.TipRadius)
	v.SetDefault("scene.tip_length", sc.TipLength)
	v.SetDefault("scene.grid_extent", sc.GridExtent)
	v.SetDefault("scene.grid_radius", sc.GridRadius)
	v.SetDefault("scene.grid_color", sc.GridColor)
	v.SetDefault("scene.min_scale", sc.MinScale)
	v.SetDefault("scene.max_scale", sc.MaxScale)
	v.SetDefault("scene.scale_step", sc.ScaleStep)
	v.SetDefault("scene.offset_steps", sc.OffsetSteps)
	v.SetDefault("scene.initial_a", sc.InitialA)
	v.SetDefault("scene.initial_b", sc.InitialB)
	v.SetDefault("scene.initial_scale", sc.InitialScale)
	v.SetDefault("scene.initial_grid.x", sc.InitialGrid.X)
	v.SetDefault("scene.initial_grid.y", sc.InitialGrid.Y)
	v.SetDefault("scene.initial_grid.z", sc.InitialGrid.Z)
}

// Validate checks every section.
func (c *Config) Validate() error {
	s := c.Server
	switch {
	case s.ListenAddr == "":
		return fmt.Errorf("%w: server.listen_addr is empty", ErrInvalidConfig)
	case s.DefaultRoom == "":
		return fmt.Errorf("%w: server.default_room is empty", ErrInvalidConfig)
	case s.MaxClients <= 0:
		return fmt.Errorf("%w: server.max_clients must be positive", ErrInvalidConfig)
	case s.MaxRooms <= 0:
		return fmt.Errorf("%w: server.max_rooms must be positive", ErrInvalidConfig)
	case s.MaxMessageSize <= 0:
		return fmt.Errorf("%w: server.max_message_size must be positive", ErrInvalidConfig)
	case s.SendQueueSize <= 0:
		return fmt.Errorf("%w: server.send_queue_size must be positive", ErrInvalidConfig)
	case s.WriteTimeout <= 0:
		return fmt.Errorf("%w: server.write_timeout must be positive", ErrInvalidConfig)
	case s.PingInterval <= 0:
		return fmt.Errorf("%w: server.ping_interval must be positive", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	opts, err := c.Scene.Options()
	if err != nil {
		return err
	}
	if err = opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err = c.Scene.InitialState(opts.Limits); err != nil {
		return err
	}
	return nil
}

// Options converts the scene section into render options.
func (s SceneConfig) Options() (scene.Options, error) {
	color, err := triple("scene.grid_color", s.GridColor)
	if err != nil {
		return scene.Options{}, err
	}
	return scene.Options{
		Arrow: scene.ArrowStyle{
			ShaftRadius: s.ShaftRadius,
			TipRadius:   s.TipRadius,
			TipLength:   s.TipLength,
		},
		Grid: scene.GridStyle{
			Extent: s.GridExtent,
			Radius: s.GridRadius,
			Color:  geometry.Color{R: color.X, G: color.Y, B: color.Z},
		},
		Limits: scene.Limits{
			MinScale:    s.MinScale,
			MaxScale:    s.MaxScale,
			ScaleStep:   s.ScaleStep,
			OffsetSteps: s.OffsetSteps,
		},
	}, nil
}

// InitialState is the state every new room starts from.
func (s SceneConfig) InitialState(limits scene.Limits) (scene.State, error) {
	a, err := triple("scene.initial_a", s.InitialA)
	if err != nil {
		return scene.State{}, err
	}
	b, err := triple("scene.initial_b", s.InitialB)
	if err != nil {
		return scene.State{}, err
	}

	state := scene.DefaultState()
	if state, err = state.WithVectors(scene.Vectors{A: a, B: b}); err != nil {
		return scene.State{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if state, err = state.WithScale(s.InitialScale, limits); err != nil {
		return scene.State{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, axis := range primitive.Axes {
		state, _ = state.WithGrid(axis, s.InitialGrid.Enabled(axis))
	}
	return state, nil
}

// YAML renders c as a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func triple(key string, v []float64) (geometry.Vector3, error) {
	if len(v) != 3 {
		return geometry.Vector3{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidConfig, key, len(v))
	}
	return geometry.Vec3(v[0], v[1], v[2]), nil
}
