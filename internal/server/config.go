package server

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ironsheep/cartoonize-mcp/internal/cartoon"
	"github.com/ironsheep/cartoonize-mcp/internal/session"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel   = "CARTOON_MCP_LOG_LEVEL"
	EnvSeed       = "CARTOON_MCP_SEED"
	EnvEdgeMode   = "CARTOON_MCP_EDGE_MODE"
	EnvPreviewMax = "CARTOON_MCP_PREVIEW_MAX"
	EnvClamp      = "CARTOON_MCP_CLAMP"
)

// DefaultPreviewMax is the default longest side of returned previews.
const DefaultPreviewMax = 512

// Config holds server settings.
type Config struct {
	// Debug enables debug logging to the standard logger.
	Debug bool

	// Seed fixes the clustering seed for every render when non-nil.
	Seed *int64

	// EdgeMode selects how edge_intensity is interpreted.
	EdgeMode cartoon.EdgeMode

	// PreviewMax bounds the longest side of preview images in pixels.
	PreviewMax int

	// Clamp clamps out-of-range parameters instead of rejecting them.
	Clamp bool
}

// DefaultConfig returns the configuration used when no variables are set.
func DefaultConfig() Config {
	return Config{
		EdgeMode:   cartoon.EdgeFixed,
		PreviewMax: DefaultPreviewMax,
	}
}

// ConfigFromEnv builds a Config from environment variables. getenv is
// usually os.Getenv.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	cfg.Debug = strings.EqualFold(strings.TrimSpace(getenv(EnvLogLevel)), "debug")

	if v := strings.TrimSpace(getenv(EnvSeed)); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		cfg.Seed = &seed
	}

	mode, err := cartoon.ParseEdgeMode(getenv(EnvEdgeMode))
	if err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", EnvEdgeMode, err)
	}
	cfg.EdgeMode = mode

	if v := strings.TrimSpace(getenv(EnvPreviewMax)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvPreviewMax, err)
		}
		if n <= 0 {
			return cfg, fmt.Errorf("invalid %s: %d (must be positive)", EnvPreviewMax, n)
		}
		cfg.PreviewMax = n
	}

	if v := strings.TrimSpace(getenv(EnvClamp)); v != "" {
		clamp, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvClamp, err)
		}
		cfg.Clamp = clamp
	}

	return cfg, nil
}

func (c Config) sessionOptions() []session.Option {
	cartoonOpts := []cartoon.Option{cartoon.WithEdgeMode(c.EdgeMode)}
	if c.Seed != nil {
		cartoonOpts = append(cartoonOpts, cartoon.WithSeed(*c.Seed))
	}

	opts := []session.Option{
		session.WithCartoonOptions(cartoonOpts...),
		session.WithClamp(c.Clamp),
	}
	if c.Debug {
		opts = append(opts, session.WithLogger(log.Default()))
	}
	return opts
}
