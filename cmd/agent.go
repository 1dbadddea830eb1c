package cmd

import (
	"fmt"
	"os"

	"github.com/timvw/hostshot/internal/capture"
	"github.com/timvw/hostshot/internal/config"
	"github.com/timvw/hostshot/internal/env"
	"github.com/timvw/hostshot/internal/fallback"
	"github.com/timvw/hostshot/internal/handler"
	telem "github.com/timvw/hostshot/internal/otel"
)

// agent is the capture pipeline wired from configuration.
type agent struct {
	probe    *env.HostProbe
	registry *capture.Registry
	orch     *capture.Orchestrator
	reporter *fallback.Reporter
	handler  *handler.Handler
}

func newAgent(c *config.Config, metrics *telem.Metrics) (*agent, error) {
	registry, err := capture.DefaultRegistry(capture.Options{
		X11Display:        c.X11Display,
		WaylandDisplay:    c.WaylandDisplay,
		ExtraX11Tools:     c.ExtraX11Tools,
		ExtraWaylandTools: c.ExtraWaylandTools,
	})
	if err != nil {
		return nil, fmt.Errorf("capture methods: %w", err)
	}

	tempDir := c.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	} else if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}

	a := &agent{
		probe:    env.NewHostProbe(),
		registry: registry,
		orch: &capture.Orchestrator{
			Registry:  registry,
			Artifacts: capture.NewArtifactManager(tempDir),
			Timeout:   c.MethodTimeoutDuration,
			Metrics:   metrics,
		},
		reporter: &fallback.Reporter{
			Detect:   getMultiplexer(),
			MaxPanes: c.FallbackMaxPanes,
			Lines:    c.FallbackLines,
			Timeout:  c.MethodTimeoutDuration,
			Metrics:  metrics,
		},
	}
	a.handler = &handler.Handler{
		Probe:        a.probe,
		Capturer:     a.orch,
		Fallback:     a.reporter,
		MaxTextChars: c.FallbackMaxChars,
		Metrics:      metrics,
	}
	return a, nil
}
