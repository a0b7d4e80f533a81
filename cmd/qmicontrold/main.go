// Command qmicontrold is the example composition root: it loads
// configuration, starts the process-wide logger, wires the device registry
// and control-plane selectors to a QMI Gateway, and serves the diagnostics
// HTTP surface until signaled to stop. The actual QMI transport (the device
// discovery/port-grab layer that produces Gateway client handles) is out of
// this module's scope, mirroring the teacher's composition root wiring a
// concrete transport supplied by the deployment, not the library.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/protei/qmicore/internal/logger"
	"github.com/protei/qmicore/pkg/authz"
	"github.com/protei/qmicore/pkg/capability"
	"github.com/protei/qmicore/pkg/config"
	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/diagnostics"
	"github.com/protei/qmicore/pkg/qmi"
)

func main() {
	configPath := flag.String("config", "/etc/qmicore/qmicontrold.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	if err := logger.Init(logger.Config{
		Path:       cfg.Logging.Path,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		panic(err)
	}
	log := logger.Global()
	log.Info().Str("name", cfg.Application.Name).Str("version", cfg.Application.Version).Msg("starting")

	// gateway is the seam a deployment-specific QMI transport plugs into;
	// this composition root only wires the control-plane components around
	// it, matching the out-of-scope discovery layer boundary.
	var gateway qmi.Gateway = noGateway{}

	registry := device.NewRegistry()

	// Only the capability selector is reachable from the diagnostics
	// surface (the reset action). band.Selector, carrier.Manager and
	// location.Subsystem are driven by the out-of-scope upper-layer
	// orchestrator through the same Gateway and Registry; wiring them here
	// is the deployment's job once that orchestrator exists.
	selector := &capability.Selector{Gateway: gateway, StepTimeout: cfg.Engine.DefaultStepTimeout}

	var diagServer *diagnostics.Server
	if cfg.Diagnostics.Enabled {
		az := authz.New(cfg.Diagnostics.JWTSecret)
		diagServer = diagnostics.New(diagnostics.Config{
			Addr:       cfg.Diagnostics.ListenAddr,
			Registry:   registry,
			Authorizer: az,
			Selector:   selector,
			Logger:     log.Logger,
		})
		go func() {
			if err := diagServer.Start(); err != nil {
				log.Error().Err(err).Msg("diagnostics server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	if diagServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := diagServer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("diagnostics server shutdown error")
		}
	}
}

// noGateway is the zero-transport placeholder: every device looks
// serviceless until a real Gateway implementation is wired in by the
// deployment's QMI transport.
type noGateway struct{}

func (noGateway) Peek(deviceID string, service qmi.Service) (qmi.Client, bool) {
	return nil, false
}
