// deconflict runs the strategic pre-flight deconfliction pipeline either
// as a one-shot check against a scenario file or as an HTTP/websocket
// service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/asgard/deconflict/internal/api"
	"github.com/asgard/deconflict/internal/api/stream"
	"github.com/asgard/deconflict/internal/mission"
	"github.com/asgard/deconflict/internal/obslog"
	"github.com/asgard/deconflict/internal/obstrace"
	"github.com/asgard/deconflict/internal/pipeline"
	"github.com/asgard/deconflict/internal/registrysync"
)

const shutdownGrace = 5 * time.Second

// scenarioFile is the on-disk layout for a one-shot check: a primary
// mission plus the traffic missions it is checked against.
type scenarioFile struct {
	Primary mission.Wire   `json:"primary"`
	Traffic []mission.Wire `json:"traffic"`
}

func main() {
	serve := flag.Bool("serve", false, "run as an HTTP/websocket service instead of a one-shot check")
	addr := flag.String("addr", ":8080", "listen address when -serve is set")
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file ({primary, traffic}) for a one-shot check")
	outputJSON := flag.Bool("json", false, "print the one-shot check result as JSON")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")

	timeMargin := flag.Float64("time-margin", 30, "stage1 temporal filter margin, seconds")
	spatialMargin := flag.Float64("spatial-margin", 500, "stage1 bounding-box filter margin, meters")
	cellSize := flag.Float64("cell-size", 100, "stage2 occupancy grid cell size, meters")
	timeResolution := flag.Float64("time-resolution", 1.0, "stage2 occupancy grid time resolution, seconds")
	baseBuffer := flag.Float64("base-buffer", 50, "stage3 static safety buffer, meters")
	reactionTime := flag.Float64("reaction-time", 2.5, "stage3 assumed pilot/system reaction time, seconds")
	maxAccel := flag.Float64("max-accel", 5, "stage3 assumed maximum closing deceleration, m/s^2")
	gpsUncertainty := flag.Float64("gps-uncertainty", 10, "stage3 combined GPS position uncertainty, meters")

	natsURL := flag.String("nats-url", "", "NATS URL for cross-node registry sync; empty disables sync")

	flag.Parse()

	obslog.SetLevel(*logLevel)
	logger := obslog.Logger

	pcfg := pipeline.DefaultConfig()
	pcfg.Filter.TimeMargin = *timeMargin
	pcfg.Filter.SpatialMargin = *spatialMargin
	pcfg.Grid.CellSize = *cellSize
	pcfg.Grid.TimeResolution = *timeResolution
	pcfg.Risk.BaseSafetyBuffer = *baseBuffer
	pcfg.Risk.ReactionTime = *reactionTime
	pcfg.Risk.MaxAccel = *maxAccel
	pcfg.Risk.GPSUncertainty = *gpsUncertainty

	registry := mission.NewRegistry()
	pipe := pipeline.New(registry, pcfg, logger)

	var bridge *registrysync.Bridge
	if *natsURL != "" {
		syncCfg := registrysync.DefaultConfig()
		syncCfg.URL = *natsURL
		bridge = registrysync.New(registry, syncCfg, logger)
		if err := bridge.Connect(); err != nil {
			log.Fatalf("registry sync: %v", err)
		}
		if err := bridge.Start(); err != nil {
			log.Fatalf("registry sync: %v", err)
		}
		defer bridge.Stop()
		logger.WithField("url", *natsURL).Info("registry sync enabled")
	}

	if *serve {
		runServer(*addr, registry, pipe, bridge, logger)
		return
	}

	if *scenarioPath == "" {
		log.Fatal("either -serve or -scenario must be given")
	}
	runScenario(*scenarioPath, registry, pipe, *outputJSON)
}

func runScenario(path string, registry *mission.Registry, pipe *pipeline.Pipeline, outputJSON bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read scenario: %v", err)
	}

	var sc scenarioFile
	if err := json.Unmarshal(data, &sc); err != nil {
		log.Fatalf("parse scenario: %v", err)
	}

	for _, w := range sc.Traffic {
		m, err := mission.FromWire(w)
		if err != nil {
			log.Fatalf("invalid traffic mission %q: %v", w.DroneID, err)
		}
		registry.Register(m)
	}

	primary, err := mission.FromWire(sc.Primary)
	if err != nil {
		log.Fatalf("invalid primary mission: %v", err)
	}

	isClear, conflicts, metrics := pipe.Check(primary)
	result := pipeline.ToResult(isClear, conflicts, metrics)

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
		return
	}

	fmt.Printf("drone %s: clear=%v  stage1 %s  conflicts=%d  total=%.2fms\n",
		primary.DroneID, isClear, metrics.Stage1Reduction, len(conflicts), metrics.TotalTimeMS)
	for _, c := range conflicts {
		fmt.Printf("  t=%.1f vs %s severity=%s score=%.2f sep=%.1fm ttc=%.1fs rec=%q\n",
			c.Time, c.OtherDroneID, c.Severity, c.RiskScore, c.SeparationDistance, c.TimeToCollision, c.Recommendation)
	}
}

func runServer(addr string, registry *mission.Registry, pipe *pipeline.Pipeline, bridge *registrysync.Bridge, logger *logrus.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := obstrace.NewProvider(ctx)
	if err != nil {
		log.Fatalf("tracing setup: %v", err)
	}
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(ctx)

	hub := stream.NewHub(logger)
	var publisher api.MissionPublisher
	if bridge != nil {
		publisher = bridge
	}
	handler := api.NewHandler(registry, pipe, hub, publisher, logger)

	srv := &http.Server{Addr: addr, Handler: handler.Router()}
	go func() {
		logger.WithField("addr", addr).Info("deconfliction service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
