// Package pipeline sequences the three deconfliction stages (filter,
// grid, risk) into the single `Check` operation external callers use,
// short-circuiting on empty intermediate results and collecting per-stage
// timing and reduction metrics.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/asgard/deconflict/internal/filter"
	"github.com/asgard/deconflict/internal/grid"
	"github.com/asgard/deconflict/internal/mission"
	"github.com/asgard/deconflict/internal/risk"
)

// Config aggregates each stage's tunable parameters into one record.
type Config struct {
	Filter filter.Config
	Grid   grid.Config
	Risk   risk.Config
}

// DefaultConfig returns the standard parameters for every stage.
func DefaultConfig() Config {
	return Config{
		Filter: filter.DefaultConfig(),
		Grid:   grid.DefaultConfig(),
		Risk:   risk.DefaultConfig(),
	}
}

// Metrics carries per-stage wall-clock time, raw-event and assessed-
// conflict counts, and the Stage-1 reduction string.
type Metrics struct {
	RunID             string
	Stage1Reduction   string
	Stage1Initial     int
	Stage1Survived    int
	Stage1TimeMS      float64
	Stage2TimeMS      float64
	Stage3TimeMS      float64
	TotalTimeMS       float64
	RawConflicts      int
	AssessedConflicts int
}

// ToMap renders Metrics as the key→value map external consumers read.
func (m Metrics) ToMap() map[string]any {
	return map[string]any{
		"run_id":             m.RunID,
		"stage1_reduction":   m.Stage1Reduction,
		"stage1_initial":     m.Stage1Initial,
		"stage1_survived":    m.Stage1Survived,
		"stage1_time_ms":     m.Stage1TimeMS,
		"stage2_time_ms":     m.Stage2TimeMS,
		"stage3_time_ms":     m.Stage3TimeMS,
		"total_time_ms":      m.TotalTimeMS,
		"raw_conflicts":      m.RawConflicts,
		"assessed_conflicts": m.AssessedConflicts,
	}
}

// Pipeline owns one registry and runs Check calls against it. Checks are
// synchronous and single-threaded; the registry may be safely read
// concurrently with Check since Registry itself is lock-protected, but a
// Pipeline has no internal state shared across Check calls.
type Pipeline struct {
	registry *mission.Registry
	cfg      Config
	log      *logrus.Logger
}

// New creates a Pipeline bound to the given registry and configuration.
func New(registry *mission.Registry, cfg Config, log *logrus.Logger) *Pipeline {
	return &Pipeline{registry: registry, cfg: cfg, log: log}
}

// Check runs the primary mission through Stage 1, Stage 2, and Stage 3 in
// order, short-circuiting to a clear result when an intermediate stage
// produces nothing. The clear flag holds iff no returned conflict has
// severity HIGH or CRITICAL.
func (p *Pipeline) Check(primary *mission.Mission) (bool, []risk.Conflict, Metrics) {
	totalStart := time.Now()
	metrics := Metrics{RunID: uuid.New().String()}

	others := p.registry.Others(primary.DroneID)

	stage1Start := time.Now()
	candidates, report := filter.Filter(primary, others, p.cfg.Filter)
	metrics.Stage1TimeMS = msSince(stage1Start)
	metrics.Stage1Reduction = fmt.Sprintf("%d → %d", report.Initial, report.AfterCoarse)
	metrics.Stage1Initial = report.Initial
	metrics.Stage1Survived = report.AfterCoarse

	if p.log != nil {
		p.log.WithFields(logrus.Fields{
			"drone_id": primary.DroneID,
			"initial":  report.Initial,
			"temporal": report.AfterTemporal,
			"bbox":     report.AfterBBox,
			"coarse":   report.AfterCoarse,
		}).Debug("stage1 filter complete")
	}

	if len(candidates) == 0 {
		metrics.TotalTimeMS = msSince(totalStart)
		return true, nil, metrics
	}

	stage2Start := time.Now()
	g := grid.New(p.cfg.Grid)
	g.Build(candidates)

	dynamicBuffer := p.cfg.Risk.DynamicSafetyBuffer(primary.CruiseSpeed)
	rawEvents := g.Query(primary, dynamicBuffer)
	metrics.Stage2TimeMS = msSince(stage2Start)
	metrics.RawConflicts = len(rawEvents)

	if len(rawEvents) == 0 {
		metrics.TotalTimeMS = msSince(totalStart)
		return true, nil, metrics
	}

	stage3Start := time.Now()
	candidateByID := make(map[string]*mission.Mission, len(candidates))
	for _, c := range candidates {
		candidateByID[c.DroneID] = c
	}
	conflicts := risk.Assess(primary, rawEvents, candidateByID, p.cfg.Risk)
	metrics.Stage3TimeMS = msSince(stage3Start)
	metrics.AssessedConflicts = len(conflicts)
	metrics.TotalTimeMS = msSince(totalStart)

	isClear := true
	for _, c := range conflicts {
		if c.Severity == risk.High || c.Severity == risk.Critical {
			isClear = false
			break
		}
	}

	return isClear, conflicts, metrics
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
