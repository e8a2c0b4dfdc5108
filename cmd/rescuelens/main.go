// Command rescuelens runs the triage pipeline against a synthetic
// detection source and serves the assessment snapshots over HTTP.
//
// The real deployment replaces the simulator with a vision-model feed;
// everything downstream of the detection batch is identical.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rescue-lens/triage.report/internal/api"
	"github.com/rescue-lens/triage.report/internal/config"
	"github.com/rescue-lens/triage.report/internal/eventlog"
	"github.com/rescue-lens/triage.report/internal/monitoring"
	"github.com/rescue-lens/triage.report/internal/sim"
	"github.com/rescue-lens/triage.report/internal/timeutil"
	"github.com/rescue-lens/triage.report/internal/triage"
	"github.com/rescue-lens/triage.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	dbPath      = flag.String("db", "triage_events.db", "Path to the event log database")
	configPath  = flag.String("config", "", "Optional tuning config JSON file")
	tickEvery   = flag.Duration("tick", 250*time.Millisecond, "Pipeline tick interval")
	duration    = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	seed        = flag.Int64("seed", 1, "Simulation random seed")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("rescuelens " + version.String())
		return
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = loaded
	}

	clock := timeutil.RealClock{}

	store, err := eventlog.Open(*dbPath, clock)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer store.Close()

	pipeline := triage.NewPipeline(triage.PipelineConfigFromTuning(tuning))
	server := api.NewServer(store)

	mux := server.ServeMux()
	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		monitoring.Logf("rescuelens: listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	runLoop(ctx, pipeline, server, store, clock)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("rescuelens: shutdown: %v", err)
	}
}

// runLoop owns the tick cadence. The pipeline itself is schedule-free:
// it just receives already-resolved detection batches with wall-clock
// timestamps.
func runLoop(ctx context.Context, pipeline *triage.Pipeline, server *api.Server, store *eventlog.Store, clock timeutil.Clock) {
	start := clock.Now()
	scenario := sim.DefaultScenario(start, *seed)

	// Previous category per track, so the audit log records category
	// transitions instead of one row per tick.
	lastCategory := make(map[triage.TrackID]triage.Category)

	ticker := time.NewTicker(*tickEvery)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
		}

		now := clock.Now()

		for _, cmd := range server.DrainOverrides() {
			applyOverride(pipeline, store, cmd, now)
		}

		snapshot := pipeline.Tick(scenario.DetectionsAt(now), now)

		for _, patient := range snapshot.Patients {
			decision := patient.Decision
			if prev, seen := lastCategory[decision.ID]; !seen || prev != decision.Category {
				if err := store.LogDecision(decision); err != nil {
					monitoring.Logf("rescuelens: failed to log decision: %v", err)
				}
			}
			lastCategory[decision.ID] = decision.Category
		}

		server.UpdateSnapshot(snapshot, pipeline.PersistentPatients(now))
	}
}

func applyOverride(pipeline *triage.Pipeline, store *eventlog.Store, cmd api.OverrideCommand, now time.Time) {
	if cmd.Clear {
		if pipeline.ClearOverride(cmd.TrackID) {
			if err := store.LogOverrideCleared(cmd.TrackID, now); err != nil {
				monitoring.Logf("rescuelens: failed to log override clear: %v", err)
			}
		}
		return
	}

	if err := pipeline.SetOverride(cmd.Record); err != nil {
		monitoring.Logf("rescuelens: rejected override for track %d: %v", cmd.TrackID, err)
		return
	}
	if err := store.LogOverride(cmd.Record); err != nil {
		monitoring.Logf("rescuelens: failed to log override: %v", err)
	}
}
