package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/internal/game"
	"github.com/plus3/ooftn-persist/persist"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of goblins to populate the world with.")
	ticks := flag.Int("ticks", 1, "Simulation frames to run between snapshots.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	log.Println("Starting snapshot stress test...")

	// 1. Setup world and scheduler
	w, err := game.NewWorld()
	if err != nil {
		log.Fatalf("Failed to create world: %v", err)
	}
	rng := rand.New(rand.NewPCG(1, 2))

	// 2. Populate the world
	log.Printf("Populating world with %d goblins...\n", *entityCount)
	game.Populate(w, *entityCount, rng)
	log.Println("Population complete.")

	// 3. Run the save/load loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Ticks:          *ticks,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running snapshots for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	factory := persist.WorldFactory(game.Components)
	scheduler := game.NewScheduler(w)
	startTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			for range *ticks {
				game.Step(w, scheduler, rng)
			}
			if err := report.Cycle(w, factory); err != nil {
				log.Fatalf("Snapshot cycle failed: %v", err)
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.ExtractTime.Finalize()
	report.RestoreTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Snapshots finished.")

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}

// Cycle extracts and encodes w, then reloads the text into a new world.
func (r *Report) Cycle(w *ecs.World, factory persist.Factory) error {
	extractStart := time.Now()
	snapshot, err := persist.Extract(w)
	if err != nil {
		return err
	}
	text, err := persist.Marshal(snapshot)
	if err != nil {
		return err
	}
	r.ExtractTime.Samples = append(r.ExtractTime.Samples, time.Since(extractStart))

	restoreStart := time.Now()
	if _, err := persist.Reload(factory, text); err != nil {
		return err
	}
	r.RestoreTime.Samples = append(r.RestoreTime.Samples, time.Since(restoreStart))

	r.TotalCycles++
	r.SnapshotBytes = len(text)
	r.Records = len(snapshot)
	return nil
}
