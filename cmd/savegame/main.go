package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/internal/config"
	"github.com/plus3/ooftn-persist/internal/game"
	"github.com/plus3/ooftn-persist/persist"
	"github.com/plus3/ooftn-persist/store"
)

const usage = `usage: savegame [-config file] <command> [args]

commands:
  save <name>      play a fresh game for the configured ticks and save it
  load <name>      load a save, play the configured ticks and print the log
  inspect <name>   print the save's metadata and snapshot
  list             list saves
  delete <name>    delete a save
`

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file.")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, logger, flag.Args()); err != nil {
		logger.Error().Err(err).Msg("savegame failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return eris.New("missing command")
	}
	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}

	cmd, args := args[0], args[1:]
	if cmd == "list" {
		return list(ctx, st)
	}
	if len(args) != 1 {
		flag.Usage()
		return eris.Errorf("%s needs exactly one save name", cmd)
	}
	name := args[0]

	switch cmd {
	case "save":
		return save(ctx, cfg, logger, st, name)
	case "load":
		return load(ctx, cfg, logger, st, name)
	case "inspect":
		return inspect(ctx, st, name)
	case "delete":
		return st.Delete(ctx, name)
	}
	flag.Usage()
	return eris.Errorf("unknown command %q", cmd)
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return store.NewRedisStore(client, cfg.KeyPrefix), nil
	default:
		return store.NewFileStore(cfg.Dir)
	}
}

func save(ctx context.Context, cfg *config.Config, logger zerolog.Logger, st store.Store, name string) error {
	w, err := game.NewWorld()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Game.Seed), uint64(cfg.Game.Seed)))
	game.Populate(w, cfg.Game.Goblins, rng)
	if err := play(ctx, cfg.Game, w, rng); err != nil {
		return err
	}

	env, err := store.SaveWorld(ctx, st, w, name, persist.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info().
		Str("name", env.Name).
		Str("id", env.ID.String()).
		Int("goblins", len(game.Goblins(w))).
		Msg("game saved")
	return nil
}

func load(ctx context.Context, cfg *config.Config, logger zerolog.Logger, st store.Store, name string) error {
	w, err := store.LoadWorld(ctx, st, game.NewWorld, name, persist.WithLogger(logger))
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Game.Seed), uint64(cfg.Game.Seed)))
	if err := play(ctx, cfg.Game, w, rng); err != nil {
		return err
	}

	for _, gobbo := range game.Goblins(w) {
		hp := ecs.Get[game.Health](w, gobbo)
		fmt.Printf("%-10s %d/%d\n", w.Name(gobbo), hp.Current, hp.Max)
	}
	for _, msg := range ecs.NewSingleton[game.MessageLog](w).Get().Messages {
		fmt.Println(msg)
	}
	return nil
}

func inspect(ctx context.Context, st store.Store, name string) error {
	env, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	stats := env.Entities.Stats()
	fmt.Printf("id:       %s\n", env.ID)
	fmt.Printf("name:     %s\n", env.Name)
	fmt.Printf("taken at: %s\n", env.TakenAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("entities: %d (%d components, %d pairs, %d tags)\n", stats.Entities, stats.Components, stats.Pairs, stats.Tags)
	fmt.Printf("types:    %d\n", len(env.Schemas))
	for _, rec := range env.Entities {
		fmt.Printf("\n#%d %s\n", rec.ID, rec.Name)
		for _, c := range rec.Components {
			fmt.Printf("  %s = %s\n", c.Name, c.Value)
		}
		for _, tag := range rec.Tags {
			fmt.Printf("  %s\n", tag)
		}
		for _, p := range rec.Pairs {
			fmt.Printf("  (%s, %s) %s %s\n", p.Relation, pairTarget(p), p.Kind, p.Value)
		}
	}
	return nil
}

// play runs the configured number of ticks, one per tick interval.
func play(ctx context.Context, cfg config.GameConfig, w *ecs.World, rng *rand.Rand) error {
	scheduler := game.NewScheduler(w)
	if cfg.TickRate == 0 {
		for range cfg.Ticks {
			game.Step(w, scheduler, rng)
		}
		return nil
	}

	ticker := time.NewTicker(cfg.TickRate)
	defer ticker.Stop()
	for range cfg.Ticks {
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "game interrupted")
		case <-ticker.C:
			game.Step(w, scheduler, rng)
		}
	}
	return nil
}

func list(ctx context.Context, st store.Store) error {
	names, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func pairTarget(p persist.PairRecord) string {
	if p.Target != "" {
		return p.Target
	}
	return fmt.Sprintf("#%d", p.Entity)
}
