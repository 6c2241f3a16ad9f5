// Package skirmish implements the skirmish command: load a roster, simulate
// a batch of battles and report the aggregate outcome.
package skirmish

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/skirmish/internal/batch"
	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/combatlog"
	"github.com/louisbranch/skirmish/internal/platform/cmd"
	"github.com/louisbranch/skirmish/internal/platform/id"
	"github.com/louisbranch/skirmish/internal/random"
	"github.com/louisbranch/skirmish/internal/roster"
	"github.com/louisbranch/skirmish/internal/sink"
	"github.com/louisbranch/skirmish/internal/sink/sqlite"
)

// Config holds skirmish command configuration. Env variables carry the
// SKIRMISH_ prefix; flags override them.
type Config struct {
	Roster        string `env:"ROSTER"`
	Battles       int    `env:"BATTLES"        envDefault:"1000"`
	Workers       int    `env:"WORKERS"`
	Seed          int64  `env:"SEED"`
	FlushEvery    int    `env:"FLUSH_EVERY"    envDefault:"50000"`
	MaxTurns      int    `env:"MAX_TURNS"      envDefault:"10000"`
	Initiative    string `env:"INITIATIVE"     envDefault:"battle"`
	OutDir        string `env:"OUT_DIR"        envDefault:"output"`
	SummaryFile   string `env:"SUMMARY_FILE"   envDefault:"summary.csv"`
	HistogramFile string `env:"HISTOGRAM_FILE" envDefault:"histogram.csv"`
	DBPath        string `env:"DB_PATH"`
	CombatLog     string `env:"COMBAT_LOG"`
	TraceBattles  int    `env:"TRACE_BATTLES"  envDefault:"1"`
	QueueSize     int    `env:"QUEUE_SIZE"     envDefault:"64"`
}

// ParseConfig reads env defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Roster, "roster", cfg.Roster, "roster file (.json, .yaml, .yml, .lua); empty uses the built-in roster")
	fs.IntVar(&cfg.Battles, "battles", cfg.Battles, "number of battles to simulate")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel arenas (0 uses every CPU)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "base random seed (0 picks one)")
	fs.IntVar(&cfg.FlushEvery, "flush-every", cfg.FlushEvery, "battles aggregated per arena between flushes")
	fs.IntVar(&cfg.MaxTurns, "max-turns", cfg.MaxTurns, "turns before a battle is called a stalemate")
	fs.StringVar(&cfg.Initiative, "initiative", cfg.Initiative, "initiative roll frequency: battle or batch")
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for the summary and histogram files")
	fs.StringVar(&cfg.SummaryFile, "summary-file", cfg.SummaryFile, "summary file name")
	fs.StringVar(&cfg.HistogramFile, "histogram-file", cfg.HistogramFile, "histogram file name")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database for aggregates (empty disables)")
	fs.StringVar(&cfg.CombatLog, "combat-log", cfg.CombatLog, "combat narrative log file (empty disables)")
	fs.IntVar(&cfg.TraceBattles, "trace-battles", cfg.TraceBattles, "leading battles per arena written to the combat log (-1 for all)")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "pending flushes buffered for the output writer")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulator cannot run with.
func (c Config) Validate() error {
	if c.Battles < 0 {
		return errors.New("battles must be non-negative")
	}
	if c.Workers < 0 {
		return errors.New("workers must be non-negative")
	}
	if c.FlushEvery < 0 {
		return errors.New("flush-every must be non-negative")
	}
	if c.MaxTurns < 0 {
		return errors.New("max-turns must be non-negative")
	}
	if c.QueueSize < 0 {
		return errors.New("queue-size must be non-negative")
	}
	if _, err := batch.ParseInitiativeMode(c.Initiative); err != nil {
		return err
	}
	return nil
}

// Run executes the skirmish command under telemetry.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return cmd.RunWithTelemetry(ctx, cmd.ServiceSkirmish, func(ctx context.Context) error {
		return run(ctx, cfg, out, log.New(errOut, "", 0))
	})
}

func run(ctx context.Context, cfg Config, out io.Writer, logger *log.Logger) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, _ := batch.ParseInitiativeMode(cfg.Initiative)

	characters := roster.Default()
	if cfg.Roster != "" {
		characters, err = roster.Load(cfg.Roster)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	runID, err := id.NewID()
	if err != nil {
		return err
	}

	files, err := sink.OpenFiles(sink.FileConfig{Dir: cfg.OutDir, SummaryFile: cfg.SummaryFile, HistogramFile: cfg.HistogramFile})
	if err != nil {
		return err
	}
	defer closeWith(&err, "close output files", files.Close)
	targets := sink.Multi{files}

	var store *sqlite.Store
	if cfg.DBPath != "" {
		store, err = sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer closeWith(&err, "close database", store.Close)
		targets = append(targets, store.ForRun(runID))
	}

	narrative, err := combatlog.Open(cfg.CombatLog)
	if err != nil {
		return err
	}
	defer closeWith(&err, "close combat log", narrative.Close)

	queue := sink.NewQueue(targets, cfg.QueueSize)
	pool := batch.Pool{
		Workers:        cfg.Workers,
		Battles:        cfg.Battles,
		Seed:           seed,
		FlushEvery:     cfg.FlushEvery,
		MaxTurns:       cfg.MaxTurns,
		InitiativeMode: mode,
		Sink:           queue,
		CombatLog:      narrative,
		TraceBattles:   cfg.TraceBattles,
	}
	logger.Printf("run %s: %d battles, %d combatants, seed %d", runID, cfg.Battles, len(characters), seed)

	start := time.Now()
	totals, runErr := pool.Run(ctx, characters)
	if err := queue.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("run %s: %w", runID, runErr)
	}

	arenas := 0
	if store != nil {
		summaries, err := store.ListSummaries(ctx, runID)
		if err != nil {
			return err
		}
		arenas = len(summaries)
	}
	writeReport(out, report{
		RunID:   runID,
		Seed:    seed,
		Totals:  totals,
		Elapsed: time.Since(start),
		Stored:  arenas,
	})
	return nil
}

func closeWith(err *error, what string, closeFn func() error) {
	if cerr := closeFn(); cerr != nil && *err == nil {
		*err = fmt.Errorf("%s: %w", what, cerr)
	}
}

type report struct {
	RunID   string
	Seed    int64
	Totals  batch.Totals
	Elapsed time.Duration
	// Stored is the number of arena summaries found in the database.
	Stored int
}

func writeReport(out io.Writer, r report) {
	p := message.NewPrinter(language.English)
	t := r.Totals
	battles := t.Summary.Battles

	p.Fprintf(out, "run id: %s\n", r.RunID)
	p.Fprintf(out, "seed: %d\n", r.Seed)
	p.Fprintf(out, "battles: %d\n", battles)
	p.Fprintf(out, "total turns: %d\n", t.Summary.TotalTurns)
	p.Fprintf(out, "average turns: %.3f\n", t.Summary.Average())
	p.Fprintf(out, "longest battle: %d turns\n", t.Summary.MaxTurns)

	teams := make([]combat.Team, 0, len(t.Wins))
	for team := range t.Wins {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	for _, team := range teams {
		p.Fprintf(out, "wins %s: %d (%.1f%%)\n", team, t.Wins[team], percent(t.Wins[team], battles))
	}
	p.Fprintf(out, "winner held initiative: %d (%.1f%%)\n", t.InitiativeWins, percent(t.InitiativeWins, battles))
	p.Fprintf(out, "mutual wipes: %d\n", t.NoWinner)
	p.Fprintf(out, "stalemates: %d\n", t.Stalemates)
	if r.Stored > 0 {
		p.Fprintf(out, "arena summaries stored: %d\n", r.Stored)
	}
	p.Fprintf(out, "elapsed: %v\n", r.Elapsed.Round(time.Millisecond))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
