package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wildfunctions/genetic_poly/pkg/dataset"
	"github.com/wildfunctions/genetic_poly/pkg/engine"
	"github.com/wildfunctions/genetic_poly/pkg/history"
	"github.com/wildfunctions/genetic_poly/pkg/pool"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
	"github.com/wildfunctions/genetic_poly/pkg/render"
	"github.com/wildfunctions/genetic_poly/pkg/strategy"
)

var (
	verbose    bool
	configPath string
	logger     *zap.Logger

	// run flags that have no Config field
	dataPath  string
	dbPath    string
	plotDir   string
	historyDB string
	plotEvery int
	logEvery  int
	synth     = dataset.DefaultSpec()
)

var rootCmd = &cobra.Command{
	Use:   "polyfit",
	Short: "Estimate polynomial coefficients with a genetic algorithm",
	Long: `polyfit evolves the coefficients of a fixed-degree polynomial so that it
fits a set of (x, y) observations, minimizing the mean absolute error.

Without --data a synthetic noisy data set is generated from a random polynomial.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runSearch,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evolutionary search (default command)",
	RunE:  runSearch,
}

var generateCmd = &cobra.Command{
	Use:   "generate [file.csv]",
	Short: "Write a synthetic data set as x,y CSV",
	Long: `Draws random ground-truth coefficients, samples them with Gaussian noise and
writes the points as CSV (stdout when no file is given). The ground truth is
printed to stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: generateData,
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or the generations of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showHistory,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and per-generation report")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "polyfit.yaml", "YAML config file")

	defaults := engine.DefaultConfig()
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		f := cmd.Flags()
		f.Int("population", defaults.Population, "population size")
		f.Int("degree", defaults.Degree, "polynomial degree")
		f.String("strategy", defaults.Strategy, "evolution strategy ("+strings.Join(strategy.Names(), ", ")+")")
		f.String("pool", defaults.Pool, "gene pool ("+strings.Join(pool.Names(), ", ")+")")
		f.Int64("seed", defaults.Seed, "random seed (0 = random)")
		f.Int("workers", defaults.Workers, "parallel fitness workers")
		f.Int("generations", defaults.Generations, "generation budget (0 = until interrupted)")
		f.Int("stagnation", defaults.StagnationLimit, "generations without improvement before restart")
		f.Float64("tolerance", defaults.Tolerance, "stop once the best MAE is at or below this")
		f.Float64("truncation", defaults.Params.Truncation, "truncation fraction for parent selection")
		f.Float64("mutation-prob", defaults.Params.MutationProbability, "per-gene mutation probability")
		f.Float64("mutation-mag", defaults.Params.MutationMagnitude, "maximum mutation perturbation")
		f.Float64("crossover-bias", defaults.Params.CrossoverBias, "probability a child gene comes from the first parent")
		f.String("format", defaults.Format, "output format (text, json)")
		f.String("outdir", defaults.OutDir, "directory for hall of fame artifacts")
		f.StringVar(&dataPath, "data", "", "x,y CSV file to fit")
		f.StringVar(&dbPath, "history", "", "SQLite database recording the run")
		f.StringVar(&plotDir, "plots", "", "directory for PNG plots")
		f.IntVar(&plotEvery, "plot-every", 50, "generations between curve snapshots")
		f.IntVar(&logEvery, "log-every", 100, "generations between progress log lines")
	}

	gf := generateCmd.Flags()
	gf.IntVar(&synth.Degree, "degree", synth.Degree, "degree of the ground truth")
	gf.IntVar(&synth.Points, "points", synth.Points, "number of samples")
	gf.Float64Var(&synth.XMin, "xmin", synth.XMin, "smallest x")
	gf.Float64Var(&synth.XMax, "xmax", synth.XMax, "largest x")
	gf.Float64Var(&synth.Noise, "noise", synth.Noise, "standard deviation of y noise")
	gf.Float64Var(&synth.CoeffRange, "coeff-range", synth.CoeffRange, "ground-truth coefficient bound")
	gf.Int64("seed", 0, "random seed (0 = random)")

	historyCmd.Flags().StringVar(&historyDB, "history", "polyfit.db", "SQLite database to read")

	rootCmd.AddCommand(runCmd, generateCmd, historyCmd)
}

// configFromFlags loads the config file and applies flags the user set.
func configFromFlags(cmd *cobra.Command) (engine.Config, error) {
	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		return engine.Config{}, err
	}
	f := cmd.Flags()
	set := func(name string, apply func() error) error {
		if !f.Changed(name) {
			return nil
		}
		return apply()
	}
	var errs []error
	errs = append(errs,
		set("population", func() (err error) { cfg.Population, err = f.GetInt("population"); return }),
		set("degree", func() (err error) { cfg.Degree, err = f.GetInt("degree"); return }),
		set("strategy", func() (err error) { cfg.Strategy, err = f.GetString("strategy"); return }),
		set("pool", func() (err error) { cfg.Pool, err = f.GetString("pool"); return }),
		set("seed", func() (err error) { cfg.Seed, err = f.GetInt64("seed"); return }),
		set("workers", func() (err error) { cfg.Workers, err = f.GetInt("workers"); return }),
		set("generations", func() (err error) { cfg.Generations, err = f.GetInt("generations"); return }),
		set("stagnation", func() (err error) { cfg.StagnationLimit, err = f.GetInt("stagnation"); return }),
		set("tolerance", func() (err error) { cfg.Tolerance, err = f.GetFloat64("tolerance"); return }),
		set("truncation", func() (err error) { cfg.Params.Truncation, err = f.GetFloat64("truncation"); return }),
		set("mutation-prob", func() (err error) { cfg.Params.MutationProbability, err = f.GetFloat64("mutation-prob"); return }),
		set("mutation-mag", func() (err error) { cfg.Params.MutationMagnitude, err = f.GetFloat64("mutation-mag"); return }),
		set("crossover-bias", func() (err error) { cfg.Params.CrossoverBias, err = f.GetFloat64("crossover-bias"); return }),
		set("format", func() (err error) { cfg.Format, err = f.GetString("format"); return }),
		set("outdir", func() (err error) { cfg.OutDir, err = f.GetString("outdir"); return }),
	)
	if err := errors.Join(errs...); err != nil {
		return engine.Config{}, err
	}
	cfg.Verbose = cfg.Verbose || verbose
	return cfg, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	var data []poly.DataPoint
	if dataPath != "" {
		if data, err = dataset.Load(dataPath); err != nil {
			return fmt.Errorf("load data: %w", err)
		}
	} else {
		spec := dataset.DefaultSpec()
		spec.Degree = cfg.Degree
		dataSeed := cfg.Seed
		if dataSeed == 0 {
			dataSeed = rand.Int63()
		}
		truth, points, err := dataset.Generate(rand.New(rand.NewSource(dataSeed)), spec)
		if err != nil {
			return err
		}
		logger.Info("using synthetic data", zap.Stringer("truth", truth), zap.Int("points", len(points)))
		data = points
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := engine.New(cfg, data, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	e.Subscribe(engine.LogObserver(logger, logEvery))

	var closers []func() error
	if dbPath != "" {
		rec := history.NewRecorder(dbPath, logger)
		if err := rec.Init(ctx); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		id, err := rec.StartRun(ctx, cfg, e.Seed())
		if err != nil {
			_ = rec.Close()
			return fmt.Errorf("record run: %w", err)
		}
		logger.Info("recording run", zap.String("run_id", id), zap.String("db", dbPath))
		e.Subscribe(rec)
		closers = append(closers, rec.Close)
	}
	if plotDir != "" {
		plots, err := render.NewPlotObserver(plotDir, plotEvery, data)
		if err != nil {
			return err
		}
		e.Subscribe(plots)
		closers = append(closers, plots.Close)
	}

	report, runErr := e.Run(ctx)
	_ = e.Close()
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Warn("closing observer failed", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if n := e.Dropped(); n > 0 {
		logger.Warn("observers skipped generations", zap.Int64("dropped", n))
	}

	if cfg.Format == "json" {
		return engine.WriteJSONFinal(cmd.OutOrStdout(), report)
	}
	engine.WriteTextFinal(cmd.OutOrStdout(), report)
	return nil
}

func generateData(cmd *cobra.Command, args []string) error {
	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	truth, data, err := dataset.Generate(rand.New(rand.NewSource(seed)), synth)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "truth: %s (seed %d)\n", truth, seed)

	if len(args) == 0 {
		return dataset.WriteCSV(cmd.OutOrStdout(), data)
	}
	return dataset.Save(args[0], data)
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rec := history.NewRecorder(historyDB, logger)
	if err := rec.Init(ctx); err != nil {
		return err
	}
	defer rec.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		runs, err := rec.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  seed %-20d degree %d  pop %d  %s/%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Seed,
				r.Config.Degree, r.Config.Population, r.Config.Strategy, r.Config.Pool)
		}
		return nil
	}

	gens, err := rec.Generations(ctx, args[0])
	if err != nil {
		return err
	}
	for _, g := range gens {
		fmt.Fprintf(out, "Attempt %3d | Gen %4d | Best: %.4f | Avg: %.4f ± %.4f | %s\n",
			g.Attempt, g.Index, g.Best, g.Mean, g.StdDev, g.Elite)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
