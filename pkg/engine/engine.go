package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wildfunctions/genetic_poly/pkg/pool"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
	"github.com/wildfunctions/genetic_poly/pkg/strategy"
)

// State is the position of the engine in the per-generation pipeline.
type State int

const (
	StateInitialized State = iota // population exists, not scored
	StateEvaluated
	StateSelected
	StateBred
	StateReady // next population installed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateEvaluated:
		return "evaluated"
	case StateSelected:
		return "selected"
	case StateBred:
		return "bred"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Generation is what one Advance emits. Population is the newly bred
// generation Index; Parents and Fitness describe the generation it was bred
// from, index-aligned. None of the slices are modified after emission.
type Generation struct {
	Attempt      int           `json:"attempt"` // 1 + number of Resets since construction
	Index        int           `json:"index"`
	Population   []poly.Genome `json:"population"`
	Parents      []poly.Genome `json:"parents"`
	Fitness      []float64     `json:"fitness"`
	Elite        poly.Genome   `json:"elite"`
	EliteIndex   int           `json:"elite_index"`
	EliteFitness float64       `json:"elite_fitness"`
	Threshold    float64       `json:"threshold"`
	PoolSize     int           `json:"pool_size"`
	Fallback     bool          `json:"fallback,omitempty"`
	Stats        Stats         `json:"stats"`
}

// Engine runs the evolutionary search one generation at a time.
type Engine struct {
	cfg      Config
	data     []poly.DataPoint
	pool     pool.Pool
	strategy strategy.Strategy
	rng      *rand.Rand
	seed     int64
	logger   *zap.Logger
	initial  []poly.Genome

	population []poly.Genome
	generation int
	attempt    int
	state      State

	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextSub     int
	closed      bool
	dropped     atomic.Int64
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInitialPopulation replaces the random generation 0. The genomes are
// copied; their count must equal Config.Population and each must have
// Config.Degree+1 coefficients.
func WithInitialPopulation(pop []poly.Genome) Option {
	return func(e *Engine) {
		e.initial = pop
	}
}

// New validates cfg and data and creates generation 0.
// Every validation failure wraps ErrInvalidConfig.
func New(cfg Config, data []poly.DataPoint, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := poly.ValidateData(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	p, err := pool.Get(cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	e := &Engine{
		cfg:         cfg,
		data:        append([]poly.DataPoint(nil), data...),
		pool:        p,
		strategy:    s,
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
		logger:      zap.NewNop(),
		subscribers: make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.initial != nil {
		if err := e.installInitial(); err != nil {
			return nil, err
		}
	} else if err := e.Reset(); err != nil {
		return nil, err
	}

	e.logger.Info("engine initialized",
		zap.Int("population", cfg.Population),
		zap.Int("degree", cfg.Degree),
		zap.Int("points", len(data)),
		zap.String("strategy", s.Name()),
		zap.String("pool", p.Name()),
		zap.Int64("seed", seed))
	return e, nil
}

func (e *Engine) installInitial() error {
	if len(e.initial) != e.cfg.Population {
		return fmt.Errorf("%w: initial population has %d genomes, want %d",
			ErrInvalidConfig, len(e.initial), e.cfg.Population)
	}
	pop := make([]poly.Genome, len(e.initial))
	for i, g := range e.initial {
		if len(g) != e.cfg.Degree+1 {
			return fmt.Errorf("%w: initial genome %d has %d coefficients, want %d",
				ErrInvalidConfig, i, len(g), e.cfg.Degree+1)
		}
		pop[i] = g.Clone()
	}
	e.population = pop
	e.generation = 0
	e.attempt = 1
	e.state = StateInitialized
	return nil
}

// Reset replaces the population with a fresh random generation 0 drawn from
// the engine's random stream and starts a new attempt. Callers use it to
// restart after a collapse.
func (e *Engine) Reset() error {
	pop, err := pool.Initialize(e.pool, e.rng, e.cfg.Population, e.cfg.Degree)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	e.population = pop
	e.generation = 0
	e.attempt++
	e.state = StateInitialized
	return nil
}

// Advance evaluates the current population, selects, breeds the next one and
// installs it. On error the current population and index are kept; a
// collapsed breeding pool surfaces as strategy.ErrInsufficientDiversity.
// Advance is not safe for concurrent use.
func (e *Engine) Advance(ctx context.Context) (Generation, error) {
	fitnesses, err := e.evaluatePopulation(ctx, e.population)
	if err != nil {
		return Generation{}, err
	}
	e.state = StateEvaluated

	sel, err := e.strategy.Select(e.population, fitnesses, e.cfg.Params)
	if err != nil {
		e.logger.Warn("selection failed",
			zap.Int("generation", e.generation),
			zap.Int("pool_size", len(sel.Pool)),
			zap.Float64("threshold", sel.Threshold),
			zap.Error(err))
		return Generation{}, fmt.Errorf("generation %d: %w", e.generation, err)
	}
	e.state = StateSelected
	if sel.Fallback {
		e.logger.Warn("breeding pool collapsed, resampling from full population",
			zap.Int("generation", e.generation),
			zap.Int("pool_size", len(sel.Pool)))
	}

	next, err := e.strategy.Breed(sel, e.population, e.cfg.Params, e.rng)
	if err != nil {
		return Generation{}, fmt.Errorf("generation %d: %w", e.generation, err)
	}
	e.state = StateBred

	gen := Generation{
		Attempt:      e.attempt,
		Index:        e.generation + 1,
		Population:   next,
		Parents:      e.population,
		Fitness:      fitnesses,
		Elite:        sel.Elite,
		EliteIndex:   sel.EliteIndex,
		EliteFitness: sel.EliteFitness,
		Threshold:    sel.Threshold,
		PoolSize:     len(sel.Pool),
		Fallback:     sel.Fallback,
		Stats:        computeStats(e.population, fitnesses),
	}

	e.population = next
	e.generation++
	e.state = StateReady

	e.logger.Debug("generation advanced",
		zap.Int("generation", gen.Index),
		zap.Float64("best", gen.Stats.Best),
		zap.Float64("mean", gen.Stats.Mean),
		zap.Int("pool_size", gen.PoolSize))

	e.publish(gen)
	return gen, nil
}

// Evaluate scores the current population without advancing.
func (e *Engine) Evaluate(ctx context.Context) ([]float64, error) {
	return e.evaluatePopulation(ctx, e.population)
}

// evaluatePopulation scores pop in parallel; results keep population order.
func (e *Engine) evaluatePopulation(ctx context.Context, pop []poly.Genome) ([]float64, error) {
	n := len(pop)
	fitnesses := make([]float64, n)

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start := start // per-iteration copy (go <1.22 loop semantics)
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				f, err := poly.Fitness(pop[i], e.data)
				if err != nil {
					return err
				}
				fitnesses[i] = f
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitnesses, nil
}

// Population returns the current generation. Callers must not modify it.
func (e *Engine) Population() []poly.Genome { return e.population }

// Generation returns the index of the current population.
func (e *Engine) Generation() int { return e.generation }

// Attempt returns the current attempt, starting at 1.
func (e *Engine) Attempt() int { return e.attempt }

// State returns the last pipeline state reached.
func (e *Engine) State() State { return e.state }

// Seed returns the seed actually used, including a randomly chosen one.
func (e *Engine) Seed() int64 { return e.seed }

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Data returns the observations the engine fits. Callers must not modify it.
func (e *Engine) Data() []poly.DataPoint { return e.data }
