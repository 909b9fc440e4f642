package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wildfunctions/genetic_poly/pkg/baseline"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
	"github.com/wildfunctions/genetic_poly/pkg/strategy"
)

// Run drives Advance until the generation budget is spent, the tolerance is
// reached or ctx is cancelled. An attempt ends on stagnation or on a
// collapsed breeding pool; the population is then Reset and a new attempt
// starts. A generation that fails with ErrInsufficientDiversity still counts
// against the budget. Cancellation is not an error: the report is marked
// Interrupted.
func (e *Engine) Run(ctx context.Context) (FinalReport, error) {
	var hallOfFame []AttemptResult
	var genReports []GenerationReport
	totalGensUsed := 0
	attempt := 0
	done := false
	interrupted := false

	genBudget := "unlimited"
	if e.cfg.Generations > 0 {
		genBudget = fmt.Sprintf("%d", e.cfg.Generations)
	}
	e.logger.Info("starting run",
		zap.String("strategy", e.cfg.Strategy),
		zap.String("pool", e.cfg.Pool),
		zap.Int("population", e.cfg.Population),
		zap.Int("degree", e.cfg.Degree),
		zap.String("generations", genBudget),
		zap.Int("stagnation", e.cfg.StagnationLimit),
		zap.Int("workers", e.cfg.Workers),
		zap.Int64("seed", e.seed))

	unlimited := e.cfg.Generations <= 0
	for !done && (unlimited || totalGensUsed < e.cfg.Generations) {
		if attempt > 0 {
			if err := e.Reset(); err != nil {
				return FinalReport{}, err
			}
		}
		attempt = e.attempt
		e.logger.Info("attempt started", zap.Int("attempt", attempt))

		ar := AttemptResult{Attempt: attempt, BestFitness: math.Inf(-1)}
		gensSinceImprovement := 0

		for unlimited || totalGensUsed < e.cfg.Generations {
			gen, err := e.Advance(ctx)
			if err != nil {
				if ctx.Err() != nil {
					interrupted, done = true, true
					break
				}
				if errors.Is(err, strategy.ErrInsufficientDiversity) {
					totalGensUsed++
					ar.Collapsed = true
					e.logger.Warn("attempt collapsed", zap.Int("attempt", attempt), zap.Error(err))
					break
				}
				return FinalReport{}, err
			}
			totalGensUsed++
			ar.Generations++

			improved := gen.EliteFitness > ar.BestFitness
			if improved {
				ar.BestGenome = gen.Elite.Clone()
				ar.BestFitness = gen.EliteFitness
				ar.BestFoundAtGen = gen.Index - 1
				gensSinceImprovement = 0
				e.logger.Info("new best",
					zap.Int("attempt", attempt),
					zap.Int("generation", gen.Index-1),
					zap.Float64("mae", -gen.EliteFitness),
					zap.Stringer("genome", gen.Elite))
			} else {
				gensSinceImprovement++
			}

			if e.cfg.Verbose {
				genReports = append(genReports, GenerationReport{
					Attempt:     attempt,
					Generation:  gen.Index - 1,
					BestFitness: gen.Stats.Best,
					AvgFitness:  gen.Stats.Mean,
					StdDev:      gen.Stats.StdDev,
					PoolSize:    gen.PoolSize,
					BestGenome:  gen.Elite.String(),
				})
			}

			if e.cfg.Tolerance > 0 && -ar.BestFitness <= e.cfg.Tolerance {
				e.logger.Info("tolerance reached",
					zap.Int("generation", gen.Index-1),
					zap.Float64("mae", -ar.BestFitness))
				done = true
				break
			}

			if e.cfg.StagnationLimit > 0 && gensSinceImprovement >= e.cfg.StagnationLimit {
				e.logger.Info("attempt stagnated",
					zap.Int("attempt", attempt),
					zap.Int("generations_without_improvement", gensSinceImprovement))
				break
			}
		}

		ar.Timestamp = time.Now().UTC()
		if math.IsInf(ar.BestFitness, -1) {
			ar.BestFitness = 0
		}
		hallOfFame = append(hallOfFame, ar)

		if e.cfg.OutDir != "" {
			if err := e.writeLatexArtifacts(hallOfFame); err != nil {
				e.logger.Warn("writing hall of fame failed", zap.Error(err))
			}
		}
	}

	report := FinalReport{
		Config:           e.cfg,
		Seed:             e.seed,
		Attempts:         hallOfFame,
		TotalGenerations: totalGensUsed,
		Interrupted:      interrupted,
		Generations:      genReports,
	}
	for _, a := range hallOfFame {
		if a.BestGenome != nil && (report.BestGenome == nil || a.BestFitness > report.BestFitness) {
			report.BestGenome = a.BestGenome
			report.BestFitness = a.BestFitness
			report.BestMAE = -a.BestFitness
		}
	}

	if b, err := baseline.Fit(e.data, e.cfg.Degree); err == nil {
		report.Baseline = b
		report.BaselineMAE = poly.MeanAbsError(b, e.data)
	} else {
		e.logger.Debug("baseline fit unavailable", zap.Error(err))
	}

	return report, nil
}

// writeLatexArtifacts writes hall_of_fame.tex to OutDir after each attempt so
// it survives an interrupted run, and compiles it when pdflatex is available.
func (e *Engine) writeLatexArtifacts(attempts []AttemptResult) error {
	absOut, err := filepath.Abs(e.cfg.OutDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return err
	}
	texPath := filepath.Join(absOut, "hall_of_fame.tex")
	f, err := os.Create(texPath)
	if err != nil {
		return err
	}
	WriteHallOfFameLatex(f, attempts, e.cfg, e.seed)
	if err := f.Close(); err != nil {
		return err
	}
	e.logger.Debug("wrote hall of fame", zap.String("path", texPath))

	pdflatex, err := exec.LookPath("pdflatex")
	if err != nil {
		return nil
	}
	cmd := exec.Command(pdflatex, "-interaction=nonstopmode", "hall_of_fame.tex")
	cmd.Dir = absOut
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdflatex failed: %w\n%s", err, out)
	}
	for _, ext := range []string{".aux", ".log"} {
		os.Remove(filepath.Join(absOut, "hall_of_fame"+ext))
	}
	return nil
}
