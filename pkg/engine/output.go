package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// GenerationReport summarizes one scored generation.
type GenerationReport struct {
	Attempt     int     `json:"attempt"`
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	AvgFitness  float64 `json:"avg_fitness"`
	StdDev      float64 `json:"stddev"`
	PoolSize    int     `json:"pool_size"`
	BestGenome  string  `json:"best_genome"`
}

// AttemptResult summarizes one restart attempt.
type AttemptResult struct {
	Attempt        int         `json:"attempt"`
	Generations    int         `json:"generations"`
	BestFoundAtGen int         `json:"best_found_at_gen"`
	BestGenome     poly.Genome `json:"best_genome"`
	BestFitness    float64     `json:"best_fitness"`
	Collapsed      bool        `json:"collapsed,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// FinalReport summarizes the entire run.
type FinalReport struct {
	Config           Config             `json:"config"`
	Seed             int64              `json:"seed"`
	Generations      []GenerationReport `json:"generations,omitempty"`
	BestGenome       poly.Genome        `json:"best_genome"`
	BestFitness      float64            `json:"best_fitness"`
	BestMAE          float64            `json:"best_mae"`
	Baseline         poly.Genome        `json:"baseline,omitempty"`
	BaselineMAE      float64            `json:"baseline_mae,omitempty"`
	Attempts         []AttemptResult    `json:"attempts,omitempty"`
	TotalGenerations int                `json:"total_generations"`
	Interrupted      bool               `json:"interrupted,omitempty"`
}

// WriteTextReport writes a generation report in human-readable format.
func WriteTextReport(w io.Writer, r GenerationReport) {
	fmt.Fprintf(w, "Gen %4d | Best: %.4f | Avg: %.4f ± %.4f | Pool %d | %s\n",
		r.Generation, r.BestFitness, r.AvgFitness, r.StdDev, r.PoolSize, r.BestGenome)
}

// sortByFitness returns a copy of attempts sorted by best fitness descending.
func sortByFitness(attempts []AttemptResult) []AttemptResult {
	sorted := make([]AttemptResult, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BestFitness > sorted[j].BestFitness
	})
	return sorted
}

// WriteHallOfFame writes the sorted hall of fame across attempts.
func WriteHallOfFame(w io.Writer, attempts []AttemptResult) {
	sorted := sortByFitness(attempts)
	fmt.Fprintln(w, "\n--- Hall of Fame ---")
	for i, a := range sorted {
		status := ""
		if a.Collapsed {
			status = " (collapsed)"
		}
		fmt.Fprintf(w, "  #%d: [attempt %d, gen %d] MAE %10.4f | %s%s\n",
			i+1, a.Attempt, a.BestFoundAtGen, -a.BestFitness, a.BestGenome, status)
	}
}

// WriteTextFinal writes the final report in human-readable format.
func WriteTextFinal(w io.Writer, r FinalReport) {
	for _, g := range r.Generations {
		WriteTextReport(w, g)
	}
	if len(r.Attempts) > 0 {
		WriteHallOfFame(w, r.Attempts)
	}
	fmt.Fprintln(w, "\n========== FINAL RESULT ==========")
	fmt.Fprintf(w, "Degree:      %d\n", r.Config.Degree)
	fmt.Fprintf(w, "Strategy:    %s\n", r.Config.Strategy)
	fmt.Fprintf(w, "Pool:        %s\n", r.Config.Pool)
	fmt.Fprintf(w, "Seed:        %d\n", r.Seed)
	fmt.Fprintf(w, "Generations: %d\n", r.TotalGenerations)
	fmt.Fprintf(w, "Best:        %s\n", r.BestGenome)
	fmt.Fprintf(w, "LaTeX:       %s\n", r.BestGenome.LaTeX())
	fmt.Fprintf(w, "MAE:         %.6f\n", r.BestMAE)
	if r.Baseline != nil {
		fmt.Fprintf(w, "Least sq.:   %s (MAE %.6f)\n", r.Baseline, r.BaselineMAE)
	}
	if r.Interrupted {
		fmt.Fprintln(w, "Interrupted: yes")
	}
	fmt.Fprintln(w, "==================================")
}

// WriteJSONFinal writes the final report as JSON.
func WriteJSONFinal(w io.Writer, r FinalReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteHallOfFameLatex writes a compilable LaTeX document of the hall of fame.
func WriteHallOfFameLatex(w io.Writer, attempts []AttemptResult, cfg Config, seed int64) {
	sorted := sortByFitness(attempts)

	genBudget := "unlimited"
	if cfg.Generations > 0 {
		genBudget = fmt.Sprintf("%d", cfg.Generations)
	}

	fmt.Fprintln(w, `\documentclass{article}`)
	fmt.Fprintln(w, `\usepackage{amsmath}`)
	fmt.Fprintln(w, `\usepackage{geometry}`)
	fmt.Fprintln(w, `\geometry{margin=1in}`)
	fmt.Fprintf(w, "\\title{Hall of Fame --- degree %d polynomial}\n", cfg.Degree)
	fmt.Fprintln(w, `\date{\today}`)
	fmt.Fprintln(w, `\begin{document}`)
	fmt.Fprintln(w, `\maketitle`)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\\noindent Strategy: \\texttt{%s}, Pool: \\texttt{%s}\\\\\n", cfg.Strategy, cfg.Pool)
	fmt.Fprintf(w, "Population: %d, Gen budget: %s, Stagnation: %d, Workers: %d, Seed: %d\n\n",
		cfg.Population, genBudget, cfg.StagnationLimit, cfg.Workers, seed)

	for i, a := range sorted {
		fmt.Fprintf(w, "\\subsection*{\\#%d --- MAE %.4f (attempt %d, gen %d, %s)}\n",
			i+1, -a.BestFitness, a.Attempt, a.BestFoundAtGen,
			a.Timestamp.Format("2006-01-02 15:04:05 UTC"))
		fmt.Fprintln(w, `\[`)
		fmt.Fprintf(w, "  y = %s\n", a.BestGenome.LaTeX())
		fmt.Fprintln(w, `\]`)
	}

	fmt.Fprintln(w, `\end{document}`)
}
