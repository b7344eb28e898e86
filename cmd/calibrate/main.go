// Package main fits random walk parameters so the anemone consumes food at a
// target rate, using Nelder-Mead over seeded simulation runs.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/anemone/config"
	"github.com/pthm-cable/anemone/engine"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	target := flag.Float64("target", 0.001, "Target capture rate (consumed per particle per tick)")
	ticks := flag.Int("ticks", 0, "Ticks per run (0 = use config)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	fitRadius := flag.Bool("fit-radius", false, "Also fit the sphere capture radius")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target < 0 {
		log.Fatal("--target must not be negative")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	if *ticks > 0 {
		baseCfg.Simulation.Ticks = *ticks
	}
	if *fitRadius && baseCfg.Anemone.Geometry != config.GeometrySphere {
		log.Fatal("--fit-radius needs sphere geometry")
	}
	if err := engine.Validate(baseCfg); err != nil {
		log.Fatalf("invalid base config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := NewParamVector(baseCfg, *fitRadius)

	// Generate seeds for evaluation
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, *target)

	dim := params.Dim()
	initX := params.Normalize(params.StartVector(baseCfg))

	// Open log file
	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	// Write header
	header := []string{"eval", "fitness", "capture_rate", "capture_rate_std"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	// Track evaluations and timing
	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	var bestRate float64
	var runErr error
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Values actually used
			clamped := params.Clamp(params.Denormalize(x))

			fitness, err := evaluator.Evaluate(ctx, clamped)
			if err != nil {
				if runErr == nil && !errors.Is(err, engine.ErrArithmeticFault) {
					runErr = err
				}
				return math.Inf(1)
			}
			evalCount++
			rate, rateStd := evaluator.LastRate()

			if fitness < bestFitness {
				bestFitness = fitness
				bestRate = rate
				bestParams = clamped
			}

			row := []string{
				strconv.Itoa(evalCount),
				fmt.Sprintf("%.6g", fitness),
				fmt.Sprintf("%.6g", rate),
				fmt.Sprintf("%.6g", rateStd),
			}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6g", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

			fmt.Printf("Eval %d/%d: rate=%.5f±%.5f target=%.5f (best=%.4g) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, rate, rateStd, *target, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Iterations: 10,
		},
	}
	method := &optimize.NelderMead{SimplexSize: 0.1}

	fmt.Printf("Starting Nelder-Mead calibration with %d parameters, max_evals=%d\n", dim, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, target rate: %g\n",
		*seeds, baseCfg.Simulation.Ticks, *target)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}
	if runErr != nil {
		log.Printf("run failed: %v", runErr)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil {
		if result == nil {
			log.Fatal("no successful evaluation")
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4g (capture rate %.5f)\n", bestFitness, bestRate)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6g\n", spec.Path, bestParams[i])
	}

	// Save best config
	bestCfg := baseCfg.Clone()
	bestCfg.Simulation.Seed = nil
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
