package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"evtlab/adapters/postgres"
	"evtlab/adapters/report"
	"evtlab/adapters/stats/backtest"
	"evtlab/adapters/stats/gev"
	"evtlab/adapters/stats/pooling"
	"evtlab/adapters/stats/threshold"
	"evtlab/app"
	"evtlab/domain/evt"
	"evtlab/internal/config"
	"evtlab/internal/testkit"
	"evtlab/ports"
	"evtlab/ui"
)

var (
	inputPath    string
	minThreshold float64
	maxThreshold float64
	sweepSteps   int
	mu           float64
	sigma        float64
	xi           float64
	varLevel     float64
	partialPool  bool
	exactTests   bool
)

var rootCmd = &cobra.Command{
	Use:   "evtlab",
	Short: "Extreme value analysis for traffic conflict data",
	Long: `evtlab fits generalized extreme value models to traffic conflict
measurements, pools estimates across sites, and backtests the resulting
risk forecasts.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a multi-site analysis from a JSON input file",
	Long: `Run partial pooling and per-site risk measures over block maxima.

The input file holds {"sites": [...], "block_maxima": {"<site-id>": [...]}}
matching the /api/analysis request shape.`,
	RunE: runAnalyze,
}

var mrlCmd = &cobra.Command{
	Use:   "mrl",
	Short: "Compute the mean residual life curve for threshold selection",
	RunE:  runMRL,
}

var stabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Compute the GPD parameter stability curve",
	RunE:  runStability,
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Compute crash risk, VaR, and CVaR for one parameter set",
	RunE:  runRisk,
}

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Pool site estimates from a JSON input file",
	Long: `Estimate per-site GEV parameters from block maxima, either independently
(no pooling) or with shrinkage toward the population (partial pooling).`,
	RunE: runPool,
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "VaR backtests",
}

var kupiecCmd = &cobra.Command{
	Use:   "kupiec <violations> <observations> <expected-rate>",
	Short: "Run the Kupiec unconditional coverage test",
	Args:  cobra.ExactArgs(3),
	RunE:  runKupiec,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(mrlCmd)
	rootCmd.AddCommand(stabilityCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(kupiecCmd)

	analyzeCmd.Flags().StringVar(&inputPath, "input", "", "Path to the JSON input file")
	analyzeCmd.Flags().Float64Var(&xi, "xi", 0.0, "Shared GEV shape parameter")
	analyzeCmd.Flags().Float64Var(&varLevel, "var-level", 99.0, "VaR level in percent")
	analyzeCmd.MarkFlagRequired("input")

	riskCmd.Flags().Float64Var(&mu, "mu", 0, "GEV location")
	riskCmd.Flags().Float64Var(&sigma, "sigma", 1, "GEV scale")
	riskCmd.Flags().Float64Var(&xi, "xi", 0, "GEV shape")
	riskCmd.Flags().Float64Var(&varLevel, "var-level", 99.0, "VaR level in percent")

	for _, cmd := range []*cobra.Command{mrlCmd, stabilityCmd} {
		cmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON array of measurements")
		cmd.Flags().Float64Var(&minThreshold, "min", 0, "Lowest threshold in the sweep")
		cmd.Flags().Float64Var(&maxThreshold, "max", 1, "Highest threshold in the sweep")
		cmd.Flags().IntVar(&sweepSteps, "steps", 20, "Number of sweep intervals")
		cmd.MarkFlagRequired("input")
	}

	poolCmd.Flags().StringVar(&inputPath, "input", "", "Path to the JSON input file")
	poolCmd.Flags().Float64Var(&xi, "xi", 0.0, "Shared GEV shape parameter")
	poolCmd.Flags().BoolVar(&partialPool, "partial", true, "Shrink toward the population estimate")
	poolCmd.MarkFlagRequired("input")

	kupiecCmd.Flags().BoolVar(&exactTests, "exact", false, "Use exact reference distributions")
}

func main() {
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var ledger ports.RunLedger
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		ledger = repo
		logger.Info().Msg("using postgres run ledger")
	} else {
		ledger = testkit.NewInMemoryRunLedger()
		logger.Info().Msg("no DATABASE_URL set, using in-memory run ledger")
	}

	service := app.NewAnalysisService(ledger)
	httpApp := ui.NewApp(service, ledger, logger)

	return httpApp.Run(ui.Config{Port: cfg.Server.Port})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var input struct {
		Sites       []evt.Site           `json:"sites"`
		BlockMaxima map[string][]float64 `json:"block_maxima"`
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	service := app.NewAnalysisService(nil)
	result, err := service.RunAnalysis(context.Background(), app.AnalysisRequest{
		Sites:       input.Sites,
		BlockMaxima: input.BlockMaxima,
		Xi:          xi,
		VaRLevel:    varLevel,
	})
	if err != nil {
		return err
	}

	fmt.Println(report.MarkdownSummary(result.Run))
	return nil
}

func runRisk(cmd *cobra.Command, args []string) error {
	params := evt.GEVParams{Mu: mu, Sigma: sigma, Xi: xi}

	crashRisk, err := gev.CrashRisk(params)
	if err != nil {
		return err
	}
	varValue, err := gev.ValueAtRisk(varLevel, params)
	if err != nil {
		return err
	}
	cvar, err := gev.ConditionalValueAtRisk(params, varLevel, varValue)
	if err != nil {
		return err
	}

	return printJSON(map[string]float64{
		"crash_risk": crashRisk,
		"var":        varValue,
		"cvar":       cvar,
	})
}

func runPool(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var input struct {
		Sites       []evt.Site           `json:"sites"`
		BlockMaxima map[string][]float64 `json:"block_maxima"`
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	if !partialPool {
		return printJSON(map[string]interface{}{
			"estimates": pooling.NoPooling(input.Sites, input.BlockMaxima, xi),
		})
	}

	model, estimates := pooling.PartialPooling(input.Sites, input.BlockMaxima, xi)
	return printJSON(map[string]interface{}{
		"model":     model,
		"estimates": estimates,
	})
}

func runMRL(cmd *cobra.Command, args []string) error {
	data, err := readSamples(inputPath)
	if err != nil {
		return err
	}

	points, err := threshold.MeanResidualLife(data, minThreshold, maxThreshold, sweepSteps)
	if err != nil {
		return err
	}
	return printJSON(points)
}

func runStability(cmd *cobra.Command, args []string) error {
	data, err := readSamples(inputPath)
	if err != nil {
		return err
	}

	points, err := threshold.ParameterStability(data, minThreshold, maxThreshold, sweepSteps)
	if err != nil {
		return err
	}
	return printJSON(points)
}

func runKupiec(cmd *cobra.Command, args []string) error {
	var violations, observations int
	var expectedRate float64
	if _, err := fmt.Sscanf(args[0], "%d", &violations); err != nil {
		return fmt.Errorf("invalid violations count: %s", args[0])
	}
	if _, err := fmt.Sscanf(args[1], "%d", &observations); err != nil {
		return fmt.Errorf("invalid observation count: %s", args[1])
	}
	if _, err := fmt.Sscanf(args[2], "%g", &expectedRate); err != nil {
		return fmt.Errorf("invalid expected rate: %s", args[2])
	}

	suite := backtest.NewSuite()
	if exactTests {
		suite = backtest.NewExactSuite()
	}

	result, err := suite.Kupiec(violations, observations, expectedRate)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func readSamples(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	var samples []float64
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return samples, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
