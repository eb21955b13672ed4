package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/analyzer"
	"github.com/opscart/rule-score-analyzer/pkg/config"
	"github.com/opscart/rule-score-analyzer/pkg/datasource"
	"github.com/opscart/rule-score-analyzer/pkg/metrics"
	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/opscart/rule-score-analyzer/pkg/reporter"
	"github.com/opscart/rule-score-analyzer/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Analyze flags
	ruleID          string
	samplesFile     string
	usePrometheus   bool
	window          time.Duration
	outputFormat    string
	saveResults     bool
	reportFormat    string
	reportOutput    string
	noTrends        bool
	noPredictions   bool
	confidence      float64
	noCache         bool
	metricsTextfile string

	// History flags
	historyLimit int

	cfg *config.Config
	log = logrus.New()
)

func main() {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "rule-score",
		Short: "Rule performance scoring and insights",
		Long: `Score rule executions against a stored baseline, fit trends over the
samples and report prioritized insights. Samples come from a YAML/JSON file
or from Prometheus.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL DSN (overrides RULESCORE_DATABASE_URL)")
	rootCmd.PersistentFlags().String("prometheus-url", "", "Prometheus URL (overrides RULESCORE_PROMETHEUS_URL)")
	_ = v.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = v.BindPFlag("prometheus_url", rootCmd.PersistentFlags().Lookup("prometheus-url"))

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze rule execution samples",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVarP(&ruleID, "rule", "r", "", "Rule identifier (defaults to the ruleId in --file)")
	analyzeCmd.Flags().StringVarP(&samplesFile, "file", "f", "", "Samples file (YAML or JSON)")
	analyzeCmd.Flags().BoolVar(&usePrometheus, "use-prometheus", false, "Load samples from Prometheus")
	analyzeCmd.Flags().DurationVar(&window, "window", 0, "Sample window (default from config)")
	analyzeCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, csv, markdown, html")
	analyzeCmd.Flags().BoolVar(&saveResults, "save", false, "Save the analysis and use the stored baseline")
	analyzeCmd.Flags().StringVar(&reportFormat, "report-format", "html", "Report format: html, markdown, csv, json, text")
	analyzeCmd.Flags().StringVar(&reportOutput, "report-output", "", "Also write a report to this file")
	analyzeCmd.Flags().BoolVar(&noTrends, "no-trends", false, "Skip trend analysis")
	analyzeCmd.Flags().BoolVar(&noPredictions, "no-predictions", false, "Skip predicted values and prediction insights")
	analyzeCmd.Flags().Float64Var(&confidence, "confidence", -1, "Minimum insight confidence (default from config)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	analyzeCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write analyzer counters to this Prometheus textfile")

	historyCmd := &cobra.Command{
		Use:   "history <rule-id>",
		Short: "View past analyses of a rule",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of analyses to show")

	baselineCmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect or reset stored baselines",
	}
	baselineCmd.AddCommand(
		&cobra.Command{
			Use:   "show <rule-id>",
			Short: "Show the stored baseline of a rule",
			Args:  cobra.ExactArgs(1),
			RunE:  runBaselineShow,
		},
		&cobra.Command{
			Use:   "clear <rule-id>",
			Short: "Forget the stored baseline of a rule",
			Args:  cobra.ExactArgs(1),
			RunE:  runBaselineClear,
		},
	)

	rootCmd.AddCommand(analyzeCmd, historyCmd, baselineCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var err error
	cfg, err = config.Load(v, configFile)
	if err != nil {
		return err
	}
	if verbose || cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return cfg.Validate()
}

func openStore(ctx context.Context) (*storage.PostgresStore, error) {
	store, err := storage.NewPostgresStore(ctx, storage.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func sampleSource() (datasource.SampleSource, error) {
	if usePrometheus {
		prom, err := datasource.NewPrometheusSource(datasource.Config{
			PrometheusURL: cfg.PrometheusURL,
			Step:          cfg.PrometheusStep,
		}, log)
		if err != nil {
			return nil, err
		}
		return prom, nil
	}
	if samplesFile == "" {
		return nil, fmt.Errorf("either --file or --use-prometheus must be specified")
	}
	return datasource.NewFileSource(samplesFile), nil
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	src, err := sampleSource()
	if err != nil {
		return err
	}

	if ruleID == "" {
		if fs, ok := src.(*datasource.FileSource); ok {
			if ruleID, err = fs.RuleID(); err != nil {
				return err
			}
		}
	}
	if ruleID == "" {
		return fmt.Errorf("--rule must be specified")
	}

	if !src.IsAvailable(ctx) {
		return fmt.Errorf("%s source is not available", src.Name())
	}

	// Files are read whole unless --window is given
	lookback := window
	if usePrometheus && lookback <= 0 {
		lookback = cfg.SamplesWindow
	}

	samples, err := src.GetSamples(ctx, ruleID, lookback)
	if err != nil {
		return fmt.Errorf("failed to load samples: %w", err)
	}
	log.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"source":  src.Name(),
		"samples": len(samples),
	}).Info("Loaded samples")

	collector := metrics.NewCollector()
	opts := []analyzer.Option{
		analyzer.WithLogger(log),
		analyzer.WithCollector(collector),
	}

	var store *storage.PostgresStore
	if saveResults || cfg.StorageEnabled {
		store, err = openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, analyzer.WithBaselineStore(store))
		log.Debug("Using PostgreSQL baseline store")
	}

	a := analyzer.New(cfg.AnalyzerSettings(), opts...)
	result, err := a.Analyze(ctx, ruleID, samples, analysisOptions())
	if err != nil {
		return err
	}

	if saveResults && store != nil {
		id, err := store.SaveResult(ctx, result)
		if err != nil {
			log.WithError(err).Warn("Failed to save analysis")
		} else {
			log.WithField("id", id).Info("Saved analysis")
		}
	}

	format := reporter.ReportFormat(cfg.OutputFormat)
	if outputFormat != "" {
		format = reporter.ReportFormat(outputFormat)
	}
	results := []*models.AnalysisResult{result}
	if err := writeReport(format, results, os.Stdout); err != nil {
		return err
	}

	if reportOutput != "" {
		if err := writeReportFile(reporter.ReportFormat(reportFormat), results, reportOutput); err != nil {
			log.WithError(err).Error("Failed to generate report")
		}
	}

	if metricsTextfile != "" {
		if err := collector.WriteTextfile(metricsTextfile); err != nil {
			log.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
	return nil
}

func analysisOptions() analyzer.Options {
	opts := cfg.DefaultOptions()
	if noTrends {
		opts.IncludeTrends = false
	}
	if noPredictions {
		opts.IncludePredictions = false
	}
	if confidence >= 0 {
		opts.ConfidenceThreshold = confidence
	}
	if noCache {
		opts.UseCache = false
	}
	return opts
}

func writeReport(format reporter.ReportFormat, results []*models.AnalysisResult, w io.Writer) error {
	rep := reporter.New(format)
	report, err := rep.Generate(results, "Rule Performance Report")
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return rep.Write(report, w)
}

func writeReportFile(format reporter.ReportFormat, results []*models.AnalysisResult, path string) error {
	if filepath.Ext(path) == "" {
		path += format.Extension()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create reports directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := writeReport(format, results, file); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"format": format,
		"path":   path,
	}).Info("Report generated")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rule := args[0]

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.ListResults(ctx, rule, historyLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No analyses found for rule: %s\n", rule)
		return nil
	}

	fmt.Printf("Recent analyses for rule '%s':\n\n", rule)
	for i, res := range results {
		fmt.Printf("%d. %s (ID: %s)\n", i+1, res.Timestamp.Format("2006-01-02 15:04:05"), res.ID)
		fmt.Printf("   Score: %.1f (%s)\n", res.Score, res.Grade)
		fmt.Printf("   Execution: %.0fms (%+.1f%% vs baseline)\n",
			res.Metrics.ExecutionTime, res.Comparison.ExecutionTime.PercentageChange)
		fmt.Printf("   Insights: %d\n", len(res.Insights))
		fmt.Println()
	}
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rule := args[0]

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	b, ok, err := store.Get(ctx, rule)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("No baseline stored for rule: %s\n", rule)
		return nil
	}

	fmt.Printf("Baseline for rule '%s' (created %s, %d samples)\n\n",
		rule, b.CreatedAt.Format("2006-01-02 15:04:05"), b.SampleCount)
	fmt.Printf("%-16s %10s %10s %10s %10s %10s\n", "Metric", "Avg", "Min", "Max", "P95", "P99")
	printEnvelopeRow("Execution (ms)", b.Averages.ExecutionTime, b.Min.ExecutionTime, b.Max.ExecutionTime, b.P95.ExecutionTime, b.P99.ExecutionTime)
	printEnvelopeRow("Memory (MB)", b.Averages.MemoryUsage, b.Min.MemoryUsage, b.Max.MemoryUsage, b.P95.MemoryUsage, b.P99.MemoryUsage)
	printEnvelopeRow("CPU (%)", b.Averages.CPUUsage, b.Min.CPUUsage, b.Max.CPUUsage, b.P95.CPUUsage, b.P99.CPUUsage)
	printEnvelopeRow("Throughput", b.Averages.Throughput, b.Min.Throughput, b.Max.Throughput, b.P95.Throughput, b.P99.Throughput)
	printEnvelopeRow("Latency (ms)", b.Averages.Latency, b.Min.Latency, b.Max.Latency, b.P95.Latency, b.P99.Latency)
	fmt.Printf("\nEfficiency: %.1f  Success rate: %.1f%%\n", b.Averages.Efficiency, b.Averages.SuccessRate)
	return nil
}

func printEnvelopeRow(name string, avg, lo, hi, p95, p99 float64) {
	fmt.Printf("%-16s %10.1f %10.1f %10.1f %10.1f %10.1f\n", name, avg, lo, hi, p95, p99)
}

func runBaselineClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rule := args[0]

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	a := analyzer.New(cfg.AnalyzerSettings(), analyzer.WithBaselineStore(store), analyzer.WithLogger(log))
	if err := a.ClearBaseline(ctx, rule); err != nil {
		return err
	}
	log.WithField("rule_id", rule).Info("Baseline cleared")
	return nil
}
