package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"surveystat/app"
	"surveystat/domain/core"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal"
	"surveystat/internal/config"
	"surveystat/internal/errors"
	internalsurvey "surveystat/internal/survey"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is stamped into run fingerprints; set with -ldflags "-X main.Version=...".
var Version = "dev"

// options are the flags shared by every data command. Empty values fall
// back to the environment configuration.
type options struct {
	input      string
	indicators string
	out        string
	figures    string
	profile    string
	country    string
}

func main() {
	_ = godotenv.Load()

	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "surveystat",
		Short:        "Segment-level correlation analysis for enterprise survey indicators",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.input, "input", "", "Long-format survey data file (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&opts.indicators, "indicators", "", "Optional indicator metadata file")
	rootCmd.PersistentFlags().StringVar(&opts.out, "out", "", "Output directory")
	rootCmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "Analysis profile YAML (built-in profile when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.country, "country", "", "Keep only rows for this country")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newPivotCmd(opts),
		newExtractCmd(opts),
		newOverviewCmd(opts),
		newSearchCmd(opts),
		newProfileCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage prefixes application errors with their code.
func errorMessage(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("[%s] %v", errors.GetCode(err), err)
	}
	return err.Error()
}

// session is the resolved configuration for one command invocation.
type session struct {
	cfg     *config.Config
	profile *config.Profile
	service *app.AnalysisService
	request app.AnalysisRequest
}

func newSession(opts *options) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.input != "" {
		cfg.Paths.InputFile = opts.input
	}
	if opts.indicators != "" {
		cfg.Paths.IndicatorFile = opts.indicators
	}
	if opts.out != "" {
		cfg.Paths.OutputDir = opts.out
		if opts.figures == "" && os.Getenv("SURVEY_FIGURES_DIR") == "" {
			cfg.Paths.FiguresDir = ""
		}
	}
	if opts.figures != "" {
		cfg.Paths.FiguresDir = opts.figures
	}
	if opts.profile != "" {
		cfg.Analysis.ProfileFile = opts.profile
	}

	profile, err := config.LoadProfile(cfg.Analysis.ProfileFile)
	if err != nil {
		return nil, err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)).With("cli")
	return &session{
		cfg:     cfg,
		profile: profile,
		service: app.NewAnalysisService(logger, Version),
		request: app.AnalysisRequest{
			InputFile:     cfg.Paths.InputFile,
			IndicatorFile: cfg.Paths.IndicatorFile,
			ProfileFile:   cfg.Analysis.ProfileFile,
			OutputDir:     cfg.Paths.OutputDir,
			FiguresDir:    cfg.Paths.FiguresDir,
			Profile:       profile,
			Mode:          cfg.Analysis.SampleSizeMode,
			Country:       opts.country,
			Workers:       cfg.Analysis.Workers,
		},
	}, nil
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var sampleSize string
	var workers int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full pipeline and write every table, figure and report",
		Long: `Load the long-format survey table, pivot it to one row per segment,
compute the Pearson correlation matrix with t-statistics and p-values,
and write the paper tables, heatmap, markdown report and run manifest.

Example: surveystat analyze --input data/vietnam_data_clean.csv --out output --sample-size pairwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sample-size") {
				s.request.Mode = sampleSize
			}
			if cmd.Flags().Changed("workers") {
				s.request.Workers = workers
			}
			return runAnalyze(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&opts.figures, "figures", "", "Figures directory (default <out>/figures)")
	cmd.Flags().StringVar(&sampleSize, "sample-size", "", "Sample size for t-statistics: segments|pairwise")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel workers for the correlation sweep (0 = all CPUs)")
	return cmd
}

func runAnalyze(ctx context.Context, s *session) error {
	fmt.Printf("🔬 Analyzing %s with profile '%s'...\n", s.request.InputFile, s.profile.Name)
	startTime := time.Now()

	result, err := s.service.Analyze(ctx, s.request)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	a := result.Analysis
	m := result.Manifest

	fmt.Printf("\n📊 CORRELATION ANALYSIS\n")
	fmt.Printf("Run: %s\n", m.RunID)
	fmt.Printf("Segments: %d (mode %s, df %d, critical |t| %.2f)\n", a.SampleSize, a.Mode, a.DegreesOfFreedom, a.CriticalT)
	fmt.Printf("Indicators: %d\n", m.Counts.Indicators)
	fmt.Printf("Pairs: %d (%d significant)\n", a.Summary.TotalPairs, a.Summary.SignificantPairs)
	fmt.Printf("Processing Time: %v\n", time.Since(startTime).Round(time.Millisecond))

	if len(a.Key) > 0 {
		fmt.Printf("\n🎯 KEY RELATIONSHIPS:\n")
		for _, res := range a.Key {
			fmt.Printf("• %-45s r=%5.2f  t=%7s  p=%-7s %s\n",
				res.Label, res.DisplayR(), stats.FormatT(res.T), stats.FormatP(res.P), res.Significance)
		}
	}

	fmt.Printf("\n⏱  STAGES:\n")
	for _, t := range result.Timings {
		fmt.Printf("  %-10s %v\n", t.Stage, t.Duration.Round(time.Millisecond))
	}

	fmt.Printf("\n📁 FILES:\n")
	for _, artifact := range m.Artifacts {
		fmt.Printf("  [%s] %s\n", artifact.Kind, artifact.Path)
	}
	fmt.Printf("  [manifest] %s\n", result.ManifestPath)
	fmt.Printf("\n✅ Fingerprint %s\n", m.Fingerprint.Fingerprint.Short())
	return nil
}

func newPivotCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pivot",
		Short: "Write the segment × indicator table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			path, wide, err := s.service.Pivot(s.request)
			if err != nil {
				return fmt.Errorf("pivot failed: %w", err)
			}
			fmt.Printf("✅ %d segments × %d indicators written to %s\n", wide.Rows(), wide.Cols(), path)
			return nil
		},
	}
}

func newExtractCmd(opts *options) *cobra.Command {
	var cut, subcut string

	cmd := &cobra.Command{
		Use:   "extract [codes...]",
		Short: "Print one segment's values for the given indicators",
		Long: `Print value, standard error and N for each indicator in one segment.
Without codes the profile's indicators are used.

Example: surveystat extract --cut "Size" --subcut "Small (5-19)" t5 t7 perf1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			codes := make([]core.IndicatorCode, len(args))
			for i, a := range args {
				codes[i] = core.NormalizeIndicatorCode(a)
			}
			segment := survey.Segment{Cut: cut, Subcut: subcut}
			records, catalog, err := s.service.Extract(s.request, segment, codes)
			if err != nil {
				return fmt.Errorf("extract failed: %w", err)
			}
			if len(records) == 0 {
				fmt.Printf("No rows for %s\n", segment)
				return nil
			}
			fmt.Printf("📋 %s (%d indicators)\n", segment, len(records))
			for _, r := range records {
				fmt.Printf("  %-14s %-35s value=%-8s se=%-8s N=%s\n",
					r.Indicator, catalog.Name(r.Indicator), nullString(r.Value), nullString(r.SE), nullString(r.N))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cut, "cut", "All", "Segment cut")
	cmd.Flags().StringVar(&subcut, "subcut", "All", "Segment subcut")
	return cmd
}

func newOverviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Profile the input table and write Data_Overview.xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			ov, path, err := s.service.Overview(s.request)
			if err != nil {
				return fmt.Errorf("overview failed: %w", err)
			}

			fmt.Printf("📊 DATA OVERVIEW: %s\n", s.request.InputFile)
			fmt.Printf("Rows: %d\n", ov.Rows)
			fmt.Printf("Columns: %s\n", strings.Join(ov.Columns, ", "))
			fmt.Printf("Topics: %d, Indicators: %d\n", ov.UniqueTopics, ov.UniqueIndicators)
			fmt.Printf("\nCuts:\n")
			for _, c := range ov.Cuts {
				fmt.Printf("  %-30s %d\n", c.Label, c.Count)
			}
			if len(ov.Missing) > 0 {
				fmt.Printf("\nMissing:\n")
				for _, m := range ov.Missing {
					fmt.Printf("  %-30s %d\n", m.Label, m.Count)
				}
				for _, d := range ov.MissingDetail {
					fmt.Printf("  %-30s sentinel %d, empty %d, text %d\n", d.Field+" breakdown", d.Sentinel, d.Empty, d.Text)
				}
			}
			fmt.Printf("\nTop topics:\n")
			for _, t := range ov.TopTopics(10) {
				fmt.Printf("  %-45s %d\n", t.Label, t.Count)
			}
			if path != "" {
				fmt.Printf("\n✅ Written to %s\n", path)
			}
			return nil
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search [group|keywords...]",
		Short: "Find indicators whose English name contains any keyword",
		Long: fmt.Sprintf(`Search indicator names case-insensitively. A keyword group name
expands to its keyword list. Without arguments the groups are listed.

Groups: %s

Example: surveystat search technology "e-payment"`, strings.Join(internalsurvey.GroupNames(), ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range internalsurvey.GroupNames() {
					fmt.Printf("%-12s %s\n", name, strings.Join(internalsurvey.KeywordGroups[name], ", "))
				}
				return nil
			}
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			result, err := s.service.Search(s.request, args)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			for _, kw := range internalsurvey.ExpandKeywords(args) {
				fmt.Printf("'%s': %d matches\n", kw, result.Counts[kw])
			}
			fmt.Printf("\n🔎 %d indicators\n", len(result.Hits))
			for _, hit := range result.Hits {
				d := hit.Descriptor
				fmt.Printf("  %-14s [%s] %s\n", d.Code, d.Topic, d.EnglishName)
			}
			return nil
		},
	}
}

func newProfileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or create analysis profiles",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active profile as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.profile
			if path == "" {
				path = os.Getenv("SURVEY_PROFILE")
			}
			profile, err := config.LoadProfile(path)
			if err != nil {
				return err
			}
			b, err := config.MarshalProfile(profile)
			if err != nil {
				return err
			}
			fmt.Print(string(b))
			return nil
		},
	}

	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in profile to a YAML file for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveProfile(config.DefaultProfile(), args[0], overwrite); err != nil {
				return err
			}
			fmt.Printf("✅ Profile written to %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func nullString(v survey.NullFloat) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}
