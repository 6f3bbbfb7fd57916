package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"surveystat/adapters/chart"
	"surveystat/adapters/excel"
	"surveystat/adapters/markdown"
	"surveystat/adapters/stats/engine"
	"surveystat/domain/core"
	"surveystat/domain/run"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal"
	"surveystat/internal/config"
	"surveystat/internal/errors"
	"surveystat/internal/profiling"
	internalsurvey "surveystat/internal/survey"
)

// AnalysisRequest names the inputs and outputs of one run
type AnalysisRequest struct {
	InputFile     string
	IndicatorFile string // optional metadata table
	ProfileFile   string // recorded in the manifest only
	OutputDir     string
	FiguresDir    string // defaults to OutputDir/figures
	Profile       *config.Profile
	Mode          string // overrides the profile's sample-size mode when set
	Country       string // overrides the profile's country filter when set
	Workers       int
}

// AnalysisResult is everything a run produced
type AnalysisResult struct {
	Manifest     *run.Manifest
	ManifestPath string
	Analysis     *stats.Analysis
	Wide         *survey.WideTable
	Catalog      *survey.Catalog
	Comparison   *survey.Comparison
	Timings      []StageTiming
}

// Dataset is a loaded, catalog-joined survey table
type Dataset struct {
	Table   *survey.Table
	Catalog *survey.Catalog
	// RawColumns holds the unparsed value/se/N cells, one per table row.
	RawColumns map[string][]string
}

// AnalysisService runs the load → pivot → correlate → report pipeline
type AnalysisService struct {
	workbooks   *excel.WorkbookWriter
	logger      *internal.Logger
	codeVersion string
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(logger *internal.Logger, codeVersion string) *AnalysisService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	if codeVersion == "" {
		codeVersion = "dev"
	}
	return &AnalysisService{
		workbooks:   excel.NewWorkbookWriter(),
		logger:      logger,
		codeVersion: codeVersion,
	}
}

func (s *AnalysisService) profileOf(req AnalysisRequest) *config.Profile {
	if req.Profile != nil {
		return req.Profile
	}
	return config.DefaultProfile()
}

// Load reads the survey table and builds its catalog: metadata file first,
// then names carried by the table, then the profile's short labels.
func (s *AnalysisService) Load(req AnalysisRequest) (*Dataset, error) {
	profile := s.profileOf(req)
	loaderConfig := internalsurvey.DefaultLoaderConfig()
	loaderConfig.Reader = profile.Reader
	loaderConfig.Coercion = profile.Coercion
	if excluded := profile.ExcludedCodes(); len(excluded) > 0 {
		loaderConfig.Exclude = excluded
	}
	loaderConfig.Country = profile.Country
	if req.Country != "" {
		loaderConfig.Country = req.Country
	}
	loader := internalsurvey.NewLoader(loaderConfig, s.logger)

	table, raw, err := loader.LoadWithRaw(req.InputFile)
	if err != nil {
		return nil, err
	}

	var base *survey.Catalog
	if req.IndicatorFile != "" {
		base, err = loader.LoadCatalog(req.IndicatorFile)
		if err != nil {
			return nil, err
		}
		table = internalsurvey.JoinCatalog(table, base)
	}
	catalog := internalsurvey.CatalogFromTable(table, base)
	profile.ApplyLabels(catalog)
	return &Dataset{Table: table, Catalog: catalog, RawColumns: raw}, nil
}

// PivotDataset reshapes ds to the profile's indicators. A wide table without
// segments is an error; fewer than three segments only warns.
func (s *AnalysisService) PivotDataset(ds *Dataset, profile *config.Profile) (*survey.WideTable, error) {
	codes := profile.Codes()
	if len(codes) == 0 {
		return nil, errors.WithCode(errors.CodeInvalidInput, core.ErrNoIndicators)
	}
	for _, code := range codes {
		if _, ok := ds.Catalog.Lookup(code); !ok {
			s.logger.Warn("indicator %s is not in the data; its column will be empty", code)
		}
	}

	wide := internalsurvey.Pivot(ds.Table, codes, internalsurvey.PivotFilter{Cuts: profile.Cuts})
	if wide.Rows() == 0 {
		return nil, errors.WithCode(errors.CodeInvalidInput,
			fmt.Errorf("%w: no segment has a value for any requested indicator", core.ErrInsufficientData))
	}
	if wide.Rows() < 3 {
		s.logger.Warn("only %d segments after pivot; significance tests need at least 3", wide.Rows())
	}
	return wide, nil
}

// Analyze runs the full pipeline and writes every artifact plus the manifest.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	profile := s.profileOf(req)
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	modeName := profile.SampleSizeMode
	if req.Mode != "" {
		modeName = req.Mode
	}
	mode, err := stats.ParseSampleSizeMode(modeName)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if req.OutputDir == "" {
		return nil, errors.ConfigInvalid("output directory is required")
	}
	figures := req.FiguresDir
	if figures == "" {
		figures = filepath.Join(req.OutputDir, "figures")
	}

	runner := NewStageRunner(s.logger)
	manifest := run.NewManifest(profile.Name, run.Inputs{
		DataFile:      req.InputFile,
		IndicatorFile: req.IndicatorFile,
		ProfileFile:   req.ProfileFile,
	})
	manifest.Workers = req.Workers
	result := &AnalysisResult{Manifest: manifest}
	s.logger.Info("run %s started (profile %s, mode %s)", manifest.RunID, profile.Name, mode)

	var ds *Dataset
	if err := runner.Run(ctx, "load", func(context.Context) error {
		ds, err = s.Load(req)
		return err
	}); err != nil {
		return nil, err
	}
	result.Catalog = ds.Catalog
	manifest.Counts.LongRecords = ds.Table.Len()

	if err := runner.Run(ctx, "pivot", func(context.Context) error {
		result.Wide, err = s.PivotDataset(ds, profile)
		return err
	}); err != nil {
		return nil, err
	}
	manifest.Counts.Segments = result.Wide.Rows()
	manifest.Counts.Indicators = result.Wide.Cols()

	profileYAML, err := config.MarshalProfile(profile)
	if err != nil {
		return nil, errors.Wrap(err, "fingerprint profile")
	}
	manifest.Fingerprint = run.NewRunFingerprint(result.Wide.Fingerprint(), core.NewHash(profileYAML),
		string(mode), profile.Precision, s.codeVersion)

	if err := runner.Run(ctx, "correlate", func(ctx context.Context) error {
		eng := engine.NewStatsEngine(engine.Config{
			Mode:      mode,
			Precision: profile.Precision,
			Alpha:     profile.Alpha,
			Workers:   req.Workers,
		}, s.logger)
		result.Analysis, err = eng.Analyze(ctx, result.Wide, normalizedKeys(profile.KeyRelationships))
		return err
	}); err != nil {
		return nil, err
	}
	manifest.RecordAnalysis(result.Analysis)

	if len(profile.ComparisonSegments) > 0 {
		result.Comparison = internalsurvey.Compare(ds.Table, profile.ComparisonSegments, profile.ComparisonCodes())
	}

	if err := runner.Run(ctx, "report", func(ctx context.Context) error {
		return s.writeArtifacts(ctx, req, figures, profile, result)
	}); err != nil {
		return nil, err
	}

	manifest.Finish()
	path, err := manifest.Write(req.OutputDir)
	if err != nil {
		return nil, errors.ReportError(run.ManifestFile, err)
	}
	result.ManifestPath = path
	result.Timings = runner.Timings()
	s.logger.Info("run %s finished: %d artifacts, fingerprint %s", manifest.RunID, len(manifest.Artifacts), manifest.Fingerprint.Fingerprint.Short())
	return result, nil
}

// writeArtifacts writes the independent outputs concurrently and records them
// in the manifest in a fixed order.
func (s *AnalysisService) writeArtifacts(ctx context.Context, req AnalysisRequest, figures string, profile *config.Profile, result *AnalysisResult) error {
	heatmapPath := filepath.Join(figures, chart.HeatmapFile)
	csvPath := filepath.Join(req.OutputDir, excel.PivotFile)

	var (
		mu        sync.Mutex
		workbooks []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return excel.WriteWideCSV(csvPath, result.Wide)
	})
	g.Go(func() error {
		paths, err := s.workbooks.WriteReports(req.OutputDir, excel.ReportInput{
			Analysis:   result.Analysis,
			Catalog:    result.Catalog,
			Comparison: result.Comparison,
			Wide:       result.Wide,
		})
		mu.Lock()
		workbooks = paths
		mu.Unlock()
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		return chart.WriteHeatmap(heatmapPath, result.Analysis.Matrix, heatmapOptions(result.Analysis.Matrix, result.Catalog))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m := result.Manifest
	m.AddArtifacts(run.ArtifactCSV, csvPath)
	m.AddArtifacts(run.ArtifactWorkbook, workbooks...)
	m.AddArtifacts(run.ArtifactFigure, heatmapPath)

	relHeatmap, err := filepath.Rel(req.OutputDir, heatmapPath)
	if err != nil {
		relHeatmap = heatmapPath
	}
	reports, err := markdown.Write(req.OutputDir, markdown.Summary{
		Title:      fmt.Sprintf("Correlation analysis: %s", profile.Name),
		RunID:      m.RunID.String(),
		Profile:    profile.Name,
		Source:     req.InputFile,
		Analysis:   result.Analysis,
		Catalog:    result.Catalog,
		Comparison: result.Comparison,
		TopN:       profile.TopN,
		Artifacts:  artifactNames(m.Artifacts),
		Heatmap:    filepath.ToSlash(relHeatmap),
	})
	if err != nil {
		return err
	}
	m.AddArtifacts(run.ArtifactReport, reports...)
	return nil
}

// Pivot loads the input and writes the wide table CSV to the output directory.
func (s *AnalysisService) Pivot(req AnalysisRequest) (string, *survey.WideTable, error) {
	ds, err := s.Load(req)
	if err != nil {
		return "", nil, err
	}
	wide, err := s.PivotDataset(ds, s.profileOf(req))
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(req.OutputDir, excel.PivotFile)
	if err := excel.WriteWideCSV(path, wide); err != nil {
		return "", nil, err
	}
	return path, wide, nil
}

// Extract returns the segment's rows for codes, in the table's order.
func (s *AnalysisService) Extract(req AnalysisRequest, segment survey.Segment, codes []core.IndicatorCode) ([]survey.Record, *survey.Catalog, error) {
	ds, err := s.Load(req)
	if err != nil {
		return nil, nil, err
	}
	if len(codes) == 0 {
		codes = s.profileOf(req).Codes()
	}
	return internalsurvey.Extract(ds.Table, codes, segment.Cut, segment.Subcut), ds.Catalog, nil
}

// Overview profiles the input table. When OutputDir is set the overview is
// also written as a workbook and its path returned.
func (s *AnalysisService) Overview(req AnalysisRequest) (*profiling.Overview, string, error) {
	ds, err := s.Load(req)
	if err != nil {
		return nil, "", err
	}
	profiler := profiling.NewDataProfiler(s.profileOf(req).Coercion)
	ov, err := profiler.Overview(ds.Table, ds.RawColumns)
	if err != nil {
		return nil, "", errors.Wrap(err, "profile dataset")
	}
	if req.OutputDir == "" {
		return ov, "", nil
	}
	path := filepath.Join(req.OutputDir, excel.OverviewFile)
	if err := s.workbooks.Write(path, excel.OverviewSheets(ov)...); err != nil {
		return nil, "", err
	}
	return ov, path, nil
}

// Search matches keywords, or keyword group names, against indicator names.
func (s *AnalysisService) Search(req AnalysisRequest, terms []string) (internalsurvey.SearchResult, error) {
	ds, err := s.Load(req)
	if err != nil {
		return internalsurvey.SearchResult{}, err
	}
	return internalsurvey.Search(ds.Catalog, internalsurvey.ExpandKeywords(terms)), nil
}

// heatmapOptions labels the heatmap axes with the catalog's short names.
func heatmapOptions(m *stats.Matrix, catalog *survey.Catalog) chart.HeatmapOptions {
	opts := chart.DefaultHeatmapOptions()
	opts.Labels = make([]string, len(m.Codes))
	for i, code := range m.Codes {
		opts.Labels[i] = catalog.Name(code)
	}
	return opts
}

func normalizedKeys(keys []stats.KeyRelationship) []stats.KeyRelationship {
	out := make([]stats.KeyRelationship, len(keys))
	for i, k := range keys {
		out[i] = stats.KeyRelationship{
			X:     core.NormalizeIndicatorCode(k.X.String()),
			Y:     core.NormalizeIndicatorCode(k.Y.String()),
			Label: k.Label,
		}
	}
	return out
}

func artifactNames(artifacts []run.Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = filepath.Base(a.Path)
	}
	return names
}
