package summary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/document"
	"github.com/ccollicutt/reportsum/pkg/extract"
	"github.com/ccollicutt/reportsum/pkg/parser"
	"github.com/ccollicutt/reportsum/pkg/preprocess"
)

type fakePreprocessor struct {
	jobs []preprocess.Job
	err  error
}

func (f *fakePreprocessor) Run(_ context.Context, job preprocess.Job) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

func prio(p int) *int { return &p }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	energy := "300 0.95 0.90 1.00\n600 0.90 0.80 0.99\n900 0.85 0.70 0.98\n"
	delay := "BROADCAST 5 60.0\nBROADCAST 5 120.0\nONE_TO_ONE 0 30.0\nbad line\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "energy.txt"), []byte(energy), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delay.txt"), []byte(delay), 0o644))

	cfg := &config.Config{
		ReportDirectory:    dir,
		GranularitySeconds: 300,
		Preprocess: []config.PreprocessConfig{
			{Script: "messageDelayAnalyzer.pl", Input: "immediate.txt", Output: "delay.txt"},
		},
		Charts: []config.ChartConfig{
			{Name: "energy", Schema: "energy", Report: "energy.txt", Image: "01_energy.png", Band: true},
			{Name: "broadcast-delay", Schema: "delay", Report: "delay.txt", Image: "02_broadcastDelay.png", MessageType: "BROADCAST", Priority: prio(5)},
		},
	}
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestRun_AllChartsSucceed(t *testing.T) {
	cfg := testConfig(t)
	pre := &fakePreprocessor{}

	s, err := New(cfg, WithPreprocessor(pre))
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	require.Len(t, result.Charts, 2)
	assert.Equal(t, 2, result.Succeeded())
	assert.False(t, result.HasFailures())

	energy := result.Charts[0]
	assert.Equal(t, 3, energy.Records)
	assert.Equal(t, 0, energy.Failures)
	assert.Equal(t, 9, energy.Points)
	assert.FileExists(t, energy.Image)

	delay := result.Charts[1]
	assert.Equal(t, 3, delay.Records)
	assert.Equal(t, 1, delay.Failures)
	assert.Equal(t, 2, delay.Points)
	require.Len(t, delay.Samples, 1)
	assert.Equal(t, 4, delay.Samples[0].LineNum)

	assert.Equal(t, cfg.Document(), result.Document)
	assert.FileExists(t, result.Document)
	assert.NoError(t, result.DocumentErr)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRun_PreprocessJobsResolved(t *testing.T) {
	cfg := testConfig(t)
	pre := &fakePreprocessor{}

	s, err := New(cfg, WithPreprocessor(pre))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pre.jobs, 1)
	job := pre.jobs[0]
	assert.Equal(t, "messageDelayAnalyzer.pl", job.Script)
	assert.Equal(t, filepath.Join(cfg.ReportDirectory, "immediate.txt"), job.Input)
	assert.Equal(t, filepath.Join(cfg.ReportDirectory, "delay.txt"), job.Output)
	assert.Equal(t, 300, job.GranularitySeconds)

	require.Len(t, result.Preprocess, 1)
	assert.NoError(t, result.Preprocess[0].Err)
}

func TestRun_SkipPreprocess(t *testing.T) {
	cfg := testConfig(t)
	pre := &fakePreprocessor{}

	s, err := New(cfg, WithPreprocessor(pre), WithSkipPreprocess(true))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, pre.jobs)
	assert.Empty(t, result.Preprocess)
}

func TestRun_PreprocessFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	pre := &fakePreprocessor{err: preprocess.ErrToolNotFound}

	s, err := New(cfg, WithPreprocessor(pre))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Preprocess, 1)
	assert.ErrorIs(t, result.Preprocess[0].Err, preprocess.ErrToolNotFound)
	assert.Equal(t, 2, result.Succeeded())
}

func TestRun_MissingReportIsPartialFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Charts = append(cfg.Charts, config.ChartConfig{
		Name: "traffic", Schema: "traffic", Report: "missing.txt", Image: "03_traffic.png",
	})

	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Charts, 3)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	assert.True(t, result.HasFailures())
	assert.ErrorIs(t, result.Charts[2].Err, parser.ErrReportIO)
	assert.NoFileExists(t, result.Charts[2].Image)
	assert.FileExists(t, result.Document)
}

func TestRun_FailedChartRemovesStaleImage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Charts = []config.ChartConfig{
		{Name: "traffic", Schema: "traffic", Report: "missing.txt", Image: "01_traffic.png"},
	}
	require.NoError(t, os.MkdirAll(cfg.ImageDir(), 0o755))
	stale := filepath.Join(cfg.ImageDir(), "01_traffic.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.Equal(t, 0, result.Succeeded())
	assert.Empty(t, result.Document)
}

func TestRun_NoImagesRecordsDocumentError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Charts = []config.ChartConfig{
		{Name: "traffic", Schema: "traffic", Report: "missing.txt", Image: "01_traffic.png"},
	}

	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, result.DocumentErr, document.ErrNoImages)
	assert.True(t, result.HasFailures())
}

func TestRun_SchemaMismatchRecorded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Charts = []config.ChartConfig{
		{Name: "bogus", Schema: "nonexistent", Report: "energy.txt", Image: "01_x.png"},
	}

	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Charts, 1)
	assert.ErrorIs(t, result.Charts[0].Err, extract.ErrSchemaMismatch)
}

func TestRun_Canceled(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}), WithSkipPreprocess(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_ChartFilter(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, WithChartFilter([]string{"broadcast-delay"}))
	require.NoError(t, err)
	require.Len(t, s.Charts(), 1)
	assert.Equal(t, "broadcast-delay", s.Charts()[0].Name)
}

func TestNew_ChartFilterUnknown(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(cfg, WithChartFilter([]string{"enrgy"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "energy"`)
}

func TestExtractOptions(t *testing.T) {
	ch := &config.ChartConfig{
		Schema:      "delay",
		MessageType: "MULTICAST",
		Priority:    prio(1),
		Mode:        config.ModeBinned,
		BinWidth:    120,
	}

	opts := ExtractOptions(ch)
	require.NotNil(t, opts.Select)
	assert.Equal(t, "MULTICAST", opts.Select.MessageType)
	assert.Equal(t, 1, opts.Select.Priority)
	assert.Equal(t, extract.Binned, opts.Mode)
	assert.Equal(t, 120.0, opts.BinWidth)

	plain := ExtractOptions(&config.ChartConfig{Schema: "energy", Band: true})
	assert.Nil(t, plain.Select)
	assert.True(t, plain.Band)
	assert.Empty(t, plain.Mode)
}

type recordingAssembler struct {
	images []string
}

func (r *recordingAssembler) Assemble(_ context.Context, images []string, outPath string) (string, error) {
	r.images = images
	return outPath, nil
}

func TestRun_FilteredDocumentUsesOnlyRunImages(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ImageDir(), 0o755))
	leftover := filepath.Join(cfg.ImageDir(), "01_energy.png")
	require.NoError(t, os.WriteFile(leftover, []byte("old"), 0o644))

	asm := &recordingAssembler{}
	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}), WithSkipPreprocess(true),
		WithAssembler(asm), WithChartFilter([]string{"broadcast-delay"}))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, result.DocumentErr)
	assert.Equal(t, []string{filepath.Join(cfg.ImageDir(), "02_broadcastDelay.png")}, asm.images)
	assert.FileExists(t, leftover, "images of other charts are left in place")
}

func TestRun_FullDocumentUsesImageDirectory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ImageDir(), 0o755))
	extra := filepath.Join(cfg.ImageDir(), "00_topology.png")
	require.NoError(t, os.WriteFile(extra, []byte("x"), 0o644))

	asm := &recordingAssembler{}
	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}), WithSkipPreprocess(true), WithAssembler(asm))
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		extra,
		filepath.Join(cfg.ImageDir(), "01_energy.png"),
		filepath.Join(cfg.ImageDir(), "02_broadcastDelay.png"),
	}, asm.images)
}

func TestRun_OversizedBinnedChartFailsAlone(t *testing.T) {
	cfg := testConfig(t)
	huge := "BROADCAST 5 1e12\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ReportDirectory, "huge.txt"), []byte(huge), 0o644))
	cfg.Charts = append(cfg.Charts, config.ChartConfig{
		Name: "huge-delay", Schema: "delay", Report: "huge.txt", Image: "03_hugeDelay.png",
		MessageType: "BROADCAST", Priority: prio(5), Mode: config.ModeBinned, BinWidth: 1,
	})

	s, err := New(cfg, WithPreprocessor(&fakePreprocessor{}), WithSkipPreprocess(true))
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Charts, 3)
	assert.Equal(t, 2, result.Succeeded())
	assert.ErrorIs(t, result.Charts[2].Err, extract.ErrTooManyBins)
	assert.FileExists(t, result.Document)
}
