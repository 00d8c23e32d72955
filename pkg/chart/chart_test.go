package chart

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/reportsum/pkg/extract"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestRender_LineChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupancy.png")
	d := &extract.Derived{
		Title:  "Buffer occupancy",
		XLabel: "minutes",
		YLabel: "%",
		Kind:   extract.ChartLine,
		Series: []extract.Series{
			{Label: "avg", X: []float64{0, 5, 10, 15}, Y: []float64{10, 20, 15, 30}},
			{Label: "max", X: []float64{0, 5, 10, 15}, Y: []float64{20, 40, 35, 50}},
		},
	}

	require.NoError(t, NewPNGRenderer(WithSize(640, 480)).Render(context.Background(), d, path))
	requirePNG(t, path)
}

func TestRender_EmptySeriesDrawsPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	d := &extract.Derived{
		Title:  "Broadcast delay",
		Kind:   extract.ChartLine,
		Series: []extract.Series{{Label: "BROADCAST prio 9", X: []float64{}, Y: []float64{}}},
	}

	require.NoError(t, NewPNGRenderer().Render(context.Background(), d, path))
	requirePNG(t, path)
}

func TestRender_EmptyBarChartDrawsPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_bar.png")
	d := &extract.Derived{Kind: extract.ChartBar, Series: []extract.Series{{}}}

	require.NoError(t, NewPNGRenderer().Render(context.Background(), d, path))
	requirePNG(t, path)
}

func TestRender_SinglePoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.png")
	d := &extract.Derived{
		Kind:   extract.ChartLine,
		Series: []extract.Series{{Label: "avg", X: []float64{2}, Y: []float64{45.5}}},
	}

	require.NoError(t, NewPNGRenderer().Render(context.Background(), d, path))
	requirePNG(t, path)
}

func TestRender_BarChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.png")
	d := &extract.Derived{
		Title:  "Delay",
		YLabel: "Messages",
		Kind:   extract.ChartBar,
		Series: []extract.Series{{Label: "BROADCAST prio 5", X: []float64{2, 4, 6}, Y: []float64{1, 2, 1}}},
	}

	require.NoError(t, NewPNGRenderer().Render(context.Background(), d, path))
	requirePNG(t, path)
}

func TestRender_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "chart.png")
	d := &extract.Derived{
		Kind:   extract.ChartLine,
		Series: []extract.Series{{Label: "avg", X: []float64{0, 1}, Y: []float64{0, 1}}},
	}

	err := NewPNGRenderer().Render(context.Background(), d, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRender)
}

func TestRender_NilDerived(t *testing.T) {
	err := NewPNGRenderer().Render(context.Background(), nil, filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorIs(t, err, ErrRender)
}

func TestRender_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "x.png")
	err := NewPNGRenderer().Render(ctx, &extract.Derived{}, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestPadRange(t *testing.T) {
	assert.Nil(t, padRange(nil))
	assert.Nil(t, padRange([]float64{1, 2}))

	r := padRange([]float64{5, 5})
	require.NotNil(t, r)
	assert.Less(t, r.GetMin(), 5.0)
	assert.Greater(t, r.GetMax(), 5.0)

	r = padRange([]float64{0})
	require.NotNil(t, r)
	assert.Equal(t, -1.0, r.GetMin())
	assert.Equal(t, 1.0, r.GetMax())
}
