package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

func read(t *testing.T, schema *parser.Schema, content string) *parser.SeriesSet {
	t.Helper()
	set, err := parser.NewReader(schema).ReadFrom(context.Background(), strings.NewReader(content), "inline")
	require.NoError(t, err)
	return set
}

func TestOccupancy_ConvertsSecondsToMinutes(t *testing.T) {
	set := read(t, parser.Occupancy, "120.0 45.5 2.3 10.0 80.0\n")

	ex, err := ForSchema("occupancy", Options{})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	require.Len(t, d.Series, 1)
	assert.Equal(t, []float64{2.0}, d.Series[0].X)
	assert.Equal(t, []float64{45.5}, d.Series[0].Y)
	assert.Equal(t, ChartLine, d.Kind)
}

func TestOccupancy_Band(t *testing.T) {
	set := read(t, parser.Occupancy, "60.0 45.5 2.3 10.0 80.0\n120.0 50.0 2.0 12.0 85.0\n")

	ex, err := ForSchema("occupancy", Options{Band: true})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	require.Len(t, d.Series, 3)
	assert.Equal(t, []float64{10.0, 12.0}, d.Series[1].Y)
	assert.Equal(t, []float64{80.0, 85.0}, d.Series[2].Y)
	assert.Equal(t, 6, d.Points())
}

func TestSeriesExtractor_EmptySet(t *testing.T) {
	set := read(t, parser.Occupancy, "")

	ex, err := ForSchema("occupancy", Options{})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
	require.Len(t, d.Series, 1)
	assert.NotNil(t, d.Series[0].X)
}

func TestSeriesExtractor_SchemaMismatch(t *testing.T) {
	set := read(t, parser.DeliveryProbability, "0.0 0.5\n")

	ex := &SeriesExtractor{XField: parser.FieldSimTime, YFields: []YField{{Field: "avgOccupancy"}}}
	_, err := ex.Extract(set)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "avgOccupancy")
}

func TestSeriesExtractor_SchemaMismatchOnEmptySet(t *testing.T) {
	set := read(t, parser.DeliveryProbability, "")

	ex := &SeriesExtractor{XField: "nope", YFields: []YField{{Field: "deliveryProbability"}}}
	_, err := ex.Extract(set)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSeriesExtractor_Filter(t *testing.T) {
	set := read(t, parser.Delay, "BROADCAST 5 60.0\nBROADCAST 2 120.0\nMULTICAST 5 180.0\n")

	ex := &SeriesExtractor{
		XField:  FieldPriority,
		YFields: []YField{{Field: FieldDelay}},
		Filter:  Selector{MessageType: "BROADCAST", Priority: 5}.Predicate(),
	}
	d, err := ex.Extract(set)
	require.NoError(t, err)
	assert.Equal(t, []float64{60.0}, d.Series[0].Y)
}

func TestTraffic_OneSeriesPerMessageType(t *testing.T) {
	set := read(t, parser.Traffic, "300.0 40.0 30.0 20.0 10.0\n600.0 35.0 35.0 20.0 10.0\n")

	ex, err := ForSchema("traffic", Options{})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	require.Len(t, d.Series, 4)
	assert.Equal(t, "1-to-1", d.Series[0].Label)
	assert.Equal(t, []float64{5.0, 10.0}, d.Series[0].X)
	assert.Equal(t, []float64{30.0, 35.0}, d.Series[1].Y)
}

func TestForSchema_AllSchemasExtract(t *testing.T) {
	sample := map[string]string{
		"occupancy": "60.0 1.0 1.0 1.0 1.0",
		"delay":     "BROADCAST 5 60.0",
		"traffic":   "60.0 1.0 1.0 1.0 1.0",
		"delivery":  "60.0 0.5",
		"broadcast": "60.0 50.0",
		"multicast": "60.0 0.2 0.4",
		"energy":    "60.0 1.0 0.5 1.5",
		"datasync":  "60.0 10.0 5.0 3.0",
	}

	for _, schema := range parser.Schemas() {
		t.Run(schema.Name, func(t *testing.T) {
			line, ok := sample[schema.Name]
			require.True(t, ok, "no sample line for %s", schema.Name)

			set := read(t, schema, line+"\n")
			require.Equal(t, 1, set.Len())

			ex, err := ForSchema(schema.Name, Options{Select: &Selector{MessageType: "BROADCAST", Priority: 5}})
			require.NoError(t, err)

			d, err := ex.Extract(set)
			require.NoError(t, err)
			assert.False(t, d.IsEmpty())
			for _, s := range d.Series {
				assert.Equal(t, []float64{1.0}, s.X, "series %s", s.Label)
			}
		})
	}
}

func TestForSchema_Unknown(t *testing.T) {
	_, err := ForSchema("bogus", Options{})
	assert.Error(t, err)
}

func TestForSchema_DelayNeedsSelector(t *testing.T) {
	_, err := ForSchema("delay", Options{})
	assert.Error(t, err)
}

const delayReport = `ONE_TO_ONE 0 600.0
BROADCAST 5 180.0
BROADCAST 5 60.0
BROADCAST 2 30.0
BROADCAST 5 120.0
MULTICAST 1 900.0
BROADCAST 5 240.0
`

func TestDelay_CumulativeFiltered(t *testing.T) {
	set := read(t, parser.Delay, delayReport)

	ex, err := ForSchema("delay", Options{Select: &Selector{MessageType: "BROADCAST", Priority: 5}})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	require.Len(t, d.Series, 1)
	assert.Equal(t, []float64{1, 2, 3, 4}, d.Series[0].X)
	assert.Equal(t, []float64{25, 50, 75, 100}, d.Series[0].Y)
	assert.Equal(t, "BROADCAST prio 5", d.Series[0].Label)
}

func TestDelay_NoMatchingRowsIsEmpty(t *testing.T) {
	set := read(t, parser.Delay, delayReport)

	ex, err := ForSchema("delay", Options{Select: &Selector{MessageType: "BROADCAST", Priority: 9}})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
}

func TestDelay_NoMatchingRowsBinned(t *testing.T) {
	set := read(t, parser.Delay, delayReport)

	ex, err := ForSchema("delay", Options{
		Select:   &Selector{MessageType: "DATA", Priority: 0},
		Mode:     Binned,
		BinWidth: 300,
	})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
	assert.Equal(t, ChartBar, d.Kind)
}

func TestDelay_Binned(t *testing.T) {
	set := read(t, parser.Delay, delayReport)

	ex, err := ForSchema("delay", Options{
		Select:   &Selector{MessageType: "BROADCAST", Priority: 5},
		Mode:     Binned,
		BinWidth: 120,
	})
	require.NoError(t, err)

	d, err := ex.Extract(set)
	require.NoError(t, err)
	// values 60,120,180,240 -> bins [0,120) [120,240) [240,360)
	assert.Equal(t, []float64{2, 4, 6}, d.Series[0].X)
	assert.Equal(t, []float64{1, 2, 1}, d.Series[0].Y)
}

func TestDelay_BinnedNeedsWidth(t *testing.T) {
	set := read(t, parser.Delay, delayReport)

	ex := &DistributionExtractor{ValueField: FieldDelay, Mode: Binned}
	_, err := ex.Extract(set)
	assert.Error(t, err)
}

func TestDelay_SelectorOnWrongSchema(t *testing.T) {
	set := read(t, parser.DeliveryProbability, "0.0 0.5\n")

	ex := &DistributionExtractor{
		ValueField: "deliveryProbability",
		Select:     &Selector{MessageType: "BROADCAST", Priority: 5},
	}
	_, err := ex.Extract(set)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDelay_BinnedHugeValueIsBounded(t *testing.T) {
	for _, report := range []string{
		"BROADCAST 5 90000000000000000000.0\n",
		"BROADCAST 5 60.0\nBROADCAST 5 1000000000\n",
	} {
		set := read(t, parser.Delay, report)

		ex, err := ForSchema("delay", Options{
			Select:   &Selector{MessageType: "BROADCAST", Priority: 5},
			Mode:     Binned,
			BinWidth: 300,
		})
		require.NoError(t, err)

		_, err = ex.Extract(set)
		assert.ErrorIs(t, err, ErrTooManyBins)
	}
}

func TestDelay_BinnedAtMaxBins(t *testing.T) {
	set := read(t, parser.Delay, "BROADCAST 5 9999.5\n")

	ex := &DistributionExtractor{
		ValueField: FieldDelay,
		Select:     &Selector{MessageType: "BROADCAST", Priority: 5},
		Mode:       Binned,
		BinWidth:   1,
	}
	d, err := ex.Extract(set)
	require.NoError(t, err)
	assert.Len(t, d.Series[0].X, MaxBins)
	assert.Equal(t, 1.0, d.Series[0].Y[MaxBins-1])
}

func TestDelay_SelectorMatchesTypeAndPriority(t *testing.T) {
	pred := Selector{MessageType: "BROADCAST", Priority: 5}.Predicate()

	row := parser.Record{
		Labels:  map[string]string{FieldMessageType: "BROADCAST"},
		Numbers: map[string]float64{FieldPriority: 5, FieldDelay: 60},
	}
	assert.True(t, pred(row))

	row.Numbers[FieldPriority] = 2
	assert.False(t, pred(row))
}
