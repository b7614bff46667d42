package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func buildDataset(t *testing.T, stamps []time.Time, cols map[string][]float64) *Dataset {
	t.Helper()
	ds := New("benin")
	ds.Timestamps = stamps
	for name, vals := range cols {
		require.NoError(t, ds.SetColumn(name, vals))
	}
	return ds
}

func TestSetColumn(t *testing.T) {
	ds := New("togo")
	ds.Timestamps = []time.Time{ts("2021-08-09 00:00:00"), ts("2021-08-09 01:00:00")}

	require.NoError(t, ds.SetColumn("GHI", []float64{1, 2}))
	assert.True(t, ds.HasColumn("GHI"))
	assert.Equal(t, []string{"GHI"}, ds.Columns())

	err := ds.SetColumn("DNI", []float64{1})
	assert.ErrorContains(t, err, "dataset has 2 rows")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		stamps      []time.Time
		ghi         []float64
		wantDropped int
		wantGHI     []float64
	}{
		{
			name:        "already clean",
			stamps:      []time.Time{ts("2021-08-09 00:00:00"), ts("2021-08-09 01:00:00")},
			ghi:         []float64{1, 2},
			wantDropped: 0,
			wantGHI:     []float64{1, 2},
		},
		{
			name:        "drops zero timestamps",
			stamps:      []time.Time{ts("2021-08-09 00:00:00"), {}, ts("2021-08-09 01:00:00")},
			ghi:         []float64{1, 99, 2},
			wantDropped: 1,
			wantGHI:     []float64{1, 2},
		},
		{
			name:        "dedupes keeping first",
			stamps:      []time.Time{ts("2021-08-09 00:00:00"), ts("2021-08-09 00:00:00"), ts("2021-08-09 01:00:00")},
			ghi:         []float64{1, 99, 2},
			wantDropped: 1,
			wantGHI:     []float64{1, 2},
		},
		{
			name:        "sorts chronologically",
			stamps:      []time.Time{ts("2021-08-09 02:00:00"), ts("2021-08-09 00:00:00"), ts("2021-08-09 01:00:00")},
			ghi:         []float64{3, 1, 2},
			wantDropped: 0,
			wantGHI:     []float64{1, 2, 3},
		},
		{
			name:        "keeps rows when no timestamp parsed",
			stamps:      []time.Time{{}, {}, {}},
			ghi:         []float64{1, 2, 3},
			wantDropped: 0,
			wantGHI:     []float64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := buildDataset(t, tt.stamps, map[string][]float64{"GHI": tt.ghi})
			dropped := ds.Normalize()

			assert.Equal(t, tt.wantDropped, dropped)
			assert.Equal(t, tt.wantGHI, ds.Column("GHI"))
			for i := 1; i < ds.Len(); i++ {
				if !ds.Timestamps[i].IsZero() {
					assert.True(t, ds.Timestamps[i-1].Before(ds.Timestamps[i]))
				}
			}
		})
	}
}

func TestSlice(t *testing.T) {
	ds := buildDataset(t, []time.Time{
		ts("2021-08-09 00:00:00"),
		ts("2021-08-09 01:00:00"),
		ts("2021-08-09 02:00:00"),
	}, map[string][]float64{"GHI": {1, 2, 3}})

	t.Run("closed window", func(t *testing.T) {
		got := ds.Slice(ts("2021-08-09 01:00:00"), ts("2021-08-09 02:00:00"))
		assert.Equal(t, 2, got.Len())
		assert.Equal(t, []float64{2, 3}, got.Column("GHI"))
	})

	t.Run("open bounds keep everything", func(t *testing.T) {
		got := ds.Slice(time.Time{}, time.Time{})
		assert.Equal(t, 3, got.Len())
	})

	t.Run("copy does not alias source", func(t *testing.T) {
		got := ds.Slice(time.Time{}, time.Time{})
		got.Column("GHI")[0] = 42
		assert.Equal(t, 1.0, ds.Column("GHI")[0])
	})
}

func TestTimeRange(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, _, ok := New("benin").TimeRange()
		assert.False(t, ok)
	})

	t.Run("unsorted input", func(t *testing.T) {
		ds := buildDataset(t, []time.Time{
			ts("2021-08-09 02:00:00"),
			ts("2021-08-09 00:00:00"),
		}, nil)
		from, to, ok := ds.TimeRange()
		require.True(t, ok)
		assert.Equal(t, ts("2021-08-09 00:00:00"), from)
		assert.Equal(t, ts("2021-08-09 02:00:00"), to)
	})
}

func TestMissingFraction(t *testing.T) {
	nan := math.NaN()
	ds := buildDataset(t, []time.Time{
		ts("2021-08-09 00:00:00"),
		ts("2021-08-09 01:00:00"),
	}, map[string][]float64{
		"GHI": {1, nan},
		"DNI": {nan, nan},
	})

	assert.Equal(t, 0.5, ds.MissingFraction(0))
	assert.Equal(t, 1.0, ds.MissingFraction(1))
}

func TestNonMissing(t *testing.T) {
	nan := math.NaN()
	ds := buildDataset(t, []time.Time{
		ts("2021-08-09 00:00:00"),
		ts("2021-08-09 01:00:00"),
		ts("2021-08-09 02:00:00"),
	}, map[string][]float64{"GHI": {1, nan, 3}})

	assert.Equal(t, []float64{1, 3}, ds.NonMissing("GHI"))
	assert.Nil(t, ds.NonMissing("absent"))
}

func TestFilterRegions(t *testing.T) {
	ds := buildDataset(t, []time.Time{
		ts("2021-08-09 00:00:00"),
		ts("2021-08-09 01:00:00"),
	}, map[string][]float64{"GHI": {1, 2}})
	require.NoError(t, ds.SetRegions([]string{"north", "south"}))

	got := ds.Filter([]bool{false, true})
	assert.Equal(t, []string{"south"}, got.Regions())
	assert.Equal(t, []float64{2}, got.Column("GHI"))
}
