package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Dataset is a column-oriented table of station measurements. Numeric
// columns are stored as float64 slices with NaN marking missing cells.
// Timestamps and the optional Region label column are kept separately.
type Dataset struct {
	Country    string
	Timestamps []time.Time

	columns []string
	values  map[string][]float64
	regions []string
}

// New creates an empty dataset for a country.
func New(country string) *Dataset {
	return &Dataset{
		Country: country,
		values:  make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Timestamps) }

// Columns returns the numeric column names in their original order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether a numeric column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.values[name]
	return ok
}

// Column returns the values of a numeric column. The returned slice is
// the backing storage; callers that mutate it mutate the dataset.
func (d *Dataset) Column(name string) []float64 {
	return d.values[name]
}

// SetColumn stores a numeric column. The slice length must match the
// row count unless the dataset is still empty.
func (d *Dataset) SetColumn(name string, vals []float64) error {
	if d.Len() > 0 && len(vals) != d.Len() {
		return fmt.Errorf("column %s has %d values, dataset has %d rows", name, len(vals), d.Len())
	}
	if _, exists := d.values[name]; !exists {
		d.columns = append(d.columns, name)
	}
	d.values[name] = vals
	return nil
}

// Regions returns the region labels, or nil when the dataset has none.
func (d *Dataset) Regions() []string { return d.regions }

// SetRegions stores region labels for every row.
func (d *Dataset) SetRegions(regions []string) error {
	if len(regions) != d.Len() {
		return fmt.Errorf("got %d region labels for %d rows", len(regions), d.Len())
	}
	d.regions = regions
	return nil
}

// TimeRange returns the first and last timestamps. ok is false for an
// empty dataset or one whose timestamps were never parsed.
func (d *Dataset) TimeRange() (from, to time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	from, to = d.Timestamps[0], d.Timestamps[0]
	for _, ts := range d.Timestamps[1:] {
		if ts.Before(from) {
			from = ts
		}
		if ts.After(to) {
			to = ts
		}
	}
	if from.IsZero() && to.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Slice returns a copy restricted to rows with from <= ts <= to. Zero
// bounds are open on that side.
func (d *Dataset) Slice(from, to time.Time) *Dataset {
	keep := make([]bool, d.Len())
	for i, ts := range d.Timestamps {
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && ts.After(to) {
			continue
		}
		keep[i] = true
	}
	return d.filter(keep)
}

// Filter returns a copy containing only the rows where keep is true.
func (d *Dataset) Filter(keep []bool) *Dataset {
	return d.filter(keep)
}

func (d *Dataset) filter(keep []bool) *Dataset {
	out := New(d.Country)
	for i, k := range keep {
		if k {
			out.Timestamps = append(out.Timestamps, d.Timestamps[i])
		}
	}
	for _, name := range d.columns {
		src := d.values[name]
		vals := make([]float64, 0, out.Len())
		for i, k := range keep {
			if k {
				vals = append(vals, src[i])
			}
		}
		out.columns = append(out.columns, name)
		out.values[name] = vals
	}
	if d.regions != nil {
		regions := make([]string, 0, out.Len())
		for i, k := range keep {
			if k {
				regions = append(regions, d.regions[i])
			}
		}
		out.regions = regions
	}
	return out
}

// Normalize drops rows with unparseable (zero) timestamps, removes
// duplicate timestamps keeping the first occurrence, and sorts rows
// chronologically. Returns the number of rows dropped.
//
// A dataset where no timestamp parsed at all (typically a file without
// a timestamp column) is left untouched; dropping its zero rows would
// empty it.
func (d *Dataset) Normalize() int {
	before := d.Len()

	parsed := false
	for _, ts := range d.Timestamps {
		if !ts.IsZero() {
			parsed = true
			break
		}
	}
	if !parsed {
		return 0
	}

	keep := make([]bool, d.Len())
	seen := make(map[int64]bool, d.Len())
	for i, ts := range d.Timestamps {
		if ts.IsZero() {
			continue
		}
		key := ts.UnixNano()
		if seen[key] {
			continue
		}
		seen[key] = true
		keep[i] = true
	}

	nd := d.filter(keep)

	order := make([]int, nd.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return nd.Timestamps[order[a]].Before(nd.Timestamps[order[b]])
	})

	d.Timestamps = reorderTimes(nd.Timestamps, order)
	d.columns = nd.columns
	d.values = make(map[string][]float64, len(nd.values))
	for name, vals := range nd.values {
		d.values[name] = reorderFloats(vals, order)
	}
	if nd.regions != nil {
		d.regions = reorderStrings(nd.regions, order)
	} else {
		d.regions = nil
	}

	return before - d.Len()
}

// NonMissing returns the values of a column with NaN cells removed.
func (d *Dataset) NonMissing(name string) []float64 {
	src, ok := d.values[name]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MissingFraction returns the fraction of NaN cells in row i across all
// numeric columns. A dataset without numeric columns reports 0.
func (d *Dataset) MissingFraction(i int) float64 {
	if len(d.columns) == 0 {
		return 0
	}
	missing := 0
	for _, name := range d.columns {
		if math.IsNaN(d.values[name][i]) {
			missing++
		}
	}
	return float64(missing) / float64(len(d.columns))
}

func reorderTimes(src []time.Time, order []int) []time.Time {
	out := make([]time.Time, len(order))
	for i, j := range order {
		out[i] = src[j]
	}
	return out
}

func reorderFloats(src []float64, order []int) []float64 {
	out := make([]float64, len(order))
	for i, j := range order {
		out[i] = src[j]
	}
	return out
}

func reorderStrings(src []string, order []int) []string {
	out := make([]string, len(order))
	for i, j := range order {
		out[i] = src[j]
	}
	return out
}
