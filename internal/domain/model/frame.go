package model

import (
	"sort"
	"strconv"
	"time"
)

// Kind tells the preprocessing stage how to encode a feature column.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

// Column describes one feature column of a Frame.
type Column struct {
	Name string
	Kind Kind
}

// Value is a nullable cell. Categorical cells use Str, numeric cells use Num.
type Value struct {
	Str   string
	Num   float64
	Valid bool
}

// Cat returns a valid categorical value.
func Cat(s string) Value { return Value{Str: s, Valid: true} }

// Num returns a valid numeric value.
func Num(f float64) Value { return Value{Num: f, Valid: true} }

// Null is the missing value.
var Null = Value{}

// IdentifierColumns are the descriptive columns every row carries. They are
// fed to the model like any other feature.
var IdentifierColumns = []Column{
	{Name: ColDate, Kind: Categorical},
	{Name: ColEdgeID, Kind: Categorical},
	{Name: ColEdgeOSMID, Kind: Numeric},
	{Name: ColOSMHighway, Kind: Categorical},
}

// Row is one (date, edge) cell with its targets and joined features.
type Row struct {
	Date        time.Time
	EdgeID      string
	EdgeOSMID   int64
	OSMHighway  string
	RowType     string
	Counts      map[LitterCode]float64
	TotalLitter float64
	Features    map[string]Value
}

// CellKey identifies a (date, edge) pair.
type CellKey struct {
	Date   time.Time
	EdgeID string
}

// Key returns the (date, edge) identity of the row.
func (r Row) Key() CellKey { return CellKey{Date: r.Date, EdgeID: r.EdgeID} }

// Value returns the cell for a feature column.
func (r Row) Value(name string) Value {
	switch name {
	case ColDate:
		return Cat(DateKey(r.Date))
	case ColEdgeID:
		return Cat(r.EdgeID)
	case ColEdgeOSMID:
		return Num(float64(r.EdgeOSMID))
	case ColOSMHighway:
		return Cat(r.OSMHighway)
	}
	return r.Features[name]
}

// Target returns the count for a litter code.
func (r Row) Target(code LitterCode) float64 {
	if code == TotalLitter {
		return r.TotalLitter
	}
	return r.Counts[code]
}

// Clone copies the row including its maps.
func (r Row) Clone() Row {
	out := r
	if r.Counts != nil {
		out.Counts = make(map[LitterCode]float64, len(r.Counts))
		for k, v := range r.Counts {
			out.Counts[k] = v
		}
	}
	out.Features = make(map[string]Value, len(r.Features))
	for k, v := range r.Features {
		out.Features[k] = v
	}
	return out
}

// Frame is the table flowing between pipeline stages. Stages never mutate
// the frame they receive; they return a new one.
type Frame struct {
	Codes  []LitterCode
	Schema []Column
	Rows   []Row
}

// NewFrame builds a frame whose schema holds the identifier columns.
func NewFrame(codes []LitterCode, rows []Row) Frame {
	schema := make([]Column, len(IdentifierColumns))
	copy(schema, IdentifierColumns)
	return Frame{Codes: codes, Schema: schema, Rows: rows}
}

// Clone deep-copies the frame.
func (f Frame) Clone() Frame {
	out := Frame{
		Codes:  append([]LitterCode(nil), f.Codes...),
		Schema: append([]Column(nil), f.Schema...),
		Rows:   make([]Row, len(f.Rows)),
	}
	for i, r := range f.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// AddColumn appends a column to the schema unless it is already present.
func (f *Frame) AddColumn(col Column) {
	for i, c := range f.Schema {
		if c.Name == col.Name {
			f.Schema[i] = col
			return
		}
	}
	f.Schema = append(f.Schema, col)
}

// HasColumn reports whether the schema contains name.
func (f Frame) HasColumn(name string) bool {
	for _, c := range f.Schema {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasCode reports whether code is a target available in the frame.
func (f Frame) HasCode(code LitterCode) bool {
	if code == TotalLitter {
		return true
	}
	for _, c := range f.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// DropColumns returns a copy of the frame without the named feature columns.
func (f Frame) DropColumns(names ...string) Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := f.Clone()
	out.Schema = out.Schema[:0]
	for _, c := range f.Schema {
		if _, ok := drop[c.Name]; !ok {
			out.Schema = append(out.Schema, c)
		}
	}
	for i := range out.Rows {
		for n := range drop {
			delete(out.Rows[i].Features, n)
		}
	}
	return out
}

// Subset returns the rows at the given indexes, in that order.
func (f Frame) Subset(idx []int) Frame {
	out := Frame{
		Codes:  append([]LitterCode(nil), f.Codes...),
		Schema: append([]Column(nil), f.Schema...),
		Rows:   make([]Row, len(idx)),
	}
	for i, j := range idx {
		out.Rows[i] = f.Rows[j].Clone()
	}
	return out
}

// Targets extracts the target vector for a code.
func (f Frame) Targets(code LitterCode) []float64 {
	y := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		y[i] = r.Target(code)
	}
	return y
}

// SortRows orders rows by date then edge id.
func (f Frame) SortRows() {
	sort.SliceStable(f.Rows, func(i, j int) bool {
		a, b := f.Rows[i], f.Rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.EdgeID < b.EdgeID
	})
}

// Years returns the distinct calendar years present in the frame, ascending.
func (f Frame) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range f.Rows {
		seen[r.Date.Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// FormatInt renders an integer categorical value.
func FormatInt(n int) string { return strconv.Itoa(n) }
