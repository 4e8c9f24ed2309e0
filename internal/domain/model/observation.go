package model

import "time"

// Canonical column names.
const (
	ColDate       = "date_utc"
	ColEdgeID     = "edge_id"
	ColEdgeOSMID  = "edge_osmid"
	ColOSMHighway = "osm_highway"
	ColRowType    = "row_type"
)

// RowTypeDarkZone tags synthetic rows emitted by the dark-zone generator.
const RowTypeDarkZone = "darkzone"

// RawRecord is one observation as delivered by a source, keyed by column name.
type RawRecord map[string]any

// RawTable is the untyped observation input.
type RawTable []RawRecord

// Observation is a normalized litter report.
type Observation struct {
	Date        time.Time
	EdgeID      string
	EdgeOSMID   int64
	OSMHighway  string
	Counts      map[LitterCode]int64
	TotalLitter int64
}

// ObservationSet is the normalizer output. Codes lists the discovered
// categories in ascending order.
type ObservationSet struct {
	Codes []LitterCode
	Rows  []Observation
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a day the way the date_utc column is rendered.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
