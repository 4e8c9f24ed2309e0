package core

import (
	"context"
	"errors"
	"time"

	"darkzone_service/internal/domain/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeFeeds serves every external feed from memory.
type fakeFeeds struct {
	holidays  []model.Holiday
	edges     []model.EdgeGeometry
	weather   []model.WeatherRecord
	amenities []model.Amenity
	err       error

	holidayYears []int
	holidayCalls int
}

func (f *fakeFeeds) FetchHolidays(_ context.Context, _ string, years []int) ([]model.Holiday, error) {
	f.holidayCalls++
	f.holidayYears = years
	return f.holidays, f.err
}

func (f *fakeFeeds) LoadEdges(context.Context) ([]model.EdgeGeometry, error) {
	return f.edges, f.err
}

func (f *fakeFeeds) LoadWeather(context.Context) ([]model.WeatherRecord, error) {
	return f.weather, f.err
}

func (f *fakeFeeds) FetchAmenities(context.Context, string, []string) ([]model.Amenity, error) {
	return f.amenities, f.err
}

func (f *fakeFeeds) joiners() []Joiner {
	return []Joiner{
		&CalendarJoiner{Holidays: f, Region: "CH-BS"},
		&GeoJoiner{Source: f},
		&WeatherJoiner{Source: f},
		&PoiJoiner{Source: f, Place: "Basel"},
	}
}

var errFeedDown = errors.New("connection refused")

// observation builds a raw record in the legacy dotted export layout.
func observation(date, edge string, osmid int64, counts map[string]any) model.RawRecord {
	rec := model.RawRecord{
		"Unnamed: 0":  0,
		"_id":         "64b0",
		"date.utc":    date,
		"edge.id":     edge,
		"edge.osmid":  osmid,
		"osm.highway": "residential",
	}
	for k, v := range counts {
		rec[k] = v
	}
	return rec
}

func frameOf(rows ...model.Row) model.Frame {
	for i := range rows {
		if rows[i].Features == nil {
			rows[i].Features = map[string]model.Value{}
		}
	}
	return model.NewFrame(nil, rows)
}
