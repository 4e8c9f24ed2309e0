package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

func TestCalendarJoiner(t *testing.T) {
	feeds := &fakeFeeds{holidays: []model.Holiday{{Date: day(2021, 8, 1), Name: "National Day"}}}
	j := &CalendarJoiner{Holidays: feeds, Region: "CH-BS"}
	f := frameOf(
		model.Row{Date: day(2021, 8, 1), EdgeID: "E1"},
		model.Row{Date: day(2021, 8, 2), EdgeID: "E1"},
		model.Row{Date: day(2021, 8, 3), EdgeID: "E1"},
	)

	out, err := j.Join(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, []int{2021}, feeds.holidayYears)
	assert.Equal(t, model.Num(1), out.Rows[0].Features[model.ColHoliday])
	assert.Equal(t, model.Num(1), out.Rows[1].Features[model.ColHoliday])
	assert.Equal(t, model.Num(0), out.Rows[2].Features[model.ColHoliday])

	r := out.Rows[1]
	assert.Equal(t, model.Cat("2021"), r.Features[model.ColYear])
	assert.Equal(t, model.Cat("8"), r.Features[model.ColMonth])
	assert.Equal(t, model.Cat("2"), r.Features[model.ColDay])
	assert.Equal(t, model.Cat("Monday"), r.Features[model.ColWeekday])

	for _, c := range model.CalendarColumns {
		assert.True(t, out.HasColumn(c), c)
	}
	assert.Empty(t, f.Rows[0].Features, "input frame must not change")
}

func TestCalendarJoinerConfiguredYears(t *testing.T) {
	feeds := &fakeFeeds{}
	j := &CalendarJoiner{Holidays: feeds, Region: "CH", Years: []int{2020, 2021}}
	_, err := j.Join(context.Background(), frameOf(model.Row{Date: day(2021, 1, 5), EdgeID: "E1"}))
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, feeds.holidayYears)
}

func TestGeoJoiner(t *testing.T) {
	feeds := &fakeFeeds{edges: []model.EdgeGeometry{
		{EdgeID: "E1", Bounds: model.NormalizeBounds(47.55, 47.56, 7.58, 7.59), Length: 120.5},
	}}
	f := frameOf(
		model.Row{Date: day(2021, 3, 1), EdgeID: "E1"},
		model.Row{Date: day(2021, 3, 1), EdgeID: "E9"},
	)

	out, err := (&GeoJoiner{Source: feeds}).Join(context.Background(), f)
	require.NoError(t, err)

	r := out.Rows[0]
	assert.Equal(t, model.Num(47.56), r.Features[model.ColLatNorth])
	assert.Equal(t, model.Num(47.55), r.Features[model.ColLatSouth])
	assert.Equal(t, model.Num(7.59), r.Features[model.ColLonEast])
	assert.Equal(t, model.Num(7.58), r.Features[model.ColLonWest])
	assert.Equal(t, model.Num(120.5), r.Features[model.ColEdgeLength])

	for _, c := range model.GeoColumns {
		assert.Equal(t, model.Null, out.Rows[1].Features[c], c)
	}
}

func TestWeatherJoiner(t *testing.T) {
	values := make([]model.Value, len(model.WeatherColumns))
	for i := range values {
		values[i] = model.Num(float64(i))
	}
	values[4] = model.Null
	feeds := &fakeFeeds{weather: []model.WeatherRecord{{Date: day(2021, 3, 1), Values: values}}}
	f := frameOf(
		model.Row{Date: day(2021, 3, 1), EdgeID: "E1"},
		model.Row{Date: day(2021, 3, 2), EdgeID: "E1"},
	)

	out, err := (&WeatherJoiner{Source: feeds}).Join(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, model.Num(0), out.Rows[0].Features["temperature_max"])
	assert.Equal(t, model.Num(11), out.Rows[0].Features["wind_speed_mean"])
	assert.Equal(t, model.Null, out.Rows[0].Features["snowfall"])
	for _, c := range model.WeatherColumns {
		assert.Equal(t, model.Null, out.Rows[1].Features[c], c)
	}
}

func TestPoiJoinerStrictBoundary(t *testing.T) {
	feeds := &fakeFeeds{
		edges: []model.EdgeGeometry{
			{EdgeID: "E1", Bounds: model.NormalizeBounds(0, 1, 0, 1)},
		},
		amenities: []model.Amenity{
			{ID: 1, Tag: "bench", Lat: 0.5, Lon: 0.5},
			{ID: 2, Tag: "bench", Lat: 1.0, Lon: 0.5},
			{ID: 3, Tag: "bench", Lat: 0.5, Lon: 0.0},
			{ID: 4, Tag: "atm", Lat: 0.2, Lon: 0.9},
			{ID: 5, Tag: "shelter", Lat: 0.5, Lon: 0.5},
			{ID: 6, Tag: "bench", Lat: 2, Lon: 2},
		},
	}
	f := frameOf(
		model.Row{Date: day(2021, 3, 1), EdgeID: "E1"},
		model.Row{Date: day(2021, 3, 1), EdgeID: "E9"},
	)
	f, err := (&GeoJoiner{Source: feeds}).Join(context.Background(), f)
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		out, err := (&PoiJoiner{Source: feeds, Place: "Basel", Workers: workers}).Join(context.Background(), f)
		require.NoError(t, err)

		r := out.Rows[0]
		assert.Equal(t, model.Num(1), r.Features["bench"])
		assert.Equal(t, model.Num(1), r.Features["atm"])
		assert.Equal(t, model.Num(0), r.Features["toilets"])
		assert.NotContains(t, r.Features, "shelter")

		for _, tag := range model.AmenityTags {
			assert.Equal(t, model.Num(0), out.Rows[1].Features[tag], tag)
			assert.True(t, out.HasColumn(tag), tag)
		}
	}
}

func TestJoinAllIsIdempotent(t *testing.T) {
	feeds := &fakeFeeds{
		edges: []model.EdgeGeometry{{EdgeID: "E1", Bounds: model.NormalizeBounds(0, 1, 0, 1), Length: 3}},
	}
	f := frameOf(model.Row{Date: day(2021, 3, 1), EdgeID: "E1"})

	once, err := JoinAll(context.Background(), f, feeds.joiners()...)
	require.NoError(t, err)
	twice, err := JoinAll(context.Background(), once, feeds.joiners()...)
	require.NoError(t, err)

	assert.Equal(t, once.Schema, twice.Schema)
	assert.Equal(t, once.Rows, twice.Rows)
}

func TestJoinAllMissingFeed(t *testing.T) {
	feeds := &fakeFeeds{err: errFeedDown}
	f := frameOf(model.Row{Date: day(2021, 3, 1), EdgeID: "E1"})

	_, err := JoinAll(context.Background(), f, feeds.joiners()...)
	assert.ErrorIs(t, err, model.ErrMissingFeed)
	assert.ErrorContains(t, err, "calendar features")
}

func TestCountAmenitiesDeterministic(t *testing.T) {
	boxes := map[string]model.Bounds{}
	var ids []string
	var amenities []model.Amenity
	for i := 0; i < 20; i++ {
		id := string(rune('A' + i))
		ids = append(ids, id)
		lo := float64(i)
		boxes[id] = model.NormalizeBounds(lo, lo+1, lo, lo+1)
		amenities = append(amenities, model.Amenity{ID: int64(i), Tag: "bench", Lat: lo + 0.5, Lon: lo + 0.5})
	}

	serial, err := CountAmenities(context.Background(), ids, boxes, amenities, model.AmenityTags, 1)
	require.NoError(t, err)
	parallel, err := CountAmenities(context.Background(), ids, boxes, amenities, model.AmenityTags, 8)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	for _, id := range ids {
		assert.Equal(t, 1, serial[id]["bench"], id)
	}
}
