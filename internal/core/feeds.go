package core

import (
	"context"
	"fmt"

	"darkzone_service/internal/domain/model"
)

// HolidayProvider returns public holidays of a region for the given years.
type HolidayProvider interface {
	FetchHolidays(ctx context.Context, region string, years []int) ([]model.Holiday, error)
}

// EdgeGeometrySource returns the edge geometry feed.
type EdgeGeometrySource interface {
	LoadEdges(ctx context.Context) ([]model.EdgeGeometry, error)
}

// WeatherSource returns the per-day weather feed.
type WeatherSource interface {
	LoadWeather(ctx context.Context) ([]model.WeatherRecord, error)
}

// AmenitySource returns amenity points of a place for the given tags.
type AmenitySource interface {
	FetchAmenities(ctx context.Context, place string, tags []string) ([]model.Amenity, error)
}

// Joiner adds one family of feature columns to a frame. Joins are
// deterministic lookups: joining twice gives the same columns.
type Joiner interface {
	Name() string
	Join(ctx context.Context, f model.Frame) (model.Frame, error)
}

// JoinAll applies the joiners in order.
func JoinAll(ctx context.Context, f model.Frame, joiners ...Joiner) (model.Frame, error) {
	out := f
	for _, j := range joiners {
		next, err := j.Join(ctx, out)
		if err != nil {
			return model.Frame{}, fmt.Errorf("%s features: %w", j.Name(), err)
		}
		out = next
	}
	return out, nil
}

func feedError(feed string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrMissingFeed, feed, err)
}
