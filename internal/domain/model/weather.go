package model

import "time"

// Weather feature columns in the positional order of the feed.
var WeatherColumns = []string{
	"temperature_max", "temperature_min", "temperature_mean",
	"precipitation", "snowfall",
	"humidity_max", "humidity_min", "humidity_mean",
	"cloud_coverage",
	"wind_speed_max", "wind_speed_min", "wind_speed_mean",
}

// WeatherRecord is one day of the weather feed. Values is aligned with
// WeatherColumns; invalid entries are missing readings.
type WeatherRecord struct {
	Date   time.Time
	Values []Value
}
