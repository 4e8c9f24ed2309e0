package core

import (
	"context"
	"time"

	"darkzone_service/internal/domain/model"
)

// WeatherJoiner left-joins daily weather by date. Dates missing from the feed
// get null weather features.
type WeatherJoiner struct {
	Source WeatherSource
}

func (j *WeatherJoiner) Name() string { return "weather" }

func (j *WeatherJoiner) Join(ctx context.Context, f model.Frame) (model.Frame, error) {
	records, err := j.Source.LoadWeather(ctx)
	if err != nil {
		return model.Frame{}, feedError("weather", err)
	}
	byDate := make(map[time.Time]model.WeatherRecord, len(records))
	for _, rec := range records {
		d := model.Day(rec.Date)
		if _, dup := byDate[d]; !dup {
			byDate[d] = rec
		}
	}

	out := f.Clone()
	for _, name := range model.WeatherColumns {
		out.AddColumn(model.Column{Name: name, Kind: model.Numeric})
	}
	for i := range out.Rows {
		r := &out.Rows[i]
		rec, ok := byDate[model.Day(r.Date)]
		for k, name := range model.WeatherColumns {
			if !ok || k >= len(rec.Values) {
				r.Features[name] = model.Null
				continue
			}
			r.Features[name] = rec.Values[k]
		}
	}
	return out, nil
}
