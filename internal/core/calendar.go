package core

import (
	"context"
	"time"

	"darkzone_service/internal/domain/model"
)

// CalendarJoiner adds year, month, day, weekday and the holiday flag. A date
// is flagged when it is a holiday or the day after one, since litter shows up
// on the street with a one day lag.
type CalendarJoiner struct {
	Holidays HolidayProvider
	Region   string
	// Years to fetch holidays for. Empty means the years present in the frame.
	Years []int
}

func (j *CalendarJoiner) Name() string { return "calendar" }

func (j *CalendarJoiner) Join(ctx context.Context, f model.Frame) (model.Frame, error) {
	years := j.Years
	if len(years) == 0 {
		years = f.Years()
	}
	flagged := make(map[time.Time]struct{})
	if len(years) > 0 {
		holidays, err := j.Holidays.FetchHolidays(ctx, j.Region, years)
		if err != nil {
			return model.Frame{}, feedError("holidays", err)
		}
		for _, h := range holidays {
			d := model.Day(h.Date)
			flagged[d] = struct{}{}
			flagged[d.AddDate(0, 0, 1)] = struct{}{}
		}
	}

	out := f.Clone()
	out.AddColumn(model.Column{Name: model.ColYear, Kind: model.Categorical})
	out.AddColumn(model.Column{Name: model.ColMonth, Kind: model.Categorical})
	out.AddColumn(model.Column{Name: model.ColDay, Kind: model.Categorical})
	out.AddColumn(model.Column{Name: model.ColWeekday, Kind: model.Categorical})
	out.AddColumn(model.Column{Name: model.ColHoliday, Kind: model.Numeric})
	for i := range out.Rows {
		r := &out.Rows[i]
		r.Features[model.ColYear] = model.Cat(model.FormatInt(r.Date.Year()))
		r.Features[model.ColMonth] = model.Cat(model.FormatInt(int(r.Date.Month())))
		r.Features[model.ColDay] = model.Cat(model.FormatInt(r.Date.Day()))
		r.Features[model.ColWeekday] = model.Cat(model.WeekdayName(r.Date.Weekday()))
		holiday := 0.0
		if _, ok := flagged[model.Day(r.Date)]; ok {
			holiday = 1
		}
		r.Features[model.ColHoliday] = model.Num(holiday)
	}
	return out, nil
}
