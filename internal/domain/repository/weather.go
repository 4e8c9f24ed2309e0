package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"darkzone_service/internal/domain/model"
)

// WeatherFileRepository loads a meteoblue daily archive export: a header
// row, MetadataRows rows of location metadata, then one row per day with the
// date followed by the twelve readings in model.WeatherColumns order. Extra
// trailing columns are ignored.
type WeatherFileRepository struct {
	path         string
	metadataRows int
}

func NewWeatherFileRepository(path string, metadataRows int) *WeatherFileRepository {
	return &WeatherFileRepository{path: path, metadataRows: metadataRows}
}

func (r *WeatherFileRepository) LoadWeather(ctx context.Context) ([]model.WeatherRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weather file: %w", err)
	}
	defer file.Close()
	return ParseWeather(file, r.metadataRows)
}

// ParseWeather reads the export. Readings are rounded to one decimal;
// empty cells are missing readings.
func ParseWeather(in io.Reader, metadataRows int) ([]model.WeatherRecord, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read weather header: %w", err)
	}

	var records []model.WeatherRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read weather line %d: %w", line, err)
		}
		if line-1 <= metadataRows {
			continue
		}
		if len(row) < 1+len(model.WeatherColumns) {
			return nil, fmt.Errorf("weather line %d: expected %d columns, got %d", line, 1+len(model.WeatherColumns), len(row))
		}

		date, err := model.ParseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("weather line %d: %w", line, err)
		}
		rec := model.WeatherRecord{
			Date:   model.Day(date),
			Values: make([]model.Value, len(model.WeatherColumns)),
		}
		for k := range model.WeatherColumns {
			cell := strings.TrimSpace(row[1+k])
			if cell == "" {
				rec.Values[k] = model.Null
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("weather line %d, %s: %w", line, model.WeatherColumns[k], err)
			}
			rec.Values[k] = model.Num(math.Round(v*10) / 10)
		}
		records = append(records, rec)
	}
	return records, nil
}
