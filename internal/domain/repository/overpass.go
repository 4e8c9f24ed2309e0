package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"

	"darkzone_service/internal/domain/model"
)

type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassRepository(endpoint string, maxParallel int, timeout time.Duration) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	if maxParallel < 1 {
		maxParallel = 1
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
	}
}

// FetchAmenities returns the amenity nodes of the named area whose amenity
// tag is one of tags, ordered by node ID.
func (r *OverpassRepository) FetchAmenities(ctx context.Context, place string, tags []string) ([]model.Amenity, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	result, err := r.executeQuery(ctx, amenityQuery(place, tags))
	if err != nil {
		return nil, fmt.Errorf("failed to execute amenity query: %w", err)
	}
	return convertToAmenities(result, tags), nil
}

func amenityQuery(place string, tags []string) string {
	escaped := make([]string, len(tags))
	for i, t := range tags {
		escaped[i] = escapeValue(t)
	}
	return fmt.Sprintf(`
		[out:json][timeout:180];
		area["name"="%s"]->.searchArea;
		(
			node["amenity"~"^(%s)$"](area.searchArea);
		);
		out body;
	`, escapeValue(place), strings.Join(escaped, "|"))
}

func escapeValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// executeQuery runs the query and gives up when ctx is done. The overpass
// client itself has no context support.
func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type response struct {
		result overpass.Result
		err    error
	}
	done := make(chan response, 1)
	go func() {
		result, err := r.client.Query(query)
		done <- response{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query failed: %w", ctx.Err())
	case resp := <-done:
		if resp.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", resp.err)
		}
		return &resp.result, nil
	}
}

// convertToAmenities keeps nodes only; ways and relations have no single point.
func convertToAmenities(result *overpass.Result, tags []string) []model.Amenity {
	wanted := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		wanted[t] = struct{}{}
	}

	amenities := make([]model.Amenity, 0, len(result.Nodes))
	for _, node := range result.Nodes {
		tag := node.Tags["amenity"]
		if _, ok := wanted[tag]; !ok {
			continue
		}
		amenities = append(amenities, model.Amenity{
			ID:  node.ID,
			Tag: tag,
			Lat: node.Lat,
			Lon: node.Lon,
		})
	}
	sort.Slice(amenities, func(i, j int) bool { return amenities[i].ID < amenities[j].ID })
	return amenities
}
