package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

const overpassResponse = `{
	"version": 0.6,
	"osm3s": {"timestamp_osm_base": "2021-08-01T00:00:00Z"},
	"elements": [
		{"type": "node", "id": 30, "lat": 47.56, "lon": 7.59, "tags": {"amenity": "fountain"}},
		{"type": "node", "id": 10, "lat": 47.55, "lon": 7.58, "tags": {"amenity": "bench"}},
		{"type": "node", "id": 20, "lat": 47.54, "lon": 7.57, "tags": {"amenity": "bar"}}
	]
}`

func TestFetchAmenities(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.FormValue("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(overpassResponse))
	}))
	defer srv.Close()

	repo := NewOverpassRepository(srv.URL, 1, 5*time.Second)
	got, err := repo.FetchAmenities(context.Background(), "Basel", []string{"bench", "fountain"})
	require.NoError(t, err)

	assert.Contains(t, query, `area["name"="Basel"]->.searchArea;`)
	assert.Contains(t, query, `node["amenity"~"^(bench|fountain)$"](area.searchArea);`)
	assert.Equal(t, []model.Amenity{
		{ID: 10, Tag: "bench", Lat: 47.55, Lon: 7.58},
		{ID: 30, Tag: "fountain", Lat: 47.56, Lon: 7.59},
	}, got)
}

func TestFetchAmenitiesNoTags(t *testing.T) {
	repo := NewOverpassRepository("http://127.0.0.1:0", 1, time.Second)
	got, err := repo.FetchAmenities(context.Background(), "Basel", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchAmenitiesHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewOverpassRepository(srv.URL, 1, 5*time.Second)
	_, err := repo.FetchAmenities(ctx, "Basel", []string{"bench"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAmenityQueryEscapes(t *testing.T) {
	q := amenityQuery(`Saint "X"`, []string{"bench"})
	assert.Contains(t, q, `area["name"="Saint \"X\""]`)
}
