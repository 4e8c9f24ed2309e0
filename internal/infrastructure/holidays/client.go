package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"darkzone_service/internal/domain/model"
)

// NagerClient reads public holidays from a Nager.Date compatible API.
type NagerClient struct {
	baseURL string
	client  *http.Client
}

func NewNagerClient(baseURL string, timeout time.Duration) *NagerClient {
	return &NagerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type publicHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
}

// FetchHolidays returns the holidays of region for every year, sorted by
// date. region is an ISO 3166-1 country code, which selects nationwide
// holidays only, or an ISO 3166-2 subdivision code such as "CH-BS", which
// adds the holidays observed in that subdivision.
func (c *NagerClient) FetchHolidays(ctx context.Context, region string, years []int) ([]model.Holiday, error) {
	country, subdivision := splitRegion(region)
	if country == "" {
		return nil, fmt.Errorf("empty holiday region")
	}

	var out []model.Holiday
	for _, year := range years {
		entries, err := c.fetchYear(ctx, country, year)
		if err != nil {
			return nil, err
		}
		for _, h := range entries {
			if !h.Global && !containsFold(h.Counties, subdivision) {
				continue
			}
			date, err := time.Parse("2006-01-02", h.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid holiday date %q: %w", h.Date, err)
			}
			out = append(out, model.Holiday{Date: date, Name: h.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (c *NagerClient) fetchYear(ctx context.Context, country string, year int) ([]publicHoliday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send holiday request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday service returned status %d for %s/%d", resp.StatusCode, country, year)
	}

	var entries []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode holidays: %w", err)
	}
	return entries, nil
}

func splitRegion(region string) (country, subdivision string) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if i := strings.IndexByte(region, '-'); i > 0 {
		return region[:i], region
	}
	return region, ""
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
