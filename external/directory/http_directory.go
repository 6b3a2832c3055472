package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airwavelab/contestwatch/internal/station"
)

// HTTPDirectory resolves stations against a radio-browser style JSON
// API. Responses carry one object per station with a uuid, a display
// name and a resolved stream URL.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

type stationEntry struct {
	StationUUID string `json:"stationuuid"`
	Name        string `json:"name"`
	URLResolved string `json:"url_resolved"`
	URL         string `json:"url"`
}

func NewHTTPDirectory(baseURL string, timeout time.Duration) station.Directory {
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDirectory) ResolveStations(ctx context.Context, criteria station.Criteria) ([]station.Station, error) {
	q := url.Values{}
	if criteria.Filter != "" {
		q.Set("name", criteria.Filter)
	}
	if criteria.Limit > 0 {
		q.Set("limit", strconv.Itoa(criteria.Limit))
	}
	q.Set("hidebroken", "true")
	q.Set("order", "clickcount")
	q.Set("reverse", "true")

	endpoint := d.baseURL + "/json/stations/search?" + q.Encode()
	entries, err := d.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	stations := make([]station.Station, 0, len(entries))
	for _, e := range entries {
		streamURL := e.URLResolved
		if streamURL == "" {
			streamURL = e.URL
		}
		if e.StationUUID == "" || streamURL == "" {
			continue
		}
		stations = append(stations, station.Station{
			ID:          e.StationUUID,
			DisplayName: e.Name,
			StreamURL:   streamURL,
		})
	}
	return stations, nil
}

func (d *HTTPDirectory) ResolveStreamURL(ctx context.Context, stationID string) (string, error) {
	endpoint := d.baseURL + "/json/stations/byuuid/" + url.PathEscape(stationID)
	entries, err := d.fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("station %s not found in directory", stationID)
	}
	e := entries[0]
	if e.URLResolved != "" {
		return e.URLResolved, nil
	}
	if e.URL != "" {
		return e.URL, nil
	}
	return "", fmt.Errorf("station %s has no stream url", stationID)
}

func (d *HTTPDirectory) fetch(ctx context.Context, endpoint string) ([]stationEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "contestwatch/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var entries []stationEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return entries, nil
}
