package place

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// NominatimProvider is the primary geocoder (OpenStreetMap Nominatim).
type NominatimProvider struct {
	baseURL string
	client  *http.Client
}

func NewNominatimProvider(baseURL string, timeout time.Duration) *NominatimProvider {
	return &NominatimProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) Search(ctx context.Context, query string) ([]types.GeocodeCandidate, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=jsonv2&addressdetails=1&limit=5",
		p.baseURL, url.QueryEscape(query))

	var results []struct {
		PlaceID     int64  `json:"place_id"`
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Address     struct {
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := getJSON(ctx, p.client, endpoint, &results); err != nil {
		return nil, err
	}

	candidates := make([]types.GeocodeCandidate, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		candidates = append(candidates, types.GeocodeCandidate{
			ID:          strconv.FormatInt(r.PlaceID, 10),
			Name:        r.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
			CountryCode: r.Address.CountryCode,
		})
	}
	return candidates, nil
}

// PhotonProvider is the secondary geocoder (Komoot Photon), consulted only
// when the primary has no match or is unavailable.
type PhotonProvider struct {
	baseURL string
	client  *http.Client
}

func NewPhotonProvider(baseURL string, timeout time.Duration) *PhotonProvider {
	return &PhotonProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PhotonProvider) Name() string { return "photon" }

func (p *PhotonProvider) Search(ctx context.Context, query string) ([]types.GeocodeCandidate, error) {
	endpoint := fmt.Sprintf("%s/api?q=%s&limit=5", p.baseURL, url.QueryEscape(query))

	var results struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"` // lon, lat
			} `json:"geometry"`
			Properties struct {
				OSMID       int64  `json:"osm_id"`
				Name        string `json:"name"`
				CountryCode string `json:"countrycode"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := getJSON(ctx, p.client, endpoint, &results); err != nil {
		return nil, err
	}

	candidates := make([]types.GeocodeCandidate, 0, len(results.Features))
	for _, f := range results.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		candidates = append(candidates, types.GeocodeCandidate{
			ID:          strconv.FormatInt(f.Properties.OSMID, 10),
			Name:        f.Properties.Name,
			Latitude:    f.Geometry.Coordinates[1],
			Longitude:   f.Geometry.Coordinates[0],
			CountryCode: f.Properties.CountryCode,
		})
	}
	return candidates, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "go-trip-itinerary/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
