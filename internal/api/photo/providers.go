package photo

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// FoursquareProvider fetches venue photos scoped to coordinates.
type FoursquareProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFoursquareProvider(baseURL, apiKey string, timeout time.Duration) *FoursquareProvider {
	return &FoursquareProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *FoursquareProvider) Name() string { return "foursquare" }

func (p *FoursquareProvider) PhotoNear(ctx context.Context, lat, lng float64, query string) (*types.Photo, error) {
	endpoint := fmt.Sprintf("%s/v3/places/search?query=%s&ll=%.6f,%.6f&limit=1&fields=fsq_id,photos",
		p.baseURL, url.QueryEscape(query), lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from venue photo search", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			FsqID  string `json:"fsq_id"`
			Photos []struct {
				Prefix string `json:"prefix"`
				Suffix string `json:"suffix"`
			} `json:"photos"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	for _, r := range body.Results {
		if len(r.Photos) == 0 {
			continue
		}
		// Accept the first photo returned.
		ph := r.Photos[0]
		return &types.Photo{
			URL:       ph.Prefix + "800x600" + ph.Suffix,
			ThumbURL:  ph.Prefix + "400x300" + ph.Suffix,
			Reference: r.FsqID,
			Source:    p.Name(),
		}, nil
	}
	return nil, nil
}

// UnsplashProvider fetches generic stock photos by search term.
type UnsplashProvider struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

func NewUnsplashProvider(baseURL, accessKey string, timeout time.Duration) *UnsplashProvider {
	return &UnsplashProvider{
		baseURL:   baseURL,
		accessKey: accessKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *UnsplashProvider) Name() string { return "unsplash" }

func (p *UnsplashProvider) Search(ctx context.Context, term string) (*types.Photo, error) {
	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=1&orientation=landscape",
		p.baseURL, url.QueryEscape(term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from stock photo search", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			ID   string `json:"id"`
			URLs struct {
				Regular string `json:"regular"`
				Small   string `json:"small"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(body.Results) == 0 {
		return nil, nil
	}
	r := body.Results[0]
	return &types.Photo{
		URL:       r.URLs.Regular,
		ThumbURL:  r.URLs.Small,
		Reference: r.ID,
		Source:    p.Name(),
	}, nil
}

// PicsumPlaceholder produces deterministic seeded placeholder images; the
// guaranteed-available final tier of the waterfall.
type PicsumPlaceholder struct {
	baseURL string
}

func NewPicsumPlaceholder(baseURL string) *PicsumPlaceholder {
	return &PicsumPlaceholder{baseURL: baseURL}
}

func (p *PicsumPlaceholder) Name() string { return "picsum" }

func (p *PicsumPlaceholder) Placeholder(seed string) *types.Photo {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(seed))))
	key := fmt.Sprintf("%08x", h.Sum32())
	return &types.Photo{
		URL:      fmt.Sprintf("%s/seed/%s/800/600", p.baseURL, key),
		ThumbURL: fmt.Sprintf("%s/seed/%s/400/300", p.baseURL, key),
		Source:   p.Name(),
	}
}

func (p *PicsumPlaceholder) IsPlaceholder(photoURL string) bool {
	return photoURL != "" && strings.HasPrefix(photoURL, p.baseURL+"/seed/")
}
