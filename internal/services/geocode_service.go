package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/lunaria/gallery-backend/internal/config"
)

// GeocodeResult is a best-effort place lookup. All fields optional.
type GeocodeResult struct {
	City         *string
	Country      *string
	LocationName *string
}

// Geocoder resolves GPS coordinates to a place. Implementations must
// swallow their own failures: a nil result means "no location", never
// an error the caller has to handle.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) *GeocodeResult
}

// NominatimGeocoder queries a Nominatim-compatible reverse geocoding
// endpoint with a bounded timeout.
type NominatimGeocoder struct {
	cfg    *config.Config
	client *http.Client
}

func NewGeocodeService(cfg *config.Config) *NominatimGeocoder {
	return &NominatimGeocoder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.GeocodeTimeout},
	}
}

type nominatimResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse performs a single lookup attempt. Any error, timeout or
// non-2xx response degrades to nil so the caller's pipeline continues
// with null location fields.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) *GeocodeResult {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.GeocodeTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))
	params.Set("zoom", "14")
	if g.cfg.GeocodeLanguage != "" {
		params.Set("accept-language", g.cfg.GeocodeLanguage)
	}

	endpoint := strings.TrimRight(g.cfg.GeocodeEndpoint, "/") + "/reverse?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.cfg.GeocodeUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("Geocode lookup failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Geocode lookup failed: status %d", resp.StatusCode)
		return nil
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("Geocode response decode failed: %v", err)
		return nil
	}

	result := &GeocodeResult{}
	if city := firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village, body.Address.County); city != "" {
		result.City = &city
	}
	if body.Address.Country != "" {
		country := body.Address.Country
		result.Country = &country
	}
	if name := firstNonEmpty(body.Name, body.DisplayName); name != "" {
		result.LocationName = &name
	}

	if result.City == nil && result.Country == nil && result.LocationName == nil {
		return nil
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
