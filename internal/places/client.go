// Package places is the contract with the external lookup service: identity
// resolution (free-text query with geographic bias), detail fetch, and
// opening-hours fetch. The concrete client distinguishes quota-signaling
// responses (429/403) from other failures so the orchestrators above it know
// when to trip a cooldown. Gating (budget, cooldown, throttle) lives in the
// governor, not here.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"places-enricher/internal/common/errors"
	commonhttp "places-enricher/internal/common/http"
	"places-enricher/internal/models"
)

// Field masks keep detail responses to the fields the caches store.
const (
	searchFieldMask  = "places.id,places.displayName,places.formattedAddress,places.googleMapsUri"
	detailsFieldMask = "id,displayName,formattedAddress,rating,userRatingCount,photos,googleMapsUri"
	hoursFieldMask   = "id,regularOpeningHours"
)

// Client is the lookup-service contract the enrichers consume. Tests
// substitute a scripted fake.
type Client interface {
	// ResolveIdentity runs a fuzzy text query biased toward a geographic
	// center and returns candidate places.
	ResolveIdentity(ctx context.Context, query string, bias GeoBias) ([]Candidate, error)
	// FetchDetails fetches authoritative metadata for a resolved identifier.
	FetchDetails(ctx context.Context, id string) (*PlaceDetails, error)
	// FetchHours fetches structured weekly opening hours for a resolved
	// identifier.
	FetchHours(ctx context.Context, id string) (*HoursDetails, error)
}

// HTTPClient is the production Client over the lookup service's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // zero means the shared factory default
}

// NewHTTPClient creates a lookup client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigError("lookup API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://places.googleapis.com"
	}

	var client *http.Client
	if cfg.Timeout > 0 {
		client = commonhttp.NewHTTPClientWithTimeout(cfg.Timeout)
	} else {
		client = commonhttp.NewHTTPClient()
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

func (c *HTTPClient) ResolveIdentity(ctx context.Context, query string, bias GeoBias) ([]Candidate, error) {
	reqBody := searchTextRequest{
		TextQuery:  query,
		MaxResults: 5,
	}
	if bias.RadiusMeters > 0 {
		reqBody.LocationBias = &locationBias{
			Circle: circle{
				Center: latLng{Latitude: bias.Lat, Longitude: bias.Lng},
				Radius: bias.RadiusMeters,
			},
		}
	}

	var resp searchTextResponse
	if err := c.do(ctx, http.MethodPost, "/v1/places:searchText", searchFieldMask, reqBody, &resp); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		candidates = append(candidates, Candidate{
			ID:               p.ID,
			DisplayName:      displayNameText(p.DisplayName),
			FormattedAddress: p.FormattedAddress,
			MapsURI:          p.GoogleMapsURI,
		})
	}
	return candidates, nil
}

func (c *HTTPClient) FetchDetails(ctx context.Context, id string) (*PlaceDetails, error) {
	var p wirePlace
	if err := c.do(ctx, http.MethodGet, "/v1/places/"+id, detailsFieldMask, nil, &p); err != nil {
		return nil, err
	}

	details := &PlaceDetails{
		ID:               p.ID,
		DisplayName:      displayNameText(p.DisplayName),
		FormattedAddress: p.FormattedAddress,
		City:             cityFromAddress(p.FormattedAddress),
		Rating:           p.Rating,
		ReviewCount:      p.UserRatingCount,
		MapsURI:          p.GoogleMapsURI,
	}
	if len(p.Photos) > 0 && p.Photos[0].Name != "" {
		details.Photo = &models.PhotoRef{Kind: models.PhotoKindName, Value: p.Photos[0].Name}
	}
	return details, nil
}

func (c *HTTPClient) FetchHours(ctx context.Context, id string) (*HoursDetails, error) {
	var p wirePlace
	if err := c.do(ctx, http.MethodGet, "/v1/places/"+id, hoursFieldMask, nil, &p); err != nil {
		return nil, err
	}
	if p.RegularOpeningHours == nil {
		return nil, errors.NotFoundError("opening hours").WithContext("id", id)
	}

	hours := &HoursDetails{
		WeekdayText: p.RegularOpeningHours.WeekdayDescriptions,
		OpenNow:     p.RegularOpeningHours.OpenNow,
	}
	for _, wp := range p.RegularOpeningHours.Periods {
		period := models.Period{
			Open: models.TimePoint{Day: wp.Open.Day, Hour: wp.Open.Hour, Minute: wp.Open.Minute},
		}
		if wp.Close != nil {
			period.Close = &models.TimePoint{Day: wp.Close.Day, Hour: wp.Close.Hour, Minute: wp.Close.Minute}
		}
		hours.Periods = append(hours.Periods, period)
	}
	return hours, nil
}

// do executes one API call and decodes the response into out.
func (c *HTTPClient) do(ctx context.Context, method, path, fieldMask string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.InternalError("failed to marshal request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.InternalError("failed to create request", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.TimeoutError("lookup call")
		}
		return errors.ConnectionError("lookup call failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.ConnectionError("failed to read response", err)
	}

	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.InternalError("failed to decode response", err)
	}
	return nil
}

// classifyStatus maps response codes onto the error taxonomy. 429 and 403 are
// the quota signals that trip a pipeline cooldown; everything else non-2xx is
// a transient call failure.
func classifyStatus(statusCode int, body []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusForbidden:
		return errors.QuotaError("lookup service", statusCode)
	default:
		return errors.InternalError(
			fmt.Sprintf("lookup call failed with status %d", statusCode), nil,
		).WithCode(fmt.Sprintf("%d", statusCode)).WithContext("body", truncate(string(body), 200))
	}
}

func displayNameText(name *localizedText) string {
	if name == nil {
		return ""
	}
	return name.Text
}

// cityFromAddress extracts the locality component from a formatted address.
// Addresses arrive as "street, city, region, country"; the second component
// is the locality often enough for cache-key purposes.
func cityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ Client = (*HTTPClient)(nil)
