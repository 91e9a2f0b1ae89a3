package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "places-enricher/internal/common/errors"
	"places-enricher/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		_, err := NewHTTPClient(Config{})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("trims trailing slash from base URL", func(t *testing.T) {
		client, err := NewHTTPClient(Config{BaseURL: "https://example.com/", APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", client.baseURL)
	})
}

func TestHTTPClient_ResolveIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("sends query with bias and decodes candidates", func(t *testing.T) {
		var gotReq searchTextRequest
		var gotKey, gotMask string

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/places:searchText", r.URL.Path)
			gotKey = r.Header.Get("X-Goog-Api-Key")
			gotMask = r.Header.Get("X-Goog-FieldMask")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"places": []map[string]interface{}{
					{
						"id":               "ChIJboba",
						"displayName":      map[string]string{"text": "Boba Guys"},
						"formattedAddress": "19620 Stevens Creek Blvd, Cupertino, CA",
						"googleMapsUri":    "https://maps.google.com/?cid=123",
					},
				},
			})
		})

		candidates, err := client.ResolveIdentity(ctx, "Boba Guys Cupertino", GeoBias{Lat: 37.3, Lng: -122.0, RadiusMeters: 25000})
		require.NoError(t, err)

		assert.Equal(t, "test-key", gotKey)
		assert.Equal(t, searchFieldMask, gotMask)
		assert.Equal(t, "Boba Guys Cupertino", gotReq.TextQuery)
		require.NotNil(t, gotReq.LocationBias)
		assert.Equal(t, 25000.0, gotReq.LocationBias.Circle.Radius)

		require.Len(t, candidates, 1)
		assert.Equal(t, "ChIJboba", candidates[0].ID)
		assert.Equal(t, "Boba Guys", candidates[0].DisplayName)
	})

	t.Run("zero radius omits the bias", func(t *testing.T) {
		var gotReq searchTextRequest
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_ = json.NewEncoder(w).Encode(searchTextResponse{})
		})

		_, err := client.ResolveIdentity(ctx, "Boba Guys", GeoBias{})
		require.NoError(t, err)
		assert.Nil(t, gotReq.LocationBias)
	})

	t.Run("empty result set is not an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(searchTextResponse{})
		})

		candidates, err := client.ResolveIdentity(ctx, "nowhere", GeoBias{})
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestHTTPClient_FetchDetails(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/places/ChIJboba", r.URL.Path)
		assert.Equal(t, detailsFieldMask, r.Header.Get("X-Goog-FieldMask"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":               "ChIJboba",
			"displayName":      map[string]string{"text": "Boba Guys"},
			"formattedAddress": "19620 Stevens Creek Blvd, Cupertino, CA 95014",
			"rating":           4.5,
			"userRatingCount":  1200,
			"googleMapsUri":    "https://maps.google.com/?cid=123",
			"photos":           []map[string]string{{"name": "places/ChIJboba/photos/abc"}},
		})
	})

	details, err := client.FetchDetails(ctx, "ChIJboba")
	require.NoError(t, err)

	assert.Equal(t, "Boba Guys", details.DisplayName)
	assert.Equal(t, "Cupertino", details.City)
	assert.Equal(t, 4.5, details.Rating)
	assert.Equal(t, 1200, details.ReviewCount)
	require.NotNil(t, details.Photo)
	assert.Equal(t, models.PhotoKindName, details.Photo.Kind)
	assert.Equal(t, "places/ChIJboba/photos/abc", details.Photo.Value)
}

func TestHTTPClient_FetchHours(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes periods and weekday text", func(t *testing.T) {
		openNow := true
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, hoursFieldMask, r.Header.Get("X-Goog-FieldMask"))
			_ = json.NewEncoder(w).Encode(wirePlace{
				ID: "ChIJboba",
				RegularOpeningHours: &wireOpeningHours{
					OpenNow: &openNow,
					Periods: []wirePeriod{
						{
							Open:  wireTimePoint{Day: 5, Hour: 18},
							Close: &wireTimePoint{Day: 6, Hour: 2},
						},
					},
					WeekdayDescriptions: []string{"Friday: 6:00 PM – 2:00 AM"},
				},
			})
		})

		hours, err := client.FetchHours(ctx, "ChIJboba")
		require.NoError(t, err)

		require.Len(t, hours.Periods, 1)
		assert.Equal(t, 5, hours.Periods[0].Open.Day)
		require.NotNil(t, hours.Periods[0].Close)
		assert.Equal(t, 2, hours.Periods[0].Close.Hour)
		assert.Equal(t, []string{"Friday: 6:00 PM – 2:00 AM"}, hours.WeekdayText)
		require.NotNil(t, hours.OpenNow)
		assert.True(t, *hours.OpenNow)
	})

	t.Run("missing hours block is a not-found error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(wirePlace{ID: "ChIJboba"})
		})

		_, err := client.FetchHours(ctx, "ChIJboba")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}

func TestHTTPClient_StatusClassification(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		statusCode int
		wantQuota  bool
	}{
		{"429 is a quota signal", http.StatusTooManyRequests, true},
		{"403 is a quota signal", http.StatusForbidden, true},
		{"500 is not a quota signal", http.StatusInternalServerError, false},
		{"404 is not a quota signal", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			_, err := client.FetchDetails(ctx, "ChIJboba")
			require.Error(t, err)
			assert.Equal(t, tt.wantQuota, apperrors.IsQuota(err))
		})
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchDetails(ctx, "ChIJboba")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTimeout))
}

func TestCityFromAddress(t *testing.T) {
	tests := []struct {
		address  string
		expected string
	}{
		{"19620 Stevens Creek Blvd, Cupertino, CA 95014", "Cupertino"},
		{"Cupertino", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, cityFromAddress(tt.address))
	}
}
