package enricher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "places-enricher/internal/common/errors"
	"places-enricher/internal/governor"
	"places-enricher/internal/models"
	"places-enricher/internal/places"
	"places-enricher/internal/store"
)

// fakeClient is a scripted lookup client. Every method counts its calls so
// tests can assert exactly how many network calls a scenario cost.
type fakeClient struct {
	mu sync.Mutex

	resolveCalls int
	detailCalls  int
	hoursCalls   int

	resolveDelay time.Duration

	candidates []places.Candidate
	resolveErr error
	details    *places.PlaceDetails
	detailsErr error
	hours      *places.HoursDetails
	hoursErr   error
}

func (f *fakeClient) ResolveIdentity(ctx context.Context, query string, bias places.GeoBias) ([]places.Candidate, error) {
	f.mu.Lock()
	f.resolveCalls++
	delay := f.resolveDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return f.candidates, f.resolveErr
}

func (f *fakeClient) FetchDetails(ctx context.Context, id string) (*places.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return f.details, f.detailsErr
}

func (f *fakeClient) FetchHours(ctx context.Context, id string) (*places.HoursDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hoursCalls++
	return f.hours, f.hoursErr
}

func (f *fakeClient) calls() (resolve, details, hours int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveCalls, f.detailCalls, f.hoursCalls
}

func bobaGuysClient() *fakeClient {
	return &fakeClient{
		candidates: []places.Candidate{
			{ID: "ChIJboba", DisplayName: "Boba Guys", FormattedAddress: "19620 Stevens Creek Blvd, Cupertino, CA"},
		},
		details: &places.PlaceDetails{
			ID:          "ChIJboba",
			DisplayName: "Boba Guys",
			City:        "Cupertino",
			Rating:      4.5,
			ReviewCount: 1200,
			MapsURI:     "https://maps.google.com/?cid=123",
		},
	}
}

func placePipeline(t *testing.T, client places.Client, maxCalls int) (*PlaceEnricher, *store.MemoryStore, *governor.Governor) {
	t.Helper()
	st := store.NewMemoryStore()
	gov := governor.New(governor.Config{
		Pipeline:     "place",
		MaxCalls:     maxCalls,
		Spacing:      time.Millisecond,
		CooldownDays: 7,
	}, st)
	return NewPlaceEnricher(st, client, gov, places.GeoBias{Lat: 37.3, Lng: -122.0, RadiusMeters: 25000}), st, gov
}

func TestPlaceEnricher_Enrich(t *testing.T) {
	ctx := context.Background()

	t.Run("resolve then fetch costs two calls and caches both keys", func(t *testing.T) {
		client := bobaGuysClient()
		e, st, _ := placePipeline(t, client, 2)

		record := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		require.NotNil(t, record)
		assert.Equal(t, "ChIJboba", record.ResolvedID)
		assert.Equal(t, "Boba Guys", record.Name)
		assert.Equal(t, 4.5, record.Rating)
		assert.False(t, record.UpdatedAt.IsZero())

		resolve, details, _ := client.calls()
		assert.Equal(t, 1, resolve)
		assert.Equal(t, 1, details)

		for _, key := range []string{
			"place_enrichment:place:ChIJboba",
			"place_enrichment:seed:boba guys|cupertino",
		} {
			_, found, err := st.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, found, "expected record under %s", key)
		}
	})

	t.Run("known identifier skips resolution", func(t *testing.T) {
		client := bobaGuysClient()
		e, st, _ := placePipeline(t, client, 2)

		record := e.Enrich(ctx, "Boba Guys", "Cupertino", "ChIJboba")
		require.NotNil(t, record)

		resolve, details, _ := client.calls()
		assert.Equal(t, 0, resolve)
		assert.Equal(t, 1, details)

		// No seed-key copy when the request already carried an identifier.
		_, found, err := st.Get(ctx, "place_enrichment:seed:boba guys|cupertino")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("cached record costs zero calls", func(t *testing.T) {
		client := bobaGuysClient()
		e, _, _ := placePipeline(t, client, 10)

		first := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		require.NotNil(t, first)

		second := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		require.NotNil(t, second)
		assert.Equal(t, first.ResolvedID, second.ResolvedID)

		resolve, details, _ := client.calls()
		assert.Equal(t, 1, resolve)
		assert.Equal(t, 1, details)
	})

	t.Run("budget exhausted means nil without any call", func(t *testing.T) {
		client := bobaGuysClient()
		e, st, gov := placePipeline(t, client, 1)

		// Spend the whole budget.
		require.NoError(t, gov.Acquire(ctx))

		record := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		assert.Nil(t, record)

		resolve, details, _ := client.calls()
		assert.Equal(t, 0, resolve)
		assert.Equal(t, 0, details)
		assert.Equal(t, 0, st.Len(), "no partial state is cached")
	})

	t.Run("budget spent mid-pipeline caches nothing", func(t *testing.T) {
		client := bobaGuysClient()
		e, st, _ := placePipeline(t, client, 1)

		record := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		assert.Nil(t, record)

		resolve, details, _ := client.calls()
		assert.Equal(t, 1, resolve, "resolution consumed the last budget slot")
		assert.Equal(t, 0, details)
		assert.Equal(t, 0, st.Len())
	})

	t.Run("quota error trips the cooldown", func(t *testing.T) {
		client := &fakeClient{resolveErr: apperrors.QuotaError("lookup service", 429)}
		e, _, gov := placePipeline(t, client, 10)

		assert.Nil(t, e.Enrich(ctx, "Boba Guys", "Cupertino", ""))
		assert.True(t, gov.InCooldown())

		// Subsequent requests are refused at the gate, not retried.
		assert.Nil(t, e.Enrich(ctx, "Philz Coffee", "Palo Alto", ""))
		resolve, _, _ := client.calls()
		assert.Equal(t, 1, resolve)
	})

	t.Run("non-quota failure does not trip the cooldown", func(t *testing.T) {
		client := &fakeClient{resolveErr: apperrors.InternalError("lookup call failed with status 500", nil)}
		e, _, gov := placePipeline(t, client, 10)

		assert.Nil(t, e.Enrich(ctx, "Boba Guys", "Cupertino", ""))
		assert.False(t, gov.InCooldown())
	})

	t.Run("no candidate above confidence means nil after one call", func(t *testing.T) {
		client := bobaGuysClient()
		client.candidates = []places.Candidate{
			{ID: "ChIJother", DisplayName: "Completely Different", FormattedAddress: "1 Main St, Elsewhere, NV"},
		}
		e, st, _ := placePipeline(t, client, 10)

		assert.Nil(t, e.Enrich(ctx, "Boba Guys", "Cupertino", ""))

		resolve, details, _ := client.calls()
		assert.Equal(t, 1, resolve)
		assert.Equal(t, 0, details)
		assert.Equal(t, 0, st.Len())
	})

	t.Run("concurrent requests for one key share one lookup", func(t *testing.T) {
		client := bobaGuysClient()
		client.resolveDelay = 50 * time.Millisecond
		e, _, _ := placePipeline(t, client, 10)

		const callers = 10
		results := make([]*models.EnrichedPlace, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = e.Enrich(ctx, "Boba Guys", "Cupertino", "")
			}(i)
		}
		wg.Wait()

		for i, record := range results {
			require.NotNil(t, record, "caller %d got nil", i)
			assert.Equal(t, "ChIJboba", record.ResolvedID)
		}

		resolve, details, _ := client.calls()
		assert.Equal(t, 1, resolve)
		assert.Equal(t, 1, details)
	})

	t.Run("lookup result fills in missing name and city", func(t *testing.T) {
		client := bobaGuysClient()
		client.details = &places.PlaceDetails{ID: "ChIJboba", Rating: 4.0}
		e, _, _ := placePipeline(t, client, 10)

		record := e.Enrich(ctx, "Boba Guys", "Cupertino", "")
		require.NotNil(t, record)
		assert.Equal(t, "Boba Guys", record.Name)
		assert.Equal(t, "Cupertino", record.City)
	})
}

func TestPlaceEnricher_Stats(t *testing.T) {
	client := bobaGuysClient()
	e, _, _ := placePipeline(t, client, 10)

	require.NotNil(t, e.Enrich(context.Background(), "Boba Guys", "Cupertino", ""))

	stats := e.Stats()
	assert.Equal(t, "place", stats.Pipeline)
	assert.Equal(t, 2, stats.CallsMade)
	assert.Equal(t, 10, stats.MaxCalls)
}
