package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"places-enricher/internal/places"
)

func TestBestCandidate(t *testing.T) {
	t.Run("exact name match wins", func(t *testing.T) {
		candidates := []places.Candidate{
			{ID: "a", DisplayName: "Boba Guys Express", FormattedAddress: "Cupertino, CA"},
			{ID: "b", DisplayName: "Boba Guys", FormattedAddress: "Cupertino, CA"},
		}
		best, ok := bestCandidate(candidates, "Boba Guys", "Cupertino")
		assert.True(t, ok)
		assert.Equal(t, "b", best.ID)
	})

	t.Run("containment match with city passes the threshold", func(t *testing.T) {
		candidates := []places.Candidate{
			{ID: "a", DisplayName: "Boba Guys Cupertino", FormattedAddress: "Main St, Cupertino, CA"},
		}
		_, ok := bestCandidate(candidates, "Boba Guys", "Cupertino")
		assert.True(t, ok)
	})

	t.Run("unrelated name is rejected", func(t *testing.T) {
		candidates := []places.Candidate{
			{ID: "a", DisplayName: "Golden Gate Hardware", FormattedAddress: "Elsewhere, NV"},
		}
		_, ok := bestCandidate(candidates, "Boba Guys", "Cupertino")
		assert.False(t, ok)
	})

	t.Run("candidates without an identifier are skipped", func(t *testing.T) {
		candidates := []places.Candidate{
			{ID: "", DisplayName: "Boba Guys", FormattedAddress: "Cupertino, CA"},
		}
		_, ok := bestCandidate(candidates, "Boba Guys", "Cupertino")
		assert.False(t, ok)
	})

	t.Run("empty candidate list", func(t *testing.T) {
		_, ok := bestCandidate(nil, "Boba Guys", "Cupertino")
		assert.False(t, ok)
	})

	t.Run("name match without city still qualifies", func(t *testing.T) {
		candidates := []places.Candidate{
			{ID: "a", DisplayName: "Boba Guys", FormattedAddress: "Somewhere, TX"},
		}
		_, ok := bestCandidate(candidates, "Boba Guys", "")
		assert.True(t, ok)
	})
}

func TestScoreCandidate(t *testing.T) {
	t.Run("exact match with city and id scores full marks", func(t *testing.T) {
		c := places.Candidate{ID: "a", DisplayName: "Boba Guys", FormattedAddress: "Cupertino, CA"}
		assert.InDelta(t, 1.0, scoreCandidate(c, "Boba Guys", "Cupertino"), 0.001)
	})

	t.Run("normalization makes matching case insensitive", func(t *testing.T) {
		c := places.Candidate{ID: "a", DisplayName: "BOBA  GUYS", FormattedAddress: "CUPERTINO, CA"}
		assert.InDelta(t, 1.0, scoreCandidate(c, "boba guys", "cupertino"), 0.001)
	})

	t.Run("no overlap scores below threshold", func(t *testing.T) {
		c := places.Candidate{ID: "a", DisplayName: "Hardware Depot", FormattedAddress: "Reno, NV"}
		assert.Less(t, scoreCandidate(c, "Boba Guys", "Cupertino"), minConfidence)
	})
}
