package enricher

import (
	"strings"

	"places-enricher/internal/models"
	"places-enricher/internal/places"
)

// minConfidence is the score below which a candidate is treated as
// unresolved. The exact weights carry no behavioral contract; only
// "best candidate above a minimum confidence, else unresolved" does.
const minConfidence = 0.5

// scoreCandidate rates how well a resolution candidate matches the requested
// name and city, on a containment heuristic over normalized strings.
func scoreCandidate(c places.Candidate, name, city string) float64 {
	wantName := models.Normalize(name)
	wantCity := models.Normalize(city)
	gotName := models.Normalize(c.DisplayName)
	gotAddr := models.Normalize(c.FormattedAddress)

	var score float64

	switch {
	case gotName == wantName:
		score += 0.6
	case gotName != "" && (strings.Contains(gotName, wantName) || strings.Contains(wantName, gotName)):
		score += 0.4
	}

	if wantCity != "" && (strings.Contains(gotAddr, wantCity) || strings.Contains(gotName, wantCity)) {
		score += 0.3
	}

	if c.ID != "" {
		score += 0.1
	}

	return score
}

// bestCandidate returns the highest-scoring candidate at or above the minimum
// confidence, or false when none qualifies.
func bestCandidate(candidates []places.Candidate, name, city string) (places.Candidate, bool) {
	var best places.Candidate
	bestScore := 0.0

	for _, c := range candidates {
		if c.ID == "" {
			continue
		}
		if score := scoreCandidate(c, name, city); score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < minConfidence {
		return places.Candidate{}, false
	}
	return best, true
}
