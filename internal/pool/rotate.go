package pool

import "places-enricher/internal/models"

// DefaultBatchSize is how many places one "batch" of a pool shows.
const DefaultBatchSize = 5

// RotatePlaces returns the batch of count places selected by a cyclic left
// rotation of cursor positions. Pools no larger than count are returned
// unchanged regardless of cursor. The function is pure: the result depends
// only on (places, cursor, count), so repeated batches are reproducible and
// advancing the cursor by count each time cycles through the entire pool
// before repeating any item.
func RotatePlaces(placesList []models.CachedPlace, cursor, count int) []models.CachedPlace {
	if count <= 0 {
		count = DefaultBatchSize
	}

	n := len(placesList)
	if n <= count {
		return placesList
	}

	cursor = NormalizeCursor(cursor, n)

	rotated := make([]models.CachedPlace, 0, n)
	rotated = append(rotated, placesList[cursor:]...)
	rotated = append(rotated, placesList[:cursor]...)
	return rotated[:count]
}

// NormalizeCursor maps any cursor value into [0, poolSize).
func NormalizeCursor(cursor, poolSize int) int {
	if poolSize <= 0 {
		return 0
	}
	return ((cursor % poolSize) + poolSize) % poolSize
}
