package pool

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"places-enricher/internal/models"
)

func makePlaces(n int) []models.CachedPlace {
	placesList := make([]models.CachedPlace, n)
	for i := range placesList {
		placesList[i] = models.CachedPlace{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Place %d", i)}
	}
	return placesList
}

func ids(batch []models.CachedPlace) []string {
	out := make([]string, len(batch))
	for i, p := range batch {
		out[i] = p.ID
	}
	return out
}

func TestRotatePlaces(t *testing.T) {
	seven := makePlaces(7)

	t.Run("first batch from cursor zero", func(t *testing.T) {
		batch := RotatePlaces(seven, 0, 5)
		assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, ids(batch))
	})

	t.Run("second batch wraps around", func(t *testing.T) {
		batch := RotatePlaces(seven, 5, 5)
		assert.Equal(t, []string{"p5", "p6", "p0", "p1", "p2"}, ids(batch))
	})

	t.Run("cursor past pool size is normalized", func(t *testing.T) {
		batch := RotatePlaces(seven, 10, 5)
		assert.Equal(t, []string{"p3", "p4", "p5", "p6", "p0"}, ids(batch))
	})

	t.Run("pool no larger than batch is returned unchanged", func(t *testing.T) {
		three := makePlaces(3)
		batch := RotatePlaces(three, 2, 5)
		assert.Equal(t, []string{"p0", "p1", "p2"}, ids(batch))
	})

	t.Run("zero count uses default batch size", func(t *testing.T) {
		batch := RotatePlaces(seven, 0, 0)
		assert.Len(t, batch, DefaultBatchSize)
	})

	t.Run("empty pool", func(t *testing.T) {
		assert.Empty(t, RotatePlaces(nil, 0, 5))
	})

	t.Run("every place appears within two rotations", func(t *testing.T) {
		seen := make(map[string]bool)
		cursor := 0
		for i := 0; i < 2; i++ {
			for _, p := range RotatePlaces(seven, cursor, 5) {
				seen[p.ID] = true
			}
			cursor = NormalizeCursor(cursor+5, len(seven))
		}
		assert.Len(t, seen, 7)
	})

	t.Run("same cursor always yields the same batch", func(t *testing.T) {
		a := RotatePlaces(seven, 3, 5)
		b := RotatePlaces(seven, 3, 5)
		assert.Equal(t, ids(a), ids(b))
	})
}

func TestNormalizeCursor(t *testing.T) {
	assert.Equal(t, 3, NormalizeCursor(10, 7))
	assert.Equal(t, 0, NormalizeCursor(0, 7))
	assert.Equal(t, 0, NormalizeCursor(7, 7))
	assert.Equal(t, 4, NormalizeCursor(-3, 7))
	assert.Equal(t, 0, NormalizeCursor(5, 0))
}
