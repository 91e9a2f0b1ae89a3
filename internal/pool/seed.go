package pool

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"places-enricher/internal/common/errors"
	"places-enricher/internal/models"
)

//go:embed seeds/*.json
var seedFS embed.FS

// seedFile is the on-disk shape of one bundled seed dataset. A file can merge
// several curated lists; lower priority numbers win dedupe conflicts.
type seedFile struct {
	Category string       `json:"category"`
	Sources  []seedSource `json:"sources"`
}

type seedSource struct {
	Category string      `json:"category"`
	Priority int         `json:"priority"`
	Places   []seedPlace `json:"places"`
}

// seedPlace tolerates the loose hand-curated format: entries may lack an ID,
// may carry either a canonical maps URL or only a search URL, and may omit
// ratings entirely.
type seedPlace struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	City        string  `json:"city,omitempty"`
	Address     string  `json:"address,omitempty"`
	MapsURL     string  `json:"maps_url,omitempty"`
	SearchURL   string  `json:"search_url,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
}

// LoadSeedFile returns the bundled places for a category, deduplicated and
// converted to the stored pool shape. Categories without a bundled file
// return a not-found error.
func LoadSeedFile(category string) ([]models.CachedPlace, error) {
	name := fmt.Sprintf("seeds/%s.json", models.Normalize(category))
	raw, err := seedFS.ReadFile(name)
	if err != nil {
		return nil, errors.NotFoundError(fmt.Sprintf("seed data for category %q", category))
	}

	var file seedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.InternalError(fmt.Sprintf("corrupt seed file %s", name), err)
	}

	// Stable order: priority first, then source order within a file.
	sort.SliceStable(file.Sources, func(i, j int) bool {
		return file.Sources[i].Priority < file.Sources[j].Priority
	})

	seen := make(map[string]bool)
	var places []models.CachedPlace
	for _, src := range file.Sources {
		for _, entry := range src.Places {
			if entry.Name == "" {
				continue
			}
			dedupeKey := models.Normalize(entry.Name) + "|" + models.Normalize(entry.City)
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true
			places = append(places, convertSeedPlace(entry, firstNonEmpty(src.Category, file.Category)))
		}
	}
	return places, nil
}

// SeedCategories lists the categories that ship with bundled data.
func SeedCategories() []string {
	entries, err := seedFS.ReadDir("seeds")
	if err != nil {
		return nil
	}
	categories := make([]string, 0, len(entries))
	for _, entry := range entries {
		categories = append(categories, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(categories)
	return categories
}

func convertSeedPlace(entry seedPlace, category string) models.CachedPlace {
	mapURL := entry.MapsURL
	if mapURL == "" {
		mapURL = entry.SearchURL
	}

	id := entry.ID
	if id == "" {
		id = syntheticSeedID(category, entry.Name)
	}

	return models.CachedPlace{
		ID:          id,
		Name:        entry.Name,
		City:        entry.City,
		Rating:      entry.Rating,
		ReviewCount: entry.ReviewCount,
		Address:     entry.Address,
		MapURL:      mapURL,
		MapsType:    mapsType(mapURL),
		Lat:         entry.Lat,
		Lng:         entry.Lng,
	}
}

// mapsType distinguishes a canonical place page from a plain search link so
// the UI knows whether the URL identifies one establishment.
func mapsType(mapURL string) string {
	if mapURL == "" {
		return ""
	}
	if strings.Contains(mapURL, "/maps/place/") || strings.Contains(mapURL, "query_place_id=") {
		return "place"
	}
	return "search"
}

// syntheticSeedID builds a stable identifier for seed entries that never went
// through live resolution. The "seed-" prefix keeps them from colliding with
// real resolved identifiers.
func syntheticSeedID(category, name string) string {
	slug := strings.ReplaceAll(models.Normalize(name), " ", "-")
	return fmt.Sprintf("seed-%s-%s", models.Normalize(category), slug)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
