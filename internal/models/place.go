package models

import "time"

// PhotoKind identifies which flavor of photo reference a record carries.
type PhotoKind string

const (
	// PhotoKindName is a proxyable photo resource name from the current API.
	PhotoKindName PhotoKind = "name"
	// PhotoKindReference is a legacy photo reference token.
	PhotoKindReference PhotoKind = "reference"
	// PhotoKindURL is a direct image URL.
	PhotoKindURL PhotoKind = "url"
)

// PhotoRef points at a place photo in one of the three representations the
// upstream data sources use.
type PhotoRef struct {
	Kind  PhotoKind `json:"kind"`
	Value string    `json:"value"`
}

// EnrichedPlace is the authoritative metadata overlay written by the place
// enricher after a successful two-stage lookup. Records are replaced
// wholesale on re-enrichment and never partially mutated.
type EnrichedPlace struct {
	Key         string    `json:"key"`
	ResolvedID  string    `json:"resolved_id,omitempty"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Rating      float64   `json:"rating"`       // 0 if unknown
	ReviewCount int       `json:"review_count"` // 0 if unknown
	Photo       *PhotoRef `json:"photo,omitempty"`
	MapURL      string    `json:"map_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
