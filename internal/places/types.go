package places

import "places-enricher/internal/models"

// GeoBias biases identity resolution toward a geographic center.
type GeoBias struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Candidate is one identity-resolution result.
type Candidate struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	FormattedAddress string `json:"formatted_address"`
	MapsURI          string `json:"maps_uri"`
}

// PlaceDetails is the detail-fetch result for one resolved place.
type PlaceDetails struct {
	ID               string           `json:"id"`
	DisplayName      string           `json:"display_name"`
	FormattedAddress string           `json:"formatted_address"`
	City             string           `json:"city"`
	Rating           float64          `json:"rating"`
	ReviewCount      int              `json:"review_count"`
	Photo            *models.PhotoRef `json:"photo,omitempty"`
	MapsURI          string           `json:"maps_uri"`
}

// HoursDetails is the opening-hours fetch result for one resolved place.
type HoursDetails struct {
	Periods     []models.Period `json:"periods"`
	WeekdayText []string        `json:"weekday_text,omitempty"`
	OpenNow     *bool           `json:"open_now,omitempty"`
}

// Wire shapes for the lookup service (v1 API).

type searchTextRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
	MaxResults   int           `json:"maxResultCount,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchTextResponse struct {
	Places []wirePlace `json:"places"`
}

type wirePlace struct {
	ID                  string            `json:"id"`
	DisplayName         *localizedText    `json:"displayName,omitempty"`
	FormattedAddress    string            `json:"formattedAddress,omitempty"`
	GoogleMapsURI       string            `json:"googleMapsUri,omitempty"`
	Rating              float64           `json:"rating,omitempty"`
	UserRatingCount     int               `json:"userRatingCount,omitempty"`
	Photos              []wirePhoto       `json:"photos,omitempty"`
	RegularOpeningHours *wireOpeningHours `json:"regularOpeningHours,omitempty"`
}

type localizedText struct {
	Text string `json:"text"`
}

type wirePhoto struct {
	Name string `json:"name"`
}

type wireOpeningHours struct {
	OpenNow             *bool        `json:"openNow,omitempty"`
	Periods             []wirePeriod `json:"periods,omitempty"`
	WeekdayDescriptions []string     `json:"weekdayDescriptions,omitempty"`
}

type wirePeriod struct {
	Open  wireTimePoint  `json:"open"`
	Close *wireTimePoint `json:"close,omitempty"`
}

type wireTimePoint struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}
