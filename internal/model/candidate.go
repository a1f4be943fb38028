package model

// Candidate is one gazetteer entry returned for a name query.
// Immutable; owned by the retriever for the duration of one call.
type Candidate struct {
	ID             string   `json:"id"`                        // Opaque per-query identifier the LLM selects by
	GeonameID      int64    `json:"geoname_id,omitempty"`
	WikidataID     string   `json:"wikidata_id,omitempty"`
	Title          string   `json:"title"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	FeatureClass   string   `json:"feature_class,omitempty"`   // GeoNames feature class (P, A, H, T, L, S)
	FeatureCode    string   `json:"feature_code,omitempty"`    // GeoNames feature code (PPL, ADM1, PCLI, ...)
	Country        string   `json:"country,omitempty"`
	Admin1         string   `json:"admin1,omitempty"`
	Admin2         string   `json:"admin2,omitempty"`
	Population     int64    `json:"population,omitempty"`
	AlternateNames []string `json:"alternate_names,omitempty"`
}

// NearbyPlace is a place within a radius of a coordinate, with distance.
type NearbyPlace struct {
	GeonameID  int64   `json:"geoname_id"`
	Title      string  `json:"title"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Country    string  `json:"country,omitempty"`
	Population int64   `json:"population,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

// GraphStatistics summarizes the gazetteer contents.
type GraphStatistics struct {
	TotalPlaces     int64 `json:"total_places"`
	Countries       int64 `json:"countries"`
	PopulatedPlaces int64 `json:"populated_places"`
}
