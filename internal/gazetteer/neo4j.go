package gazetteer

import (
	"context"
	"fmt"
	"math"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ossgeo/geoparse/internal/model"
)

// Graph is a Neo4j-backed gazetteer holding GeoNames/Wikidata linked
// places. Candidate ranking is population-descending, which front-loads
// the interpretations a reader would usually mean.
type Graph struct {
	driver neo4j.DriverWithContext
}

// NewGraph connects to the Neo4j gazetteer.
func NewGraph(uri, user, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	return &Graph{driver: driver}, nil
}

// Close releases the driver's connection pool.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// Candidates returns up to limit places matching the toponym,
// population-descending. Name matching is case-variant and includes
// alternate name forms.
func (g *Graph) Candidates(ctx context.Context, toponym string, limit int) ([]model.Candidate, error) {
	return g.CandidatesFiltered(ctx, toponym, limit, Query{})
}

// CandidatesFiltered is Candidates with optional country and
// feature-class narrowing.
func (g *Graph) CandidatesFiltered(ctx context.Context, toponym string, limit int, q Query) ([]model.Candidate, error) {
	normalized := NormalizeToponym(toponym)
	title, upper, lower := caseVariants(normalized)

	filter := ""
	params := map[string]any{
		"title": title,
		"upper": upper,
		"lower": lower,
		"limit": limit,
	}
	if q.Country != "" {
		filter += " AND p.countryCode = $country"
		params["country"] = q.Country
	}
	if q.FeatureClass != "" {
		filter += " AND p.featureClass = $featureClass"
		params["featureClass"] = q.FeatureClass
	}

	query := fmt.Sprintf(`
		MATCH (p:Place)
		WHERE (p.name IN [$title, $upper, $lower]
		   OR p.asciiName IN [$title, $upper, $lower]
		   OR $title IN p.alternateNames
		   OR $upper IN p.alternateNames
		   OR $lower IN p.alternateNames)
		%s
		WITH p, COALESCE(p.population, 0) AS pop
		RETURN p.geonameId AS geonameId,
		       p.wikidataId AS wikidataId,
		       p.name AS title,
		       p.alternateNames AS alternateNames,
		       p.latitude AS lat,
		       p.longitude AS lon,
		       p.featureClass AS featureClass,
		       p.featureCode AS featureCode,
		       p.countryCode AS country,
		       p.admin1Code AS admin1,
		       p.admin2Code AS admin2,
		       pop AS population
		ORDER BY pop DESC
		LIMIT $limit`, filter)

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("candidate query for %q: %w", toponym, err)
	}

	var candidates []model.Candidate
	for result.Next(ctx) {
		record := result.Record()
		candidates = append(candidates, candidateFromRecord(record, len(candidates)))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("candidate query for %q: %w", toponym, err)
	}

	return candidates, nil
}

// PlaceByGeonameID retrieves a single place, or nil when absent.
func (g *Graph) PlaceByGeonameID(ctx context.Context, geonameID int64) (*model.Candidate, error) {
	query := `
		MATCH (p:Place {geonameId: $geonameId})
		RETURN p.geonameId AS geonameId,
		       p.wikidataId AS wikidataId,
		       p.name AS title,
		       p.alternateNames AS alternateNames,
		       p.latitude AS lat,
		       p.longitude AS lon,
		       p.featureClass AS featureClass,
		       p.featureCode AS featureCode,
		       p.countryCode AS country,
		       p.admin1Code AS admin1,
		       p.admin2Code AS admin2,
		       p.population AS population`

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, map[string]any{"geonameId": geonameID})
	if err != nil {
		return nil, fmt.Errorf("place lookup %d: %w", geonameID, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, nil // Not found
	}

	candidate := candidateFromRecord(record, 0)
	return &candidate, nil
}

// Nearby finds places within radiusKm of a coordinate, nearest first.
func (g *Graph) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]model.NearbyPlace, error) {
	// Bounding box pre-filter before the exact distance check.
	// One degree of latitude is about 111 km; longitude degrees shrink
	// with the cosine of the latitude.
	latOffset := radiusKm / 111.0
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonOffset := radiusKm / (111.0 * cosLat)

	query := `
		MATCH (p:Place)
		WHERE p.latitude >= $minLat AND p.latitude <= $maxLat
		  AND p.longitude >= $minLon AND p.longitude <= $maxLon
		WITH p,
		     point({latitude: $lat, longitude: $lon}) AS searchPoint,
		     point({latitude: p.latitude, longitude: p.longitude}) AS placePoint
		WITH p, point.distance(searchPoint, placePoint) / 1000.0 AS distanceKm
		WHERE distanceKm <= $radius
		RETURN p.geonameId AS geonameId,
		       p.name AS title,
		       p.latitude AS lat,
		       p.longitude AS lon,
		       p.countryCode AS country,
		       p.population AS population,
		       distanceKm
		ORDER BY distanceKm ASC
		LIMIT $limit`

	params := map[string]any{
		"lat":    lat,
		"lon":    lon,
		"minLat": lat - latOffset,
		"maxLat": lat + latOffset,
		"minLon": lon - lonOffset,
		"maxLon": lon + lonOffset,
		"radius": radiusKm,
		"limit":  limit,
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("nearby query: %w", err)
	}

	var places []model.NearbyPlace
	for result.Next(ctx) {
		record := result.Record()
		places = append(places, model.NearbyPlace{
			GeonameID:  int64Value(record, "geonameId"),
			Title:      stringValue(record, "title"),
			Lat:        floatValue(record, "lat"),
			Lon:        floatValue(record, "lon"),
			Country:    stringValue(record, "country"),
			Population: int64Value(record, "population"),
			DistanceKm: floatValue(record, "distanceKm"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("nearby query: %w", err)
	}

	return places, nil
}

// Statistics summarizes the gazetteer contents.
func (g *Graph) Statistics(ctx context.Context) (*model.GraphStatistics, error) {
	query := `
		MATCH (p:Place)
		RETURN count(p) AS totalPlaces,
		       count(DISTINCT p.countryCode) AS countries,
		       sum(CASE WHEN p.featureClass = 'P' THEN 1 ELSE 0 END) AS populatedPlaces`

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("statistics query: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics query: %w", err)
	}

	return &model.GraphStatistics{
		TotalPlaces:     int64Value(record, "totalPlaces"),
		Countries:       int64Value(record, "countries"),
		PopulatedPlaces: int64Value(record, "populatedPlaces"),
	}, nil
}

// candidateFromRecord maps a query row to a Candidate. The ID is the
// row index: a short, per-query handle the LLM can echo back reliably.
func candidateFromRecord(record *neo4j.Record, index int) model.Candidate {
	return model.Candidate{
		ID:             fmt.Sprintf("c%d", index),
		GeonameID:      int64Value(record, "geonameId"),
		WikidataID:     stringValue(record, "wikidataId"),
		Title:          stringValue(record, "title"),
		Lat:            floatValue(record, "lat"),
		Lon:            floatValue(record, "lon"),
		FeatureClass:   stringValue(record, "featureClass"),
		FeatureCode:    stringValue(record, "featureCode"),
		Country:        stringValue(record, "country"),
		Admin1:         stringValue(record, "admin1"),
		Admin2:         stringValue(record, "admin2"),
		Population:     int64Value(record, "population"),
		AlternateNames: stringSliceValue(record, "alternateNames"),
	}
}

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func int64Value(record *neo4j.Record, key string) int64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		}
	}
	return 0
}

func floatValue(record *neo4j.Record, key string) float64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func stringSliceValue(record *neo4j.Record, key string) []string {
	v, ok := record.Get(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			names = append(names, s)
		}
	}
	return names
}
