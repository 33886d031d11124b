package location

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// Extraction methods recorded on LocationInfo.
const (
	MethodText     = "simple_database"
	MethodProvided = "provided"
	MethodGeocoded = "mapbox"
	MethodDefault  = "default"
)

const (
	maxAllLocations = 5
	sourceGeocoder  = "mapbox"
	sourceDefault   = "default"
)

// Resolver turns a report's text and optional provided location into a
// LocationInfo. It never fails: unresolved input maps to the focus city.
type Resolver struct {
	gazetteer *Gazetteer
	extractor *Extractor
	geocoder  domain.Geocoder
	focus     Place
	logger    *slog.Logger
}

// NewResolver creates a Resolver. focusCity must be in the gazetteer.
// geocoder may be nil.
func NewResolver(g *Gazetteer, geocoder domain.Geocoder, focusCity string, logger *slog.Logger) (*Resolver, error) {
	focus, ok := g.Lookup(focusCity)
	if !ok || !strings.EqualFold(focus.Name, strings.TrimSpace(focusCity)) {
		return nil, fmt.Errorf("focus city %q is not in the gazetteer: %w", focusCity, domain.ErrConfiguration)
	}
	return &Resolver{
		gazetteer: g,
		extractor: NewExtractor(g),
		geocoder:  geocoder,
		focus:     focus,
		logger:    logger,
	}, nil
}

// Focus returns the focus city.
func (r *Resolver) Focus() Place { return r.focus }

// FocusCoordinates returns the focus city's coordinates.
func (r *Resolver) FocusCoordinates() domain.Coordinates {
	return coordinates(r.focus, sourceDefault)
}

// Resolve locates a report. A non-blank provided location wins over text
// extraction.
func (r *Resolver) Resolve(ctx context.Context, text string, provided *string) domain.LocationInfo {
	if provided != nil && strings.TrimSpace(*provided) != "" {
		return r.resolveProvided(ctx, strings.TrimSpace(*provided))
	}

	primary, all, ok := r.extractor.Primary(text)
	if !ok {
		return r.Default()
	}
	names := make([]string, 0, min(len(all), maxAllLocations))
	for _, m := range all[:min(len(all), maxAllLocations)] {
		names = append(names, m.Name)
	}
	confidence := domain.LocationMedium
	if primary.Confidence > 0.8 {
		confidence = domain.LocationHigh
	}
	return domain.LocationInfo{
		Name:              primary.Name,
		ExtractedFromText: true,
		Coordinates:       coordinates(primary.Place, primary.Source),
		Confidence:        confidence,
		AllLocations:      names,
		ExtractionMethod:  MethodText,
	}
}

// Default returns the focus-city location used when nothing else resolves.
func (r *Resolver) Default() domain.LocationInfo {
	return domain.LocationInfo{
		Name:             r.focus.Name,
		Coordinates:      r.FocusCoordinates(),
		Confidence:       domain.LocationDefault,
		AllLocations:     []string{},
		ExtractionMethod: MethodDefault,
	}
}

func (r *Resolver) resolveProvided(ctx context.Context, name string) domain.LocationInfo {
	info := domain.LocationInfo{
		Name:         name,
		AllLocations: []string{name},
	}

	if p, ok := r.gazetteer.Lookup(name); ok {
		info.Coordinates = coordinates(p, sourceDatabase)
		info.Confidence = domain.LocationHigh
		info.ExtractionMethod = MethodProvided
		return info
	}

	if r.geocoder != nil {
		res, err := r.geocoder.ForwardGeocode(ctx, name, r.focus.Country)
		switch {
		case err != nil:
			r.logger.Warn("geocoding provided location failed, using focus city",
				"collaborator", "mapbox",
				"location", name,
				"error", err,
			)
		case !res.Empty():
			info.Coordinates = domain.Coordinates{
				Lat:     res.Lat,
				Lon:     res.Lon,
				State:   res.Region,
				Country: cmp.Or(res.Country, r.focus.Country),
				Source:  sourceGeocoder,
			}
			info.Confidence = domain.LocationGeocoded
			info.ExtractionMethod = MethodGeocoded
			return info
		}
	}

	info.Coordinates = r.FocusCoordinates()
	info.Confidence = domain.LocationProvided
	info.ExtractionMethod = MethodProvided
	return info
}

func coordinates(p Place, source string) domain.Coordinates {
	return domain.Coordinates{
		Lat:     p.Lat,
		Lon:     p.Lon,
		State:   p.State,
		Country: p.Country,
		Source:  source,
	}
}
