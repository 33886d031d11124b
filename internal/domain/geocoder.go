package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Region           string // enclosing state or province, when known
	Country          string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider returned no usable coordinates.
func (r GeocodingResult) Empty() bool {
	return r.Lat == 0 && r.Lon == 0
}

// Geocoder resolves place names that are missing from the built-in gazetteer.
type Geocoder interface {
	// ForwardGeocode converts a place name and optional region to coordinates.
	ForwardGeocode(ctx context.Context, name, region string) (GeocodingResult, error)
}
