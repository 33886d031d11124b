// Package location resolves the place a crisis report refers to.
//
// A static gazetteer of Indian cities and states covers the common case.
// Names missing from it can be resolved through an optional geocoder, and
// anything unresolved falls back to the focus city.
package location

import (
	"regexp"
	"strings"
	"sync"
)

// Kind is the administrative level of a Place.
type Kind string

const (
	KindCity    Kind = "city"
	KindState   Kind = "state"
	KindCountry Kind = "country"
)

// Place is a gazetteer entry.
type Place struct {
	Name    string
	Kind    Kind
	Lat     float64
	Lon     float64
	State   string
	Country string
}

var defaultPlaces = []Place{
	{Name: "Jamshedpur", Kind: KindCity, Lat: 22.8046, Lon: 86.2029, State: "Jharkhand"},
	{Name: "Ranchi", Kind: KindCity, Lat: 23.3441, Lon: 85.3096, State: "Jharkhand"},
	{Name: "Chennai", Kind: KindCity, Lat: 13.0827, Lon: 80.2707, State: "Tamil Nadu"},
	{Name: "Coimbatore", Kind: KindCity, Lat: 11.0168, Lon: 76.9558, State: "Tamil Nadu"},
	{Name: "Mumbai", Kind: KindCity, Lat: 19.0760, Lon: 72.8777, State: "Maharashtra"},
	{Name: "Pune", Kind: KindCity, Lat: 18.5204, Lon: 73.8567, State: "Maharashtra"},
	{Name: "Delhi", Kind: KindCity, Lat: 28.7041, Lon: 77.1025, State: "Delhi"},
	{Name: "Kolkata", Kind: KindCity, Lat: 22.5726, Lon: 88.3639, State: "West Bengal"},
	{Name: "Bangalore", Kind: KindCity, Lat: 12.9716, Lon: 77.5946, State: "Karnataka"},
	{Name: "Hyderabad", Kind: KindCity, Lat: 17.3850, Lon: 78.4867, State: "Telangana"},
	{Name: "Ahmedabad", Kind: KindCity, Lat: 23.0225, Lon: 72.5714, State: "Gujarat"},
	{Name: "Jaipur", Kind: KindCity, Lat: 26.9124, Lon: 75.7873, State: "Rajasthan"},
	{Name: "Lucknow", Kind: KindCity, Lat: 26.8467, Lon: 80.9462, State: "Uttar Pradesh"},
	{Name: "Patna", Kind: KindCity, Lat: 25.5941, Lon: 85.1376, State: "Bihar"},

	{Name: "Jharkhand", Kind: KindState, Lat: 23.6102, Lon: 85.2799, State: "Jharkhand"},
	{Name: "Tamil Nadu", Kind: KindState, Lat: 11.1271, Lon: 78.6569, State: "Tamil Nadu"},
	{Name: "Maharashtra", Kind: KindState, Lat: 19.7515, Lon: 75.7139, State: "Maharashtra"},
	{Name: "Himachal Pradesh", Kind: KindState, Lat: 31.1048, Lon: 77.1734, State: "Himachal Pradesh"},
	{Name: "Odisha", Kind: KindState, Lat: 20.9517, Lon: 85.0985, State: "Odisha"},
	{Name: "Gujarat", Kind: KindState, Lat: 22.2587, Lon: 71.1924, State: "Gujarat"},
	{Name: "Rajasthan", Kind: KindState, Lat: 27.0238, Lon: 74.2179, State: "Rajasthan"},
	{Name: "Uttar Pradesh", Kind: KindState, Lat: 26.8467, Lon: 80.9462, State: "Uttar Pradesh"},
	{Name: "Bihar", Kind: KindState, Lat: 25.0961, Lon: 85.3131, State: "Bihar"},
	{Name: "West Bengal", Kind: KindState, Lat: 22.9868, Lon: 87.8550, State: "West Bengal"},
	{Name: "Karnataka", Kind: KindState, Lat: 15.3173, Lon: 75.7139, State: "Karnataka"},
	{Name: "Telangana", Kind: KindState, Lat: 17.1232, Lon: 79.2088, State: "Telangana"},

	{Name: "India", Kind: KindCountry, Lat: 20.5937, Lon: 78.9629},
}

const defaultCountry = "India"

// Gazetteer is an immutable set of known places.
type Gazetteer struct {
	places []Place
	words  []*regexp.Regexp // word-boundary matcher per place, same order
}

var (
	defaultOnce sync.Once
	defaultGaz  *Gazetteer
)

// Default returns the built-in gazetteer.
func Default() *Gazetteer {
	defaultOnce.Do(func() {
		defaultGaz = NewGazetteer(defaultPlaces)
	})
	return defaultGaz
}

// NewGazetteer builds a Gazetteer. Places without a country get India.
func NewGazetteer(places []Place) *Gazetteer {
	g := &Gazetteer{
		places: make([]Place, len(places)),
		words:  make([]*regexp.Regexp, len(places)),
	}
	for i, p := range places {
		if p.Country == "" {
			p.Country = defaultCountry
		}
		g.places[i] = p
		g.words[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p.Name) + `\b`)
	}
	return g
}

// Places returns a copy of the gazetteer entries.
func (g *Gazetteer) Places() []Place {
	return append([]Place(nil), g.places...)
}

// Lookup finds the place named name, ignoring case. A name that is part of a
// known place name ("Tamil" for "Tamil Nadu") also matches.
func (g *Gazetteer) Lookup(name string) (Place, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Place{}, false
	}
	for _, p := range g.places {
		if strings.ToLower(p.Name) == needle {
			return p, true
		}
	}
	for _, p := range g.places {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, true
		}
	}
	return Place{}, false
}
