package lexicon

import (
	"sync"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// Weight tiers for type-classification keywords.
const (
	WeightGeneric  = 0.10
	WeightStrong   = 0.25
	WeightDecisive = 0.30
)

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the built-in lexicon. The same value is returned on every
// call so its compiled matcher is built once per process.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		defaultLex = New("default", defaultCategories())
	})
	return defaultLex
}

func phrases(words ...string) []Entry {
	out := make([]Entry, len(words))
	for i, w := range words {
		out[i] = Entry{Phrase: w}
	}
	return out
}

func weighted(w float64, words ...string) []Entry {
	out := make([]Entry, len(words))
	for i, word := range words {
		out[i] = Entry{Phrase: word, Weight: w}
	}
	return out
}

func patterns(exprs ...string) []Entry {
	out := make([]Entry, len(exprs))
	for i, e := range exprs {
		out[i] = Entry{Pattern: e}
	}
	return out
}

func join(groups ...[]Entry) []Entry {
	var out []Entry
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func defaultCategories() map[string][]Entry {
	return map[string][]Entry{
		CategoryCrisis: phrases(
			"emergency", "disaster", "crisis", "alert", "warning", "urgent",
			"flood", "flooding", "waterlogging", "overflow", "deluge", "submerged", "monsoon",
			"heavy rain", "rainfall", "water level", "inundated",
			"fire", "blaze", "burning", "smoke", "arson", "incendiary", "inferno",
			"combustion", "flammable", "ignite", "ablaze",
			"chemical fire", "factory fire", "industrial fire",
			"earthquake", "quake", "tremor", "aftershock", "seismic", "epicenter",
			"magnitude", "shake", "shaking", "seismograph", "tremors felt", "seismic activity",
			"cyclone", "storm", "severe wind", "hurricane", "typhoon", "gale", "tempest",
			"whirlwind", "tornado", "supercell", "storm surge", "landfall", "coastal storm",
			"wind speed", "wind",
			"epidemic", "virus", "disease", "outbreak", "infect", "contagious",
			"pandemic", "illness", "sick", "plague",
			"evacuate", "help needed", "rescue", "trapped", "injured", "dead", "casualty",
			"damage", "destroyed", "stranded", "affected", "displaced", "collapsed",
			"broken", "damaged",
			"landslide", "mudslide", "rockslide", "avalanche", "debris flow", "mud flow",
			"rock fall", "hill collapse", "slope failure", "soil erosion", "mountain slide",
			"geological disaster",
			"rescuers", "recover bodies", "still missing", "casualties", "fatalities",
			"death toll", "victims", "buried",
		),
		CategoryNonCrisis: phrases(
			"normal", "routine", "planned", "regular", "daily operations", "scheduled",
			"maintenance", "standard procedure", "protocol", "inspection",
			"exercise", "drill", "test", "practice", "simulation", "mock", "rehearsal",
			"training", "scenario", "fire drill", "emergency drill",
			"workshop", "seminar", "conference", "webinar", "lecture", "class",
			"training session", "orientation", "presentation", "meeting",
			"team building", "discussion",
			"announcement", "notice", "update", "information", "bulletin", "report",
			"newsletter", "press release",
			"scheduled maintenance", "routine check", "planned outage", "community event",
			"social gathering", "awareness campaign",
		),
		CategoryStrongIndicators: phrases(
			"chemical fire", "factory fire", "industrial fire", "major fire",
			"earthquake magnitude", "magnitude", "epicenter", "seismic",
			"cyclone alert", "storm surge", "landfall", "wind speed",
			"urgent", "emergency", "breaking", "alert", "warning",
		),
		CategoryDisasterTerms: phrases(
			"landslide", "landslides", "earthquake", "earthquakes",
			"flood", "floods", "flooding", "flooded",
			"fire", "fires", "dead", "bodies",
		),
		CategoryRoutineContext: phrases(
			"drinking water", "water supply", "water treatment",
			"normal rainfall", "light rain", "drizzle",
			"campfire", "fireplace", "fire drill", "fire exercise",
			"practice drill", "training exercise", "mock drill",
		),
		CategoryWeakEvidence: phrases("water", "wind", "rain"),

		TypeCategory(domain.TypeFlood): join(
			weighted(WeightStrong, "flood"),
			weighted(WeightGeneric, "water"),
			weighted(0.15, "rain"),
			phrases("river"),
			weighted(WeightDecisive, "submerged"),
			phrases("drowned", "waterlogging", "overflow", "monsoon", "deluge"),
			weighted(WeightDecisive, "inundated"),
		),
		TypeCategory(domain.TypeFire): join(
			weighted(0.18, "fire"),
			phrases("blaze", "burn", "smoke"),
			weighted(WeightDecisive, "arson", "incendiary"),
			phrases("inferno", "combustion", "flammable", "ignite", "ablaze",
				"chemical", "factory", "toxic", "smoke spreading"),
		),
		TypeCategory(domain.TypeEarthquake): join(
			weighted(WeightStrong, "earthquake"),
			phrases("quake", "tremor", "seismic", "shake"),
			weighted(WeightDecisive, "epicenter", "magnitude", "aftershock"),
			phrases("seismograph", "tremors felt", "shaking", "seismic activity"),
		),
		TypeCategory(domain.TypeCyclone): join(
			weighted(WeightStrong, "cyclone"),
			weighted(0.18, "storm"),
			weighted(WeightGeneric, "wind"),
			phrases("hurricane", "typhoon", "gale", "tempest", "whirlwind", "tornado",
				"supercell", "storm surge", "landfall", "coastal storm", "wind speed"),
		),
		TypeCategory(domain.TypeEpidemic): join(
			weighted(WeightStrong, "epidemic"),
			phrases("virus", "disease", "outbreak", "infect"),
			weighted(WeightDecisive, "contagious"),
			phrases("pandemic", "illness", "sick", "plague"),
		),
		TypeCategory(domain.TypeFoodShortage): join(
			phrases("hunger"),
			weighted(WeightDecisive, "famine", "starvation"),
			phrases("food", "ration", "shortage", "scarcity", "malnutrition", "dearth"),
		),
		TypeCategory(domain.TypeLandslide): phrases(
			"landslide", "mudslide", "rockslide", "debris flow", "mud flow",
			"rock fall", "hill collapse", "slope failure", "mountain slide",
		),
		TypeCategory(domain.TypeDrought): join(
			phrases("drought", "dry spell", "parched", "crop failure", "water scarcity", "heatwave"),
			weighted(WeightGeneric, "heat"),
		),
		TypeCategory(domain.TypeStorm): phrases(
			"thunderstorm", "hailstorm", "lightning", "squall", "hail", "heavy winds",
		),
		TypeCategory(domain.TypeOutbreak): phrases(
			"cholera", "dengue", "malaria", "typhoid", "infection", "cases reported",
		),

		PhraseCategory(domain.TypeFlood): patterns(
			`heavy\s+rain`, `river\s+overflow`, `flash\s+flood`,
			`urban\s+flooding`, `water\s+level\s+rising`,
		),
		PhraseCategory(domain.TypeFire): patterns(
			`fire\s+broke\s+out`, `caught\s+fire`, `industrial\s+fire`,
			`forest\s+fire`, `building\s+fire`,
		),
		PhraseCategory(domain.TypeEarthquake): patterns(
			`earthquake\s+of`, `measuring\s+\d+\.?\d*`, `tremors\s+felt`, `seismic\s+activity`,
		),

		CategoryHumanImpact: phrases(
			"injured", "casualty", "casualties", "death", "deaths", "dead", "killed", "fatal",
			"people", "person", "persons", "family", "families", "children", "victim", "victims",
			"affected", "body", "bodies", "deceased", "loss of life", "lives lost",
			"stranded", "trapped", "missing", "hospitalized", "wounded",
		),
		CategoryGeographicScale: phrases(
			"area", "areas", "region", "regions", "city", "multiple", "widespread", "extensive",
			"several", "many", "whole", "entire", "across", "district", "districts",
			"province", "state", "country", "nationwide", "large scale",
		),
		CategoryInfrastructure: phrases(
			"building", "buildings", "road", "roads", "hospital", "hospitals", "school", "schools",
			"bridge", "bridges", "house", "houses", "shop", "shops", "market",
			"damage", "destroyed", "collapsed", "broken", "damaged", "displaced",
			"infrastructure", "property", "home", "homes", "structure", "facility",
			"power line", "power lines", "electricity", "water supply",
		),
		CategoryTemporalUrgency: phrases(
			"urgent", "immediate", "emergency", "evacuate", "evacuation",
			"now", "critical", "asap", "quick", "rush", "ongoing",
			"continue", "still", "yet", "remains", "persisting",
		),
		CategoryGeographicBreadth: join(
			weighted(WeightStrong, "entire", "whole", "country", "nationwide"),
			weighted(0.15, "multiple", "several", "across"),
		),
		CategoryCasualtyContext: phrases(
			"dead", "killed", "casualty", "casualties", "death", "deaths",
			"body", "bodies", "injured", "wounded", "hospitalized",
		),

		CategoryUrgency: join(
			weighted(0.9, "immediate", "urgent"),
			weighted(0.8, "emergency"),
			weighted(0.9, "evacuate now"),
			weighted(0.8, "critical"),
			weighted(0.85, "asap"),
			weighted(0.6, "quick", "rush"),
			weighted(0.7, "without delay", "right now"),
			weighted(0.4, "soon"),
			weighted(0.3, "pending"),
			weighted(0.2, "monitor"),
			weighted(0.7, "rescue"),
			weighted(0.85, "search and rescue"),
			weighted(0.8, "recover bodies"),
			weighted(0.75, "trapped"),
			weighted(0.6, "missing"),
			weighted(0.7, "rescuers"),
			weighted(0.8, "emergency response", "rescue operations"),
			weighted(0.7, "evacuation"),
			weighted(0.65, "still missing"),
			weighted(0.5, "ongoing"),
			weighted(0.4, "continue to"),
		),
		CategoryTimeIndicators: phrases(
			"minutes", "hours", "today", "tonight", "now",
			"immediately", "within", "by", "before", "after",
		),

		CategoryContextIndicators: phrases(
			"landslide", "earthquake", "flood", "fire", "missing",
			"dead", "injured", "collapsed", "damaged", "evacuated",
		),
	}
}
