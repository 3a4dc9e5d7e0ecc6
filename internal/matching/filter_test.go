package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/pkg/geo"
)

func buffaloSpeaker() models.Speaker {
	return models.Speaker{
		ID:          "sp-buffalo",
		Name:        "Ada Rivers",
		City:        "Buffalo",
		State:       "NY",
		Industry:    []string{"Education"},
		Languages:   []string{"English"},
		InPerson:    true,
		Virtual:     false,
		Coordinates: &geo.Coordinates{Lat: 42.8864, Lng: -78.8784},
	}
}

func fixture() []models.Speaker {
	return []models.Speaker{
		buffaloSpeaker(),
		{
			ID:           "sp-nyc",
			Name:         "Marco Lind",
			Organization: "Hudson River Watch",
			Bio:          "Watershed restoration and urban ecology.",
			Location:     "Manhattan, New York",
			City:         "New York",
			State:        "NY",
			Industry:     []string{"Conservation", "Education"},
			Grades:       []string{"High School"},
			Languages:    []string{"English", "Spanish"},
			Virtual:      true,
			Coordinates:  &geo.Coordinates{Lat: 40.7128, Lng: -74.0060},
		},
		{
			ID:           "sp-unknown",
			Name:         "June Okafor",
			Organization: "Solar Schools Collective",
			Bio:          "Renewable energy for classrooms.",
			City:         "austin",
			State:        "tx",
			Industry:     []string{"Energy"},
			Grades:       []string{"Middle School", "High School"},
			Languages:    []string{"English"},
			InPerson:     true,
			Virtual:      true,
		},
		{
			ID:       "sp-empty",
			Name:     "Lee Park",
			City:     "Boise",
			State:    "ID",
			Industry: nil,
		},
	}
}

func ids(speakers []models.Speaker) []string {
	out := make([]string, 0, len(speakers))
	for _, s := range speakers {
		out = append(out, s.ID)
	}
	return out
}

func TestScenarioIndustryMatch(t *testing.T) {
	result := Filter([]models.Speaker{buffaloSpeaker()}, "", models.FilterState{Industry: []string{"Education"}})
	assert.Equal(t, []string{"sp-buffalo"}, ids(result))
}

func TestScenarioIndustryMismatch(t *testing.T) {
	result := Filter([]models.Speaker{buffaloSpeaker()}, "", models.FilterState{Industry: []string{"Technology"}})
	assert.Empty(t, result)
	assert.NotNil(t, result)
}

func TestScenarioVirtualOnly(t *testing.T) {
	result := Filter([]models.Speaker{buffaloSpeaker()}, "", models.FilterState{Formats: models.Formats{Virtual: true}})
	assert.Empty(t, result)
}

func TestScenarioRadiusExcludesFarSpeaker(t *testing.T) {
	result := Filter([]models.Speaker{buffaloSpeaker()}, "", models.FilterState{
		Radius:          10,
		UserCoordinates: &geo.Coordinates{Lat: 40.7128, Lng: -74.0060},
	})
	assert.Empty(t, result)

	result = Filter([]models.Speaker{buffaloSpeaker()}, "", models.FilterState{
		Radius:          300,
		UserCoordinates: &geo.Coordinates{Lat: 40.7128, Lng: -74.0060},
	})
	assert.Len(t, result, 1)
}

func TestRadiusInactiveWithoutCoordinatesOrRadius(t *testing.T) {
	all := fixture()
	assert.Len(t, Filter(all, "", models.FilterState{Radius: 1}), len(all))
	assert.Len(t, Filter(all, "", models.FilterState{UserCoordinates: &geo.Coordinates{Lat: 0, Lng: 0}}), len(all))
}

func TestRadiusKeepsUnknownLocation(t *testing.T) {
	for _, radius := range []float64{0.001, 1, 50, 5000} {
		result := Filter(fixture(), "", models.FilterState{
			Radius:          radius,
			UserCoordinates: &geo.Coordinates{Lat: -33.8688, Lng: 151.2093},
		})
		assert.Contains(t, ids(result), "sp-unknown")
		assert.Contains(t, ids(result), "sp-empty")
		assert.NotContains(t, ids(result), "sp-buffalo")
	}
}

func TestQueryMatchesAnyTextField(t *testing.T) {
	cases := map[string][]string{
		"ada":        {"sp-buffalo"},
		"  HUDSON  ": {"sp-nyc"},
		"renewable":  {"sp-unknown"},
		"manhattan":  {"sp-nyc"},
		"zzz":        {},
	}
	for q, want := range cases {
		assert.Equal(t, want, ids(Filter(fixture(), q, models.FilterState{})), q)
	}
}

func TestCityAndStateAreCaseInsensitiveEquality(t *testing.T) {
	assert.Equal(t, []string{"sp-unknown"}, ids(Filter(fixture(), "", models.FilterState{City: "AUSTIN"})))
	assert.Equal(t, []string{"sp-buffalo", "sp-nyc"}, ids(Filter(fixture(), "", models.FilterState{State: " ny "})))
	assert.Empty(t, Filter(fixture(), "", models.FilterState{City: "Buff"}))
}

func TestBlankStringsAreInactive(t *testing.T) {
	all := fixture()
	result := Filter(all, "   ", models.FilterState{City: " ", State: "\t"})
	assert.Equal(t, ids(all), ids(result))
	assert.False(t, Active("   ", models.FilterState{City: " ", Country: "US"}))
	assert.True(t, Active("", models.FilterState{Grades: []string{"Pre-K"}}))
}

func TestMultiValueGroupsAreOR(t *testing.T) {
	result := Filter(fixture(), "", models.FilterState{Industry: []string{"Energy", "Conservation"}})
	assert.Equal(t, []string{"sp-nyc", "sp-unknown"}, ids(result))

	result = Filter(fixture(), "", models.FilterState{Languages: []string{"Spanish", "Mandarin"}})
	assert.Equal(t, []string{"sp-nyc"}, ids(result))

	result = Filter(fixture(), "", models.FilterState{Grades: []string{"Middle School"}})
	assert.Equal(t, []string{"sp-unknown"}, ids(result))
}

func TestGroupsAreAND(t *testing.T) {
	result := Filter(fixture(), "", models.FilterState{
		Industry:  []string{"Education"},
		Languages: []string{"Spanish"},
	})
	assert.Equal(t, []string{"sp-nyc"}, ids(result))
}

func TestFormatRules(t *testing.T) {
	all := fixture()
	assert.Equal(t, []string{"sp-buffalo", "sp-unknown"}, ids(Filter(all, "", models.FilterState{Formats: models.Formats{InPerson: true}})))
	assert.Equal(t, []string{"sp-nyc", "sp-unknown"}, ids(Filter(all, "", models.FilterState{Formats: models.Formats{Virtual: true}})))
	assert.Equal(t, []string{"sp-buffalo", "sp-nyc", "sp-unknown"}, ids(Filter(all, "", models.FilterState{Formats: models.Formats{InPerson: true, Virtual: true}})))
}

func TestFormatIdentityWhenUnchecked(t *testing.T) {
	base := models.FilterState{Industry: []string{"Education"}, State: "NY"}
	withFormats := base
	withFormats.Formats = models.Formats{}
	assert.Equal(t, Filter(fixture(), "", base), Filter(fixture(), "", withFormats))
}

func TestCountryIsNotApplied(t *testing.T) {
	all := fixture()
	assert.Len(t, Filter(all, "", models.FilterState{Country: "Canada"}), len(all))
}

func TestIdempotent(t *testing.T) {
	all := fixture()
	f := models.FilterState{Industry: []string{"Education", "Energy"}, Formats: models.Formats{InPerson: true}}
	first := Filter(all, "o", f)
	second := Filter(all, "o", f)
	require.Equal(t, first, second)
}

func TestOrderPreservedAndInputUntouched(t *testing.T) {
	all := fixture()
	snapshot := fixture()
	result := Filter(all, "", models.FilterState{})
	assert.Equal(t, ids(all), ids(result))
	assert.Equal(t, snapshot, all)

	result[0].Name = "changed"
	assert.Equal(t, "Ada Rivers", all[0].Name)
}

func TestMonotonicNarrowing(t *testing.T) {
	all := fixture()
	origin := &geo.Coordinates{Lat: 40.7128, Lng: -74.0060}
	base := models.FilterState{}
	additions := []func(models.FilterState) models.FilterState{
		func(f models.FilterState) models.FilterState { f.Industry = []string{"Education"}; return f },
		func(f models.FilterState) models.FilterState { f.Grades = []string{"High School"}; return f },
		func(f models.FilterState) models.FilterState { f.City = "New York"; return f },
		func(f models.FilterState) models.FilterState { f.State = "NY"; return f },
		func(f models.FilterState) models.FilterState { f.Radius = 25; f.UserCoordinates = origin; return f },
		func(f models.FilterState) models.FilterState { f.Formats.Virtual = true; return f },
		func(f models.FilterState) models.FilterState { f.Languages = []string{"Spanish"}; return f },
	}

	current := base
	prev := len(Filter(all, "", current))
	for i, add := range additions {
		next := add(current)
		size := len(Filter(all, "", next))
		assert.LessOrEqual(t, size, prev, "adding criterion %d grew the result", i)
		assert.LessOrEqual(t, size, len(Filter(all, "", current)))
		current, prev = next, size
	}

	assert.LessOrEqual(t, len(Filter(all, "river", base)), len(all))
}

func TestMissingOptionalFieldsNeverPanic(t *testing.T) {
	speakers := []models.Speaker{{}, {ID: "x"}}
	assert.NotPanics(t, func() {
		Filter(speakers, "a", models.FilterState{
			Industry:        []string{"Education"},
			Grades:          []string{"Pre-K"},
			Languages:       []string{"English"},
			City:            "x",
			State:           "y",
			Radius:          10,
			UserCoordinates: &geo.Coordinates{},
			Formats:         models.Formats{InPerson: true, Virtual: true},
		})
	})
	assert.Empty(t, Filter(nil, "", models.FilterState{}))
}

func TestMatchesSingleSpeaker(t *testing.T) {
	assert.True(t, Matches(buffaloSpeaker(), "rivers", models.FilterState{State: "ny"}))
	assert.False(t, Matches(buffaloSpeaker(), "", models.FilterState{Languages: []string{"French"}}))
}
