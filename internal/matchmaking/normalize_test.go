package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estia-crm/matchmaking/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestToNumber_AcceptedForms(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float64", 250000.0, 250000},
		{"int", 3, 3},
		{"int64", int64(42), 42},
		{"numeric string", "199.5", 199.5},
		{"padded string", "  120 ", 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumber(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestToNumber_MalformedReturnsNil(t *testing.T) {
	assert.Nil(t, ToNumber(nil))
	assert.Nil(t, ToNumber(""))
	assert.Nil(t, ToNumber("not-a-number"))
	assert.Nil(t, ToNumber([]string{"1"}))
}

func TestParseFloor_LiteralTable(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"Ground", 0},
		{"ground floor", 0},
		{"Ισόγειο", 0},
		{"Basement", -1},
		{"Υπόγειο", -1},
		{"Penthouse", 99},
		{"Ρετιρέ", 99},
		{"Mezzanine", 0.5},
		{"Ημιώροφος", 0.5},
		{"0.5", 0.5},
		{"3", 3},
		{"-2", -2},
		{"3rd", 3},
		{"2ος", 2},
		{"5th floor", 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFloor(tt.input)
			require.NotNil(t, got, "ParseFloor(%q) should parse", tt.input)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseFloor_UnrecognizedReturnsNil(t *testing.T) {
	assert.Nil(t, ParseFloor("garbage"))
	assert.Nil(t, ParseFloor(""))
	assert.Nil(t, ParseFloor("   "))
}

func TestNormalizeLocation_StripsAccentsAndTypeWords(t *testing.T) {
	assert.Equal(t, "κολωνακι", NormalizeLocation("Κολωνάκι"))
	assert.Equal(t, "athens", NormalizeLocation("City of Athens"))
	assert.Equal(t, "athens", NormalizeLocation("  ATHENS  "))
	assert.Equal(t, "γλυφαδασ", NormalizeLocation("Δήμος Γλυφάδας"))
}

func TestNormalizeLocation_GreekFinalSigma(t *testing.T) {
	// "ς" and "σ" fold to the same letter so inflected spellings compare equal.
	assert.Equal(t, NormalizeLocation("Γλυφάδας"), NormalizeLocation("γλυφαδασ"))
}

func TestNormalizeLocation_Idempotent(t *testing.T) {
	inputs := []string{
		"Κολωνάκι",
		"City of Athens",
		"Municipality of Piraeus",
		"  Mixed CASE  Area ",
		"",
	}
	for _, s := range inputs {
		once := NormalizeLocation(s)
		assert.Equal(t, once, NormalizeLocation(once), "normalizing %q twice must be stable", s)
	}
}

func TestPropertyLocations_DeduplicatesFallbackChain(t *testing.T) {
	p := models.PropertyForMatching{
		Area:         "Κολωνάκι",
		City:         "Athens",
		Municipality: "City of Athens",
		State:        "Attica",
	}

	locations := PropertyLocations(p)
	assert.Equal(t, []string{"κολωνακι", "athens", "attica"}, locations)
}

func TestParseAreasOfInterest_ThreeEncodings(t *testing.T) {
	want := []string{"κολωνακι", "γλυφαδα"}

	assert.Equal(t, want, ParseAreasOfInterest([]string{"Κολωνάκι", "Γλυφάδα"}))
	assert.Equal(t, want, ParseAreasOfInterest(`["Κολωνάκι","Γλυφάδα"]`))
	assert.Equal(t, want, ParseAreasOfInterest("Κολωνάκι, Γλυφάδα"))
}

func TestParseAreasOfInterest_MalformedJSONFallsBackToCommaSplit(t *testing.T) {
	got := ParseAreasOfInterest(`["Κολωνάκι", broken`)
	assert.Equal(t, []string{"[\"κολωνακι\"", "broken"}, got)
}

func TestParseAreasOfInterest_EmptyInputs(t *testing.T) {
	assert.Nil(t, ParseAreasOfInterest(nil))
	assert.Empty(t, ParseAreasOfInterest(""))
	assert.Empty(t, ParseAreasOfInterest([]string{"", "  "}))
}

func TestNormalizeAmenityKey_CanonicalForms(t *testing.T) {
	want := NormalizeAmenityKey("Swimming Pool")
	assert.Equal(t, "swimming_pool", want)
	assert.Equal(t, want, NormalizeAmenityKey("swimming-pool"))
	assert.Equal(t, want, NormalizeAmenityKey("SWIMMING_POOL"))
	assert.Equal(t, want, NormalizeAmenityKey("  swimming   pool!  "))
}

func TestExtractPropertyAmenities_ArrayAndObjectForms(t *testing.T) {
	fromArray := ExtractPropertyAmenities([]string{"Swimming Pool", "Garden"})
	fromMap := ExtractPropertyAmenities(map[string]any{
		"swimming_pool": true,
		"garden":        "yes",
		"storage":       false,
	})

	assert.Equal(t, fromArray, fromMap)
	assert.Contains(t, fromArray, "swimming_pool")
	assert.Contains(t, fromArray, "garden")
	assert.NotContains(t, fromMap, "storage")
}

func TestIsPriceInBudget_ToleranceSymmetry(t *testing.T) {
	min := f64(200000)
	max := f64(300000)

	assert.True(t, IsPriceInBudget(314999, min, max, 5))
	assert.True(t, IsPriceInBudget(315000, min, max, 5))
	assert.False(t, IsPriceInBudget(315001, min, max, 5))

	assert.True(t, IsPriceInBudget(190000, min, max, 5))
	assert.False(t, IsPriceInBudget(189999, min, max, 5))
}

func TestIsPriceInBudget_OpenBounds(t *testing.T) {
	assert.True(t, IsPriceInBudget(1, nil, nil, 0), "no bounds means any price is in budget")
	assert.True(t, IsPriceInBudget(50000, nil, f64(300000), 0))
	assert.False(t, IsPriceInBudget(350000, nil, f64(300000), 0))
}

func TestPropertySizeSqm_UnitFallbackChain(t *testing.T) {
	net := models.PropertyForMatching{NetSqm: f64(90), GrossSqm: f64(110)}
	require.NotNil(t, PropertySizeSqm(net))
	assert.Equal(t, 90.0, *PropertySizeSqm(net))

	gross := models.PropertyForMatching{GrossSqm: f64(110)}
	assert.Equal(t, 110.0, *PropertySizeSqm(gross))

	sqft := models.PropertyForMatching{SquareFeet: f64(1000)}
	require.NotNil(t, PropertySizeSqm(sqft))
	assert.InDelta(t, 92.903, *PropertySizeSqm(sqft), 0.001)

	assert.Nil(t, PropertySizeSqm(models.PropertyForMatching{}))
}

func TestNormalizeFurnished_SpellingVariants(t *testing.T) {
	assert.Equal(t, FurnishedFull, NormalizeFurnished("Fully Furnished"))
	assert.Equal(t, FurnishedFull, NormalizeFurnished("Επιπλωμένο"))
	assert.Equal(t, FurnishedPartial, NormalizeFurnished("semi_furnished"))
	assert.Equal(t, FurnishedNone, NormalizeFurnished("NO"))
}

func TestNormalizeHeating_SpellingVariants(t *testing.T) {
	assert.Equal(t, "central", NormalizeHeating("Κεντρική Θέρμανση"))
	assert.Equal(t, "autonomous", NormalizeHeating("Independent"))
	assert.Equal(t, "heat_pump", NormalizeHeating("Air-Conditioning"))
	assert.Equal(t, "gas", NormalizeHeating("natural_gas"))
}

func TestNormalizeEnergyClass_GreekLetters(t *testing.T) {
	assert.Equal(t, "a+", NormalizeEnergyClass("Α+"))
	assert.Equal(t, "b", NormalizeEnergyClass("Β"))
	assert.Equal(t, "c", NormalizeEnergyClass("γ"))
}

func TestEnumNormalizers_UnrecognizedPassesThrough(t *testing.T) {
	// Unknown spellings survive in folded form so a direct comparison between
	// client and property values still works.
	assert.Equal(t, "geothermal", NormalizeHeating("Geothermal"))
	assert.Equal(t, NormalizeCondition("Custom State"), NormalizeCondition("custom state"))
}
