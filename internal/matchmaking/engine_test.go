package matchmaking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estia-crm/matchmaking/internal/models"
)

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestResolveWeights_DefaultsWhenEmpty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage("")} {
		weights, err := ResolveWeights(raw)
		require.NoError(t, err)
		assert.Equal(t, DefaultWeights(), weights)
	}
}

func TestResolveWeights_MergesOverrides(t *testing.T) {
	weights, err := ResolveWeights(json.RawMessage(`{"budget": 30, "parking": 0}`))
	require.NoError(t, err)

	assert.Equal(t, 30.0, weights[CriterionBudget])
	assert.Equal(t, 0.0, weights[CriterionParking])
	assert.Equal(t, DefaultWeights()[CriterionLocation], weights[CriterionLocation])
}

func TestResolveWeights_RejectsUnknownCriterion(t *testing.T) {
	_, err := ResolveWeights(json.RawMessage(`{"charisma": 10}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown criterion")
}

func TestResolveWeights_RejectsNegativeWeight(t *testing.T) {
	_, err := ResolveWeights(json.RawMessage(`{"budget": -1}`))
	require.Error(t, err)
}

func TestResolveWeights_RejectsMalformedJSON(t *testing.T) {
	_, err := ResolveWeights(json.RawMessage(`{`))
	require.Error(t, err)
}

func TestMatch_RequiresIDs(t *testing.T) {
	engine := NewEngine(nil, 5)

	_, err := engine.Match(models.ClientForMatching{}, models.PropertyForMatching{ID: "p1"})
	require.Error(t, err)

	_, err = engine.Match(models.ClientForMatching{ID: "c1"}, models.PropertyForMatching{})
	require.Error(t, err)
}

func TestMatch_NoPreferencesScoresNeutral(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	result, err := engine.Match(
		models.ClientForMatching{ID: "c1"},
		models.PropertyForMatching{ID: "p1", Price: f64(250000), Area: "Κολωνάκι"},
	)
	require.NoError(t, err)

	assert.Equal(t, neutralScore, result.OverallScore)
	assert.Empty(t, result.Breakdown)
	assert.Zero(t, result.TotalCriteria)
}

func TestMatch_RenormalizesWeightsOverApplicableSubset(t *testing.T) {
	// Budget and location carry equal default weight. With one at 100 and the
	// other at 0 and nothing else applicable, the overall must land at 50
	// regardless of how much of the full weight table those two cover.
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	client := models.ClientForMatching{
		ID:              "c1",
		BudgetMin:       f64(100000),
		BudgetMax:       f64(200000),
		AreasOfInterest: []string{"Κολωνάκι"},
	}
	property := models.PropertyForMatching{
		ID:    "p1",
		Price: f64(150000),
		Area:  "Παγκράτι",
	}

	result, err := engine.Match(client, property)
	require.NoError(t, err)

	assert.Equal(t, 50, result.OverallScore)
	require.Len(t, result.Breakdown, 2)

	var weightSum float64
	for _, cs := range result.Breakdown {
		weightSum += cs.Weight
		assert.InDelta(t, 0.5, cs.Weight, 1e-9)
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)
	assert.Equal(t, 1, result.MatchedCriteria)
	assert.Equal(t, 2, result.TotalCriteria)
}

func TestMatch_GreekClientPerfectMatch(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	client := models.ClientForMatching{
		ID:              "c1",
		BudgetMin:       f64(200000),
		BudgetMax:       f64(300000),
		AreasOfInterest: []string{"Κολωνάκι"},
		Preferences:     &models.ClientPropertyPreferences{BedroomsMin: i(2)},
	}
	property := models.PropertyForMatching{
		ID:       "p1",
		Price:    f64(250000),
		Area:     "κολωνακι",
		Bedrooms: i(3),
	}

	result, err := engine.Match(client, property)
	require.NoError(t, err)

	assert.Equal(t, 100, result.OverallScore)
	assert.Equal(t, 3, result.TotalCriteria)
	assert.Equal(t, result.TotalCriteria, result.MatchedCriteria)
}

func TestMatch_HardRequirementSinksCriterion(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	client := models.ClientForMatching{
		ID:          "c1",
		Preferences: &models.ClientPropertyPreferences{RequiresElevator: b(true)},
	}
	property := models.PropertyForMatching{ID: "p1", HasElevator: b(false)}

	result, err := engine.Match(client, property)
	require.NoError(t, err)

	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, CriterionElevator, result.Breakdown[0].Criterion)
	assert.Equal(t, 0.0, result.Breakdown[0].Score)
	assert.False(t, result.Breakdown[0].Matched)
	assert.Equal(t, 0, result.OverallScore)
}

func TestMatch_BreakdownContributionsSumToOverall(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	client := models.ClientForMatching{
		ID:              "c1",
		Intent:          "BUY",
		BudgetMin:       f64(150000),
		BudgetMax:       f64(250000),
		AreasOfInterest: []string{"Γλυφάδα"},
		Preferences: &models.ClientPropertyPreferences{
			PropertyTypes:      []string{"apartment"},
			BedroomsMin:        i(2),
			BedroomsMax:        i(3),
			SizeMinSqm:         f64(80),
			RequiresParking:    b(true),
			RequiredAmenities:  []string{"elevator"},
			PreferredAmenities: []string{"garden"},
		},
	}
	property := models.PropertyForMatching{
		ID:              "p1",
		Price:           f64(240000),
		Type:            "Apartment",
		TransactionType: "SALE",
		Area:            "Γλυφάδα",
		Bedrooms:        i(2),
		NetSqm:          f64(85),
		HasParking:      b(true),
		Amenities:       []string{"elevator"},
	}

	result, err := engine.Match(client, property)
	require.NoError(t, err)

	var sum float64
	for _, cs := range result.Breakdown {
		assert.InDelta(t, cs.Score*cs.Weight, cs.WeightedScore, 1e-9)
		sum += cs.WeightedScore
	}
	assert.InDelta(t, float64(result.OverallScore), sum, 0.5)
	assert.Equal(t, len(result.Breakdown), result.TotalCriteria)
}

func TestMatch_CustomWeightsShiftOutcome(t *testing.T) {
	client := models.ClientForMatching{
		ID:              "c1",
		BudgetMax:       f64(100000),
		AreasOfInterest: []string{"Athens"},
	}
	// In budget but in the wrong area.
	property := models.PropertyForMatching{ID: "p1", Price: f64(90000), Area: "Patras"}

	balanced, err := NewEngine(nil, 5).Match(client, property)
	require.NoError(t, err)

	locationHeavy, err := NewEngine(Weights{
		CriterionBudget:   10,
		CriterionLocation: 90,
	}, 5).Match(client, property)
	require.NoError(t, err)

	assert.Equal(t, 50, balanced.OverallScore)
	assert.Equal(t, 10, locationHeavy.OverallScore)
}

func TestMatch_DeterministicForEqualInputs(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	client := models.ClientForMatching{
		ID:              "c1",
		Intent:          "RENT",
		BudgetMax:       f64(1200),
		AreasOfInterest: "Παγκράτι, Κολωνάκι",
		Preferences: &models.ClientPropertyPreferences{
			BedroomsMin:  i(1),
			HeatingTypes: []string{"autonomous"},
		},
	}
	property := models.PropertyForMatching{
		ID:              "p1",
		Price:           f64(1100),
		TransactionType: "RENT",
		Area:            "Παγκράτι",
		Bedrooms:        i(2),
		Heating:         "Independent",
	}

	first, err := engine.Match(client, property)
	require.NoError(t, err)
	second, err := engine.Match(client, property)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchBatch_ClientMajorOrdering(t *testing.T) {
	engine := NewEngine(nil, 5).WithClock(fixedClock())

	clients := []models.ClientForMatching{{ID: "c1"}, {ID: "c2"}}
	properties := []models.PropertyForMatching{{ID: "p1"}, {ID: "p2"}}

	results, err := engine.MatchBatch(clients, properties)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "c1", results[0].ClientID)
	assert.Equal(t, "p1", results[0].PropertyID)
	assert.Equal(t, "c1", results[1].ClientID)
	assert.Equal(t, "p2", results[1].PropertyID)
	assert.Equal(t, "c2", results[2].ClientID)
	assert.Equal(t, "p1", results[2].PropertyID)
}

func TestMatchBatch_FailsFastOnStructuralError(t *testing.T) {
	engine := NewEngine(nil, 5)

	_, err := engine.MatchBatch(
		[]models.ClientForMatching{{ID: "c1"}, {}},
		[]models.PropertyForMatching{{ID: "p1"}},
	)
	require.Error(t, err)
}
