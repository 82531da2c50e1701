package matchmaking

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/estia-crm/matchmaking/internal/models"
)

// Weights maps criterion names to their relative weights. Weights are
// renormalized per pair over the applicable criteria, so only the ratios
// matter; the defaults are chosen to sum to 100 for readability.
type Weights map[string]float64

// DefaultWeights returns the platform default weight table.
func DefaultWeights() Weights {
	return Weights{
		CriterionBudget:          15,
		CriterionLocation:        15,
		CriterionTransactionType: 10,
		CriterionBedrooms:        10,
		CriterionPropertyType:    8,
		CriterionSize:            8,
		CriterionAmenities:       8,
		CriterionBathrooms:       4,
		CriterionCondition:       4,
		CriterionElevator:        4,
		CriterionFurnished:       3,
		CriterionFloor:           3,
		CriterionPetFriendly:     3,
		CriterionHeating:         2,
		CriterionParking:         2,
		CriterionEnergyClass:     1,
	}
}

// ResolveWeights merges tenant-specific weight overrides (a JSON object of
// criterion name to weight) onto the defaults. Overriding an unknown
// criterion or supplying a negative weight is an error.
func ResolveWeights(overrides json.RawMessage) (Weights, error) {
	resolved := DefaultWeights()

	if len(overrides) == 0 || string(overrides) == "null" {
		return resolved, nil
	}

	var tenant map[string]float64
	if err := json.Unmarshal(overrides, &tenant); err != nil {
		return nil, fmt.Errorf("parse weight overrides: %w", err)
	}

	for name, weight := range tenant {
		if _, exists := resolved[name]; !exists {
			return nil, fmt.Errorf("cannot override weight for unknown criterion: %s", name)
		}
		if weight < 0 {
			return nil, fmt.Errorf("weight for criterion %s must not be negative", name)
		}
		resolved[name] = weight
	}

	return resolved, nil
}

// Engine computes compatibility scores between client preferences and
// property attributes. It is pure and deterministic: no I/O, no shared
// mutable state, so callers may score independent pairs concurrently.
type Engine struct {
	weights            Weights
	budgetTolerancePct float64
	now                func() time.Time
}

// NewEngine creates an engine with the given weight table and budget
// tolerance percentage. A nil weight table uses the defaults.
func NewEngine(weights Weights, budgetTolerancePct float64) *Engine {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Engine{
		weights:            weights,
		budgetTolerancePct: budgetTolerancePct,
		now:                time.Now,
	}
}

// WithClock overrides the timestamp source. Used by tests to make
// CalculatedAt reproducible.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Match computes the full scored breakdown for one client-property pair.
// Criteria the client expressed no preference for are excluded from both
// numerator and denominator, so sparse preferences are not penalized. The
// only error is structural: a missing client or property id.
func (e *Engine) Match(client models.ClientForMatching, property models.PropertyForMatching) (models.MatchResult, error) {
	if client.ID == "" {
		return models.MatchResult{}, fmt.Errorf("client record is missing its id")
	}
	if property.ID == "" {
		return models.MatchResult{}, fmt.Errorf("property record is missing its id")
	}

	result := models.MatchResult{
		ClientID:     client.ID,
		PropertyID:   property.ID,
		CalculatedAt: e.now().UTC(),
	}

	applicable := e.evaluate(client, property)

	var totalWeight float64
	for _, cs := range applicable {
		totalWeight += e.weights[cs.Criterion]
	}

	if len(applicable) == 0 || totalWeight == 0 {
		// A client with no expressed preferences has nothing to compare:
		// score neutrally rather than perfectly or not at all.
		result.OverallScore = neutralScore
		result.Breakdown = []models.CriterionScore{}
		return result, nil
	}

	var overall float64
	breakdown := make([]models.CriterionScore, 0, len(applicable))
	for _, cs := range applicable {
		cs.Weight = e.weights[cs.Criterion] / totalWeight
		cs.WeightedScore = cs.Score * cs.Weight
		overall += cs.WeightedScore
		if cs.Matched {
			result.MatchedCriteria++
		}
		breakdown = append(breakdown, cs)
	}

	result.OverallScore = int(math.Round(overall))
	result.TotalCriteria = len(applicable)
	result.Breakdown = breakdown
	return result, nil
}

// evaluate runs every criterion scorer and returns the applicable subset in
// a fixed criterion order so equal inputs produce identical breakdowns.
func (e *Engine) evaluate(client models.ClientForMatching, property models.PropertyForMatching) []models.CriterionScore {
	prefs := client.Preferences

	type evaluation struct {
		score      models.CriterionScore
		applicable bool
	}

	var evaluations []evaluation
	add := func(cs models.CriterionScore, applicable bool) {
		evaluations = append(evaluations, evaluation{cs, applicable})
	}

	add(scoreBudget(client, property, e.budgetTolerancePct))
	add(scoreLocation(client, property))
	add(scoreTransactionType(client, property))
	add(scorePropertyType(prefs, property))
	if prefs != nil {
		add(scoreIntRange(CriterionBedrooms, prefs.BedroomsMin, prefs.BedroomsMax, property.Bedrooms, bedroomsTolerance, "bedrooms"))
		add(scoreIntRange(CriterionBathrooms, prefs.BathroomsMin, prefs.BathroomsMax, property.Bathrooms, bathroomsTolerance, "bathrooms"))
	}
	add(scoreSize(prefs, property))
	add(scoreAmenities(prefs, property))
	if prefs != nil {
		add(scoreSoftEnum(CriterionCondition, prefs.Conditions, property.Condition, NormalizeCondition, "condition"))
		add(scoreSoftEnum(CriterionHeating, prefs.HeatingTypes, property.Heating, NormalizeHeating, "heating"))
		add(scoreSoftEnum(CriterionEnergyClass, prefs.EnergyClasses, property.EnergyClass, NormalizeEnergyClass, "energy class"))
	}
	add(scoreFurnished(prefs, property))
	add(scoreFloor(prefs, property))
	if prefs != nil {
		add(scoreHardBool(CriterionElevator, prefs.RequiresElevator, property.HasElevator, "elevator"))
		add(scoreHardBool(CriterionPetFriendly, prefs.RequiresPetFriendly, property.PetsAllowed, "pet-friendly unit"))
		add(scoreHardBool(CriterionParking, prefs.RequiresParking, property.HasParking, "parking"))
	}

	applicable := make([]models.CriterionScore, 0, len(evaluations))
	for _, ev := range evaluations {
		if ev.applicable {
			applicable = append(applicable, ev.score)
		}
	}
	return applicable
}

// MatchBatch scores the full cross-product of clients and properties,
// ordered client-major. It fails fast on the first structural error.
func (e *Engine) MatchBatch(clients []models.ClientForMatching, properties []models.PropertyForMatching) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(clients)*len(properties))
	for _, client := range clients {
		for _, property := range properties {
			result, err := e.Match(client, property)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	return results, nil
}
