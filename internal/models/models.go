package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientForMatching is a read-only snapshot of a prospective client's
// matching-relevant attributes. Records are supplied by the repository layer
// per matching run and never mutated by the engine.
type ClientForMatching struct {
	ID       string    `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	FullName string    `json:"full_name"`
	// Intent is one of BUY, RENT, SELL, LEASE, INVEST.
	Intent    string   `json:"intent"`
	Purpose   string   `json:"purpose,omitempty"`
	Status    string   `json:"status"`
	BudgetMin *float64 `json:"budget_min,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`
	// AreasOfInterest may arrive as a []string, a JSON-encoded array string,
	// or a comma-separated string. Resolved by matchmaking.ParseAreasOfInterest
	// at the normalization boundary; nothing downstream sees the raw form.
	AreasOfInterest any                        `json:"areas_of_interest,omitempty"`
	Preferences     *ClientPropertyPreferences `json:"property_preferences,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// ClientPropertyPreferences is the embedded preference structure on a client.
// Every field is optional: a nil field means "no preference" for that
// criterion, which excludes the criterion from scoring entirely. That is
// distinct from an explicit value and drives criterion applicability.
type ClientPropertyPreferences struct {
	PropertyTypes []string `json:"property_types,omitempty"`

	BedroomsMin  *int     `json:"bedrooms_min,omitempty"`
	BedroomsMax  *int     `json:"bedrooms_max,omitempty"`
	BathroomsMin *int     `json:"bathrooms_min,omitempty"`
	BathroomsMax *int     `json:"bathrooms_max,omitempty"`
	SizeMinSqm   *float64 `json:"size_min_sqm,omitempty"`
	SizeMaxSqm   *float64 `json:"size_max_sqm,omitempty"`
	FloorMin     *float64 `json:"floor_min,omitempty"`
	FloorMax     *float64 `json:"floor_max,omitempty"`

	// Hard requirements: a property failing one scores 0 on that criterion.
	RequiresElevator    *bool `json:"requires_elevator,omitempty"`
	RequiresParking     *bool `json:"requires_parking,omitempty"`
	RequiresPetFriendly *bool `json:"requires_pet_friendly,omitempty"`

	// Soft preferences: satisfied scores 100, unknown property data scores
	// a neutral mid-value, explicit mismatch scores 0.
	Furnished     *string  `json:"furnished,omitempty"`
	HeatingTypes  []string `json:"heating_types,omitempty"`
	EnergyClasses []string `json:"energy_classes,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`

	RequiredAmenities  []string `json:"required_amenities,omitempty"`
	PreferredAmenities []string `json:"preferred_amenities,omitempty"`
}

// PropertyForMatching is a read-only snapshot of a listing's
// matching-relevant attributes.
type PropertyForMatching struct {
	ID       string    `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Title    string    `json:"title"`
	Price    *float64  `json:"price,omitempty"`
	// Type is the listing kind (apartment, maisonette, detached, plot, ...).
	Type string `json:"type,omitempty"`
	// TransactionType is SALE or RENT.
	TransactionType string `json:"transaction_type,omitempty"`
	Status          string `json:"status"`

	// Location fields form a fallback chain: a client area of interest may
	// match any of them.
	Area         string `json:"area,omitempty"`
	City         string `json:"city,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	State        string `json:"state,omitempty"`

	Bedrooms  *int `json:"bedrooms,omitempty"`
	Bathrooms *int `json:"bathrooms,omitempty"`

	// Size may be supplied in any of three units; the normalizer resolves to
	// net square meters.
	NetSqm     *float64 `json:"net_sqm,omitempty"`
	GrossSqm   *float64 `json:"gross_sqm,omitempty"`
	SquareFeet *float64 `json:"square_feet,omitempty"`

	// Floor is free text ("3", "Ground", "Ισόγειο", "Penthouse", ...).
	Floor string `json:"floor,omitempty"`

	HasElevator *bool `json:"has_elevator,omitempty"`
	PetsAllowed *bool `json:"pets_allowed,omitempty"`
	HasParking  *bool `json:"has_parking,omitempty"`

	Furnished   string `json:"furnished,omitempty"`
	Heating     string `json:"heating,omitempty"`
	EnergyClass string `json:"energy_class,omitempty"`
	Condition   string `json:"condition,omitempty"`

	// Amenities may arrive as a []string of names or a map[string]bool of
	// flags. Resolved by matchmaking.ExtractPropertyAmenities.
	Amenities any `json:"amenities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CriterionScore is one evaluated criterion's row in a match breakdown.
// WeightedScore = Score * Weight, with weights renormalized over the
// applicable criteria so contributions sum to the overall percentage.
type CriterionScore struct {
	Criterion     string  `json:"criterion"`
	Weight        float64 `json:"weight"`
	Score         float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
	Matched       bool    `json:"matched"`
	Reason        string  `json:"reason,omitempty"`
}

// MatchResult is one client-property pairing's outcome. OverallScore is a
// weighted average over only the criteria applicable to this pair; criteria
// the client expressed no preference for are excluded from numerator and
// denominator alike.
type MatchResult struct {
	ClientID        string           `json:"client_id"`
	PropertyID      string           `json:"property_id"`
	OverallScore    int              `json:"overall_score"`
	Breakdown       []CriterionScore `json:"breakdown"`
	MatchedCriteria int              `json:"matched_criteria"`
	TotalCriteria   int              `json:"total_criteria"`
	CalculatedAt    time.Time        `json:"calculated_at"`
}

// ScoreBucket is one histogram bucket of the score distribution.
// Buckets are contiguous and non-overlapping; bounds are inclusive on both
// ends since overall scores are integers, and the final bucket includes 100.
type ScoreBucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// UnmatchedClient is a client for whom no computed result exceeded the
// analytics threshold.
type UnmatchedClient struct {
	ClientID  string `json:"client_id"`
	BestScore int    `json:"best_score"`
}

// PropertyInterest ranks a property by how many clients matched it above the
// analytics threshold.
type PropertyInterest struct {
	PropertyID   string  `json:"property_id"`
	MatchCount   int     `json:"match_count"`
	AverageScore float64 `json:"average_score"`
	TopScore     int     `json:"top_score"`
}

// MatchAnalytics is the dashboard-level aggregate over a batch of match
// results. Built fresh per request, never persisted.
type MatchAnalytics struct {
	TotalPairs       int                `json:"total_pairs"`
	AverageScore     float64            `json:"average_score"`
	Threshold        int                `json:"threshold"`
	Distribution     []ScoreBucket      `json:"distribution"`
	TopMatches       []MatchResult      `json:"top_matches"`
	UnmatchedClients []UnmatchedClient  `json:"unmatched_clients"`
	HotProperties    []PropertyInterest `json:"hot_properties"`
}

// MatchRun records one batch matching execution.
type MatchRun struct {
	ID            uuid.UUID `json:"run_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	Status        string    `json:"status"`
	ClientCount   int       `json:"client_count"`
	PropertyCount int       `json:"property_count"`
	PairCount     int       `json:"pair_count"`
	DurationMs    *int      `json:"duration_ms,omitempty"`
	LastError     *string   `json:"last_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
}
