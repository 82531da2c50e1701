package matchmaking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/estia-crm/matchmaking/internal/models"
)

// Criterion names. Each is one independently scorable dimension of
// client/property fit.
const (
	CriterionBudget          = "budget"
	CriterionLocation        = "location"
	CriterionTransactionType = "transaction_type"
	CriterionPropertyType    = "property_type"
	CriterionBedrooms        = "bedrooms"
	CriterionBathrooms       = "bathrooms"
	CriterionSize            = "size"
	CriterionAmenities       = "amenities"
	CriterionCondition       = "condition"
	CriterionFurnished       = "furnished"
	CriterionFloor           = "floor"
	CriterionElevator        = "elevator"
	CriterionPetFriendly     = "pet_friendly"
	CriterionHeating         = "heating"
	CriterionEnergyClass     = "energy_class"
	CriterionParking         = "parking"
)

// Neutral score for criteria where the client expressed a preference but the
// property supplies no data. Missing data should not sink a match as hard as
// an explicit mismatch.
const neutralScore = 50

// Per-criterion tolerance bands for range scoring: the distance outside the
// preferred range over which the score decays linearly from 100 to 0.
const (
	bedroomsTolerance  = 2.0  // rooms
	bathroomsTolerance = 1.0  // rooms
	floorTolerance     = 2.0  // floors
	sizeTolerancePct   = 20.0 // percent of the violated bound
)

// intentTransaction maps a client intent to the property transaction type it
// is compatible with. SELL has no entry: seller clients are not matched
// against listings.
var intentTransaction = map[string]string{
	"BUY":    "SALE",
	"INVEST": "SALE",
	"RENT":   "RENT",
	"LEASE":  "RENT",
}

// linearDecay returns 100 at distance 0, decaying linearly to 0 at the
// tolerance bound and beyond.
func linearDecay(distance, tolerance float64) float64 {
	if distance <= 0 {
		return 100
	}
	if tolerance <= 0 || distance >= tolerance {
		return 0
	}
	return 100 * (1 - distance/tolerance)
}

// rangeDistance returns how far value falls outside [min, max]; zero when
// within. Either bound may be nil (open-ended).
func rangeDistance(value float64, min, max *float64) float64 {
	if min != nil && value < *min {
		return *min - value
	}
	if max != nil && value > *max {
		return value - *max
	}
	return 0
}

func intBound(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func scoreBudget(c models.ClientForMatching, p models.PropertyForMatching, tolerancePct float64) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionBudget}

	min, max := BudgetRange(c)
	if min == nil && max == nil {
		return cs, false
	}

	price := p.Price
	if price == nil {
		cs.Score = neutralScore
		cs.Reason = "property price unknown"
		return cs, true
	}

	if dist := rangeDistance(*price, min, max); dist == 0 {
		cs.Score = 100
		cs.Matched = true
		cs.Reason = fmt.Sprintf("price %.0f within budget", *price)
		return cs, true
	}

	if !IsPriceInBudget(*price, min, max, tolerancePct) {
		cs.Reason = fmt.Sprintf("price %.0f outside budget beyond %.0f%% tolerance", *price, tolerancePct)
		return cs, true
	}

	// Inside the tolerance band: decay linearly with the relative overshoot.
	var bound float64
	if max != nil && *price > *max {
		bound = *max
	} else {
		bound = *min
	}
	band := bound * tolerancePct / 100
	if band <= 0 {
		// A zero or negative bound gives the band no width; any miss is a
		// hard miss.
		cs.Reason = fmt.Sprintf("price %.0f outside budget beyond %.0f%% tolerance", *price, tolerancePct)
		return cs, true
	}
	overshoot := rangeDistance(*price, min, max) / band
	cs.Score = linearDecay(overshoot, 1)
	cs.Reason = fmt.Sprintf("price %.0f slightly outside budget", *price)
	return cs, true
}

func scoreLocation(c models.ClientForMatching, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionLocation}

	areas := ParseAreasOfInterest(c.AreasOfInterest)
	if len(areas) == 0 {
		return cs, false
	}

	locations := PropertyLocations(p)
	if len(locations) == 0 {
		cs.Score = neutralScore
		cs.Reason = "property location unknown"
		return cs, true
	}

	// Exact post-normalization equality only; substring containment would
	// produce false positives between similarly named areas.
	for _, area := range areas {
		for _, loc := range locations {
			if area == loc {
				cs.Score = 100
				cs.Matched = true
				cs.Reason = fmt.Sprintf("area of interest %q matches property location", area)
				return cs, true
			}
		}
	}

	cs.Reason = "no area of interest matches the property location"
	return cs, true
}

func scoreTransactionType(c models.ClientForMatching, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionTransactionType}

	wanted, ok := intentTransaction[strings.ToUpper(strings.TrimSpace(c.Intent))]
	if !ok {
		return cs, false
	}

	actual := strings.ToUpper(strings.TrimSpace(p.TransactionType))
	if actual == "" {
		cs.Score = neutralScore
		cs.Reason = "property transaction type unknown"
		return cs, true
	}

	if actual == wanted {
		cs.Score = 100
		cs.Matched = true
		cs.Reason = fmt.Sprintf("%s listing suits %s intent", actual, c.Intent)
	} else {
		cs.Reason = fmt.Sprintf("%s listing does not suit %s intent", actual, c.Intent)
	}
	return cs, true
}

func scorePropertyType(prefs *models.ClientPropertyPreferences, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionPropertyType}

	if prefs == nil || len(prefs.PropertyTypes) == 0 {
		return cs, false
	}

	actual := foldText(p.Type)
	if actual == "" {
		cs.Score = neutralScore
		cs.Reason = "property type unknown"
		return cs, true
	}

	for _, t := range prefs.PropertyTypes {
		if foldText(t) == actual {
			cs.Score = 100
			cs.Matched = true
			cs.Reason = fmt.Sprintf("property type %s is preferred", p.Type)
			return cs, true
		}
	}

	cs.Reason = fmt.Sprintf("property type %s is not among preferred types", p.Type)
	return cs, true
}

// scoreIntRange covers the bedrooms and bathrooms criteria.
func scoreIntRange(criterion string, min, max *int, actual *int, tolerance float64, unit string) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: criterion}

	if min == nil && max == nil {
		return cs, false
	}

	if actual == nil {
		cs.Score = neutralScore
		cs.Reason = fmt.Sprintf("%s count unknown", unit)
		return cs, true
	}

	dist := rangeDistance(float64(*actual), intBound(min), intBound(max))
	cs.Score = linearDecay(dist, tolerance)
	cs.Matched = dist == 0
	if cs.Matched {
		cs.Reason = fmt.Sprintf("%d %s within preferred range", *actual, unit)
	} else {
		cs.Reason = fmt.Sprintf("%d %s outside preferred range", *actual, unit)
	}
	return cs, true
}

func scoreSize(prefs *models.ClientPropertyPreferences, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionSize}

	if prefs == nil || (prefs.SizeMinSqm == nil && prefs.SizeMaxSqm == nil) {
		return cs, false
	}

	size := PropertySizeSqm(p)
	if size == nil {
		cs.Score = neutralScore
		cs.Reason = "property size unknown"
		return cs, true
	}

	dist := rangeDistance(*size, prefs.SizeMinSqm, prefs.SizeMaxSqm)
	if dist == 0 {
		cs.Score = 100
		cs.Matched = true
		cs.Reason = fmt.Sprintf("%.0f sqm within preferred range", *size)
		return cs, true
	}

	var bound float64
	if prefs.SizeMinSqm != nil && *size < *prefs.SizeMinSqm {
		bound = *prefs.SizeMinSqm
	} else {
		bound = *prefs.SizeMaxSqm
	}
	cs.Score = linearDecay(dist, bound*sizeTolerancePct/100)
	cs.Reason = fmt.Sprintf("%.0f sqm outside preferred range", *size)
	return cs, true
}

func scoreFloor(prefs *models.ClientPropertyPreferences, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionFloor}

	if prefs == nil || (prefs.FloorMin == nil && prefs.FloorMax == nil) {
		return cs, false
	}

	floor := ParseFloor(p.Floor)
	if floor == nil {
		cs.Score = neutralScore
		cs.Reason = "property floor unknown"
		return cs, true
	}

	dist := rangeDistance(*floor, prefs.FloorMin, prefs.FloorMax)
	cs.Score = linearDecay(dist, floorTolerance)
	cs.Matched = dist == 0
	if cs.Matched {
		cs.Reason = fmt.Sprintf("floor %g within preferred range", *floor)
	} else {
		cs.Reason = fmt.Sprintf("floor %g outside preferred range", *floor)
	}
	return cs, true
}

func scoreAmenities(prefs *models.ClientPropertyPreferences, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionAmenities}

	if prefs == nil || (len(prefs.RequiredAmenities) == 0 && len(prefs.PreferredAmenities) == 0) {
		return cs, false
	}

	if p.Amenities == nil {
		cs.Score = neutralScore
		cs.Reason = "property amenities unknown"
		return cs, true
	}

	have := ExtractPropertyAmenities(p.Amenities)

	countPresent := func(wanted []string) (present, total int, missing []string) {
		seen := make(map[string]struct{}, len(wanted))
		for _, name := range wanted {
			key := NormalizeAmenityKey(name)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			total++
			if _, ok := have[key]; ok {
				present++
			} else {
				missing = append(missing, key)
			}
		}
		return present, total, missing
	}

	reqPresent, reqTotal, reqMissing := countPresent(prefs.RequiredAmenities)
	prefPresent, prefTotal, _ := countPresent(prefs.PreferredAmenities)

	// A missing required amenity dominates the score downward sharply: the
	// required fraction is squared, so one missing of two already drops the
	// required component to a quarter.
	var score float64
	switch {
	case reqTotal > 0 && prefTotal > 0:
		reqFrac := float64(reqPresent) / float64(reqTotal)
		prefFrac := float64(prefPresent) / float64(prefTotal)
		score = 80*reqFrac*reqFrac + 20*prefFrac
	case reqTotal > 0:
		reqFrac := float64(reqPresent) / float64(reqTotal)
		score = 100 * reqFrac * reqFrac
	default:
		score = 100 * float64(prefPresent) / float64(prefTotal)
	}

	cs.Score = score
	cs.Matched = len(reqMissing) == 0 && score >= 50
	switch {
	case len(reqMissing) > 0:
		sort.Strings(reqMissing)
		cs.Reason = fmt.Sprintf("missing required amenities: %s", strings.Join(reqMissing, ", "))
	case prefTotal > 0:
		cs.Reason = fmt.Sprintf("%d of %d preferred amenities present", prefPresent, prefTotal)
	default:
		cs.Reason = "all required amenities present"
	}
	return cs, true
}

// scoreSoftEnum covers the condition, heating, and energy class criteria:
// preferred-set membership with a per-enum normalizer.
func scoreSoftEnum(criterion string, preferred []string, actual string, normalize func(string) string, label string) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: criterion}

	if len(preferred) == 0 {
		return cs, false
	}

	normalized := normalize(actual)
	if normalized == "" {
		cs.Score = neutralScore
		cs.Reason = fmt.Sprintf("property %s unknown", label)
		return cs, true
	}

	for _, want := range preferred {
		if normalize(want) == normalized {
			cs.Score = 100
			cs.Matched = true
			cs.Reason = fmt.Sprintf("%s %s is preferred", label, normalized)
			return cs, true
		}
	}

	cs.Reason = fmt.Sprintf("%s %s is not preferred", label, normalized)
	return cs, true
}

func scoreFurnished(prefs *models.ClientPropertyPreferences, p models.PropertyForMatching) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: CriterionFurnished}

	if prefs == nil || prefs.Furnished == nil {
		return cs, false
	}

	actual := NormalizeFurnished(p.Furnished)
	if actual == "" {
		cs.Score = neutralScore
		cs.Reason = "property furnished state unknown"
		return cs, true
	}

	wanted := NormalizeFurnished(*prefs.Furnished)
	switch {
	case actual == wanted:
		cs.Score = 100
		cs.Matched = true
		cs.Reason = fmt.Sprintf("furnished state %s matches preference", actual)
	case actual == FurnishedPartial || wanted == FurnishedPartial:
		// Partial furnishing is half way to either extreme.
		cs.Score = 50
		cs.Reason = fmt.Sprintf("furnished state %s partially matches preference %s", actual, wanted)
	default:
		cs.Reason = fmt.Sprintf("furnished state %s does not match preference %s", actual, wanted)
	}
	return cs, true
}

// scoreHardBool covers the elevator, pet-friendly, and parking criteria.
// These are hard requirements: a property explicitly failing one scores 0
// regardless of every other attribute.
func scoreHardBool(criterion string, required *bool, actual *bool, label string) (models.CriterionScore, bool) {
	cs := models.CriterionScore{Criterion: criterion}

	if required == nil || !*required {
		return cs, false
	}

	if actual == nil {
		cs.Score = neutralScore
		cs.Reason = fmt.Sprintf("%s availability unknown", label)
		return cs, true
	}

	if *actual {
		cs.Score = 100
		cs.Matched = true
		cs.Reason = fmt.Sprintf("required %s is available", label)
	} else {
		cs.Reason = fmt.Sprintf("required %s is not available", label)
	}
	return cs, true
}
