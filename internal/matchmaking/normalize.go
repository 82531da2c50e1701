package matchmaking

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/estia-crm/matchmaking/internal/models"
)

// sqftToSqm converts square feet to square meters.
const sqftToSqm = 0.092903

// ToNumber coerces a loosely-typed numeric value to a float64. It accepts
// native numbers, json.Number, and numeric strings. Nil or malformed input
// returns nil; it never panics.
func ToNumber(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int32:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// foldText lowercases, strips diacritics (NFD decomposition with
// combining-mark removal), and folds the Greek final sigma so "Ισόγειο" and
// "ισογειο" compare equal.
func foldText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r == 'ς' {
			r = 'σ'
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// collapseSpaces reduces internal whitespace runs to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// floorLiterals maps folded floor labels to the numeric floor scale:
// ground=0, basement=-1, penthouse=99, mezzanine=0.5.
var floorLiterals = map[string]float64{
	"ground":        0,
	"ground floor":  0,
	"gf":            0,
	"ισογειο":       0,
	"basement":      -1,
	"υπογειο":       -1,
	"penthouse":     99,
	"ρετιρε":        99,
	"mezzanine":     0.5,
	"ημιωροφοσ":     0.5,
	"half floor":    0.5,
	"first":         1,
	"second":        2,
	"third":         3,
	"fourth":        4,
	"fifth":         5,
	"sixth":         6,
	"πρωτοσ":        1,
	"δευτεροσ":      2,
	"τριτοσ":        3,
	"τεταρτοσ":      4,
	"πεμπτοσ":       5,
	"εκτοσ":         6,
}

// ordinal suffixes stripped before numeric parsing ("3rd" -> "3", "2ος" -> "2").
var ordinalSuffixes = []string{"οσ", "st", "nd", "rd", "th"}

// ParseFloor parses a free-text floor label into a numeric floor value.
// Recognized literals (English and Greek) are case- and accent-insensitive;
// signed integers and "0.5" parse directly. Anything else returns nil, not
// zero.
func ParseFloor(s string) *float64 {
	folded := collapseSpaces(foldText(s))
	if folded == "" {
		return nil
	}

	if v, ok := floorLiterals[folded]; ok {
		return &v
	}

	candidate := strings.TrimSuffix(folded, " floor")
	for _, suffix := range ordinalSuffixes {
		if trimmed := strings.TrimSuffix(candidate, suffix); trimmed != candidate && trimmed != "" {
			candidate = trimmed
			break
		}
	}

	if f, err := strconv.ParseFloat(candidate, 64); err == nil {
		return &f
	}
	return nil
}

// locationPrefixes are location-type words stripped from the front of a
// normalized location string. Listed in folded form.
var locationPrefixes = []string{
	"city of ",
	"municipality of ",
	"area of ",
	"δημοσ ",
	"πολη ",
	"περιοχη ",
}

// locationSuffixes are location-type words stripped from the end.
var locationSuffixes = []string{
	" city",
	" municipality",
	" δημοσ",
}

// NormalizeLocation canonicalizes a location string: lowercase, trim,
// diacritics stripped, location-type prefix/suffix words removed from either
// end. Idempotent: normalizing an already-normalized string returns the same
// string.
func NormalizeLocation(s string) string {
	out := collapseSpaces(foldText(s))

	for changed := true; changed; {
		changed = false
		for _, p := range locationPrefixes {
			if strings.HasPrefix(out, p) {
				out = strings.TrimSpace(strings.TrimPrefix(out, p))
				changed = true
			}
		}
		for _, suf := range locationSuffixes {
			if strings.HasSuffix(out, suf) {
				out = strings.TrimSpace(strings.TrimSuffix(out, suf))
				changed = true
			}
		}
	}
	return out
}

// PropertyLocations returns the de-duplicated, normalized, non-empty set of
// all location fields a property supplies. A client's single area of
// interest can match any of them.
func PropertyLocations(p models.PropertyForMatching) []string {
	raw := []string{p.Area, p.City, p.Municipality, p.State}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, loc := range raw {
		n := NormalizeLocation(loc)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ParseAreasOfInterest resolves the three accepted encodings of a client's
// areas of interest — a string array, a JSON-encoded array string, or a
// comma-separated string — into normalized, de-duplicated location strings.
// Malformed JSON falls back to the comma split rather than failing.
func ParseAreasOfInterest(v any) []string {
	var raw []string

	switch areas := v.(type) {
	case nil:
		return nil
	case []string:
		raw = areas
	case []any:
		for _, a := range areas {
			if s, ok := a.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		s := strings.TrimSpace(areas)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				raw = parsed
				break
			}
		}
		raw = strings.Split(s, ",")
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		n := NormalizeLocation(a)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// NormalizeAmenityKey canonicalizes an amenity name so "Swimming Pool",
// "swimming-pool", and "SWIMMING_POOL" all resolve to "swimming_pool".
func NormalizeAmenityKey(s string) string {
	s = foldText(s)
	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevUnderscore = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// ExtractPropertyAmenities accepts either an array of amenity names or an
// object map of flags and returns the set of normalized keys that are
// present. The representation ambiguity stops here; scorers only ever see
// the set.
func ExtractPropertyAmenities(v any) map[string]struct{} {
	out := make(map[string]struct{})

	add := func(name string) {
		if key := NormalizeAmenityKey(name); key != "" {
			out[key] = struct{}{}
		}
	}

	switch amenities := v.(type) {
	case []string:
		for _, a := range amenities {
			add(a)
		}
	case []any:
		for _, a := range amenities {
			if s, ok := a.(string); ok {
				add(s)
			}
		}
	case map[string]bool:
		for name, present := range amenities {
			if present {
				add(name)
			}
		}
	case map[string]any:
		for name, val := range amenities {
			if amenityPresent(val) {
				add(name)
			}
		}
	}
	return out
}

func amenityPresent(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "true" || s == "yes" || s == "1"
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return false
	}
}

// BudgetRange extracts a client's budget bounds. Either bound may be nil.
func BudgetRange(c models.ClientForMatching) (min, max *float64) {
	return c.BudgetMin, c.BudgetMax
}

// IsPriceInBudget reports whether a price falls within the budget range,
// with tolerancePct applied symmetrically to both bounds: 5% tolerance on a
// max of 300000 permits up to 315000, and on a min of 200000 permits down to
// 190000. Absent both bounds, any price is in budget.
func IsPriceInBudget(price float64, min, max *float64, tolerancePct float64) bool {
	if min == nil && max == nil {
		return true
	}
	factor := tolerancePct / 100
	if min != nil && price < *min*(1-factor) {
		return false
	}
	if max != nil && price > *max*(1+factor) {
		return false
	}
	return true
}

// PropertySizeSqm resolves a property's size to net square meters, falling
// back to gross sqm, then square feet with a fixed conversion factor.
func PropertySizeSqm(p models.PropertyForMatching) *float64 {
	if p.NetSqm != nil {
		return p.NetSqm
	}
	if p.GrossSqm != nil {
		return p.GrossSqm
	}
	if p.SquareFeet != nil {
		sqm := *p.SquareFeet * sqftToSqm
		return &sqm
	}
	return nil
}

// Canonical enum values produced by the enum normalizers.
const (
	FurnishedFull    = "furnished"
	FurnishedPartial = "partial"
	FurnishedNone    = "unfurnished"
)

var furnishedTable = map[string]string{
	"yes":             FurnishedFull,
	"furnished":       FurnishedFull,
	"fully":           FurnishedFull,
	"fully furnished": FurnishedFull,
	"επιπλωμενο":      FurnishedFull,
	"partial":         FurnishedPartial,
	"partially":       FurnishedPartial,
	"semi":            FurnishedPartial,
	"semi furnished":  FurnishedPartial,
	"μερικωσ":         FurnishedPartial,
	"no":              FurnishedNone,
	"none":            FurnishedNone,
	"unfurnished":     FurnishedNone,
	"μη επιπλωμενο":   FurnishedNone,
}

var heatingTable = map[string]string{
	"central":            "central",
	"central heating":    "central",
	"κεντρικη":           "central",
	"κεντρικη θερμανση":  "central",
	"autonomous":         "autonomous",
	"independent":        "autonomous",
	"αυτονομη":           "autonomous",
	"αυτονομη θερμανση":  "autonomous",
	"gas":                "gas",
	"natural gas":        "gas",
	"φυσικο αεριο":       "gas",
	"heat pump":          "heat_pump",
	"ac":                 "heat_pump",
	"air condition":      "heat_pump",
	"air conditioning":   "heat_pump",
	"αντλια θερμοτητασ":  "heat_pump",
	"none":               "none",
	"no heating":         "none",
	"χωρισ θερμανση":     "none",
}

var conditionTable = map[string]string{
	"new":               "new",
	"newly built":       "new",
	"νεοδμητο":          "new",
	"renovated":         "renovated",
	"ανακαινισμενο":     "renovated",
	"good":              "good",
	"good condition":    "good",
	"καλη κατασταση":    "good",
	"needs renovation":  "needs_renovation",
	"fixer upper":       "needs_renovation",
	"χρηζει ανακαινισησ": "needs_renovation",
}

var energyClassTable = map[string]string{
	"a+": "a+",
	"α+": "a+",
	"a":  "a",
	"α":  "a",
	"b+": "b+",
	"β+": "b+",
	"b":  "b",
	"β":  "b",
	"c":  "c",
	"γ":  "c",
	"d":  "d",
	"δ":  "d",
	"e":  "e",
	"ε":  "e",
	"f":  "f",
	"ζ":  "f",
	"g":  "g",
	"η":  "g",
}

// normalizeEnum folds the raw value and looks it up in the table, replacing
// separators with spaces first so "semi_furnished" and "semi-furnished"
// resolve identically. Unrecognized values pass through in folded form so a
// direct comparison between client and property spellings still works.
func normalizeEnum(raw string, table map[string]string) string {
	folded := collapseSpaces(strings.NewReplacer("_", " ", "-", " ").Replace(foldText(raw)))
	if folded == "" {
		return ""
	}
	if canonical, ok := table[folded]; ok {
		return canonical
	}
	return folded
}

// NormalizeFurnished maps raw furnished spellings to a canonical value.
func NormalizeFurnished(raw string) string {
	return normalizeEnum(raw, furnishedTable)
}

// NormalizeHeating maps raw heating spellings to a canonical value.
func NormalizeHeating(raw string) string {
	return normalizeEnum(raw, heatingTable)
}

// NormalizeCondition maps raw condition spellings to a canonical value.
func NormalizeCondition(raw string) string {
	return normalizeEnum(raw, conditionTable)
}

// NormalizeEnergyClass maps raw energy class spellings (Latin or Greek
// letters) to a canonical value.
func NormalizeEnergyClass(raw string) string {
	return normalizeEnum(raw, energyClassTable)
}
