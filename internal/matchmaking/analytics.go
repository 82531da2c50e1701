package matchmaking

import (
	"math"
	"sort"

	"github.com/estia-crm/matchmaking/internal/models"
)

// DefaultScoreThreshold is the overall score a result must exceed to count
// as a match for analytics purposes.
const DefaultScoreThreshold = 50

// DefaultTopLimit caps the top-matches list when the caller does not
// specify one.
const DefaultTopLimit = 10

// AnalyticsOptions parameterizes the rollup. Zero values use the documented
// defaults.
type AnalyticsOptions struct {
	// Threshold is the exclusive lower bound for a result to count as a
	// match in the unmatched-clients and hot-properties aggregates.
	Threshold int
	// TopLimit truncates the top-matches list.
	TopLimit int
}

// distributionBuckets are the fixed histogram ranges. Scores are integers,
// so bounds are inclusive on both ends; the final bucket includes 100.
var distributionBuckets = []models.ScoreBucket{
	{Label: "0-25", Min: 0, Max: 25},
	{Label: "26-50", Min: 26, Max: 50},
	{Label: "51-75", Min: 51, Max: 75},
	{Label: "76-100", Min: 76, Max: 100},
}

// BuildAnalytics folds a batch of match results into dashboard aggregates:
// score distribution, top matches, clients with no good match, and
// properties ranked by interest. The rollup is deterministic: all ties are
// broken by id or timestamp.
func BuildAnalytics(results []models.MatchResult, opts AnalyticsOptions) models.MatchAnalytics {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultScoreThreshold
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = DefaultTopLimit
	}

	analytics := models.MatchAnalytics{
		TotalPairs:       len(results),
		Threshold:        opts.Threshold,
		Distribution:     buildDistribution(results),
		TopMatches:       topMatches(results, opts.TopLimit),
		UnmatchedClients: unmatchedClients(results, opts.Threshold),
		HotProperties:    hotProperties(results, opts.Threshold),
	}

	if len(results) > 0 {
		var sum int
		for _, r := range results {
			sum += r.OverallScore
		}
		analytics.AverageScore = math.Round(float64(sum)/float64(len(results))*10) / 10
	}

	return analytics
}

func buildDistribution(results []models.MatchResult) []models.ScoreBucket {
	buckets := make([]models.ScoreBucket, len(distributionBuckets))
	copy(buckets, distributionBuckets)

	for _, r := range results {
		for i := range buckets {
			if r.OverallScore >= buckets[i].Min && r.OverallScore <= buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

func topMatches(results []models.MatchResult, limit int) []models.MatchResult {
	top := make([]models.MatchResult, len(results))
	copy(top, results)

	sort.Slice(top, func(i, j int) bool {
		if top[i].OverallScore != top[j].OverallScore {
			return top[i].OverallScore > top[j].OverallScore
		}
		if !top[i].CalculatedAt.Equal(top[j].CalculatedAt) {
			return top[i].CalculatedAt.After(top[j].CalculatedAt)
		}
		if top[i].ClientID != top[j].ClientID {
			return top[i].ClientID < top[j].ClientID
		}
		return top[i].PropertyID < top[j].PropertyID
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

func unmatchedClients(results []models.MatchResult, threshold int) []models.UnmatchedClient {
	best := make(map[string]int)
	for _, r := range results {
		if score, seen := best[r.ClientID]; !seen || r.OverallScore > score {
			best[r.ClientID] = r.OverallScore
		}
	}

	unmatched := make([]models.UnmatchedClient, 0)
	for clientID, score := range best {
		if score <= threshold {
			unmatched = append(unmatched, models.UnmatchedClient{ClientID: clientID, BestScore: score})
		}
	}

	sort.Slice(unmatched, func(i, j int) bool {
		return unmatched[i].ClientID < unmatched[j].ClientID
	})
	return unmatched
}

func hotProperties(results []models.MatchResult, threshold int) []models.PropertyInterest {
	type stats struct {
		count int
		sum   int
		top   int
	}
	byProperty := make(map[string]*stats)

	for _, r := range results {
		if r.OverallScore <= threshold {
			continue
		}
		s, ok := byProperty[r.PropertyID]
		if !ok {
			s = &stats{}
			byProperty[r.PropertyID] = s
		}
		s.count++
		s.sum += r.OverallScore
		if r.OverallScore > s.top {
			s.top = r.OverallScore
		}
	}

	hot := make([]models.PropertyInterest, 0, len(byProperty))
	for propertyID, s := range byProperty {
		hot = append(hot, models.PropertyInterest{
			PropertyID:   propertyID,
			MatchCount:   s.count,
			AverageScore: math.Round(float64(s.sum)/float64(s.count)*10) / 10,
			TopScore:     s.top,
		})
	}

	// Ties broken by property id for determinism.
	sort.Slice(hot, func(i, j int) bool {
		if hot[i].MatchCount != hot[j].MatchCount {
			return hot[i].MatchCount > hot[j].MatchCount
		}
		if hot[i].AverageScore != hot[j].AverageScore {
			return hot[i].AverageScore > hot[j].AverageScore
		}
		return hot[i].PropertyID < hot[j].PropertyID
	})
	return hot
}
