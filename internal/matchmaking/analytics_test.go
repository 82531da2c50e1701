package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estia-crm/matchmaking/internal/models"
)

func result(clientID, propertyID string, score int) models.MatchResult {
	return models.MatchResult{
		ClientID:     clientID,
		PropertyID:   propertyID,
		OverallScore: score,
		CalculatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildAnalytics_EmptyBatch(t *testing.T) {
	analytics := BuildAnalytics(nil, AnalyticsOptions{})

	assert.Zero(t, analytics.TotalPairs)
	assert.Zero(t, analytics.AverageScore)
	assert.Equal(t, DefaultScoreThreshold, analytics.Threshold)
	require.Len(t, analytics.Distribution, 4)
	for _, bucket := range analytics.Distribution {
		assert.Zero(t, bucket.Count)
	}
	assert.Empty(t, analytics.TopMatches)
	assert.Empty(t, analytics.UnmatchedClients)
	assert.Empty(t, analytics.HotProperties)
}

func TestBuildAnalytics_DistributionBucketBoundaries(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 0),
		result("c1", "p2", 25),
		result("c1", "p3", 26),
		result("c1", "p4", 50),
		result("c1", "p5", 51),
		result("c1", "p6", 75),
		result("c1", "p7", 76),
		result("c1", "p8", 100),
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{})

	require.Len(t, analytics.Distribution, 4)
	for _, bucket := range analytics.Distribution {
		assert.Equal(t, 2, bucket.Count, "bucket %s", bucket.Label)
	}
}

func TestBuildAnalytics_AllPerfectScoresLandInFinalBucket(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 100),
		result("c2", "p1", 100),
		result("c3", "p2", 100),
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{})

	require.Len(t, analytics.Distribution, 4)
	assert.Zero(t, analytics.Distribution[0].Count)
	assert.Zero(t, analytics.Distribution[1].Count)
	assert.Zero(t, analytics.Distribution[2].Count)
	assert.Equal(t, 3, analytics.Distribution[3].Count)
	assert.Equal(t, 100.0, analytics.AverageScore)
}

func TestBuildAnalytics_AverageRoundedToOneDecimal(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 50),
		result("c2", "p1", 51),
		result("c3", "p1", 51),
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{})
	assert.Equal(t, 50.7, analytics.AverageScore)
}

func TestTopMatches_OrderAndLimit(t *testing.T) {
	early := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	results := []models.MatchResult{
		{ClientID: "c2", PropertyID: "p1", OverallScore: 90, CalculatedAt: early},
		{ClientID: "c1", PropertyID: "p2", OverallScore: 90, CalculatedAt: late},
		{ClientID: "c1", PropertyID: "p1", OverallScore: 95, CalculatedAt: early},
		{ClientID: "c3", PropertyID: "p3", OverallScore: 40, CalculatedAt: late},
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{TopLimit: 3})

	require.Len(t, analytics.TopMatches, 3)
	assert.Equal(t, 95, analytics.TopMatches[0].OverallScore)
	// Equal scores: the more recent result ranks first.
	assert.Equal(t, "c1", analytics.TopMatches[1].ClientID)
	assert.Equal(t, "c2", analytics.TopMatches[2].ClientID)
}

func TestUnmatchedClients_BestScoreAtOrBelowThreshold(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 30),
		result("c1", "p2", 50), // best for c1, still not above threshold
		result("c2", "p1", 51), // above threshold, matched
		result("c3", "p1", 10),
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{Threshold: 50})

	require.Len(t, analytics.UnmatchedClients, 2)
	assert.Equal(t, models.UnmatchedClient{ClientID: "c1", BestScore: 50}, analytics.UnmatchedClients[0])
	assert.Equal(t, models.UnmatchedClient{ClientID: "c3", BestScore: 10}, analytics.UnmatchedClients[1])
}

func TestHotProperties_RankedByMatchCountThenAverage(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 80),
		result("c2", "p1", 90),
		result("c1", "p2", 95),
		result("c2", "p2", 80),
		result("c1", "p3", 99),
		result("c1", "p4", 50), // at threshold, excluded
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{Threshold: 50})

	require.Len(t, analytics.HotProperties, 3)

	// p1 and p2 tie on count; p2 wins on average score.
	assert.Equal(t, "p2", analytics.HotProperties[0].PropertyID)
	assert.Equal(t, 87.5, analytics.HotProperties[0].AverageScore)
	assert.Equal(t, 95, analytics.HotProperties[0].TopScore)

	assert.Equal(t, "p1", analytics.HotProperties[1].PropertyID)
	assert.Equal(t, 2, analytics.HotProperties[1].MatchCount)

	assert.Equal(t, "p3", analytics.HotProperties[2].PropertyID)
	assert.Equal(t, 1, analytics.HotProperties[2].MatchCount)
}

func TestBuildAnalytics_CustomThresholdPropagates(t *testing.T) {
	results := []models.MatchResult{
		result("c1", "p1", 70),
		result("c2", "p2", 80),
	}

	analytics := BuildAnalytics(results, AnalyticsOptions{Threshold: 75})

	assert.Equal(t, 75, analytics.Threshold)
	require.Len(t, analytics.UnmatchedClients, 1)
	assert.Equal(t, "c1", analytics.UnmatchedClients[0].ClientID)
	require.Len(t, analytics.HotProperties, 1)
	assert.Equal(t, "p2", analytics.HotProperties[0].PropertyID)
}
