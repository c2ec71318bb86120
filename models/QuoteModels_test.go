package models_test

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/require"
)

func TestCalculateTotalScoreZeroWeights(t *testing.T) {
	eval := models.QuoteEvaluation{
		QualityScore:  90,
		CostScore:     80,
		DeliveryScore: 70,
		Weights:       models.EvaluationWeights{},
	}
	require.Equal(t, 0.0, eval.CalculateTotalScore())
}

func TestCalculateTotalScoreWeightedAverage(t *testing.T) {
	eval := models.QuoteEvaluation{
		QualityScore:  85,
		CostScore:     70,
		DeliveryScore: 80,
		Weights:       models.DefaultEvaluationWeights(),
	}
	// (85*40 + 70*35 + 80*25) / 100 = 78.5
	require.Equal(t, 78.5, eval.CalculateTotalScore())
}

func TestCalculateTotalScoreRounding(t *testing.T) {
	eval := models.QuoteEvaluation{
		QualityScore:   80,
		CostScore:      75,
		DeliveryScore:  91,
		TechnicalScore: 66,
		Weights: models.EvaluationWeights{
			Quality: 30, Cost: 30, Delivery: 20, Technical: 20,
		},
	}
	// (80*30 + 75*30 + 91*20 + 66*20) / 100 = 77.9
	got := eval.CalculateTotalScore()
	require.Equal(t, 77.9, got)
}

func TestCalculateTotalScoreOutOfRangePassThrough(t *testing.T) {
	eval := models.QuoteEvaluation{
		QualityScore:  -20,
		CostScore:     150,
		DeliveryScore: 50,
		Weights:       models.DefaultEvaluationWeights(),
	}
	// (-20*40 + 150*35 + 50*25) / 100 = 57.0; no clamping anywhere
	require.Equal(t, 57.0, eval.CalculateTotalScore())
}

func TestCalculateTotalScoreDeterministic(t *testing.T) {
	eval := models.QuoteEvaluation{
		QualityScore:  33.33,
		CostScore:     66.67,
		DeliveryScore: 50,
		Weights:       models.DefaultEvaluationWeights(),
	}
	first := eval.CalculateTotalScore()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, eval.CalculateTotalScore())
	}
}

func TestRecomputeDerivedTotals(t *testing.T) {
	q := models.Quote{
		LineItems: []models.QuoteLineItem{
			{Quantity: 10, UnitPrice: 5, TotalPrice: 999},
			{Quantity: 3, UnitPrice: 20, TotalPrice: 1},
		},
		TotalAmount: 12345,
	}
	q.RecomputeDerivedTotals()

	require.Equal(t, 50.0, q.LineItems[0].TotalPrice)
	require.Equal(t, 60.0, q.LineItems[1].TotalPrice)
	require.Equal(t, 110.0, q.TotalAmount)
}

func TestEvaluateSetsStatusAndActivity(t *testing.T) {
	q := models.Quote{Status: models.QuoteStatusUnderReview}
	q.Evaluate(models.QuoteEvaluationInput{
		QualityScore:  85,
		CostScore:     70,
		DeliveryScore: 80,
		Notes:         "solid offer",
	}, 3)

	require.Equal(t, models.QuoteStatusEvaluated, q.Status)
	require.NotNil(t, q.Evaluation)
	require.True(t, q.Evaluation.Evaluated)
	require.Equal(t, 78.5, q.Evaluation.TotalScore)
	require.Equal(t, 3, q.Evaluation.EvaluatedBy)
	require.Len(t, q.Activity, 1)
	require.Equal(t, "evaluated", q.Activity[0].Action)
	require.Equal(t, "solid offer", q.Activity[0].Comments)
}

func TestEvaluateCustomWeights(t *testing.T) {
	q := models.Quote{Status: models.QuoteStatusUnderReview}
	q.Evaluate(models.QuoteEvaluationInput{
		QualityScore:  100,
		CostScore:     0,
		DeliveryScore: 0,
		Weights:       &models.EvaluationWeights{Quality: 100},
	}, 1)
	require.Equal(t, 100.0, q.Evaluation.TotalScore)
}

func TestSelectAndReject(t *testing.T) {
	q := models.Quote{Status: models.QuoteStatusEvaluated}
	q.Select("best score", 5)
	require.Equal(t, models.QuoteStatusSelected, q.Status)
	require.NotNil(t, q.Decision)
	require.Equal(t, models.QuoteStatusSelected, q.Decision.Status)
	require.Equal(t, "best score", q.Decision.Reason)
	require.Equal(t, 5, q.Decision.DecidedBy)

	q2 := models.Quote{Status: models.QuoteStatusEvaluated}
	q2.Reject("over budget", 5)
	require.Equal(t, models.QuoteStatusRejected, q2.Status)
	require.Equal(t, "over budget", q2.Decision.Reason)
}

func TestQuoteTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{models.QuoteStatusReceived, models.QuoteStatusUnderReview, true},
		{models.QuoteStatusReceived, models.QuoteStatusSelected, false},
		{models.QuoteStatusUnderReview, models.QuoteStatusEvaluated, true},
		{models.QuoteStatusUnderReview, models.QuoteStatusClarificationRequested, true},
		{models.QuoteStatusClarificationRequested, models.QuoteStatusClarificationReceived, true},
		{models.QuoteStatusClarificationReceived, models.QuoteStatusUnderReview, true},
		{models.QuoteStatusEvaluated, models.QuoteStatusSelected, true},
		{models.QuoteStatusEvaluated, models.QuoteStatusRejected, true},
		{models.QuoteStatusSelected, models.QuoteStatusRejected, false},
		{models.QuoteStatusRejected, models.QuoteStatusUnderReview, false},
		{models.QuoteStatusExpired, models.QuoteStatusUnderReview, false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.allowed, models.CanTransitionQuote(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestMarkExpiredIfDue(t *testing.T) {
	now := time.Now()

	q := models.Quote{
		Status:     models.QuoteStatusReceived,
		ValidUntil: now.Add(-time.Hour),
	}
	require.True(t, q.MarkExpiredIfDue(now))
	require.Equal(t, models.QuoteStatusExpired, q.Status)

	// Still valid
	q2 := models.Quote{
		Status:     models.QuoteStatusReceived,
		ValidUntil: now.Add(time.Hour),
	}
	require.False(t, q2.MarkExpiredIfDue(now))
	require.Equal(t, models.QuoteStatusReceived, q2.Status)

	// Zero valid_until never expires
	q3 := models.Quote{Status: models.QuoteStatusReceived}
	require.False(t, q3.MarkExpiredIfDue(now))

	// Only received quotes expire automatically
	q4 := models.Quote{
		Status:     models.QuoteStatusEvaluated,
		ValidUntil: now.Add(-time.Hour),
	}
	require.False(t, q4.MarkExpiredIfDue(now))
	require.Equal(t, models.QuoteStatusEvaluated, q4.Status)
}
