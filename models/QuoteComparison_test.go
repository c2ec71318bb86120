package models_test

import (
	"testing"

	"backend/models"

	"github.com/stretchr/testify/require"
)

func evaluatedQuote(id int, amount float64, deliveryDays, quality, total float64) *models.Quote {
	q := &models.Quote{
		ID:          id,
		TotalAmount: amount,
		Status:      models.QuoteStatusEvaluated,
		Evaluation: &models.QuoteEvaluation{
			Evaluated:    true,
			QualityScore: quality,
			TotalScore:   total,
			Weights:      models.DefaultEvaluationWeights(),
		},
	}
	if deliveryDays > 0 {
		q.DeliveryTime = &models.DeliveryTime{Value: deliveryDays, Unit: "days"}
	}
	return q
}

func TestComputeComparisonMetricsEmptySet(t *testing.T) {
	require.NotPanics(t, func() {
		models.ComputeComparisonMetrics(nil)
		models.ComputeComparisonMetrics([]*models.Quote{})
	})
}

func TestComputeComparisonMetricsPriceRanks(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 10, 80, 80),
		evaluatedQuote(2, 300, 10, 80, 80),
		evaluatedQuote(3, 700, 10, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 2, quotes[0].Comparison.PriceRank)
	require.Equal(t, 1, quotes[1].Comparison.PriceRank)
	require.Equal(t, 3, quotes[2].Comparison.PriceRank)
}

func TestComputeComparisonMetricsOverallRanks(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 10, 80, 90),
		evaluatedQuote(2, 500, 10, 80, 70),
		evaluatedQuote(3, 500, 10, 80, 85),
	}
	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 1, quotes[0].Comparison.OverallRank)
	require.Equal(t, 3, quotes[1].Comparison.OverallRank)
	require.Equal(t, 2, quotes[2].Comparison.OverallRank)
}

func TestComputeComparisonMetricsTiesKeepFetchOrder(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 10, 80, 80),
		evaluatedQuote(2, 500, 10, 80, 80),
		evaluatedQuote(3, 500, 10, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	for i, q := range quotes {
		require.Equal(t, i+1, q.Comparison.PriceRank)
		require.Equal(t, i+1, q.Comparison.DeliveryRank)
		require.Equal(t, i+1, q.Comparison.QualityRank)
		require.Equal(t, i+1, q.Comparison.OverallRank)
	}
}

func TestComputeComparisonMetricsMissingDeliverySortsLast(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 0, 80, 80), // no delivery time quoted
		evaluatedQuote(2, 500, 30, 80, 80),
		evaluatedQuote(3, 500, 7, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 3, quotes[0].Comparison.DeliveryRank)
	require.Equal(t, 2, quotes[1].Comparison.DeliveryRank)
	require.Equal(t, 1, quotes[2].Comparison.DeliveryRank)
}

func TestComputeComparisonMetricsMissingEvaluationRanksLastOnQuality(t *testing.T) {
	noEval := &models.Quote{ID: 1, TotalAmount: 500, Status: models.QuoteStatusEvaluated}
	quotes := []*models.Quote{
		noEval,
		evaluatedQuote(2, 500, 10, 60, 60),
		evaluatedQuote(3, 500, 10, 95, 95),
	}
	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 3, noEval.Comparison.QualityRank)
	require.Equal(t, 2, quotes[1].Comparison.QualityRank)
	require.Equal(t, 1, quotes[2].Comparison.QualityRank)
	// A quote without evaluation scores 0 and ranks last overall too.
	require.Equal(t, 3, noEval.Comparison.OverallRank)
}

func TestComputeComparisonMetricsVariance(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 10, 80, 80),
		evaluatedQuote(2, 300, 20, 80, 80),
		evaluatedQuote(3, 700, 30, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	// avg price 500: variances 0%, -40%, +40%
	require.InDelta(t, 0, quotes[0].Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, -40, quotes[1].Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, 40, quotes[2].Comparison.PriceVarianceFromAverage, 1e-9)

	// avg delivery 20: variances -50%, 0%, +50%
	require.InDelta(t, -50, quotes[0].Comparison.DeliveryVarianceFromAverage, 1e-9)
	require.InDelta(t, 0, quotes[1].Comparison.DeliveryVarianceFromAverage, 1e-9)
	require.InDelta(t, 50, quotes[2].Comparison.DeliveryVarianceFromAverage, 1e-9)
}

func TestComputeComparisonMetricsZeroAmountsExcludedFromAverage(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 0, 10, 80, 80),
		evaluatedQuote(2, 400, 10, 80, 80),
		evaluatedQuote(3, 600, 10, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	// avg over positive amounts only: (400+600)/2 = 500
	require.InDelta(t, -100, quotes[0].Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, -20, quotes[1].Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, 20, quotes[2].Comparison.PriceVarianceFromAverage, 1e-9)

	// Zero amount still gets the lowest price rank.
	require.Equal(t, 1, quotes[0].Comparison.PriceRank)
}

func TestComputeComparisonMetricsAllZeroPrices(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 0, 10, 80, 80),
		evaluatedQuote(2, 0, 10, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	// No positive amounts: variance stays zero instead of dividing by zero.
	require.Equal(t, 0.0, quotes[0].Comparison.PriceVarianceFromAverage)
	require.Equal(t, 0.0, quotes[1].Comparison.PriceVarianceFromAverage)
}

func TestComputeComparisonMetricsNoDeliveryTimes(t *testing.T) {
	quotes := []*models.Quote{
		evaluatedQuote(1, 500, 0, 80, 80),
		evaluatedQuote(2, 300, 0, 80, 80),
	}
	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 0.0, quotes[0].Comparison.DeliveryVarianceFromAverage)
	require.Equal(t, 1, quotes[0].Comparison.DeliveryRank)
	require.Equal(t, 2, quotes[1].Comparison.DeliveryRank)
}

func TestComputeComparisonMetricsFullScenario(t *testing.T) {
	a := evaluatedQuote(1, 500, 14, 85, 82.5)
	b := evaluatedQuote(2, 300, 21, 70, 74)
	c := evaluatedQuote(3, 700, 7, 95, 88)
	quotes := []*models.Quote{a, b, c}

	models.ComputeComparisonMetrics(quotes)

	require.Equal(t, 2, a.Comparison.PriceRank)
	require.Equal(t, 1, b.Comparison.PriceRank)
	require.Equal(t, 3, c.Comparison.PriceRank)

	require.Equal(t, 2, a.Comparison.DeliveryRank)
	require.Equal(t, 3, b.Comparison.DeliveryRank)
	require.Equal(t, 1, c.Comparison.DeliveryRank)

	require.Equal(t, 2, a.Comparison.QualityRank)
	require.Equal(t, 3, b.Comparison.QualityRank)
	require.Equal(t, 1, c.Comparison.QualityRank)

	require.Equal(t, 2, a.Comparison.OverallRank)
	require.Equal(t, 3, b.Comparison.OverallRank)
	require.Equal(t, 1, c.Comparison.OverallRank)

	// avg price 500
	require.InDelta(t, 0, a.Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, -40, b.Comparison.PriceVarianceFromAverage, 1e-9)
	require.InDelta(t, 40, c.Comparison.PriceVarianceFromAverage, 1e-9)
}
