package services_test

import (
	"context"
	"errors"
	"testing"

	"backend/models"
	"backend/services"

	"github.com/stretchr/testify/require"
)

// MockQuoteStore implements services.QuoteStore
type MockQuoteStore struct {
	quotes      []*models.Quote
	fetchErr    error
	updateErrBy map[int]error
	updated     []*models.Quote
}

func (m *MockQuoteStore) GetQuotesForComparison(ctx context.Context, rfqID int) ([]*models.Quote, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.quotes, nil
}

func (m *MockQuoteStore) UpdateComparisonMetrics(ctx context.Context, q *models.Quote) error {
	if err, ok := m.updateErrBy[q.ID]; ok {
		return err
	}
	m.updated = append(m.updated, q)
	return nil
}

func comparisonQuote(id int, amount, total float64) *models.Quote {
	return &models.Quote{
		ID:          id,
		TotalAmount: amount,
		Status:      models.QuoteStatusEvaluated,
		Evaluation: &models.QuoteEvaluation{
			Evaluated:  true,
			TotalScore: total,
			Weights:    models.DefaultEvaluationWeights(),
		},
	}
}

func TestCalculateComparisonMetricsEmptySetNoOp(t *testing.T) {
	store := &MockQuoteStore{}
	svc := services.NewQuoteService(store)

	err := svc.CalculateComparisonMetrics(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, store.updated)
}

func TestCalculateComparisonMetricsFetchError(t *testing.T) {
	store := &MockQuoteStore{fetchErr: errors.New("connection refused")}
	svc := services.NewQuoteService(store)

	err := svc.CalculateComparisonMetrics(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "RFQ 1")
}

func TestCalculateComparisonMetricsWritesAllQuotes(t *testing.T) {
	store := &MockQuoteStore{
		quotes: []*models.Quote{
			comparisonQuote(1, 500, 80),
			comparisonQuote(2, 300, 90),
		},
	}
	svc := services.NewQuoteService(store)

	err := svc.CalculateComparisonMetrics(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, store.updated, 2)
	for _, q := range store.updated {
		require.NotNil(t, q.Comparison)
	}
	require.Equal(t, 2, store.quotes[0].Comparison.OverallRank)
	require.Equal(t, 1, store.quotes[1].Comparison.OverallRank)
}

func TestCalculateComparisonMetricsBestEffortWrites(t *testing.T) {
	store := &MockQuoteStore{
		quotes: []*models.Quote{
			comparisonQuote(1, 500, 80),
			comparisonQuote(2, 300, 90),
			comparisonQuote(3, 700, 70),
		},
		updateErrBy: map[int]error{2: errors.New("deadlock detected")},
	}
	svc := services.NewQuoteService(store)

	err := svc.CalculateComparisonMetrics(context.Background(), 7)
	require.Error(t, err)

	var writeErr *services.ComparisonWriteError
	require.ErrorAs(t, err, &writeErr)
	require.Equal(t, []int{2}, writeErr.QuoteIDs)
	require.Contains(t, err.Error(), "quote 2")

	// Quotes 1 and 3 were still written.
	require.Len(t, store.updated, 2)
}
