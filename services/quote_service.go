package services

import (
	"backend/models"
	"context"
	"fmt"
	"strings"
)

// QuoteStore is the persistence surface the comparison engine depends on:
// fetch the qualifying quote set of an RFQ and write metrics back one quote
// at a time.
type QuoteStore interface {
	GetQuotesForComparison(ctx context.Context, rfqID int) ([]*models.Quote, error)
	UpdateComparisonMetrics(ctx context.Context, quote *models.Quote) error
}

// QuoteService runs the comparison pass over the quotes of an RFQ.
type QuoteService struct {
	store QuoteStore
}

func NewQuoteService(store QuoteStore) *QuoteService {
	return &QuoteService{store: store}
}

// ComparisonWriteError reports the quotes whose metric writes failed. The
// remaining quotes were still written.
type ComparisonWriteError struct {
	QuoteIDs []int
	Errs     []error
}

func (e *ComparisonWriteError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = fmt.Sprintf("quote %d: %v", e.QuoteIDs[i], err)
	}
	return fmt.Sprintf("failed to persist comparison metrics for %d quote(s): %s",
		len(e.QuoteIDs), strings.Join(msgs, "; "))
}

// CalculateComparisonMetrics recomputes ranks and variances across all
// evaluated/selected/rejected quotes of an RFQ and persists them per quote.
// An empty quote set is a no-op. Writes are best-effort and independent: a
// failed write does not stop the loop and does not roll back earlier writes;
// the failures are reported together as a ComparisonWriteError.
func (s *QuoteService) CalculateComparisonMetrics(ctx context.Context, rfqID int) error {
	quotes, err := s.store.GetQuotesForComparison(ctx, rfqID)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes for RFQ %d: %v", rfqID, err)
	}
	if len(quotes) == 0 {
		return nil
	}

	models.ComputeComparisonMetrics(quotes)

	var writeErr ComparisonWriteError
	for _, q := range quotes {
		if err := s.store.UpdateComparisonMetrics(ctx, q); err != nil {
			writeErr.QuoteIDs = append(writeErr.QuoteIDs, q.ID)
			writeErr.Errs = append(writeErr.Errs, err)
		}
	}
	if len(writeErr.QuoteIDs) > 0 {
		return &writeErr
	}
	return nil
}
