package handlers_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/handlers"
	"backend/models"
	"backend/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// recordingQuoteStore captures the RFQ ID the handler resolved from the route.
type recordingQuoteStore struct {
	requestedRFQ int
}

func (s *recordingQuoteStore) GetQuotesForComparison(ctx context.Context, rfqID int) ([]*models.Quote, error) {
	s.requestedRFQ = rfqID
	return nil, nil
}

func (s *recordingQuoteStore) UpdateComparisonMetrics(ctx context.Context, quote *models.Quote) error {
	return nil
}

// rfqRouter registers the RFQ quote routes under the same paths main.go uses.
func rfqRouter(db *sql.DB, quoteService *services.QuoteService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if db != nil {
		r.GET("/api/rfqs/:id/quotes", handlers.GetQuotesByRFQ(db))
	}
	if quoteService != nil {
		r.POST("/api/rfqs/:id/comparison/recalculate", handlers.RecalculateComparison(quoteService))
	}
	return r
}

func TestRecalculateComparisonResolvesRFQFromRoute(t *testing.T) {
	store := &recordingQuoteStore{}
	r := rfqRouter(nil, services.NewQuoteService(store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/7/comparison/recalculate", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 7, store.requestedRFQ)
}

func TestRecalculateComparisonRejectsNonNumericRFQ(t *testing.T) {
	store := &recordingQuoteStore{}
	r := rfqRouter(nil, services.NewQuoteService(store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/abc/comparison/recalculate", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid RFQ ID")
}

func TestGetQuotesByRFQResolvesRFQFromRoute(t *testing.T) {
	// An unreachable database distinguishes the parse path from the query
	// path: a numeric route ID must get past ID validation.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	defer db.Close()

	r := rfqRouter(db, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rfqs/7/quotes", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to fetch quotes")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/rfqs/abc/quotes", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid RFQ ID")
}
