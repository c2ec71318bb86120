package storage

import (
	"backend/models"
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const quoteColumns = `
	id, quote_number, requisition_id, rfq_id, supplier_id, buyer_id,
	total_amount, currency, payment_terms, delivery_terms,
	delivery_time_value, delivery_time_unit, valid_until, status,
	evaluated, quality_score, cost_score, delivery_score, technical_score,
	weight_quality, weight_cost, weight_delivery, weight_technical,
	total_score, evaluated_by, evaluation_date, evaluation_notes,
	price_rank, delivery_rank, quality_rank, overall_rank,
	price_variance, delivery_variance,
	decision_status, decision_reason, decided_by, decided_at,
	created_at, updated_at`

type quoteScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row quoteScanner) (*models.Quote, error) {
	var q models.Quote
	var deliveryValue sql.NullFloat64
	var deliveryUnit sql.NullString
	var evaluated bool
	var qualityScore, costScore, deliveryScore, technicalScore sql.NullFloat64
	var wQuality, wCost, wDelivery, wTechnical sql.NullFloat64
	var totalScore sql.NullFloat64
	var evaluatedBy sql.NullInt64
	var evaluationDate sql.NullTime
	var evaluationNotes sql.NullString
	var priceRank, deliveryRank, qualityRank, overallRank sql.NullInt64
	var priceVariance, deliveryVariance sql.NullFloat64
	var decisionStatus, decisionReason sql.NullString
	var decidedBy sql.NullInt64
	var decidedAt sql.NullTime

	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.RequisitionID, &q.RFQID, &q.SupplierID, &q.BuyerID,
		&q.TotalAmount, &q.Currency, &q.PaymentTerms, &q.DeliveryTerms,
		&deliveryValue, &deliveryUnit, &q.ValidUntil, &q.Status,
		&evaluated, &qualityScore, &costScore, &deliveryScore, &technicalScore,
		&wQuality, &wCost, &wDelivery, &wTechnical,
		&totalScore, &evaluatedBy, &evaluationDate, &evaluationNotes,
		&priceRank, &deliveryRank, &qualityRank, &overallRank,
		&priceVariance, &deliveryVariance,
		&decisionStatus, &decisionReason, &decidedBy, &decidedAt,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deliveryValue.Valid && deliveryValue.Float64 > 0 {
		q.DeliveryTime = &models.DeliveryTime{
			Value: deliveryValue.Float64,
			Unit:  deliveryUnit.String,
		}
	}

	if evaluated {
		q.Evaluation = &models.QuoteEvaluation{
			Evaluated:      true,
			QualityScore:   qualityScore.Float64,
			CostScore:      costScore.Float64,
			DeliveryScore:  deliveryScore.Float64,
			TechnicalScore: technicalScore.Float64,
			Weights: models.EvaluationWeights{
				Quality:   wQuality.Float64,
				Cost:      wCost.Float64,
				Delivery:  wDelivery.Float64,
				Technical: wTechnical.Float64,
			},
			TotalScore:  totalScore.Float64,
			EvaluatedBy: int(evaluatedBy.Int64),
			Notes:       evaluationNotes.String,
		}
		if evaluationDate.Valid {
			q.Evaluation.EvaluationDate = evaluationDate.Time
		}
	}

	if overallRank.Valid {
		q.Comparison = &models.QuoteComparison{
			PriceRank:                   int(priceRank.Int64),
			DeliveryRank:                int(deliveryRank.Int64),
			QualityRank:                 int(qualityRank.Int64),
			OverallRank:                 int(overallRank.Int64),
			PriceVarianceFromAverage:    priceVariance.Float64,
			DeliveryVarianceFromAverage: deliveryVariance.Float64,
		}
	}

	if decisionStatus.Valid {
		q.Decision = &models.QuoteDecision{
			Status:    decisionStatus.String,
			Reason:    decisionReason.String,
			DecidedBy: int(decidedBy.Int64),
		}
		if decidedAt.Valid {
			q.Decision.DecidedAt = decidedAt.Time
		}
	}

	return &q, nil
}

func loadQuoteLineItems(db *sql.DB, q *models.Quote) error {
	rows, err := db.Query(`
		SELECT id, quote_id, description, quantity, unit_price, total_price
		FROM quote_line_items WHERE quote_id = $1 ORDER BY id`, q.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var li models.QuoteLineItem
		if err := rows.Scan(&li.ID, &li.QuoteID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TotalPrice); err != nil {
			return err
		}
		q.LineItems = append(q.LineItems, li)
	}
	return rows.Err()
}

// GetQuoteByID fetches one quote with its line items.
func GetQuoteByID(db *sql.DB, id int) (*models.Quote, error) {
	q, err := scanQuote(db.QueryRow(`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("quote %d not found", id)
		}
		return nil, err
	}
	if err := loadQuoteLineItems(db, q); err != nil {
		return nil, fmt.Errorf("failed to load line items: %v", err)
	}
	return q, nil
}

// GetQuotesByRFQ fetches all quotes submitted against an RFQ, oldest first.
func GetQuotesByRFQ(db *sql.DB, rfqID int) ([]*models.Quote, error) {
	rows, err := db.Query(`SELECT `+quoteColumns+` FROM quotes WHERE rfq_id = $1 ORDER BY created_at, id`, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, q := range quotes {
		if err := loadQuoteLineItems(db, q); err != nil {
			return nil, fmt.Errorf("failed to load line items: %v", err)
		}
	}
	return quotes, nil
}

// InsertQuote inserts a quote and its line items.
func InsertQuote(db *sql.DB, q *models.Quote) error {
	var deliveryValue sql.NullFloat64
	var deliveryUnit sql.NullString
	if q.DeliveryTime != nil {
		deliveryValue = sql.NullFloat64{Float64: q.DeliveryTime.Value, Valid: true}
		deliveryUnit = sql.NullString{String: q.DeliveryTime.Unit, Valid: true}
	}

	err := db.QueryRow(`
		INSERT INTO quotes (quote_number, requisition_id, rfq_id, supplier_id, buyer_id,
			total_amount, currency, payment_terms, delivery_terms,
			delivery_time_value, delivery_time_unit, valid_until, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		q.QuoteNumber, q.RequisitionID, q.RFQID, q.SupplierID, q.BuyerID,
		q.TotalAmount, q.Currency, q.PaymentTerms, q.DeliveryTerms,
		deliveryValue, deliveryUnit, q.ValidUntil, q.Status, q.CreatedAt, q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %v", err)
	}

	for i := range q.LineItems {
		q.LineItems[i].QuoteID = q.ID
		err := db.QueryRow(`
			INSERT INTO quote_line_items (quote_id, description, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			q.ID, q.LineItems[i].Description, q.LineItems[i].Quantity,
			q.LineItems[i].UnitPrice, q.LineItems[i].TotalPrice,
		).Scan(&q.LineItems[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert quote line item: %v", err)
		}
	}
	return nil
}

// UpdateQuoteStatus writes just the status column.
func UpdateQuoteStatus(db *sql.DB, id int, status string) error {
	_, err := db.Exec(`UPDATE quotes SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// SaveEvaluation persists the evaluation block and the new status after
// Quote.Evaluate has run.
func SaveEvaluation(db *sql.DB, q *models.Quote) error {
	if q.Evaluation == nil {
		return fmt.Errorf("quote %d has no evaluation to save", q.ID)
	}
	e := q.Evaluation
	_, err := db.Exec(`
		UPDATE quotes SET
			evaluated = true,
			quality_score = $1, cost_score = $2, delivery_score = $3, technical_score = $4,
			weight_quality = $5, weight_cost = $6, weight_delivery = $7, weight_technical = $8,
			total_score = $9, evaluated_by = $10, evaluation_date = $11, evaluation_notes = $12,
			status = $13, updated_at = NOW()
		WHERE id = $14`,
		e.QualityScore, e.CostScore, e.DeliveryScore, e.TechnicalScore,
		e.Weights.Quality, e.Weights.Cost, e.Weights.Delivery, e.Weights.Technical,
		e.TotalScore, e.EvaluatedBy, e.EvaluationDate, e.Notes,
		q.Status, q.ID)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %v", err)
	}
	return nil
}

// SaveDecision persists the select/reject outcome and the new status.
func SaveDecision(db *sql.DB, q *models.Quote) error {
	if q.Decision == nil {
		return fmt.Errorf("quote %d has no decision to save", q.ID)
	}
	_, err := db.Exec(`
		UPDATE quotes SET
			decision_status = $1, decision_reason = $2, decided_by = $3, decided_at = $4,
			status = $5, updated_at = NOW()
		WHERE id = $6`,
		q.Decision.Status, q.Decision.Reason, q.Decision.DecidedBy, q.Decision.DecidedAt,
		q.Status, q.ID)
	if err != nil {
		return fmt.Errorf("failed to save decision: %v", err)
	}
	return nil
}

// InsertQuoteActivity appends quote activity entries to the quote_activity table.
func InsertQuoteActivity(db *sql.DB, quoteID int, entries []models.QuoteActivity) error {
	for _, a := range entries {
		_, err := db.Exec(`
			INSERT INTO quote_activity (quote_id, action, description, performed_by, performed_at, comments)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			quoteID, a.Action, a.Description, a.PerformedBy, a.PerformedAt, a.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert quote activity: %v", err)
		}
	}
	return nil
}

// ExpireDueQuotes moves still-received quotes past their validity date to
// expired. Returns the affected quote numbers for the cron log.
func ExpireDueQuotes(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		UPDATE quotes SET status = $1, updated_at = NOW()
		WHERE status = $2 AND valid_until < NOW()
		RETURNING quote_number`,
		models.QuoteStatusExpired, models.QuoteStatusReceived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return expired, err
		}
		expired = append(expired, number)
	}
	return expired, rows.Err()
}

// QuoteSQLStore implements the persistence surface the comparison engine
// needs: fetch the qualifying quote set, then one independent write per quote.
type QuoteSQLStore struct {
	DB *sql.DB
}

func NewQuoteSQLStore(db *sql.DB) *QuoteSQLStore {
	return &QuoteSQLStore{DB: db}
}

// GetQuotesForComparison returns the quotes of one RFQ that have reached
// evaluated, selected or rejected, in original fetch order (creation order),
// which is the tie-break order for every ranking.
func (s *QuoteSQLStore) GetQuotesForComparison(ctx context.Context, rfqID int) ([]*models.Quote, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE rfq_id = $1 AND status = ANY($2) ORDER BY created_at, id`,
		rfqID, pq.Array(models.ComparisonStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// UpdateComparisonMetrics writes the ranks and variances of one quote. Each
// quote is an independent write; there is no multi-quote transaction.
func (s *QuoteSQLStore) UpdateComparisonMetrics(ctx context.Context, q *models.Quote) error {
	if q.Comparison == nil {
		return fmt.Errorf("quote %d has no comparison metrics", q.ID)
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE quotes SET
			price_rank = $1, delivery_rank = $2, quality_rank = $3, overall_rank = $4,
			price_variance = $5, delivery_variance = $6, updated_at = NOW()
		WHERE id = $7`,
		q.Comparison.PriceRank, q.Comparison.DeliveryRank, q.Comparison.QualityRank,
		q.Comparison.OverallRank, q.Comparison.PriceVarianceFromAverage,
		q.Comparison.DeliveryVarianceFromAverage, q.ID)
	return err
}
