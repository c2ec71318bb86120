package models

import (
	"math"
	"time"
)

// Quote statuses. Transitions are one-directional except the clarification
// round-trip; AllowedQuoteTransitions is the single source of truth.
const (
	QuoteStatusReceived               = "received"
	QuoteStatusUnderReview            = "under_review"
	QuoteStatusEvaluated              = "evaluated"
	QuoteStatusSelected               = "selected"
	QuoteStatusRejected               = "rejected"
	QuoteStatusExpired                = "expired"
	QuoteStatusClarificationRequested = "clarification_requested"
	QuoteStatusClarificationReceived  = "clarification_received"
)

// AllowedQuoteTransitions maps each quote status to the statuses it may move to.
// Terminal states (selected, rejected, expired) have no entries.
var AllowedQuoteTransitions = map[string][]string{
	QuoteStatusReceived:               {QuoteStatusUnderReview, QuoteStatusClarificationRequested, QuoteStatusExpired},
	QuoteStatusUnderReview:            {QuoteStatusEvaluated, QuoteStatusClarificationRequested, QuoteStatusExpired},
	QuoteStatusEvaluated:              {QuoteStatusSelected, QuoteStatusRejected, QuoteStatusExpired},
	QuoteStatusClarificationRequested: {QuoteStatusClarificationReceived, QuoteStatusExpired},
	QuoteStatusClarificationReceived:  {QuoteStatusUnderReview, QuoteStatusExpired},
}

// CanTransitionQuote reports whether a quote may move from one status to another.
func CanTransitionQuote(from, to string) bool {
	for _, next := range AllowedQuoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Default evaluation weights. Technical defaults to 0 so a three-criteria
// evaluation works out of the box.
const (
	DefaultQualityWeight   = 40.0
	DefaultCostWeight      = 35.0
	DefaultDeliveryWeight  = 25.0
	DefaultTechnicalWeight = 0.0
)

// Sentinels used by the ranking pass when a quote is missing optional fields.
// A missing delivery time sorts last, a missing quality score sorts last.
const (
	MissingDeliverySentinel = 999.0
	MissingQualitySentinel  = 0.0
)

// QuoteLineItem represents one line of the quote_line_items table.
type QuoteLineItem struct {
	ID          int     `json:"id" example:"1"`
	QuoteID     int     `json:"quote_id" example:"1"`
	Description string  `json:"description" example:"Reinforcement steel 12mm"`
	Quantity    float64 `json:"quantity" example:"100"`
	UnitPrice   float64 `json:"unit_price" example:"55.50"`
	TotalPrice  float64 `json:"total_price" example:"5550.00"`
}

// DeliveryTime is the quoted lead time. Value 0 means the supplier did not
// quote one.
type DeliveryTime struct {
	Value float64 `json:"value" example:"14"`
	Unit  string  `json:"unit" example:"days"` // days, weeks, months
}

// EvaluationWeights are the configurable weights applied to the four
// evaluation criteria.
type EvaluationWeights struct {
	Quality   float64 `json:"quality" example:"40"`
	Cost      float64 `json:"cost" example:"35"`
	Delivery  float64 `json:"delivery" example:"25"`
	Technical float64 `json:"technical" example:"0"`
}

// DefaultEvaluationWeights returns the standard weight set.
func DefaultEvaluationWeights() EvaluationWeights {
	return EvaluationWeights{
		Quality:   DefaultQualityWeight,
		Cost:      DefaultCostWeight,
		Delivery:  DefaultDeliveryWeight,
		Technical: DefaultTechnicalWeight,
	}
}

// QuoteEvaluation is the scoring block attached to a quote once a buyer has
// evaluated it. Sub-scores are expected in [0,100] but are not clamped here;
// out-of-range values flow through the arithmetic unchanged.
type QuoteEvaluation struct {
	Evaluated      bool              `json:"evaluated" example:"true"`
	QualityScore   float64           `json:"quality_score" example:"85"`
	CostScore      float64           `json:"cost_score" example:"70"`
	DeliveryScore  float64           `json:"delivery_score" example:"90"`
	TechnicalScore float64           `json:"technical_score" example:"0"`
	Weights        EvaluationWeights `json:"weights"`
	TotalScore     float64           `json:"total_score" example:"80.25"`
	EvaluatedBy    int               `json:"evaluated_by" example:"3"`
	EvaluationDate time.Time         `json:"evaluation_date" example:"2024-01-15T10:30:00Z"`
	Notes          string            `json:"notes" example:"Strong on quality, average lead time"`
}

// QuoteComparison holds the rank and variance fields computed across all
// quotes of one RFQ. Populated only by the comparison pass.
type QuoteComparison struct {
	PriceRank                   int     `json:"price_rank" example:"2"`
	DeliveryRank                int     `json:"delivery_rank" example:"1"`
	QualityRank                 int     `json:"quality_rank" example:"1"`
	OverallRank                 int     `json:"overall_rank" example:"1"`
	PriceVarianceFromAverage    float64 `json:"price_variance_from_average" example:"-12.5"`
	DeliveryVarianceFromAverage float64 `json:"delivery_variance_from_average" example:"8.3"`
}

// QuoteDecision records the select/reject outcome.
type QuoteDecision struct {
	Status    string    `json:"status" example:"selected"`
	Reason    string    `json:"reason" example:"Best overall score and lead time"`
	DecidedBy int       `json:"decided_by" example:"3"`
	DecidedAt time.Time `json:"decided_at" example:"2024-01-20T09:00:00Z"`
}

// QuoteActivity is one append-only activity entry on a quote.
type QuoteActivity struct {
	Action      string    `json:"action" example:"evaluated"`
	Description string    `json:"description" example:"Quote evaluated"`
	PerformedBy int       `json:"performed_by" example:"3"`
	PerformedAt time.Time `json:"performed_at" example:"2024-01-15T10:30:00Z"`
	Comments    string    `json:"comments,omitempty" example:"Strong on quality"`
}

// Quote represents one row of the quotes table plus its sub-records.
type Quote struct {
	ID            int              `json:"id" example:"1"`
	QuoteNumber   string           `json:"quote_number" example:"QT-AB12345"`
	RequisitionID int              `json:"requisition_id" example:"1"`
	RFQID         int              `json:"rfq_id" example:"1"`
	SupplierID    int              `json:"supplier_id" example:"7"`
	BuyerID       int              `json:"buyer_id" example:"3"`
	LineItems     []QuoteLineItem  `json:"line_items"`
	TotalAmount   float64          `json:"total_amount" example:"5550.00"`
	Currency      string           `json:"currency" example:"USD"`
	PaymentTerms  string           `json:"payment_terms" example:"Net 30"`
	DeliveryTerms string           `json:"delivery_terms" example:"DAP site"`
	DeliveryTime  *DeliveryTime    `json:"delivery_time,omitempty"`
	ValidUntil    time.Time        `json:"valid_until" example:"2024-02-15T00:00:00Z"`
	Status        string           `json:"status" example:"received"`
	Evaluation    *QuoteEvaluation `json:"evaluation,omitempty"`
	Comparison    *QuoteComparison `json:"comparison,omitempty"`
	Decision      *QuoteDecision   `json:"decision,omitempty"`
	Activity      []QuoteActivity  `json:"activity,omitempty"`
	CreatedAt     time.Time        `json:"created_at" example:"2024-01-10T10:30:00Z"`
	UpdatedAt     time.Time        `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// QuoteEvaluationInput is the request body for evaluating a quote. Weights are
// optional; nil means keep the current (or default) weights. Scores are not
// range-checked here; the scoring math takes them as given.
type QuoteEvaluationInput struct {
	QualityScore   float64            `json:"quality_score"`
	CostScore      float64            `json:"cost_score"`
	DeliveryScore  float64            `json:"delivery_score"`
	TechnicalScore float64            `json:"technical_score"`
	Weights        *EvaluationWeights `json:"weights,omitempty"`
	Notes          string             `json:"notes"`
}

// RecomputeDerivedTotals reconciles each line's total with unit price and
// quantity, then the quote total with the line totals. Mismatches are silently
// corrected, never rejected. Handlers call this before every persist.
func (q *Quote) RecomputeDerivedTotals() {
	var sum float64
	for i := range q.LineItems {
		q.LineItems[i].TotalPrice = q.LineItems[i].UnitPrice * q.LineItems[i].Quantity
		sum += q.LineItems[i].TotalPrice
	}
	q.TotalAmount = sum
}

// CalculateTotalScore returns the weighted total of the four sub-scores,
// rounded to two decimals. A zero total weight yields 0 rather than dividing
// by zero. Pure function of the evaluation block.
func (e *QuoteEvaluation) CalculateTotalScore() float64 {
	totalWeight := e.Weights.Quality + e.Weights.Cost + e.Weights.Delivery + e.Weights.Technical
	if totalWeight == 0 {
		return 0
	}
	weighted := (e.QualityScore*e.Weights.Quality +
		e.CostScore*e.Weights.Cost +
		e.DeliveryScore*e.Weights.Delivery +
		e.TechnicalScore*e.Weights.Technical) / totalWeight
	return math.Round(weighted*100) / 100
}

// Evaluate merges the evaluation input into the quote, recomputes the total
// score, moves the quote to evaluated and appends an activity entry. Mutates
// in place; the caller persists.
func (q *Quote) Evaluate(input QuoteEvaluationInput, evaluatedBy int) {
	if q.Evaluation == nil {
		q.Evaluation = &QuoteEvaluation{Weights: DefaultEvaluationWeights()}
	}
	if input.Weights != nil {
		q.Evaluation.Weights = *input.Weights
	}
	q.Evaluation.QualityScore = input.QualityScore
	q.Evaluation.CostScore = input.CostScore
	q.Evaluation.DeliveryScore = input.DeliveryScore
	q.Evaluation.TechnicalScore = input.TechnicalScore
	q.Evaluation.Notes = input.Notes
	q.Evaluation.Evaluated = true
	q.Evaluation.EvaluatedBy = evaluatedBy
	q.Evaluation.EvaluationDate = time.Now()
	q.Evaluation.TotalScore = q.Evaluation.CalculateTotalScore()

	q.Status = QuoteStatusEvaluated
	q.UpdatedAt = time.Now()
	q.Activity = append(q.Activity, QuoteActivity{
		Action:      "evaluated",
		Description: "Quote evaluated",
		PerformedBy: evaluatedBy,
		PerformedAt: time.Now(),
		Comments:    input.Notes,
	})
}

// Select marks the quote as selected with the given reason.
func (q *Quote) Select(reason string, decidedBy int) {
	q.decide(QuoteStatusSelected, reason, decidedBy)
}

// Reject marks the quote as rejected with the given reason.
func (q *Quote) Reject(reason string, decidedBy int) {
	q.decide(QuoteStatusRejected, reason, decidedBy)
}

func (q *Quote) decide(status, reason string, decidedBy int) {
	now := time.Now()
	q.Decision = &QuoteDecision{
		Status:    status,
		Reason:    reason,
		DecidedBy: decidedBy,
		DecidedAt: now,
	}
	q.Status = status
	q.UpdatedAt = now
	q.Activity = append(q.Activity, QuoteActivity{
		Action:      status,
		Description: "Quote " + status,
		PerformedBy: decidedBy,
		PerformedAt: now,
		Comments:    reason,
	})
}

// IsExpired reports whether the quote's validity window has passed.
func (q *Quote) IsExpired(now time.Time) bool {
	return !q.ValidUntil.IsZero() && now.After(q.ValidUntil)
}

// MarkExpiredIfDue moves a still-received quote to expired once validUntil has
// passed. Returns true if the status changed.
func (q *Quote) MarkExpiredIfDue(now time.Time) bool {
	if q.Status == QuoteStatusReceived && q.IsExpired(now) {
		q.Status = QuoteStatusExpired
		q.UpdatedAt = now
		return true
	}
	return false
}
