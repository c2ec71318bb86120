package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SubmitQuote registers a supplier's quote against an RFQ.
// @Summary Submit quote
// @Description Creates a new quote in received status. Line and quote totals are recomputed from unit price and quantity. Requires Authorization header.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param body body models.Quote true "Quote data"
// @Success 201 {object} models.Quote
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/quotes [post]
func SubmitQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}

		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var quote models.Quote
		if err := c.ShouldBindJSON(&quote); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		if quote.RFQID == 0 || quote.SupplierID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rfq_id and supplier_id are required"})
			return
		}

		// RFQ must still be open for submissions.
		var rfqStatus string
		err = db.QueryRow(`SELECT status FROM rfqs WHERE id = $1`, quote.RFQID).Scan(&rfqStatus)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "RFQ not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if rfqStatus != models.RFQStatusOpen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "RFQ is not open for quotes"})
			return
		}

		quote.QuoteNumber = repository.GenerateQuoteNumber()
		quote.Status = models.QuoteStatusReceived
		quote.CreatedAt = time.Now()
		quote.UpdatedAt = time.Now()
		quote.RecomputeDerivedTotals()

		if err := storage.InsertQuote(db, &quote); err != nil {
			log.Printf("Error inserting quote: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert quote", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, quote)

		logEntry := models.ActivityLog{
			EventContext: "Quote",
			EventName:    "Submit",
			Description:  "Quote submitted",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     quote.QuoteNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log quote submission: %v", logErr)
		}
	}
}

// GetQuote returns one quote with evaluation and comparison blocks.
// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} models.Quote
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id} [get]
func GetQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		quote, err := storage.GetQuoteByID(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

// GetQuotesByRFQ lists all quotes of an RFQ in submission order.
// @Summary List quotes for RFQ
// @Tags Quotes
// @Produce json
// @Param id path int true "RFQ ID"
// @Success 200 {array} models.Quote
// @Failure 400 {object} models.ErrorResponse
// @Router /api/rfqs/{id}/quotes [get]
func GetQuotesByRFQ(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfqID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFQ ID"})
			return
		}

		quotes, err := storage.GetQuotesByRFQ(db, rfqID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes", "details": err.Error()})
			return
		}
		if quotes == nil {
			quotes = []*models.Quote{}
		}
		c.JSON(http.StatusOK, quotes)
	}
}

// transitionQuote moves a quote through the status table after validating the
// transition and logs the change.
func transitionQuote(db *sql.DB, c *gin.Context, to, eventName string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return
	}

	quote, err := storage.GetQuoteByID(db, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionQuote(quote.Status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"details": "cannot move quote from " + quote.Status + " to " + to,
		})
		return
	}

	if err := storage.UpdateQuoteStatus(db, id, to); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote status", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quote moved to " + to})

	logEntry := models.ActivityLog{
		EventContext: "Quote",
		EventName:    eventName,
		Description:  "Quote moved to " + to,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     quote.QuoteNumber,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log quote transition: %v", logErr)
	}
}

// StartQuoteReview moves a received quote into under_review.
// @Summary Start quote review
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/review [put]
func StartQuoteReview(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionQuote(db, c, models.QuoteStatusUnderReview, "StartReview")
	}
}

// RequestQuoteClarification asks the supplier for clarification.
// @Summary Request clarification
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/request_clarification [put]
func RequestQuoteClarification(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionQuote(db, c, models.QuoteStatusClarificationRequested, "RequestClarification")
	}
}

// ReceiveQuoteClarification records the supplier's clarification.
// @Summary Receive clarification
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/receive_clarification [put]
func ReceiveQuoteClarification(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionQuote(db, c, models.QuoteStatusClarificationReceived, "ReceiveClarification")
	}
}

// ResumeQuoteReview puts a clarified quote back into review.
// @Summary Resume review after clarification
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/resume_review [put]
func ResumeQuoteReview(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionQuote(db, c, models.QuoteStatusUnderReview, "ResumeReview")
	}
}

// EvaluateQuote scores a quote and refreshes the RFQ comparison metrics.
// @Summary Evaluate quote
// @Description Merges the evaluation scores into the quote, recomputes the weighted total score, moves the quote to evaluated, then recomputes comparison metrics across the RFQ. Requires Authorization header.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param body body models.QuoteEvaluationInput true "Evaluation scores"
// @Success 200 {object} models.Quote
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/quotes/{id}/evaluate [put]
func EvaluateQuote(db *sql.DB, quoteService *services.QuoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		var input models.QuoteEvaluationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		quote, err := storage.GetQuoteByID(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		if !models.CanTransitionQuote(quote.Status, models.QuoteStatusEvaluated) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid status transition",
				"details": "cannot evaluate quote in status " + quote.Status,
			})
			return
		}

		quote.Evaluate(input, session.UserID)

		if err := storage.SaveEvaluation(db, quote); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save evaluation", "details": err.Error()})
			return
		}
		if err := storage.InsertQuoteActivity(db, quote.ID, quote.Activity[len(quote.Activity)-1:]); err != nil {
			log.Printf("Failed to record quote activity: %v", err)
		}

		// Every evaluation change refreshes the comparative metrics of the
		// whole RFQ. Writes are best-effort; a partial failure is reported
		// but does not undo the evaluation.
		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()
		if err := quoteService.CalculateComparisonMetrics(ctx, quote.RFQID); err != nil {
			log.Printf("Comparison metrics for RFQ %d: %v", quote.RFQID, err)
			c.JSON(http.StatusOK, gin.H{"quote": quote, "warning": err.Error()})
		} else {
			c.JSON(http.StatusOK, quote)
		}

		logEntry := models.ActivityLog{
			EventContext: "Quote",
			EventName:    "Evaluate",
			Description:  "Quote evaluated",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     quote.QuoteNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log quote evaluation: %v", logErr)
		}
	}
}

// QuoteDecisionRequest is the body for select/reject calls.
type QuoteDecisionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SelectQuote picks the winning quote of an RFQ and opens a draft purchase
// order from it.
// @Summary Select quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param body body QuoteDecisionRequest true "Decision reason"
// @Success 200 {object} object
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/select [put]
func SelectQuote(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		decideQuote(db, emailService, c, models.QuoteStatusSelected)
	}
}

// RejectQuote turns down a quote.
// @Summary Reject quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param body body QuoteDecisionRequest true "Decision reason"
// @Success 200 {object} object
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/reject [put]
func RejectQuote(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		decideQuote(db, emailService, c, models.QuoteStatusRejected)
	}
}

func decideQuote(db *sql.DB, emailService *services.EmailService, c *gin.Context, decision string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return
	}

	var req QuoteDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required", "details": err.Error()})
		return
	}

	quote, err := storage.GetQuoteByID(db, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionQuote(quote.Status, decision) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move quote from " + quote.Status + " to " + decision,
		})
		return
	}

	if decision == models.QuoteStatusSelected {
		quote.Select(req.Reason, session.UserID)
	} else {
		quote.Reject(req.Reason, session.UserID)
	}

	if err := storage.SaveDecision(db, quote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save decision", "details": err.Error()})
		return
	}
	if err := storage.InsertQuoteActivity(db, quote.ID, quote.Activity[len(quote.Activity)-1:]); err != nil {
		log.Printf("Failed to record quote activity: %v", err)
	}

	response := gin.H{"quote": quote}

	if decision == models.QuoteStatusSelected {
		// A selected quote becomes a draft purchase order and awards the RFQ.
		po := models.NewPurchaseOrderFromQuote(quote, repository.GeneratePONumber(), session.UserID)
		if err := insertPurchaseOrder(db, po); err != nil {
			log.Printf("Failed to create purchase order from quote %d: %v", quote.ID, err)
			response["warning"] = "quote selected but purchase order creation failed: " + err.Error()
		} else {
			response["purchase_order"] = po
		}

		if _, err := db.Exec(`UPDATE rfqs SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			models.RFQStatusAwarded, quote.RFQID, models.RFQStatusClosed); err != nil {
			log.Printf("Failed to mark RFQ %d awarded: %v", quote.RFQID, err)
		}
	}

	// Tell the supplier. Email failure is logged, not surfaced.
	var vendor models.Vendor
	err = db.QueryRow(`SELECT id, name, email FROM vendors WHERE id = $1`, quote.SupplierID).
		Scan(&vendor.ID, &vendor.Name, &vendor.Email)
	if err == nil {
		templateType := "quote_rejected"
		if decision == models.QuoteStatusSelected {
			templateType = "quote_selected"
		}
		if mailErr := emailService.SendQuoteDecisionEmail(templateType, vendor, quote, req.Reason); mailErr != nil {
			log.Printf("Failed to send quote decision email: %v", mailErr)
		}
	}

	c.JSON(http.StatusOK, response)

	logEntry := models.ActivityLog{
		EventContext: "Quote",
		EventName:    "Decision",
		Description:  "Quote " + decision,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     quote.QuoteNumber,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log quote decision: %v", logErr)
	}
}

// RecalculateComparison re-runs the comparison pass for an RFQ on demand.
// @Summary Recalculate RFQ comparison metrics
// @Tags Quotes
// @Param id path int true "RFQ ID"
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rfqs/{id}/comparison/recalculate [post]
func RecalculateComparison(quoteService *services.QuoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfqID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFQ ID"})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()
		if err := quoteService.CalculateComparisonMetrics(ctx, rfqID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Comparison metrics failed", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Comparison metrics recalculated"})
	}
}
