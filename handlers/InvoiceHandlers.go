package handlers

import (
	"backend/models"
	"backend/repository"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateInvoice registers a supplier invoice against a purchase order.
// @Summary Create invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param body body models.Invoice true "Invoice data"
// @Success 201 {object} models.Invoice
// @Failure 400 {object} models.ErrorResponse
// @Router /api/invoices [post]
func CreateInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var inv models.Invoice
		if err := c.ShouldBindJSON(&inv); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(inv.LineItems) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one line item is required"})
			return
		}

		var poStatus string
		err = db.QueryRow(`SELECT status FROM purchase_orders WHERE id = $1`, inv.PurchaseOrderID).Scan(&poStatus)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if poStatus == models.POStatusDraft || poStatus == models.POStatusCancelled {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Purchase order cannot be invoiced",
				"details": "purchase order status is " + poStatus,
			})
			return
		}

		inv.InvoiceNumber = repository.GenerateInvoiceNumber()
		inv.Status = models.InvoiceStatusDraft
		inv.TotalPaid = 0
		inv.CreatedBy = session.UserID
		inv.CreatedAt = time.Now()
		inv.UpdatedAt = time.Now()

		var total float64
		for i := range inv.LineItems {
			inv.LineItems[i].TotalPrice = inv.LineItems[i].Quantity * inv.LineItems[i].UnitPrice
			total += inv.LineItems[i].TotalPrice
		}
		inv.TotalAmount = total

		err = db.QueryRow(`
			INSERT INTO invoices (invoice_number, purchase_order_id, supplier_id, total_amount,
				total_paid, currency, due_date, status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			inv.InvoiceNumber, inv.PurchaseOrderID, inv.SupplierID, inv.TotalAmount,
			inv.TotalPaid, inv.Currency, inv.DueDate, inv.Status, inv.CreatedBy,
			inv.CreatedAt, inv.UpdatedAt,
		).Scan(&inv.ID)
		if err != nil {
			log.Printf("Error inserting invoice: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert invoice", "details": err.Error()})
			return
		}

		for i := range inv.LineItems {
			inv.LineItems[i].InvoiceID = inv.ID
			err := db.QueryRow(`
				INSERT INTO invoice_line_items (invoice_id, description, quantity, unit_price, total_price)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				inv.ID, inv.LineItems[i].Description, inv.LineItems[i].Quantity,
				inv.LineItems[i].UnitPrice, inv.LineItems[i].TotalPrice,
			).Scan(&inv.LineItems[i].ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert invoice line", "details": err.Error()})
				return
			}
		}

		c.JSON(http.StatusCreated, inv)

		logEntry := models.ActivityLog{
			EventContext: "Invoice",
			EventName:    "Create",
			Description:  "Invoice created against purchase order " + strconv.Itoa(inv.PurchaseOrderID),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     inv.InvoiceNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log invoice creation: %v", logErr)
		}
	}
}

func fetchInvoice(db *sql.DB, id int) (*models.Invoice, error) {
	var inv models.Invoice
	var disputeReason sql.NullString
	err := db.QueryRow(`
		SELECT id, invoice_number, purchase_order_id, supplier_id, total_amount, total_paid,
			currency, due_date, status, dispute_reason, created_by, created_at, updated_at
		FROM invoices WHERE id = $1`, id).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.PurchaseOrderID, &inv.SupplierID, &inv.TotalAmount,
		&inv.TotalPaid, &inv.Currency, &inv.DueDate, &inv.Status, &disputeReason,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.DisputeReason = disputeReason.String

	rows, err := db.Query(`
		SELECT id, invoice_id, description, quantity, unit_price, total_price
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var li models.InvoiceLineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TotalPrice); err != nil {
			return nil, err
		}
		inv.LineItems = append(inv.LineItems, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payRows, err := db.Query(`
		SELECT id, invoice_id, amount, paid_at, reference, recorded_by
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY paid_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p models.InvoicePayment
		if err := payRows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaidAt, &p.Reference, &p.RecordedBy); err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, p)
	}
	return &inv, payRows.Err()
}

// GetInvoice returns one invoice with its lines and payments.
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} models.ErrorResponse
// @Router /api/invoices/{id} [get]
func GetInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
			return
		}
		inv, err := fetchInvoice(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// SubmitInvoice submits a draft invoice for approval.
// @Summary Submit invoice
// @Tags Invoices
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/submit [put]
func SubmitInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionInvoice(db, c, models.InvoiceStatusSubmitted, "Submit", "")
	}
}

// ApproveInvoice approves a submitted invoice for payment.
// @Summary Approve invoice
// @Tags Invoices
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/approve [put]
func ApproveInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionInvoice(db, c, models.InvoiceStatusApproved, "Approve", "")
	}
}

// InvoiceDisputeRequest carries the dispute reason.
type InvoiceDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DisputeInvoice flags an invoice as disputed.
// @Summary Dispute invoice
// @Tags Invoices
// @Accept json
// @Param id path int true "Invoice ID"
// @Param body body InvoiceDisputeRequest true "Dispute reason"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/dispute [put]
func DisputeInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InvoiceDisputeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		transitionInvoice(db, c, models.InvoiceStatusDisputed, "Dispute", req.Reason)
	}
}

// ResolveInvoiceDispute puts a disputed invoice back into the approval queue.
// @Summary Resolve invoice dispute
// @Tags Invoices
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/resolve [put]
func ResolveInvoiceDispute(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionInvoice(db, c, models.InvoiceStatusSubmitted, "ResolveDispute", "")
	}
}

// CancelInvoice cancels an invoice that has not been approved.
// @Summary Cancel invoice
// @Tags Invoices
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/cancel [put]
func CancelInvoice(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionInvoice(db, c, models.InvoiceStatusCancelled, "Cancel", "")
	}
}

func transitionInvoice(db *sql.DB, c *gin.Context, to, eventName, disputeReason string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	var number, status string
	err = db.QueryRow(`SELECT invoice_number, status FROM invoices WHERE id = $1`, id).Scan(&number, &status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionInvoice(status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move invoice from " + status + " to " + to,
		})
		return
	}

	if _, err := db.Exec(`
		UPDATE invoices SET status = $1, dispute_reason = $2, updated_at = NOW() WHERE id = $3`,
		to, disputeReason, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice moved to " + to})

	logEntry := models.ActivityLog{
		EventContext: "Invoice",
		EventName:    eventName,
		Description:  "Invoice moved to " + to,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     number,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log invoice transition: %v", logErr)
	}
}

// RecordPaymentRequest carries one payment against an approved invoice.
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required"`
	Reference string  `json:"reference"`
}

// RecordInvoicePayment records a payment and marks the invoice paid once the
// payments cover the total.
// @Summary Record invoice payment
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param body body RecordPaymentRequest true "Payment data"
// @Success 200 {object} models.Invoice
// @Failure 409 {object} models.ErrorResponse
// @Router /api/invoices/{id}/payments [post]
func RecordInvoicePayment(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
			return
		}

		var req RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}

		inv, err := fetchInvoice(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if inv.Status != models.InvoiceStatusApproved {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invoice not payable",
				"details": "payments are only recorded against approved invoices (status: " + inv.Status + ")",
			})
			return
		}

		payment := models.InvoicePayment{
			InvoiceID:  id,
			Amount:     req.Amount,
			PaidAt:     time.Now(),
			Reference:  req.Reference,
			RecordedBy: session.UserID,
		}
		err = db.QueryRow(`
			INSERT INTO invoice_payments (invoice_id, amount, paid_at, reference, recorded_by)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			payment.InvoiceID, payment.Amount, payment.PaidAt, payment.Reference, payment.RecordedBy,
		).Scan(&payment.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment", "details": err.Error()})
			return
		}

		inv.Payments = append(inv.Payments, payment)
		inv.RecomputeTotalPaid()

		newStatus := inv.Status
		if inv.IsFullyPaid() && models.CanTransitionInvoice(inv.Status, models.InvoiceStatusPaid) {
			newStatus = models.InvoiceStatusPaid
		}
		if _, err := db.Exec(`
			UPDATE invoices SET total_paid = $1, status = $2, updated_at = NOW() WHERE id = $3`,
			inv.TotalPaid, newStatus, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice totals", "details": err.Error()})
			return
		}
		inv.Status = newStatus

		c.JSON(http.StatusOK, inv)

		logEntry := models.ActivityLog{
			EventContext: "Invoice",
			EventName:    "Payment",
			Description:  "Payment recorded, invoice status " + inv.Status,
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     inv.InvoiceNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log invoice payment: %v", logErr)
		}
	}
}
