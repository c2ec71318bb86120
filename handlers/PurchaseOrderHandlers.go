package handlers

import (
	"backend/models"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func insertPurchaseOrder(db *sql.DB, po *models.PurchaseOrder) error {
	err := db.QueryRow(`
		INSERT INTO purchase_orders (po_number, quote_id, requisition_id, supplier_id, buyer_id,
			total_amount, currency, payment_terms, delivery_terms, expected_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		po.PONumber, po.QuoteID, po.RequisitionID, po.SupplierID, po.BuyerID,
		po.TotalAmount, po.Currency, po.PaymentTerms, po.DeliveryTerms, po.ExpectedDate,
		po.Status, po.CreatedAt, po.UpdatedAt,
	).Scan(&po.ID)
	if err != nil {
		return err
	}

	for i := range po.LineItems {
		po.LineItems[i].PurchaseOrderID = po.ID
		err := db.QueryRow(`
			INSERT INTO purchase_order_line_items (purchase_order_id, description, quantity, unit_price, total_price, received_qty)
			VALUES ($1, $2, $3, $4, $5, 0) RETURNING id`,
			po.ID, po.LineItems[i].Description, po.LineItems[i].Quantity,
			po.LineItems[i].UnitPrice, po.LineItems[i].TotalPrice,
		).Scan(&po.LineItems[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func fetchPurchaseOrder(db *sql.DB, id int) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	var expectedDate, issuedAt, acknowledgedAt sql.NullTime
	var cancelReason sql.NullString

	err := db.QueryRow(`
		SELECT id, po_number, quote_id, requisition_id, supplier_id, buyer_id,
			total_amount, currency, payment_terms, delivery_terms, expected_date,
			status, issued_at, acknowledged_at, cancel_reason, created_at, updated_at
		FROM purchase_orders WHERE id = $1`, id).Scan(
		&po.ID, &po.PONumber, &po.QuoteID, &po.RequisitionID, &po.SupplierID, &po.BuyerID,
		&po.TotalAmount, &po.Currency, &po.PaymentTerms, &po.DeliveryTerms, &expectedDate,
		&po.Status, &issuedAt, &acknowledgedAt, &cancelReason, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expectedDate.Valid {
		po.ExpectedDate = &expectedDate.Time
	}
	if issuedAt.Valid {
		po.IssuedAt = &issuedAt.Time
	}
	if acknowledgedAt.Valid {
		po.AcknowledgedAt = &acknowledgedAt.Time
	}
	po.CancelReason = cancelReason.String

	rows, err := db.Query(`
		SELECT id, purchase_order_id, description, quantity, unit_price, total_price, received_qty
		FROM purchase_order_line_items WHERE purchase_order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var li models.POLineItem
		if err := rows.Scan(&li.ID, &li.PurchaseOrderID, &li.Description, &li.Quantity,
			&li.UnitPrice, &li.TotalPrice, &li.ReceivedQty); err != nil {
			return nil, err
		}
		po.LineItems = append(po.LineItems, li)
	}
	return &po, rows.Err()
}

// GetPurchaseOrder returns one purchase order with its lines.
// @Summary Get purchase order
// @Tags PurchaseOrders
// @Produce json
// @Param id path int true "Purchase order ID"
// @Success 200 {object} models.PurchaseOrder
// @Failure 404 {object} models.ErrorResponse
// @Router /api/purchase-orders/{id} [get]
func GetPurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
			return
		}
		po, err := fetchPurchaseOrder(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, po)
	}
}

// GetPurchaseOrders lists purchase orders, optionally filtered by status or supplier.
// @Summary List purchase orders
// @Tags PurchaseOrders
// @Produce json
// @Param status query string false "Filter by status"
// @Param supplier_id query int false "Filter by supplier"
// @Success 200 {array} models.PurchaseOrder
// @Router /api/purchase-orders [get]
func GetPurchaseOrders(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, po_number, quote_id, requisition_id, supplier_id, buyer_id,
				total_amount, currency, status, created_at, updated_at
			FROM purchase_orders WHERE 1=1`
		args := []interface{}{}
		argIdx := 1

		if status := c.Query("status"); status != "" {
			query += " AND status = $" + strconv.Itoa(argIdx)
			args = append(args, status)
			argIdx++
		}
		if supplier := c.Query("supplier_id"); supplier != "" {
			query += " AND supplier_id = $" + strconv.Itoa(argIdx)
			args = append(args, supplier)
			argIdx++
		}
		query += " ORDER BY created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		orders := []models.PurchaseOrder{}
		for rows.Next() {
			var po models.PurchaseOrder
			if err := rows.Scan(&po.ID, &po.PONumber, &po.QuoteID, &po.RequisitionID,
				&po.SupplierID, &po.BuyerID, &po.TotalAmount, &po.Currency, &po.Status,
				&po.CreatedAt, &po.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			orders = append(orders, po)
		}
		c.JSON(http.StatusOK, orders)
	}
}

func transitionPO(db *sql.DB, c *gin.Context, to, eventName string, extraSet string, extraArgs ...interface{}) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
		return
	}

	var number, status string
	err = db.QueryRow(`SELECT po_number, status FROM purchase_orders WHERE id = $1`, id).Scan(&number, &status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionPO(status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move purchase order from " + status + " to " + to,
		})
		return
	}

	query := "UPDATE purchase_orders SET status = $1, updated_at = NOW()"
	args := []interface{}{to}
	if extraSet != "" {
		query += ", " + extraSet
		args = append(args, extraArgs...)
	}
	query += " WHERE id = $" + strconv.Itoa(len(args)+1)
	args = append(args, id)

	if _, err := db.Exec(query, args...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase order", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Purchase order moved to " + to})

	logEntry := models.ActivityLog{
		EventContext: "PurchaseOrder",
		EventName:    eventName,
		Description:  "Purchase order moved to " + to,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     number,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log purchase order transition: %v", logErr)
	}
}

// IssuePurchaseOrder sends a draft purchase order to the supplier.
// @Summary Issue purchase order
// @Tags PurchaseOrders
// @Param id path int true "Purchase order ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/purchase-orders/{id}/issue [put]
func IssuePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionPO(db, c, models.POStatusIssued, "Issue", "issued_at = NOW()")
	}
}

// AcknowledgePurchaseOrder records the supplier's acceptance of an issued order.
// @Summary Acknowledge purchase order
// @Tags PurchaseOrders
// @Param id path int true "Purchase order ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/purchase-orders/{id}/acknowledge [put]
func AcknowledgePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionPO(db, c, models.POStatusAcknowledged, "Acknowledge", "acknowledged_at = NOW()")
	}
}

// POCancelRequest carries the cancellation reason.
type POCancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelPurchaseOrder cancels an order that has not yet started delivering.
// @Summary Cancel purchase order
// @Tags PurchaseOrders
// @Accept json
// @Param id path int true "Purchase order ID"
// @Param body body POCancelRequest true "Cancellation reason"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/purchase-orders/{id}/cancel [put]
func CancelPurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req POCancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		transitionPO(db, c, models.POStatusCancelled, "Cancel", "cancel_reason = $2", req.Reason)
	}
}

// ClosePurchaseOrder closes a fully delivered order.
// @Summary Close purchase order
// @Tags PurchaseOrders
// @Param id path int true "Purchase order ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/purchase-orders/{id}/close [put]
func ClosePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionPO(db, c, models.POStatusClosed, "Close", "")
	}
}
