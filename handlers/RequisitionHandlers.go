package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// CreateRequisition creates a draft purchase requisition.
// @Summary Create requisition
// @Tags Requisitions
// @Accept json
// @Produce json
// @Param body body models.Requisition true "Requisition data"
// @Success 201 {object} models.Requisition
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/requisitions [post]
func CreateRequisition(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var req models.Requisition
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		req.RequisitionNumber = repository.GenerateRequisitionNumber()
		req.RequesterID = session.UserID
		req.Status = models.RequisitionStatusDraft
		req.CreatedAt = time.Now()
		req.UpdatedAt = time.Now()

		var total float64
		for i := range req.LineItems {
			total += req.LineItems[i].EstimatedCost
		}
		req.EstimatedTotal = total

		err = db.QueryRow(`
			INSERT INTO purchase_requisitions (requisition_number, title, description, requester_id,
				department, estimated_total, currency, required_by, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			req.RequisitionNumber, req.Title, req.Description, req.RequesterID,
			req.Department, req.EstimatedTotal, req.Currency, req.RequiredBy, req.Status,
			req.CreatedAt, req.UpdatedAt,
		).Scan(&req.ID)
		if err != nil {
			log.Printf("Error inserting requisition: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert requisition", "details": err.Error()})
			return
		}

		for i := range req.LineItems {
			req.LineItems[i].RequisitionID = req.ID
			err := db.QueryRow(`
				INSERT INTO requisition_line_items (requisition_id, description, quantity, unit, estimated_cost)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				req.ID, req.LineItems[i].Description, req.LineItems[i].Quantity,
				req.LineItems[i].Unit, req.LineItems[i].EstimatedCost,
			).Scan(&req.LineItems[i].ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert requisition line", "details": err.Error()})
				return
			}
		}

		c.JSON(http.StatusCreated, req)

		logEntry := models.ActivityLog{
			EventContext: "Requisition",
			EventName:    "Create",
			Description:  "Requisition created",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     req.RequisitionNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log requisition creation: %v", logErr)
		}
	}
}

// GetRequisition returns one requisition with its lines.
// @Summary Get requisition
// @Tags Requisitions
// @Produce json
// @Param id path int true "Requisition ID"
// @Success 200 {object} models.Requisition
// @Failure 404 {object} models.ErrorResponse
// @Router /api/requisitions/{id} [get]
func GetRequisition(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requisition ID"})
			return
		}

		req, err := fetchRequisition(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Requisition not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

func fetchRequisition(db *sql.DB, id int) (*models.Requisition, error) {
	var req models.Requisition
	var approvedBy sql.NullInt64
	var approvedAt sql.NullTime
	var rejectionReason sql.NullString

	err := db.QueryRow(`
		SELECT id, requisition_number, title, description, requester_id, department,
			estimated_total, currency, required_by, status, approved_by, approved_at,
			rejection_reason, created_at, updated_at
		FROM purchase_requisitions WHERE id = $1`, id).Scan(
		&req.ID, &req.RequisitionNumber, &req.Title, &req.Description, &req.RequesterID,
		&req.Department, &req.EstimatedTotal, &req.Currency, &req.RequiredBy, &req.Status,
		&approvedBy, &approvedAt, &rejectionReason, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if approvedBy.Valid {
		v := int(approvedBy.Int64)
		req.ApprovedBy = &v
	}
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	req.RejectionReason = rejectionReason.String

	rows, err := db.Query(`
		SELECT id, requisition_id, description, quantity, unit, estimated_cost
		FROM requisition_line_items WHERE requisition_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var li models.RequisitionLineItem
		if err := rows.Scan(&li.ID, &li.RequisitionID, &li.Description, &li.Quantity, &li.Unit, &li.EstimatedCost); err != nil {
			return nil, err
		}
		req.LineItems = append(req.LineItems, li)
	}
	return &req, rows.Err()
}

// SubmitRequisition moves a draft requisition into the approval queue.
// @Summary Submit requisition
// @Tags Requisitions
// @Param id path int true "Requisition ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/requisitions/{id}/submit [put]
func SubmitRequisition(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionRequisition(db, c, models.RequisitionStatusSubmitted, "Submit", "")
	}
}

// RequisitionDecisionRequest carries the approval/rejection reason.
type RequisitionDecisionRequest struct {
	Reason string `json:"reason"`
}

// ApproveRequisition approves a submitted requisition and emails the requester.
// @Summary Approve requisition
// @Tags Requisitions
// @Accept json
// @Param id path int true "Requisition ID"
// @Param body body RequisitionDecisionRequest false "Reason"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/requisitions/{id}/approve [put]
func ApproveRequisition(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		decideRequisition(db, emailService, c, models.RequisitionStatusApproved)
	}
}

// RejectRequisition rejects a submitted requisition and emails the requester.
// @Summary Reject requisition
// @Tags Requisitions
// @Accept json
// @Param id path int true "Requisition ID"
// @Param body body RequisitionDecisionRequest true "Reason"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/requisitions/{id}/reject [put]
func RejectRequisition(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		decideRequisition(db, emailService, c, models.RequisitionStatusRejected)
	}
}

func decideRequisition(db *sql.DB, emailService *services.EmailService, c *gin.Context, decision string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requisition ID"})
		return
	}

	var req RequisitionDecisionRequest
	// Reason is optional on approve, required on reject.
	_ = c.ShouldBindJSON(&req)
	if decision == models.RequisitionStatusRejected && req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
		return
	}

	requisition, err := fetchRequisition(db, id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Requisition not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionRequisition(requisition.Status, decision) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move requisition from " + requisition.Status + " to " + decision,
		})
		return
	}

	_, err = db.Exec(`
		UPDATE purchase_requisitions
		SET status = $1, approved_by = $2, approved_at = NOW(), rejection_reason = $3, updated_at = NOW()
		WHERE id = $4`,
		decision, session.UserID, req.Reason, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update requisition", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Requisition " + decision})

	// Notify the requester by email and in-app notification.
	var requester models.User
	err = db.QueryRow(`SELECT id, email, first_name, last_name FROM users WHERE id = $1`, requisition.RequesterID).
		Scan(&requester.ID, &requester.Email, &requester.FirstName, &requester.LastName)
	if err == nil {
		templateType := "requisition_rejected"
		if decision == models.RequisitionStatusApproved {
			templateType = "requisition_approved"
		}
		if mailErr := emailService.SendRequisitionDecisionEmail(templateType, requester, requisition, req.Reason); mailErr != nil {
			log.Printf("Failed to send requisition decision email: %v", mailErr)
		}
		notifyUser(db, requester.ID, "Requisition "+requisition.RequisitionNumber+" was "+decision, "/requisitions/"+strconv.Itoa(id))
	}

	logEntry := models.ActivityLog{
		EventContext: "Requisition",
		EventName:    "Decision",
		Description:  "Requisition " + decision,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     requisition.RequisitionNumber,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log requisition decision: %v", logErr)
	}
}

func transitionRequisition(db *sql.DB, c *gin.Context, to, eventName, reason string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requisition ID"})
		return
	}

	var number, status string
	err = db.QueryRow(`SELECT requisition_number, status FROM purchase_requisitions WHERE id = $1`, id).
		Scan(&number, &status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Requisition not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionRequisition(status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move requisition from " + status + " to " + to,
		})
		return
	}

	if _, err := db.Exec(`UPDATE purchase_requisitions SET status = $1, updated_at = NOW() WHERE id = $2`, to, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update requisition", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Requisition moved to " + to})

	logEntry := models.ActivityLog{
		EventContext: "Requisition",
		EventName:    eventName,
		Description:  "Requisition moved to " + to,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     number,
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log requisition transition: %v", logErr)
	}
}

// CreateRFQ issues an RFQ from an approved requisition to the listed suppliers
// and marks the requisition converted.
// @Summary Create RFQ from requisition
// @Tags RFQs
// @Accept json
// @Produce json
// @Param id path int true "Requisition ID"
// @Param body body models.RFQ true "RFQ data (supplier_ids, due_date, notes)"
// @Success 201 {object} models.RFQ
// @Failure 409 {object} models.ErrorResponse
// @Router /api/requisitions/{id}/rfq [post]
func CreateRFQ(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		reqID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requisition ID"})
			return
		}

		var rfq models.RFQ
		if err := c.ShouldBindJSON(&rfq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(rfq.SupplierIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one supplier is required"})
			return
		}

		var number, status string
		err = db.QueryRow(`SELECT requisition_number, status FROM purchase_requisitions WHERE id = $1`, reqID).
			Scan(&number, &status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Requisition not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !models.CanTransitionRequisition(status, models.RequisitionStatusConverted) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid status transition",
				"details": "requisition must be approved before issuing an RFQ (status: " + status + ")",
			})
			return
		}

		rfq.RFQNumber = repository.GenerateRFQNumber()
		rfq.RequisitionID = reqID
		rfq.IssuedBy = session.UserID
		rfq.Status = models.RFQStatusOpen
		rfq.CreatedAt = time.Now()
		rfq.UpdatedAt = time.Now()

		supplierIDs := make(pq.Int64Array, len(rfq.SupplierIDs))
		for i, id := range rfq.SupplierIDs {
			supplierIDs[i] = int64(id)
		}

		err = db.QueryRow(`
			INSERT INTO rfqs (rfq_number, requisition_id, issued_by, supplier_ids, due_date, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			rfq.RFQNumber, rfq.RequisitionID, rfq.IssuedBy, supplierIDs,
			rfq.DueDate, rfq.Status, rfq.Notes, rfq.CreatedAt, rfq.UpdatedAt,
		).Scan(&rfq.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert RFQ", "details": err.Error()})
			return
		}

		if _, err := db.Exec(`UPDATE purchase_requisitions SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.RequisitionStatusConverted, reqID); err != nil {
			log.Printf("Failed to mark requisition %d converted: %v", reqID, err)
		}

		c.JSON(http.StatusCreated, rfq)

		logEntry := models.ActivityLog{
			EventContext: "RFQ",
			EventName:    "Create",
			Description:  "RFQ issued from requisition " + number,
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     rfq.RFQNumber,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log RFQ creation: %v", logErr)
		}
	}
}

// CloseRFQ stops accepting quotes on an RFQ.
// @Summary Close RFQ
// @Tags RFQs
// @Param id path int true "RFQ ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfqs/{id}/close [put]
func CloseRFQ(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFQ ID"})
			return
		}

		var status string
		err = db.QueryRow(`SELECT status FROM rfqs WHERE id = $1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "RFQ not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !models.CanTransitionRFQ(status, models.RFQStatusClosed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition", "details": "RFQ is " + status})
			return
		}

		if _, err := db.Exec(`UPDATE rfqs SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.RFQStatusClosed, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close RFQ", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "RFQ closed"})
	}
}
