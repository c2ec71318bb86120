package handlers

import (
	"backend/models"
	"backend/services"
	"backend/utils"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// CreateCommunication creates a draft mass communication.
// @Summary Create communication
// @Tags Communications
// @Accept json
// @Produce json
// @Param body body models.Communication true "Communication data"
// @Success 201 {object} models.Communication
// @Failure 400 {object} models.ErrorResponse
// @Router /api/communications [post]
func CreateCommunication(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var comm models.Communication
		if err := c.ShouldBindJSON(&comm); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if comm.Subject == "" || comm.Body == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject and body are required"})
			return
		}
		switch comm.AudienceType {
		case models.AudienceAll:
		case models.AudienceDepartment:
			if comm.Department == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "department is required for department audience"})
				return
			}
		case models.AudienceRecipients:
			if len(comm.RecipientIDs) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_ids are required for recipients audience"})
				return
			}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audience_type"})
			return
		}

		comm.Status = models.CommunicationStatusDraft
		comm.CreatedBy = session.UserID
		comm.CreatedAt = time.Now()
		comm.UpdatedAt = time.Now()

		recipientIDs := make(pq.Int64Array, len(comm.RecipientIDs))
		for i, id := range comm.RecipientIDs {
			recipientIDs[i] = int64(id)
		}

		err = db.QueryRow(`
			INSERT INTO communications (subject, body, audience_type, department, recipient_ids,
				status, scheduled_at, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			comm.Subject, comm.Body, comm.AudienceType, comm.Department, recipientIDs,
			comm.Status, comm.ScheduledAt, comm.CreatedBy, comm.CreatedAt, comm.UpdatedAt,
		).Scan(&comm.ID)
		if err != nil {
			log.Printf("Error inserting communication: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert communication", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, comm)

		logEntry := models.ActivityLog{
			EventContext: "Communication",
			EventName:    "Create",
			Description:  "Communication drafted: " + comm.Subject,
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     strconv.Itoa(comm.ID),
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log communication creation: %v", logErr)
		}
	}
}

// GetCommunications lists communications newest first.
// @Summary List communications
// @Tags Communications
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Communication
// @Router /api/communications [get]
func GetCommunications(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, subject, body, audience_type, department, recipient_ids, status,
				scheduled_at, sent_at, sent_count, failed_count, created_by, created_at, updated_at
			FROM communications`
		args := []interface{}{}
		if status := c.Query("status"); status != "" {
			query += " WHERE status = $1"
			args = append(args, status)
		}
		query += " ORDER BY created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		comms := []models.Communication{}
		for rows.Next() {
			var comm models.Communication
			var department sql.NullString
			var recipientIDs pq.Int64Array
			var scheduledAt, sentAt sql.NullTime
			if err := rows.Scan(&comm.ID, &comm.Subject, &comm.Body, &comm.AudienceType,
				&department, &recipientIDs, &comm.Status, &scheduledAt, &sentAt,
				&comm.SentCount, &comm.FailedCount, &comm.CreatedBy, &comm.CreatedAt, &comm.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			comm.Department = department.String
			for _, id := range recipientIDs {
				comm.RecipientIDs = append(comm.RecipientIDs, int(id))
			}
			if scheduledAt.Valid {
				comm.ScheduledAt = &scheduledAt.Time
			}
			if sentAt.Valid {
				comm.SentAt = &sentAt.Time
			}
			comms = append(comms, comm)
		}
		c.JSON(http.StatusOK, comms)
	}
}

// ScheduleCommunicationRequest carries the dispatch time.
type ScheduleCommunicationRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// ScheduleCommunication schedules a draft for the dispatch cron.
// @Summary Schedule communication
// @Tags Communications
// @Accept json
// @Param id path int true "Communication ID"
// @Param body body ScheduleCommunicationRequest true "Dispatch time"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/communications/{id}/schedule [put]
func ScheduleCommunication(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid communication ID"})
			return
		}

		var req ScheduleCommunicationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if req.ScheduledAt.Before(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be in the future"})
			return
		}

		var status string
		err = db.QueryRow(`SELECT status FROM communications WHERE id = $1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Communication not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !models.CanTransitionCommunication(status, models.CommunicationStatusScheduled) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid status transition",
				"details": "cannot schedule a communication in status " + status,
			})
			return
		}

		if _, err := db.Exec(`
			UPDATE communications SET status = $1, scheduled_at = $2, updated_at = NOW() WHERE id = $3`,
			models.CommunicationStatusScheduled, req.ScheduledAt, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule communication", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Communication scheduled"})
	}
}

// UnscheduleCommunication pulls a scheduled communication back to draft.
// @Summary Unschedule communication
// @Tags Communications
// @Param id path int true "Communication ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/communications/{id}/unschedule [put]
func UnscheduleCommunication(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid communication ID"})
			return
		}

		var status string
		err = db.QueryRow(`SELECT status FROM communications WHERE id = $1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Communication not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !models.CanTransitionCommunication(status, models.CommunicationStatusDraft) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid status transition",
				"details": "cannot unschedule a communication in status " + status,
			})
			return
		}

		if _, err := db.Exec(`
			UPDATE communications SET status = $1, scheduled_at = NULL, updated_at = NOW() WHERE id = $2`,
			models.CommunicationStatusDraft, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unschedule communication", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Communication moved back to draft"})
	}
}

// SendCommunicationNow dispatches a draft or scheduled communication
// immediately.
// @Summary Send communication now
// @Tags Communications
// @Param id path int true "Communication ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/communications/{id}/send [post]
func SendCommunicationNow(db *sql.DB, commService *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid communication ID"})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()
		if err := commService.Dispatch(ctx, id); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Failed to dispatch communication", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Communication dispatched"})

		logEntry := models.ActivityLog{
			EventContext: "Communication",
			EventName:    "Send",
			Description:  "Communication dispatched",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     strconv.Itoa(id),
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log communication dispatch: %v", logErr)
		}
	}
}

// GetCommunicationDeliveries lists per-recipient delivery results.
// @Summary List communication deliveries
// @Tags Communications
// @Produce json
// @Param id path int true "Communication ID"
// @Success 200 {array} models.CommunicationDelivery
// @Router /api/communications/{id}/deliveries [get]
func GetCommunicationDeliveries(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid communication ID"})
			return
		}

		rows, err := db.Query(`
			SELECT id, communication_id, user_id, email, delivered, error, delivered_at
			FROM communication_deliveries WHERE communication_id = $1 ORDER BY id`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		deliveries := []models.CommunicationDelivery{}
		for rows.Next() {
			var d models.CommunicationDelivery
			var errMsg sql.NullString
			if err := rows.Scan(&d.ID, &d.CommunicationID, &d.UserID, &d.Email,
				&d.Delivered, &errMsg, &d.DeliveredAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			d.Error = errMsg.String
			deliveries = append(deliveries, d)
		}
		c.JSON(http.StatusOK, deliveries)
	}
}
