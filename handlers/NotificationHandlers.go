package handlers

import (
	"backend/models"
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// notifyUser inserts an in-app notification. Failures are logged, never
// surfaced to the caller.
func notifyUser(db *sql.DB, userID int, message, action string) {
	_, err := db.Exec(`
		INSERT INTO notifications (user_id, message, status, action, created_at, updated_at)
		VALUES ($1, $2, 'unread', $3, NOW(), NOW())`,
		userID, message, action)
	if err != nil {
		log.Printf("Failed to insert notification for user %d: %v", userID, err)
	}
}

// GetNotifications lists the calling user's notifications newest first.
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param status query string false "Filter by status (unread/read)"
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications [get]
func GetNotifications(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		query := `
			SELECT id, user_id, message, status, action, created_at, updated_at
			FROM notifications WHERE user_id = $1`
		args := []interface{}{session.UserID}
		if status := c.Query("status"); status != "" {
			query += " AND status = $2"
			args = append(args, status)
		}
		query += " ORDER BY created_at DESC LIMIT 100"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		notifications := []models.Notification{}
		for rows.Next() {
			var n models.Notification
			var action sql.NullString
			if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &action, &n.CreatedAt, &n.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			n.Action = action.String
			notifications = append(notifications, n)
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationRead marks one of the calling user's notifications as read.
// @Summary Mark notification read
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/notifications/{id}/read [put]
func MarkNotificationRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
			return
		}

		result, err := db.Exec(`
			UPDATE notifications SET status = 'read', updated_at = NOW()
			WHERE id = $1 AND user_id = $2`, id, session.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
	}
}

// MarkAllNotificationsRead marks all of the calling user's notifications read.
// @Summary Mark all notifications read
// @Tags Notifications
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications/read-all [put]
func MarkAllNotificationsRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		if _, err := db.Exec(`
			UPDATE notifications SET status = 'read', updated_at = NOW()
			WHERE user_id = $1 AND status = 'unread'`, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
	}
}
