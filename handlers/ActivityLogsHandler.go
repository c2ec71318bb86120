package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SaveActivityLog inserts one activity log row. Failures are the caller's to
// report; the business write has already happened by the time this runs.
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, entity_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.EntityID,
	)
	return err
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page     query  int     false  "Page"
// @Param        limit    query  int     false  "Limit"
// @Param        context  query  string  false  "Event context filter (Quote, Vendor, ...)"
// @Success      200    {object}  object
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 200 {
			limit = 50
		}
		offset := (page - 1) * limit

		eventContext := c.Query("context")

		var rows *sql.Rows
		var err error
		if eventContext != "" {
			rows, err = db.Query(`
				SELECT id, created_at, user_name, host_name, event_context, ip_address,
				       description, event_name, COALESCE(entity_id, '')
				FROM activity_logs WHERE event_context = $1
				ORDER BY created_at DESC LIMIT $2 OFFSET $3`, eventContext, limit, offset)
		} else {
			rows, err = db.Query(`
				SELECT id, created_at, user_name, host_name, event_context, ip_address,
				       description, event_name, COALESCE(entity_id, '')
				FROM activity_logs
				ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity logs", "details": err.Error()})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			var l models.ActivityLog
			if err := rows.Scan(&l.ID, &l.CreatedAt, &l.UserName, &l.HostName, &l.EventContext,
				&l.IPAddress, &l.Description, &l.EventName, &l.EntityID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan activity log", "details": err.Error()})
				return
			}
			logs = append(logs, l)
		}
		if logs == nil {
			logs = []models.ActivityLog{}
		}

		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "logs": logs})
	}
}
