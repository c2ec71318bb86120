package handlers

import (
	"backend/models"
	"backend/storage"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSessionDetails resolves the session row and the display name of the
// logged-in user for a session ID. Handlers use it for auth and activity logs.
func GetSessionDetails(db *sql.DB, sessionID string) (*models.Session, string, error) {
	session, err := storage.GetSessionByID(db, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("session not found")
		}
		return nil, "", err
	}

	var firstName, lastName string
	err = db.QueryRow(`SELECT first_name, last_name FROM users WHERE id = $1`, session.UserID).
		Scan(&firstName, &lastName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user for session: %v", err)
	}

	return session, firstName + " " + lastName, nil
}

// CurrentUser resolves the full user record from the Authorization header.
func CurrentUser(db *sql.DB, c *gin.Context) (*models.User, error) {
	sessionID := c.GetHeader("Authorization")
	if sessionID == "" {
		return nil, fmt.Errorf("Authorization header is required")
	}
	return storage.GetUserBySessionID(db, sessionID)
}

// SessionMiddleware rejects requests without a valid session.
func SessionMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(db, c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// AdminOnly rejects requests whose session user is not an admin. Must run
// after SessionMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session required"})
			c.Abort()
			return
		}
		user := v.(*models.User)
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
