package handlers

import (
	"backend/models"
	"database/sql"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// CreateVendor registers a new vendor in pending status.
// @Summary Create vendor
// @Tags Vendors
// @Accept json
// @Produce json
// @Param body body models.Vendor true "Vendor data"
// @Success 201 {object} models.Vendor
// @Failure 400 {object} models.ErrorResponse
// @Router /api/vendors [post]
func CreateVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var vendor models.Vendor
		if err := c.ShouldBindJSON(&vendor); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if vendor.Name == "" || vendor.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
			return
		}

		vendor.Status = models.VendorStatusPending
		vendor.CreatedBy = userName
		vendor.UpdatedBy = userName
		vendor.CreatedAt = time.Now()
		vendor.UpdatedAt = time.Now()

		err = db.QueryRow(`
			INSERT INTO vendors (name, email, phone, address, contact_person, tax_number,
				bank_account, bank_ifsc, categories, status, created_by, updated_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			vendor.Name, vendor.Email, vendor.Phone, vendor.Address, vendor.ContactPerson,
			vendor.TaxNumber, vendor.BankAccount, vendor.BankIFSC, pq.Array(vendor.Categories),
			vendor.Status, vendor.CreatedBy, vendor.UpdatedBy, vendor.CreatedAt, vendor.UpdatedAt,
		).Scan(&vendor.ID)
		if err != nil {
			log.Printf("Error inserting vendor: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert vendor", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, vendor)

		logEntry := models.ActivityLog{
			EventContext: "Vendor",
			EventName:    "Create",
			Description:  "Vendor " + vendor.Name + " registered",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     strconv.Itoa(vendor.ID),
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log vendor creation: %v", logErr)
		}
	}
}

// GetVendors lists vendors, optionally filtered by status or category.
// @Summary List vendors
// @Tags Vendors
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Success 200 {array} models.Vendor
// @Router /api/vendors [get]
func GetVendors(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, name, email, phone, address, contact_person, tax_number,
				bank_account, bank_ifsc, categories, status, status_reason,
				created_by, updated_by, created_at, updated_at
			FROM vendors WHERE 1=1`
		args := []interface{}{}
		argIdx := 1

		if status := c.Query("status"); status != "" {
			query += " AND status = $" + strconv.Itoa(argIdx)
			args = append(args, status)
			argIdx++
		}
		if category := c.Query("category"); category != "" {
			query += " AND $" + strconv.Itoa(argIdx) + " = ANY(categories)"
			args = append(args, category)
			argIdx++
		}
		query += " ORDER BY name"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		vendors := []models.Vendor{}
		for rows.Next() {
			v, err := scanVendor(rows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			vendors = append(vendors, *v)
		}
		c.JSON(http.StatusOK, vendors)
	}
}

// GetVendor returns one vendor.
// @Summary Get vendor
// @Tags Vendors
// @Produce json
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.Vendor
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [get]
func GetVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
			return
		}

		row := db.QueryRow(`
			SELECT id, name, email, phone, address, contact_person, tax_number,
				bank_account, bank_ifsc, categories, status, status_reason,
				created_by, updated_by, created_at, updated_at
			FROM vendors WHERE id = $1`, id)
		vendor, err := scanVendor(row)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, vendor)
	}
}

type vendorScanner interface {
	Scan(dest ...interface{}) error
}

func scanVendor(row vendorScanner) (*models.Vendor, error) {
	var v models.Vendor
	var categories pq.StringArray
	var statusReason sql.NullString
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.Address, &v.ContactPerson,
		&v.TaxNumber, &v.BankAccount, &v.BankIFSC, &categories, &v.Status, &statusReason,
		&v.CreatedBy, &v.UpdatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Categories = categories
	v.StatusReason = statusReason.String
	return &v, nil
}

// UpdateVendor partially updates a vendor's contact and banking details.
// Status is changed only through the dedicated transition endpoints.
// @Summary Update vendor
// @Tags Vendors
// @Accept json
// @Produce json
// @Param id path int true "Vendor ID"
// @Param body body map[string]interface{} true "Fields to update"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/vendors/{id} [put]
func UpdateVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		_, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
			return
		}

		var input map[string]interface{}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		allowed := map[string]string{
			"name":           "name",
			"email":          "email",
			"phone":          "phone",
			"address":        "address",
			"contact_person": "contact_person",
			"tax_number":     "tax_number",
			"bank_account":   "bank_account",
			"bank_ifsc":      "bank_ifsc",
		}

		setClauses := []string{}
		args := []interface{}{}
		argIdx := 1
		for key, column := range allowed {
			if val, ok := input[key]; ok {
				setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
				args = append(args, val)
				argIdx++
			}
		}
		if cats, ok := input["categories"]; ok {
			if list, ok := cats.([]interface{}); ok {
				strs := make([]string, 0, len(list))
				for _, item := range list {
					if s, ok := item.(string); ok {
						strs = append(strs, s)
					}
				}
				setClauses = append(setClauses, fmt.Sprintf("categories = $%d", argIdx))
				args = append(args, pq.Array(strs))
				argIdx++
			}
		}
		if len(setClauses) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		setClauses = append(setClauses, fmt.Sprintf("updated_by = $%d", argIdx))
		args = append(args, userName)
		argIdx++

		query := "UPDATE vendors SET " + setClauses[0]
		for _, clause := range setClauses[1:] {
			query += ", " + clause
		}
		query += fmt.Sprintf(", updated_at = NOW() WHERE id = $%d", argIdx)
		args = append(args, id)

		result, err := db.Exec(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor", "details": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vendor updated"})
	}
}

// VendorStatusRequest carries the reason attached to a vendor status change.
type VendorStatusRequest struct {
	Reason string `json:"reason"`
}

// ApproveVendor approves a pending or suspended vendor.
// @Summary Approve vendor
// @Tags Vendors
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/vendors/{id}/approve [put]
func ApproveVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionVendor(db, c, models.VendorStatusApproved, "Approve")
	}
}

// RejectVendor rejects a pending vendor.
// @Summary Reject vendor
// @Tags Vendors
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/vendors/{id}/reject [put]
func RejectVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionVendor(db, c, models.VendorStatusRejected, "Reject")
	}
}

// SuspendVendor suspends an approved vendor.
// @Summary Suspend vendor
// @Tags Vendors
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/vendors/{id}/suspend [put]
func SuspendVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionVendor(db, c, models.VendorStatusSuspended, "Suspend")
	}
}

// BlacklistVendor permanently blacklists a vendor.
// @Summary Blacklist vendor
// @Tags Vendors
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/vendors/{id}/blacklist [put]
func BlacklistVendor(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionVendor(db, c, models.VendorStatusBlacklisted, "Blacklist")
	}
}

func transitionVendor(db *sql.DB, c *gin.Context, to, eventName string) {
	sessionID := c.GetHeader("Authorization")
	session, userName, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
		return
	}

	var req VendorStatusRequest
	_ = c.ShouldBindJSON(&req)

	var name, status string
	err = db.QueryRow(`SELECT name, status FROM vendors WHERE id = $1`, id).Scan(&name, &status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionVendor(status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move vendor from " + status + " to " + to,
		})
		return
	}

	_, err = db.Exec(`
		UPDATE vendors SET status = $1, status_reason = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $4`, to, req.Reason, userName, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vendor " + to})

	logEntry := models.ActivityLog{
		EventContext: "Vendor",
		EventName:    eventName,
		Description:  "Vendor " + name + " moved to " + to,
		UserName:     userName,
		HostName:     session.HostName,
		IPAddress:    session.IPAddress,
		EntityID:     strconv.Itoa(id),
		CreatedAt:    time.Now(),
	}
	if logErr := SaveActivityLog(db, logEntry); logErr != nil {
		log.Printf("Failed to log vendor transition: %v", logErr)
	}
}

// GetVendorPerformance computes a performance snapshot: quote statistics from
// evaluated quotes, on-time rate from received deliveries.
// @Summary Get vendor performance
// @Tags Vendors
// @Produce json
// @Param id path int true "Vendor ID"
// @Success 200 {object} models.VendorPerformance
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id}/performance [get]
func GetVendorPerformance(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM vendors WHERE id = $1)`, id).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
			return
		}

		perf := models.VendorPerformance{VendorID: id}

		var avgScore sql.NullFloat64
		err = db.QueryRow(`
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE status = $1),
				AVG(total_score) FILTER (WHERE total_score IS NOT NULL)
			FROM quotes WHERE supplier_id = $2`,
			models.QuoteStatusSelected, id).
			Scan(&perf.QuotesSubmitted, &perf.QuotesSelected, &avgScore)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if avgScore.Valid {
			perf.AverageQuoteScore = math.Round(avgScore.Float64*100) / 100
		}

		err = db.QueryRow(`
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE expected_date IS NOT NULL AND received_date <= expected_date)
			FROM deliveries
			WHERE supplier_id = $1 AND status IN ($2, $3)`,
			id, models.DeliveryStatusReceived, models.DeliveryStatusInspected).
			Scan(&perf.DeliveriesReceived, &perf.OnTimeDeliveries)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if perf.DeliveriesReceived > 0 {
			perf.OnTimeRate = math.Round(float64(perf.OnTimeDeliveries)/float64(perf.DeliveriesReceived)*1000) / 10
		}

		c.JSON(http.StatusOK, perf)
	}
}
