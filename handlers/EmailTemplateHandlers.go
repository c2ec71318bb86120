package handlers

import (
	"backend/models"
	"backend/services"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// GetEmailTemplates lists email templates, optionally filtered by type.
// @Summary List email templates
// @Tags EmailTemplates
// @Produce json
// @Param template_type query string false "Filter by template type"
// @Success 200 {array} models.EmailTemplate
// @Router /api/email-templates [get]
func GetEmailTemplates(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, name, subject, body, template_type, is_default, is_active,
				variables, cc, bcc, created_by, created_at, updated_at, updated_by
			FROM email_templates`
		args := []interface{}{}
		if tt := c.Query("template_type"); tt != "" {
			query += " WHERE template_type = $1"
			args = append(args, tt)
		}
		query += " ORDER BY template_type, created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()

		templates := []models.EmailTemplate{}
		for rows.Next() {
			var t models.EmailTemplate
			var cc, bcc pq.StringArray
			var variables sql.NullString
			if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.TemplateType,
				&t.IsDefault, &t.IsActive, &variables, &cc, &bcc,
				&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.UpdatedBy); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			t.CC = []string(cc)
			t.BCC = []string(bcc)
			if variables.Valid {
				t.Variables = json.RawMessage(variables.String)
			}
			templates = append(templates, t)
		}
		c.JSON(http.StatusOK, templates)
	}
}

// GetEmailTemplate returns one template by ID.
// @Summary Get email template
// @Tags EmailTemplates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} models.EmailTemplate
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [get]
func GetEmailTemplate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}
		template, err := models.GetTemplateByID(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, template)
	}
}

// CreateEmailTemplate creates an email template. Marking it default demotes
// the previous default of the same type.
// @Summary Create email template
// @Tags EmailTemplates
// @Accept json
// @Produce json
// @Param body body models.EmailTemplateRequest true "Template data"
// @Success 201 {object} models.EmailTemplate
// @Failure 400 {object} models.ErrorResponse
// @Router /api/email-templates [post]
func CreateEmailTemplate(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var req models.EmailTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		if err := emailService.ValidateTemplate(req.Subject); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subject template", "details": err.Error()})
			return
		}
		if err := emailService.ValidateTemplate(req.Body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body template", "details": err.Error()})
			return
		}

		if req.IsDefault {
			if _, err := db.Exec(`
				UPDATE email_templates SET is_default = false WHERE template_type = $1`,
				req.TemplateType); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		variablesJSON, err := json.Marshal(req.Variables)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variables", "details": err.Error()})
			return
		}

		var id int
		err = db.QueryRow(`
			INSERT INTO email_templates (name, subject, body, template_type, is_default, is_active,
				variables, cc, bcc, created_by, created_at, updated_at, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), $10)
			RETURNING id`,
			req.Name, req.Subject, req.Body, req.TemplateType, req.IsDefault, req.IsActive,
			string(variablesJSON), pq.Array(req.CC), pq.Array(req.BCC), session.UserID,
		).Scan(&id)
		if err != nil {
			log.Printf("Error inserting email template: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert template", "details": err.Error()})
			return
		}

		template, err := models.GetTemplateByID(db, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, template)
	}
}

// UpdateEmailTemplate updates an email template.
// @Summary Update email template
// @Tags EmailTemplates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param body body models.EmailTemplateRequest true "Template data"
// @Success 200 {object} models.EmailTemplate
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [put]
func UpdateEmailTemplate(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		var req models.EmailTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		if err := emailService.ValidateTemplate(req.Subject); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subject template", "details": err.Error()})
			return
		}
		if err := emailService.ValidateTemplate(req.Body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body template", "details": err.Error()})
			return
		}

		if req.IsDefault {
			if _, err := db.Exec(`
				UPDATE email_templates SET is_default = false WHERE template_type = $1 AND id <> $2`,
				req.TemplateType, id); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		variablesJSON, err := json.Marshal(req.Variables)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variables", "details": err.Error()})
			return
		}

		result, err := db.Exec(`
			UPDATE email_templates
			SET name = $1, subject = $2, body = $3, template_type = $4, is_default = $5,
				is_active = $6, variables = $7, cc = $8, bcc = $9, updated_at = NOW(), updated_by = $10
			WHERE id = $11`,
			req.Name, req.Subject, req.Body, req.TemplateType, req.IsDefault, req.IsActive,
			string(variablesJSON), pq.Array(req.CC), pq.Array(req.BCC), session.UserID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template", "details": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		template, err := models.GetTemplateByID(db, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, template)
	}
}

// DeleteEmailTemplate deactivates a template. Default templates cannot be
// deactivated.
// @Summary Delete email template
// @Tags EmailTemplates
// @Param id path int true "Template ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [delete]
func DeleteEmailTemplate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		var isDefault bool
		err = db.QueryRow(`SELECT is_default FROM email_templates WHERE id = $1`, id).Scan(&isDefault)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if isDefault {
			c.JSON(http.StatusConflict, gin.H{"error": "Default templates cannot be deleted"})
			return
		}

		if _, err := db.Exec(`
			UPDATE email_templates SET is_active = false, updated_at = NOW() WHERE id = $1`, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Template deactivated"})
	}
}

// PreviewTemplateRequest carries the HTML body to render with sample data.
type PreviewTemplateRequest struct {
	Body string `json:"body" binding:"required"`
}

// PreviewEmailTemplate renders a template body with sample data and returns
// both the HTML and its plain-text rendering.
// @Summary Preview email template
// @Tags EmailTemplates
// @Accept json
// @Produce json
// @Param body body PreviewTemplateRequest true "Template body"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /api/email-templates/preview [post]
func PreviewEmailTemplate(emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PreviewTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		sample := models.EmailData{
			Email:          "supplier@example.com",
			UserName:       "Jane Doe",
			SupplierName:   "ABC Suppliers",
			BuyerName:      "John Smith",
			DocumentNumber: "QT-AB12345",
			DocumentTitle:  "Steel for block C",
			Amount:         "5550.00",
			Currency:       "USD",
			DueDate:        time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
			Reason:         "Best overall score",
			LoginURL:       "https://portal.example.com/login",
			SupportEmail:   "support@example.com",
		}

		text, err := emailService.PreviewEmailAsText(req.Body, sample)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to render template", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}

// GetTemplateVariables lists the variables available in email templates.
// @Summary List template variables
// @Tags EmailTemplates
// @Produce json
// @Success 200 {array} models.EmailTemplateVariable
// @Router /api/email-templates/variables [get]
func GetTemplateVariables(emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, emailService.GetAvailableVariables())
	}
}
