package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// EmailTemplate represents the email_templates table.
type EmailTemplate struct {
	ID           int             `json:"id" example:"1"`
	Name         string          `json:"name" example:"Quote Selected"`
	Subject      string          `json:"subject" example:"Your quote {{document_number}} was selected"`
	Body         string          `json:"body" example:"Hello {{supplier_name}}"`
	TemplateType string          `json:"template_type" example:"quote_selected"`
	IsDefault    bool            `json:"is_default" example:"true"`
	IsActive     bool            `json:"is_active" example:"true"`
	Variables    json.RawMessage `json:"variables"`
	CC           []string        `json:"cc,omitempty"`
	BCC          []string        `json:"bcc,omitempty"`
	CreatedBy    *int            `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time       `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	UpdatedBy    *int            `json:"updated_by"`
}

// EmailTemplateVariable represents a single variable in the template.
type EmailTemplateVariable struct {
	Key         string `json:"key" example:"supplier_name"`
	Description string `json:"description" example:"Name of the supplier"`
}

// EmailTemplateRequest represents the request structure for creating/updating
// templates.
type EmailTemplateRequest struct {
	Name         string                  `json:"name" binding:"required" example:"Quote Selected"`
	Subject      string                  `json:"subject" binding:"required" example:"Quote selected"`
	Body         string                  `json:"body" binding:"required" example:"Hello {{supplier_name}}"`
	TemplateType string                  `json:"template_type" binding:"required" example:"quote_selected"`
	IsDefault    bool                    `json:"is_default" example:"false"`
	IsActive     bool                    `json:"is_active" example:"true"`
	Variables    []EmailTemplateVariable `json:"variables"`
	CC           []string                `json:"cc"`
	BCC          []string                `json:"bcc"`
}

func scanTemplate(row *sql.Row) (*EmailTemplate, error) {
	var template EmailTemplate
	var cc, bcc pq.StringArray
	var variables sql.NullString

	err := row.Scan(
		&template.ID, &template.Name, &template.Subject, &template.Body,
		&template.TemplateType, &template.IsDefault, &template.IsActive,
		&variables, &cc, &bcc, &template.CreatedBy, &template.CreatedAt,
		&template.UpdatedAt, &template.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	template.CC = []string(cc)
	template.BCC = []string(bcc)
	if variables.Valid {
		template.Variables = json.RawMessage(variables.String)
	}
	return &template, nil
}

// GetDefaultTemplate retrieves the active default template for a type.
func GetDefaultTemplate(db *sql.DB, templateType string) (*EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE template_type = $1 AND is_default = true AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1`
	return scanTemplate(db.QueryRow(query, templateType))
}

// GetTemplateByID retrieves an active template by its ID.
func GetTemplateByID(db *sql.DB, id int) (*EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE id = $1 AND is_active = true`
	return scanTemplate(db.QueryRow(query, id))
}
