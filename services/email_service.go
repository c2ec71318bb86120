package services

import (
	"database/sql"
	"fmt"
	"net/smtp"
	"os"
	"regexp"
	"strings"

	"backend/models"

	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "table", "tr":
				text.WriteString("\n")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}

// SMTPConfig holds the SMTP connection settings. Loaded from the environment
// and injected into EmailService rather than living in a package-level
// transporter.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPConfigFromEnv reads SMTP settings from the environment.
func SMTPConfigFromEnv() SMTPConfig {
	return SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// EmailService handles email operations with template support.
type EmailService struct {
	db   *sql.DB
	smtp SMTPConfig
}

// NewEmailService creates a new email service instance.
func NewEmailService(db *sql.DB, smtp SMTPConfig) *EmailService {
	return &EmailService{db: db, smtp: smtp}
}

// SendTemplatedEmail sends an email using a template with variable
// substitution. If customTemplateID is nil the default template for the type
// is used.
func (es *EmailService) SendTemplatedEmail(templateType string, emailData models.EmailData, customTemplateID *int) error {
	var emailTemplate *models.EmailTemplate
	var err error

	if customTemplateID != nil {
		emailTemplate, err = models.GetTemplateByID(es.db, *customTemplateID)
		if err != nil {
			return fmt.Errorf("failed to get custom template (ID: %d): %v", *customTemplateID, err)
		}
		if emailTemplate.TemplateType != templateType {
			return fmt.Errorf("custom template type mismatch: expected %s, got %s", templateType, emailTemplate.TemplateType)
		}
	} else {
		emailTemplate, err = models.GetDefaultTemplate(es.db, templateType)
		if err != nil {
			return fmt.Errorf("failed to get default template for type '%s': %v", templateType, err)
		}
	}

	subject, err := es.processTemplate(emailTemplate.Subject, emailData)
	if err != nil {
		return fmt.Errorf("failed to process subject template: %v", err)
	}

	body, err := es.processTemplate(emailTemplate.Body, emailData)
	if err != nil {
		return fmt.Errorf("failed to process body template: %v", err)
	}

	plainTextBody := convertHTMLToText(body)

	return es.SendEmail(emailData.Email, subject, plainTextBody, emailTemplate.CC, emailTemplate.BCC)
}

// templateVariables maps template placeholders to their values.
func templateVariables(data models.EmailData) map[string]string {
	return map[string]string{
		"email":           data.Email,
		"user_name":       data.UserName,
		"supplier_name":   data.SupplierName,
		"buyer_name":      data.BuyerName,
		"document_number": data.DocumentNumber,
		"document_title":  data.DocumentTitle,
		"amount":          data.Amount,
		"currency":        data.Currency,
		"due_date":        data.DueDate,
		"reason":          data.Reason,
		"login_url":       data.LoginURL,
		"support_email":   data.SupportEmail,
	}
}

// processTemplate processes a template string with variable substitution.
func (es *EmailService) processTemplate(templateStr string, data models.EmailData) (string, error) {
	result := templateStr
	for key, value := range templateVariables(data) {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result, nil
}

// PreviewEmailAsText converts an HTML template to plain text so the frontend
// can show how it will appear in an email.
func (es *EmailService) PreviewEmailAsText(htmlContent string, emailData models.EmailData) (string, error) {
	processedContent, err := es.processTemplate(htmlContent, emailData)
	if err != nil {
		return "", fmt.Errorf("failed to process template: %v", err)
	}
	return convertHTMLToText(processedContent), nil
}

// SendEmail sends a plain text email over SMTP with optional CC and BCC.
func (es *EmailService) SendEmail(to, subject, body string, cc, bcc []string) error {
	auth := smtp.PlainAuth("", es.smtp.Username, es.smtp.Password, es.smtp.Host)

	toList := []string{to}
	if len(cc) > 0 {
		toList = append(toList, cc...)
	}
	if len(bcc) > 0 {
		toList = append(toList, bcc...)
	}

	headers := []string{
		"From: " + es.smtp.From,
		"To: " + to,
	}
	if len(cc) > 0 {
		headers = append(headers, "Cc: "+strings.Join(cc, ", "))
	}
	headers = append(headers,
		"Subject: "+subject,
		"",
		body,
	)

	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(
		es.smtp.Host+":"+es.smtp.Port,
		auth,
		es.smtp.From,
		toList,
		msg,
	)
}

// SendQuoteDecisionEmail notifies a supplier that their quote was selected or
// rejected. templateType is "quote_selected" or "quote_rejected".
func (es *EmailService) SendQuoteDecisionEmail(templateType string, supplier models.Vendor, quote *models.Quote, reason string) error {
	emailData := models.EmailData{
		Email:          supplier.Email,
		SupplierName:   supplier.Name,
		DocumentNumber: quote.QuoteNumber,
		Amount:         fmt.Sprintf("%.2f", quote.TotalAmount),
		Currency:       quote.Currency,
		Reason:         reason,
		SupportEmail:   os.Getenv("SUPPORT_EMAIL"),
	}
	return es.SendTemplatedEmail(templateType, emailData, nil)
}

// SendRequisitionDecisionEmail notifies the requester that their requisition
// was approved or rejected. templateType is "requisition_approved" or
// "requisition_rejected".
func (es *EmailService) SendRequisitionDecisionEmail(templateType string, requester models.User, req *models.Requisition, reason string) error {
	emailData := models.EmailData{
		Email:          requester.Email,
		UserName:       requester.FirstName + " " + requester.LastName,
		DocumentNumber: req.RequisitionNumber,
		DocumentTitle:  req.Title,
		Reason:         reason,
		SupportEmail:   os.Getenv("SUPPORT_EMAIL"),
	}
	return es.SendTemplatedEmail(templateType, emailData, nil)
}

// SendInvoiceReminderEmail sends an overdue payment reminder for an invoice.
func (es *EmailService) SendInvoiceReminderEmail(to string, inv *models.Invoice) error {
	emailData := models.EmailData{
		Email:          to,
		DocumentNumber: inv.InvoiceNumber,
		Amount:         fmt.Sprintf("%.2f", inv.TotalAmount-inv.TotalPaid),
		Currency:       inv.Currency,
		DueDate:        inv.DueDate.Format("2006-01-02"),
		SupportEmail:   os.Getenv("SUPPORT_EMAIL"),
	}
	return es.SendTemplatedEmail("invoice_overdue", emailData, nil)
}

// ValidateTemplate validates a template string for syntax errors and unknown
// variables.
func (es *EmailService) ValidateTemplate(templateStr string) error {
	openBraces := strings.Count(templateStr, "{{")
	closeBraces := strings.Count(templateStr, "}}")
	if openBraces != closeBraces {
		return fmt.Errorf("unmatched braces in template")
	}

	re := regexp.MustCompile(`\{\{([^}]+)\}\}`)
	matches := re.FindAllStringSubmatch(templateStr, -1)

	validVariables := templateVariables(models.EmailData{})
	for _, match := range matches {
		if len(match) > 1 {
			variable := strings.TrimSpace(match[1])
			if _, ok := validVariables[variable]; !ok {
				return fmt.Errorf("invalid variable: %s", variable)
			}
		}
	}

	return nil
}

// GetAvailableVariables returns the list of available template variables.
func (es *EmailService) GetAvailableVariables() []models.EmailTemplateVariable {
	return []models.EmailTemplateVariable{
		{Key: "email", Description: "Recipient email"},
		{Key: "user_name", Description: "User full name"},
		{Key: "supplier_name", Description: "Supplier name"},
		{Key: "buyer_name", Description: "Buyer full name"},
		{Key: "document_number", Description: "Quote/PO/requisition/invoice number"},
		{Key: "document_title", Description: "Document title"},
		{Key: "amount", Description: "Amount"},
		{Key: "currency", Description: "Currency code"},
		{Key: "due_date", Description: "Due date"},
		{Key: "reason", Description: "Decision reason"},
		{Key: "login_url", Description: "Login URL"},
		{Key: "support_email", Description: "Support email"},
	}
}
