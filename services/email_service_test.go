package services_test

import (
	"testing"

	"backend/models"
	"backend/services"

	"github.com/stretchr/testify/require"
)

func newTestEmailService() *services.EmailService {
	return services.NewEmailService(nil, services.SMTPConfig{})
}

func TestValidateTemplateValid(t *testing.T) {
	es := newTestEmailService()

	err := es.ValidateTemplate("Dear {{supplier_name}}, quote {{document_number}} for {{amount}} {{currency}} was selected.")
	require.NoError(t, err)
}

func TestValidateTemplateNoVariables(t *testing.T) {
	es := newTestEmailService()

	err := es.ValidateTemplate("Plain subject with no placeholders")
	require.NoError(t, err)
}

func TestValidateTemplateUnmatchedBraces(t *testing.T) {
	es := newTestEmailService()

	err := es.ValidateTemplate("Hello {{user_name}, your order shipped")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmatched braces")
}

func TestValidateTemplateUnknownVariable(t *testing.T) {
	es := newTestEmailService()

	err := es.ValidateTemplate("Hello {{customer_title}}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid variable: customer_title")
}

func TestValidateTemplateTrimsVariableWhitespace(t *testing.T) {
	es := newTestEmailService()

	err := es.ValidateTemplate("Hello {{ user_name }}")
	require.NoError(t, err)
}

func TestPreviewEmailAsTextSubstitutesVariables(t *testing.T) {
	es := newTestEmailService()

	data := models.EmailData{
		SupplierName:   "Acme Supplies",
		DocumentNumber: "QT-2026-0001",
		Amount:         "1250.00",
		Currency:       "USD",
	}

	preview, err := es.PreviewEmailAsText(
		"<p>Dear {{supplier_name}},</p><p>Your quote {{document_number}} ({{amount}} {{currency}}) was selected.</p>",
		data,
	)
	require.NoError(t, err)
	require.Contains(t, preview, "Dear Acme Supplies,")
	require.Contains(t, preview, "QT-2026-0001")
	require.Contains(t, preview, "1250.00 USD")
	require.NotContains(t, preview, "{{")
	require.NotContains(t, preview, "<p>")
}

func TestPreviewEmailAsTextLeavesUnknownPlaceholders(t *testing.T) {
	es := newTestEmailService()

	preview, err := es.PreviewEmailAsText("Hello {{not_a_variable}}", models.EmailData{})
	require.NoError(t, err)
	require.Contains(t, preview, "{{not_a_variable}}")
}

func TestPreviewEmailAsTextStripsMarkup(t *testing.T) {
	es := newTestEmailService()

	preview, err := es.PreviewEmailAsText(
		"<h1>Payment overdue</h1><ul><li>Invoice {{document_number}}</li><li>Due {{due_date}}</li></ul>",
		models.EmailData{DocumentNumber: "INV-2026-0042", DueDate: "2026-08-15"},
	)
	require.NoError(t, err)
	require.Contains(t, preview, "Payment overdue")
	require.Contains(t, preview, "- Invoice INV-2026-0042")
	require.Contains(t, preview, "- Due 2026-08-15")
	require.NotContains(t, preview, "<li>")
}

func TestGetAvailableVariablesCoverTemplateKeys(t *testing.T) {
	es := newTestEmailService()

	vars := es.GetAvailableVariables()
	require.Len(t, vars, 12)

	for _, v := range vars {
		require.NotEmpty(t, v.Description)
		require.NoError(t, es.ValidateTemplate("{{"+v.Key+"}}"))
	}
}
