package models

import "time"

// Invoice statuses.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSubmitted = "submitted"
	InvoiceStatusApproved  = "approved"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusDisputed  = "disputed"
	InvoiceStatusCancelled = "cancelled"
)

// AllowedInvoiceTransitions maps invoice statuses to allowed next states.
// A dispute can be resolved back into submitted; nothing moves after paid.
var AllowedInvoiceTransitions = map[string][]string{
	InvoiceStatusDraft:     {InvoiceStatusSubmitted, InvoiceStatusCancelled},
	InvoiceStatusSubmitted: {InvoiceStatusApproved, InvoiceStatusDisputed, InvoiceStatusCancelled},
	InvoiceStatusApproved:  {InvoiceStatusPaid, InvoiceStatusDisputed},
	InvoiceStatusDisputed:  {InvoiceStatusSubmitted, InvoiceStatusCancelled},
}

// CanTransitionInvoice reports whether an invoice may move between statuses.
func CanTransitionInvoice(from, to string) bool {
	for _, next := range AllowedInvoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvoiceLineItem represents one line of the invoice_line_items table.
type InvoiceLineItem struct {
	ID          int     `json:"id" example:"1"`
	InvoiceID   int     `json:"invoice_id" example:"1"`
	Description string  `json:"description" example:"Reinforcement steel 12mm"`
	Quantity    float64 `json:"quantity" example:"100"`
	UnitPrice   float64 `json:"unit_price" example:"55.50"`
	TotalPrice  float64 `json:"total_price" example:"5550.00"`
}

// InvoicePayment represents one row of the invoice_payments table.
type InvoicePayment struct {
	ID         int       `json:"id" example:"1"`
	InvoiceID  int       `json:"invoice_id" example:"1"`
	Amount     float64   `json:"amount" example:"2775.00"`
	PaidAt     time.Time `json:"paid_at" example:"2024-02-10T00:00:00Z"`
	Reference  string    `json:"reference" example:"NEFT-20240210-001"`
	RecordedBy int       `json:"recorded_by" example:"3"`
}

// Invoice represents the invoices table.
type Invoice struct {
	ID              int               `json:"id" example:"1"`
	InvoiceNumber   string            `json:"invoice_number" example:"INV-GH13579"`
	PurchaseOrderID int               `json:"purchase_order_id" example:"1"`
	SupplierID      int               `json:"supplier_id" example:"7"`
	LineItems       []InvoiceLineItem `json:"line_items"`
	TotalAmount     float64           `json:"total_amount" example:"5550.00"`
	TotalPaid       float64           `json:"total_paid" example:"2775.00"`
	Currency        string            `json:"currency" example:"USD"`
	DueDate         time.Time         `json:"due_date" example:"2024-02-20T00:00:00Z"`
	Status          string            `json:"status" example:"submitted"`
	DisputeReason   string            `json:"dispute_reason,omitempty"`
	Payments        []InvoicePayment  `json:"payments,omitempty"`
	CreatedBy       int               `json:"created_by" example:"3"`
	CreatedAt       time.Time         `json:"created_at" example:"2024-01-25T10:30:00Z"`
	UpdatedAt       time.Time         `json:"updated_at" example:"2024-01-25T10:30:00Z"`
}

// RecomputeTotalPaid reconciles the paid total with the payment rows, the same
// silent-correction treatment the quote totals get.
func (inv *Invoice) RecomputeTotalPaid() {
	var sum float64
	for _, p := range inv.Payments {
		sum += p.Amount
	}
	inv.TotalPaid = sum
}

// IsFullyPaid reports whether payments cover the invoice total.
func (inv *Invoice) IsFullyPaid() bool {
	return inv.TotalAmount > 0 && inv.TotalPaid >= inv.TotalAmount
}

// IsOverdue reports whether an unpaid invoice has passed its due date.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == InvoiceStatusPaid || inv.Status == InvoiceStatusCancelled {
		return false
	}
	return !inv.DueDate.IsZero() && now.After(inv.DueDate)
}
