package models

import "time"

// Purchase order statuses.
const (
	POStatusDraft              = "draft"
	POStatusIssued             = "issued"
	POStatusAcknowledged       = "acknowledged"
	POStatusPartiallyDelivered = "partially_delivered"
	POStatusDelivered          = "delivered"
	POStatusClosed             = "closed"
	POStatusCancelled          = "cancelled"
)

// AllowedPOTransitions maps purchase order statuses to allowed next states.
// Cancellation is possible until goods start arriving.
var AllowedPOTransitions = map[string][]string{
	POStatusDraft:              {POStatusIssued, POStatusCancelled},
	POStatusIssued:             {POStatusAcknowledged, POStatusCancelled},
	POStatusAcknowledged:       {POStatusPartiallyDelivered, POStatusDelivered, POStatusCancelled},
	POStatusPartiallyDelivered: {POStatusPartiallyDelivered, POStatusDelivered},
	POStatusDelivered:          {POStatusClosed},
}

// CanTransitionPO reports whether a purchase order may move between statuses.
func CanTransitionPO(from, to string) bool {
	for _, next := range AllowedPOTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// POLineItem represents one line of the purchase_order_line_items table.
// Lines are copied from the selected quote at creation.
type POLineItem struct {
	ID              int     `json:"id" example:"1"`
	PurchaseOrderID int     `json:"purchase_order_id" example:"1"`
	Description     string  `json:"description" example:"Reinforcement steel 12mm"`
	Quantity        float64 `json:"quantity" example:"100"`
	UnitPrice       float64 `json:"unit_price" example:"55.50"`
	TotalPrice      float64 `json:"total_price" example:"5550.00"`
	ReceivedQty     float64 `json:"received_qty" example:"40"`
}

// PurchaseOrder represents the purchase_orders table.
type PurchaseOrder struct {
	ID             int          `json:"id" example:"1"`
	PONumber       string       `json:"po_number" example:"PO-EF24680"`
	QuoteID        int          `json:"quote_id" example:"1"`
	RequisitionID  int          `json:"requisition_id" example:"1"`
	SupplierID     int          `json:"supplier_id" example:"7"`
	BuyerID        int          `json:"buyer_id" example:"3"`
	LineItems      []POLineItem `json:"line_items"`
	TotalAmount    float64      `json:"total_amount" example:"5550.00"`
	Currency       string       `json:"currency" example:"USD"`
	PaymentTerms   string       `json:"payment_terms" example:"Net 30"`
	DeliveryTerms  string       `json:"delivery_terms" example:"DAP site"`
	ExpectedDate   *time.Time   `json:"expected_date,omitempty"`
	Status         string       `json:"status" example:"draft"`
	IssuedAt       *time.Time   `json:"issued_at,omitempty"`
	AcknowledgedAt *time.Time   `json:"acknowledged_at,omitempty"`
	CancelReason   string       `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at" example:"2024-01-20T10:30:00Z"`
	UpdatedAt      time.Time    `json:"updated_at" example:"2024-01-20T10:30:00Z"`
}

// NewPurchaseOrderFromQuote builds a draft purchase order carrying over the
// supplier, lines, totals and terms of a selected quote.
func NewPurchaseOrderFromQuote(q *Quote, poNumber string, buyerID int) *PurchaseOrder {
	now := time.Now()
	po := &PurchaseOrder{
		PONumber:      poNumber,
		QuoteID:       q.ID,
		RequisitionID: q.RequisitionID,
		SupplierID:    q.SupplierID,
		BuyerID:       buyerID,
		TotalAmount:   q.TotalAmount,
		Currency:      q.Currency,
		PaymentTerms:  q.PaymentTerms,
		DeliveryTerms: q.DeliveryTerms,
		Status:        POStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, li := range q.LineItems {
		po.LineItems = append(po.LineItems, POLineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			TotalPrice:  li.TotalPrice,
		})
	}
	return po
}

// DeliveryProgress returns the received and ordered quantities summed across
// all lines.
func (po *PurchaseOrder) DeliveryProgress() (received, ordered float64) {
	for _, li := range po.LineItems {
		received += li.ReceivedQty
		ordered += li.Quantity
	}
	return received, ordered
}
