package models

import "time"

// Requisition statuses.
const (
	RequisitionStatusDraft     = "draft"
	RequisitionStatusSubmitted = "submitted"
	RequisitionStatusApproved  = "approved"
	RequisitionStatusRejected  = "rejected"
	RequisitionStatusConverted = "converted"
)

// AllowedRequisitionTransitions maps requisition statuses to allowed next states.
var AllowedRequisitionTransitions = map[string][]string{
	RequisitionStatusDraft:     {RequisitionStatusSubmitted},
	RequisitionStatusSubmitted: {RequisitionStatusApproved, RequisitionStatusRejected},
	RequisitionStatusApproved:  {RequisitionStatusConverted},
}

// CanTransitionRequisition reports whether a requisition may move between statuses.
func CanTransitionRequisition(from, to string) bool {
	for _, next := range AllowedRequisitionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequisitionLineItem represents one line of the requisition_line_items table.
type RequisitionLineItem struct {
	ID            int     `json:"id" example:"1"`
	RequisitionID int     `json:"requisition_id" example:"1"`
	Description   string  `json:"description" example:"Reinforcement steel 12mm"`
	Quantity      float64 `json:"quantity" example:"100"`
	Unit          string  `json:"unit" example:"ton"`
	EstimatedCost float64 `json:"estimated_cost" example:"5500.00"`
}

// Requisition represents the purchase_requisitions table.
type Requisition struct {
	ID                int                   `json:"id" example:"1"`
	RequisitionNumber string                `json:"requisition_number" example:"PR-AB12345"`
	Title             string                `json:"title" example:"Steel for block C"`
	Description       string                `json:"description" example:"Q1 reinforcement steel"`
	RequesterID       int                   `json:"requester_id" example:"5"`
	Department        string                `json:"department" example:"Civil"`
	LineItems         []RequisitionLineItem `json:"line_items"`
	EstimatedTotal    float64               `json:"estimated_total" example:"5500.00"`
	Currency          string                `json:"currency" example:"USD"`
	RequiredBy        time.Time             `json:"required_by" example:"2024-03-01T00:00:00Z"`
	Status            string                `json:"status" example:"draft"`
	ApprovedBy        *int                  `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time            `json:"approved_at,omitempty"`
	RejectionReason   string                `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time             `json:"created_at" example:"2024-01-10T10:30:00Z"`
	UpdatedAt         time.Time             `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// RFQ statuses.
const (
	RFQStatusOpen    = "open"
	RFQStatusClosed  = "closed"
	RFQStatusAwarded = "awarded"
)

// AllowedRFQTransitions maps RFQ statuses to allowed next states.
var AllowedRFQTransitions = map[string][]string{
	RFQStatusOpen:   {RFQStatusClosed},
	RFQStatusClosed: {RFQStatusAwarded},
}

// CanTransitionRFQ reports whether an RFQ may move between statuses.
func CanTransitionRFQ(from, to string) bool {
	for _, next := range AllowedRFQTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RFQ represents the rfqs table. One requisition can issue one RFQ to several
// suppliers; suppliers submit quotes against it.
type RFQ struct {
	ID            int       `json:"id" example:"1"`
	RFQNumber     string    `json:"rfq_number" example:"RFQ-CD67890"`
	RequisitionID int       `json:"requisition_id" example:"1"`
	IssuedBy      int       `json:"issued_by" example:"3"`
	SupplierIDs   []int     `json:"supplier_ids"`
	DueDate       time.Time `json:"due_date" example:"2024-02-01T00:00:00Z"`
	Status        string    `json:"status" example:"open"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-12T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-12T10:30:00Z"`
}
