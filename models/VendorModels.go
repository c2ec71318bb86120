package models

import "time"

// Vendor statuses.
const (
	VendorStatusPending     = "pending"
	VendorStatusApproved    = "approved"
	VendorStatusRejected    = "rejected"
	VendorStatusSuspended   = "suspended"
	VendorStatusBlacklisted = "blacklisted"
)

// AllowedVendorTransitions maps vendor statuses to allowed next states.
// Suspension is reversible, blacklisting is not.
var AllowedVendorTransitions = map[string][]string{
	VendorStatusPending:   {VendorStatusApproved, VendorStatusRejected},
	VendorStatusApproved:  {VendorStatusSuspended, VendorStatusBlacklisted},
	VendorStatusSuspended: {VendorStatusApproved, VendorStatusBlacklisted},
}

// CanTransitionVendor reports whether a vendor may move between statuses.
func CanTransitionVendor(from, to string) bool {
	for _, next := range AllowedVendorTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Vendor represents the vendors table.
type Vendor struct {
	ID            int       `json:"id" example:"7"`
	Name          string    `json:"name" example:"ABC Suppliers"`
	Email         string    `json:"email" example:"sales@abcsuppliers.com"`
	Phone         string    `json:"phone" example:"9876543210"`
	Address       string    `json:"address" example:"12 Industrial Estate"`
	ContactPerson string    `json:"contact_person" example:"R. Sharma"`
	TaxNumber     string    `json:"tax_number" example:"27AAAAA0000A1Z5"`
	BankAccount   string    `json:"bank_account,omitempty"`
	BankIFSC      string    `json:"bank_ifsc,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	Status        string    `json:"status" example:"pending"`
	StatusReason  string    `json:"status_reason,omitempty"`
	CreatedBy     string    `json:"created_by" example:"admin"`
	UpdatedBy     string    `json:"updated_by" example:"admin"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-05T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-05T10:30:00Z"`
}

// VendorPerformance is a computed snapshot, not a stored table. Average quote
// score comes from evaluated quotes, the on-time rate from received deliveries.
type VendorPerformance struct {
	VendorID           int     `json:"vendor_id" example:"7"`
	QuotesSubmitted    int     `json:"quotes_submitted" example:"12"`
	QuotesSelected     int     `json:"quotes_selected" example:"4"`
	AverageQuoteScore  float64 `json:"average_quote_score" example:"78.5"`
	DeliveriesReceived int     `json:"deliveries_received" example:"9"`
	OnTimeDeliveries   int     `json:"on_time_deliveries" example:"7"`
	OnTimeRate         float64 `json:"on_time_rate" example:"77.8"`
}
