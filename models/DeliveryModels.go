package models

import "time"

// Delivery statuses.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusInTransit = "in_transit"
	DeliveryStatusReceived  = "received"
	DeliveryStatusInspected = "inspected"
)

// AllowedDeliveryTransitions maps delivery statuses to allowed next states.
var AllowedDeliveryTransitions = map[string][]string{
	DeliveryStatusPending:   {DeliveryStatusInTransit, DeliveryStatusReceived},
	DeliveryStatusInTransit: {DeliveryStatusReceived},
	DeliveryStatusReceived:  {DeliveryStatusInspected},
}

// CanTransitionDelivery reports whether a delivery may move between statuses.
func CanTransitionDelivery(from, to string) bool {
	for _, next := range AllowedDeliveryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GORM-backed delivery tracking models.

// Delivery represents the deliveries table with GORM tags.
type Delivery struct {
	ID              uint           `gorm:"primaryKey;column:id" json:"id"`
	PurchaseOrderID int            `gorm:"column:purchase_order_id;not null" json:"purchase_order_id"`
	SupplierID      int            `gorm:"column:supplier_id;not null" json:"supplier_id"`
	Status          string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	ExpectedDate    *time.Time     `gorm:"column:expected_date" json:"expected_date,omitempty"`
	ReceivedDate    *time.Time     `gorm:"column:received_date" json:"received_date,omitempty"`
	ConditionNotes  string         `gorm:"column:condition_notes" json:"condition_notes,omitempty"`
	ReceivedBy      *int           `gorm:"column:received_by" json:"received_by,omitempty"`
	Lines           []DeliveryLine `gorm:"foreignKey:DeliveryID" json:"lines"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for Delivery.
func (Delivery) TableName() string {
	return "deliveries"
}

// DeliveryLine represents the delivery_lines table with GORM tags. POLineID
// ties the received quantity back to a purchase order line.
type DeliveryLine struct {
	ID          uint    `gorm:"primaryKey;column:id" json:"id"`
	DeliveryID  uint    `gorm:"column:delivery_id;not null" json:"delivery_id"`
	POLineID    int     `gorm:"column:po_line_id;not null" json:"po_line_id"`
	Description string  `gorm:"column:description" json:"description"`
	ReceivedQty float64 `gorm:"column:received_qty;default:0" json:"received_qty"`
}

// TableName specifies the table name for DeliveryLine.
func (DeliveryLine) TableName() string {
	return "delivery_lines"
}

// WasOnTime reports whether the delivery arrived by its expected date.
func (d *Delivery) WasOnTime() bool {
	if d.ExpectedDate == nil || d.ReceivedDate == nil {
		return false
	}
	return !d.ReceivedDate.After(*d.ExpectedDate)
}
