package models_test

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/require"
)

func TestPOTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{models.POStatusDraft, models.POStatusIssued, true},
		{models.POStatusDraft, models.POStatusCancelled, true},
		{models.POStatusDraft, models.POStatusAcknowledged, false},
		{models.POStatusIssued, models.POStatusAcknowledged, true},
		{models.POStatusIssued, models.POStatusCancelled, true},
		{models.POStatusAcknowledged, models.POStatusPartiallyDelivered, true},
		{models.POStatusAcknowledged, models.POStatusDelivered, true},
		{models.POStatusAcknowledged, models.POStatusCancelled, true},
		{models.POStatusPartiallyDelivered, models.POStatusPartiallyDelivered, true},
		{models.POStatusPartiallyDelivered, models.POStatusDelivered, true},
		{models.POStatusPartiallyDelivered, models.POStatusCancelled, false},
		{models.POStatusDelivered, models.POStatusClosed, true},
		{models.POStatusClosed, models.POStatusDraft, false},
		{models.POStatusCancelled, models.POStatusIssued, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, models.CanTransitionPO(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestNewPurchaseOrderFromQuote(t *testing.T) {
	quote := &models.Quote{
		ID:            9,
		RequisitionID: 4,
		SupplierID:    7,
		TotalAmount:   5550,
		Currency:      "USD",
		PaymentTerms:  "Net 30",
		DeliveryTerms: "DAP site",
		LineItems: []models.QuoteLineItem{
			{ID: 21, QuoteID: 9, Description: "Steel 12mm", Quantity: 100, UnitPrice: 55.5, TotalPrice: 5550},
		},
	}

	po := models.NewPurchaseOrderFromQuote(quote, "PO-EF24680", 3)

	require.Equal(t, "PO-EF24680", po.PONumber)
	require.Equal(t, models.POStatusDraft, po.Status)
	require.Equal(t, 9, po.QuoteID)
	require.Equal(t, 4, po.RequisitionID)
	require.Equal(t, 7, po.SupplierID)
	require.Equal(t, 3, po.BuyerID)
	require.Equal(t, 5550.0, po.TotalAmount)
	require.Equal(t, "Net 30", po.PaymentTerms)
	require.Len(t, po.LineItems, 1)
	require.Equal(t, "Steel 12mm", po.LineItems[0].Description)
	require.Equal(t, 100.0, po.LineItems[0].Quantity)
	require.Zero(t, po.LineItems[0].ID, "line IDs are assigned on insert, not copied")
	require.Zero(t, po.LineItems[0].ReceivedQty)
}

func TestDeliveryProgress(t *testing.T) {
	po := &models.PurchaseOrder{
		LineItems: []models.POLineItem{
			{Quantity: 100, ReceivedQty: 40},
			{Quantity: 50, ReceivedQty: 50},
		},
	}

	received, ordered := po.DeliveryProgress()
	require.Equal(t, 90.0, received)
	require.Equal(t, 150.0, ordered)
}

func TestDeliveryProgressNoLines(t *testing.T) {
	po := &models.PurchaseOrder{CreatedAt: time.Now()}

	received, ordered := po.DeliveryProgress()
	require.Zero(t, received)
	require.Zero(t, ordered)
}
