package models_test

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/require"
)

func TestInvoiceTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{models.InvoiceStatusDraft, models.InvoiceStatusSubmitted, true},
		{models.InvoiceStatusDraft, models.InvoiceStatusCancelled, true},
		{models.InvoiceStatusDraft, models.InvoiceStatusApproved, false},
		{models.InvoiceStatusSubmitted, models.InvoiceStatusApproved, true},
		{models.InvoiceStatusSubmitted, models.InvoiceStatusDisputed, true},
		{models.InvoiceStatusApproved, models.InvoiceStatusPaid, true},
		{models.InvoiceStatusApproved, models.InvoiceStatusDisputed, true},
		{models.InvoiceStatusDisputed, models.InvoiceStatusSubmitted, true},
		{models.InvoiceStatusDisputed, models.InvoiceStatusCancelled, true},
		{models.InvoiceStatusDisputed, models.InvoiceStatusPaid, false},
		{models.InvoiceStatusPaid, models.InvoiceStatusDisputed, false},
		{models.InvoiceStatusCancelled, models.InvoiceStatusDraft, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, models.CanTransitionInvoice(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestRecomputeTotalPaid(t *testing.T) {
	inv := &models.Invoice{
		TotalAmount: 5550,
		TotalPaid:   9999, // stale value, must be overwritten
		Payments: []models.InvoicePayment{
			{Amount: 2775},
			{Amount: 1000},
		},
	}

	inv.RecomputeTotalPaid()
	require.Equal(t, 3775.0, inv.TotalPaid)
	require.False(t, inv.IsFullyPaid())

	inv.Payments = append(inv.Payments, models.InvoicePayment{Amount: 1775})
	inv.RecomputeTotalPaid()
	require.Equal(t, 5550.0, inv.TotalPaid)
	require.True(t, inv.IsFullyPaid())
}

func TestIsFullyPaidZeroTotal(t *testing.T) {
	inv := &models.Invoice{TotalAmount: 0, TotalPaid: 0}
	require.False(t, inv.IsFullyPaid())
}

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)

	inv := &models.Invoice{Status: models.InvoiceStatusSubmitted, DueDate: past}
	require.True(t, inv.IsOverdue(now))

	inv.DueDate = future
	require.False(t, inv.IsOverdue(now))

	inv.DueDate = past
	inv.Status = models.InvoiceStatusPaid
	require.False(t, inv.IsOverdue(now))

	inv.Status = models.InvoiceStatusCancelled
	require.False(t, inv.IsOverdue(now))

	inv.Status = models.InvoiceStatusSubmitted
	inv.DueDate = time.Time{}
	require.False(t, inv.IsOverdue(now))
}
