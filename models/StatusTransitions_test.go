package models_test

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/require"
)

func TestRequisitionTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{models.RequisitionStatusDraft, models.RequisitionStatusSubmitted, true},
		{models.RequisitionStatusDraft, models.RequisitionStatusApproved, false},
		{models.RequisitionStatusSubmitted, models.RequisitionStatusApproved, true},
		{models.RequisitionStatusSubmitted, models.RequisitionStatusRejected, true},
		{models.RequisitionStatusApproved, models.RequisitionStatusConverted, true},
		{models.RequisitionStatusRejected, models.RequisitionStatusSubmitted, false},
		{models.RequisitionStatusConverted, models.RequisitionStatusApproved, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, models.CanTransitionRequisition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestRFQTransitions(t *testing.T) {
	require.True(t, models.CanTransitionRFQ(models.RFQStatusOpen, models.RFQStatusClosed))
	require.True(t, models.CanTransitionRFQ(models.RFQStatusClosed, models.RFQStatusAwarded))
	require.False(t, models.CanTransitionRFQ(models.RFQStatusOpen, models.RFQStatusAwarded))
	require.False(t, models.CanTransitionRFQ(models.RFQStatusAwarded, models.RFQStatusOpen))
}

func TestVendorTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{models.VendorStatusPending, models.VendorStatusApproved, true},
		{models.VendorStatusPending, models.VendorStatusRejected, true},
		{models.VendorStatusPending, models.VendorStatusSuspended, false},
		{models.VendorStatusApproved, models.VendorStatusSuspended, true},
		{models.VendorStatusApproved, models.VendorStatusBlacklisted, true},
		{models.VendorStatusSuspended, models.VendorStatusApproved, true},
		{models.VendorStatusSuspended, models.VendorStatusBlacklisted, true},
		{models.VendorStatusBlacklisted, models.VendorStatusApproved, false},
		{models.VendorStatusRejected, models.VendorStatusApproved, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, models.CanTransitionVendor(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestDeliveryTransitions(t *testing.T) {
	require.True(t, models.CanTransitionDelivery(models.DeliveryStatusPending, models.DeliveryStatusInTransit))
	require.True(t, models.CanTransitionDelivery(models.DeliveryStatusPending, models.DeliveryStatusReceived))
	require.True(t, models.CanTransitionDelivery(models.DeliveryStatusInTransit, models.DeliveryStatusReceived))
	require.True(t, models.CanTransitionDelivery(models.DeliveryStatusReceived, models.DeliveryStatusInspected))
	require.False(t, models.CanTransitionDelivery(models.DeliveryStatusReceived, models.DeliveryStatusPending))
	require.False(t, models.CanTransitionDelivery(models.DeliveryStatusInspected, models.DeliveryStatusReceived))
}

func TestCommunicationTransitions(t *testing.T) {
	require.True(t, models.CanTransitionCommunication(models.CommunicationStatusDraft, models.CommunicationStatusScheduled))
	require.True(t, models.CanTransitionCommunication(models.CommunicationStatusDraft, models.CommunicationStatusSending))
	require.True(t, models.CanTransitionCommunication(models.CommunicationStatusScheduled, models.CommunicationStatusDraft))
	require.True(t, models.CanTransitionCommunication(models.CommunicationStatusSending, models.CommunicationStatusSent))
	require.True(t, models.CanTransitionCommunication(models.CommunicationStatusSending, models.CommunicationStatusFailed))
	require.False(t, models.CanTransitionCommunication(models.CommunicationStatusSent, models.CommunicationStatusDraft))
	require.False(t, models.CanTransitionCommunication(models.CommunicationStatusScheduled, models.CommunicationStatusSent))
}

func TestCommunicationIsDue(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	comm := &models.Communication{Status: models.CommunicationStatusScheduled, ScheduledAt: &past}
	require.True(t, comm.IsDue(now))

	comm.ScheduledAt = &now
	require.True(t, comm.IsDue(now))

	comm.ScheduledAt = &future
	require.False(t, comm.IsDue(now))

	comm.ScheduledAt = nil
	require.False(t, comm.IsDue(now))

	comm.Status = models.CommunicationStatusDraft
	comm.ScheduledAt = &past
	require.False(t, comm.IsDue(now))
}

func TestDeliveryWasOnTime(t *testing.T) {
	expected := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	early := expected.AddDate(0, 0, -1)
	late := expected.AddDate(0, 0, 3)

	d := &models.Delivery{ExpectedDate: &expected, ReceivedDate: &early}
	require.True(t, d.WasOnTime())

	d.ReceivedDate = &expected
	require.True(t, d.WasOnTime())

	d.ReceivedDate = &late
	require.False(t, d.WasOnTime())

	d.ReceivedDate = nil
	require.False(t, d.WasOnTime())

	d.ExpectedDate = nil
	d.ReceivedDate = &early
	require.False(t, d.WasOnTime())
}
