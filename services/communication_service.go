package services

import (
	"backend/models"
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// CommunicationService dispatches mass communications to their resolved
// audience via the email service and records one delivery row per recipient.
type CommunicationService struct {
	db    *sql.DB
	email *EmailService
}

func NewCommunicationService(db *sql.DB, email *EmailService) *CommunicationService {
	return &CommunicationService{db: db, email: email}
}

// DispatchDue finds scheduled communications whose time has come and sends
// them. Called from the minutely cron entry.
func (cs *CommunicationService) DispatchDue(ctx context.Context) error {
	rows, err := cs.db.QueryContext(ctx, `
		SELECT id FROM communications
		WHERE status = $1 AND scheduled_at <= NOW()
		ORDER BY scheduled_at`,
		models.CommunicationStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to query due communications: %v", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := cs.Dispatch(ctx, id); err != nil {
			log.Printf("Failed to dispatch communication %d: %v", id, err)
		}
	}
	return nil
}

// Dispatch sends one communication to every resolved recipient. Per-recipient
// failures do not stop the loop; the communication ends up sent (with a
// failure count) unless every single delivery failed.
func (cs *CommunicationService) Dispatch(ctx context.Context, commID int) error {
	comm, err := cs.getCommunication(ctx, commID)
	if err != nil {
		return err
	}
	if !models.CanTransitionCommunication(comm.Status, models.CommunicationStatusSending) {
		return fmt.Errorf("communication %d cannot be sent from status %s", commID, comm.Status)
	}

	if err := cs.setStatus(ctx, commID, models.CommunicationStatusSending); err != nil {
		return err
	}

	recipients, err := cs.resolveRecipients(ctx, comm)
	if err != nil {
		cs.finalize(ctx, commID, models.CommunicationStatusFailed, 0, 0)
		return fmt.Errorf("failed to resolve recipients: %v", err)
	}

	plainBody := convertHTMLToText(comm.Body)
	var sent, failed int
	for _, r := range recipients {
		delivery := models.CommunicationDelivery{
			CommunicationID: commID,
			UserID:          r.ID,
			Email:           r.Email,
			DeliveredAt:     time.Now(),
		}
		if err := cs.email.SendEmail(r.Email, comm.Subject, plainBody, nil, nil); err != nil {
			failed++
			delivery.Error = err.Error()
		} else {
			sent++
			delivery.Delivered = true
		}
		if err := cs.recordDelivery(ctx, delivery); err != nil {
			log.Printf("Failed to record delivery for communication %d, user %d: %v", commID, r.ID, err)
		}
	}

	finalStatus := models.CommunicationStatusSent
	if sent == 0 && failed > 0 {
		finalStatus = models.CommunicationStatusFailed
	}
	return cs.finalize(ctx, commID, finalStatus, sent, failed)
}

func (cs *CommunicationService) getCommunication(ctx context.Context, id int) (*models.Communication, error) {
	var comm models.Communication
	var department sql.NullString
	var recipientIDs pq.Int64Array
	var scheduledAt sql.NullTime

	err := cs.db.QueryRowContext(ctx, `
		SELECT id, subject, body, audience_type, department, recipient_ids, status, scheduled_at
		FROM communications WHERE id = $1`, id).Scan(
		&comm.ID, &comm.Subject, &comm.Body, &comm.AudienceType,
		&department, &recipientIDs, &comm.Status, &scheduledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("communication %d not found", id)
		}
		return nil, err
	}

	comm.Department = department.String
	for _, id := range recipientIDs {
		comm.RecipientIDs = append(comm.RecipientIDs, int(id))
	}
	if scheduledAt.Valid {
		comm.ScheduledAt = &scheduledAt.Time
	}
	return &comm, nil
}

// resolveRecipients expands the audience into concrete users with email
// addresses. Suspended accounts are skipped.
func (cs *CommunicationService) resolveRecipients(ctx context.Context, comm *models.Communication) ([]models.User, error) {
	var rows *sql.Rows
	var err error

	switch comm.AudienceType {
	case models.AudienceAll:
		rows, err = cs.db.QueryContext(ctx,
			`SELECT id, email, first_name, last_name FROM users WHERE suspended = false`)
	case models.AudienceDepartment:
		rows, err = cs.db.QueryContext(ctx,
			`SELECT id, email, first_name, last_name FROM users WHERE suspended = false AND department = $1`,
			comm.Department)
	case models.AudienceRecipients:
		ids := make(pq.Int64Array, len(comm.RecipientIDs))
		for i, id := range comm.RecipientIDs {
			ids[i] = int64(id)
		}
		rows, err = cs.db.QueryContext(ctx,
			`SELECT id, email, first_name, last_name FROM users WHERE suspended = false AND id = ANY($1)`, ids)
	default:
		return nil, fmt.Errorf("unknown audience type: %s", comm.AudienceType)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (cs *CommunicationService) recordDelivery(ctx context.Context, d models.CommunicationDelivery) error {
	_, err := cs.db.ExecContext(ctx, `
		INSERT INTO communication_deliveries (communication_id, user_id, email, delivered, error, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.CommunicationID, d.UserID, d.Email, d.Delivered, d.Error, d.DeliveredAt)
	return err
}

func (cs *CommunicationService) setStatus(ctx context.Context, id int, status string) error {
	_, err := cs.db.ExecContext(ctx,
		`UPDATE communications SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

func (cs *CommunicationService) finalize(ctx context.Context, id int, status string, sent, failed int) error {
	_, err := cs.db.ExecContext(ctx, `
		UPDATE communications SET status = $1, sent_count = $2, failed_count = $3, sent_at = NOW(), updated_at = NOW()
		WHERE id = $4`, status, sent, failed, id)
	return err
}
