package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *reimbursementRepository) Create(ctx context.Context, claim *model.Reimbursement) error {
	query := `
		INSERT INTO reimbursements (
			id, member_id, appointment_id, amount, description,
			receipt_url, status, admin_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	claim.ID = uuid.New()
	claim.CreatedAt = time.Now()
	claim.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		claim.ID,
		claim.MemberID,
		claim.AppointmentID,
		claim.Amount,
		claim.Description,
		claim.ReceiptURL,
		claim.Status,
		claim.AdminNotes,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.Conflict("reimbursement already submitted for this appointment", err)
		}
		return fmt.Errorf("failed to create reimbursement: %w", err)
	}
	return nil
}

func (r *reimbursementRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reimbursement, error) {
	query := `
		SELECT id, member_id, appointment_id, amount, description,
			   receipt_url, status, admin_notes, created_at, updated_at
		FROM reimbursements
		WHERE id = $1
	`
	var claim model.Reimbursement
	err := r.db.GetContext(ctx, &claim, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("reimbursement", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reimbursement: %w", err)
	}
	return &claim, nil
}

func (r *reimbursementRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Reimbursement, error) {
	query := `
		SELECT id, member_id, appointment_id, amount, description,
			   receipt_url, status, admin_notes, created_at, updated_at
		FROM reimbursements
		WHERE appointment_id = $1
	`
	var claim model.Reimbursement
	err := r.db.GetContext(ctx, &claim, query, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("reimbursement", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reimbursement by appointment: %w", err)
	}
	return &claim, nil
}

func (r *reimbursementRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Reimbursement, error) {
	query := `
		SELECT id, member_id, appointment_id, amount, description,
			   receipt_url, status, admin_notes, created_at, updated_at
		FROM reimbursements
		WHERE member_id = $1
		ORDER BY created_at DESC
	`
	var claims []*model.Reimbursement
	if err := r.db.SelectContext(ctx, &claims, query, memberID); err != nil {
		return nil, fmt.Errorf("failed to list reimbursements: %w", err)
	}
	return claims, nil
}

func (r *reimbursementRepository) ListByStatus(ctx context.Context, status model.ReimbursementStatus) ([]*model.Reimbursement, error) {
	query := `
		SELECT id, member_id, appointment_id, amount, description,
			   receipt_url, status, admin_notes, created_at, updated_at
		FROM reimbursements
		WHERE status = $1
		ORDER BY created_at ASC
	`
	var claims []*model.Reimbursement
	if err := r.db.SelectContext(ctx, &claims, query, status); err != nil {
		return nil, fmt.Errorf("failed to list reimbursements by status: %w", err)
	}
	return claims, nil
}

func (r *reimbursementRepository) ListAll(ctx context.Context) ([]*model.Reimbursement, error) {
	query := `
		SELECT id, member_id, appointment_id, amount, description,
			   receipt_url, status, admin_notes, created_at, updated_at
		FROM reimbursements
		ORDER BY created_at DESC
	`
	var claims []*model.Reimbursement
	if err := r.db.SelectContext(ctx, &claims, query); err != nil {
		return nil, fmt.Errorf("failed to list reimbursements: %w", err)
	}
	return claims, nil
}

// Review transitions a PENDING claim to its terminal state. The status
// guard is in the statement: once a claim is APPROVED or REJECTED no
// further transition can happen, even under concurrent reviews.
func (r *reimbursementRepository) Review(ctx context.Context, id uuid.UUID, status model.ReimbursementStatus, notes *string) error {
	query := `
		UPDATE reimbursements
		SET status = $2, admin_notes = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		id,
		status,
		notes,
		time.Now(),
		model.ReimbursementStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to review reimbursement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("only pending claims can be reviewed", nil)
	}
	return nil
}
