package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *availabilityRepository) Create(ctx context.Context, slot *model.Availability) error {
	query := `
		INSERT INTO availability (
			id, doctor_id, date, start_time, end_time, is_booked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	slot.ID = uuid.New()
	slot.IsBooked = false
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.IsBooked,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, end_time, is_booked,
			   created_at, updated_at
		FROM availability
		WHERE id = $1
	`
	var slot model.Availability
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("availability slot", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return &slot, nil
}

// Delete removes a slot, but only while it is still free. The booked
// guard is in the statement itself so a concurrent booking cannot
// slip between a read and the delete.
func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM availability
		WHERE id = $1 AND is_booked = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("cannot delete a booked slot", nil)
	}
	return nil
}

func (r *availabilityRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability
			WHERE doctor_id = $1
			AND date = $2
			AND start_time < $4
			AND end_time > $3
		)
	`
	var overlaps bool
	err := r.db.GetContext(ctx, &overlaps, query, doctorID, date, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return overlaps, nil
}

func (r *availabilityRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, freeOnly bool) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, end_time, is_booked,
			   created_at, updated_at
		FROM availability
		WHERE doctor_id = $1
	`
	if freeOnly {
		query += " AND is_booked = FALSE"
	}
	query += " ORDER BY date ASC, start_time ASC"

	var slots []*model.Availability
	if err := r.db.SelectContext(ctx, &slots, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return slots, nil
}

func (r *availabilityRepository) ListAll(ctx context.Context) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, end_time, is_booked,
			   created_at, updated_at
		FROM availability
		ORDER BY date ASC, start_time ASC
	`
	var slots []*model.Availability
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return slots, nil
}
