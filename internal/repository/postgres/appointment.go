package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, member_id, doctor_id, availability_id,
			   date, start_time, end_time, status,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Appointment, error) {
	return r.list(ctx, "member_id", memberID)
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	return r.list(ctx, "doctor_id", doctorID)
}

func (r *appointmentRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*model.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT id, member_id, doctor_id, availability_id,
			   date, start_time, end_time, status,
			   created_at, updated_at
		FROM appointments
		WHERE %s = $1
		ORDER BY date ASC, start_time ASC
	`, column)

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, id); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT id, member_id, doctor_id, availability_id,
			   date, start_time, end_time, status,
			   created_at, updated_at
		FROM appointments
		ORDER BY date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// BookSlot is the booking critical section. It takes an exclusive row
// lock on the availability row, so of two concurrent requests for the
// same slot one blocks until the other commits, then observes
// is_booked = true and fails with a conflict. The appointment insert
// and the flag flip commit together or not at all.
func (r *appointmentRepository) BookSlot(ctx context.Context, availabilityID, memberID uuid.UUID) (*model.Appointment, error) {
	var appointment *model.Appointment

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var slot model.Availability
		err := tx.GetContext(ctx, &slot, `
			SELECT id, doctor_id, date, start_time, end_time, is_booked,
				   created_at, updated_at
			FROM availability
			WHERE id = $1
			FOR UPDATE
		`, availabilityID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("availability slot", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock availability: %w", err)
		}

		if slot.IsBooked {
			return apperrors.Conflict("this time slot is already booked", nil)
		}

		now := time.Now()
		appointment = &model.Appointment{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			MemberID:       memberID,
			DoctorID:       slot.DoctorID,
			AvailabilityID: slot.ID,
			Date:           slot.Date,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
			Status:         model.AppointmentStatusScheduled,
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, member_id, doctor_id, availability_id,
				date, start_time, end_time, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			appointment.ID,
			appointment.MemberID,
			appointment.DoctorID,
			appointment.AvailabilityID,
			appointment.Date,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE availability
			SET is_booked = TRUE, updated_at = $2
			WHERE id = $1
		`, slot.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark slot booked: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// CancelAndRelease sets the appointment to CANCELLED and frees its slot
// in one transaction. The status guard is in the update statement, so a
// concurrent cancel of the same appointment fails cleanly instead of
// releasing the slot twice.
func (r *appointmentRepository) CancelAndRelease(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $2, updated_at = $3
			WHERE id = $1 AND status <> $2
		`, id, model.AppointmentStatusCancelled, now)
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.Conflict("appointment is already cancelled", nil)
		}

		// The slot may have been deleted since booking; releasing
		// nothing is fine.
		_, err = tx.ExecContext(ctx, `
			UPDATE availability
			SET is_booked = FALSE, updated_at = $2
			WHERE id = (SELECT availability_id FROM appointments WHERE id = $1)
		`, id, now)
		if err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}

		return nil
	})
}

func (r *appointmentRepository) Complete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		id,
		model.AppointmentStatusCompleted,
		time.Now(),
		model.AppointmentStatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to complete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("only scheduled appointments can be completed", nil)
	}
	return nil
}
