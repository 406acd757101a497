package reimbursement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type fakeClaimRepo struct {
	claims        map[uuid.UUID]*model.Reimbursement
	byAppointment map[uuid.UUID]*model.Reimbursement
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{
		claims:        make(map[uuid.UUID]*model.Reimbursement),
		byAppointment: make(map[uuid.UUID]*model.Reimbursement),
	}
}

func (r *fakeClaimRepo) Create(_ context.Context, claim *model.Reimbursement) error {
	if _, exists := r.byAppointment[claim.AppointmentID]; exists {
		return apperrors.Conflict("reimbursement already submitted for this appointment", nil)
	}
	claim.ID = uuid.New()
	r.claims[claim.ID] = claim
	r.byAppointment[claim.AppointmentID] = claim
	return nil
}

func (r *fakeClaimRepo) Get(_ context.Context, id uuid.UUID) (*model.Reimbursement, error) {
	claim, ok := r.claims[id]
	if !ok {
		return nil, apperrors.NotFound("reimbursement", nil)
	}
	return claim, nil
}

func (r *fakeClaimRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.Reimbursement, error) {
	claim, ok := r.byAppointment[appointmentID]
	if !ok {
		return nil, apperrors.NotFound("reimbursement", nil)
	}
	return claim, nil
}

func (r *fakeClaimRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]*model.Reimbursement, error) {
	var out []*model.Reimbursement
	for _, claim := range r.claims {
		if claim.MemberID == memberID {
			out = append(out, claim)
		}
	}
	return out, nil
}

func (r *fakeClaimRepo) ListByStatus(_ context.Context, status model.ReimbursementStatus) ([]*model.Reimbursement, error) {
	var out []*model.Reimbursement
	for _, claim := range r.claims {
		if claim.Status == status {
			out = append(out, claim)
		}
	}
	return out, nil
}

func (r *fakeClaimRepo) ListAll(_ context.Context) ([]*model.Reimbursement, error) {
	var out []*model.Reimbursement
	for _, claim := range r.claims {
		out = append(out, claim)
	}
	return out, nil
}

func (r *fakeClaimRepo) Review(_ context.Context, id uuid.UUID, status model.ReimbursementStatus, notes *string) error {
	claim, ok := r.claims[id]
	if !ok {
		return apperrors.NotFound("reimbursement", nil)
	}
	if claim.Status != model.ReimbursementStatusPending {
		return apperrors.Conflict("only pending claims can be reviewed", nil)
	}
	claim.Status = status
	claim.AdminNotes = notes
	return nil
}

// fakeAppointmentStore serves only lookups; the booking operations are
// not reachable from the claim workflow.
type fakeAppointmentStore struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentStore) add(memberID uuid.UUID, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{MemberID: memberID, DoctorID: uuid.New(), Status: status}
	a.ID = uuid.New()
	r.appointments[a.ID] = a
	return a
}

func (r *fakeAppointmentStore) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return appointment, nil
}

func (r *fakeAppointmentStore) ListByMember(context.Context, uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentStore) ListByDoctor(context.Context, uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentStore) ListAll(context.Context) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentStore) BookSlot(context.Context, uuid.UUID, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.Internal(nil)
}

func (r *fakeAppointmentStore) CancelAndRelease(context.Context, uuid.UUID) error {
	return apperrors.Internal(nil)
}

func (r *fakeAppointmentStore) Complete(context.Context, uuid.UUID) error {
	return apperrors.Internal(nil)
}

func newTestService(policy Policy) (*Service, *fakeClaimRepo, *fakeAppointmentStore) {
	claims := newFakeClaimRepo()
	appointments := newFakeAppointmentStore()
	return NewService(claims, appointments, policy, zerolog.Nop()), claims, appointments
}

func TestSubmitCreatesPendingClaim(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	memberID := uuid.New()
	appointment := appointments.add(memberID, model.AppointmentStatusCompleted)

	claim, err := svc.Submit(context.Background(), memberID, &model.SubmitClaimRequest{
		AppointmentID: appointment.ID,
		Amount:        150.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusPending, claim.Status)
}

func TestSubmitRequiresCompletedAppointment(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	memberID := uuid.New()
	ctx := context.Background()

	for _, status := range []model.AppointmentStatus{model.AppointmentStatusScheduled, model.AppointmentStatusCancelled} {
		appointment := appointments.add(memberID, status)
		_, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
			AppointmentID: appointment.ID,
			Amount:        50.0,
			ReceiptURL:    "https://receipts.example.com/1.pdf",
		})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidInput), "status %s", status)
	}
}

func TestSubmitForOthersAppointmentForbidden(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	appointment := appointments.add(uuid.New(), model.AppointmentStatusCompleted)

	_, err := svc.Submit(context.Background(), uuid.New(), &model.SubmitClaimRequest{
		AppointmentID: appointment.ID,
		Amount:        50.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestSubmitDuplicateClaimRejected(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	memberID := uuid.New()
	appointment := appointments.add(memberID, model.AppointmentStatusCompleted)
	ctx := context.Background()

	req := &model.SubmitClaimRequest{
		AppointmentID: appointment.ID,
		Amount:        50.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	}
	_, err := svc.Submit(ctx, memberID, req)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, memberID, req)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestSubmitAutoApproval(t *testing.T) {
	svc, _, appointments := newTestService(Policy{AutoApprove: true, AutoApproveThreshold: 100.0})
	memberID := uuid.New()
	ctx := context.Background()

	small, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        50.0,
		ReceiptURL:    "https://receipts.example.com/small.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusApproved, small.Status)

	atThreshold, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        100.0,
		ReceiptURL:    "https://receipts.example.com/at.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusApproved, atThreshold.Status)

	large, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        150.0,
		ReceiptURL:    "https://receipts.example.com/large.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusPending, large.Status)
}

func TestReview(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	memberID := uuid.New()
	ctx := context.Background()

	claim, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        200.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	})
	require.NoError(t, err)

	notes := "receipt verified"
	approved, err := svc.Review(ctx, claim.ID, true, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusApproved, approved.Status)
	require.NotNil(t, approved.AdminNotes)
	assert.Equal(t, notes, *approved.AdminNotes)

	// Terminal states cannot be reviewed again.
	_, err = svc.Review(ctx, claim.ID, false, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestReviewReject(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	memberID := uuid.New()
	ctx := context.Background()

	claim, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        200.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	})
	require.NoError(t, err)

	rejected, err := svc.Review(ctx, claim.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementStatusRejected, rejected.Status)
}

func TestMemberVisibility(t *testing.T) {
	svc, _, appointments := newTestService(Policy{})
	ctx := context.Background()

	memberID := uuid.New()
	otherID := uuid.New()

	mine, err := svc.Submit(ctx, memberID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(memberID, model.AppointmentStatusCompleted).ID,
		Amount:        10.0,
		ReceiptURL:    "https://receipts.example.com/1.pdf",
	})
	require.NoError(t, err)
	theirs, err := svc.Submit(ctx, otherID, &model.SubmitClaimRequest{
		AppointmentID: appointments.add(otherID, model.AppointmentStatusCompleted).ID,
		Amount:        10.0,
		ReceiptURL:    "https://receipts.example.com/2.pdf",
	})
	require.NoError(t, err)

	listed, err := svc.ListMine(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	_, err = svc.Get(ctx, theirs.ID, model.Identity{UserID: memberID, Role: model.RoleMember})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
