package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// fakeAppointmentRepo reproduces the transactional booking semantics in
// memory. The mutex stands in for the row lock: check and flip of the
// booked flag happen under it, like the real FOR UPDATE transaction.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]*model.Availability
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		slots:        make(map[uuid.UUID]*model.Availability),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

func (r *fakeAppointmentRepo) addSlot(doctorID uuid.UUID) *model.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := &model.Availability{DoctorID: doctorID, Date: time.Now().AddDate(0, 0, 1)}
	slot.ID = uuid.New()
	r.slots[slot.ID] = slot
	return slot
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	cp := *appointment
	return &cp, nil
}

func (r *fakeAppointmentRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.MemberID == memberID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListAll(_ context.Context) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, a := range r.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) BookSlot(_ context.Context, availabilityID, memberID uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[availabilityID]
	if !ok {
		return nil, apperrors.NotFound("availability", nil)
	}
	if slot.IsBooked {
		return nil, apperrors.Conflict("this time slot is already booked", nil)
	}

	slot.IsBooked = true
	appointment := &model.Appointment{
		MemberID:       memberID,
		DoctorID:       slot.DoctorID,
		AvailabilityID: slot.ID,
		Date:           slot.Date,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Status:         model.AppointmentStatusScheduled,
	}
	appointment.ID = uuid.New()
	r.appointments[appointment.ID] = appointment

	cp := *appointment
	return &cp, nil
}

func (r *fakeAppointmentRepo) CancelAndRelease(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return apperrors.Conflict("appointment is already cancelled", nil)
	}

	appointment.Status = model.AppointmentStatusCancelled
	if slot, ok := r.slots[appointment.AvailabilityID]; ok {
		slot.IsBooked = false
	}
	return nil
}

func (r *fakeAppointmentRepo) Complete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appointment.Status != model.AppointmentStatusScheduled {
		return apperrors.Conflict("only scheduled appointments can be completed", nil)
	}

	appointment.Status = model.AppointmentStatusCompleted
	return nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *fakeDoctorRepo) add(userID *uuid.UUID) *model.Doctor {
	d := &model.Doctor{Name: "Dr. Test", Email: "doc@example.com", UserID: userID}
	d.ID = uuid.New()
	r.doctors[d.ID] = d
	return d
}

func (r *fakeDoctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	doctor.ID = uuid.New()
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return doctor, nil
}

func (r *fakeDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Doctor, error) {
	for _, doctor := range r.doctors {
		if doctor.IsOwnedBy(userID) {
			return doctor, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *fakeDoctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, doctor := range r.doctors {
		out = append(out, doctor)
	}
	return out, nil
}

func (r *fakeDoctorRepo) AssignDepartment(_ context.Context, doctorID, departmentID uuid.UUID) error {
	doctor, ok := r.doctors[doctorID]
	if !ok {
		return apperrors.NotFound("doctor", nil)
	}
	doctor.DepartmentID = &departmentID
	return nil
}

func (r *fakeDoctorRepo) LinkUser(_ context.Context, doctorID, userID uuid.UUID) error {
	doctor, ok := r.doctors[doctorID]
	if !ok {
		return apperrors.NotFound("doctor", nil)
	}
	doctor.UserID = &userID
	return nil
}

func newTestService() (*Service, *fakeAppointmentRepo, *fakeDoctorRepo) {
	repo := newFakeAppointmentRepo()
	doctors := newFakeDoctorRepo()
	return NewService(repo, doctors, nil, nil, zerolog.Nop()), repo, doctors
}

func TestBook(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctor := doctors.add(nil)
	slot := repo.addSlot(doctor.ID)
	memberID := uuid.New()

	appointment, err := svc.Book(context.Background(), slot.ID, memberID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, memberID, appointment.MemberID)
	assert.Equal(t, doctor.ID, appointment.DoctorID)
	assert.True(t, repo.slots[slot.ID].IsBooked)
}

func TestBookUnknownSlot(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestBookAlreadyBookedSlot(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctor := doctors.add(nil)
	slot := repo.addSlot(doctor.ID)
	ctx := context.Background()

	_, err := svc.Book(ctx, slot.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Book(ctx, slot.ID, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

// Many members race for one slot. Exactly one booking must succeed and
// everyone else must get a conflict.
func TestBookConcurrentSingleWinner(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctor := doctors.add(nil)
	slot := repo.addSlot(doctor.ID)

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), slot.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	var booked, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case apperrors.IsCode(err, apperrors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, booked)
	assert.Equal(t, racers-1, conflicts)
	assert.Len(t, repo.appointments, 1)
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctor := doctors.add(nil)
	slot := repo.addSlot(doctor.ID)
	ctx := context.Background()
	memberID := uuid.New()

	appointment, err := svc.Book(ctx, slot.ID, memberID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, appointment.ID, model.Identity{UserID: memberID, Role: model.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.False(t, repo.slots[slot.ID].IsBooked)

	// The freed slot is bookable again, by someone else.
	rebooked, err := svc.Book(ctx, slot.ID, uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, appointment.ID, rebooked.ID)
}

func TestCancelTwiceRejected(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctor := doctors.add(nil)
	slot := repo.addSlot(doctor.ID)
	ctx := context.Background()
	memberID := uuid.New()
	requester := model.Identity{UserID: memberID, Role: model.RoleMember}

	appointment, err := svc.Book(ctx, slot.ID, memberID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appointment.ID, requester)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appointment.ID, requester)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestCancelAuthorization(t *testing.T) {
	svc, repo, doctors := newTestService()

	doctorUserID := uuid.New()
	doctor := doctors.add(&doctorUserID)
	otherDoctorUserID := uuid.New()
	doctors.add(&otherDoctorUserID)

	memberID := uuid.New()
	ctx := context.Background()

	book := func() *model.Appointment {
		slot := repo.addSlot(doctor.ID)
		appointment, err := svc.Book(ctx, slot.ID, memberID)
		require.NoError(t, err)
		return appointment
	}

	// A stranger member cannot cancel.
	appointment := book()
	_, err := svc.Cancel(ctx, appointment.ID, model.Identity{UserID: uuid.New(), Role: model.RoleMember})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	// A different doctor cannot cancel.
	_, err = svc.Cancel(ctx, appointment.ID, model.Identity{UserID: otherDoctorUserID, Role: model.RoleDoctor})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	// The doctor of record can.
	_, err = svc.Cancel(ctx, appointment.ID, model.Identity{UserID: doctorUserID, Role: model.RoleDoctor})
	assert.NoError(t, err)

	// An admin can.
	appointment = book()
	_, err = svc.Cancel(ctx, appointment.ID, model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})
	assert.NoError(t, err)

	// The owning member can.
	appointment = book()
	_, err = svc.Cancel(ctx, appointment.ID, model.Identity{UserID: memberID, Role: model.RoleMember})
	assert.NoError(t, err)
}

func TestComplete(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctorUserID := uuid.New()
	doctor := doctors.add(&doctorUserID)
	slot := repo.addSlot(doctor.ID)
	ctx := context.Background()
	memberID := uuid.New()

	appointment, err := svc.Book(ctx, slot.ID, memberID)
	require.NoError(t, err)

	// Members cannot complete, even their own appointment.
	_, err = svc.Complete(ctx, appointment.ID, model.Identity{UserID: memberID, Role: model.RoleMember})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	completed, err := svc.Complete(ctx, appointment.ID, model.Identity{UserID: doctorUserID, Role: model.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)

	// Completed appointments cannot be completed again or cancelled.
	_, err = svc.Complete(ctx, appointment.ID, model.Identity{UserID: doctorUserID, Role: model.RoleDoctor})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestListVisibility(t *testing.T) {
	svc, repo, doctors := newTestService()
	doctorUserID := uuid.New()
	doctor := doctors.add(&doctorUserID)
	otherDoctor := doctors.add(nil)
	ctx := context.Background()

	memberID := uuid.New()
	_, err := svc.Book(ctx, repo.addSlot(doctor.ID).ID, memberID)
	require.NoError(t, err)
	_, err = svc.Book(ctx, repo.addSlot(otherDoctor.ID).ID, uuid.New())
	require.NoError(t, err)

	mine, err := svc.List(ctx, model.Identity{UserID: memberID, Role: model.RoleMember})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	byDoctor, err := svc.List(ctx, model.Identity{UserID: doctorUserID, Role: model.RoleDoctor})
	require.NoError(t, err)
	assert.Len(t, byDoctor, 1)

	all, err := svc.List(ctx, model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
