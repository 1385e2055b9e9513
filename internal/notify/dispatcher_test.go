package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"bloodlink/internal/model"
)

// fakeScheduler records every schedule and cancel call.
type fakeScheduler struct {
	scheduled []string
	cancelled []string
	failFor   map[string]error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{failFor: make(map[string]error)}
}

func (s *fakeScheduler) Schedule(ctx context.Context, identifier string, n Notification, t Trigger) error {
	if err := s.failFor[identifier]; err != nil {
		return err
	}
	s.scheduled = append(s.scheduled, identifier)
	return nil
}

func (s *fakeScheduler) Cancel(ctx context.Context, identifier string) error {
	s.cancelled = append(s.cancelled, identifier)
	return nil
}

func (s *fakeScheduler) CancelAll(ctx context.Context) error { return nil }

// fakeSuppression is an in-memory SuppressionStore.
type fakeSuppression struct {
	markers map[string]bool
	sets    map[string][]string
	down    bool
}

func newFakeSuppression() *fakeSuppression {
	return &fakeSuppression{
		markers: make(map[string]bool),
		sets:    make(map[string][]string),
	}
}

func (f *fakeSuppression) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if f.down {
		// Matches the fail-safe cache client: an unreachable store never
		// blocks a dispatch.
		return true, nil
	}
	if f.markers[key] {
		return false, nil
	}
	f.markers[key] = true
	return true, nil
}

func (f *fakeSuppression) SAdd(ctx context.Context, key string, members ...string) error {
	if f.down {
		return errors.New("store down")
	}
	f.sets[key] = append(f.sets[key], members...)
	return nil
}

func (f *fakeSuppression) SMembers(ctx context.Context, key string) ([]string, error) {
	if f.down {
		return nil, errors.New("store down")
	}
	return f.sets[key], nil
}

func (f *fakeSuppression) Delete(ctx context.Context, keys ...string) error {
	if f.down {
		return errors.New("store down")
	}
	for _, k := range keys {
		delete(f.markers, k)
		delete(f.sets, k)
	}
	return nil
}

func TestJobIdentifier(t *testing.T) {
	id := JobIdentifier("req-1", "donor-1")
	assert.Equal(t, "bloodreq:req-1:donor-1", id)
	// Deterministic: same inputs, same identifier.
	assert.Equal(t, id, JobIdentifier("req-1", "donor-1"))
	assert.NotEqual(t, id, JobIdentifier("req-1", "donor-2"))
	assert.NotEqual(t, id, JobIdentifier("req-2", "donor-1"))
}

func testRequest() *model.BloodRequest {
	return &model.BloodRequest{
		ID:             "req-1",
		PatientName:    "Jordan",
		BloodGroup:     model.BloodONeg,
		UnitsRequired:  2,
		SearchRadiusKm: 10,
		Latitude:       40.7,
		Longitude:      -74.0,
	}
}

func recipients(ids ...string) []model.User {
	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, model.User{ID: id, Type: model.UserTypeDonor})
	}
	return users
}

func TestDispatch_SubmitsOneJobPerRecipient(t *testing.T) {
	scheduler := newFakeScheduler()
	suppression := newFakeSuppression()
	d := NewDispatcher(scheduler, suppression, zap.NewNop())

	report := d.Dispatch(context.Background(), testRequest(), recipients("a", "b", "c"))

	assert.Equal(t, 3, report.Submitted)
	assert.Zero(t, report.Suppressed)
	assert.Zero(t, report.Failed)
	assert.ElementsMatch(t, []string{
		"bloodreq:req-1:a", "bloodreq:req-1:b", "bloodreq:req-1:c",
	}, scheduler.scheduled)
}

func TestDispatch_RepeatIsSuppressed(t *testing.T) {
	scheduler := newFakeScheduler()
	suppression := newFakeSuppression()
	d := NewDispatcher(scheduler, suppression, zap.NewNop())

	first := d.Dispatch(context.Background(), testRequest(), recipients("a", "b"))
	second := d.Dispatch(context.Background(), testRequest(), recipients("a", "b"))

	assert.Equal(t, 2, first.Submitted)
	assert.Equal(t, 2, second.Suppressed)
	assert.Zero(t, second.Submitted)
	// The scheduler only ever saw each pair once.
	assert.Len(t, scheduler.scheduled, 2)
}

func TestDispatch_FailureDoesNotBlockOthers(t *testing.T) {
	scheduler := newFakeScheduler()
	scheduler.failFor["bloodreq:req-1:b"] = errors.New("queue full")
	suppression := newFakeSuppression()
	d := NewDispatcher(scheduler, suppression, zap.NewNop())

	report := d.Dispatch(context.Background(), testRequest(), recipients("a", "b", "c"))

	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 1, report.Failed)
	assert.ElementsMatch(t, []string{"bloodreq:req-1:a", "bloodreq:req-1:c"}, scheduler.scheduled)

	// The failed pair's marker was released, so a retry submits it.
	delete(scheduler.failFor, "bloodreq:req-1:b")
	retry := d.Dispatch(context.Background(), testRequest(), recipients("b"))
	assert.Equal(t, 1, retry.Submitted)
}

func TestDispatch_SuppressionStoreDownStillDispatches(t *testing.T) {
	scheduler := newFakeScheduler()
	suppression := newFakeSuppression()
	suppression.down = true
	d := NewDispatcher(scheduler, suppression, zap.NewNop())

	report := d.Dispatch(context.Background(), testRequest(), recipients("a"))

	assert.Equal(t, 1, report.Submitted)
	assert.Zero(t, report.Failed)
}

func TestCancelForRequest(t *testing.T) {
	scheduler := newFakeScheduler()
	suppression := newFakeSuppression()
	d := NewDispatcher(scheduler, suppression, zap.NewNop())

	d.Dispatch(context.Background(), testRequest(), recipients("a", "b"))
	d.CancelForRequest(context.Background(), "req-1")

	assert.ElementsMatch(t, []string{
		"bloodreq:req-1:a", "bloodreq:req-1:b",
	}, scheduler.cancelled)

	// Suppression state is cleared, so a later dispatch submits again.
	report := d.Dispatch(context.Background(), testRequest(), recipients("a"))
	assert.Equal(t, 1, report.Submitted)
}
