package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
	"bloodlink/internal/match"
	"bloodlink/internal/model"
	"bloodlink/internal/notify"
	"bloodlink/internal/remote"
)

// fakeRequestRepo is an in-memory repository.RequestRepository. Create
// assigns an id when empty, like the real store's create hook.
type fakeRequestRepo struct {
	rows      map[string]model.BloodRequest
	createErr error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: make(map[string]model.BloodRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *model.BloodRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now()
	r.rows[req.ID] = *req
	return nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, req *model.BloodRequest) error {
	r.rows[req.ID] = *req
	return nil
}

func (r *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, id string) (*model.BloodRequest, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *fakeRequestRepo) List(ctx context.Context) ([]model.BloodRequest, error) {
	out := make([]model.BloodRequest, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeRequestRepo) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BloodRequest, error) {
	var out []model.BloodRequest
	for _, row := range r.rows {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) FindDirty(ctx context.Context) ([]model.BloodRequest, error) {
	var out []model.BloodRequest
	for _, row := range r.rows {
		if row.Dirty() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) FindBySyncKey(ctx context.Context, key string) (*model.BloodRequest, error) {
	for _, row := range r.rows {
		if row.ID == key || (row.CloudID != nil && *row.CloudID == key) {
			found := row
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRequestRepo) MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.SyncMeta.MarkSynced(cloudID, at)
	r.rows[id] = row
	return nil
}

func (r *fakeRequestRepo) UpsertBatch(ctx context.Context, reqs []model.BloodRequest) error {
	for _, req := range reqs {
		r.rows[req.ID] = req
	}
	return nil
}

// fakeDonorSource backs the real matcher with a fixed donor list. Only
// ListDonors is exercised.
type fakeDonorSource struct {
	donors []model.User
}

func (f *fakeDonorSource) Create(ctx context.Context, user *model.User) error { return nil }

func (f *fakeDonorSource) Update(ctx context.Context, user *model.User) error { return nil }

func (f *fakeDonorSource) UpsertBatch(ctx context.Context, u []model.User) error { return nil }

func (f *fakeDonorSource) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDonorSource) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDonorSource) FindBySyncKey(ctx context.Context, key string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDonorSource) List(ctx context.Context) ([]model.User, error) { return f.donors, nil }

func (f *fakeDonorSource) ListDonors(ctx context.Context) ([]model.User, error) {
	return f.donors, nil
}

func (f *fakeDonorSource) FindDirty(ctx context.Context) ([]model.User, error) { return nil, nil }

func (f *fakeDonorSource) MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error {
	return nil
}

// fakeRemote is an in-memory remote.Store with a global failure switch.
type fakeRemote struct {
	docs map[string]map[string]json.RawMessage
	down bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string]map[string]json.RawMessage)}
}

func (s *fakeRemote) put(collection, key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]json.RawMessage)
	}
	s.docs[collection][key] = raw
	return nil
}

func (s *fakeRemote) Create(ctx context.Context, collection, key string, doc interface{}) error {
	if s.down {
		return errors.New("remote unavailable")
	}
	return s.put(collection, key, doc)
}

func (s *fakeRemote) Update(ctx context.Context, collection, key string, doc interface{}) error {
	if s.down {
		return errors.New("remote unavailable")
	}
	if _, ok := s.docs[collection][key]; !ok {
		return errs.ErrRemoteNotFound
	}
	return s.put(collection, key, doc)
}

func (s *fakeRemote) Delete(ctx context.Context, collection, key string) error {
	if s.down {
		return errors.New("remote unavailable")
	}
	delete(s.docs[collection], key)
	return nil
}

func (s *fakeRemote) Get(ctx context.Context, collection, key string, out interface{}) error {
	raw, ok := s.docs[collection][key]
	if !ok {
		return errs.ErrRemoteNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *fakeRemote) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(s.docs[collection]))
	for _, raw := range s.docs[collection] {
		out = append(out, raw)
	}
	return out, nil
}

// recordingScheduler captures submitted and cancelled identifiers.
type recordingScheduler struct {
	scheduled []string
	cancelled []string
}

func (s *recordingScheduler) Schedule(ctx context.Context, identifier string, n notify.Notification, t notify.Trigger) error {
	s.scheduled = append(s.scheduled, identifier)
	return nil
}

func (s *recordingScheduler) Cancel(ctx context.Context, identifier string) error {
	s.cancelled = append(s.cancelled, identifier)
	return nil
}

func (s *recordingScheduler) CancelAll(ctx context.Context) error { return nil }

// memSuppression is an in-memory notify.SuppressionStore.
type memSuppression struct {
	markers map[string]bool
	sets    map[string][]string
}

func newMemSuppression() *memSuppression {
	return &memSuppression{markers: make(map[string]bool), sets: make(map[string][]string)}
}

func (m *memSuppression) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.markers[key] {
		return false, nil
	}
	m.markers[key] = true
	return true, nil
}

func (m *memSuppression) SAdd(ctx context.Context, key string, members ...string) error {
	m.sets[key] = append(m.sets[key], members...)
	return nil
}

func (m *memSuppression) SMembers(ctx context.Context, key string) ([]string, error) {
	return m.sets[key], nil
}

func (m *memSuppression) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.markers, k)
		delete(m.sets, k)
	}
	return nil
}

type requestServiceFixture struct {
	svc       RequestService
	repo      *fakeRequestRepo
	store     *fakeRemote
	scheduler *recordingScheduler
}

func newRequestServiceFixture(donors []model.User) *requestServiceFixture {
	repo := newFakeRequestRepo()
	store := newFakeRemote()
	scheduler := &recordingScheduler{}
	dispatcher := notify.NewDispatcher(scheduler, newMemSuppression(), zap.NewNop())
	matcher := match.NewMatcher(&fakeDonorSource{donors: donors})
	svc := NewRequestService(repo, store, matcher, dispatcher, zap.NewNop())
	return &requestServiceFixture{svc: svc, repo: repo, store: store, scheduler: scheduler}
}

func donorAt(id string, bt model.BloodType, lat, lng float64) model.User {
	return model.User{
		ID:   id,
		Name: "Donor " + id,
		Type: model.UserTypeDonor,
		Donor: &model.DonorProfile{
			BloodType: bt,
			Latitude:  &lat,
			Longitude: &lng,
		},
	}
}

func validRequest() *model.BloodRequest {
	return &model.BloodRequest{
		PatientName:    "Jordan",
		BloodGroup:     model.BloodONeg,
		UnitsRequired:  2,
		SearchRadiusKm: 10,
		Latitude:       40.7128,
		Longitude:      -74.0060,
	}
}

func TestCreateRequest_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*model.BloodRequest)
		expectedError error
	}{
		{
			name:          "zero units",
			mutate:        func(r *model.BloodRequest) { r.UnitsRequired = 0 },
			expectedError: errs.ErrInvalidUnits,
		},
		{
			name:          "negative units",
			mutate:        func(r *model.BloodRequest) { r.UnitsRequired = -1 },
			expectedError: errs.ErrInvalidUnits,
		},
		{
			name:          "zero radius",
			mutate:        func(r *model.BloodRequest) { r.SearchRadiusKm = 0 },
			expectedError: errs.ErrInvalidRadius,
		},
		{
			name: "missing coordinates",
			mutate: func(r *model.BloodRequest) {
				r.Latitude = 0
				r.Longitude = 0
			},
			expectedError: errs.ErrMissingCoordinates,
		},
		{
			name:          "unknown blood group",
			mutate:        func(r *model.BloodRequest) { r.BloodGroup = "C+" },
			expectedError: errs.ErrInvalidBloodType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestServiceFixture(nil)
			req := validRequest()
			tt.mutate(req)

			got, err := f.svc.CreateRequest(context.Background(), req)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, got)
			// Nothing persisted, nothing dispatched.
			assert.Empty(t, f.repo.rows)
			assert.Empty(t, f.scheduler.scheduled)
		})
	}
}

func TestCreateRequest_MatchesAndDispatches(t *testing.T) {
	// Donor "near-compatible" is O- about 5.5 km north of the request.
	// Donor "near-incompatible" is A+ and closer, but A+ cannot give to an
	// O- request.
	donors := []model.User{
		donorAt("near-compatible", model.BloodONeg, 40.7628, -74.0060),
		donorAt("near-incompatible", model.BloodAPos, 40.7328, -74.0060),
		donorAt("far-compatible", model.BloodONeg, 41.7128, -74.0060),
	}
	f := newRequestServiceFixture(donors)

	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	assert.Equal(t, []string{
		notify.JobIdentifier(created.ID, "near-compatible"),
	}, f.scheduler.scheduled)

	// Persisted locally and pushed remotely, with the linkage stamped.
	row := f.repo.rows[created.ID]
	require.NotNil(t, row.CloudID)
	assert.Equal(t, created.ID, *row.CloudID)
	assert.False(t, row.Dirty())
	assert.Contains(t, f.store.docs[remote.CollectionRequests], created.ID)

	// Defaults applied.
	assert.Equal(t, model.RequestStatusActive, created.Status)
	assert.False(t, created.RequestDate.IsZero())
}

func TestCreateRequest_RemoteFailureDoesNotFailCreation(t *testing.T) {
	donors := []model.User{
		donorAt("d1", model.BloodONeg, 40.7628, -74.0060),
	}
	f := newRequestServiceFixture(donors)
	f.store.down = true

	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)

	// The record stays dirty for the next sync pass, and dispatch still ran.
	row := f.repo.rows[created.ID]
	assert.True(t, row.Dirty())
	assert.Len(t, f.scheduler.scheduled, 1)
}

func TestCreateRequest_RedispatchIsIdempotent(t *testing.T) {
	donors := []model.User{
		donorAt("d1", model.BloodONeg, 40.7628, -74.0060),
	}
	f := newRequestServiceFixture(donors)

	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)

	// An edit re-triggers nothing: dispatch happens on creation only, and
	// even a second dispatch for the same pair would be suppressed.
	created.PatientName = "Edited"
	_, err = f.svc.UpdateRequest(context.Background(), created)
	require.NoError(t, err)
	assert.Len(t, f.scheduler.scheduled, 1)
}

func TestUpdateRequest_NotFound(t *testing.T) {
	f := newRequestServiceFixture(nil)
	req := validRequest()
	req.ID = "missing"

	got, err := f.svc.UpdateRequest(context.Background(), req)
	assert.ErrorIs(t, err, errs.ErrRequestNotFound)
	assert.Nil(t, got)
}

func TestUpdateRequest_PreservesCloudLinkage(t *testing.T) {
	f := newRequestServiceFixture(nil)
	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, created.CloudID)
	originalCloudID := *created.CloudID

	edit := *created
	edit.PatientName = "Edited"
	updated, err := f.svc.UpdateRequest(context.Background(), &edit)
	require.NoError(t, err)

	// CloudID survives the edit and the re-upload restamps the record.
	require.NotNil(t, updated.CloudID)
	assert.Equal(t, originalCloudID, *updated.CloudID)
	row := f.repo.rows[created.ID]
	assert.False(t, row.Dirty())

	var doc remote.BloodRequestDocument
	require.NoError(t, f.store.Get(context.Background(), remote.CollectionRequests, originalCloudID, &doc))
	assert.Equal(t, "Edited", doc.PatientName)
}

func TestUpdateRequest_FieldEditKeepsLifecycleState(t *testing.T) {
	f := newRequestServiceFixture(nil)

	req := validRequest()
	requestorID := "user-123"
	req.RequestorID = &requestorID
	req.RequestorName = "Sam"
	created, err := f.svc.CreateRequest(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), created.ID, model.RequestStatusFulfilled)
	require.NoError(t, err)

	// A field edit arrives shaped like the update payload: no status, no
	// requestor identity, no request date.
	edit := &model.BloodRequest{
		ID:             created.ID,
		PatientName:    "Edited",
		BloodGroup:     created.BloodGroup,
		UnitsRequired:  3,
		SearchRadiusKm: created.SearchRadiusKm,
		Latitude:       created.Latitude,
		Longitude:      created.Longitude,
	}
	updated, err := f.svc.UpdateRequest(context.Background(), edit)
	require.NoError(t, err)

	// The edit lands without touching lifecycle state.
	assert.Equal(t, "Edited", updated.PatientName)
	assert.Equal(t, 3, updated.UnitsRequired)
	assert.Equal(t, model.RequestStatusFulfilled, updated.Status)
	require.NotNil(t, updated.RequestorID)
	assert.Equal(t, "user-123", *updated.RequestorID)
	assert.Equal(t, "Sam", updated.RequestorName)
	assert.False(t, updated.RequestDate.IsZero())

	stored := f.repo.rows[created.ID]
	assert.Equal(t, model.RequestStatusFulfilled, stored.Status)
	require.NotNil(t, stored.RequestorID)
	assert.Equal(t, "user-123", *stored.RequestorID)
}

func TestUpdateStatus(t *testing.T) {
	f := newRequestServiceFixture(nil)
	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), created.ID, model.RequestStatusFulfilled)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusFulfilled, updated.Status)

	_, err = f.svc.UpdateStatus(context.Background(), created.ID, model.RequestStatus("bogus"))
	assert.Error(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), "missing", model.RequestStatusExpired)
	assert.ErrorIs(t, err, errs.ErrRequestNotFound)
}

func TestDeleteRequest(t *testing.T) {
	donors := []model.User{
		donorAt("d1", model.BloodONeg, 40.7628, -74.0060),
	}
	f := newRequestServiceFixture(donors)

	created, err := f.svc.CreateRequest(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, f.scheduler.scheduled, 1)

	require.NoError(t, f.svc.DeleteRequest(context.Background(), created.ID))

	// Gone locally and remotely, and the scheduled job was cancelled.
	assert.NotContains(t, f.repo.rows, created.ID)
	assert.NotContains(t, f.store.docs[remote.CollectionRequests], created.ID)
	assert.Equal(t, []string{
		notify.JobIdentifier(created.ID, "d1"),
	}, f.scheduler.cancelled)
}

func TestDeleteRequest_NotFound(t *testing.T) {
	f := newRequestServiceFixture(nil)
	err := f.svc.DeleteRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ErrRequestNotFound)
}
