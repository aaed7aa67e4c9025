package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type mockStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job
}

func newMockStore() *mockStore {
	return &mockStore{jobs: make(map[uuid.UUID]*models.Job)}
}

func (m *mockStore) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (m *mockStore) CreateTx(_ context.Context, _ pgx.Tx, j *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockStore) GetByID(_ context.Context, jobID uuid.UUID) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *j
	return &cp, nil
}

func (m *mockStore) GetByIDTx(ctx context.Context, _ pgx.Tx, jobID uuid.UUID) (*models.Job, error) {
	return m.GetByID(ctx, jobID)
}

func (m *mockStore) ListForEmployer(_ context.Context, employerID uuid.UUID, _ ListFilter) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, j := range m.jobs {
		if j.EmployerID == employerID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) ListForWorker(_ context.Context, workerID uuid.UUID, _ ListFilter) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, j := range m.jobs {
		if j.Status == models.JobStatusRequested || (j.WorkerID != nil && *j.WorkerID == workerID) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) ListAll(_ context.Context, _ ListFilter) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) UpdateStatusTx(_ context.Context, _ pgx.Tx, jobID uuid.UUID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	return true, nil
}

func (m *mockStore) AssignTx(_ context.Context, _ pgx.Tx, jobID, workerID uuid.UUID, agreedPrice *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != models.JobStatusOffered {
		return false, nil
	}
	j.Status = models.JobStatusAssigned
	j.WorkerID = &workerID
	j.AgreedPrice = agreedPrice
	return true, nil
}

func (m *mockStore) seed(j *models.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
}

type mockWallet struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	debits   []int64
}

func newMockWallet() *mockWallet {
	return &mockWallet{balances: make(map[uuid.UUID]int64)}
}

func (m *mockWallet) DebitTx(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount int64, _, _ string, _ *uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[userID] < amount {
		return nil, wallet.ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	m.debits = append(m.debits, amount)
	return &models.Wallet{UserID: userID, Balance: m.balances[userID]}, nil
}

type notice struct {
	userID uuid.UUID
	typ    string
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, typ, _, _ string, _ *uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice{userID: userID, typ: typ})
}

func (m *mockNotifier) all() []notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notice(nil), m.notices...)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateDebitsPostingFee(t *testing.T) {
	store := newMockStore()
	w := newMockWallet()
	employer := uuid.New()
	w.balances[employer] = 5

	svc := NewService(store, w, &mockNotifier{}, nil, 2, nil)
	job, err := svc.Create(context.Background(), employer, CreateInput{Title: "Fix leaking roof", Category: "repairs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != models.JobStatusRequested {
		t.Errorf("new job status: got %s, want requested", job.Status)
	}
	if w.balances[employer] != 3 {
		t.Errorf("employer balance: got %d, want 3", w.balances[employer])
	}
	if got, err := svc.Get(context.Background(), job.ID); err != nil || got.Title != "Fix leaking roof" {
		t.Errorf("job not persisted: %v %v", got, err)
	}
}

func TestCreateInsufficientFundsPersistsNothing(t *testing.T) {
	store := newMockStore()
	w := newMockWallet()
	employer := uuid.New()
	w.balances[employer] = 1 // posting costs 2

	svc := NewService(store, w, &mockNotifier{}, nil, 2, nil)
	_, err := svc.Create(context.Background(), employer, CreateInput{Title: "Paint the gate"})
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}
	if w.balances[employer] != 1 {
		t.Errorf("balance should be untouched, got %d", w.balances[employer])
	}
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func seedJob(store *mockStore, employer uuid.UUID, status string, worker *uuid.UUID) *models.Job {
	j := &models.Job{
		ID:         uuid.New(),
		EmployerID: employer,
		WorkerID:   worker,
		Title:      "Dig a well",
		Status:     status,
	}
	store.seed(j)
	return j
}

func TestTransitionByAssignedWorker(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	employer, worker := uuid.New(), uuid.New()
	job := seedJob(store, employer, models.JobStatusAssigned, &worker)

	svc := NewService(store, newMockWallet(), notifier, nil, 2, nil)
	updated, err := svc.Transition(context.Background(), job.ID, worker, models.RoleEmployee, models.JobStatusEnRoute)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != models.JobStatusEnRoute {
		t.Errorf("status: got %s, want en_route", updated.Status)
	}

	notices := notifier.all()
	if len(notices) != 1 || notices[0].userID != employer {
		t.Fatalf("employer should be notified, got %+v", notices)
	}
	if notices[0].typ != models.NotificationSystem {
		t.Errorf("notification type: got %s, want system", notices[0].typ)
	}
}

func TestTransitionCompletedNotifiesWorker(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	employer, worker := uuid.New(), uuid.New()
	job := seedJob(store, employer, models.JobStatusOnSite, &worker)

	svc := NewService(store, newMockWallet(), notifier, nil, 2, nil)
	if _, err := svc.Transition(context.Background(), job.ID, employer, models.RoleEmployer, models.JobStatusCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	notices := notifier.all()
	if len(notices) != 1 || notices[0].userID != worker {
		t.Fatalf("worker should be notified, got %+v", notices)
	}
	if notices[0].typ != models.NotificationJobCompleted {
		t.Errorf("notification type: got %s, want job_completed", notices[0].typ)
	}
}

type mockProfiles struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func (m *mockProfiles) IncrementCompletedTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[uuid.UUID]int)
	}
	m.counts[userID]++
	return nil
}

func TestTransitionCompletedCountsWorkerJob(t *testing.T) {
	store := newMockStore()
	profiles := &mockProfiles{}
	employer, worker := uuid.New(), uuid.New()
	job := seedJob(store, employer, models.JobStatusOnSite, &worker)

	svc := NewService(store, newMockWallet(), &mockNotifier{}, profiles, 2, nil)
	if _, err := svc.Transition(context.Background(), job.ID, employer, models.RoleEmployer, models.JobStatusCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if profiles.counts[worker] != 1 {
		t.Errorf("completed count for worker = %d, want 1", profiles.counts[worker])
	}

	// Cancellation must not count.
	job2 := seedJob(store, employer, models.JobStatusAssigned, &worker)
	if _, err := svc.Transition(context.Background(), job2.ID, employer, models.RoleEmployer, models.JobStatusCancelled); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if profiles.counts[worker] != 1 {
		t.Errorf("cancelled job must not increment the counter, got %d", profiles.counts[worker])
	}
}

func TestTransitionPermissions(t *testing.T) {
	employer, worker, stranger := uuid.New(), uuid.New(), uuid.New()

	cases := []struct {
		name    string
		status  string
		worker  *uuid.UUID
		actorID uuid.UUID
		role    string
		to      string
		wantErr error
	}{
		{"stranger employer", models.JobStatusAssigned, &worker, stranger, models.RoleEmployer, models.JobStatusCancelled, ErrNotParticipant},
		{"unassigned worker", models.JobStatusAssigned, &worker, stranger, models.RoleEmployee, models.JobStatusEnRoute, ErrNotParticipant},
		{"employer self-assign", models.JobStatusOffered, nil, employer, models.RoleEmployer, models.JobStatusAssigned, ErrNotParticipant},
		{"admin may cancel", models.JobStatusAssigned, &worker, stranger, models.RoleAdmin, models.JobStatusCancelled, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStore()
			job := seedJob(store, employer, tc.status, tc.worker)
			svc := NewService(store, newMockWallet(), &mockNotifier{}, nil, 2, nil)

			_, err := svc.Transition(context.Background(), job.ID, tc.actorID, tc.role, tc.to)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTransitionRejectsIllegalStep(t *testing.T) {
	store := newMockStore()
	employer := uuid.New()
	job := seedJob(store, employer, models.JobStatusRequested, nil)

	svc := NewService(store, newMockWallet(), &mockNotifier{}, nil, 2, nil)
	_, err := svc.Transition(context.Background(), job.ID, employer, models.RoleEmployer, models.JobStatusCompleted)

	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got: %v", err)
	}
	if ite.From != models.JobStatusRequested || ite.To != models.JobStatusCompleted {
		t.Errorf("error fields: got %s → %s", ite.From, ite.To)
	}
	if len(ite.Allowed) == 0 {
		t.Error("allowed list should not be empty for requested")
	}
}

func TestTransitionTerminalStatus(t *testing.T) {
	store := newMockStore()
	employer := uuid.New()
	job := seedJob(store, employer, models.JobStatusCancelled, nil)

	svc := NewService(store, newMockWallet(), &mockNotifier{}, nil, 2, nil)
	_, err := svc.Transition(context.Background(), job.ID, employer, models.RoleEmployer, models.JobStatusRequested)

	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError from terminal status, got: %v", err)
	}
}

func TestWorkerClaimsOfferedJob(t *testing.T) {
	store := newMockStore()
	employer, worker := uuid.New(), uuid.New()
	job := seedJob(store, employer, models.JobStatusOffered, nil)

	svc := NewService(store, newMockWallet(), &mockNotifier{}, nil, 2, nil)
	updated, err := svc.Transition(context.Background(), job.ID, worker, models.RoleEmployee, models.JobStatusAssigned)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != models.JobStatusAssigned {
		t.Errorf("status: got %s, want assigned", updated.Status)
	}
	if updated.WorkerID == nil || *updated.WorkerID != worker {
		t.Errorf("worker_id should be the claiming worker, got %v", updated.WorkerID)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc := NewService(newMockStore(), newMockWallet(), &mockNotifier{}, nil, 2, nil)
	_, err := svc.Transition(context.Background(), uuid.New(), uuid.New(), models.RoleAdmin, models.JobStatusCancelled)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got: %v", err)
	}
}
