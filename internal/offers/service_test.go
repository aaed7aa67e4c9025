package offers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

// --- test doubles ---

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type offerUpdate struct {
	offerID  uuid.UUID
	from, to string
}

type mockStore struct {
	mu       sync.Mutex
	tx       *fakeTx
	offers   map[uuid.UUID]*models.Offer
	inserted []*models.Offer
	updates  []offerUpdate
	pending  int64
	expJobs  []uuid.UUID
	expCount int64
	reopened [][]uuid.UUID
	names    map[uuid.UUID]string
}

func newMockStore() *mockStore {
	return &mockStore{offers: make(map[uuid.UUID]*models.Offer), names: make(map[uuid.UUID]string)}
}

func (m *mockStore) seed(o *models.Offer) {
	m.offers[o.ID] = o
}

func (m *mockStore) Begin(ctx context.Context) (pgx.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = &fakeTx{}
	return m.tx, nil
}

func (m *mockStore) InsertTx(ctx context.Context, tx pgx.Tx, o *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.offers[o.ID] = o
	m.inserted = append(m.inserted, o)
	return nil
}

func (m *mockStore) GetByIDTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[offerID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) ListForJob(ctx context.Context, jobID uuid.UUID) ([]*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Offer
	for _, o := range m.offers {
		if o.JobID == jobID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockStore) ListForJobParticipant(ctx context.Context, jobID, userID uuid.UUID) ([]*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Offer
	for _, o := range m.offers {
		if o.JobID == jobID && (o.FromUserID == userID || o.ToUserID == userID) {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockStore) ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Offer
	for _, o := range m.offers {
		if o.FromUserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockStore) ListReceived(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Offer
	for _, o := range m.offers {
		if o.ToUserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[offerID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.updates = append(m.updates, offerUpdate{offerID: offerID, from: from, to: to})
	return true, nil
}

func (m *mockStore) CountPendingForJobTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (int64, error) {
	return m.pending, nil
}

func (m *mockStore) ExpirePendingBeforeTx(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, int64, error) {
	return m.expJobs, m.expCount, nil
}

func (m *mockStore) ReopenJobsWithoutPendingTx(ctx context.Context, tx pgx.Tx, jobIDs []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reopened = append(m.reopened, jobIDs)
	return int64(len(jobIDs)), nil
}

func (m *mockStore) FullName(ctx context.Context, userID uuid.UUID) (string, error) {
	if name, ok := m.names[userID]; ok {
		return name, nil
	}
	return "", pgx.ErrNoRows
}

type assignCall struct {
	jobID    uuid.UUID
	workerID uuid.UUID
	price    *int64
}

type jobUpdate struct {
	jobID    uuid.UUID
	from, to string
}

type mockJobs struct {
	mu         sync.Mutex
	job        *models.Job
	assigns    []assignCall
	updates    []jobUpdate
	assignFail bool
	updateFail bool
}

func (m *mockJobs) GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return m.GetByIDTx(ctx, nil, jobID)
}

func (m *mockJobs) GetByIDTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil || m.job.ID != jobID {
		return nil, pgx.ErrNoRows
	}
	cp := *m.job
	return &cp, nil
}

func (m *mockJobs) UpdateStatusTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateFail {
		return false, nil
	}
	m.updates = append(m.updates, jobUpdate{jobID: jobID, from: from, to: to})
	m.job.Status = to
	return true, nil
}

func (m *mockJobs) AssignTx(ctx context.Context, tx pgx.Tx, jobID, workerID uuid.UUID, agreedPrice *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignFail {
		return false, nil
	}
	m.assigns = append(m.assigns, assignCall{jobID: jobID, workerID: workerID, price: agreedPrice})
	m.job.Status = models.JobStatusAssigned
	m.job.WorkerID = &workerID
	return true, nil
}

type debit struct {
	userID      uuid.UUID
	amount      int64
	description string
}

type mockWallet struct {
	mu     sync.Mutex
	debits []debit
	err    error
}

func (m *mockWallet) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.debits = append(m.debits, debit{userID: userID, amount: amount, description: description})
	return &models.Wallet{UserID: userID}, nil
}

type notice struct {
	userID uuid.UUID
	typ    string
	title  string
	body   string
}

type mockNotifier struct {
	mu    sync.Mutex
	notes []notice
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, notice{userID: userID, typ: typ, title: title, body: body})
}

type fixture struct {
	store *mockStore
	jobs  *mockJobs
	w     *mockWallet
	n     *mockNotifier
	svc   Service
}

func newFixture(job *models.Job) *fixture {
	f := &fixture{
		store: newMockStore(),
		jobs:  &mockJobs{job: job},
		w:     &mockWallet{},
		n:     &mockNotifier{},
	}
	f.svc = NewService(f.store, f.jobs, f.w, f.n, 1, 48*time.Hour, nil)
	return f
}

func requestedJob(employerID uuid.UUID) *models.Job {
	return &models.Job{
		ID:         uuid.New(),
		EmployerID: employerID,
		Title:      "Fix roof",
		Status:     models.JobStatusRequested,
	}
}

// --- Create ---

func TestCreateDebitsAndMovesJobToOffered(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	f := newFixture(requestedJob(employer))
	f.store.names[employer] = "Tendai Moyo"

	offer, err := f.svc.Create(context.Background(), employer, CreateInput{
		JobID:    f.jobs.job.ID,
		ToUserID: worker,
		Amount:   40,
		Message:  "Can you start Monday?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if offer.Status != models.OfferStatusPending {
		t.Errorf("status = %q, want pending", offer.Status)
	}

	if len(f.w.debits) != 1 {
		t.Fatalf("expected 1 debit, got %d", len(f.w.debits))
	}
	if d := f.w.debits[0]; d.userID != employer || d.amount != 1 || d.description != "Offer on job: Fix roof" {
		t.Errorf("debit = %+v", d)
	}

	if len(f.store.inserted) != 1 {
		t.Fatalf("expected 1 offer inserted, got %d", len(f.store.inserted))
	}
	if len(f.jobs.updates) != 1 {
		t.Fatalf("expected job status update, got %v", f.jobs.updates)
	}
	if u := f.jobs.updates[0]; u.from != models.JobStatusRequested || u.to != models.JobStatusOffered {
		t.Errorf("job update = %+v, want requested->offered", u)
	}
	if !f.store.tx.committed {
		t.Error("expected transaction to be committed")
	}

	if len(f.n.notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.n.notes))
	}
	got := f.n.notes[0]
	if got.userID != worker || got.typ != models.NotificationJobOffer {
		t.Errorf("notification = %+v", got)
	}
	if got.title != "New offer on: Fix roof" || got.body != "$40 from Tendai Moyo" {
		t.Errorf("notification text = %q / %q", got.title, got.body)
	}
}

func TestCreateOnOfferedJobLeavesStatusAlone(t *testing.T) {
	employer := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)

	if _, err := f.svc.Create(context.Background(), employer, CreateInput{
		JobID: job.ID, ToUserID: uuid.New(), Amount: 30,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.jobs.updates) != 0 {
		t.Errorf("expected no job status update, got %v", f.jobs.updates)
	}
}

func TestCreateInsufficientFundsPersistsNothing(t *testing.T) {
	employer := uuid.New()
	f := newFixture(requestedJob(employer))
	f.w.err = wallet.ErrInsufficientFunds

	_, err := f.svc.Create(context.Background(), employer, CreateInput{
		JobID: f.jobs.job.ID, ToUserID: uuid.New(), Amount: 30,
	})
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if len(f.store.inserted) != 0 {
		t.Error("expected no offer to be inserted")
	}
	if !f.store.tx.rolledBack {
		t.Error("expected transaction to be rolled back")
	}
	if len(f.n.notes) != 0 {
		t.Error("expected no notification")
	}
}

func TestCreateOnClosedJobRejected(t *testing.T) {
	employer := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusAssigned
	f := newFixture(job)

	_, err := f.svc.Create(context.Background(), employer, CreateInput{
		JobID: job.ID, ToUserID: uuid.New(), Amount: 30,
	})
	if !errors.Is(err, ErrJobUnavailable) {
		t.Fatalf("err = %v, want ErrJobUnavailable", err)
	}
	if len(f.w.debits) != 0 {
		t.Error("expected no debit on a closed job")
	}
}

// --- Respond: accept ---

func TestAcceptEmployerOfferAssignsRecipientWorker(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 55, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	got, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{Action: models.OfferStatusAccepted})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != models.OfferStatusAccepted {
		t.Errorf("offer status = %q, want accepted", got.Status)
	}

	if len(f.jobs.assigns) != 1 {
		t.Fatalf("expected 1 assign, got %d", len(f.jobs.assigns))
	}
	a := f.jobs.assigns[0]
	if a.workerID != worker {
		t.Errorf("assigned worker = %s, want recipient %s", a.workerID, worker)
	}
	if a.price == nil || *a.price != 55 {
		t.Errorf("agreed price = %v, want 55", a.price)
	}

	if len(f.n.notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.n.notes))
	}
	if n := f.n.notes[0]; n.userID != employer || n.typ != models.NotificationJobAssigned {
		t.Errorf("notification = %+v, want job_assigned to sender", n)
	}
}

func TestAcceptCounterOfferAssignsSenderWorker(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)

	// The worker countered, so the employer is now the recipient. Accepting
	// must still assign the worker, never the employer.
	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: worker, ToUserID: employer,
		Amount: 70, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	if _, err := f.svc.Respond(context.Background(), offer.ID, employer, RespondInput{Action: models.OfferStatusAccepted}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(f.jobs.assigns) != 1 {
		t.Fatalf("expected 1 assign, got %d", len(f.jobs.assigns))
	}
	if a := f.jobs.assigns[0]; a.workerID != worker {
		t.Errorf("assigned worker = %s, want %s", a.workerID, worker)
	}
}

// --- Respond: permissions and state ---

func TestRespondOnlyRecipient(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	f := newFixture(job)

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 55, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	for _, actor := range []uuid.UUID{employer, uuid.New()} {
		_, err := f.svc.Respond(context.Background(), offer.ID, actor, RespondInput{Action: models.OfferStatusAccepted})
		if !errors.Is(err, ErrNotRecipient) {
			t.Errorf("actor %s: err = %v, want ErrNotRecipient", actor, err)
		}
	}
	if len(f.jobs.assigns) != 0 {
		t.Error("expected no assignment")
	}
}

func TestRespondClosedOffer(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	f := newFixture(job)

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 55, Status: models.OfferStatusAccepted,
	}
	f.store.seed(offer)

	_, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{Action: models.OfferStatusRejected})
	if !errors.Is(err, ErrOfferClosed) {
		t.Fatalf("err = %v, want ErrOfferClosed", err)
	}
}

func TestRespondUnknownOffer(t *testing.T) {
	f := newFixture(requestedJob(uuid.New()))
	_, err := f.svc.Respond(context.Background(), uuid.New(), uuid.New(), RespondInput{Action: models.OfferStatusAccepted})
	if !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("err = %v, want ErrOfferNotFound", err)
	}
}

// --- Respond: reject ---

func TestRejectLastOfferReopensJob(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)
	f.store.pending = 0

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 55, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	got, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{Action: models.OfferStatusRejected})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != models.OfferStatusRejected {
		t.Errorf("offer status = %q, want rejected", got.Status)
	}
	if len(f.jobs.updates) != 1 {
		t.Fatalf("expected job reopen, got %v", f.jobs.updates)
	}
	if u := f.jobs.updates[0]; u.from != models.JobStatusOffered || u.to != models.JobStatusRequested {
		t.Errorf("job update = %+v, want offered->requested", u)
	}
	if n := f.n.notes[0]; n.userID != employer || n.typ != models.NotificationSystem {
		t.Errorf("notification = %+v", n)
	}
}

func TestRejectWithOtherPendingKeepsJobOffered(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)
	f.store.pending = 1

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 55, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	if _, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{Action: models.OfferStatusRejected}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(f.jobs.updates) != 0 {
		t.Errorf("expected no job update, got %v", f.jobs.updates)
	}
}

// --- Respond: counter ---

func TestCounterCreatesReturnOffer(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)
	f.store.names[worker] = "Rudo Ncube"

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 40, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	got, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{
		Action:         models.OfferStatusCounter,
		CounterAmount:  60,
		CounterMessage: "Materials cost more than that",
	})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != models.OfferStatusCounter {
		t.Errorf("original status = %q, want counter", got.Status)
	}

	if len(f.store.inserted) != 1 {
		t.Fatalf("expected 1 counter-offer inserted, got %d", len(f.store.inserted))
	}
	counter := f.store.inserted[0]
	if counter.FromUserID != worker || counter.ToUserID != employer {
		t.Errorf("counter direction = %s -> %s, want worker -> employer", counter.FromUserID, counter.ToUserID)
	}
	if counter.Amount != 60 || counter.Status != models.OfferStatusPending {
		t.Errorf("counter = %+v", counter)
	}

	// Countering is part of the response, not a fresh paid offer.
	if len(f.w.debits) != 0 {
		t.Errorf("expected no debit, got %v", f.w.debits)
	}

	if n := f.n.notes[0]; n.userID != employer || n.typ != models.NotificationJobOffer || n.body != "$60 from Rudo Ncube" {
		t.Errorf("notification = %+v", n)
	}
}

func TestCounterRequiresAmount(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	f := newFixture(job)

	offer := &models.Offer{
		ID: uuid.New(), JobID: job.ID,
		FromUserID: employer, ToUserID: worker,
		Amount: 40, Status: models.OfferStatusPending,
	}
	f.store.seed(offer)

	_, err := f.svc.Respond(context.Background(), offer.ID, worker, RespondInput{Action: models.OfferStatusCounter})
	if !errors.Is(err, ErrBadAmount) {
		t.Fatalf("err = %v, want ErrBadAmount", err)
	}
	if f.store.tx.committed {
		t.Error("expected transaction not to commit")
	}
}

// --- ExpireStale ---

func TestExpireStaleReopensAffectedJobs(t *testing.T) {
	jobA, jobB := uuid.New(), uuid.New()
	f := newFixture(requestedJob(uuid.New()))
	f.store.expJobs = []uuid.UUID{jobA, jobB}
	f.store.expCount = 3

	n, err := f.svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 3 {
		t.Errorf("expired = %d, want 3", n)
	}
	if len(f.store.reopened) != 1 || len(f.store.reopened[0]) != 2 {
		t.Errorf("reopened = %v, want one call with both jobs", f.store.reopened)
	}
	if !f.store.tx.committed {
		t.Error("expected transaction to be committed")
	}
}

func TestExpireStaleNoWork(t *testing.T) {
	f := newFixture(requestedJob(uuid.New()))

	n, err := f.svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 0 {
		t.Errorf("expired = %d, want 0", n)
	}
	if len(f.store.reopened) != 0 {
		t.Error("expected no reopen call")
	}
}

// --- ListForJob ---

func TestListForJobVisibility(t *testing.T) {
	employer := uuid.New()
	workerA := uuid.New()
	workerB := uuid.New()
	job := requestedJob(employer)
	job.Status = models.JobStatusOffered
	f := newFixture(job)

	f.store.seed(&models.Offer{ID: uuid.New(), JobID: job.ID, FromUserID: employer, ToUserID: workerA, Amount: 40, Status: models.OfferStatusPending})
	f.store.seed(&models.Offer{ID: uuid.New(), JobID: job.ID, FromUserID: workerB, ToUserID: employer, Amount: 35, Status: models.OfferStatusPending})

	all, err := f.svc.ListForJob(context.Background(), job.ID, employer, models.RoleEmployer)
	if err != nil {
		t.Fatalf("ListForJob(employer): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("employer sees %d offers, want 2", len(all))
	}

	mine, err := f.svc.ListForJob(context.Background(), job.ID, workerA, models.RoleEmployee)
	if err != nil {
		t.Fatalf("ListForJob(worker): %v", err)
	}
	if len(mine) != 1 || mine[0].ToUserID != workerA {
		t.Errorf("worker sees %d offers, want only their own", len(mine))
	}
}

func TestListSentAndReceived(t *testing.T) {
	employer := uuid.New()
	worker := uuid.New()
	job := requestedJob(employer)
	f := newFixture(job)

	f.store.seed(&models.Offer{ID: uuid.New(), JobID: job.ID, FromUserID: employer, ToUserID: worker, Amount: 40, Status: models.OfferStatusPending})
	f.store.seed(&models.Offer{ID: uuid.New(), JobID: job.ID, FromUserID: worker, ToUserID: employer, Amount: 50, Status: models.OfferStatusPending})

	sent, err := f.svc.ListSent(context.Background(), worker)
	if err != nil {
		t.Fatalf("ListSent: %v", err)
	}
	if len(sent) != 1 || sent[0].FromUserID != worker {
		t.Errorf("ListSent returned %d offers, want the worker's one", len(sent))
	}

	recv, err := f.svc.ListReceived(context.Background(), worker)
	if err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if len(recv) != 1 || recv[0].ToUserID != worker {
		t.Errorf("ListReceived returned %d offers, want the one addressed to the worker", len(recv))
	}
}
