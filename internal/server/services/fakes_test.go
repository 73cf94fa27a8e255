package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func noRetry() *dbx.Retrier { return dbx.NewRetrier(1, 0) }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// memStore is an in-memory stand-in for the users and todos tables,
// including the unique email constraint and the cascade on delete.
type memStore struct {
	mu       sync.Mutex
	accounts map[int64]models.Account
	tasks    map[int64]models.Task
	nextID   int64

	// failNext, when set, is returned by the next repository call.
	failNext error
	calls    int
}

func newMemStore() *memStore {
	return &memStore{accounts: map[int64]models.Account{}, tasks: map[int64]models.Task{}}
}

func (m *memStore) fail() error {
	m.calls++
	err := m.failNext
	m.failNext = nil
	return err
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	for _, existing := range r.s.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrorConflict
		}
	}
	r.s.nextID++
	a.ID = r.s.nextID
	r.s.accounts[a.ID] = *a
	return a, nil
}

func (r memAccounts) get(id int64) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	return r.get(id)
}

func (r memAccounts) GetByIDForUpdate(_ context.Context, id int64) (*models.Account, error) {
	return r.get(id)
}

func (r memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) Update(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return err
	}
	if _, ok := r.s.accounts[a.ID]; !ok {
		return common.ErrorNotFound
	}
	for id, existing := range r.s.accounts {
		if id != a.ID && existing.Email == a.Email {
			return common.ErrorConflict
		}
	}
	stored := *a
	stored.Tasks = nil
	r.s.accounts[a.ID] = stored
	return nil
}

func (r memAccounts) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return err
	}
	if _, ok := r.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.accounts, id)
	for tid, t := range r.s.tasks {
		if t.OwnerID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

type memTasks struct{ s *memStore }

func (r memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	if _, ok := r.s.accounts[t.OwnerID]; !ok {
		return nil, errors.New("foreign key violation")
	}
	r.s.nextID++
	t.ID = r.s.nextID
	r.s.tasks[t.ID] = *t
	return t, nil
}

func (r memTasks) owned(ownerID int64) []*models.Task {
	out := []*models.Task{}
	for _, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memTasks) ListByOwner(_ context.Context, ownerID int64, limit, offset int) ([]*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	all := r.owned(ownerID)
	if offset >= len(all) {
		return []*models.Task{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memTasks) ListAllByOwner(_ context.Context, ownerID int64) ([]*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	return r.owned(ownerID), nil
}

func (r memTasks) GetForUpdate(_ context.Context, ownerID, id int64) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTasks) Update(_ context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return err
	}
	existing, ok := r.s.tasks[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return common.ErrorNotFound
	}
	r.s.tasks[t.ID] = *t
	return nil
}

func (r memTasks) Delete(_ context.Context, ownerID, id int64) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(); err != nil {
		return nil, err
	}
	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	return &t, nil
}

type memRepoManager struct{ s *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memRepoManager) Accounts(dbx.DBTX) accounts.Repository      { return memAccounts{m.s} }
func (m memRepoManager) Tasks(dbx.DBTX) tasks.Repository            { return memTasks{m.s} }

// plainHasher stores "hashed:"+password so tests stay fast and readable.
type plainHasher struct {
	hashErr error
	n       int
}

func (h *plainHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h *plainHasher) Verify(p, hash string) bool { return hash == "hashed:"+p }

func (h *plainHasher) UnusableHash() (string, error) {
	h.n++
	return "unusable:" + strconv.Itoa(h.n), nil
}

type fakeTokens struct {
	err error
}

func (f *fakeTokens) Issue(subject string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + subject, nil
}

type fakeIdentities struct {
	identity *auth.FederatedIdentity
	err      error
}

func (f *fakeIdentities) Verify(context.Context, string) (*auth.FederatedIdentity, error) {
	return f.identity, f.err
}
