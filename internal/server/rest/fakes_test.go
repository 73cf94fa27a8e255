package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/stretchr/testify/require"
)

// memBackend implements AccountAPI and TaskAPI in memory with the same
// error kinds as the real services.
type memBackend struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
	passwd   map[int64]string
	tasks    map[int64]*models.Task
	tokens   *auth.TokenService

	federated    *auth.FederatedIdentity
	federatedErr error
	failWith     error
}

func newMemBackend(tokens *auth.TokenService) *memBackend {
	return &memBackend{
		accounts: map[int64]*models.Account{},
		passwd:   map[int64]string{},
		tasks:    map[int64]*models.Task{},
		tokens:   tokens,
	}
}

func (b *memBackend) byEmail(email string) *models.Account {
	for _, a := range b.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

func (b *memBackend) CreateLocal(_ context.Context, email, password string) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return nil, b.failWith
	}
	if b.byEmail(email) != nil {
		return nil, common.ErrorConflict
	}
	b.nextID++
	a := &models.Account{ID: b.nextID, Email: email, PasswordHash: "x", IsActive: true}
	b.accounts[a.ID] = a
	b.passwd[a.ID] = password
	return a, nil
}

func (b *memBackend) Login(_ context.Context, email, password string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.byEmail(email)
	if a == nil || b.passwd[a.ID] != password {
		return "", common.ErrorUnauthorized
	}
	return b.tokens.Issue(strconv.FormatInt(a.ID, 10))
}

func (b *memBackend) LoginFederated(_ context.Context, _ string) (*services.FederatedLogin, error) {
	if b.federatedErr != nil {
		return nil, b.federatedErr
	}
	if !b.federated.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	b.mu.Lock()
	a := b.byEmail(b.federated.Email)
	if a == nil {
		b.nextID++
		a = &models.Account{ID: b.nextID, Email: b.federated.Email, IsActive: true}
		b.accounts[a.ID] = a
	}
	b.mu.Unlock()
	tok, err := b.tokens.Issue(strconv.FormatInt(a.ID, 10))
	if err != nil {
		return nil, err
	}
	return &services.FederatedLogin{AccessToken: tok, Account: a}, nil
}

func (b *memBackend) GetWithTasks(_ context.Context, id int64) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return nil, b.failWith
	}
	a, ok := b.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *a
	out.Tasks = b.owned(id)
	return &out, nil
}

func (b *memBackend) UpdateProfile(_ context.Context, id int64, upd models.AccountUpdate) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Email != nil {
		if other := b.byEmail(*upd.Email); other != nil && other.ID != id {
			return nil, common.ErrorConflict
		}
		a.Email = *upd.Email
	}
	if upd.Password != nil {
		b.passwd[id] = *upd.Password
	}
	out := *a
	out.Tasks = b.owned(id)
	return &out, nil
}

func (b *memBackend) Delete(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(b.accounts, id)
	for tid, t := range b.tasks {
		if t.OwnerID == id {
			delete(b.tasks, tid)
		}
	}
	return nil
}

func (b *memBackend) owned(owner int64) []*models.Task {
	out := []*models.Task{}
	for id := int64(1); id <= b.nextID; id++ {
		if t, ok := b.tasks[id]; ok && t.OwnerID == owner {
			c := *t
			out = append(out, &c)
		}
	}
	return out
}

func (b *memBackend) Create(_ context.Context, owner int64, in models.TaskCreate) (*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	t := &models.Task{ID: b.nextID, Title: in.Title, Description: in.Description, OwnerID: owner}
	b.tasks[t.ID] = t
	c := *t
	return &c, nil
}

func (b *memBackend) List(_ context.Context, owner int64, skip, limit int) ([]*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return nil, b.failWith
	}
	all := b.owned(owner)
	if skip > len(all) {
		skip = len(all)
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (b *memBackend) Update(_ context.Context, owner, id int64, upd models.TaskUpdate) (*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok || t.OwnerID != owner {
		return nil, common.ErrorNotFound
	}
	upd.Apply(t)
	c := *t
	return &c, nil
}

// taskAPI adapts memBackend's task methods, whose names clash with the
// account ones, to TaskAPI.
type taskAPI struct{ b *memBackend }

func (t taskAPI) Create(ctx context.Context, owner int64, in models.TaskCreate) (*models.Task, error) {
	return t.b.Create(ctx, owner, in)
}

func (t taskAPI) List(ctx context.Context, owner int64, skip, limit int) ([]*models.Task, error) {
	return t.b.List(ctx, owner, skip, limit)
}

func (t taskAPI) Update(ctx context.Context, owner, id int64, upd models.TaskUpdate) (*models.Task, error) {
	return t.b.Update(ctx, owner, id, upd)
}

func (t taskAPI) Delete(_ context.Context, owner, id int64) (*models.Task, error) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	task, ok := t.b.tasks[id]
	if !ok || task.OwnerID != owner {
		return nil, common.ErrorNotFound
	}
	delete(t.b.tasks, id)
	return task, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// --- harness ---

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	srv     *Server
	backend *memBackend
	tokens  *auth.TokenService
	now     *time.Time
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := testEpoch
	tokens, err := auth.NewTokenService("rest-secret", 0)
	require.NoError(t, err)
	tokens.WithClock(func() time.Time { return now })

	backend := newMemBackend(tokens)
	logs := &bytes.Buffer{}
	srv := NewServer(":0", logging.New(logging.FormatJSON, logs), backend, taskAPI{backend}, auth.NewGate(tokens), fakePinger{}, time.Second)

	return &harness{t: t, srv: srv, backend: backend, tokens: tokens, now: &now, logs: logs}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) register(email, password string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/register", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[tokenResponse](h.t, rec).AccessToken
}

func (h *harness) doWithHeader(method, path, authorization string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}
