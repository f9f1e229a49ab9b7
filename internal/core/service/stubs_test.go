package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/infrastructure/security/password"
	"github.com/folioapp/portfolio-api/internal/infrastructure/security/token"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the user and portfolio stubs
// ---------------------------------------------------------------------------

type memStore struct {
	users      map[string]*domain.User
	portfolios map[string]*domain.Portfolio
	seq        int
	now        time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*domain.User),
		portfolios: make(map[string]*domain.Portfolio),
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func clonePortfolio(p *domain.Portfolio) *domain.Portfolio {
	c := *p
	return &c
}

type stubUserRepo struct{ s *memStore }

// conflict mirrors the unique indexes of the real stores.
func (r *stubUserRepo) conflict(u *domain.User) error {
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if domain.UsernameKey(other.Username) == domain.UsernameKey(u.Username) {
			return domain.ErrUsernameTaken
		}
		if other.Email == domain.NormalizeEmail(u.Email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if err := r.conflict(u); err != nil {
		return nil, err
	}
	c := cloneUser(u)
	c.ID = r.s.nextID("u")
	c.Email = domain.NormalizeEmail(c.Email)
	c.CreatedAt, c.UpdatedAt = r.s.now, r.s.now
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	if u, err := r.FindByUsername(ctx, identifier); err == nil {
		return u, nil
	}
	return r.FindByEmail(ctx, identifier)
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.s.users {
		if domain.UsernameKey(u.Username) == domain.UsernameKey(username) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Email == domain.NormalizeEmail(email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, ok := r.s.users[u.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if err := r.conflict(u); err != nil {
		return nil, err
	}
	c := cloneUser(u)
	c.UpdatedAt = r.s.now
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for pid, p := range r.s.portfolios {
		if p.UserID == id {
			delete(r.s.portfolios, pid)
		}
	}
	delete(r.s.users, id)
	return nil
}

type stubPortfolioRepo struct{ s *memStore }

func (r *stubPortfolioRepo) Create(_ context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	if _, ok := r.s.users[p.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	c := clonePortfolio(p)
	c.ID = r.s.nextID("p")
	c.CreatedAt, c.UpdatedAt = r.s.now, r.s.now
	r.s.portfolios[c.ID] = c
	return clonePortfolio(c), nil
}

func (r *stubPortfolioRepo) FindByID(_ context.Context, id string) (*domain.Portfolio, error) {
	p, ok := r.s.portfolios[id]
	if !ok {
		return nil, domain.ErrPortfolioNotFound
	}
	return clonePortfolio(p), nil
}

func (r *stubPortfolioRepo) List(_ context.Context) ([]*domain.Portfolio, error) {
	return r.filter(func(*domain.Portfolio) bool { return true }), nil
}

func (r *stubPortfolioRepo) ListByUser(_ context.Context, userID string) ([]*domain.Portfolio, error) {
	return r.filter(func(p *domain.Portfolio) bool { return p.UserID == userID }), nil
}

func (r *stubPortfolioRepo) filter(keep func(*domain.Portfolio) bool) []*domain.Portfolio {
	out := []*domain.Portfolio{}
	for _, p := range r.s.portfolios {
		if keep(p) {
			out = append(out, clonePortfolio(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubPortfolioRepo) Update(_ context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	if _, ok := r.s.portfolios[p.ID]; !ok {
		return nil, domain.ErrPortfolioNotFound
	}
	c := clonePortfolio(p)
	c.UpdatedAt = r.s.now
	r.s.portfolios[c.ID] = c
	return clonePortfolio(c), nil
}

func (r *stubPortfolioRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.portfolios[id]; !ok {
		return domain.ErrPortfolioNotFound
	}
	delete(r.s.portfolios, id)
	return nil
}

// ---------------------------------------------------------------------------
// Notification recorder
// ---------------------------------------------------------------------------

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (d *recordingDispatcher) Dispatch(n domain.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) last(t *testing.T) domain.Notification {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		t.Fatalf("expected a notification, none sent")
	}
	return d.sent[len(d.sent)-1]
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// linkToken extracts the token query parameter from a notification body.
func linkToken(t *testing.T, n domain.Notification) string {
	t.Helper()
	i := strings.Index(n.Body, "?token=")
	if i < 0 {
		t.Fatalf("notification %q has no link", n.Kind)
	}
	raw := n.Body[i+len("?token="):]
	if j := strings.IndexAny(raw, "\n "); j >= 0 {
		raw = raw[:j]
	}
	tok, err := url.QueryUnescape(raw)
	if err != nil {
		t.Fatalf("unescape token: %v", err)
	}
	return tok
}

// ---------------------------------------------------------------------------
// Fixture wiring real codec and hasher over the stubs
// ---------------------------------------------------------------------------

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

type fixture struct {
	store      *memStore
	users      *stubUserRepo
	portfolios *stubPortfolioRepo
	hasher     *password.BcryptHasher
	codec      *token.Codec
	clock      *testClock
	mail       *recordingDispatcher
	sessions   *SessionService
	accounts   *AccountService
	nonces     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemStore(),
		hasher: password.NewBcryptHasher(bcrypt.MinCost),
		clock:  &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		mail:   &recordingDispatcher{},
	}
	f.users = &stubUserRepo{s: f.store}
	f.portfolios = &stubPortfolioRepo{s: f.store}

	codec, err := token.NewCodec("test-secret", token.TTLs{
		Access:        30 * time.Minute,
		EmailVerify:   30 * time.Minute,
		PasswordReset: time.Hour,
		AccountDelete: 15 * time.Minute,
	}, token.WithClock(f.clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	f.codec = codec

	f.sessions = NewSessionService(f.users, f.codec)
	f.accounts = NewAccountService(f.users, f.hasher, f.codec, f.sessions, f.mail,
		MailOptions{AppName: "PortfolioApp", FrontendURL: "https://app.example.com/"}, zerolog.Nop())
	f.accounts.newNonce = func() string {
		f.nonces++
		return fmt.Sprintf("nonce-%d", f.nonces)
	}
	return f
}

// seedUser stores a user directly, bypassing registration.
func (f *fixture) seedUser(t *testing.T, username, email, plain string, verified bool) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := f.users.Create(context.Background(), &domain.User{
		FirstName:    "Test",
		LastName:     "User",
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (f *fixture) seedPortfolio(t *testing.T, owner *domain.User, title string) *domain.Portfolio {
	t.Helper()
	p, err := f.portfolios.Create(context.Background(), &domain.Portfolio{UserID: owner.ID, Title: title})
	if err != nil {
		t.Fatalf("seed portfolio: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
