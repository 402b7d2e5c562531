package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kinboost-api/internal/application/account"
	"github.com/kinboost-api/internal/application/identity"
	"github.com/kinboost-api/internal/application/otp"
	"github.com/kinboost-api/internal/application/shop"
	"github.com/kinboost-api/internal/config"
	"github.com/kinboost-api/internal/domain"
	jwtinfra "github.com/kinboost-api/internal/infrastructure/jwt"
	"github.com/kinboost-api/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory stores ---

type memOTP struct {
	mu     sync.Mutex
	tokens []*domain.OTPToken
}

func (m *memOTP) Insert(_ context.Context, t *domain.OTPToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}
func (m *memOTP) FindLatestValid(_ context.Context, email, code string, now time.Time) (*domain.OTPToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []*domain.OTPToken
	for _, t := range m.tokens {
		if t.Email == email && t.Code == code && !t.Used && t.ExpiresAt.After(now) {
			hits = append(hits, t)
		}
	}
	if len(hits) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })
	cp := *hits[0]
	return &cp, nil
}
func (m *memOTP) Consume(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == id && !t.Used && t.ExpiresAt.After(now) {
			t.Used = true
			return true, nil
		}
	}
	return false, nil
}
func (m *memOTP) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type memAccounts struct {
	mu sync.Mutex
	m  map[string]*domain.Account
}

func (s *memAccounts) Create(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[a.Email]; ok {
		return domain.ErrConflict
	}
	cp := *a
	s.m[a.Email] = &cp
	return nil
}
func (s *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.m[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (s *memAccounts) Get(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.m {
		if a.AccountID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *memAccounts) Delete(_ context.Context, email, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.m[email]; ok && a.AccountID == id {
		delete(s.m, email)
		return nil
	}
	return domain.ErrNotFound
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]*domain.Session
}

func (s *memSessions) Put(_ context.Context, x *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *x
	s.m[x.SessionID] = &cp
	return nil
}
func (s *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, ok := s.m[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (s *memSessions) GetByRefreshToken(_ context.Context, tok string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.m {
		if x.RefreshToken == tok && x.Enable {
			cp := *x
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *memSessions) RotateRefreshToken(_ context.Context, id, old, next string, exp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.m[id]
	if !ok || x.RefreshToken != old {
		return domain.ErrUnauthorized
	}
	x.RefreshToken, x.RefreshExpiresAt = next, exp
	return nil
}
func (s *memSessions) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, ok := s.m[id]; ok {
		x.Enable = false
	}
	return nil
}

type memProfiles struct{}

func (memProfiles) Insert(context.Context, *domain.Profile) error { return nil }
func (memProfiles) DeleteByUser(context.Context, string) error    { return nil }

type memShops struct {
	mu sync.Mutex
	m  map[string]*domain.Shop
}

func (s *memShops) GetByUserID(_ context.Context, userID string) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.m[userID]; ok {
		cp := *sh
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (s *memShops) Insert(_ context.Context, sh *domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[sh.UserID]; ok {
		return domain.ErrShopExists
	}
	cp := *sh
	s.m[sh.UserID] = &cp
	return nil
}

type nopMailer struct{}

func (nopMailer) SendEmail(context.Context, string, string, string) error { return nil }

// --- harness ---

type harness struct {
	srv      *httptest.Server
	accounts *memAccounts
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	accounts := &memAccounts{m: map[string]*domain.Account{}}
	idSvc := identity.NewService(identity.ServiceDeps{
		Accounts:        accounts,
		Sessions:        &memSessions{m: map[string]*domain.Session{}},
		Tokens:          jwtinfra.NewProviderFromKey(k, &k.PublicKey, time.Hour),
		RefreshTokenDur: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	})
	deps := &Deps{
		OTP: otp.NewService(otp.ServiceDeps{
			Store:    &memOTP{},
			Mailer:   nopMailer{},
			Generate: func() (string, error) { return "123456", nil },
		}),
		Accounts: account.NewService(account.ServiceDeps{Identity: idSvc, Profiles: memProfiles{}}),
		Identity: idSvc,
		Shops:    shop.NewService(&memShops{m: map[string]*domain.Shop{}}),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	}
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	srv := httptest.NewServer(NewRouter(cfg, deps))
	t.Cleanup(srv.Close)
	return &harness{srv: srv, accounts: accounts}
}

func (h *harness) do(t *testing.T, method, path, bearer string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// --- tests ---

func TestSignupFlow_EndToEnd(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/send-otp", "", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Code envoyé", body["message"])

	status, body = h.do(t, http.MethodPost, "/verify-otp", "", map[string]string{"email": "a@b.com", "code": "123456"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["verified"])

	status, body = h.do(t, http.MethodPost, "/create-account", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@b.com", user["email"])

	a, err := h.accounts.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, a.EmailConfirmed)

	status, body = h.do(t, http.MethodPost, "/create-account", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cet email est déjà utilisé", body["error"])
}

func TestVerifyOTP_SecondUseFails(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodPost, "/send-otp", "", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/verify-otp", "", map[string]string{"email": "a@b.com", "code": "123456"})
	require.Equal(t, http.StatusOK, status)
	status, body := h.do(t, http.MethodPost, "/verify-otp", "", map[string]string{"email": "a@b.com", "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Code invalide ou expiré", body["error"])
}

func TestSessionAndShopFlow(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodPost, "/create-account", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)

	status, body := h.do(t, http.MethodPost, "/auth/token", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	token := body["access_token"].(string)
	refresh := body["refresh_token"].(string)

	status, body = h.do(t, http.MethodGet, "/shops/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["shop"])

	status, body = h.do(t, http.MethodPost, "/shops", token, map[string]string{"name": "  Ma Boutique ", "description": ""})
	require.Equal(t, http.StatusCreated, status)
	sh := body["shop"].(map[string]interface{})
	assert.Equal(t, "Ma Boutique", sh["name"])
	assert.Nil(t, sh["description"])

	status, body = h.do(t, http.MethodPost, "/shops", token, map[string]string{"name": "Autre"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Vous avez déjà une boutique", body["error"])

	status, body = h.do(t, http.MethodGet, "/auth/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.com", body["user"].(map[string]interface{})["email"])

	status, body = h.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, refresh, body["refresh_token"])

	status, _ = h.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodGet, "/shops/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignIn_BadCredentials(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodPost, "/auth/token", "", map[string]string{"email": "x@y.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/send-otp", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://kinboost.shop")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
