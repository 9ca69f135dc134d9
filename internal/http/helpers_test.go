package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhythm-flow/internal/catalog"
	"rhythm-flow/internal/repository"
	"rhythm-flow/internal/service"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type testEnv struct {
	router      *gin.Engine
	tokens      *service.TokenService
	clock       *testClock
	accountsDoc *repository.MemoryDocument
	itemsDoc    *repository.MemoryDocument
}

func newTestEnv(t *testing.T, client catalog.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := &testClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := service.NewTokenService("secret", 2*time.Hour, service.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	accountsDoc := repository.NewMemoryDocument(nil)
	itemsDoc := repository.NewMemoryDocument(nil)

	logger := zap.NewNop()
	accountSvc := service.NewAccountService(logger, repository.NewJSONAccountRepository(accountsDoc))
	collectionSvc := service.NewCollectionService(repository.NewJSONCollectionRepository(itemsDoc))

	router := NewRouter(logger,
		RouterConfig{CORSOrigins: []string{"http://localhost:3000"}},
		tokens,
		NewAccountHandler(logger, accountSvc, tokens, false),
		NewCollectionHandler(logger, collectionSvc, false),
		NewCatalogHandler(logger, client, false),
	)
	return &testEnv{
		router:      router,
		tokens:      tokens,
		clock:       clock,
		accountsDoc: accountsDoc,
		itemsDoc:    itemsDoc,
	}
}

func performRequest(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (e *testEnv) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": password}
	if rec := performRequest(e.router, http.MethodPost, "/register", creds, nil); rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec := performRequest(e.router, http.MethodPost, "/login", creds, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login: expected token in %s", rec.Body.String())
	}
	return token
}
