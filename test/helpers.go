package test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/gateway"
	"github.com/yourorg/workstream/internal/handler"
	"github.com/yourorg/workstream/internal/infrastructure/logger"
	"github.com/yourorg/workstream/internal/security/audit"
	"github.com/yourorg/workstream/internal/security/auth"
	"github.com/yourorg/workstream/internal/service"
	"github.com/yourorg/workstream/internal/store/memory"
	"github.com/yourorg/workstream/pkg/cache"
)

// TestServerHelper wires a complete server on an in-memory store.
type TestServerHelper struct {
	Server   *httptest.Server
	Logger   *slog.Logger
	Mux      *http.ServeMux
	Registry *service.Registry
	Tokens   *auth.TokenManager
	Users    *auth.UserStore
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")
	mux := http.NewServeMux()

	st := memory.New()
	registry := service.NewRegistry(st, log, cache.New())

	tokens := auth.NewTokenManager("test-secret", "workstream")
	users, err := auth.NewUserStore("")
	if err != nil {
		t.Fatalf("user store: %v", err)
	}

	hub := gateway.NewHub(log)
	broadcaster := gateway.NewBroadcaster(registry, hub, log)
	dispatcher := gateway.NewDispatcher(registry, hub, broadcaster, nil, audit.NewLogger(log, nil), log)
	wsHandler := gateway.NewHandler(tokens, hub, dispatcher, log, nil)

	mux.Handle("GET /ws", wsHandler)
	mux.Handle("POST /api/login", handler.NewLoginHandler(users, tokens, log))
	mux.HandleFunc("/healthz", handler.Healthz())
	mux.HandleFunc("/readyz", handler.Readyz(map[string]handler.Pinger{"store": st}))

	server := httptest.NewServer(mux)

	return &TestServerHelper{
		Server:   server,
		Logger:   log,
		Mux:      mux,
		Registry: registry,
		Tokens:   tokens,
		Users:    users,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// Token mints a JWT for an arbitrary identity.
func (h *TestServerHelper) Token(t *testing.T, companyID, role string) string {
	token, err := h.Tokens.GenerateToken(companyID, "user-test", "test@example.com",
		roleOf(role), time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func roleOf(role string) domain.Role {
	return domain.Role(role)
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
