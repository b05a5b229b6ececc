package integration_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/helium-dev/helium"
	"github.com/helium-dev/helium/pkg/client"
	"github.com/helium-dev/helium/pkg/procedure"
)

// TestUser represents a user for testing.
type TestUser struct {
	ID    string
	Email string
	Role  string
}

// userContextKey is the key for storing user in context.
type userContextKey struct{}

var errAnonymous = errors.New("not signed in")

// mockAuthMiddleware simulates authentication middleware.
func mockAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer valid-token" {
			user := &TestUser{
				ID:    "user-123",
				Email: "test@example.com",
				Role:  "admin",
			}
			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TestChiRouterIntegration mounts a Helium app inside a chi router and checks
// that procedures see the request context built by the router's middleware.
func TestChiRouterIntegration(t *testing.T) {
	app := helium.New(helium.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	app.MustRegister("me", procedure.NoArgs(func(ctx context.Context) (string, error) {
		user, ok := ctx.Value(userContextKey{}).(*TestUser)
		if !ok {
			return "", errAnonymous
		}
		return user.Email, nil
	}))
	if err := app.Page("/dashboard", "dashboard"); err != nil {
		t.Fatal(err)
	}
	srv, err := app.Build()
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(mockAuthMiddleware)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/*", srv.Handler())

	ts := httptest.NewServer(r)
	defer ts.Close()
	rpcURL := ts.URL + "/_helium/rpc"

	t.Run("API health endpoint", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Page route through chi", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/dashboard")
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"page":"dashboard"`) {
			t.Errorf("GET /dashboard = %d %s", resp.StatusCode, body)
		}
	})

	t.Run("Authenticated call sees the user", func(t *testing.T) {
		c := client.New(client.NewHTTPTransport(rpcURL, client.WithHeader("Authorization", "Bearer valid-token")))
		email, err := client.Invoke[string](context.Background(), c, "me", nil)
		if err != nil {
			t.Fatalf("me: %v", err)
		}
		if email != "test@example.com" {
			t.Errorf("me = %q", email)
		}
	})

	t.Run("Anonymous call fails in the handler", func(t *testing.T) {
		c := client.New(client.NewHTTPTransport(rpcURL))
		_, err := client.Invoke[string](context.Background(), c, "me", nil)
		if client.KindOf(err) != client.KindHandlerError {
			t.Fatalf("KindOf = %q, want HandlerError", client.KindOf(err))
		}
		var ce *client.CallError
		if errors.As(err, &ce) && ce.Message != errAnonymous.Error() {
			t.Errorf("Message = %q", ce.Message)
		}
	})

	t.Run("WebSocket upgrade through chi", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_helium/ws"
		header := http.Header{"Authorization": []string{"Bearer valid-token"}}
		tr, err := client.DialWebSocket(context.Background(), wsURL, header)
		if err != nil {
			t.Fatalf("DialWebSocket: %v", err)
		}
		defer tr.Close()

		email, err := client.Invoke[string](context.Background(), client.New(tr), "me", nil)
		if err != nil {
			t.Fatalf("me over websocket: %v", err)
		}
		if email != "test@example.com" {
			t.Errorf("me = %q", email)
		}
	})
}
