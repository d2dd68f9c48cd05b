package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afisha/internal/token"
)

func okHandler(t *testing.T, wantAdmin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetAdmin(r.Context()); got != wantAdmin {
			t.Errorf("admin in context: got %q want %q", got, wantAdmin)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin_ValidToken(t *testing.T) {
	t.Parallel()
	codec := token.New([]byte("a"), []byte("r"))
	access, err := codec.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: access.Value})
	rec := httptest.NewRecorder()
	RequireAdmin(codec)(okHandler(t, "marat")).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdmin_Rejects(t *testing.T) {
	t.Parallel()
	codec := token.New([]byte("a"), []byte("r"))
	refresh, err := codec.IssueRefresh("marat")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	expired, err := token.NewWithTTL([]byte("a"), []byte("r"), -1, -1).IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	foreign, err := token.New([]byte("other"), []byte("other-r")).IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"no cookie", ""},
		{"garbage", "not.a.jwt"},
		{"refresh as access", refresh.Value},
		{"expired", expired.Value},
		{"wrong secret", foreign.Value},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tc.token})
			}
			rec := httptest.NewRecorder()
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
			RequireAdmin(codec)(next).ServeHTTP(rec, req)

			if called {
				t.Fatal("next handler must not be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
			}
			// Тело одинаковое для всех причин отказа.
			want := `{"error":"authentication information missing or invalid"}`
			if rec.Body.String() != want {
				t.Fatalf("body: got %q want %q", rec.Body.String(), want)
			}
		})
	}
}
