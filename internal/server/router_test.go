package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(h http.Handler, target string) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Code
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("outer"), mark("inner"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		if code := serve(router, "/ping"); code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}

		want := []string{"outer", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("expected %v, got %v", want, order)
				break
			}
		}
	})

	t.Run("Not Found Gets Middleware", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(SecureHeaders)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Error("expected security headers on 404")
		}
	})
}
