package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		h := SecureHeaders(hsts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/providers", nil))

		for _, kv := range apiHeaders {
			if got := rr.Header().Get(kv[0]); got != kv[1] {
				t.Errorf("hsts=%v %s: got %q, want %q", hsts, kv[0], got, kv[1])
			}
		}

		sts := rr.Header().Get("Strict-Transport-Security")
		if hsts && sts == "" {
			t.Error("Strict-Transport-Security should be set over HTTPS")
		}
		if !hsts && sts != "" {
			t.Errorf("Strict-Transport-Security: got %q without HTTPS", sts)
		}
	}
}
