package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusConflict, "save_in_progress", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"save_in_progress"}` {
		t.Fatalf("body = %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %s", ct)
	}
}

func TestWantsJSON(t *testing.T) {
	cases := []struct {
		accept, contentType string
		want                bool
	}{
		{"application/json", "", true},
		{"text/html,application/json", "", false},
		{"", "application/json", true},
		{"", "application/x-www-form-urlencoded", false},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Accept", c.accept)
		r.Header.Set("Content-Type", c.contentType)
		if got := WantsJSON(r); got != c.want {
			t.Errorf("WantsJSON(accept=%q, ct=%q) = %v", c.accept, c.contentType, got)
		}
	}
}
