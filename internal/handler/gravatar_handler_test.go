package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetGravatar_ReturnsDerivedURL(t *testing.T) {
	h := NewGravatarHandler()

	req := httptest.NewRequest(http.MethodGet, "/getGravatar?email=a%40b.com", nil)
	w := httptest.NewRecorder()

	h.GetGravatar(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	url := resp["gravatarUrl"]
	if !strings.HasPrefix(url, "https://www.gravatar.com/avatar/") {
		t.Errorf("gravatarUrl = %q", url)
	}
	if !strings.Contains(url, "s=80") || !strings.Contains(url, "d=identicon") {
		t.Errorf("gravatarUrl missing size/default params: %q", url)
	}
}

func TestGetGravatar_MissingEmail_ReturnsBadRequest(t *testing.T) {
	h := NewGravatarHandler()

	req := httptest.NewRequest(http.MethodGet, "/getGravatar", nil)
	w := httptest.NewRecorder()

	h.GetGravatar(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
