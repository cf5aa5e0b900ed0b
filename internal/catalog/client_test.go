package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		ClientID:     "cid",
		ClientSecret: "csecret",
	}, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	return client, server
}

func TestClient_IssueToken_ParsesTokenValue(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/tokens/xapp_token" {
			t.Errorf("path = %s, want /tokens/xapp_token", r.URL.Path)
		}
		if r.URL.Query().Get("client_id") != "cid" || r.URL.Query().Get("client_secret") != "csecret" {
			t.Error("client credentials not forwarded in query")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"type":"xapp_token","token":"xapp-abc","expires_at":"2025-06-07T00:00:00Z"}`))
	})

	got, err := client.IssueToken(context.Background())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if got != "xapp-abc" {
		t.Errorf("IssueToken() = %q, want %q", got, "xapp-abc")
	}
}

func TestClient_IssueToken_EmptyTokenValue(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"xapp_token"}`))
	})

	_, err := client.IssueToken(context.Background())
	if err == nil {
		t.Fatal("expected error when upstream returns no token value")
	}
}

func TestClient_IssueToken_UpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	})

	_, err := client.IssueToken(context.Background())
	if err == nil {
		t.Fatal("expected error for upstream error status")
	}
}

func TestClient_SearchArtists_AttachesTokenHeaderAndQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(TokenHeader); got != "xapp-abc" {
			t.Errorf("%s = %q, want %q", TokenHeader, got, "xapp-abc")
		}
		q := r.URL.Query()
		if q.Get("q") != "picasso" || q.Get("type") != "artist" || q.Get("size") != "10" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`{"_embedded":{"results":[]}}`))
	})

	resp, err := client.SearchArtists(context.Background(), "xapp-abc", "picasso")
	if err != nil {
		t.Fatalf("SearchArtists() error = %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != `{"_embedded":{"results":[]}}` {
		t.Errorf("Body = %s, want upstream body verbatim", resp.Body)
	}
}

func TestClient_Get_UpstreamErrorStatusRelayedNotError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Artist Not Found"}`))
	})

	resp, err := client.Artist(context.Background(), "tok", "missing-id")
	if err != nil {
		t.Fatalf("Artist() error = %v, upstream statuses must be relayed, not converted to errors", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", resp.Status)
	}
}

func TestClient_SimilarArtists_UsesSimilarToQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists" {
			t.Errorf("path = %s, want /artists", r.URL.Path)
		}
		if r.URL.Query().Get("similar_to_artist_id") != "a1" {
			t.Errorf("similar_to_artist_id = %q, want %q", r.URL.Query().Get("similar_to_artist_id"), "a1")
		}
		w.Write([]byte(`{}`))
	})

	if _, err := client.SimilarArtists(context.Background(), "tok", "a1"); err != nil {
		t.Fatalf("SimilarArtists() error = %v", err)
	}
}

func TestClient_Artworks_DefaultSize(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("size") != "10" {
			t.Errorf("size = %q, want default 10", r.URL.Query().Get("size"))
		}
		w.Write([]byte(`{}`))
	})

	if _, err := client.Artworks(context.Background(), "tok", "a1", 0); err != nil {
		t.Fatalf("Artworks() error = %v", err)
	}
}
