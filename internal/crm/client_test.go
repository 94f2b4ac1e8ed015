package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUpsertLeadCreates(t *testing.T) {
	var createReq ContactRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/contacts/lookup":
			if got := r.URL.Query().Get("phone"); got != "+15551234567" {
				t.Fatalf("unexpected lookup phone: %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"contacts":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/contacts/":
			if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
				t.Fatalf("decode create request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"contact":{"id":"ct_1"}}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "loc_1", time.Second)
	id, created, err := client.UpsertLead(context.Background(), Lead{
		Name:   "Jane Doe",
		Phone:  "5551234567",
		Email:  "jane@acme.com",
		Tags:   []string{"AI Chat Demo"},
		Source: "Assistant API",
	})
	if err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	if id != "ct_1" || !created {
		t.Fatalf("unexpected result: id=%q created=%v", id, created)
	}
	if createReq.FirstName != "Jane" || createReq.LastName != "Doe" {
		t.Fatalf("unexpected name split: %+v", createReq)
	}
	if createReq.Phone != "+15551234567" {
		t.Fatalf("unexpected phone: %q", createReq.Phone)
	}
	if createReq.LocationID != "loc_1" {
		t.Fatalf("expected location id to be filled in, got %q", createReq.LocationID)
	}
}

func TestUpsertLeadUpdatesExisting(t *testing.T) {
	var updatedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/contacts/lookup":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"contacts":[{"id":"ct_9","phone":"+15551234567"}]}`)
		case r.Method == http.MethodPut:
			updatedPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "loc_1", time.Second)
	id, created, err := client.UpsertLead(context.Background(), Lead{Name: "Jane", Phone: "(555) 123-4567"})
	if err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	if id != "ct_9" || created {
		t.Fatalf("unexpected result: id=%q created=%v", id, created)
	}
	if updatedPath != "/contacts/ct_9" {
		t.Fatalf("unexpected update path: %q", updatedPath)
	}
}

func TestUpsertLeadRejectsBadPhone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected for invalid phone, got %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)
	_, _, err := client.UpsertLead(context.Background(), Lead{Name: "Jane", Phone: "12345"})
	if err == nil {
		t.Fatalf("expected error for invalid phone")
	}
}

func TestLookupContactNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)
	contact, err := client.LookupContactByPhone(context.Background(), "+15551234567")
	if err != nil {
		t.Fatalf("LookupContactByPhone failed: %v", err)
	}
	if contact != nil {
		t.Fatalf("expected nil contact, got %+v", contact)
	}
}

func TestAddNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts/ct_1/notes" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode note payload: %v", err)
		}
		if payload["body"] == "" {
			t.Fatalf("empty note body")
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)
	if err := client.AddNote(context.Background(), "ct_1", "Demo call initiated."); err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}
}
