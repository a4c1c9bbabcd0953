package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

func TestApplyDeltaSendsTokenAndDelta(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.Method + " " + r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		api.WriteJSON(w, http.StatusOK, models.Agent{ID: "a1", Name: "Ana", Activations: 16})
	}))
	defer srv.Close()

	c := NewBoardClient(srv.URL+"/", "tok-123")
	agent, err := c.ApplyDelta(context.Background(), "a1", models.CounterDelta{Activations: models.Int(1)})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if agent.Activations != 16 {
		t.Fatalf("agent = %+v", agent)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "PATCH /api/tl/agents/a1/increment" {
		t.Fatalf("request = %q", gotPath)
	}
	if len(gotBody) != 1 || gotBody["activations"] != 1 {
		t.Fatalf("body = %v, want only activations", gotBody)
	}
}

func TestClientErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/clear") {
			api.WriteForbidden(w, "forbidden: admin only")
			return
		}
		api.WriteTooManyRequests(w, "slow down")
	}))
	defer srv.Close()
	c := NewBoardClient(srv.URL, "tok")

	_, err := c.ApplyDelta(context.Background(), "a1", models.CounterDelta{Points: models.Int(1)})
	if !errors.Is(err, api.ErrTooManyReqs) {
		t.Fatalf("err = %v, want ErrTooManyReqs", err)
	}
	if api.GetHTTPStatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("status code = %d", api.GetHTTPStatusCode(err))
	}

	if err := c.ClearNotifications(context.Background()); !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestActiveNotificationMissingIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteNotFound(w, "not found: active notification")
	}))
	defer srv.Close()

	n, err := NewBoardClient(srv.URL, "").ActiveNotification(context.Background())
	if err != nil || n != nil {
		t.Fatalf("ActiveNotification = %v, %v; want nil, nil", n, err)
	}
}
