package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify(context.Background(), []Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		var err error
		receivedBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	alerts := []Alert{
		{
			ID:          "availability-evt-1",
			Condition:   "capital_unavailable",
			Severity:    SeverityHigh,
			Message:     "capital reported DEGRADED (DEGRADED_OR_OFFLINE)",
			TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:          "profit-margin",
			Condition:   "profit_margin_low",
			Severity:    SeverityMedium,
			Message:     "profit margin -12.50% is below 0.00%",
			TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	}

	if err := n.Notify(context.Background(), alerts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	// header + context + section + divider + section
	if len(msg.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Text == nil || msg.Blocks[0].Text.Text != "aion audit alerts" {
		t.Errorf("unexpected header %v", msg.Blocks[0].Text)
	}
	if msg.Blocks[1].Type != "context" || len(msg.Blocks[1].Elements) != 1 {
		t.Fatalf("expected context block with one element, got %+v", msg.Blocks[1])
	}
	if got := msg.Blocks[1].Elements[0].Text; got != "2 alert(s): 1 high, 1 medium" {
		t.Errorf("context text = %q", got)
	}
	if msg.Blocks[3].Type != "divider" {
		t.Errorf("expected divider, got %s", msg.Blocks[3].Type)
	}

	body := string(receivedBody)
	for _, want := range []string{"capital_unavailable", "profit_margin_low", "2025-01-15 10:30 UTC"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	err := n.Notify(context.Background(), []Alert{{
		ID:          "risk-factor",
		Condition:   "risk_factor_high",
		Severity:    SeverityHigh,
		Message:     "risk factor integral 0.61 exceeds 0.50",
		TriggeredAt: time.Now().UTC(),
	}})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewSlackNotifier(srv.URL)
	err := n.Notify(ctx, []Alert{{ID: "x", Severity: SeverityLow, TriggeredAt: time.Now()}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSlackNotifier_SeverityEmojis(t *testing.T) {
	tests := []struct {
		severity AlertSeverity
		emoji    string
	}{
		{SeverityHigh, "\U0001f534"},
		{SeverityMedium, "\U0001f7e1"},
		{SeverityLow, "\U0001f535"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			var receivedBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				receivedBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			n := NewSlackNotifier(srv.URL)
			err := n.Notify(context.Background(), []Alert{{
				ID:          "emoji-test",
				Condition:   "test",
				Severity:    tt.severity,
				Message:     "test message",
				TriggeredAt: time.Now().UTC(),
			}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(string(receivedBody), tt.emoji) {
				t.Errorf("expected body to contain emoji %s for severity %s", tt.emoji, tt.severity)
			}
		})
	}
}
