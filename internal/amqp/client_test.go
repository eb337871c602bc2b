package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLedgerUpdateMessageRoundTrip(t *testing.T) {
	original := NewLedgerUpdateMessage(42, "entry-123", ActionCreated)

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := LedgerUpdateMessageFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerUpdateMessageFromJSON() error = %v", err)
	}

	if decoded.UserID != original.UserID {
		t.Errorf("UserID = %d, want %d", decoded.UserID, original.UserID)
	}
	if decoded.EntryID != original.EntryID {
		t.Errorf("EntryID = %q, want %q", decoded.EntryID, original.EntryID)
	}
	if decoded.Action != original.Action {
		t.Errorf("Action = %q, want %q", decoded.Action, original.Action)
	}
}

func TestLedgerUpdateMessageFromJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"garbage", []byte("not json")},
		{"truncated", []byte(`{"user_id": 1,`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LedgerUpdateMessageFromJSON(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.want {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("Exception (504) Reason: \"channel/connection is not open\" connection closed"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network", errors.New("use of closed network connection"), true},
		{"unrelated", errors.New("access refused for user"), false},
		{"marshal error", errors.New("json: unsupported type"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	client := &Client{}

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	if client.isCircuitOpen() {
		t.Fatal("circuit open before reaching maxFailures")
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("circuit not open after maxFailures")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	client := &Client{}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit not open after maxFailures")
	}

	client.recordSuccess()
	if client.isCircuitOpen() {
		t.Error("circuit still open after success")
	}
	if got := atomic.LoadInt64(&client.failureCount); got != 0 {
		t.Errorf("failureCount = %d, want 0", got)
	}
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	client := &Client{}
	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)

	if client.isCircuitOpen() {
		t.Error("circuit still open after timeout elapsed")
	}
	if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
		t.Errorf("state = %d, want StateHalfOpen", got)
	}
}

func TestPublishRespectsCanceledContext(t *testing.T) {
	client := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.PublishLedgerUpdate(ctx, NewLedgerUpdateMessage(1, "e1", ActionCreated))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPublishRefusedWhenCircuitOpen(t *testing.T) {
	client := &Client{}
	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()

	err := client.PublishLedgerUpdate(context.Background(), NewLedgerUpdateMessage(1, "e1", ActionUpdated))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := err.Error(); !strings.Contains(got, "circuit breaker is open") {
		t.Errorf("error = %q, want circuit breaker mention", got)
	}
}
