package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for attempt, expected := range want {
		if got := exponentialBackoff(attempt); got != expected {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", attempt, got, expected)
		}
	}
	for _, attempt := range []int{5, 12, 63} {
		if got := exponentialBackoff(attempt); got != maxBackoff {
			t.Errorf("exponentialBackoff(%d) = %v, want cap %v", attempt, got, maxBackoff)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"broker closed", amqp091.ErrClosed, true},
		{"wrapped broker closed", fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"marshal failure", errors.New("json: unsupported value"), false},
		{"open circuit", errors.New("circuit breaker is open"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "bilancio", queueName: "ledger_changes"}

	for i := 1; i < maxFailures; i++ {
		client.recordFailure()
		if client.isCircuitOpen() {
			t.Fatalf("circuit opened after %d failures, threshold is %d", i, maxFailures)
		}
	}
	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open at the failure threshold")
	}

	msg := NewLedgerChangeMessage("expense", "delete", 4, 9)
	err := client.PublishLedgerChange(context.Background(), msg)
	if err == nil || !strings.Contains(err.Error(), "dropping delete expense notification") {
		t.Fatalf("expected dropped notification, got %v", err)
	}

	// after the open timeout one trial is allowed; a failure reopens at once
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should be half-open after the timeout")
	}
	if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}
	atomic.StoreInt64(&client.failureCount, 0)
	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("a failed trial should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and clear failures")
	}
}

func TestClient_PublishLedgerChange_CancelledContext(t *testing.T) {
	client := &Client{exchangeName: "bilancio", queueName: "ledger_changes"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.PublishLedgerChange(ctx, NewLedgerChangeMessage("goal", "create", 1, 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt64(&client.failureCount) != 0 {
		t.Error("a cancelled publish should not count as a broker failure")
	}
}

// ackRecorder stands in for the broker channel behind a delivery.
type ackRecorder struct {
	acks     []uint64
	nacks    []uint64
	requeued []bool
	err      error
}

func (r *ackRecorder) Ack(tag uint64, multiple bool) error {
	r.acks = append(r.acks, tag)
	return r.err
}

func (r *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	r.nacks = append(r.nacks, tag)
	r.requeued = append(r.requeued, requeue)
	return r.err
}

func (r *ackRecorder) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func newDelivery(t *testing.T, ack amqp091.Acknowledger, tag uint64, body []byte) amqp091.Delivery {
	t.Helper()
	return amqp091.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
}

func changeBody(t *testing.T, entity string, revision int64) []byte {
	t.Helper()
	body, err := NewLedgerChangeMessage(entity, "update", 0, revision).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHandleDelivery(t *testing.T) {
	handlerErr := errors.New("export failed")

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantAck    bool
		wantNack   bool
		wantQueue  bool
		wantCalled bool
	}{
		{name: "handled change is acked", body: changeBody(t, "budget", 3), wantAck: true, wantCalled: true},
		{name: "handler failure is requeued", body: changeBody(t, "goal", 4), handlerErr: handlerErr, wantNack: true, wantQueue: true, wantCalled: true},
		{name: "undecodable body is dropped", body: []byte("###GOALS"), wantNack: true},
		{name: "bad id is dropped", body: []byte(`{"id":"nope","revision":1}`), wantNack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &ackRecorder{}
			called := false
			handler := func(msg *LedgerChangeMessage) error {
				called = true
				return tt.handlerErr
			}

			if err := handleDelivery(context.Background(), newDelivery(t, ack, 7, tt.body), handler); err != nil {
				t.Fatalf("handleDelivery() error = %v", err)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if (len(ack.acks) == 1) != tt.wantAck {
				t.Errorf("acks = %v, wantAck %v", ack.acks, tt.wantAck)
			}
			if (len(ack.nacks) == 1) != tt.wantNack {
				t.Fatalf("nacks = %v, wantNack %v", ack.nacks, tt.wantNack)
			}
			if tt.wantNack && ack.requeued[0] != tt.wantQueue {
				t.Errorf("requeue = %v, want %v", ack.requeued[0], tt.wantQueue)
			}
		})
	}
}

func TestHandleDelivery_AckFailureIsReturned(t *testing.T) {
	ack := &ackRecorder{err: amqp091.ErrClosed}
	err := handleDelivery(context.Background(), newDelivery(t, ack, 1, changeBody(t, "expense", 1)), func(*LedgerChangeMessage) error { return nil })
	if !errors.Is(err, amqp091.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestConsume(t *testing.T) {
	ack := &ackRecorder{}
	msgs := make(chan amqp091.Delivery, 3)
	msgs <- newDelivery(t, ack, 1, changeBody(t, "expense", 1))
	msgs <- newDelivery(t, ack, 2, []byte("not json"))
	msgs <- newDelivery(t, ack, 3, changeBody(t, "expense", 2))
	close(msgs)

	var revisions []int64
	err := consume(context.Background(), msgs, func(msg *LedgerChangeMessage) error {
		revisions = append(revisions, msg.Revision)
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "message channel closed") {
		t.Fatalf("expected closed channel error, got %v", err)
	}
	if fmt.Sprint(revisions) != "[1 2]" {
		t.Errorf("handled revisions = %v, want [1 2]", revisions)
	}
	if fmt.Sprint(ack.acks) != "[1 3]" || fmt.Sprint(ack.nacks) != "[2]" {
		t.Errorf("acks = %v nacks = %v", ack.acks, ack.nacks)
	}
}

func TestConsume_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := consume(ctx, make(chan amqp091.Delivery), func(*LedgerChangeMessage) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewLedgerChangeMessage(t *testing.T) {
	msg := NewLedgerChangeMessage("goal", "update", 2, 7)

	if msg.ID == uuid.Nil {
		t.Error("NewLedgerChangeMessage() ID should be set")
	}
	if msg.Entity != "goal" || msg.Operation != "update" {
		t.Errorf("unexpected entity/operation %q/%q", msg.Entity, msg.Operation)
	}
	if msg.Index != 2 || msg.Revision != 7 {
		t.Errorf("unexpected index/revision %d/%d", msg.Index, msg.Revision)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerChangeMessage() Timestamp should be recent")
	}
	if other := NewLedgerChangeMessage("goal", "update", 2, 7); other.ID == msg.ID {
		t.Error("message IDs should be unique")
	}
}

func TestLedgerChangeMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerChangeMessage{
		ID:        uuid.MustParse("7f8c9d2e-1b3a-4c5d-8e6f-0a1b2c3d4e5f"),
		Entity:    "budget",
		Operation: "update",
		Revision:  3,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(jsonBytes), `"index"`) {
		t.Errorf("zero index should be omitted: %s", jsonBytes)
	}

	parsedMsg, err := LedgerChangeMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerChangeMessageFromJSON() error = %v", err)
	}
	if parsedMsg.ID != msg.ID || parsedMsg.Entity != msg.Entity || parsedMsg.Revision != msg.Revision {
		t.Errorf("Parsed message = %+v, want %+v", parsedMsg, msg)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestLedgerChangeMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not-a-uuid", "revision": 1}`)

	_, err := LedgerChangeMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerChangeMessageFromJSON() should fail with invalid JSON")
	}
}
