package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"budget/internal/core"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func TestNewBudgetAlertMessage(t *testing.T) {
	alert := core.BudgetAlert{Email: "alice@x.com", Budget: 100, Total: 130, Remaining: -30}
	msg := NewBudgetAlertMessage(alert)
	if msg.Timestamp.IsZero() {
		t.Fatal("message timestamp not set")
	}
	if msg.Alert() != alert {
		t.Fatalf("Alert() = %+v, want %+v", msg.Alert(), alert)
	}
}

func TestBudgetAlertMessageFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@x.com","budget":10,"total_expenses":12,"remaining":-2}`, false},
		{"missing email", `{"budget":10}`, true},
		{"not json", `nope`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := BudgetAlertMessageFromJSON([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (msg.Email != "a@x.com" || msg.Remaining != -2) {
				t.Fatalf("unexpected message: %+v", msg)
			}
		})
	}
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	valid := []byte(`{"email":"a@x.com","budget":10,"total_expenses":12,"remaining":-2}`)

	t.Run("handled message is acked", func(t *testing.T) {
		ack := &fakeAck{}
		var got *BudgetAlertMessage
		err := settle(ctx, valid, ack, func(_ context.Context, m *BudgetAlertMessage) error {
			got = m
			return nil
		})
		if err != nil {
			t.Fatalf("settle() error = %v", err)
		}
		if !ack.acked || ack.nacked {
			t.Fatalf("expected ack, got %+v", ack)
		}
		if got == nil || got.Email != "a@x.com" {
			t.Fatalf("handler got %+v", got)
		}
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		settle(ctx, []byte("garbage"), ack, func(context.Context, *BudgetAlertMessage) error {
			called = true
			return nil
		})
		if called {
			t.Fatal("handler must not run for malformed messages")
		}
		if !ack.nacked || ack.requeue {
			t.Fatalf("expected nack without requeue, got %+v", ack)
		}
	})

	t.Run("handler failure is requeued", func(t *testing.T) {
		ack := &fakeAck{}
		err := settle(ctx, valid, ack, func(context.Context, *BudgetAlertMessage) error {
			return errors.New("boom")
		})
		if err != nil {
			t.Fatalf("transient failure must not stop the consumer: %v", err)
		}
		if !ack.nacked || !ack.requeue {
			t.Fatalf("expected nack with requeue, got %+v", ack)
		}
	})

	t.Run("unreadable store is dropped and stops consumer", func(t *testing.T) {
		ack := &fakeAck{}
		err := settle(ctx, valid, ack, func(context.Context, *BudgetAlertMessage) error {
			return fmt.Errorf("load document: %w", core.ErrStoreUnreadable)
		})
		if !errors.Is(err, core.ErrStoreUnreadable) {
			t.Fatalf("settle() error = %v, want ErrStoreUnreadable", err)
		}
		if ack.acked || !ack.nacked || ack.requeue {
			t.Fatalf("expected nack without requeue, got %+v", ack)
		}
	})
}

func TestClientCloseWithoutConnection(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
