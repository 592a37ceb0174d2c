package queue_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"

	"github.com/unclebandit/crm-campaign-backend/internal/queue"
)

func TestInMemoryQueue_RetriesUntilSuccess(t *testing.T) {
	q := queue.NewInMemoryQueue()
	q.Backoff = time.Millisecond

	var mu sync.Mutex
	attempts := 0
	var got map[string]string

	_ = q.Subscribe("topic", func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return json.Unmarshal(body, &got)
	})

	if err := q.Publish("topic", map[string]string{"template_name": "diwali_offer"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.Wait()

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if got["template_name"] != "diwali_offer" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestInMemoryQueue_GivesUpAfterMaxRetries(t *testing.T) {
	q := queue.NewInMemoryQueue()
	q.Backoff = time.Millisecond
	q.MaxRetries = 2

	var mu sync.Mutex
	attempts := 0
	_ = q.Subscribe("topic", func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("always fails")
	})

	_ = q.Publish("topic", 1)
	q.Wait()

	if attempts != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d", attempts)
	}
}

func TestInMemoryQueue_PublishWithoutSubscribers(t *testing.T) {
	q := queue.NewInMemoryQueue()
	if err := q.Publish("nobody", 1); err == nil {
		t.Error("expected error when publishing to a topic without subscribers")
	}
}

// fakeAck records what the consumer decided for a delivery.
type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	ok := func([]byte) error { return nil }
	fail := func([]byte) error { return errors.New("archive down") }

	cases := []struct {
		name        string
		body        string
		redelivered bool
		handler     queue.Handler
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", `{"id":"1"}`, false, ok, true, false},
		{"first failure requeues", `{"id":"1"}`, false, fail, false, true},
		{"second failure drops", `{"id":"1"}`, true, fail, false, false},
		{"invalid body is acked", `not json`, false, fail, true, false},
	}

	for _, tc := range cases {
		ack := &fakeAck{}
		d := amqp.Delivery{Acknowledger: ack, Body: []byte(tc.body), Redelivered: tc.redelivered}

		queue.HandleDelivery(d, tc.handler)

		if ack.acked != tc.wantAck {
			t.Errorf("%s: expected acked=%v, got %v", tc.name, tc.wantAck, ack.acked)
		}
		if ack.requeued != tc.wantRequeue {
			t.Errorf("%s: expected requeue=%v, got %v", tc.name, tc.wantRequeue, ack.requeued)
		}
	}
}
