package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestQueueEnqueueWithoutBrokerIsBestEffort(t *testing.T) {
	q := NewQueue(nil, zerolog.Nop())

	if q.Enqueue(context.Background(), "sku-1") {
		t.Fatal("enqueue without a broker must report false, not panic or error")
	}
	if q.Requeue(context.Background(), Job{ID: "j1", SKU: "sku-1"}) {
		t.Fatal("requeue without a broker must report false")
	}
}

func TestQueueEnqueueUnreachableBrokerIsBestEffort(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	q := NewQueue(rdb, zerolog.Nop())
	if q.Enqueue(context.Background(), "sku-1") {
		t.Fatal("enqueue against an unreachable broker must report false")
	}
}

func TestQueueDequeueWithoutBrokerErrors(t *testing.T) {
	q := NewQueue(nil, zerolog.Nop())

	if _, err := q.Dequeue(context.Background(), time.Millisecond); err == nil {
		t.Fatal("dequeue without a broker should error so the worker can back off")
	}
}
