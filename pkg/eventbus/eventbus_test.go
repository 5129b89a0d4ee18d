package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New(logging.NewNoopLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	received := 0

	handler := func(e events.Event) {
		mu.Lock()
		received++
		mu.Unlock()
		wg.Done()
	}
	bus.Subscribe(events.WorkApproved, handler)
	bus.Subscribe(events.WorkApproved, handler)

	bus.Publish(events.Event{Type: events.WorkApproved, Payload: events.WorkApprovedEvent{JobID: 1}})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers were not invoked")
	}
	assert.Equal(t, 2, received)
}

func TestPublishIgnoresUnsubscribedType(t *testing.T) {
	bus := New(logging.NewNoopLogger())
	bus.Subscribe(events.JobCreated, func(e events.Event) {
		t.Error("handler for different type must not fire")
	})
	bus.Publish(events.Event{Type: events.PaymentReleased})
	time.Sleep(10 * time.Millisecond)
}

func TestPublishSyncOrdered(t *testing.T) {
	bus := New(logging.NewNoopLogger())
	var order []int
	bus.Subscribe(events.JobTaken, func(e events.Event) { order = append(order, 1) })
	bus.Subscribe(events.JobTaken, func(e events.Event) { order = append(order, 2) })

	bus.PublishSync(events.Event{Type: events.JobTaken})
	assert.Equal(t, []int{1, 2}, order)
}

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := New(logging.NewNoopLogger())
	done := make(chan struct{})
	bus.Subscribe(events.JobCreated, func(e events.Event) { panic("boom") })
	bus.Subscribe(events.JobCreated, func(e events.Event) { close(done) })

	bus.Publish(events.Event{Type: events.JobCreated})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("surviving handler was not invoked")
	}
}
