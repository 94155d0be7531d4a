package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
}

func (r *recordingSink) Log(_ context.Context, ev Event) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 16, nil)

	for i := 0; i < 10; i++ {
		d.Log(context.Background(), Event{Action: ActionLogin, UserID: int64(i + 1)})
	}
	d.Close()

	require.Equal(t, 10, sink.len())
	assert.False(t, sink.events[0].At.IsZero())

	// después de Close se ignora
	d.Log(context.Background(), Event{Action: ActionLogin})
	assert.Equal(t, 10, sink.len())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	drops := 0
	var mu sync.Mutex
	d := NewDispatcher(sink, 1, func() { mu.Lock(); drops++; mu.Unlock() })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Log(context.Background(), Event{Action: ActionRefresh})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Log blocked with a stuck sink")
	}

	close(sink.block)
	d.Close()

	assert.Greater(t, d.Dropped(), uint64(0))
	mu.Lock()
	assert.Equal(t, int(d.Dropped()), drops)
	mu.Unlock()
	assert.Equal(t, uint64(50), d.Dropped()+uint64(sink.len()))
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Log(context.Background(), Event{})
	d.Close()
	assert.Equal(t, uint64(0), d.Dropped())
}
