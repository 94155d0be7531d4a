package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher desacopla al caller del Sink con un buffer y un worker.
// Con el buffer lleno el evento se descarta y se cuenta.
type Dispatcher struct {
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
	onDrop    func()
}

// NewDispatcher arranca el worker. buffer <= 0 usa 1.
func NewDispatcher(sink Sink, buffer int, onDrop func()) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NopSink{}
	}
	d := &Dispatcher{
		sink:   sink,
		ch:     make(chan Event, buffer),
		done:   make(chan struct{}),
		onDrop: onDrop,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.ch:
			d.sink.Log(context.Background(), ev)
		case <-d.done:
			// drenar lo pendiente antes de salir
			for {
				select {
				case ev := <-d.ch:
					d.sink.Log(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

// Log encola el evento sin bloquear. Implementa Sink.
func (d *Dispatcher) Log(_ context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case d.ch <- ev:
	default:
		d.dropped.Add(1)
		if d.onDrop != nil {
			d.onDrop()
		}
	}
}

// Close deja de aceptar eventos y espera a que se drene el buffer.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped cuenta los eventos descartados por buffer lleno.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
