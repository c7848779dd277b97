package engine

import "context"

// EventKind distingue los mensajes publicados por un Task.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventOK       EventKind = "ok"
	EventError    EventKind = "error"
)

// Event es un mensaje de un Task. Percent solo tiene sentido en
// EventProgress, Result en EventOK y Err en EventError.
type Event struct {
	Kind    EventKind
	Percent int
	Result  *Result
	Err     error
}

const taskBuffer = 16

// Task es una ejecución de Process en segundo plano.
//
// Los eventos de progreso se descartan si nadie lee el canal y el buffer
// está lleno; el evento final (EventOK o EventError) siempre se entrega y a
// continuación el canal se cierra.
type Task struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

// Start lanza Process en una goroutine.
func Start(ctx context.Context, raw string, opts Options) *Task {
	t := &Task{
		events: make(chan Event, taskBuffer),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer close(t.events)

		res, err := Process(ctx, raw, opts, t.progress)
		t.result, t.err = res, err
		if err != nil {
			t.events <- Event{Kind: EventError, Err: err}
			return
		}
		t.events <- Event{Kind: EventOK, Result: res}
	}()

	return t
}

// progress solo envía si queda hueco para el evento final. El tracker
// serializa las llamadas, así que no hay otro emisor concurrente.
func (t *Task) progress(percent int) {
	if len(t.events) >= cap(t.events)-1 {
		return
	}
	t.events <- Event{Kind: EventProgress, Percent: percent}
}

// Events devuelve el canal de eventos. Se cierra tras el evento final.
func (t *Task) Events() <-chan Event { return t.events }

// Done se cierra cuando el Task termina.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait bloquea hasta el final y devuelve el mismo resultado que Process.
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}
