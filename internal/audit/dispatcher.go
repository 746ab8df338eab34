package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/logger"
)

type Event struct {
	OrganizationID uint
	ClientID       *uint
	Action         string
	Entity         string
	EntityID       *uint
	Metadata       any
}

// Sink persiste um evento de auditoria.
type Sink interface {
	Log(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	sink  Sink
	log   *zap.Logger
	queue chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(sink Sink, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sink:  sink,
		log:   logger.OrNop(log),
		queue: make(chan Event, 100), // buffer seguro
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.sink.Log(context.Background(), ev); err != nil {
			d.log.Warn("audit error", zap.String("action", ev.Action), zap.Error(err))
		}
	}
}

// Dispatch nunca bloqueia: fila cheia descarta o evento.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
		// enviado
	default:
		// fila cheia → descartamos audit (nunca quebrar a sync)
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close drena a fila; chamar apenas no shutdown.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() { close(d.queue) })
	<-d.done
}
