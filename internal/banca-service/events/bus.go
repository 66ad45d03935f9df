package events

import (
	"context"
	"errors"
	"sync"

	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

var ErrBusClosed = errors.New("event bus closed")

// Listener recebe eventos de aposta; o erro volta para quem publicou.
type Listener func(ctx context.Context, e cevents.BetEvent) error

// Bus é o canal de notificação de eventos de aposta dentro do processo
type Bus interface {
	Subscribe(l Listener) (unsubscribe func())
	Publish(ctx context.Context, e cevents.BetEvent) error
	Close()
}

type entry struct {
	id int
	fn Listener
}

// LocalBus entrega de forma síncrona, na goroutine de quem publica,
// na ordem de inscrição. Sem limite de listeners.
type LocalBus struct {
	mu        sync.RWMutex
	nextID    int
	listeners []entry
	closed    bool
}

func NewLocalBus() *LocalBus { return &LocalBus{} }

func (b *LocalBus) Subscribe(l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, entry{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *LocalBus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.listeners {
		if e.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish entrega para quem está inscrito agora. O primeiro erro interrompe
// a entrega e é devolvido; não há retry nem buffer.
func (b *LocalBus) Publish(ctx context.Context, e cevents.BetEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	snapshot := b.listeners
	b.mu.RUnlock()

	for _, l := range snapshot {
		if err := l.fn(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Close descarta os listeners; publicações seguintes falham com ErrBusClosed
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.listeners = nil
}
