package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/evanblokender/Youtube-vm/internal/usecase/commands"
)

// Item es una unidad de trabajo: se crea al encolar, se destruye al sacarla,
// nunca se muta.
type Item struct {
	Command     *commands.Parsed
	UserDisplay string
	UserID      string
}

// Queue es la cola FIFO acotada de ejecución. Un único consumidor la drena en
// serie: eso es lo que garantiza a lo sumo una acción en vuelo contra el
// actuador. Encolar nunca bloquea al productor.
type Queue struct {
	items   chan Item
	dropped atomic.Uint64
}

func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{items: make(chan Item, capacity)}
}

// Enqueue intenta encolar sin bloquear. Con la cola llena falla al instante,
// cuenta el descarte y devuelve false.
func (q *Queue) Enqueue(item Item) bool {
	select {
	case q.items <- item:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dequeue espera el siguiente item con un tope acotado, para poder observar
// el shutdown en vez de quedarse colgado en una cola vacía.
func (q *Queue) Dequeue(ctx context.Context, maxWait time.Duration) (Item, bool) {
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case item := <-q.items:
		return item, true
	case <-ctx.Done():
		return Item{}, false
	case <-timer.C:
		return Item{}, false
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Dropped es el total de items descartados por cola llena.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
