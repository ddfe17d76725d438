package outs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/evanblokender/Youtube-vm/internal/app/events"
	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// Sink es la interfaz que deben implementar las salidas de anuncios
// (chat de YouTube, overlay, log, ...).
type Sink interface {
	Send(ctx context.Context, text string) error
}

// SinkFunc adapta una función suelta a Sink.
type SinkFunc func(ctx context.Context, text string) error

func (f SinkFunc) Send(ctx context.Context, text string) error { return f(ctx, text) }

// Multi reparte cada anuncio a todas las salidas registradas. Un sink que
// falla solo se loguea: el resto sigue recibiendo.
type Multi struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

func NewMulti() *Multi {
	return &Multi{
		sinks: make(map[string]Sink),
	}
}

// Register asocia un nombre con una salida concreta.
func (m *Multi) Register(name string, sink Sink) {
	if m == nil || sink == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks[name] = sink
}

// Unregister elimina la salida con ese nombre.
func (m *Multi) Unregister(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, name)
}

func (m *Multi) Announce(ctx context.Context, text string) error {
	if m == nil {
		return fmt.Errorf("no hay multi sink configurado")
	}
	m.mu.RLock()
	sinks := make(map[string]Sink, len(m.sinks))
	for name, sink := range m.sinks {
		sinks[name] = sink
	}
	m.mu.RUnlock()

	for name, sink := range sinks {
		if err := sink.Send(ctx, text); err != nil {
			log.Printf("outs: sink %s: %v", name, err)
		}
	}
	return nil
}

func (m *Multi) AnnounceTo(ctx context.Context, user, text string) error {
	return m.Announce(ctx, fmt.Sprintf("@%s %s", user, text))
}

// BusSink publica cada anuncio en el bus de eventos para que el overlay
// lo pinte.
func BusSink(bus *events.Bus) Sink {
	return SinkFunc(func(_ context.Context, text string) error {
		bus.Publish(events.TopicAnnouncement, events.NewAnnouncementDTO(text))
		return nil
	})
}

// LogSink deja cada anuncio en el log del proceso.
func LogSink() Sink {
	return SinkFunc(func(_ context.Context, text string) error {
		log.Printf("announce: %s", text)
		return nil
	})
}

var _ domain.Announcer = (*Multi)(nil)
