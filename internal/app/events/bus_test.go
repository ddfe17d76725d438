package events

import "testing"

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus()

	ch1, unsub1 := b.Subscribe(TopicChatMessage)
	ch2, unsub2 := b.Subscribe(TopicChatMessage)
	defer unsub1()
	defer unsub2()

	b.Publish(TopicChatMessage, "hola")

	for i, ch := range []<-chan any{ch1, ch2} {
		select {
		case got := <-ch:
			if got != "hola" {
				t.Errorf("sub %d recibió %v", i, got)
			}
		default:
			t.Errorf("sub %d no recibió nada", i)
		}
	}
}

func TestPublishIsTopicScoped(t *testing.T) {
	b := NewBus()

	ch, unsub := b.Subscribe(TopicVoteStatus)
	defer unsub()

	b.Publish(TopicChatMessage, "x")

	select {
	case got := <-ch:
		t.Errorf("llegó un evento de otro topic: %v", got)
	default:
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := NewBus()

	_, unsub := b.Subscribe(TopicChatMessage)
	defer unsub()

	// Nadie consume: el buffer se llena y el resto se descarta sin bloquear.
	for i := 0; i < defaultBufferSize*2; i++ {
		b.Publish(TopicChatMessage, i)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()

	ch, unsub := b.Subscribe(TopicChatMessage)
	unsub()

	b.Publish(TopicChatMessage, "x")

	// El canal quedó cerrado al desuscribir.
	if got, ok := <-ch; ok {
		t.Errorf("llegó %v después de desuscribir", got)
	}
}
