package bot

import "sync"

// dedupWindow recuerda los últimos ids de mensaje vistos, con tope: el feed
// entrega al menos una vez y sin orden estricto, así que el primer filtro del
// intake es este. Al pasarse del tope se descartan los más viejos.
type dedupWindow struct {
	mu    sync.Mutex
	cap   int
	seen  map[string]struct{}
	order []string
	head  int
}

func newDedupWindow(capacity int) *dedupWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &dedupWindow{
		cap:   capacity,
		seen:  make(map[string]struct{}, capacity),
		order: make([]string, 0, capacity),
	}
}

// Seen registra el id y reporta si ya se había visto.
func (d *dedupWindow) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if len(d.order) < d.cap {
		d.order = append(d.order, id)
	} else {
		oldest := d.order[d.head]
		delete(d.seen, oldest)
		d.order[d.head] = id
		d.head = (d.head + 1) % d.cap
	}
	d.seen[id] = struct{}{}
	return false
}
