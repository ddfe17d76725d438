package vote

import (
	"strings"
	"time"
)

// session es una ronda de votación. Cada votante tiene exactamente una
// elección activa; cambiarla mueve un solo voto. El arbiter la protege con
// su lock, aquí no hay sincronización propia.
type session struct {
	id        string
	counts    map[string]int
	choices   map[string]string // voterID -> elección actual
	reachedAt map[string]int64  // elección -> seq en que su conteo tomó el valor actual
	seq       int64
	startedAt time.Time
	duration  time.Duration
	active    bool
}

func newSession(id string, duration time.Duration, startedAt time.Time) *session {
	return &session{
		id:        id,
		counts:    make(map[string]int),
		choices:   make(map[string]string),
		reachedAt: make(map[string]int64),
		startedAt: startedAt,
		duration:  duration,
		active:    true,
	}
}

// cast registra o cambia el voto. Repetir la misma elección es un no-op.
func (s *session) cast(voterID, choice string) bool {
	if !s.active {
		return false
	}
	choice = strings.ToLower(choice)

	prev, voted := s.choices[voterID]
	if voted && prev == choice {
		return false
	}
	if voted {
		s.seq++
		if s.counts[prev] > 0 {
			s.counts[prev]--
		}
		s.reachedAt[prev] = s.seq
	}

	s.seq++
	s.counts[choice]++
	s.reachedAt[choice] = s.seq
	s.choices[voterID] = choice
	return true
}

// winner devuelve la elección con más votos. Empates: gana la que alcanzó
// primero su conteo final (menor seq), determinista para el mismo orden de
// votos.
func (s *session) winner() (string, bool) {
	if len(s.counts) == 0 {
		return "", false
	}
	var best string
	bestCount := -1
	var bestSeq int64
	for choice, count := range s.counts {
		seq := s.reachedAt[choice]
		if count > bestCount || (count == bestCount && seq < bestSeq) {
			best = choice
			bestCount = count
			bestSeq = seq
		}
	}
	if bestCount <= 0 {
		return "", false
	}
	return best, true
}

func (s *session) snapshotCounts() map[string]int {
	counts := make(map[string]int, len(s.counts))
	for choice, count := range s.counts {
		counts[choice] = count
	}
	return counts
}

func (s *session) votersFor(choice string) []string {
	var ids []string
	for voterID, c := range s.choices {
		if c == choice {
			ids = append(ids, voterID)
		}
	}
	return ids
}

func (s *session) totalVotes() int {
	total := 0
	for _, count := range s.counts {
		total += count
	}
	return total
}

func (s *session) remaining(now time.Time) time.Duration {
	left := s.duration - now.Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}
