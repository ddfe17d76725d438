package vote

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status es la foto pública de la sesión activa.
type Status struct {
	Counts     map[string]int
	Remaining  time.Duration
	TotalVotes int
}

// Result es el desenlace de una sesión cerrada.
type Result struct {
	SessionID string
	Winner    string
	Counts    map[string]int
	// Voters: ids de quienes eligieron al ganador.
	Voters []string
}

// Arbiter arbitra los comandos de riesgo alto con una votación con límite de
// tiempo. Hay a lo sumo una sesión abierta; el slot se protege con un lock
// que se suelta antes de despachar resultados.
type Arbiter struct {
	mu        sync.Mutex
	duration  time.Duration
	current   *session
	callbacks []func(Result)

	results chan Result

	now      func() time.Time
	schedule func(d time.Duration, f func())
}

func New(duration time.Duration) *Arbiter {
	return &Arbiter{
		duration: duration,
		results:  make(chan Result, 4),
		now:      time.Now,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// OnResult registra un callback de resultado. Se invocan fuera del lock del
// slot y cada uno va aislado: que uno falle no bloquea a los demás.
func (a *Arbiter) OnResult(cb func(Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, cb)
}

// Results entrega cada resultado por canal; el ejecutor de acciones consume
// de aquí, siempre después del despacho de callbacks.
func (a *Arbiter) Results() <-chan Result {
	return a.results
}

// Submit pliega una presentación Major: si el slot está libre abre sesión
// sembrada con un voto del iniciador y arranca el timer; si ya hay sesión,
// el voto se suma a la existente. Devuelve true si abrió sesión nueva.
func (a *Arbiter) Submit(voterID, choice string) bool {
	a.mu.Lock()
	if a.current != nil && a.current.active {
		a.current.cast(voterID, choice)
		a.mu.Unlock()
		return false
	}

	s := newSession(uuid.NewString(), a.duration, a.now())
	s.cast(voterID, choice)
	a.current = s
	a.mu.Unlock()

	// Timer independiente de reloj de pared: no se cancela nunca, ni aunque
	// los votos decaigan a cero.
	a.schedule(a.duration, func() { a.close(s) })
	return true
}

// Cast vota en la sesión activa. Devuelve false si no hay ninguna.
func (a *Arbiter) Cast(voterID, choice string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || !a.current.active {
		return false
	}
	a.current.cast(voterID, choice)
	return true
}

// Status devuelve la foto de la sesión activa, o false si no hay.
func (a *Arbiter) Status() (Status, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || !a.current.active {
		return Status{}, false
	}
	return Status{
		Counts:     a.current.snapshotCounts(),
		Remaining:  a.current.remaining(a.now()),
		TotalVotes: a.current.totalVotes(),
	}, true
}

func (a *Arbiter) close(s *session) {
	a.mu.Lock()
	s.active = false
	winner, ok := s.winner()
	res := Result{
		SessionID: s.id,
		Winner:    winner,
		Counts:    s.snapshotCounts(),
	}
	if ok {
		res.Voters = s.votersFor(winner)
	}
	callbacks := make([]func(Result), len(a.callbacks))
	copy(callbacks, a.callbacks)
	a.mu.Unlock()

	log.Printf("vote: session %s closed, winner=%q counts=%v", s.id, winner, res.Counts)

	for _, cb := range callbacks {
		a.invoke(cb, res)
	}

	select {
	case a.results <- res:
	default:
		log.Printf("vote: results channel full, dropping result for session %s", s.id)
	}

	// El slot queda libre recién después del despacho.
	a.mu.Lock()
	if a.current == s {
		a.current = nil
	}
	a.mu.Unlock()
}

func (a *Arbiter) invoke(cb func(Result), res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("vote: result callback panic: %v", r)
		}
	}()
	cb(res)
}
