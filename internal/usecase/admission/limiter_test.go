package admission

import (
	"strings"
	"testing"
	"time"
)

// fakeClock avanza a mano.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCheckAllowsFreshLimiter(t *testing.T) {
	l := New(2*time.Second, 5*time.Second)
	l.SetClock(newFakeClock().now)

	ok, reason := l.Check("user-1", "click")
	if !ok {
		t.Fatalf("Check en limiter nuevo = false (%s)", reason)
	}
}

func TestGlobalCooldownBlocksEveryone(t *testing.T) {
	clock := newFakeClock()
	l := New(2*time.Second, 5*time.Second)
	l.SetClock(clock.now)

	l.Record("user-1", "click")

	// Otro usuario, dentro de la ventana global.
	clock.advance(time.Second)
	ok, reason := l.Check("user-2", "move")
	if ok {
		t.Fatal("Check pasó dentro del cooldown global")
	}
	if reason != "Server busy, wait 1.0s" {
		t.Errorf("reason = %q, quería la espera restante G-Δ", reason)
	}

	clock.advance(1500 * time.Millisecond)
	if ok, reason := l.Check("user-2", "move"); !ok {
		t.Errorf("Check después del cooldown global = false (%s)", reason)
	}
}

func TestUserCooldownIsPerUser(t *testing.T) {
	clock := newFakeClock()
	l := New(time.Second, 5*time.Second)
	l.SetClock(clock.now)

	l.Record("user-1", "click")
	clock.advance(2 * time.Second) // la global ya venció

	if ok, reason := l.Check("user-1", "click"); ok {
		t.Error("el mismo usuario pasó dentro de su cooldown")
	} else if !strings.Contains(reason, "Cooldown") {
		t.Errorf("reason = %q", reason)
	}

	if ok, reason := l.Check("user-2", "click"); !ok {
		t.Errorf("otro usuario quedó bloqueado por el cooldown ajeno (%s)", reason)
	}

	clock.advance(3 * time.Second) // 5s desde el Record
	if ok, reason := l.Check("user-1", "click"); !ok {
		t.Errorf("Check tras vencer el cooldown de usuario = false (%s)", reason)
	}
}

func TestCommandCooldownOnlyAppliesToConfigured(t *testing.T) {
	clock := newFakeClock()
	l := New(0, 0)
	l.SetClock(clock.now)
	l.SetCommandCooldown("leaderboard", 15*time.Second)

	l.Record("user-1", "leaderboard")
	clock.advance(5 * time.Second)

	if ok, reason := l.Check("user-2", "leaderboard"); ok {
		t.Error("leaderboard pasó dentro de su intervalo")
	} else if !strings.Contains(reason, "!leaderboard") {
		t.Errorf("reason = %q", reason)
	}

	// Un comando sin intervalo configurado no entra en el tercer ámbito.
	if ok, reason := l.Check("user-2", "click"); !ok {
		t.Errorf("click quedó bloqueado sin tener intervalo (%s)", reason)
	}

	clock.advance(10 * time.Second)
	if ok, reason := l.Check("user-2", "leaderboard"); !ok {
		t.Errorf("leaderboard tras vencer el intervalo = false (%s)", reason)
	}
}

func TestCheckDoesNotMutate(t *testing.T) {
	clock := newFakeClock()
	l := New(2*time.Second, 5*time.Second)
	l.SetClock(clock.now)

	// Muchos Check seguidos no deben consumir presupuesto.
	for i := 0; i < 10; i++ {
		if ok, reason := l.Check("user-1", "click"); !ok {
			t.Fatalf("Check #%d = false (%s)", i, reason)
		}
	}

	l.Record("user-1", "click")
	clock.advance(time.Second)

	// Un Check denegado tampoco: al vencer el plazo original, pasa.
	l.Check("user-2", "move")
	clock.advance(time.Second)
	if ok, reason := l.Check("user-2", "move"); !ok {
		t.Errorf("la denegación consumió cooldown (%s)", reason)
	}
}
