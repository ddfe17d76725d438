package admission

import (
	"fmt"
	"sync"
	"time"
)

// Limiter decide si un comando ya permitido puede correr ahora. Tres ámbitos
// independientes y todos deben pasar: global, por usuario y por comando.
//
// Check es una lectura pura; Record muta los tres timestamps y solo se llama
// cuando el resto de puertas (permiso, routing de tier) ya pasó, así un
// intento rechazado nunca consume cooldown.
type Limiter struct {
	mu sync.Mutex

	globalCooldown time.Duration
	userCooldown   time.Duration

	lastGlobal time.Time
	lastUser   map[string]time.Time

	// Solo los comandos con intervalo configurado entran en el tercer ámbito.
	commandIntervals map[string]time.Duration
	lastCommand      map[string]time.Time

	now func() time.Time
}

func New(globalCooldown, userCooldown time.Duration) *Limiter {
	return &Limiter{
		globalCooldown:   globalCooldown,
		userCooldown:     userCooldown,
		lastUser:         make(map[string]time.Time),
		commandIntervals: make(map[string]time.Duration),
		lastCommand:      make(map[string]time.Time),
		now:              time.Now,
	}
}

// SetCommandCooldown registra un intervalo mínimo para un comando concreto.
func (l *Limiter) SetCommandCooldown(command string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commandIntervals[command] = interval
}

// SetClock inyecta un reloj; lo usan los tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Check reporta si el comando pasa los tres ámbitos. No muta nada.
// Si deniega, el segundo valor explica cuánto falta.
func (l *Limiter) Check(userID, command string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	if elapsed := now.Sub(l.lastGlobal); elapsed < l.globalCooldown {
		wait := l.globalCooldown - elapsed
		return false, fmt.Sprintf("Server busy, wait %.1fs", wait.Seconds())
	}

	if last, ok := l.lastUser[userID]; ok {
		if elapsed := now.Sub(last); elapsed < l.userCooldown {
			wait := l.userCooldown - elapsed
			return false, fmt.Sprintf("Cooldown: %.1fs remaining", wait.Seconds())
		}
	}

	if interval, ok := l.commandIntervals[command]; ok {
		if elapsed := now.Sub(l.lastCommand[command]); elapsed < interval {
			wait := interval - elapsed
			return false, fmt.Sprintf("!%s on cooldown: %.0fs", command, wait.Seconds())
		}
	}

	return true, ""
}

// Record marca la admisión en los tres ámbitos.
func (l *Limiter) Record(userID, command string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.lastGlobal = now
	l.lastUser[userID] = now
	if command != "" {
		l.lastCommand[command] = now
	}
}
