package domain

import (
	"context"
	"time"
)

// Announcer es el sink de anuncios (overlay, log, ...). Fire-and-forget:
// un fallo al anunciar nunca es fatal para el pipeline.
type Announcer interface {
	// Announce publica un mensaje visible para todos.
	Announce(ctx context.Context, text string) error
	// AnnounceTo publica un aviso dirigido a un usuario concreto.
	AnnounceTo(ctx context.Context, user, text string) error
}

// Actuator es el recurso compartido que los comandos terminan tocando.
// Acepta una acción a la vez; puede estar temporalmente no disponible.
// Los adaptadores empujan los mensajes hacia el orquestador vía SetHandler.
type Actuator interface {
	Ready(ctx context.Context) bool
	PowerOn(ctx context.Context) error
	Shutdown(ctx context.Context, force bool) error
	Reset(ctx context.Context) error
	RestoreSnapshot(ctx context.Context, name string) error
	Screenshot(ctx context.Context) (string, error)
	ToggleFullscreen(ctx context.Context) error

	MouseMove(ctx context.Context, dx, dy int) error
	MouseSet(ctx context.Context, x, y int) error
	MouseClick(ctx context.Context, button string) error
	MouseScroll(ctx context.Context, delta int) error
	MouseDrag(ctx context.Context, dx, dy int, button string) error

	KeyPress(ctx context.Context, key string, hold time.Duration) error
	KeyDown(ctx context.Context, key string) error
	KeyUp(ctx context.Context, key string) error
	KeyCombo(ctx context.Context, combo string) error
	TypeText(ctx context.Context, text string) error
	SendText(ctx context.Context, text string) error
}

// UserRepository persiste los registros de participantes (puntos, rachas).
// La durabilidad es best-effort: perder datos en un crash es aceptable.
type UserRepository interface {
	GetOrCreate(ctx context.Context, userID, displayName string) (*UserRecord, error)
	AddPoints(ctx context.Context, userID string, points int) error
	IncrementCommands(ctx context.Context, userID string) error
	IncrementVotesCast(ctx context.Context, userID string) error
	IncrementVotesWon(ctx context.Context, userID string) error
	Stats(ctx context.Context, userID string) (*UserRecord, error)
	Leaderboard(ctx context.Context, n int) ([]*UserRecord, error)
}
