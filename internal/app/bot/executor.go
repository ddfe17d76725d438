package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/evanblokender/Youtube-vm/internal/domain"
	"github.com/evanblokender/Youtube-vm/internal/usecase/commands"
)

// Limits son los topes de seguridad para las acciones del actuador.
type Limits struct {
	MouseMaxDelta  int
	MouseAbsXMax   int
	MouseAbsYMax   int
	TypeMaxLength  int
	MaxWaitSeconds int
	SnapshotName   string
}

// Result es el desenlace de una acción. Public controla si el mensaje se
// anuncia aunque haya salido bien.
type Result struct {
	OK      bool
	Message string
	Public  bool
}

func resultOK(msg string, public bool) Result {
	return Result{OK: true, Message: msg, Public: public}
}

func resultFail(msg string) Result {
	return Result{OK: false, Message: msg, Public: true}
}

var moveDirections = map[string][2]int{
	"left":  {-100, 0},
	"right": {100, 0},
	"up":    {0, -100},
	"down":  {0, 100},
}

// Executor despacha un comando ya parseado contra el actuador, con los
// argumentos ya acotados. Solo el consumidor de la cola (y el camino
// inmediato de admin) llega hasta aquí.
type Executor struct {
	act    domain.Actuator
	limits Limits
}

func NewExecutor(act domain.Actuator, limits Limits) *Executor {
	return &Executor{act: act, limits: limits}
}

func (e *Executor) Execute(ctx context.Context, cmd *commands.Parsed) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("executor: panic en !%s: %v", cmd.Name, r)
			res = resultFail(fmt.Sprintf("Error executing !%s", cmd.Name))
		}
	}()

	switch cmd.Action {
	case commands.ActionPowerOn:
		return e.powerOn(ctx)
	case commands.ActionFullscreen:
		return e.fullscreen(ctx)
	case commands.ActionMove:
		return e.move(ctx, cmd.Args)
	case commands.ActionMouseAbs:
		return e.mouseAbs(ctx, cmd.Args)
	case commands.ActionDrag:
		return e.drag(ctx, cmd.Args)
	case commands.ActionClick:
		return e.click(ctx, cmd.Args)
	case commands.ActionRightClick:
		return e.clickButton(ctx, "right")
	case commands.ActionScroll:
		return e.scroll(ctx, cmd.Args)
	case commands.ActionType:
		return e.typeText(ctx, cmd.Args, false)
	case commands.ActionSend:
		return e.typeText(ctx, cmd.Args, true)
	case commands.ActionKey:
		return e.key(ctx, cmd.Args)
	case commands.ActionCombo:
		return e.combo(ctx, cmd.Args)
	case commands.ActionKeyDown:
		return e.keyEdge(ctx, cmd.Args, e.act.KeyDown, "KeyDown")
	case commands.ActionKeyUp:
		return e.keyEdge(ctx, cmd.Args, e.act.KeyUp, "KeyUp")
	case commands.ActionEnter:
		if err := e.act.KeyPress(ctx, "enter", 100*time.Millisecond); err != nil {
			return resultFail("⌨️ Enter failed")
		}
		return resultOK("⌨️ Enter", false)
	case commands.ActionWait:
		return e.wait(ctx, cmd.Args)
	case commands.ActionReset:
		if err := e.act.Reset(ctx); err != nil {
			return resultFail("❌ Reset failed")
		}
		return resultOK("🔄 VM reset!", true)
	case commands.ActionRevert:
		return e.revert(ctx)
	case commands.ActionScreenshot:
		path, err := e.act.Screenshot(ctx)
		if err != nil {
			return resultFail("Screenshot failed")
		}
		return resultOK(fmt.Sprintf("📸 Screenshot saved: %s", path), true)
	case commands.ActionShutdown, commands.ActionForceShutdown:
		// Nunca llegan por la cola: se arbitran por votación.
		return resultFail(fmt.Sprintf("!%s requires a vote", cmd.Name))
	default:
		return resultFail(fmt.Sprintf("Unknown command: %s", cmd.Name))
	}
}

// ExecuteShutdown corre el desenlace de la votación: apagar y levantar.
func (e *Executor) ExecuteShutdown(ctx context.Context, force bool) Result {
	if err := e.act.Shutdown(ctx, force); err != nil {
		return resultFail("❌ Shutdown failed")
	}
	wait := 12 * time.Second
	if force {
		wait = 2 * time.Second
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return resultFail("❌ Shutdown interrupted")
	}
	if err := e.act.PowerOn(ctx); err != nil {
		return resultFail("🔌 VM shut down, restart failed")
	}
	return resultOK("🔌 VM shut down and restarted!", true)
}

func (e *Executor) powerOn(ctx context.Context) Result {
	if err := e.act.PowerOn(ctx); err != nil {
		return resultFail("❌ VM failed to start")
	}
	return resultOK("✅ VM started!", true)
}

func (e *Executor) fullscreen(ctx context.Context) Result {
	if err := e.act.ToggleFullscreen(ctx); err != nil {
		return resultFail("Fullscreen failed")
	}
	return resultOK("🖥️ Fullscreen toggled", false)
}

func (e *Executor) move(ctx context.Context, args []string) Result {
	direction := strings.ToLower(args[0])
	var dx, dy int
	if delta, ok := moveDirections[direction]; ok {
		steps := 1
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				steps = clamp(n, 1, 10)
			}
		}
		dx = delta[0] * steps
		dy = delta[1] * steps
	} else {
		if len(args) < 2 {
			return resultFail("Usage: !move dx dy")
		}
		var err1, err2 error
		dx, err1 = parseInt(args[0])
		dy, err2 = parseInt(args[1])
		if err1 != nil || err2 != nil {
			return resultFail("Invalid coordinates")
		}
	}

	maxD := e.limits.MouseMaxDelta
	dx = clamp(dx, -maxD, maxD)
	dy = clamp(dy, -maxD, maxD)

	if err := e.act.MouseMove(ctx, dx, dy); err != nil {
		return resultFail("🖱️ Move failed")
	}
	return resultOK(fmt.Sprintf("🖱️ Moved (%d,%d)", dx, dy), false)
}

func (e *Executor) mouseAbs(ctx context.Context, args []string) Result {
	x, err1 := parseInt(args[0])
	y, err2 := parseInt(args[1])
	if err1 != nil || err2 != nil {
		return resultFail("Usage: !abs x y")
	}
	x = clamp(x, 0, e.limits.MouseAbsXMax)
	y = clamp(y, 0, e.limits.MouseAbsYMax)
	if err := e.act.MouseSet(ctx, x, y); err != nil {
		return resultFail("🖱️ Move failed")
	}
	return resultOK(fmt.Sprintf("🖱️ Moved to (%d,%d)", x, y), false)
}

func (e *Executor) drag(ctx context.Context, args []string) Result {
	dx, err1 := parseInt(args[0])
	dy, err2 := parseInt(args[1])
	if err1 != nil || err2 != nil {
		return resultFail("Usage: !drag dx dy [button]")
	}
	button := "left"
	if len(args) > 2 {
		button = normalizeButton(args[2])
	}
	maxD := e.limits.MouseMaxDelta
	dx = clamp(dx, -maxD, maxD)
	dy = clamp(dy, -maxD, maxD)
	if err := e.act.MouseDrag(ctx, dx, dy, button); err != nil {
		return resultFail("🖱️ Drag failed")
	}
	return resultOK(fmt.Sprintf("🖱️ Dragged (%d,%d)", dx, dy), false)
}

func (e *Executor) click(ctx context.Context, args []string) Result {
	button := "left"
	if len(args) > 0 {
		button = normalizeButton(args[0])
	}
	return e.clickButton(ctx, button)
}

func (e *Executor) clickButton(ctx context.Context, button string) Result {
	if err := e.act.MouseClick(ctx, button); err != nil {
		return resultFail("🖱️ Click failed")
	}
	return resultOK(fmt.Sprintf("🖱️ %s click", capitalize(button)), false)
}

func (e *Executor) scroll(ctx context.Context, args []string) Result {
	delta, err := parseInt(args[0])
	if err != nil {
		return resultFail("Usage: !scroll delta")
	}
	delta = clamp(delta, -10, 10)
	if err := e.act.MouseScroll(ctx, delta); err != nil {
		return resultFail("🖱️ Scroll failed")
	}
	return resultOK(fmt.Sprintf("🖱️ Scrolled %d", delta), false)
}

func (e *Executor) typeText(ctx context.Context, args []string, withEnter bool) Result {
	// Corta por runas, no por bytes: un corte a mitad de un carácter
	// multibyte manda basura al teclado de la VM.
	text := truncateRunes(args[0], e.limits.TypeMaxLength)
	var err error
	verb := "Typed"
	if withEnter {
		err = e.act.SendText(ctx, text)
		verb = "Sent"
	} else {
		err = e.act.TypeText(ctx, text)
	}
	if err != nil {
		return resultFail("⌨️ Typing failed")
	}
	preview := text
	if truncated := truncateRunes(text, 30); truncated != text {
		preview = truncated + "..."
	}
	return resultOK(fmt.Sprintf("⌨️ %s: %s", verb, preview), true)
}

func (e *Executor) key(ctx context.Context, args []string) Result {
	key := strings.ToLower(args[0])
	hold := 100 * time.Millisecond
	if len(args) > 1 {
		if secs, err := strconv.ParseFloat(args[1], 64); err == nil {
			if secs < 0.05 {
				secs = 0.05
			}
			if secs > 2.0 {
				secs = 2.0
			}
			hold = time.Duration(secs * float64(time.Second))
		}
	}
	if err := e.act.KeyPress(ctx, key, hold); err != nil {
		return resultFail(fmt.Sprintf("Unknown key: %s", key))
	}
	return resultOK(fmt.Sprintf("⌨️ Key: %s", key), false)
}

func (e *Executor) combo(ctx context.Context, args []string) Result {
	combo := strings.ToLower(args[0])
	if strings.Count(combo, "+") > 3 {
		return resultFail("Too many keys in combo")
	}
	if err := e.act.KeyCombo(ctx, combo); err != nil {
		return resultFail(fmt.Sprintf("Bad combo: %s", combo))
	}
	return resultOK(fmt.Sprintf("⌨️ Combo: %s", combo), true)
}

func (e *Executor) keyEdge(ctx context.Context, args []string, do func(context.Context, string) error, label string) Result {
	key := strings.ToLower(args[0])
	if err := do(ctx, key); err != nil {
		return resultFail(fmt.Sprintf("Unknown key: %s", key))
	}
	return resultOK(fmt.Sprintf("⌨️ %s: %s", label, key), false)
}

func (e *Executor) wait(ctx context.Context, args []string) Result {
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return resultFail("Usage: !wait seconds")
	}
	if secs < 0 {
		secs = 0
	}
	if max := float64(e.limits.MaxWaitSeconds); secs > max {
		secs = max
	}
	select {
	case <-time.After(time.Duration(secs * float64(time.Second))):
	case <-ctx.Done():
		return resultFail("⏱️ Wait interrupted")
	}
	return resultOK(fmt.Sprintf("⏱️ Waited %.0fs", secs), false)
}

func (e *Executor) revert(ctx context.Context) Result {
	if err := e.act.RestoreSnapshot(ctx, e.limits.SnapshotName); err != nil {
		return resultFail("❌ Revert failed")
	}
	select {
	case <-time.After(3 * time.Second):
	case <-ctx.Done():
	}
	if err := e.act.PowerOn(ctx); err != nil {
		return resultFail("⏮️ Snapshot restored, restart failed")
	}
	return resultOK("⏮️ Snapshot restored!", true)
}

func normalizeButton(s string) string {
	switch strings.ToLower(s) {
	case "left", "right", "middle":
		return strings.ToLower(s)
	default:
		return "left"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
