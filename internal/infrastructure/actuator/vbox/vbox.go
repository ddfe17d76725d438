// Package vbox controla la VM vía VBoxManage.
package vbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// scancodes de teclas especiales: par make/break por nombre.
var scancodes = map[string][2]string{
	"enter":       {"1c", "9c"},
	"return":      {"1c", "9c"},
	"space":       {"39", "b9"},
	"backspace":   {"0e", "8e"},
	"tab":         {"0f", "8f"},
	"escape":      {"01", "81"},
	"esc":         {"01", "81"},
	"up":          {"e0 48", "e0 c8"},
	"down":        {"e0 50", "e0 d0"},
	"left":        {"e0 4b", "e0 cb"},
	"right":       {"e0 4d", "e0 cd"},
	"ctrl":        {"1d", "9d"},
	"shift":       {"2a", "aa"},
	"alt":         {"38", "b8"},
	"delete":      {"e0 53", "e0 d3"},
	"home":        {"e0 47", "e0 c7"},
	"end":         {"e0 4f", "e0 cf"},
	"pageup":      {"e0 49", "e0 c9"},
	"pagedown":    {"e0 51", "e0 d1"},
	"f1":          {"3b", "bb"},
	"f2":          {"3c", "bc"},
	"f3":          {"3d", "bd"},
	"f4":          {"3e", "be"},
	"f5":          {"3f", "bf"},
	"f6":          {"40", "c0"},
	"f7":          {"41", "c1"},
	"f8":          {"42", "c2"},
	"f9":          {"43", "c3"},
	"f10":         {"44", "c4"},
	"f11":         {"57", "d7"},
	"f12":         {"58", "d8"},
	"insert":      {"e0 52", "e0 d2"},
	"printscreen": {"e0 37", "e0 b7"},
}

var buttonCodes = map[string]string{
	"left":   "1",
	"right":  "2",
	"middle": "4",
}

const (
	// El puntero absoluto de VirtualBox va de 0 a 0x7fff en ambos ejes.
	pointerMax = 32767

	commandTimeout = 10 * time.Second
	startTimeout   = 30 * time.Second
	restoreTimeout = 60 * time.Second
)

// Controller implementa domain.Actuator sobre el CLI de VBoxManage.
// Lleva la posición del puntero en memoria porque VBoxManage solo acepta
// coordenadas absolutas.
type Controller struct {
	vmName        string
	vboxmanage    string
	screenshotDir string

	// VBoxManage solo acepta coordenadas absolutas, así que la posición
	// vive acá. El lock cubre calcular-y-emitir completo: dos movimientos
	// intercalados no deben pisarse la posición.
	posMu          sync.Mutex
	mouseX, mouseY int
}

func NewController(vmName, vboxmanagePath, screenshotDir string) (*Controller, error) {
	if vmName == "" {
		return nil, fmt.Errorf("vbox: vm name vacío")
	}
	if vboxmanagePath == "" {
		vboxmanagePath = "VBoxManage"
	}
	if screenshotDir == "" {
		screenshotDir = "data/screenshots"
	}
	if err := os.MkdirAll(screenshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("vbox: screenshot dir: %w", err)
	}
	return &Controller{
		vmName:        vmName,
		vboxmanage:    vboxmanagePath,
		screenshotDir: screenshotDir,
	}, nil
}

func (c *Controller) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.vboxmanage, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("vbox: %s: %w: %s", args[0], err, firstLine(string(out)))
	}
	return string(out), nil
}

func (c *Controller) control(ctx context.Context, args ...string) error {
	full := append([]string{"controlvm", c.vmName}, args...)
	_, err := c.run(ctx, commandTimeout, full...)
	return err
}

// ── Estado ─────────────────────────────────────────────────────────────────

func (c *Controller) state(ctx context.Context) string {
	out, err := c.run(ctx, commandTimeout, "showvminfo", c.vmName, "--machinereadable")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "VMState="); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return "unknown"
}

func (c *Controller) Ready(ctx context.Context) bool {
	return c.state(ctx) == "running"
}

func (c *Controller) PowerOn(ctx context.Context) error {
	if c.state(ctx) == "running" {
		return nil
	}
	if _, err := c.run(ctx, startTimeout, "startvm", c.vmName, "--type", "gui"); err != nil {
		return err
	}
	log.Printf("vbox: VM '%s' arrancada", c.vmName)
	return nil
}

func (c *Controller) Shutdown(ctx context.Context, force bool) error {
	method := "acpipowerbutton"
	if force {
		method = "poweroff"
	}
	if err := c.control(ctx, method); err != nil {
		return err
	}
	log.Printf("vbox: shutdown (%s)", method)
	return nil
}

func (c *Controller) Reset(ctx context.Context) error {
	return c.control(ctx, "reset")
}

func (c *Controller) RestoreSnapshot(ctx context.Context, name string) error {
	log.Printf("vbox: restaurando snapshot '%s'", name)
	if c.state(ctx) == "running" {
		if err := c.control(ctx, "poweroff"); err != nil {
			return err
		}
		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	_, err := c.run(ctx, restoreTimeout, "snapshot", c.vmName, "restore", name)
	return err
}

func (c *Controller) Screenshot(ctx context.Context) (string, error) {
	path := filepath.Join(c.screenshotDir, fmt.Sprintf("screen_%d.png", time.Now().UnixMilli()))
	if _, err := c.run(ctx, commandTimeout, "controlvm", c.vmName, "screenshotpng", path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Controller) ToggleFullscreen(ctx context.Context) error {
	return c.control(ctx, "setvideomodehint", "1920", "1080", "32")
}

// ── Mouse ──────────────────────────────────────────────────────────────────

func (c *Controller) MouseMove(ctx context.Context, dx, dy int) error {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	c.mouseX = clamp(c.mouseX+dx, 0, pointerMax)
	c.mouseY = clamp(c.mouseY+dy, 0, pointerMax)
	return c.control(ctx, "mousemove", strconv.Itoa(c.mouseX), strconv.Itoa(c.mouseY))
}

func (c *Controller) MouseSet(ctx context.Context, x, y int) error {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	c.mouseX = clamp(x, 0, pointerMax)
	c.mouseY = clamp(y, 0, pointerMax)
	return c.control(ctx, "mousemove", strconv.Itoa(c.mouseX), strconv.Itoa(c.mouseY))
}

func (c *Controller) MouseClick(ctx context.Context, button string) error {
	code, ok := buttonCodes[button]
	if !ok {
		code = buttonCodes["left"]
	}
	if err := c.control(ctx, "putmouseevent", "0", "0", "0", "0", code); err != nil {
		return err
	}
	sleepCtx(ctx, 50*time.Millisecond)
	return c.control(ctx, "putmouseevent", "0", "0", "0", "0", "0")
}

func (c *Controller) MouseScroll(ctx context.Context, delta int) error {
	return c.control(ctx, "putmouseevent", "0", "0", strconv.Itoa(delta), "0", "0")
}

func (c *Controller) MouseDrag(ctx context.Context, dx, dy int, button string) error {
	code, ok := buttonCodes[button]
	if !ok {
		code = buttonCodes["left"]
	}
	if err := c.control(ctx, "putmouseevent", "0", "0", "0", "0", code); err != nil {
		return err
	}

	steps := max(max(abs(dx), abs(dy)), 1)
	stepX := dx / steps
	stepY := dy / steps
	for i := 0; i < steps; i++ {
		if err := c.control(ctx, "putmouseevent", strconv.Itoa(stepX), strconv.Itoa(stepY), "0", "0", code); err != nil {
			break
		}
		sleepCtx(ctx, 10*time.Millisecond)
	}

	return c.control(ctx, "putmouseevent", "0", "0", "0", "0", "0")
}

// ── Teclado ────────────────────────────────────────────────────────────────

func (c *Controller) KeyPress(ctx context.Context, key string, hold time.Duration) error {
	codes, ok := scancodes[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("vbox: tecla desconocida %q", key)
	}
	if err := c.putScancode(ctx, codes[0]); err != nil {
		return err
	}
	sleepCtx(ctx, hold)
	return c.putScancode(ctx, codes[1])
}

func (c *Controller) KeyDown(ctx context.Context, key string) error {
	codes, ok := scancodes[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("vbox: tecla desconocida %q", key)
	}
	return c.putScancode(ctx, codes[0])
}

func (c *Controller) KeyUp(ctx context.Context, key string) error {
	codes, ok := scancodes[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("vbox: tecla desconocida %q", key)
	}
	return c.putScancode(ctx, codes[1])
}

func (c *Controller) KeyCombo(ctx context.Context, combo string) error {
	keys := strings.Split(strings.ToLower(combo), "+")
	for _, k := range keys {
		if err := c.KeyDown(ctx, k); err != nil {
			return err
		}
		sleepCtx(ctx, 50*time.Millisecond)
	}
	sleepCtx(ctx, 100*time.Millisecond)
	for i := len(keys) - 1; i >= 0; i-- {
		if err := c.KeyUp(ctx, keys[i]); err != nil {
			return err
		}
		sleepCtx(ctx, 50*time.Millisecond)
	}
	return nil
}

func (c *Controller) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("vbox: texto vacío")
	}
	return c.control(ctx, "keyboardputstring", text)
}

func (c *Controller) SendText(ctx context.Context, text string) error {
	if err := c.TypeText(ctx, text); err != nil {
		return err
	}
	sleepCtx(ctx, 100*time.Millisecond)
	return c.KeyPress(ctx, "enter", 100*time.Millisecond)
}

func (c *Controller) putScancode(ctx context.Context, codes string) error {
	args := append([]string{"keyboardputscancode"}, strings.Fields(codes)...)
	return c.control(ctx, args...)
}

// ── Helpers ────────────────────────────────────────────────────────────────

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ domain.Actuator = (*Controller)(nil)
