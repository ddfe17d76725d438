package vbox

import (
	"context"
	"sync"
	"testing"
)

// newTestController apunta el binario a `true` para ejercer el flujo real de
// comandos sin VirtualBox instalado.
func newTestController(t *testing.T) *Controller {
	t.Helper()
	c, err := NewController("testvm", "true", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMouseSetClampsToPointerRange(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	if err := c.MouseSet(ctx, -50, 99999); err != nil {
		t.Fatal(err)
	}
	if c.mouseX != 0 || c.mouseY != pointerMax {
		t.Errorf("posición = (%d,%d), quería (0,%d)", c.mouseX, c.mouseY, pointerMax)
	}
}

func TestMouseMoveAccumulates(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.MouseSet(ctx, 100, 100)
	c.MouseMove(ctx, -30, 50)
	if c.mouseX != 70 || c.mouseY != 150 {
		t.Errorf("posición = (%d,%d), quería (70,150)", c.mouseX, c.mouseY)
	}

	// Nunca por debajo de cero.
	c.MouseMove(ctx, -1000, -1000)
	if c.mouseX != 0 || c.mouseY != 0 {
		t.Errorf("posición = (%d,%d), quería (0,0)", c.mouseX, c.mouseY)
	}
}

func TestConcurrentMouseMovesKeepPositionConsistent(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	const movers = 8
	const steps = 25

	var wg sync.WaitGroup
	wg.Add(movers)
	for i := 0; i < movers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < steps; j++ {
				c.MouseMove(ctx, 1, 2)
			}
		}()
	}
	wg.Wait()

	// Con el lock cubriendo calcular-y-emitir no se pierde ningún delta.
	if want := movers * steps; c.mouseX != want || c.mouseY != 2*want {
		t.Errorf("posición = (%d,%d), quería (%d,%d)", c.mouseX, c.mouseY, want, 2*want)
	}
}

func TestUnknownKeyIsRejected(t *testing.T) {
	c := newTestController(t)
	if err := c.KeyPress(context.Background(), "hyper", 0); err == nil {
		t.Fatal("tecla inexistente no devolvió error")
	}
}
