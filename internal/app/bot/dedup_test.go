package bot

import (
	"fmt"
	"testing"
)

func TestDedupWindowSeen(t *testing.T) {
	w := newDedupWindow(4)

	if w.Seen("a") {
		t.Fatal("primer avistaje = true")
	}
	if !w.Seen("a") {
		t.Fatal("segundo avistaje = false")
	}
}

func TestDedupWindowEvictsOldest(t *testing.T) {
	w := newDedupWindow(3)

	w.Seen("a")
	w.Seen("b")
	w.Seen("c")
	w.Seen("d") // expulsa "a"

	if w.Seen("a") {
		t.Error("\"a\" debería haber salido de la ventana")
	}
	if !w.Seen("d") {
		t.Error("\"d\" debería seguir en la ventana")
	}
}

func TestDedupWindowEmptyID(t *testing.T) {
	w := newDedupWindow(4)
	// Un feed sin ids no debe colapsar todos los mensajes en uno.
	if w.Seen("") || w.Seen("") {
		t.Error("id vacío nunca cuenta como visto")
	}
}

func TestDedupWindowLongStream(t *testing.T) {
	w := newDedupWindow(16)
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("msg-%d", i)
		if w.Seen(id) {
			t.Fatalf("id nuevo %s reportado como visto", id)
		}
	}
}
