package bot

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/evanblokender/Youtube-vm/internal/usecase/commands"
)

func testExecutor() (*Executor, *fakeActuator, *commands.Registry) {
	act := &fakeActuator{ready: true}
	e := NewExecutor(act, Limits{
		MouseMaxDelta:  500,
		MouseAbsXMax:   1920,
		MouseAbsYMax:   1080,
		TypeMaxLength:  20,
		MaxWaitSeconds: 10,
		SnapshotName:   "clean",
	})
	return e, act, commands.NewRegistry("!")
}

func TestExecuteMoveDirections(t *testing.T) {
	e, act, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!move left 3"))
	if !res.OK {
		t.Fatalf("move falló: %s", res.Message)
	}
	if calls := act.callLog(); len(calls) != 1 || calls[0] != "move" {
		t.Errorf("calls = %v", calls)
	}
	if !strings.Contains(res.Message, "(-300,0)") {
		t.Errorf("Message = %q, quería el delta aplicado", res.Message)
	}
}

func TestExecuteMoveClampsDelta(t *testing.T) {
	e, _, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!move 9999 -9999"))
	if !strings.Contains(res.Message, "(500,-500)") {
		t.Errorf("Message = %q, quería el delta recortado a ±500", res.Message)
	}
}

func TestExecuteAbsClampsToScreen(t *testing.T) {
	e, _, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!abs 99999 -5"))
	if !strings.Contains(res.Message, "(1920,0)") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestExecuteTypeTruncates(t *testing.T) {
	e, act, reg := testExecutor()

	e.Execute(context.Background(), reg.Parse("!type aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))

	calls := act.callLog()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	typed := strings.TrimPrefix(calls[0], "type:")
	if len(typed) != 20 {
		t.Errorf("len(typed) = %d, quería el tope de 20", len(typed))
	}
}

func TestExecuteTypeTruncatesOnRuneBoundary(t *testing.T) {
	e, act, reg := testExecutor()

	// 25 runas multibyte: el tope de 20 no puede partir ninguna al medio.
	e.Execute(context.Background(), reg.Parse("!type "+strings.Repeat("ñ", 25)))

	calls := act.callLog()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	typed := strings.TrimPrefix(calls[0], "type:")
	if !utf8.ValidString(typed) {
		t.Fatalf("texto truncado con UTF-8 inválido: %q", typed)
	}
	if got := utf8.RuneCountInString(typed); got != 20 {
		t.Errorf("runas = %d, quería el tope de 20", got)
	}
}

func TestExecuteSendAppendsEnter(t *testing.T) {
	e, act, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!send ls -la"))
	if !res.OK || !res.Public {
		t.Fatalf("res = %+v", res)
	}
	calls := act.callLog()
	if len(calls) != 1 || calls[0] != "send:ls -la" {
		t.Errorf("calls = %v", calls)
	}
}

func TestExecuteComboRejectsTooManyKeys(t *testing.T) {
	e, act, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!combo a+b+c+d+e"))
	if res.OK {
		t.Fatal("combo de 5 teclas pasó")
	}
	if calls := act.callLog(); len(calls) != 0 {
		t.Errorf("calls = %v", calls)
	}
}

func TestExecuteShutdownViaQueueIsRejected(t *testing.T) {
	e, act, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!shutdown"))
	if res.OK {
		t.Fatal("shutdown directo pasó sin votación")
	}
	if !strings.Contains(res.Message, "requires a vote") {
		t.Errorf("Message = %q", res.Message)
	}
	if calls := act.callLog(); len(calls) != 0 {
		t.Errorf("el actuador se tocó: %v", calls)
	}
}

func TestExecuteRevertRestoresAndRestarts(t *testing.T) {
	e, act, reg := testExecutor()

	res := e.Execute(context.Background(), reg.Parse("!revert"))
	if !res.OK {
		t.Fatalf("revert falló: %s", res.Message)
	}
	calls := act.callLog()
	if len(calls) != 2 || calls[0] != "restore:clean" || calls[1] != "poweron" {
		t.Errorf("calls = %v", calls)
	}
}

func TestExecuteUnknownButtonFallsBackToLeft(t *testing.T) {
	e, act, reg := testExecutor()

	e.Execute(context.Background(), reg.Parse("!click banana"))
	calls := act.callLog()
	if len(calls) != 1 || calls[0] != "click:left" {
		t.Errorf("calls = %v", calls)
	}
}
