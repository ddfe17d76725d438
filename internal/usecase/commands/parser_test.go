package commands

import (
	"reflect"
	"strings"
	"testing"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

func TestParseRejectsPlainChat(t *testing.T) {
	r := NewRegistry("!")
	for _, text := range []string{
		"hola gente",
		"",
		"   ",
		"! ",
		"!nosuchcommand",
		"!move", // falta el argumento
	} {
		if got := r.Parse(text); got != nil {
			t.Errorf("Parse(%q) = %+v, quería nil", text, got)
		}
	}
}

func TestParseBasics(t *testing.T) {
	r := NewRegistry("!")

	tests := []struct {
		text     string
		wantName string
		wantArgs []string
	}{
		{"!click", "click", nil},
		{"!click right", "click", []string{"right"}},
		{"!move left 5", "move", []string{"left", "5"}},
		{"!MOVE LEFT", "move", []string{"LEFT"}},
		{"  !enter  ", "enter", nil},
		{"!top", "leaderboard", nil},
		{"!commands", "help", nil},
	}

	for _, tt := range tests {
		got := r.Parse(tt.text)
		if got == nil {
			t.Errorf("Parse(%q) = nil", tt.text)
			continue
		}
		if got.Name != tt.wantName {
			t.Errorf("Parse(%q).Name = %q, quería %q", tt.text, got.Name, tt.wantName)
		}
		if len(got.Args) != len(tt.wantArgs) || (len(tt.wantArgs) > 0 && !reflect.DeepEqual(got.Args, tt.wantArgs)) {
			t.Errorf("Parse(%q).Args = %v, quería %v", tt.text, got.Args, tt.wantArgs)
		}
	}
}

func TestParseFreeTextJoinsArgs(t *testing.T) {
	r := NewRegistry("!")

	got := r.Parse("!type sudo pacman -Syu")
	if got == nil {
		t.Fatal("Parse devolvió nil")
	}
	if len(got.Args) != 1 || got.Args[0] != "sudo pacman -Syu" {
		t.Errorf("Args = %v, quería el texto completo en un solo arg", got.Args)
	}
}

func TestParseQuotedArgs(t *testing.T) {
	r := NewRegistry("!")

	got := r.Parse(`!key "enter" 2`)
	if got == nil {
		t.Fatal("Parse devolvió nil")
	}
	want := []string{"enter", "2"}
	if !reflect.DeepEqual(got.Args, want) {
		t.Errorf("Args = %v, quería %v", got.Args, want)
	}
}

func TestParseUnterminatedQuoteFallsBack(t *testing.T) {
	r := NewRegistry("!")

	// Comilla sin cerrar: se cae al split simple en vez de fallar.
	got := r.Parse(`!key "enter 2`)
	if got == nil {
		t.Fatal("Parse devolvió nil")
	}
	want := []string{`"enter`, "2"}
	if !reflect.DeepEqual(got.Args, want) {
		t.Errorf("Args = %v, quería %v", got.Args, want)
	}
}

func TestParseTruncatesExtraArgs(t *testing.T) {
	r := NewRegistry("!")

	got := r.Parse("!scroll 3 4 5 6")
	if got == nil {
		t.Fatal("Parse devolvió nil")
	}
	want := []string{"3"}
	if !reflect.DeepEqual(got.Args, want) {
		t.Errorf("Args = %v, quería truncado a %v", got.Args, want)
	}
}

func TestParseCopiesTierAndPermission(t *testing.T) {
	r := NewRegistry("!")

	shutdown := r.Parse("!shutdown")
	if shutdown == nil || shutdown.Tier != TierMajor {
		t.Fatalf("shutdown = %+v, quería tier Major", shutdown)
	}

	reset := r.Parse("!reset")
	if reset == nil || reset.Permission != domain.PermAdmin {
		t.Fatalf("reset = %+v, quería permiso admin", reset)
	}

	click := r.Parse("!click")
	if click == nil || click.Permission != domain.PermViewer || click.Tier != TierClassic {
		t.Fatalf("click = %+v, quería viewer/classic", click)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry("!")

	if def := r.Lookup("SHUTDOWN"); def == nil || def.Name != "shutdown" {
		t.Errorf("Lookup(SHUTDOWN) = %+v", def)
	}
	if def := r.Lookup("Top"); def == nil || def.Name != "leaderboard" {
		t.Errorf("Lookup(Top) = %+v, quería el alias de leaderboard", def)
	}
}

func TestHelpTextForCommand(t *testing.T) {
	r := NewRegistry("!")

	text := r.HelpText("move")
	if text == "" {
		t.Fatal("HelpText(move) vacío")
	}
	if want := "!move"; !strings.Contains(text, want) {
		t.Errorf("HelpText(move) = %q, quería mención de %q", text, want)
	}

	if r.HelpText("nosuch") == r.HelpText("move") {
		t.Error("HelpText de comando inexistente no debería coincidir con uno real")
	}
}
