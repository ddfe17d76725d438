package commands

import (
	"strings"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// Tier clasifica el riesgo de un comando.
type Tier int

const (
	// TierClassic se ejecuta al instante (vía la cola).
	TierClassic Tier = iota
	// TierMajor requiere una votación colectiva.
	TierMajor
	// TierAdmin es solo para admins/mods.
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierClassic:
		return "classic"
	case TierMajor:
		return "major"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Action es la variante tipada que el ejecutor despacha, resuelta una sola
// vez al parsear: nada de comparar strings de nuevo río abajo.
type Action int

const (
	ActionNone Action = iota
	ActionPowerOn
	ActionFullscreen
	ActionMove
	ActionMouseAbs
	ActionDrag
	ActionClick
	ActionRightClick
	ActionScroll
	ActionType
	ActionSend
	ActionKey
	ActionCombo
	ActionKeyDown
	ActionKeyUp
	ActionEnter
	ActionWait
	ActionStats
	ActionLeaderboard
	ActionUptime
	ActionHelp
	ActionVoteCast
	ActionShutdown
	ActionForceShutdown
	ActionReset
	ActionRevert
	ActionScreenshot
	ActionBan
	ActionUnban
)

type Definition struct {
	Name        string
	Action      Action
	Tier        Tier
	MinArgs     int
	MaxArgs     int
	Description string
	Permission  domain.Permission
	Aliases     []string

	// FreeText: tras el nombre, el resto del mensaje se vuelve a unir en un
	// único argumento. Evita que !type parta el texto del usuario.
	FreeText bool
}

// Registry es la tabla estática de comandos. Se construye una vez al arrancar
// y después es de solo lectura.
type Registry struct {
	prefix string
	defs   []Definition
	index  map[string]*Definition
}

func NewRegistry(prefix string) *Registry {
	r := &Registry{
		prefix: prefix,
		index:  make(map[string]*Definition),
	}
	for _, def := range defaultDefs() {
		r.register(def)
	}
	return r
}

func (r *Registry) register(def Definition) {
	r.defs = append(r.defs, def)
	d := &r.defs[len(r.defs)-1]
	r.index[strings.ToLower(d.Name)] = d
	for _, alias := range d.Aliases {
		r.index[strings.ToLower(alias)] = d
	}
}

// Lookup resuelve un nombre o alias, sin distinguir mayúsculas.
func (r *Registry) Lookup(name string) *Definition {
	return r.index[strings.ToLower(name)]
}

func (r *Registry) Defs() []Definition {
	return r.defs
}

func (r *Registry) Prefix() string {
	return r.prefix
}

func defaultDefs() []Definition {
	return []Definition{
		// VM
		{Name: "startvm", Action: ActionPowerOn, Tier: TierAdmin, Description: "Start the VM", Permission: domain.PermAdmin},
		{Name: "fullscreen", Action: ActionFullscreen, Tier: TierClassic, Description: "Toggle fullscreen"},

		// Mouse
		{Name: "move", Action: ActionMove, Tier: TierClassic, MinArgs: 1, MaxArgs: 3, Description: "!move dx dy | !move left/right/up/down [steps]"},
		{Name: "abs", Action: ActionMouseAbs, Tier: TierClassic, MinArgs: 2, MaxArgs: 2, Description: "!abs x y - Move mouse to absolute position"},
		{Name: "drag", Action: ActionDrag, Tier: TierClassic, MinArgs: 2, MaxArgs: 3, Description: "!drag dx dy [button]"},
		{Name: "click", Action: ActionClick, Tier: TierClassic, MaxArgs: 1, Description: "!click [button] - left/right/middle"},
		{Name: "rclick", Action: ActionRightClick, Tier: TierClassic, Description: "Right click"},
		{Name: "scroll", Action: ActionScroll, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!scroll delta"},

		// Keyboard
		{Name: "type", Action: ActionType, Tier: TierClassic, MinArgs: 1, MaxArgs: 99, Description: "!type text", FreeText: true},
		{Name: "send", Action: ActionSend, Tier: TierClassic, MinArgs: 1, MaxArgs: 99, Description: "!send text (type + Enter)", FreeText: true},
		{Name: "key", Action: ActionKey, Tier: TierClassic, MinArgs: 1, MaxArgs: 2, Description: "!key keyname [duration]"},
		{Name: "combo", Action: ActionCombo, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!combo ctrl+c"},
		{Name: "keydown", Action: ActionKeyDown, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!keydown key"},
		{Name: "keyup", Action: ActionKeyUp, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!keyup key"},
		{Name: "enter", Action: ActionEnter, Tier: TierClassic, Description: "Press Enter"},

		// Utility
		{Name: "wait", Action: ActionWait, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!wait seconds (max 10)"},
		{Name: "stats", Action: ActionStats, Tier: TierClassic, Description: "Your stats"},
		{Name: "leaderboard", Action: ActionLeaderboard, Tier: TierClassic, Description: "Top players", Aliases: []string{"top"}},
		{Name: "uptime", Action: ActionUptime, Tier: TierClassic, Description: "Stream uptime"},
		{Name: "help", Action: ActionHelp, Tier: TierClassic, MaxArgs: 1, Description: "List commands", Aliases: []string{"commands"}},
		{Name: "vote", Action: ActionVoteCast, Tier: TierClassic, MinArgs: 1, MaxArgs: 1, Description: "!vote command - cast vote"},

		// Major (requieren votación)
		{Name: "shutdown", Action: ActionShutdown, Tier: TierMajor, Description: "Graceful ACPI shutdown (vote)"},
		{Name: "forceshutdown", Action: ActionForceShutdown, Tier: TierMajor, Description: "Hard power off + restart (vote)"},

		// Admin
		{Name: "reset", Action: ActionReset, Tier: TierAdmin, Description: "Restart VM", Permission: domain.PermAdmin},
		{Name: "revert", Action: ActionRevert, Tier: TierAdmin, Description: "Restore snapshot", Permission: domain.PermAdmin},
		{Name: "screenshot", Action: ActionScreenshot, Tier: TierAdmin, Description: "Take screenshot", Permission: domain.PermMod},
		{Name: "ban", Action: ActionBan, Tier: TierAdmin, MinArgs: 1, MaxArgs: 1, Description: "Ban user from commands", Permission: domain.PermMod},
		{Name: "unban", Action: ActionUnban, Tier: TierAdmin, MinArgs: 1, MaxArgs: 1, Description: "Unban user", Permission: domain.PermMod},
	}
}
