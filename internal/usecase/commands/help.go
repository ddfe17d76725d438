package commands

import (
	"fmt"
	"strings"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// HelpText arma el resumen de comandos, o el detalle de uno concreto.
func (r *Registry) HelpText(topic string) string {
	if topic != "" {
		def := r.Lookup(strings.TrimPrefix(strings.ToLower(topic), r.prefix))
		if def == nil {
			return fmt.Sprintf("Unknown command: %s", topic)
		}
		return fmt.Sprintf("%s%s: %s", r.prefix, def.Name, def.Description)
	}

	var classic, major []string
	for _, def := range r.defs {
		switch {
		case def.Tier == TierClassic && def.Permission == domain.PermViewer:
			classic = append(classic, r.prefix+def.Name)
		case def.Tier == TierMajor:
			major = append(major, r.prefix+def.Name)
		}
	}
	if len(classic) > 12 {
		classic = classic[:12]
	}
	return fmt.Sprintf(
		"🟢 Instant: %s... | 🟡 Vote needed: %s | Type %shelp <cmd> for details",
		strings.Join(classic, ", "),
		strings.Join(major, ", "),
		r.prefix,
	)
}
