package permissions

import (
	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// Resolver mapea los badges del transporte más las listas configuradas de
// admins/mods al nivel de confianza del participante. Gana el nivel más alto:
// estar en la lista o traer el badge, cualquiera de los dos basta.
type Resolver struct {
	admins map[string]struct{}
	mods   map[string]struct{}
}

func NewResolver(adminIDs, modIDs []string) *Resolver {
	r := &Resolver{
		admins: make(map[string]struct{}, len(adminIDs)),
		mods:   make(map[string]struct{}, len(modIDs)),
	}
	for _, id := range adminIDs {
		if id != "" {
			r.admins[id] = struct{}{}
		}
	}
	for _, id := range modIDs {
		if id != "" {
			r.mods[id] = struct{}{}
		}
	}
	return r
}

func (r *Resolver) Resolve(msg domain.ChatMessage) domain.Permission {
	if _, ok := r.admins[msg.AuthorID]; ok || msg.IsOwner {
		return domain.PermAdmin
	}
	if _, ok := r.mods[msg.AuthorID]; ok || msg.IsModerator {
		return domain.PermMod
	}
	if msg.IsMember {
		return domain.PermMember
	}
	return domain.PermViewer
}
