package domain

// Permission es el nivel de confianza resuelto para un participante.
// El orden importa: un comando corre solo si el nivel resuelto es >= al requerido.
type Permission int

const (
	PermViewer Permission = iota
	PermMember
	PermMod
	PermAdmin
)

func (p Permission) String() string {
	switch p {
	case PermViewer:
		return "viewer"
	case PermMember:
		return "member"
	case PermMod:
		return "mod"
	case PermAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Allows reporta si este nivel alcanza para un requisito dado.
func (p Permission) Allows(required Permission) bool {
	return p >= required
}
