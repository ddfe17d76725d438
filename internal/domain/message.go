package domain

// ChatMessage es un mensaje entrante del live chat, ya normalizado.
// El feed entrega al menos una vez; el orquestador dedupea por ID.
type ChatMessage struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string

	// Flags que vienen de la plataforma (los rellenamos en el adapter)
	IsOwner     bool
	IsModerator bool
	IsMember    bool
}
