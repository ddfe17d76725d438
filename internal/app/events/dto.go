package events

import (
	"time"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// ChatMessageDTO es lo que ve el overlay por cada mensaje del chat.
type ChatMessageDTO struct {
	Author string  `json:"author"`
	Text   string  `json:"text"`
	Badge  string  `json:"badge,omitempty"`
	Bot    bool    `json:"bot"`
	At     float64 `json:"t"`
}

// NewChatMessageDTO arma el DTO con el badge más alto del autor.
func NewChatMessageDTO(msg domain.ChatMessage) ChatMessageDTO {
	badge := ""
	switch {
	case msg.IsOwner:
		badge = "owner"
	case msg.IsModerator:
		badge = "mod"
	case msg.IsMember:
		badge = "member"
	}
	return ChatMessageDTO{
		Author: msg.AuthorName,
		Text:   truncate(msg.Text, 300),
		Badge:  badge,
		At:     nowUnix(),
	}
}

// NewAnnouncementDTO marca el mensaje como salida del bot.
func NewAnnouncementDTO(text string) ChatMessageDTO {
	return ChatMessageDTO{
		Bot:  true,
		Text: truncate(text, 300),
		At:   nowUnix(),
	}
}

// ActiveCommandDTO es el comando en ejecución que muestra la barra del
// overlay. Un puntero nil publicado en el topic la limpia.
type ActiveCommandDTO struct {
	User string `json:"user"`
	Name string `json:"name"`
	Args string `json:"args,omitempty"`
}

// VoteStatusDTO es el estado de la votación activa. nil en el topic = sin
// votación.
type VoteStatusDTO struct {
	Options       map[string]int `json:"options"`
	TimeRemaining float64        `json:"time_remaining"`
}

// truncate corta por runas: el frame va como JSON y un corte a mitad de
// un carácter multibyte rompe el encoding.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
