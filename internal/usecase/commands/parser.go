package commands

import (
	"errors"
	"strings"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

// Parsed es un comando ya validado. Tier y Permission se copian de la tabla
// al parsear y no se recalculan después: lo que el usuario escriba en el
// texto no puede inyectar nada aquí.
type Parsed struct {
	Name       string
	Action     Action
	Args       []string
	Raw        string
	Tier       Tier
	Permission domain.Permission
}

// Parse convierte un mensaje de chat en un comando.
// Devuelve nil si el texto no es un comando (no es un error) o si faltan
// argumentos: un comando malformado no genera ruido en el chat.
func (r *Registry) Parse(text string) *Parsed {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, r.prefix) {
		return nil
	}

	body := strings.TrimPrefix(text, r.prefix)
	parts, err := splitTokens(body)
	if err != nil {
		// Comillas malformadas: caemos al split simple, nunca fallamos.
		parts = strings.Fields(body)
	}
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	def := r.Lookup(name)
	if def == nil {
		return nil
	}

	args := parts[1:]
	if def.FreeText && len(args) > 0 {
		args = []string{strings.Join(parts[1:], " ")}
	}

	if len(args) < def.MinArgs {
		return nil
	}
	if len(args) > def.MaxArgs {
		args = args[:def.MaxArgs]
	}

	return &Parsed{
		Name:       def.Name,
		Action:     def.Action,
		Args:       args,
		Raw:        text,
		Tier:       def.Tier,
		Permission: def.Permission,
	}
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitTokens parte respetando comillas simples y dobles.
func splitTokens(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
