package permissions

import (
	"testing"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

func TestResolve(t *testing.T) {
	r := NewResolver([]string{"admin-1"}, []string{"mod-1"})

	tests := []struct {
		name string
		msg  domain.ChatMessage
		want domain.Permission
	}{
		{"viewer", domain.ChatMessage{AuthorID: "x"}, domain.PermViewer},
		{"member badge", domain.ChatMessage{AuthorID: "x", IsMember: true}, domain.PermMember},
		{"mod badge", domain.ChatMessage{AuthorID: "x", IsModerator: true}, domain.PermMod},
		{"mod list", domain.ChatMessage{AuthorID: "mod-1"}, domain.PermMod},
		{"owner badge", domain.ChatMessage{AuthorID: "x", IsOwner: true}, domain.PermAdmin},
		{"admin list", domain.ChatMessage{AuthorID: "admin-1"}, domain.PermAdmin},
		{"admin list wins over badges", domain.ChatMessage{AuthorID: "admin-1", IsMember: true}, domain.PermAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.msg); got != tt.want {
				t.Errorf("Resolve(%+v) = %v, quería %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestAllowsIsMonotonic(t *testing.T) {
	levels := []domain.Permission{domain.PermViewer, domain.PermMember, domain.PermMod, domain.PermAdmin}
	for i, have := range levels {
		for j, need := range levels {
			want := i >= j
			if got := have.Allows(need); got != want {
				t.Errorf("%v.Allows(%v) = %v, quería %v", have, need, got, want)
			}
		}
	}
}
