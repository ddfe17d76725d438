package domain

import "testing"

func TestRankFor(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "Lurker"},
		{9, "Lurker"},
		{10, "Noob"},
		{50, "Script Kiddie"},
		{149, "Script Kiddie"},
		{150, "Hacker"},
		{400, "Sysadmin"},
		{1000, "Arch Wizard"},
		{2500, "BIOS God"},
		{4999, "BIOS God"},
		{5000, "Root"},
		{999999, "Root"},
	}

	for _, tt := range tests {
		if got := RankFor(tt.points); got != tt.want {
			t.Errorf("RankFor(%d) = %q, quería %q", tt.points, got, tt.want)
		}
	}
}
