package domain

import "time"

type UserRecord struct {
	UserID           string
	DisplayName      string
	Points           int
	CommandsExecuted int
	VotesCast        int
	VotesWon         int
	JoinedAt         time.Time
	LastActive       time.Time
}

// Rank devuelve el título del usuario según sus puntos.
func (u *UserRecord) Rank() string {
	return RankFor(u.Points)
}

type rankThreshold struct {
	points int
	title  string
}

var rankThresholds = []rankThreshold{
	{0, "Lurker"},
	{10, "Noob"},
	{50, "Script Kiddie"},
	{150, "Hacker"},
	{400, "Sysadmin"},
	{1000, "Arch Wizard"},
	{2500, "BIOS God"},
	{5000, "Root"},
}

func RankFor(points int) string {
	rank := rankThresholds[0].title
	for _, t := range rankThresholds {
		if points >= t.points {
			rank = t.title
		}
	}
	return rank
}
