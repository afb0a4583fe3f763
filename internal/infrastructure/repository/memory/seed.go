package memory

import "github.com/riskibarqy/last-man-standing/internal/domain/team"

// SeedTeams is the 2025/26 Premier League catalog used by the memory store.
func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "eng-ars", Name: "Arsenal", Short: "ARS"},
		{ID: "eng-avl", Name: "Aston Villa", Short: "AVL"},
		{ID: "eng-bou", Name: "Bournemouth", Short: "BOU"},
		{ID: "eng-bre", Name: "Brentford", Short: "BRE"},
		{ID: "eng-bha", Name: "Brighton", Short: "BHA"},
		{ID: "eng-bur", Name: "Burnley", Short: "BUR"},
		{ID: "eng-che", Name: "Chelsea", Short: "CHE"},
		{ID: "eng-cry", Name: "Crystal Palace", Short: "CRY"},
		{ID: "eng-eve", Name: "Everton", Short: "EVE"},
		{ID: "eng-ful", Name: "Fulham", Short: "FUL"},
		{ID: "eng-lee", Name: "Leeds United", Short: "LEE"},
		{ID: "eng-liv", Name: "Liverpool", Short: "LIV"},
		{ID: "eng-mci", Name: "Manchester City", Short: "MCI"},
		{ID: "eng-mun", Name: "Manchester United", Short: "MUN"},
		{ID: "eng-new", Name: "Newcastle United", Short: "NEW"},
		{ID: "eng-nfo", Name: "Nottingham Forest", Short: "NFO"},
		{ID: "eng-sun", Name: "Sunderland", Short: "SUN"},
		{ID: "eng-tot", Name: "Tottenham Hotspur", Short: "TOT"},
		{ID: "eng-whu", Name: "West Ham United", Short: "WHU"},
		{ID: "eng-wol", Name: "Wolves", Short: "WOL"},
	}
}
