package entities

type LeaderboardScore struct {
	Board    string `json:"board"`
	UserId   string `json:"user_id"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

type LeaderboardScoreFull struct {
	LeaderboardScore
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Level  int    `json:"level"`
	// TotalXp is lifetime XP, whatever the board ranks by.
	TotalXp int `json:"total_xp"`
}

// Standing is one user's place on a board.
type Standing struct {
	Board    string `json:"board"`
	UserId   string `json:"user_id"`
	Position int    `json:"position"`
	TotalXp  int    `json:"total_xp"`
}
