package postgres

import "time"

type winnerTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Week      int       `db:"week"`
	TeamID    string    `db:"team_public_id"`
	CreatedAt time.Time `db:"created_at"`
}

type winnerInsertModel struct {
	PublicID string `db:"public_id"`
	Week     int    `db:"week"`
	TeamID   string `db:"team_public_id"`
}
