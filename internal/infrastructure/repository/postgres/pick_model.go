package postgres

import "time"

type pickTableModel struct {
	ID            int64     `db:"id"`
	PublicID      string    `db:"public_id"`
	ParticipantID string    `db:"participant_id"`
	TeamID        string    `db:"team_public_id"`
	Week          int       `db:"week"`
	AutoAssigned  bool      `db:"auto_assigned"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type pickInsertModel struct {
	PublicID      string    `db:"public_id"`
	ParticipantID string    `db:"participant_id"`
	TeamID        string    `db:"team_public_id"`
	Week          int       `db:"week"`
	AutoAssigned  bool      `db:"auto_assigned"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
