package postgres

import "time"

type deadlineTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Week      int       `db:"week"`
	Deadline  time.Time `db:"deadline_at"`
	IsClosed  bool      `db:"is_closed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type deadlineInsertModel struct {
	PublicID string    `db:"public_id"`
	Week     int       `db:"week"`
	Deadline time.Time `db:"deadline_at"`
	IsClosed bool      `db:"is_closed"`
}
