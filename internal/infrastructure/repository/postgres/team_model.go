package postgres

import "time"

type teamTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Name      string    `db:"name"`
	Short     string    `db:"short"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	PublicID string `db:"public_id"`
	Name     string `db:"name"`
	Short    string `db:"short"`
}
