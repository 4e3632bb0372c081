package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type TablesPG struct{ pg *PG }

var _ TableRepository = (*TablesPG)(nil)

func (r *TablesPG) GetByID(ctx context.Context, id int64) (Table, error) {
	var t Table
	err := r.pg.q(ctx).QueryRow(ctx, `SELECT id, code, name, occupied FROM dining_tables WHERE id=$1`, id).
		Scan(&t.ID, &t.Code, &t.Name, &t.Occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return Table{}, tableNotFound(id)
	}
	if err != nil {
		return Table{}, fmt.Errorf("select table %d: %w", id, err)
	}
	return t, nil
}

func (r *TablesPG) SetOccupied(ctx context.Context, id int64, occupied bool) error {
	tag, err := r.pg.q(ctx).Exec(ctx, `UPDATE dining_tables SET occupied=$2, updated_at=now() WHERE id=$1`, id, occupied)
	if err != nil {
		return fmt.Errorf("update table %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return tableNotFound(id)
	}
	return nil
}
