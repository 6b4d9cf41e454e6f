package store

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// notFound turns an empty single-row result into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// nullText stores "" as NULL: a draw has no winner team, an arena may have
// no map.
func nullText(v string) pgtype.Text {
	return pgtype.Text{String: v, Valid: v != ""}
}

func textOrEmpty(v pgtype.Text) string {
	if v.Valid {
		return v.String
	}
	return ""
}

// nullTime lets the database stamp the row when the caller has no time.
func nullTime(v time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: v, Valid: !v.IsZero()}
}
