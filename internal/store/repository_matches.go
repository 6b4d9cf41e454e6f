package store

import (
	"context"

	"arena-core/internal/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const matchColumns = `id, game, arena_id, map_name, winner_team, winners, players, ended_at`

// RecordMatch inserts r and returns its id. Missing id and end time are
// filled in.
func (s *Store) RecordMatch(ctx context.Context, r MatchResult) (string, error) {
	if r.ID == "" {
		if r.EndedAt.IsZero() {
			r.ID = ids.New()
		} else {
			r.ID = ids.NewAt(r.EndedAt)
		}
	}
	winners := r.Winners
	if winners == nil {
		winners = []string{}
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO match_results (id, game, arena_id, map_name, winner_team, winners, players, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))`,
		r.ID, r.Game, r.ArenaID, nullText(r.MapName), nullText(r.WinnerTeam), winners, r.Players, nullTime(r.EndedAt))
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (*MatchResult, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM match_results WHERE id = $1`, id)
	r, err := scanMatch(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// ListMatches returns finished matches newest first. An empty game lists
// every game.
func (s *Store) ListMatches(ctx context.Context, game string, limit, offset int) ([]MatchResult, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT `+matchColumns+`
FROM match_results
WHERE ($1::text IS NULL OR game = $1)
ORDER BY ended_at DESC, id DESC
LIMIT $2 OFFSET $3`, nullText(game), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MatchResult{}
	for rows.Next() {
		r, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) MatchStats(ctx context.Context, game string) (MatchStats, error) {
	st := MatchStats{Game: game}
	err := s.Pool.QueryRow(ctx, `
SELECT count(*), count(*) FILTER (WHERE winner_team IS NULL)
FROM match_results
WHERE game = $1`, game).Scan(&st.Matches, &st.Draws)
	return st, err
}

func scanMatch(row pgx.Row) (*MatchResult, error) {
	var (
		r          MatchResult
		mapName    pgtype.Text
		winnerTeam pgtype.Text
	)
	if err := row.Scan(&r.ID, &r.Game, &r.ArenaID, &mapName, &winnerTeam, &r.Winners, &r.Players, &r.EndedAt); err != nil {
		return nil, err
	}
	r.MapName = textOrEmpty(mapName)
	r.WinnerTeam = textOrEmpty(winnerTeam)
	if r.Winners == nil {
		r.Winners = []string{}
	}
	return &r, nil
}
