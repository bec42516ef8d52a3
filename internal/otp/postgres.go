package otp

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements the challenge log on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, ch *Challenge) error {
	_, err := s.db.ExecContext(ctx,
		`insert into otp_challenges(id, email, code, is_verified, created_at)
		 values($1,$2,$3,$4,$5)`,
		ch.ID, ch.Email, ch.Code, ch.Verified, ch.CreatedAt)
	return err
}

func (s *PGStore) FindByEmailAndCode(ctx context.Context, email, code string) (*Challenge, error) {
	// Prefer an unconsumed row when the same code was issued twice for the
	// email; newest first keeps the lookup deterministic.
	row := s.db.QueryRowContext(ctx,
		`select id, email, code, is_verified, created_at
		 from otp_challenges
		 where email=$1 and code=$2
		 order by is_verified asc, created_at desc
		 limit 1`, email, code)
	var ch Challenge
	if err := row.Scan(&ch.ID, &ch.Email, &ch.Code, &ch.Verified, &ch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *PGStore) MarkVerified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update otp_challenges set is_verified=true, updated_at=now()
		 where id=$1 and not is_verified`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) CountSince(ctx context.Context, email string, from time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from otp_challenges where email=$1 and created_at >= $2`,
		email, from).Scan(&count)
	return count, err
}
