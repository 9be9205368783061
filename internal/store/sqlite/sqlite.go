package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkreg/internal/core"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO)
)

// Store implements core.Store backed by SQLite. A single pooled connection
// serializes every statement, and each operation runs in one transaction.
type Store struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// Open opens (or creates) the SQLite DB at path and applies migrations.
// ":memory:" keeps everything in process memory.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, time.Now)
}

// OpenWithClock is Open with an injectable time source.
func OpenWithClock(path string, now func() time.Time) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: required for ":memory:" and gives single-writer semantics.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA foreign_keys = ON;")

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &Store{db: db, nowFunc: now}, nil
}

// Close releases the underlying DB.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RegisterUser(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users(id) VALUES (?);`, id.String()); err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *Store) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?);`, id.String()).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return ok, nil
}

// CreateLink sweeps, checks and inserts inside one transaction.
func (s *Store) CreateLink(ctx context.Context, in core.NewLink) (core.Link, error) {
	if in.MaxUses <= 0 {
		return core.Link{}, core.ErrInvalidMaxUses
	}
	if in.Code == "" {
		return core.Link{}, core.ErrInvalidCode
	}

	now := s.nowFunc()
	link := core.Link{
		Owner:     in.Owner,
		Original:  in.Original,
		Code:      in.Code,
		MaxUses:   in.MaxUses,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := sweep(ctx, tx, now); err != nil {
			return err
		}

		var known, taken bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?);`, in.Owner.String()).Scan(&known); err != nil {
			return err
		}
		if !known {
			return core.ErrUnknownOwner
		}
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE code = ?);`, in.Code).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return core.ErrConflict
		}

		const q = `
INSERT INTO links(code, owner, original, used, max_uses, expires_at, created_at)
VALUES (?, ?, ?, 0, ?, ?, ?);`
		_, err := tx.ExecContext(ctx, q, in.Code, in.Owner.String(), in.Original, in.MaxUses, toNullNanos(in.ExpiresAt), now.UnixNano())
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
			return core.ErrConflict
		}
		return err
	})
	if err != nil {
		return core.Link{}, err
	}
	return link, nil
}

func (s *Store) DeleteLink(ctx context.Context, owner uuid.UUID, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE code = ? AND owner = ?;`, code, owner.String())
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) UserLinks(ctx context.Context, owner uuid.UUID) ([]core.Link, error) {
	const q = `
SELECT owner, original, code, used, max_uses, expires_at, created_at
FROM links
WHERE owner = ?
ORDER BY id;`
	out := make([]core.Link, 0)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := sweep(ctx, tx, s.nowFunc()); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, q, owner.String())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			l, err := scanLink(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TryUse increments with a guarded UPDATE, so the row never passes max_uses.
func (s *Store) TryUse(ctx context.Context, code string) (core.Optional[string], error) {
	const q = `
UPDATE links SET used = used + 1
WHERE code = ? AND used < max_uses AND (expires_at IS NULL OR expires_at > ?)
RETURNING original;`
	var original string
	found := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.nowFunc()
		if _, err := sweep(ctx, tx, now); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, q, code, now.UnixNano()).Scan(&original)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return core.None[string](), err
	}
	if !found {
		return core.None[string](), nil
	}
	return core.Some(original), nil
}

func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = sweep(ctx, tx, s.nowFunc())
		return err
	})
	return n, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sweep deletes exhausted links and links whose expiry is at or before now.
func sweep(ctx context.Context, tx *sql.Tx, now time.Time) (int, error) {
	const q = `
DELETE FROM links
WHERE used >= max_uses OR (expires_at IS NOT NULL AND expires_at <= ?);`
	res, err := tx.ExecContext(ctx, q, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweep links: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (core.Link, error) {
	var (
		l       core.Link
		owner   string
		expires sql.NullInt64
		created int64
	)
	if err := row.Scan(&owner, &l.Original, &l.Code, &l.UsedCount, &l.MaxUses, &expires, &created); err != nil {
		return core.Link{}, err
	}
	id, err := uuid.Parse(owner)
	if err != nil {
		return core.Link{}, fmt.Errorf("link %s: bad owner %q: %w", l.Code, owner, err)
	}
	l.Owner = id
	l.CreatedAt = time.Unix(0, created).UTC()
	if expires.Valid {
		l.ExpiresAt = core.Some(time.Unix(0, expires.Int64).UTC())
	}
	return l, nil
}

func toNullNanos(o core.Optional[time.Time]) sql.NullInt64 {
	t, ok := o.Get()
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// Compile-time check: *Store implements core.Store.
var _ core.Store = (*Store)(nil)
