package trustledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const selectSQLiteEntry = `SELECT idx, timestamp, subject, action, actor, data_hash, prev_hash, hash FROM trust_ledger`

// SQLiteLedger persists the audit chain in the same SQLite database as the
// ledger state. The trust_ledger table and its genesis row come from
// migrations.SQLiteSchema.
type SQLiteLedger struct {
	db     *sql.DB
	mu     sync.Mutex // one appender per process; SQLite allows one writer
	logger *zap.Logger
}

// NewSQLiteLedger creates a SQLiteLedger over db.
func NewSQLiteLedger(db *sql.DB, logger *zap.Logger) *SQLiteLedger {
	return &SQLiteLedger{db: db, logger: logger}
}

// Append implements Ledger.
func (l *SQLiteLedger) Append(ctx context.Context, subject string, action Action, actor string, payload any) (*Entry, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var prevIdx int
	var prevHash string
	if err := tx.QueryRowContext(ctx,
		"SELECT idx, hash FROM trust_ledger ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash); err != nil {
		return nil, fmt.Errorf("read ledger tail: %w", err)
	}

	entry := &Entry{
		Index:     prevIdx + 1,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Action:    action,
		Actor:     actor,
		DataHash:  sha256Sum(payloadJSON),
		PrevHash:  prevHash,
	}
	entry.Hash = hashEntry(entry)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trust_ledger (idx, timestamp, subject, action, actor, data_hash, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Index, entry.Timestamp.Format(time.RFC3339Nano), entry.Subject,
		string(entry.Action), entry.Actor, entry.DataHash,
		entry.PrevHash, entry.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}

	l.logger.Debug("ledger entry appended",
		zap.Int("idx", entry.Index),
		zap.String("action", string(entry.Action)),
		zap.String("subject", entry.Subject),
	)
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (*Entry, error) {
	e := &Entry{}
	var action, ts string
	if err := row.Scan(
		&e.Index, &ts, &e.Subject,
		&action, &e.Actor, &e.DataHash,
		&e.PrevHash, &e.Hash,
	); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp of entry %d: %w", e.Index, err)
	}
	e.Action = Action(action)
	e.Timestamp = t.UTC()
	return e, nil
}

// Get implements Ledger.
func (l *SQLiteLedger) Get(ctx context.Context, index int) (*Entry, error) {
	e, err := scanSQLiteEntry(l.db.QueryRowContext(ctx, selectSQLiteEntry+` WHERE idx = ?`, index))
	if err != nil {
		return nil, fmt.Errorf("get ledger entry %d: %w", index, err)
	}
	return e, nil
}

// List implements Ledger.
func (l *SQLiteLedger) List(ctx context.Context, offset, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, selectSQLiteEntry+` WHERE idx >= ? ORDER BY idx ASC LIMIT ?`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Len implements Ledger.
func (l *SQLiteLedger) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trust_ledger").Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

// Verify implements Ledger.
func (l *SQLiteLedger) Verify(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx, selectSQLiteEntry+` ORDER BY idx ASC`)
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var prev *Entry
	for rows.Next() {
		curr, err := scanSQLiteEntry(rows)
		if err != nil {
			return fmt.Errorf("scan ledger row: %w", err)
		}
		if prev == nil {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
			}
			prev = curr
			continue
		}
		if err := checkLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Ledger.
func (l *SQLiteLedger) Root(ctx context.Context) (string, error) {
	var hash string
	if err := l.db.QueryRowContext(ctx,
		"SELECT hash FROM trust_ledger ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get ledger root: %w", err)
	}
	return hash, nil
}
