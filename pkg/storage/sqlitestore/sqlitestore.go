// Package sqlitestore implements storage.ConversationStore over a
// modernc.org/sqlite connection, schema-migrated on startup with an embedded
// pressly/goose/v3 provider — the same pure-Go-driver-plus-goose-provider
// pairing the teacher-adjacent claude-ops db package uses, generalized here
// from its ops-history tables to the two this interpreter needs: remembered
// memory and a pending Hold (SPEC_FULL.md §2.2).
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

// Store is a storage.ConversationStore backed by a single SQLite file.
type Store struct {
	conn *sql.DB
}

var _ storage.ConversationStore = (*Store)(nil)

// New opens path (creating it if absent) and applies every pending
// migration via an embedded goose provider before returning.
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	migrationsFS, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrationsFS)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// LoadContext reads every remembered value and the pending hold, if any,
// for conversationID. A conversation never seen before returns an empty,
// non-nil Context with a nil Hold, not an error.
func (s *Store) LoadContext(ctx context.Context, conversationID string) (memory.Context, error) {
	out := memory.Context{
		Current:  map[string]value.Literal{},
		Metadata: map[string]value.Literal{},
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT name, value_json FROM memories WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return memory.Context{}, fmt.Errorf("loading memories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return memory.Context{}, fmt.Errorf("scanning memory row: %w", err)
		}
		lit, err := literalFromJSON(raw)
		if err != nil {
			return memory.Context{}, fmt.Errorf("decoding memory %q: %w", name, err)
		}
		out.Current[name] = lit
	}
	if err := rows.Err(); err != nil {
		return memory.Context{}, err
	}

	var (
		index       int64
		stepVarsRaw string
		hash        string
	)
	row := s.conn.QueryRowContext(ctx, `SELECT step_index, step_vars_json, flow_hash FROM holds WHERE conversation_id = ?`, conversationID)
	switch err := row.Scan(&index, &stepVarsRaw, &hash); err {
	case nil:
		var stepVars map[string]json.RawMessage
		if err := json.Unmarshal([]byte(stepVarsRaw), &stepVars); err != nil {
			return memory.Context{}, fmt.Errorf("decoding hold step_vars: %w", err)
		}
		out.Hold = &memory.Hold{Index: uint64(index), StepVars: stepVars, Hash: hash}
	case sql.ErrNoRows:
		// no pending hold
	default:
		return memory.Context{}, fmt.Errorf("loading hold: %w", err)
	}

	return out, nil
}

// SaveMemories upserts each write, last-one-wins per name within the batch.
func (s *Store) SaveMemories(ctx context.Context, conversationID string, writes []storage.MemoryWrite) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin memory write tx: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		raw, err := w.Literal.Primitive.ToJSON()
		if err != nil {
			return fmt.Errorf("encoding memory %q: %w", w.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memories (conversation_id, name, value_json, updated_at)
			VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			ON CONFLICT (conversation_id, name) DO UPDATE SET
				value_json = excluded.value_json,
				updated_at = excluded.updated_at
		`, conversationID, w.Name, string(raw)); err != nil {
			return fmt.Errorf("saving memory %q: %w", w.Name, err)
		}
	}
	return tx.Commit()
}

// SaveHold replaces the pending hold for conversationID, or clears it when
// hold is nil.
func (s *Store) SaveHold(ctx context.Context, conversationID string, hold *memory.Hold) error {
	if hold == nil {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM holds WHERE conversation_id = ?`, conversationID)
		return err
	}
	stepVarsRaw, err := json.Marshal(hold.StepVars)
	if err != nil {
		return fmt.Errorf("encoding hold step_vars: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO holds (conversation_id, step_index, step_vars_json, flow_hash, updated_at)
		VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (conversation_id) DO UPDATE SET
			step_index = excluded.step_index,
			step_vars_json = excluded.step_vars_json,
			flow_hash = excluded.flow_hash,
			updated_at = excluded.updated_at
	`, conversationID, int64(hold.Index), string(stepVarsRaw), hold.Hash)
	return err
}

func literalFromJSON(raw string) (value.Literal, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return value.Literal{}, err
	}
	return value.LiteralFromGoValue(v), nil
}
