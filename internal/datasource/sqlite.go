package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// SQLite layout. Node order within a kind follows ord; member order within an
// owner follows memberships.ord.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id       TEXT PRIMARY KEY,
	kind     TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	subtitle TEXT NOT NULL DEFAULT '',
	status   TEXT NOT NULL DEFAULT '',
	x        REAL NOT NULL DEFAULT 0,
	y        REAL NOT NULL DEFAULT 0,
	progress INTEGER NOT NULL DEFAULT 0,
	ord      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS memberships (
	owner_id  TEXT NOT NULL,
	member_id TEXT NOT NULL,
	ord       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (owner_id, ord)
);
`

// sqliteDSN builds a file: URI for path. The path is escaped so '?' and '#'
// in file names are not read as the query or fragment.
func sqliteDSN(path string, readOnly bool) string {
	q := url.Values{}
	q.Set("_pragma", "busy_timeout(5000)")
	if readOnly {
		q.Set("mode", "ro")
	}
	u := url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: q.Encode()}
	return u.String()
}

// SQLiteSource reads a snapshot from a SQLite database.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource returns a source for the database at path. The database is
// opened on each Load and closed before Load returns.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// Name returns the database path.
func (s *SQLiteSource) Name() string { return s.path }

// Type returns SourceTypeSQLite.
func (s *SQLiteSource) Type() SourceType { return SourceTypeSQLite }

// Load reads every node and membership row.
func (s *SQLiteSource) Load(ctx context.Context) (model.Snapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		return model.Snapshot{}, fmt.Errorf("cannot open database: %w", err)
	}

	// Open in read-only mode; the watcher may be reloading while a writer
	// holds the database.
	db, err := sql.Open("sqlite", sqliteDSN(s.path, true))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	members, err := loadMemberships(ctx, db)
	if err != nil {
		return model.Snapshot{}, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, label, subtitle, status, x, y, progress
		FROM nodes
		ORDER BY ord, rowid
	`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var snap model.Snapshot
	for rows.Next() {
		var n model.Node
		var kind, status string
		if err := rows.Scan(&n.ID, &kind, &n.Label, &n.Subtitle, &status,
			&n.Position.X, &n.Position.Y, &n.Progress); err != nil {
			return model.Snapshot{}, fmt.Errorf("scan node: %w", err)
		}
		n.Kind = model.Kind(kind)
		n.Status = model.Status(status)
		n.Members = members[n.ID]

		switch n.Kind {
		case model.KindTrust:
			snap.Trusts = append(snap.Trusts, n)
		case model.KindEntity:
			snap.Entities = append(snap.Entities, n)
		case model.KindProject:
			snap.Projects = append(snap.Projects, n)
		default:
			return model.Snapshot{}, fmt.Errorf("%w: %q on %q", ErrUnknownKind, kind, n.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("iterate nodes: %w", err)
	}

	return finish(s.path, snap)
}

func loadMemberships(ctx context.Context, db *sql.DB) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT owner_id, member_id
		FROM memberships
		ORDER BY owner_id, ord, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var owner, member string
		if err := rows.Scan(&owner, &member); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out[owner] = append(out[owner], member)
	}
	return out, rows.Err()
}

// WriteSQLite replaces the contents of the database at path with snap,
// creating it when missing. Everything is written in one transaction.
func WriteSQLite(ctx context.Context, path string, snap model.Snapshot) error {
	db, err := sql.Open("sqlite", sqliteDSN(path, false))
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM memberships", "DELETE FROM nodes"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	insNode, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, kind, label, subtitle, status, x, y, progress, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer insNode.Close()

	insMember, err := tx.PrepareContext(ctx, `
		INSERT INTO memberships (owner_id, member_id, ord) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare membership insert: %w", err)
	}
	defer insMember.Close()

	snap.Normalize()
	for i, n := range snap.All() {
		if _, err := insNode.ExecContext(ctx, n.ID, string(n.Kind), n.Label, n.Subtitle,
			string(n.Status), n.Position.X, n.Position.Y, n.Progress, i); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
		for j, m := range n.Members {
			if _, err := insMember.ExecContext(ctx, n.ID, m, j); err != nil {
				return fmt.Errorf("insert membership %s->%s: %w", n.ID, m, err)
			}
		}
	}

	return tx.Commit()
}
