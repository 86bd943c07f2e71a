package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/cscope"
)

// ErrNotIndexed is returned when the index holds no symbol store
var ErrNotIndexed = errors.Base("index is empty")

const (
	metaHeader    = "header"
	metaTrailer   = "trailer"
	metaSource    = "source"
	metaIndexedAt = "indexed_at"
)

// SaveStore replaces the index contents with s in one transaction.
// source is the database path recorded alongside.
func (db *DB) SaveStore(ctx context.Context, s *cscope.Store, source string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if err := clearAll(ctx, tx); err != nil {
		return err
	}

	fileStmt, err := tx.PrepareContext(ctx, `INSERT INTO files (id, name, mark) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Errorf("prepare file insert: %w", err)
	}
	defer fileStmt.Close()

	fnStmt, err := tx.PrepareContext(ctx, `INSERT INTO functions (file_id, seq, name, line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Errorf("prepare function insert: %w", err)
	}
	defer fnStmt.Close()

	callStmt, err := tx.PrepareContext(ctx, `INSERT INTO calls (function_id, seq, name, line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Errorf("prepare call insert: %w", err)
	}
	defer callStmt.Close()

	for i, f := range s.Files {
		if _, err := fileStmt.ExecContext(ctx, i, f.Name, int(f.Mark)); err != nil {
			return errors.Errorf("insert file %q: %w", f.Name, err)
		}
		for j, fn := range f.Functions {
			res, err := fnStmt.ExecContext(ctx, i, j, fn.Name, fn.Line)
			if err != nil {
				return errors.Errorf("insert function %q: %w", fn.Name, err)
			}
			fnID, err := res.LastInsertId()
			if err != nil {
				return errors.Errorf("function id: %w", err)
			}
			for k, call := range fn.Calls {
				if _, err := callStmt.ExecContext(ctx, fnID, k, call.Name, call.Line); err != nil {
					return errors.Errorf("insert call %q: %w", call.Name, err)
				}
			}
		}
	}

	header, err := json.Marshal(s.Header)
	if err != nil {
		return errors.Errorf("encode header: %w", err)
	}
	trailer, err := json.Marshal(s.Trailer)
	if err != nil {
		return errors.Errorf("encode trailer: %w", err)
	}
	meta := map[string]string{
		metaHeader:    string(header),
		metaTrailer:   string(trailer),
		metaSource:    source,
		metaIndexedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return errors.Errorf("insert meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Errorf("commit: %w", err)
	}
	return nil
}

// LoadStore rebuilds the symbol store saved by SaveStore
func (db *DB) LoadStore(ctx context.Context) (*cscope.Store, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	s := &cscope.Store{}
	if err := readMeta(ctx, tx, metaHeader, &s.Header); err != nil {
		return nil, err
	}
	if err := readMeta(ctx, tx, metaTrailer, &s.Trailer); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, name, mark FROM files ORDER BY id`)
	if err != nil {
		return nil, errors.Errorf("query files: %w", err)
	}
	for rows.Next() {
		var (
			id   int
			f    cscope.File
			mark int
		)
		if err := rows.Scan(&id, &f.Name, &mark); err != nil {
			rows.Close()
			return nil, errors.Errorf("scan file: %w", err)
		}
		f.Mark = byte(mark)
		s.Files = append(s.Files, &f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("query files: %w", err)
	}

	byID := make(map[int64]*cscope.Function)
	rows, err = tx.QueryContext(ctx, `SELECT id, file_id, name, line FROM functions ORDER BY file_id, seq`)
	if err != nil {
		return nil, errors.Errorf("query functions: %w", err)
	}
	for rows.Next() {
		var (
			id int64
			fn cscope.Function
		)
		if err := rows.Scan(&id, &fn.File, &fn.Name, &fn.Line); err != nil {
			rows.Close()
			return nil, errors.Errorf("scan function: %w", err)
		}
		if fn.File < 0 || fn.File >= len(s.Files) {
			rows.Close()
			return nil, errors.Errorf("function %q references missing file %d", fn.Name, fn.File)
		}
		fn.Kind = cscope.FunctionDefinition
		s.Files[fn.File].Functions = append(s.Files[fn.File].Functions, &fn)
		byID[id] = &fn
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("query functions: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `SELECT function_id, name, line FROM calls ORDER BY function_id, seq`)
	if err != nil {
		return nil, errors.Errorf("query calls: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fnID int64
			call cscope.Symbol
		)
		if err := rows.Scan(&fnID, &call.Name, &call.Line); err != nil {
			return nil, errors.Errorf("scan call: %w", err)
		}
		fn, ok := byID[fnID]
		if !ok {
			return nil, errors.Errorf("call %q references missing function %d", call.Name, fnID)
		}
		call.Kind = cscope.FunctionCall
		call.File = fn.File
		fn.Calls = append(fn.Calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("query calls: %w", err)
	}

	return s, nil
}

func readMeta(ctx context.Context, tx *sql.Tx, key string, v any) error {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.WithStack(ErrNotIndexed)
	}
	if err != nil {
		return errors.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errors.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Info describes when and from what the index was built
type Info struct {
	Source    string    `json:"source"`
	IndexedAt time.Time `json:"indexed_at"`
}

// GetInfo returns the source path and build time of the index
func (db *DB) GetInfo(ctx context.Context) (Info, error) {
	var info Info
	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM meta WHERE key IN (?, ?)`, metaSource, metaIndexedAt)
	if err != nil {
		return info, errors.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return info, errors.Errorf("scan meta: %w", err)
		}
		found = true
		switch k {
		case metaSource:
			info.Source = v
		case metaIndexedAt:
			info.IndexedAt, _ = time.Parse(time.RFC3339, v)
		}
	}
	if err := rows.Err(); err != nil {
		return info, errors.Errorf("query meta: %w", err)
	}
	if !found {
		return info, errors.WithStack(ErrNotIndexed)
	}
	return info, nil
}

// FunctionRow is one indexed definition
type FunctionRow struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	Calls int    `json:"calls"`
}

// GetAllFunctions returns every indexed definition ordered by name.
// limit <= 0 means no limit.
func (db *DB) GetAllFunctions(ctx context.Context, limit int) ([]FunctionRow, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT f.name, fi.name, f.line,
			(SELECT COUNT(*) FROM calls c WHERE c.function_id = f.id)
		 FROM functions f
		 JOIN files fi ON fi.id = f.file_id
		 ORDER BY f.name, fi.name, f.line
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Errorf("query functions: %w", err)
	}
	defer rows.Close()
	return scanFunctions(rows)
}

// FindFunctionsByPattern returns definitions whose name contains pattern.
// Results are sorted by match quality: exact match > ends with pattern > contains pattern.
func (db *DB) FindFunctionsByPattern(ctx context.Context, pattern string) ([]FunctionRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT f.name, fi.name, f.line,
			(SELECT COUNT(*) FROM calls c WHERE c.function_id = f.id)
		 FROM functions f
		 JOIN files fi ON fi.id = f.file_id
		 WHERE f.name LIKE ?
		 ORDER BY
			CASE
				WHEN f.name = ? THEN 0
				WHEN f.name LIKE '%' || ? THEN 1
				ELSE 2
			END,
			length(f.name) ASC,
			f.name`,
		"%"+pattern+"%", pattern, pattern,
	)
	if err != nil {
		return nil, errors.Errorf("query functions: %w", err)
	}
	defer rows.Close()
	return scanFunctions(rows)
}

// GetStats returns index statistics
func (db *DB) GetStats(ctx context.Context) (cscope.Stats, error) {
	var st cscope.Stats
	for _, q := range []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM files`, &st.Files},
		{`SELECT COUNT(*) FROM functions`, &st.Functions},
		{`SELECT COUNT(*) FROM calls`, &st.Calls},
	} {
		if err := db.conn.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return st, errors.Errorf("count: %w", err)
		}
	}
	return st, nil
}

func scanFunctions(rows *sql.Rows) ([]FunctionRow, error) {
	var out []FunctionRow
	for rows.Next() {
		var r FunctionRow
		if err := rows.Scan(&r.Name, &r.File, &r.Line, &r.Calls); err != nil {
			return nil, errors.Errorf("scan function: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("scan functions: %w", err)
	}
	return out, nil
}
