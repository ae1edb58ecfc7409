package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"aurora/internal/adapters/storage"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteGateway stores documents as JSON rows in the local SQLite database.
// It stands in for the hosted document store in development and tests.
type SQLiteGateway struct {
	db    storage.SQLDB
	newID func() string
}

var _ Gateway = (*SQLiteGateway)(nil)

// NewSQLiteGateway creates a gateway over the document table.
// PRE: storage.InitDB has run against db
func NewSQLiteGateway(db storage.SQLDB) *SQLiteGateway {
	return &SQLiteGateway{
		db:    db,
		newID: func() string { return uuid.New().String() },
	}
}

// Create inserts a new document and returns its generated id.
// POST: Document is stored under a fresh uuid
func (g *SQLiteGateway) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id := g.newID()
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO document (collection, id, data, created_seq)
		VALUES (?, ?, ?, COALESCE((SELECT MAX(created_seq) FROM document WHERE collection = ?), 0) + 1)`,
		collection, id, string(data), collection)
	if err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}
	return id, nil
}

// Get reads one document.
// POST: Returns the document or ErrNotFound
func (g *SQLiteGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	var data string
	err := g.db.QueryRowContext(ctx,
		"SELECT data FROM document WHERE collection = ? AND id = ?", collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}, nil
}

// Update merges fields into an existing document with JSON merge-patch.
// POST: Listed fields replaced, others untouched; ErrNotFound if id is unknown
func (g *SQLiteGateway) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	res, err := g.db.ExecContext(ctx,
		"UPDATE document SET data = json_patch(data, ?) WHERE collection = ? AND id = ?",
		string(patch), collection, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return requireRow(res)
}

// Delete removes a document.
// POST: Document is gone; ErrNotFound if it never existed
func (g *SQLiteGateway) Delete(ctx context.Context, collection, id string) error {
	res, err := g.db.ExecContext(ctx,
		"DELETE FROM document WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return requireRow(res)
}

// Query returns every document in the collection matching all filters, in
// creation order.
func (g *SQLiteGateway) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	var b strings.Builder
	args := []any{collection}
	b.WriteString("SELECT id, data FROM document WHERE collection = ?")
	for _, f := range filters {
		op, ok := sqlOps[f.Op]
		if !ok || !fieldNamePattern.MatchString(f.Field) {
			return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedFilter, f.Field, f.Op)
		}
		fmt.Fprintf(&b, " AND json_extract(data, ?) %s ?", op)
		args = append(args, "$."+f.Field, sqlValue(f.Value))
	}
	b.WriteString(" ORDER BY created_seq")

	rows, err := g.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// decodeFields keeps numbers as json.Number so integers survive intact.
func decodeFields(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

// sqlValue converts a filter value to what json_extract yields for the same
// JSON-encoded field.
func sqlValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
