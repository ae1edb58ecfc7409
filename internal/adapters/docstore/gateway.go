// Package docstore is a thin, generic client for a remote document database:
// named collections of schemaless documents addressed by store-assigned ids.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get, Update and Delete for an unknown id.
	ErrNotFound = errors.New("document not found")
	// ErrUnsupportedFilter is returned for a filter operator the backend cannot evaluate.
	ErrUnsupportedFilter = errors.New("unsupported filter operator")
)

// Document is a stored record: its id plus a flat map of named fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// Filter is one equality or range constraint on a top-level field.
// Op is one of "==", "!=", "<", "<=", ">", ">=".
type Filter struct {
	Field string
	Op    string
	Value any
}

// Where is shorthand for an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Op: "==", Value: value}
}

// Gateway is the generic create/get/update/delete/query surface.
// Update is a shallow merge: fields absent from the map keep their stored values.
type Gateway interface {
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}
