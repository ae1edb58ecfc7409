package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreGateway is the production Gateway backed by Cloud Firestore.
type FirestoreGateway struct {
	client *firestore.Client
}

var _ Gateway = (*FirestoreGateway)(nil)

// NewFirestoreGateway opens a Firestore client from an initialised Firebase app.
// PRE: app was created with a project id and credentials
// POST: Returns a gateway; caller must Close it on shutdown
func NewFirestoreGateway(ctx context.Context, app *firebase.App) (*FirestoreGateway, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}
	return &FirestoreGateway{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (g *FirestoreGateway) Close() error {
	return g.client.Close()
}

// Create adds a document with an auto-generated id.
func (g *FirestoreGateway) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref, _, err := g.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}
	return ref.ID, nil
}

// Get reads one document snapshot.
func (g *FirestoreGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := g.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return Document{}, mapError(err, "get "+collection+"/"+id)
	}
	return Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// Update sets the listed top-level fields. Firestore rejects updates to
// missing documents, which surfaces as ErrNotFound.
func (g *FirestoreGateway) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: fields[k]})
	}
	_, err := g.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapError(err, "update "+collection+"/"+id)
}

// Delete removes a document, failing with ErrNotFound if it does not exist.
func (g *FirestoreGateway) Delete(ctx context.Context, collection, id string) error {
	_, err := g.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	return mapError(err, "delete "+collection+"/"+id)
}

// Query runs a conjunction of Where clauses.
func (g *FirestoreGateway) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := g.client.Collection(collection).Query
	for _, f := range filters {
		if _, ok := sqlOps[f.Op]; !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedFilter, f.Field, f.Op)
		}
		q = q.Where(f.Field, f.Op, firestoreValue(f.Value))
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err, "query "+collection)
	}
	docs := make([]Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, Document{ID: s.Ref.ID, Fields: s.Data()})
	}
	return docs, nil
}

// firestoreValue unwraps named string types the SDK would otherwise reject.
func firestoreValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
