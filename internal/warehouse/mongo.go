package warehouse

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// Mongo maps dataset to database and table to collection.
type Mongo struct {
	client     *mongo.Client
	ids        IDGenerator
	autoCreate bool
}

var _ Inserter = (*Mongo)(nil)

// NewMongo connects to uri.
func NewMongo(ctx context.Context, uri string, ids IDGenerator, autoCreate bool) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{client: client, ids: ids, autoCreate: autoCreate}, nil
}

// Exists lists the collection, creating it first when auto-create is on.
func (m *Mongo) Exists(ctx context.Context, ref TableRef) error {
	db := m.client.Database(ref.Dataset)

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: ref.Table}})
	if err != nil {
		return fmt.Errorf("lookup collection %s: %w", ref, err)
	}
	if len(names) > 0 {
		return nil
	}

	if !m.autoCreate {
		return fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}

	if err := db.CreateCollection(ctx, ref.Table); err != nil {
		return fmt.Errorf("create collection %s: %w", ref, err)
	}

	return nil
}

// Insert uses an unordered InsertMany so every valid row is written even
// when some are rejected.
func (m *Mongo) Insert(ctx context.Context, ref TableRef, rows []csvrow.Row) ([]RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := insertIDs(m.ids, len(rows))
	docs := make([]any, len(rows))
	for i, row := range rows {
		doc := bson.M{}
		for k, v := range row {
			doc[k] = v
		}
		if ids[i] != "" {
			doc["_id"] = ids[i]
		}
		docs[i] = doc
	}

	coll := m.client.Database(ref.Dataset).Collection(ref.Table)
	_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return nil, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return nil, fmt.Errorf("insert into %s: %w", ref, err)
	}

	rowErrs := make([]RowError, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		rowErrs = append(rowErrs, RowError{
			Index:    we.Index,
			InsertID: ids[we.Index],
			Reason:   we.Message,
		})
	}

	return rowErrs, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
