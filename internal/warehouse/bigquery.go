package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// BigQuery streams rows with the tabledata.insertAll API.
type BigQuery struct {
	client *bigquery.Client
	ids    IDGenerator
}

var _ Inserter = (*BigQuery)(nil)

// NewBigQuery creates a client for project. Credentials come from the
// environment (GOOGLE_APPLICATION_CREDENTIALS or metadata server) unless opts
// say otherwise.
func NewBigQuery(ctx context.Context, project string, ids IDGenerator, opts ...option.ClientOption) (*BigQuery, error) {
	if project == "" {
		project = bigquery.DetectProjectID
	}

	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	return &BigQuery{client: client, ids: ids}, nil
}

func (b *BigQuery) table(ref TableRef) *bigquery.Table {
	project := ref.Project
	if project == "" {
		project = b.client.Project()
	}
	return b.client.DatasetInProject(project, ref.Dataset).Table(ref.Table)
}

// Exists fetches the table metadata.
func (b *BigQuery) Exists(ctx context.Context, ref TableRef) error {
	_, err := b.table(ref).Metadata(ctx)
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}

	return fmt.Errorf("get table %s: %w", ref, err)
}

// Insert sends rows in one insertAll request. Cells are sent as strings and
// coerced by BigQuery against the table schema.
func (b *BigQuery) Insert(ctx context.Context, ref TableRef, rows []csvrow.Row) ([]RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := insertIDs(b.ids, len(rows))
	savers := make([]*rowSaver, len(rows))
	for i, row := range rows {
		savers[i] = &rowSaver{row: row, insertID: ids[i]}
	}

	err := b.table(ref).Inserter().Put(ctx, savers)
	if err == nil {
		return nil, nil
	}

	var multi bigquery.PutMultiError
	if !errors.As(err, &multi) {
		return nil, fmt.Errorf("insert into %s: %w", ref, err)
	}

	rowErrs := make([]RowError, 0, len(multi))
	for _, rie := range multi {
		rowErrs = append(rowErrs, RowError{
			Index:    rie.RowIndex,
			InsertID: rie.InsertID,
			Reason:   rie.Errors.Error(),
		})
	}

	return rowErrs, nil
}

// Close releases the client.
func (b *BigQuery) Close() error {
	return b.client.Close()
}

type rowSaver struct {
	row      csvrow.Row
	insertID string
}

// Save implements bigquery.ValueSaver.
func (s *rowSaver) Save() (map[string]bigquery.Value, string, error) {
	out := make(map[string]bigquery.Value, len(s.row))
	for k, v := range s.row {
		out[k] = v
	}
	return out, s.insertID, nil
}
