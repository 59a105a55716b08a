package service

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/chartpilot/chartpilot/internal/models"
)

// BigQueryService implements SchemaProvider and QueryExecutor against a
// BigQuery project. The data-source identity is a dataset ID.
type BigQueryService struct {
	client    *bigquery.Client
	projectID string
	location  string
}

func NewBigQueryService(ctx context.Context, projectID, credentialsFile, location string) (*BigQueryService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	return &BigQueryService{client: client, projectID: projectID, location: location}, nil
}

func (s *BigQueryService) Close() error { return s.client.Close() }

// Ping verifies connectivity with a trivial query.
func (s *BigQueryService) Ping(ctx context.Context) error {
	q := s.client.Query("SELECT 1")
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job wait: %w", err)
	}
	return status.Err()
}

// GetSchema builds a raw schema from one dataset's tables. BigQuery has no
// primary or foreign keys, so those fields stay empty.
func (s *BigQueryService) GetSchema(ctx context.Context, datasetID string) (*models.RawSchema, error) {
	schema := &models.RawSchema{Database: s.projectID + "." + datasetID}

	it := s.client.Dataset(datasetID).Tables(ctx)
	for {
		tbl, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		meta, err := tbl.Metadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("table metadata %q: %w", tbl.TableID, err)
		}
		table := models.SchemaTable{Name: tbl.TableID}
		for _, f := range meta.Schema {
			table.Columns = append(table.Columns, models.SchemaColumn{
				Name:     f.Name,
				Type:     string(f.Type),
				Nullable: !f.Required,
			})
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

// Execute runs read-only SQL with :name parameters bound as BigQuery named
// query parameters.
func (s *BigQueryService) Execute(ctx context.Context, _ string, sql string, params map[string]interface{}) ([]map[string]interface{}, error) {
	q := s.client.Query(rewriteColonParams(sql))
	if s.location != "" {
		q.Location = s.location
	}
	for name, value := range params {
		q.Parameters = append(q.Parameters, bigquery.QueryParameter{Name: name, Value: value})
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("job wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("job read: %w", err)
	}

	var out []map[string]interface{}
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		m := make(map[string]interface{}, len(row))
		for k, v := range row {
			m[k] = v
		}
		out = append(out, m)
	}
	return out, nil
}
