package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/gcp"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// tableRef names the marketplace_events table.
type tableRef struct {
	project, dataset, table string
}

func newTableRef(gcpCfg config.GCPConfig, cfg config.BigQueryConfig) (tableRef, error) {
	ref := tableRef{
		project: strings.TrimSpace(gcpCfg.ProjectID),
		dataset: strings.TrimSpace(cfg.Dataset),
		table:   strings.TrimSpace(cfg.MarketplaceEventsTable),
	}
	switch {
	case ref.project == "":
		return ref, errProjectIDRequired
	case ref.dataset == "":
		return ref, errDatasetRequired
	case ref.table == "":
		return ref, errTableNameRequired
	}
	return ref, nil
}

func (r tableRef) String() string {
	return r.project + "." + r.dataset + "." + r.table
}

// Client streams marketplace events into the warehouse.
type Client struct {
	client *bigquery.Client
	table  *bigquery.Table
	ref    tableRef
}

// NewClient connects and fails when the events table cannot be read.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	ref, err := newTableRef(gcpCfg, cfg)
	if err != nil {
		return nil, err
	}
	raw, err := bigquery.NewClient(ctx, ref.project, gcp.CloudOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("dial bigquery: %w", err)
	}

	c := &Client{client: raw, table: raw.Dataset(ref.dataset).Table(ref.table), ref: ref}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "table", ref.String()), "bigquery client initialized")
	}
	return c, nil
}

// Ping reads the table metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.table == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	_, err := c.table.Metadata(ctx)
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return fmt.Errorf("table %s does not exist", c.ref)
	default:
		return fmt.Errorf("read table %s: %w", c.ref, err)
	}
}

// InsertMarketplaceEvents streams rows. The event id is the insert id, so
// BigQuery drops rows a retry sends twice.
func (c *Client) InsertMarketplaceEvents(ctx context.Context, rows []MarketplaceEventRow) error {
	if c == nil || c.table == nil {
		return errClientNotInitialized
	}
	if len(rows) == 0 {
		return nil
	}
	return c.table.Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
