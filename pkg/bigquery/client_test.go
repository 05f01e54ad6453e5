package bigquery

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
)

func TestNewTableRef(t *testing.T) {
	ref, err := newTableRef(
		config.GCPConfig{ProjectID: " bazaar-prod "},
		config.BigQueryConfig{Dataset: "project_bazaar", MarketplaceEventsTable: " marketplace_events "},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ref.String(); got != "bazaar-prod.project_bazaar.marketplace_events" {
		t.Fatalf("unexpected table ref %q", got)
	}
}

func TestNewTableRefRequiresEachPart(t *testing.T) {
	cases := []struct {
		name string
		gcp  config.GCPConfig
		bq   config.BigQueryConfig
		want error
	}{
		{"project", config.GCPConfig{}, config.BigQueryConfig{Dataset: "d", MarketplaceEventsTable: "t"}, errProjectIDRequired},
		{"dataset", config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{MarketplaceEventsTable: "t"}, errDatasetRequired},
		{"table", config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "d"}, errTableNameRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newTableRef(tc.gcp, tc.bq); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	if err := c.Ping(context.Background()); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := c.InsertMarketplaceEvents(context.Background(), []MarketplaceEventRow{{EventID: "e"}}); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&googleapi.Error{Code: 404}) {
		t.Fatal("expected 404 to be not found")
	}
	if isNotFound(&googleapi.Error{Code: 403}) {
		t.Fatal("403 is not a not found")
	}
	if isNotFound(errors.New("plain")) {
		t.Fatal("plain error is not a not found")
	}
}

func TestRowSaveUsesEventIDAsInsertID(t *testing.T) {
	row := MarketplaceEventRow{
		EventID:     "evt-1",
		EventType:   "purchase_recorded",
		AmountMinor: bigquery.NullInt64{Int64: 49900, Valid: true},
	}
	values, insertID, err := row.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if insertID != "evt-1" {
		t.Fatalf("expected insert id evt-1, got %q", insertID)
	}
	if values["event_type"] != "purchase_recorded" {
		t.Fatalf("unexpected event_type %v", values["event_type"])
	}
	if got, ok := values["listing_id"].(bigquery.NullString); !ok || got.Valid {
		t.Fatalf("listing_id should be a NULL string, got %#v", values["listing_id"])
	}
	if len(values) != 14 {
		t.Fatalf("expected 14 columns, got %d", len(values))
	}
}
