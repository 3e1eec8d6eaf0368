package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alexveeuk/Vepi/api"
	"github.com/Alexveeuk/Vepi/types"
)

// requireLiveConfig builds a client config from VENA_* environment
// variables, skipping the test when they are not set. Only read-only
// operations belong in these tests; submissions live in the e2e binary.
func requireLiveConfig(t *testing.T) api.Config {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := api.LoadConfigFromEnv()

	if cfg.Hub == "" {
		t.Skip("VENA_HUB not set")
	}

	if cfg.APIUser == "" || cfg.APIKey == "" {
		t.Skip("VENA_API_USER / VENA_API_KEY not set")
	}

	if cfg.TemplateID == "" {
		t.Skip("VENA_TEMPLATE_ID not set")
	}

	if cfg.ModelID == "" {
		t.Skip("VENA_MODEL_ID not set")
	}

	return cfg
}

// TestLiveDimensionHierarchy reads the hierarchy of the configured model
// from a real tenant.
func TestLiveDimensionHierarchy(t *testing.T) {
	cfg := requireLiveConfig(t)

	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	exp, err := New(Config{Client: client})
	require.NoError(t, err)

	members, err := exp.DimensionHierarchy(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, members)

	t.Logf("model %s has %d hierarchy members across dimensions %v",
		client.ModelID(), len(members), types.Dimensions(members))
}

// TestLiveExportIntersections pulls one small page of intersections from a
// real tenant.
func TestLiveExportIntersections(t *testing.T) {
	cfg := requireLiveConfig(t)

	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	exp, err := New(Config{Client: client})
	require.NoError(t, err)

	ds, err := exp.ExportIntersections(context.Background(), 100)
	require.NoError(t, err)
	require.NotEmpty(t, ds.Columns)

	t.Logf("exported %d rows, columns %v", len(ds.Rows), ds.Columns)
}
