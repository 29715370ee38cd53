package typesense

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/pkg/config"
)

func TestCardsSchema(t *testing.T) {
	schema := CardsSchema()

	assert.Equal(t, CardsCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "string", fields["owner_id"])
	assert.Equal(t, "string", fields["store_name"])
	assert.Equal(t, "geopoint[]", fields["locations"])
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("set TEST_INTEGRATION=true to run against a local Typesense")
	}

	client, err := NewClient(context.Background(), &config.TypesenseConfig{
		URL:    "http://localhost:8108",
		APIKey: "xyz",
	})
	require.NoError(t, err)

	assert.NoError(t, client.InitSchema(context.Background()))
	// second call is a no-op
	assert.NoError(t, client.InitSchema(context.Background()))
}
