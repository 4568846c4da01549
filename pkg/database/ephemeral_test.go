package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/ingest"
)

func testTable() *ingest.Table {
	return &ingest.Table{
		Name: "products",
		Columns: []ingest.Column{
			{Name: "name", Type: ingest.TypeText},
			{Name: "price", Type: ingest.TypeReal},
			{Name: "stock", Type: ingest.TypeInteger},
		},
		Rows: [][]string{
			{"widget", "9.99", "10"},
			{"gadget", "12.50", "3"},
			{"doohickey", "3.00", ""},
		},
	}
}

func newLoadedStore(t *testing.T) *EphemeralStore {
	t.Helper()
	store, err := NewEphemeralStore(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Load(context.Background(), testTable()))
	return store
}

func TestEphemeralStore_LoadAndCount(t *testing.T) {
	store := newLoadedStore(t)

	count, err := store.Count(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEphemeralStore_LoadReplacesExisting(t *testing.T) {
	store := newLoadedStore(t)

	smaller := testTable()
	smaller.Rows = smaller.Rows[:1]
	require.NoError(t, store.Load(context.Background(), smaller))

	count, err := store.Count(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEphemeralStore_Introspect(t *testing.T) {
	store := newLoadedStore(t)

	columns, err := store.Introspect(context.Background(), "products")
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, ColumnInfo{Name: "name", Type: "TEXT"}, columns[0])
	assert.Equal(t, ColumnInfo{Name: "price", Type: "REAL"}, columns[1])
	assert.Equal(t, ColumnInfo{Name: "stock", Type: "INTEGER"}, columns[2])
}

func TestEphemeralStore_IntrospectMissingTable(t *testing.T) {
	store := newLoadedStore(t)

	_, err := store.Introspect(context.Background(), "nope")
	require.Error(t, err)
}

func TestEphemeralStore_Sample(t *testing.T) {
	store := newLoadedStore(t)

	values, err := store.Sample(context.Background(), "products", "name", 5)
	require.NoError(t, err)
	assert.Len(t, values, 3)
	assert.Contains(t, values, "widget")

	// Empty cell became NULL and must not be sampled.
	values, err = store.Sample(context.Background(), "products", "stock", 5)
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestEphemeralStore_SampleRespectsLimit(t *testing.T) {
	store := newLoadedStore(t)

	values, err := store.Sample(context.Background(), "products", "name", 2)
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestEphemeralStore_CountDistinct(t *testing.T) {
	store := newLoadedStore(t)

	count, err := store.CountDistinct(context.Background(), "products", "price")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEphemeralStore_Execute(t *testing.T) {
	store := newLoadedStore(t)

	result, err := store.Execute(context.Background(), "SELECT AVG(price) AS avg_price FROM products")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"avg_price"}, result.Columns)

	avg, ok := result.Rows[0]["avg_price"].(float64)
	require.True(t, ok, "expected plain float64, got %T", result.Rows[0]["avg_price"])
	assert.InDelta(t, 8.496, avg, 0.01)
}

func TestEphemeralStore_ExecuteReturnsPlainScalars(t *testing.T) {
	store := newLoadedStore(t)

	result, err := store.Execute(context.Background(), "SELECT name, price, stock FROM products ORDER BY name")
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	for _, row := range result.Rows {
		for col, v := range row {
			switch v.(type) {
			case string, int64, float64, nil:
			default:
				t.Errorf("column %q leaked non-scalar type %T", col, v)
			}
		}
	}
}

func TestEphemeralStore_ExecuteEngineErrorVerbatim(t *testing.T) {
	store := newLoadedStore(t)

	_, err := store.Execute(context.Background(), "SELECT nope FROM products")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestEphemeralStore_QuotedIdentifiers(t *testing.T) {
	store, err := NewEphemeralStore(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	table := &ingest.Table{
		Name: "orders",
		Columns: []ingest.Column{
			{Name: "order id", Type: ingest.TypeInteger},
			{Name: "select", Type: ingest.TypeText},
		},
		Rows: [][]string{{"1", "x"}},
	}
	require.NoError(t, store.Load(context.Background(), table))

	columns, err := store.Introspect(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "order id", columns[0].Name)
	assert.Equal(t, "select", columns[1].Name)
}
