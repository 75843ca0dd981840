// Package storetest provides a conformance suite for catalogs.Store implementations.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/catalogs"
)

// Factory opens a fresh, empty store for one subtest.
type Factory func(t *testing.T) catalogs.Store

// Run exercises the reconciliation contract every store must honor.
func Run(t *testing.T, open Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store reads empty", func(t *testing.T) {
		store := open(t)
		rows := store.FetchAllOrdered(ctx)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("replace all orders by input", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, 5, 3, 9, 1)))

		rows := store.FetchAllOrdered(ctx)
		require.Len(t, rows, 4)
		assert.Equal(t, []int64{5, 3, 9, 1}, catalogs.RowIDs(rows))
		for i, row := range rows {
			assert.Equal(t, int64(i), row.OrderNumber)
		}
	})

	t.Run("replace all discards previous rows", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, 1, 2, 3, 4, 5, 6, 7)))
		require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, 8, 2)))

		assert.Equal(t, []int64{8, 2}, catalogs.RowIDs(store.FetchAllOrdered(ctx)))
	})

	t.Run("replace all is idempotent", func(t *testing.T) {
		store := open(t)
		records := catalogs.TestProducts(t, 4, 2, 7)
		require.NoError(t, store.ReplaceAll(ctx, records))
		first := store.FetchAllOrdered(ctx)

		require.NoError(t, store.ReplaceAll(ctx, records))
		assert.Equal(t, first, store.FetchAllOrdered(ctx))
	})

	t.Run("replace all with empty input clears", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, 1, 2)))
		require.NoError(t, store.ReplaceAll(ctx, nil))
		assert.Empty(t, store.FetchAllOrdered(ctx))
	})

	t.Run("replace all drops records without ID", func(t *testing.T) {
		store := open(t)
		orphan := catalogs.NewProduct()
		orphan.Title = ptr.To("orphan")
		records := append(catalogs.TestProducts(t, 1), orphan, catalogs.TestProduct(t, 2))

		require.NoError(t, store.ReplaceAll(ctx, records))
		rows := store.FetchAllOrdered(ctx)
		assert.Equal(t, []int64{1, 2}, catalogs.RowIDs(rows))
		assert.Equal(t, int64(1), rows[1].OrderNumber)
	})

	t.Run("merge matches incoming ID set", func(t *testing.T) {
		cases := []struct {
			name     string
			prior    []int64
			incoming []int64
		}{
			{"empty prior", nil, []int64{1, 2, 3}},
			{"identical", []int64{1, 2, 3}, []int64{1, 2, 3}},
			{"overlapping", []int64{1, 2, 3}, []int64{3, 4, 1}},
			{"disjoint", []int64{1, 2}, []int64{7, 8, 9}},
			{"subset", []int64{1, 2, 3, 4}, []int64{2}},
			{"empty incoming", []int64{1, 2}, nil},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store := open(t)
				require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, tc.prior...)))
				require.NoError(t, store.Merge(ctx, catalogs.TestProducts(t, tc.incoming...)))

				rows := store.FetchAllOrdered(ctx)
				expected := tc.incoming
				if expected == nil {
					expected = []int64{}
				}
				assert.Equal(t, expected, catalogs.RowIDs(rows))
				for i, row := range rows {
					assert.Equal(t, int64(i), row.OrderNumber)
				}
			})
		}
	})

	t.Run("merge updates fields in place", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.ReplaceAll(ctx, catalogs.TestProducts(t, 1, 2)))

		updated := catalogs.TestProduct(t, 2)
		updated.Title = ptr.To("Renamed")
		updated.Price = nil
		require.NoError(t, store.Merge(ctx, []catalogs.Product{updated, catalogs.TestProduct(t, 1)}))

		rows := store.FetchAllOrdered(ctx)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(2), rows[0].ID)
		assert.Equal(t, "Renamed", rows[0].Title)
		assert.Equal(t, 0.0, rows[0].Price)
	})

	t.Run("merge and replace reach the same state", func(t *testing.T) {
		merged := open(t)
		replaced := open(t)
		prior := catalogs.TestProducts(t, 1, 2, 3)
		incoming := catalogs.TestProducts(t, 3, 5, 1)

		require.NoError(t, merged.ReplaceAll(ctx, prior))
		require.NoError(t, merged.Merge(ctx, incoming))
		require.NoError(t, replaced.ReplaceAll(ctx, incoming))

		assert.Equal(t, replaced.FetchAllOrdered(ctx), merged.FetchAllOrdered(ctx))
	})

	t.Run("round trips through denormalize", func(t *testing.T) {
		store := open(t)
		records := catalogs.TestProducts(t, 11, 12)
		require.NoError(t, store.ReplaceAll(ctx, records))

		products := catalogs.Denormalize(store.FetchAllOrdered(ctx))
		require.Len(t, products, 2)
		for i := range records {
			assert.True(t, records[i].Equal(products[i]), "product %d", i)
		}
	})

	t.Run("readers see whole states during writes", func(t *testing.T) {
		store := open(t)
		small := catalogs.TestProducts(t, 1, 2)
		large := catalogs.TestProducts(t, 10, 11, 12, 13, 14)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if i%2 == 0 {
					assert.NoError(t, store.ReplaceAll(ctx, small))
				} else {
					assert.NoError(t, store.Merge(ctx, large))
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				ids := catalogs.RowIDs(store.FetchAllOrdered(ctx))
				switch len(ids) {
				case 0:
				case 2:
					assert.Equal(t, []int64{1, 2}, ids)
				default:
					assert.Equal(t, []int64{10, 11, 12, 13, 14}, ids)
				}
			}
		}()
		wg.Wait()
	})
}
