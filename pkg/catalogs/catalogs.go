// Package catalogs defines the storefront product model and the local catalog
// store contract.
//
// Products arrive from the remote catalog as loosely-typed records where any
// field may be absent. Normalize converts them into PersistedProduct rows in
// one place, substituting defaults and assigning display order. Stores in the
// memory, files, and leveldb subpackages persist those rows.
//
// Example usage:
//
//	store := memory.New()
//	if err := store.ReplaceAll(ctx, products); err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range store.FetchAllOrdered(ctx) {
//	    fmt.Printf("%d: %s\n", row.OrderNumber, row.Title)
//	}
package catalogs
