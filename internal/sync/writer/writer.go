// Package writer contains the SyncWriter interface and its PostgreSQL implementation
package writer

import (
	"context"

	"github.com/stacklok/phone-registry-server/internal/provider"
)

//go:generate mockgen -destination=mocks/mock_sync_writer.go -package=mocks -source=writer.go SyncWriter

// SyncWriter defines the interface needed to persist synced provider data.
// Every call is all-or-nothing and returns the number of rows written.
type SyncWriter interface {
	// UpsertCountries creates or overwrites one availability row per country code
	UpsertCountries(ctx context.Context, countries []provider.CountryAvailability) (int, error)

	// UpsertRegulations creates or overwrites one row per regulation sid.
	// Records without a sid are dropped.
	UpsertRegulations(ctx context.Context, regulations []provider.Regulation) (int, error)
}
