package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/phone-registry-server/internal/db/sqlc"
	"github.com/stacklok/phone-registry-server/internal/provider"
)

var countryColumns = []string{
	"country_code", "country", "beta", "local", "toll_free", "mobile",
	"national", "voip", "shared_cost", "machine_to_machine",
}

var regulationColumns = []string{
	"sid", "friendly_name", "iso_country", "number_type", "end_user_type", "requirements", "url",
}

// dbSyncWriter is a SyncWriter implementation that persists data to PostgreSQL
type dbSyncWriter struct {
	pool *pgxpool.Pool
}

var _ SyncWriter = (*dbSyncWriter)(nil)

// NewDBSyncWriter creates a new dbSyncWriter with the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBSyncWriter(pool *pgxpool.Pool) (SyncWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbSyncWriter{pool: pool}, nil
}

// UpsertCountries bulk upserts availability rows through a temp table.
//
// 1. Creates a temp table dropped at commit
// 2. COPYs the deduplicated rows into it
// 3. Upserts from the temp table, refreshing last_updated
func (d *dbSyncWriter) UpsertCountries(ctx context.Context, countries []provider.CountryAvailability) (int, error) {
	rows := dedupeCountries(countries)
	if len(rows) == 0 {
		return 0, nil
	}

	written, err := d.inTx(ctx, func(tx pgx.Tx, querier *sqlc.Queries) (int64, error) {
		if err := querier.CreateTempCountryTable(ctx); err != nil {
			return 0, fmt.Errorf("failed to create temp country table: %w", err)
		}
		if err := copyRows(ctx, tx, "temp_country_number_types", countryColumns, rows); err != nil {
			return 0, err
		}
		n, err := querier.UpsertCountriesFromTemp(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert countries from temp table: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Upserted countries", "count", written)
	return int(written), nil
}

// UpsertRegulations bulk upserts regulation rows through a temp table
func (d *dbSyncWriter) UpsertRegulations(ctx context.Context, regulations []provider.Regulation) (int, error) {
	rows, dropped := dedupeRegulations(regulations)
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped regulations without sid", "count", dropped)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	written, err := d.inTx(ctx, func(tx pgx.Tx, querier *sqlc.Queries) (int64, error) {
		if err := querier.CreateTempRegulationTable(ctx); err != nil {
			return 0, fmt.Errorf("failed to create temp regulation table: %w", err)
		}
		if err := copyRows(ctx, tx, "temp_regulations", regulationColumns, rows); err != nil {
			return 0, err
		}
		n, err := querier.UpsertRegulationsFromTemp(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert regulations from temp table: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Upserted regulations", "count", written)
	return int(written), nil
}

// inTx runs fn in a read-committed transaction and commits it. The upserts
// take row locks in key order, so overlapping jobs of one kind wait on each
// other instead of failing.
func (d *dbSyncWriter) inTx(ctx context.Context, fn func(pgx.Tx, *sqlc.Queries) (int64, error)) (int64, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.WarnContext(ctx, "Failed to roll back transaction", "error", rollbackErr)
		}
	}()

	n, err := fn(tx, sqlc.New(tx))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) error {
	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy rows to %s: %w", table, err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("copy count mismatch: expected %d, got %d", len(rows), copyCount)
	}
	return nil
}

// dedupeCountries keeps the last record for each country code.
// A single ON CONFLICT statement cannot update the same row twice.
func dedupeCountries(countries []provider.CountryAvailability) [][]any {
	index := make(map[string]int, len(countries))
	rows := make([][]any, 0, len(countries))
	for _, c := range countries {
		row := []any{
			c.CountryCode, c.Country, c.Beta, c.Local, c.TollFree, c.Mobile,
			c.National, c.Voip, c.SharedCost, c.MachineToMachine,
		}
		if i, ok := index[c.CountryCode]; ok {
			rows[i] = row
			continue
		}
		index[c.CountryCode] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

// dedupeRegulations keeps the last record for each sid and drops records
// without one. It returns the rows and the number of dropped records.
func dedupeRegulations(regulations []provider.Regulation) ([][]any, int) {
	index := make(map[string]int, len(regulations))
	rows := make([][]any, 0, len(regulations))
	dropped := 0
	for _, r := range regulations {
		if r.Sid == "" {
			dropped++
			continue
		}
		endUserType := r.EndUserType
		if endUserType == "" {
			endUserType = provider.EndUserTypeBusiness
		}
		var requirements any
		if len(r.Requirements) > 0 {
			requirements = []byte(r.Requirements)
		}
		row := []any{
			r.Sid,
			nilIfEmpty(r.FriendlyName),
			nilIfEmpty(r.IsoCountry),
			nilIfEmpty(r.NumberType),
			endUserType,
			requirements,
			nilIfEmpty(r.URL),
		}
		if i, ok := index[r.Sid]; ok {
			rows[i] = row
			continue
		}
		index[r.Sid] = len(rows)
		rows = append(rows, row)
	}
	return rows, dropped
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
