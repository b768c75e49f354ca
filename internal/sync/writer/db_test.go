package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/phone-registry-server/database"
	"github.com/stacklok/phone-registry-server/internal/db/sqlc"
	"github.com/stacklok/phone-registry-server/internal/provider"
)

// setupTestDB creates a migrated test database and returns a pool on it
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	return pool
}

func newTestWriter(t *testing.T, pool *pgxpool.Pool) SyncWriter {
	t.Helper()
	w, err := NewDBSyncWriter(pool)
	require.NoError(t, err)
	return w
}

func testRegulationSID(suffix string) string {
	sid := "RN" + suffix
	for len(sid) < 34 {
		sid += "0"
	}
	return sid
}

func TestNewDBSyncWriter_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewDBSyncWriter(nil)
	require.Error(t, err)
}

func TestUpsertCountries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := setupTestDB(t)
	w := newTestWriter(t, pool)
	queries := sqlc.New(pool)

	n, err := w.UpsertCountries(ctx, []provider.CountryAvailability{
		{CountryCode: "US", Country: "United States", NumberTypes: provider.NumberTypes{Local: true, TollFree: true}},
		{CountryCode: "GB", Country: "United Kingdom", NumberTypes: provider.NumberTypes{Mobile: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := queries.GetCountryNumberTypes(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, "United States", first.Country)
	assert.True(t, first.Local)
	assert.True(t, first.TollFree)
	assert.False(t, first.Mobile)

	time.Sleep(10 * time.Millisecond)

	// second write overwrites every flag and advances last_updated
	n, err = w.UpsertCountries(ctx, []provider.CountryAvailability{
		{CountryCode: "US", Country: "United States of America", Beta: true, NumberTypes: provider.NumberTypes{Mobile: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second, err := queries.GetCountryNumberTypes(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, "United States of America", second.Country)
	assert.True(t, second.Beta)
	assert.False(t, second.Local)
	assert.False(t, second.TollFree)
	assert.True(t, second.Mobile)
	assert.True(t, second.LastUpdated.Time.After(first.LastUpdated.Time))

	all, err := queries.ListCountryNumberTypes(ctx, sqlc.ListCountryNumberTypesParams{Size: 100})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsert_OverlappingBatchesConcurrently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := setupTestDB(t)
	w := newTestWriter(t, pool)

	countries := make([]provider.CountryAvailability, 0, 50)
	regulations := make([]provider.Regulation, 0, 50)
	for i := range 50 {
		code := fmt.Sprintf("%c%c", 'A'+i/26, 'A'+i%26)
		countries = append(countries, provider.CountryAvailability{
			CountryCode: code, Country: "Country " + code, NumberTypes: provider.NumberTypes{Local: i%2 == 0},
		})
		regulations = append(regulations, provider.Regulation{
			Sid: testRegulationSID(fmt.Sprintf("C%02d", i)), IsoCountry: code, NumberType: "local", EndUserType: "business",
		})
	}

	// Scheduled and manual runs of one kind may overlap; batches arrive in
	// different orders and every run must still commit.
	g, gctx := errgroup.WithContext(ctx)
	for run := range 6 {
		batchCountries := slices.Clone(countries)
		batchRegulations := slices.Clone(regulations)
		if run%2 == 1 {
			slices.Reverse(batchCountries)
			slices.Reverse(batchRegulations)
		}
		g.Go(func() error {
			if _, err := w.UpsertCountries(gctx, batchCountries); err != nil {
				return err
			}
			_, err := w.UpsertRegulations(gctx, batchRegulations)
			return err
		})
	}
	require.NoError(t, g.Wait())

	queries := sqlc.New(pool)
	all, err := queries.ListCountryNumberTypes(ctx, sqlc.ListCountryNumberTypesParams{Size: 100})
	require.NoError(t, err)
	assert.Len(t, all, 50)

	var regulationRows int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM regulations").Scan(&regulationRows))
	assert.Equal(t, 50, regulationRows)
}

func TestUpsertCountries_DuplicateKeysKeepLast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := setupTestDB(t)
	w := newTestWriter(t, pool)

	n, err := w.UpsertCountries(ctx, []provider.CountryAvailability{
		{CountryCode: "DE", Country: "Germany", NumberTypes: provider.NumberTypes{Local: true}},
		{CountryCode: "DE", Country: "Deutschland", NumberTypes: provider.NumberTypes{Voip: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := sqlc.New(pool).GetCountryNumberTypes(ctx, "DE")
	require.NoError(t, err)
	assert.Equal(t, "Deutschland", row.Country)
	assert.False(t, row.Local)
	assert.True(t, row.Voip)
}

func TestUpsert_EmptyInputIsNoop(t *testing.T) {
	t.Parallel()

	// a nil pool would panic if a transaction were opened
	w := &dbSyncWriter{}

	n, err := w.UpsertCountries(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = w.UpsertRegulations(context.Background(), []provider.Regulation{{FriendlyName: "no sid"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertRegulations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := setupTestDB(t)
	w := newTestWriter(t, pool)
	queries := sqlc.New(pool)

	requirements := json.RawMessage(`{"end_user":[{"name":"Business","detailed_fields":[]}]}`)
	n, err := w.UpsertRegulations(ctx, []provider.Regulation{
		{Sid: testRegulationSID("1"), FriendlyName: "Local business", IsoCountry: "DE", NumberType: "local", EndUserType: "business", Requirements: requirements},
		{FriendlyName: "missing sid", IsoCountry: "DE"},
		{Sid: testRegulationSID("2"), IsoCountry: "DE", EndUserType: "business"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := queries.ListRegulationsByCountry(ctx, sqlc.ListRegulationsByCountryParams{IsoCountry: "DE"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// NULL number types sort first
	assert.Equal(t, testRegulationSID("2"), rows[0].Sid)
	assert.False(t, rows[0].NumberType.Valid)
	assert.False(t, rows[0].FriendlyName.Valid)
	assert.Nil(t, rows[0].Requirements)

	assert.Equal(t, testRegulationSID("1"), rows[1].Sid)
	assert.Equal(t, "local", rows[1].NumberType.String)
	assert.JSONEq(t, string(requirements), string(rows[1].Requirements))

	// requirements are replaced wholesale
	n, err = w.UpsertRegulations(ctx, []provider.Regulation{
		{Sid: testRegulationSID("1"), FriendlyName: "Local business v2", IsoCountry: "DE", NumberType: "local", Requirements: json.RawMessage(`{"supporting_document":[]}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err = queries.ListRegulationsByCountry(ctx, sqlc.ListRegulationsByCountryParams{IsoCountry: "DE"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Local business v2", rows[1].FriendlyName.String)
	assert.Equal(t, "business", rows[1].EndUserType)
	assert.JSONEq(t, `{"supporting_document":[]}`, string(rows[1].Requirements))
}

func TestDedupeRegulations(t *testing.T) {
	t.Parallel()

	rows, dropped := dedupeRegulations([]provider.Regulation{
		{Sid: "a", FriendlyName: "first"},
		{Sid: ""},
		{Sid: "b"},
		{Sid: "a", FriendlyName: "second"},
	})
	assert.Equal(t, 1, dropped)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][0])
	assert.Equal(t, "second", *rows[0][1].(*string))
	assert.Equal(t, provider.EndUserTypeBusiness, rows[1][4])
}
