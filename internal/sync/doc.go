// Package sync provides the data synchronization pipeline of the phone
// registry server.
//
// A sync job walks three steps:
//
//  1. Enumerate every country the provider account can buy numbers in.
//     The number of countries is recorded as the job total.
//  2. Fan out one task per country under a concurrency ceiling (10 by
//     default). Number-type jobs fetch the country detail payload and extract
//     availability flags. Regulation jobs list all business regulations of
//     the country. A failing country is logged and skipped; every success
//     increments the job's processed counter.
//  3. Upsert the aggregate in a single transaction.
//
// Enumeration and write failures are batch-level: they are returned as an
// *Error and the job ends up failed. Finalizing the job (completed or failed)
// is the responsibility of the caller, normally the sync/coordinator package,
// which also owns asynchronous hand-off and cron scheduling.
package sync
