// Package integration provides integration tests for the phone registry API server.
// These tests run the complete server against a PostgreSQL container and a mock
// Twilio API, covering both sync kinds, the query endpoints, the export and the
// live number search.
package integration
