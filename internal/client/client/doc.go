// Package client contains the client-side boundary of the note sync engine.
//
// # Overview
//
// The package provides:
//  1. The Client interface: the remote note store contract used by the sync
//     processor (Create, Update, Delete, Get, ListAll, Ping).
//  2. HTTPClient, a REST implementation talking JSON to the notes server.
//  3. HealthProber, a gRPC health-check probe used for connectivity detection.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring the
//     SQLite store and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable and are retryable. Server answers
// are reported as *RemoteError whose Kind is ErrNotFound, ErrConflict,
// ErrRejected or ErrUnavailable; match them with errors.Is.
package client
