// Package client talks to the remote wallet store and bootstraps the local
// SQLite database.
//
// # Overview
//
//  1. GRPCClient implements the remote side of the wallet: SignUp, SignIn
//     and UpdateMetadata for the session layer, GetBlob and PutBlob for
//     the sync layer, and Ping for the connectivity watcher. The access
//     token is attached by an interceptor that refreshes it once when the
//     server reports it expired.
//  2. InitDatabase and RunMigrations open the local store and apply the
//     embedded goose migrations.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers match with
// errors.Is: ErrUnavailable (unreachable or timed out), ErrUnauthorized and
// ErrAlreadyExists. Anything else is wrapped as "rpc error".
//
// GRPCClient is safe for concurrent use. Every call is bounded by the
// configured request timeout.
package client
