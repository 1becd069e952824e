// Package common contains shared constants, sentinel errors and small byte
// helpers used by both the client and the reference server.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SaltMetadataKey is the user-metadata key the account salt is stored under.
const SaltMetadataKey = "salt"
