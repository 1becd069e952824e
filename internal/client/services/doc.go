// Package services holds the client application services. WalletService
// turns the encrypted blob managed by blobsync into a typed wallet document
// and back, using the key held by the session controller.
package services
