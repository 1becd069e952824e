// Package proto holds the wire messages and service descriptor of the
// cardkeeper WalletStore gRPC service.
//
// Messages are encoded in the protobuf binary format with protowire, so any
// protobuf peer with the matching schema (see walletstore.proto) can talk to
// the service. Both ends must select Codec: the client stub does it per call,
// the server through grpc.ForceServerCodec.
package proto

import (
	"errors"
	"fmt"
)

var errWireType = errors.New("proto: unexpected wire type")

// Message is implemented by every request and response in this package.
type Message interface {
	appendWire(b []byte) []byte
	consumeWire(b []byte) error
}

// Codec implements encoding.Codec for the messages in this package.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("proto: cannot marshal %T", v)
	}
	return m.appendWire(nil), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("proto: cannot unmarshal into %T", v)
	}
	return m.consumeWire(data)
}
