package proto

import "google.golang.org/protobuf/encoding/protowire"

type SignUpRequest struct {
	Email    string
	Password string
	Metadata map[string]string
}

func (m *SignUpRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	return appendMap(b, 3, m.Metadata)
}

func (m *SignUpRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Email)
		case 2:
			return consumeString(typ, b, &m.Password)
		case 3:
			return consumeMapEntry(typ, b, &m.Metadata)
		}
		return 0, nil
	})
}

type SignInRequest struct {
	Email    string
	Password string
}

func (m *SignInRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Password)
}

func (m *SignInRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Email)
		case 2:
			return consumeString(typ, b, &m.Password)
		}
		return 0, nil
	})
}

// AuthResponse is returned by SignUp and SignIn.
type AuthResponse struct {
	UserID       string
	Email        string
	Metadata     map[string]string
	AccessToken  string
	RefreshToken string
}

func (m *AuthResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	b = appendString(b, 2, m.Email)
	b = appendMap(b, 3, m.Metadata)
	b = appendString(b, 4, m.AccessToken)
	return appendString(b, 5, m.RefreshToken)
}

func (m *AuthResponse) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.Email)
		case 3:
			return consumeMapEntry(typ, b, &m.Metadata)
		case 4:
			return consumeString(typ, b, &m.AccessToken)
		case 5:
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, nil
	})
}

type RefreshTokenRequest struct {
	RefreshToken string
}

func (m *RefreshTokenRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.RefreshToken)
}

func (m *RefreshTokenRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, nil
	})
}

type RefreshTokenResponse struct {
	AccessToken  string
	RefreshToken string
}

func (m *RefreshTokenResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.AccessToken)
	return appendString(b, 2, m.RefreshToken)
}

func (m *RefreshTokenResponse) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.AccessToken)
		case 2:
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, nil
	})
}

// UpdateMetadataRequest merges Metadata into the user's stored metadata.
type UpdateMetadataRequest struct {
	UserID   string
	Metadata map[string]string
}

func (m *UpdateMetadataRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	return appendMap(b, 2, m.Metadata)
}

func (m *UpdateMetadataRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserID)
		case 2:
			return consumeMapEntry(typ, b, &m.Metadata)
		}
		return 0, nil
	})
}

// UpdateMetadataResponse carries the metadata after the merge.
type UpdateMetadataResponse struct {
	Metadata map[string]string
}

func (m *UpdateMetadataResponse) appendWire(b []byte) []byte {
	return appendMap(b, 1, m.Metadata)
}

func (m *UpdateMetadataResponse) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeMapEntry(typ, b, &m.Metadata)
		}
		return 0, nil
	})
}

type GetBlobRequest struct {
	UserID string
}

func (m *GetBlobRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.UserID)
}

func (m *GetBlobRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeString(typ, b, &m.UserID)
		}
		return 0, nil
	})
}

// GetBlobResponse has Found=false when the user has never stored a blob.
type GetBlobResponse struct {
	Found           bool
	IV              string
	Ciphertext      string
	UpdatedAtUnixMs int64
}

func (m *GetBlobResponse) appendWire(b []byte) []byte {
	b = appendBool(b, 1, m.Found)
	b = appendString(b, 2, m.IV)
	b = appendString(b, 3, m.Ciphertext)
	return appendInt64(b, 4, m.UpdatedAtUnixMs)
}

func (m *GetBlobResponse) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBool(typ, b, &m.Found)
		case 2:
			return consumeString(typ, b, &m.IV)
		case 3:
			return consumeString(typ, b, &m.Ciphertext)
		case 4:
			return consumeInt64(typ, b, &m.UpdatedAtUnixMs)
		}
		return 0, nil
	})
}

type PutBlobRequest struct {
	UserID     string
	IV         string
	Ciphertext string
}

func (m *PutBlobRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	b = appendString(b, 2, m.IV)
	return appendString(b, 3, m.Ciphertext)
}

func (m *PutBlobRequest) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.IV)
		case 3:
			return consumeString(typ, b, &m.Ciphertext)
		}
		return 0, nil
	})
}

type PutBlobResponse struct {
	UpdatedAtUnixMs int64
}

func (m *PutBlobResponse) appendWire(b []byte) []byte {
	return appendInt64(b, 1, m.UpdatedAtUnixMs)
}

func (m *PutBlobResponse) consumeWire(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt64(typ, b, &m.UpdatedAtUnixMs)
		}
		return 0, nil
	})
}

type PingRequest struct{}

func (m *PingRequest) appendWire(b []byte) []byte { return b }

func (m *PingRequest) consumeWire(b []byte) error {
	return walk(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

type PingResponse struct{}

func (m *PingResponse) appendWire(b []byte) []byte { return b }

func (m *PingResponse) consumeWire(b []byte) error {
	return walk(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}
