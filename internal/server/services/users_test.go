package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	u, pair, err := s.SignUp(context.Background(), " Alice@Example.com ", []byte("pw"), map[string]string{"salt": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "h:pw", u.PasswordHash)
	assert.Equal(t, "abc", u.Metadata["salt"])

	id, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, 1, rm.r.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_Duplicate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newUserService(t, db, newFakeRepoManager())
	ctx := context.Background()

	_, _, err := s.SignUp(ctx, "a@example.com", []byte("pw"), nil)
	require.NoError(t, err)

	_, _, err = s.SignUp(ctx, "A@example.com", []byte("other"), nil)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestSignUp_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)
	ctx := context.Background()

	_, _, err := s.SignUp(ctx, "not-an-email", []byte("pw"), nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, _, err = s.SignUp(ctx, "a@example.com", nil, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Zero(t, rm.u.calls)
}

func TestSignUp_HashAndRepoErrors(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeRepoManager()
	s := NewUserService(db, rm, plainHasher{err: errBoom}, testConfig())
	_, _, err := s.SignUp(context.Background(), "a@example.com", []byte("pw"), nil)
	assert.ErrorIs(t, err, errBoom)

	rm.u.err = errBoom
	s = newUserService(t, db, rm)
	_, _, err = s.SignUp(context.Background(), "a@example.com", []byte("pw"), nil)
	assert.ErrorContains(t, err, "error creating user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignIn_Flows(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)
	ctx := context.Background()

	created, _, err := s.SignUp(ctx, "a@example.com", []byte("pw"), map[string]string{"salt": "abc"})
	require.NoError(t, err)

	u, pair, err := s.SignIn(ctx, "A@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, "abc", u.Metadata["salt"])
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = s.SignIn(ctx, "a@example.com", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, _, err = s.SignIn(ctx, "ghost@example.com", []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, _, err = s.SignIn(ctx, "garbage", []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	rm.u.err = errBoom
	_, _, err = s.SignIn(ctx, "a@example.com", []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshToken_Rotates(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	rm.r.tokens["old"] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}
	s := newUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotContains(t, rm.r.tokens, "old")
	assert.Contains(t, rm.r.tokens, pair.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(rm *fakeRepoManager)
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown token",
			setup: func(rm *fakeRepoManager) {},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, common.ErrorUnauthorized) },
		},
		{
			name: "expired",
			setup: func(rm *fakeRepoManager) {
				rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)}
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, common.ErrRefreshTokenExpired) },
		},
		{
			name:  "find error",
			setup: func(rm *fakeRepoManager) { rm.r.findErr = errBoom },
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "error searching refresh token: boom") },
		},
		{
			name: "delete error",
			setup: func(rm *fakeRepoManager) {
				rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(time.Minute)}
				rm.r.delErr = errBoom
			},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "error deleting refresh token: boom") },
		},
		{
			name: "create error",
			setup: func(rm *fakeRepoManager) {
				rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(time.Minute)}
				rm.r.createErr = errBoom
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, common.ErrorInternal) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			mock.ExpectRollback()

			rm := newFakeRepoManager()
			tt.setup(rm)
			s := newUserService(t, db, rm)

			_, err := s.RefreshToken(context.Background(), "r")
			require.Error(t, err)
			tt.check(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateMetadata(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)
	ctx := context.Background()

	u, _, err := s.SignUp(ctx, "a@example.com", []byte("pw"), map[string]string{"salt": "abc"})
	require.NoError(t, err)

	md, err := s.UpdateMetadata(ctx, u.ID, map[string]string{"theme": "dark"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"salt": "abc", "theme": "dark"}, md)

	md, err = s.UpdateMetadata(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", md["theme"])

	_, err = s.UpdateMetadata(ctx, "nobody", map[string]string{"a": "b"})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestPurgeExpiredTokens(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.r.tokens["dead"] = &models.RefreshToken{Expires: time.Now().Add(-time.Hour)}
	rm.r.tokens["live"] = &models.RefreshToken{Expires: time.Now().Add(time.Hour)}
	s := newUserService(t, db, rm)

	n, err := s.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, rm.r.tokens, "live")
}

func TestNewPasswordHasher_RoundTrip(t *testing.T) {
	h, err := NewPasswordHasher()
	require.NoError(t, err)

	encoded, err := h.Hash([]byte("correct horse"))
	require.NoError(t, err)
	assert.NotContains(t, encoded, "correct horse")

	ok, err := h.Verify([]byte("correct horse"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = h.Verify([]byte("wrong"), encoded)
	assert.False(t, ok)
}
