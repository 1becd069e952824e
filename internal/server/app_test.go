package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSeams(t *testing.T, db *sql.DB, migrateErr error) *int {
	t.Helper()
	origOpen, origMigrate, origS3 := openDB, runMigrations, newS3Store
	t.Cleanup(func() {
		openDB, runMigrations, newS3Store = origOpen, origMigrate, origS3
	})

	openDB = func(string) (*sql.DB, error) { return db, nil }
	migrations := 0
	runMigrations = func(context.Context, repomanager.RepositoryManager, *sql.DB) error {
		migrations++
		return migrateErr
	}
	return &migrations
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var c config.Config
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	return &c
}

func TestNewApp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	migrations := stubSeams(t, db, nil)

	var logs bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(t), &logs)
	require.NoError(t, err)
	assert.Equal(t, 1, *migrations)
	assert.Contains(t, logs.String(), `"blob_backend":"postgres"`)

	mock.ExpectClose()
	require.NoError(t, app.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_S3Backend(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	stubSeams(t, db, nil)

	called := false
	newS3Store = func(ctx context.Context, c *config.Config) (blobs.Repository, error) {
		called = true
		assert.Equal(t, "cardkeeper", c.S3Bucket)
		return nil, errors.New("minio down")
	}

	cfg := testConfig(t)
	cfg.BlobBackend = config.BlobBackendS3

	mock.ExpectClose()
	_, err = NewApp(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "s3 init error: minio down")
	assert.True(t, called)
}

func TestNewApp_Failures(t *testing.T) {
	t.Run("ping", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		mock.ExpectClose()
		stubSeams(t, db, nil)

		_, err = NewApp(context.Background(), testConfig(t), &bytes.Buffer{})
		assert.ErrorContains(t, err, "db ping error")
	})

	t.Run("migrations", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing()
		mock.ExpectClose()
		stubSeams(t, db, errors.New("dirty"))

		_, err = NewApp(context.Background(), testConfig(t), &bytes.Buffer{})
		assert.ErrorContains(t, err, "migrations error: dirty")
	})

	t.Run("open", func(t *testing.T) {
		stubSeams(t, nil, nil)
		openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

		_, err := NewApp(context.Background(), testConfig(t), &bytes.Buffer{})
		assert.ErrorContains(t, err, "db init error")
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	stubSeams(t, db, nil)

	app, err := NewApp(context.Background(), testConfig(t), &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPurgeTokens(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	stubSeams(t, db, nil)

	logs := &syncBuffer{}
	app, err := NewApp(context.Background(), testConfig(t), logs)
	require.NoError(t, err)

	mock.ExpectExec(`DELETE\s+FROM\s+refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.purgeTokens(ctx, 20*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "purged expired refresh tokens")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.NoError(t, mock.ExpectationsWereMet())
}
