//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskflow/platform/shared/config"
	"github.com/taskflow/platform/shared/database"
	"github.com/taskflow/platform/shared/models"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupRepo starts one PostgreSQL container for the whole run and returns a
// repository on a fresh schema.
func setupRepo(t *testing.T) *UserRepository {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("failed to start postgres: %v", initErr)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		URL:          sharedDSN,
		QueryTimeout: 5 * time.Second,
		MaxOpenConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS users`)
	require.NoError(t, err)

	repo := NewUserRepository(db, 5*time.Second)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

func TestUserRepository_Postgres(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	bob := &models.User{Name: "Bob", Email: "bob@x.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, bob))
	assert.Equal(t, int64(1), bob.ID)

	err := repo.Create(ctx, &models.User{Name: "Bob again", Email: "bob@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	require.NoError(t, repo.Update(ctx, &models.User{ID: bob.ID, Name: "Robert"}))
	got, err = repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_ConcurrentRegistrationHitsConstraint(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Create(ctx, &models.User{Name: fmt.Sprintf("u%d", i), Email: "race@x.com", PasswordHash: "h"})
		}(i)
	}
	wg.Wait()
	close(errs)

	var created, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case assert.ErrorIs(t, err, models.ErrDuplicateEmail):
			duplicates++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, duplicates)
}
