package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mindmirror/mindmirror/internal/store"
	"github.com/mindmirror/mindmirror/internal/store/storetest"
)

// dsnForTest returns MINDMIRROR_POSTGRES_DSN when set, otherwise starts a
// throwaway postgres container when MINDMIRROR_POSTGRES_IT=1.
func dsnForTest(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("MINDMIRROR_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("MINDMIRROR_POSTGRES_IT") != "1" {
		t.Skip("MINDMIRROR_POSTGRES_DSN not set and MINDMIRROR_POSTGRES_IT!=1; skipping postgres store integration test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "mindmirror",
			"POSTGRES_PASSWORD": "mindmirror",
			"POSTGRES_DB":       "mindmirror",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://mindmirror:mindmirror@%s:%s/mindmirror?sslmode=disable", host, port.Port())
}

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := dsnForTest(t)
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewWithDB(db)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}

func TestPostgresStore_WritesOutbox(t *testing.T) {
	s := makePGStore(t)
	pg := s.(*pgStore)
	ctx := context.Background()

	count := func() int {
		var n int
		if err := pg.db.QueryRowContext(ctx, `SELECT count(*) FROM outbox WHERE op=$1 AND aggregate_id=$2`, OpDeleteUser, "outbox-check").Scan(&n); err != nil {
			t.Fatalf("count outbox: %v", err)
		}
		return n
	}

	before := count()
	if _, err := s.Entries().DeleteByUser(ctx, "outbox-check"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if after := count(); after != before+1 {
		t.Fatalf("expected one new delete_user outbox row, before=%d after=%d", before, after)
	}
}
