package testhelpers

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/config"
)

// dataTables очищаются между тестами, схема остаётся
var dataTables = []string{"activities", "saved_routes"}

// TestDB - соединение с тестовой БД
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// SetupTestDB подключается к тестовой БД (TEST_DB_* переменные).
// Если БД недоступна после TEST_DB_MAX_RETRIES попыток, тест пропускается.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envInt("TEST_DB_PORT", 5433),
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:   envOr("TEST_DB_NAME", "freshness_test"),
		SSLMode:  envOr("TEST_DB_SSLMODE", "disable"),
	}
	attempts := envInt("TEST_DB_MAX_RETRIES", 3)

	var (
		db  *sqlx.DB
		err error
	)
	delay := 500 * time.Millisecond
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		cancel()
		if err == nil {
			break
		}
		if attempt < attempts {
			t.Logf("database not ready (attempt %d/%d), retrying in %v", attempt, attempts, delay)
			time.Sleep(delay)
			delay *= 2
		}
	}
	if err != nil {
		t.Skipf("PostgreSQL not available for integration tests: %v", err)
	}

	return &TestDB{DB: db, Logger: zap.NewNop()}
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup очищает таблицы с данными одним TRUNCATE
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	_, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(dataTables, ", ")+" CASCADE")
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}
