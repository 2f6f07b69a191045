package services

import (
	"database/sql"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"harborview/internal/domain"
)

// newTestDB opens an in-memory SQLite database migrated with the domain
// models. A single connection keeps the memory database alive for the
// lifetime of the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: ":memory:", Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}

	err = db.AutoMigrate(
		&domain.User{},
		&domain.ContactMessage{},
		&domain.QuoteRequest{},
		&domain.AnalyticsEvent{},
		&domain.Partner{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// nopMailer drops every email. Dispatch runs on a background goroutine,
// so the stub carries no state the test could race on.
type nopMailer struct{}

func (nopMailer) SendHTMLEmail(to, subject, htmlBody, textBody string) error { return nil }

func (nopMailer) IsEnabled() bool { return false }
