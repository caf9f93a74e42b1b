// Package persistencetest opens throwaway databases carrying the full schema
// for repository and service tests.
package persistencetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every persisted domain type in dependency order
func Models() []any {
	return []any{
		&identity.User{},
		&tenancy.Company{},
		&tenancy.Designation{},
		&tenancy.Membership{},
		&identity.UserPermission{},
		&tenancy.ApprovalLevel{},
		&tenancy.BankAccount{},
		&tenancy.OrganizationProfile{},
		&voucher.Voucher{},
		&voucher.Particular{},
		&voucher.Attachment{},
		&voucher.Approval{},
		&venue.FunctionBooking{},
	}
}

const numberSequencesDDL = `CREATE TABLE IF NOT EXISTS number_sequences (
	name varchar(20) PRIMARY KEY,
	last_value integer NOT NULL DEFAULT 0
)`

// NewSQLiteDB opens a private in-memory SQLite database with the schema
// migrated. SQLite ignores row locks, so tests relying on NOWAIT belong in
// the postgres suite.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database and
	// serializes transactions the way row locks would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	require.NoError(t, db.Exec(numberSequencesDDL).Error)
	return db
}
