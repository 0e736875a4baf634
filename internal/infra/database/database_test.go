package database

import (
	"testing"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigratesReceipts(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: config.DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("order_receipts"))
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DBConfig
		wantErr bool
		dialect string
	}{
		{name: "mysql", cfg: config.DBConfig{Driver: "mysql", DSN: "u:p@tcp(db:3306)/x"}, dialect: "mysql"},
		{name: "postgres", cfg: config.DBConfig{Driver: "POSTGRES", DSN: "postgres://u:p@db/x"}, dialect: "postgres"},
		{name: "sqlite", cfg: config.DBConfig{Driver: "sqlite", DSN: "file::memory:"}, dialect: "sqlite"},
		{name: "missing dsn", cfg: config.DBConfig{Driver: "mysql"}, wantErr: true},
		{name: "unknown driver", cfg: config.DBConfig{Driver: "oracle", DSN: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := dialectorFor(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d.Name())
		})
	}
}
