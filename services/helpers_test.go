package services

import (
	"context"
	"sync"
	"testing"

	"crm-backend/config"
	"crm-backend/database"
	"crm-backend/geocoding"
	"crm-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, IsActive: true}
	require.NoError(t, db.Create(company).Error)
	return company
}

// fakeGeocoder records every lookup and answers with a fixed result.
type fakeGeocoder struct {
	mu        sync.Mutex
	addresses []string
	countries []string
	result    *geocoding.Result
	// onLookup runs after each lookup is recorded.
	onLookup func()
}

func (f *fakeGeocoder) Geocode(_ context.Context, address, countryCode string) (*geocoding.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses = append(f.addresses, address)
	f.countries = append(f.countries, countryCode)
	if f.onLookup != nil {
		f.onLookup()
	}
	if f.result == nil {
		return nil, false
	}
	r := *f.result
	return &r, true
}

func (f *fakeGeocoder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addresses)
}

func str(s string) *string { return &s }

func flt(f float64) *float64 { return &f }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
