package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm-backend/config"
	"crm-backend/database"
	"crm-backend/logger"
	"crm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestIdempotencyScope_QuotesKeyColumnOnMySQL(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "crm:crm@tcp(127.0.0.1:1)/crm?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	stmt := db.Session(&gorm.Session{DryRun: true}).
		Where(idempotencyScope(7, "create-1")).
		First(&models.IdempotencyKey{}).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "`key` = ?")
	assert.Contains(t, sql, "`company_id` = ?")
	assert.NotContains(t, sql, " key = ?")
	assert.Subset(t, stmt.Vars, []any{uint64(7), "create-1"})
}

func TestIdempotency_LogsFailedRelease(t *testing.T) {
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	}))

	core, recorded := observer.New(zapcore.WarnLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(logger.FiberMiddleware(zap.New(core)))
	app.Post("/companies/:companyId/things", Idempotency(db), func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "rejected")
	})

	req := httptest.NewRequest(http.MethodPost, "/companies/1/things", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "k-1")
	resp, _ := send(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	released := recorded.FilterMessage("idempotency release failed").All()
	require.Len(t, released, 1)
	assert.Equal(t, "k-1", released[0].ContextMap()["key"])
}
