package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"crm-backend/logger"
	"crm-backend/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idempotencyHeader = "Idempotency-Key"

// Idempotency processes Idempotency-Key for mutating HTTP methods, scoped per company.
// It uses its own short transactions so the stored record outlives the request TX.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		companyID, err := strconv.ParseUint(c.Params("companyId"), 10, 64)
		if err != nil {
			// TenantTx answers unknown companies.
			return c.Next()
		}
		userID, _ := c.Locals("userID").(string)

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), c.Params("companyId"), userID)

		scope := idempotencyScope(companyID, key)

		// ---- Phase 1: read/create "pending"
		var existing models.IdempotencyKey
		replayed := false
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where(scope).First(&existing).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				rec := models.IdempotencyKey{
					CompanyID:   uint(companyID),
					Key:         key,
					RequestHash: reqHash,
					Method:      method,
					Path:        path,
					UserID:      userID,
				}
				if e2 := tx.Create(&rec).Error; e2 != nil {
					// Could be unique race: the other request owns the key.
					return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
				}
				return nil
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus == 0 {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
			}
			replayed = true
			return nil
		})
		if err != nil {
			return err
		}
		if replayed {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			c.Set("Idempotent-Replay", "true")
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		// Run the handler once.
		if err := c.Next(); err != nil {
			// Failed requests release the key so the client may retry.
			if derr := db.Where(scope).Delete(&models.IdempotencyKey{}).Error; derr != nil {
				logger.FromFiber(c).Warn("idempotency release failed", zap.String("key", key), zap.Error(derr))
			}
			return err
		}

		// ---- Phase 2: store the response
		now := time.Now().UTC()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)

		if err := db.Model(&models.IdempotencyKey{}).
			Where(scope).
			Updates(map[string]any{
				"response_status": c.Response().StatusCode(),
				"response_body":   blob,
				"completed_at":    &now,
			}).Error; err != nil {
			// best-effort: don't break the successful response
			logger.FromFiber(c).Warn("idempotency store failed", zap.Error(err))
		}
		return nil
	}
}

// idempotencyScope selects one key of one company. KEY is reserved in MySQL, so the
// map form lets GORM quote the columns per dialect.
func idempotencyScope(companyID uint64, key string) map[string]any {
	return map[string]any{"company_id": companyID, "key": key}
}

// requestHash builds a deterministic hash: method|path|body|company|user.
func requestHash(method, path string, body []byte, company, userID string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(company))
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
