package middlewares

import (
	"errors"
	"strconv"

	"crm-backend/database"
	"crm-backend/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantTx opens a per-request DB transaction and resolves the :companyId tenant.
// Missing or inactive companies answer 404. Order: run AFTER Idempotency() so
// idempotency records aren't tied to the handler TX.
func TenantTx(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		id, perr := strconv.ParseUint(c.Params("companyId"), 10, 64)
		if perr != nil || id == 0 {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}

		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so the recover middleware can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				logger.FromFiber(c).Error("tx commit failed", zap.Error(e))
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		company, ferr := database.FindActiveCompany(tx, uint(id))
		if ferr != nil {
			if errors.Is(ferr, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "company not found")
			}
			return ferr
		}

		c.Locals("tx", tx)
		c.Locals("company", company)

		err = c.Next()
		return err
	}
}
