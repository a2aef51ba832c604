package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/http/middleware"
	"docarchive/internal/service"
)

// ListAudit godoc
// @Summary Review the audit log (superuser)
// @Tags audit
// @Produce json
// @Param limit query int false "page size, default 50, max 200"
// @Param offset query int false "offset"
// @Success 200 {object} service.AuditPage
// @Failure 403 {object} errorPayload
// @Router /audit [get]
func ListAudit(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		page, err := svc.List(c.UserContext(), middleware.CallerFrom(c), limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	}
}
