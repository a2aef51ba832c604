package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docarchive/internal/http/middleware"
	"docarchive/internal/service"
)

type categoryRequest struct {
	Name          string `json:"name" form:"name"`
	RetentionDays int    `json:"retention_days" form:"retention_days"`
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Router /categories [get]
func ListCategories(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.List(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(cats)
	}
}

// CreateCategory godoc
// @Summary Create a category (superuser)
// @Tags categories
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Success 201 {object} model.Category
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /categories [post]
func CreateCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req categoryRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}
		cat, err := svc.Create(c.UserContext(), middleware.CallerFrom(c), service.CategoryInput(req))
		if err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusCreated, cat, "Category created.")
	}
}

// UpdateCategory godoc
// @Summary Rename a category or change its retention (superuser)
// @Tags categories
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param id path string true "category id"
// @Success 200 {object} model.Category
// @Failure 404 {object} errorPayload
// @Router /categories/{id}/edit [post]
func UpdateCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req categoryRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}
		cat, err := svc.Update(c.UserContext(), middleware.CallerFrom(c), id, service.CategoryInput(req))
		if err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusOK, cat, "Category updated.")
	}
}

// DeleteCategory godoc
// @Summary Delete a category; its documents become uncategorized (superuser)
// @Tags categories
// @Param id path string true "category id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /categories/{id}/delete [post]
func DeleteCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusNoContent, nil, "Category deleted.")
	}
}
