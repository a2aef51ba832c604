package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docarchive/internal/http/middleware"
	"docarchive/internal/model"
	"docarchive/internal/query"
	"docarchive/internal/service"
)

type documentListResponse struct {
	*service.DocumentListResult
	Flash string `json:"flash,omitempty"`
}

type editRequest struct {
	Title         string `json:"title" form:"title"`
	CategoryID    string `json:"category" form:"category"`
	SecurityLevel string `json:"security_level" form:"security_level"`
}

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ListDocuments godoc
// @Summary List visible documents
// @Tags documents
// @Produce json
// @Param category query string false "category id"
// @Param q query string false "title substring"
// @Param type query string false "pdf, word, excel, image or archive"
// @Param sort query string false "title, -title, uploaded_at or -uploaded_at"
// @Success 200 {object} documentListResponse
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, err := query.Parse(c.Query("category"), c.Query("q"), c.Query("type"), c.Query("sort"))
		if err != nil {
			return respondError(c, err)
		}

		res, err := svc.List(c.UserContext(), middleware.CallerFrom(c), params)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(documentListResponse{DocumentListResult: res, Flash: popFlash(c)})
	}
}

// UploadDocument godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "title"
// @Param description formData string false "description"
// @Param category formData string false "category id"
// @Param security_level formData string false "public, internal or secret"
// @Param file formData file true "file"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), middleware.CallerFrom(c), service.UploadInput{
			Title:         c.FormValue("title"),
			Description:   c.FormValue("description"),
			CategoryID:    c.FormValue("category"),
			SecurityLevel: model.SecurityLevel(c.FormValue("security_level")),
			FileName:      fh.Filename,
			ContentType:   fh.Header.Get("Content-Type"),
			Size:          fh.Size,
			Reader:        f,
		})
		if err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusCreated, doc, "Document uploaded.")
	}
}

// GetDocument godoc
// @Summary Document metadata
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), middleware.CallerFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument godoc
// @Summary Download the stored file
// @Tags documents
// @Produce octet-stream
// @Param id path string true "document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, doc, err := svc.Open(c.UserContext(), middleware.CallerFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return sendFile(c, rc, doc)
	}
}

// EditDocument godoc
// @Summary Edit title, category and security level
// @Tags documents
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/edit [post]
func EditDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req editRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}
		doc, err := svc.Edit(c.UserContext(), middleware.CallerFrom(c), id, service.EditInput{
			Title:         req.Title,
			CategoryID:    req.CategoryID,
			SecurityLevel: model.SecurityLevel(req.SecurityLevel),
		})
		if err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusOK, doc, "Document updated.")
	}
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags documents
// @Param id path string true "document id"
// @Success 204
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusNoContent, nil, "Document deleted.")
	}
}

// ShareDocument godoc
// @Summary Get or create the document's share link
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} shareResponse
// @Failure 403 {object} errorPayload
// @Router /documents/{id}/share [post]
func ShareDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.Share(c.UserContext(), middleware.CallerFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		res := shareResponse{Token: link.Token, URL: c.BaseURL() + "/share/" + link.Token}
		return done(c, fiber.StatusOK, res, "Share link: "+res.URL)
	}
}

// DownloadShared godoc
// @Summary Download a shared document without logging in
// @Tags documents
// @Produce octet-stream
// @Param token path string true "share token"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /share/{token} [get]
func DownloadShared(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := svc.OpenShared(c.UserContext(), c.Params("token"))
		if err != nil {
			return respondError(c, err)
		}
		return sendFile(c, rc, doc)
	}
}

func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// sendFile streams rc as an attachment; fasthttp closes it once the body is written.
func sendFile(c *fiber.Ctx, rc io.ReadCloser, doc *model.Document) error {
	c.Attachment(doc.FileName)
	if doc.ContentType != "" {
		c.Set(fiber.HeaderContentType, doc.ContentType)
	}
	size := -1
	if doc.Size > 0 {
		size = int(doc.Size)
	}
	return c.SendStream(rc, size)
}
