package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/service"
	serviceMocks "docarchive/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type routeMocks struct {
	docs     *serviceMocks.MockDocumentService
	cats     *serviceMocks.MockCategoryService
	audit    *serviceMocks.MockAuditService
	accounts *serviceMocks.MockAccountService
}

var testCookie = SessionCookie{Name: "session", TTL: time.Hour}

func newRoutedApp() (*fiber.App, routeMocks) {
	m := routeMocks{
		docs:     new(serviceMocks.MockDocumentService),
		cats:     new(serviceMocks.MockCategoryService),
		audit:    new(serviceMocks.MockAuditService),
		accounts: new(serviceMocks.MockAccountService),
	}
	m.accounts.On("Authenticate", "alice-token").Return(alice, nil).Maybe()
	m.accounts.On("Authenticate", "root-token").Return(root, nil).Maybe()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, nil, Services{
		Documents:  m.docs,
		Categories: m.cats,
		Audit:      m.audit,
		Accounts:   m.accounts,
	}, testCookie)
	return app, m
}

func TestRouting(t *testing.T) {
	app, m := newRoutedApp()

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("anonymous upload is rejected before the service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, resp).Error.Code)
		m.docs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous browser delete redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents/"+uuid.New().String()+"/delete", nil)
		req.Header.Set("Accept", "text/html")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("audit is superuser only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		req.Header.Set("Authorization", "Bearer alice-token")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		m.audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session caller reaches the service", func(t *testing.T) {
		m.audit.On("List", mock.Anything, root, 0, 0).Return(&service.AuditPage{Limit: 50}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "root-token"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		m.audit.AssertExpectations(t)
	})

	t.Run("anonymous lists documents at the root path", func(t *testing.T) {
		m.docs.On("List", mock.Anything, model.Anonymous(), mock.Anything).Return(&service.DocumentListResult{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		m.docs.AssertExpectations(t)
	})
}

func TestListAudit(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := newApp(root)
	app.Get("/audit", ListAudit(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, root, 20, 40).Return(&service.AuditPage{
			Entries: []model.AuditLogEntry{{ID: "a1", Action: model.ActionDelete, DocumentTitle: "Q3 Plan"}},
			Total:   41, Limit: 20, Offset: 40,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/audit?limit=20&offset=40", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var page service.AuditPage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		assert.Equal(t, "Q3 Plan", page.Entries[0].DocumentTitle)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/audit?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})
}

func TestCategoryHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockCategoryService)
	app := newApp(root)
	app.Get("/categories", ListCategories(mockSvc))
	app.Post("/categories", CreateCategory(mockSvc))
	app.Post("/categories/:id/edit", UpdateCategory(mockSvc))
	app.Post("/categories/:id/delete", DeleteCategory(mockSvc))

	t.Run("list", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Category{{ID: "c1", Name: "Finance"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/categories", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var cats []model.Category
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
		assert.Len(t, cats, 1)
	})

	t.Run("create from form", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, root, service.CategoryInput{Name: "Contracts", RetentionDays: 30}).
			Return(&model.Category{ID: "c2", Name: "Contracts", RetentionDays: 30}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader("name=Contracts&retention_days=30"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate name", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, root, mock.Anything).
			Return(nil, &service.ValidationError{Fields: map[string]string{"name": "a category with this name already exists"}}).Once()

		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Contracts"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, resp).Error.Fields, "name")
	})

	t.Run("delete unknown", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, root, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/categories/"+id+"/delete", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("update invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/categories/nope/edit", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestAccountHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccountService)
	app := newApp(alice)
	app.Post("/login", Login(mockSvc, testCookie))
	app.Post("/logout", Logout(testCookie))
	app.Get("/profile", GetProfile(mockSvc))
	app.Post("/profile", UpdateProfile(mockSvc))

	t.Run("login sets the session cookie", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "pw").
			Return("signed.jwt.token", &model.User{ID: "u-alice", Username: "alice"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		cookie := resp.Header.Get("Set-Cookie")
		assert.Contains(t, cookie, "session=signed.jwt.token")
		assert.Contains(t, strings.ToLower(cookie), "httponly")
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "wrong").Return("", nil, service.ErrInvalidCredentials).Once()

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=alice&password=wrong"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Set-Cookie"), "session=")
	})

	t.Run("profile", func(t *testing.T) {
		mockSvc.On("Profile", mock.Anything, alice).Return(&service.ProfileView{
			User:          &model.User{ID: "u-alice", Username: "alice"},
			Profile:       &model.Profile{UserID: "u-alice"},
			DocumentCount: 2,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/profile", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var v service.ProfileView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
		assert.Equal(t, 2, v.DocumentCount)
	})

	t.Run("password action", func(t *testing.T) {
		mockSvc.On("UpdateProfile", mock.Anything, alice, mock.MatchedBy(func(u service.ProfileUpdate) bool {
			return u.Action == service.ProfileActionPassword && u.Password != nil &&
				u.Password.Current == "old-password" && u.Password.New == "new-password"
		})).Return(&service.ProfileView{}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/profile",
			strings.NewReader("action=password&current_password=old-password&new_password=new-password"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("avatar action without file", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"action": "avatar"}, "", "", "")
		req := httptest.NewRequest(http.MethodPost, "/profile", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, resp).Error.Fields, "avatar")
	})

	t.Run("unknown action", func(t *testing.T) {
		mockSvc.On("UpdateProfile", mock.Anything, alice, service.ProfileUpdate{Action: "rename"}).
			Return(nil, &service.ValidationError{Fields: map[string]string{"action": "must be avatar or password"}}).Once()

		req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader("action=rename"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("service failure", func(t *testing.T) {
		mockSvc.On("Profile", mock.Anything, alice).Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/profile", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
