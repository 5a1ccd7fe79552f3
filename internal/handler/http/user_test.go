package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FinanceGo/internal/domain"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	"github.com/utafrali/FinanceGo/pkg/middleware"
)

func setupUserRouter(handler *UserHandler, userID string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(fakeAuthenticator(userID)))
		r.Get("/me", handler.GetProfile)
		r.Put("/me", handler.UpdateProfile)
		r.Put("/me/preferences", handler.UpdatePreferences)
	})
	return r
}

func newUserTestHandler(userRepo *mockUserRepo) *UserHandler {
	svc := newAuthTestService(userRepo, new(mockRefreshTokenRepo), new(mockBlacklistRepo))
	return NewUserHandler(svc, handlerTestLogger())
}

func TestGetProfileEndpoint_OK(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testUserEmail, data["email"])
	// The password hash must never leave the server.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestGetProfileEndpoint_NotFound(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProfileEndpoint_MissingAuthHeader(t *testing.T) {
	router := setupUserRouter(newUserTestHandler(new(mockUserRepo)), testUserID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestUpdateProfileEndpoint_OK(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(t), nil)
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == "Renamed"
	})).Return(nil)

	name := "Renamed"
	body := jsonBody(t, UpdateProfileRequest{Name: &name})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", body)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestUpdateProfileEndpoint_InvalidEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	email := "not-an-email"
	body := jsonBody(t, UpdateProfileRequest{Email: &email})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", body)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdatePreferencesEndpoint_PartialUpdate(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(t), nil)
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		// Only the currency changes; the notification defaults survive.
		return u.Preferences.Currency == "EUR" && u.Preferences.EmailNotifications
	})).Return(nil)

	currency := "EUR"
	body := jsonBody(t, UpdatePreferencesRequest{Currency: &currency})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/preferences", body)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestUpdatePreferencesEndpoint_BadCurrency(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupUserRouter(newUserTestHandler(userRepo), testUserID)

	currency := "EURO"
	body := jsonBody(t, UpdatePreferencesRequest{Currency: &currency})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/preferences", body)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
