package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-cinema/internal/handler"
	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/service"
	"github.com/iliyamo/online-cinema/internal/utils"
)

type stubCatalog struct{}

func (stubCatalog) List(context.Context, int, int) (service.MoviePage, error) {
	return service.MoviePage{}, service.ErrNoMovies
}
func (stubCatalog) Detail(context.Context, uint64) (model.MovieDetail, error) {
	return model.MovieDetail{}, service.ErrMovieNotFound
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T) (*utils.JWTManager, *echo.Echo) {
	t.Helper()
	jwtm, err := utils.NewJWTManager("access", "refresh", "HS256", time.Hour, time.Hour)
	require.NoError(t, err)
	e := New(Deps{
		Prefix:   "/api/v1",
		Accounts: handler.NewAccountHandler(nil),
		Movies:   handler.NewMovieHandler(stubCatalog{}),
		Tokens:   jwtm,
		DB:       okPinger{},
	})
	return jwtm, e
}

func get(e *echo.Echo, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesAreMountedUnderPrefix(t *testing.T) {
	_, e := newTestRouter(t)

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/v1/accounts/register/",
		"POST /api/v1/accounts/activate/",
		"POST /api/v1/accounts/login/",
		"POST /api/v1/accounts/refresh/",
		"POST /api/v1/accounts/password-reset/request/",
		"POST /api/v1/accounts/reset-password/complete/",
		"GET /api/v1/accounts/me/",
		"GET /api/v1/movies/movies/",
		"GET /api/v1/movies/movies/:id/",
	} {
		assert.True(t, got[want], want)
	}
}

func TestHealthAndCatalogRoutes(t *testing.T) {
	_, e := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(e, "/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/v1/movies/movies/?page=1&per_page=10", "").Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/v1/movies/movies/7/", "").Code)
}

func TestMeRequiresAccessToken(t *testing.T) {
	jwtm, e := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/v1/accounts/me/", "").Code)

	access, err := jwtm.NewAccessToken(3, string(model.GroupModerator))
	require.NoError(t, err)
	rec := get(e, "/api/v1/accounts/me/", "Bearer "+access.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":3,"group":"MODERATOR"}`, rec.Body.String())

	stranger, err := jwtm.NewAccessToken(4, "GUEST")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(e, "/api/v1/accounts/me/", "Bearer "+stranger.Token).Code)
}
