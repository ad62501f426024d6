package handler

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/online-cinema/internal/model"
    "github.com/iliyamo/online-cinema/internal/service"
    "github.com/iliyamo/online-cinema/internal/utils"
)

type fakeAccounts struct {
    err      error
    user     service.RegisteredUser
    pair     service.TokenPair
    access   utils.SignedToken
    gotEmail string
}

func (f *fakeAccounts) Register(_ context.Context, email, _ string) (service.RegisteredUser, error) {
    f.gotEmail = email
    return f.user, f.err
}
func (f *fakeAccounts) Activate(_ context.Context, email, _ string) error {
    f.gotEmail = email
    return f.err
}
func (f *fakeAccounts) Login(context.Context, string, string) (service.TokenPair, error) {
    return f.pair, f.err
}
func (f *fakeAccounts) Refresh(context.Context, string) (utils.SignedToken, error) {
    return f.access, f.err
}
func (f *fakeAccounts) RequestPasswordReset(_ context.Context, email string) error {
    f.gotEmail = email
    return f.err
}
func (f *fakeAccounts) CompletePasswordReset(context.Context, string, string, string) error {
    return f.err
}

type fakeCatalog struct {
    page     service.MoviePage
    detail   model.MovieDetail
    err      error
    gotPage  int
    gotPer   int
    gotID    uint64
    listHits int
}

func (f *fakeCatalog) List(_ context.Context, page, perPage int) (service.MoviePage, error) {
    f.listHits++
    f.gotPage, f.gotPer = page, perPage
    return f.page, f.err
}
func (f *fakeCatalog) Detail(_ context.Context, id uint64) (model.MovieDetail, error) {
    f.gotID = id
    return f.detail, f.err
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func accountsEcho(f *fakeAccounts) *echo.Echo {
    e := echo.New()
    h := NewAccountHandler(f)
    e.POST("/register", h.Register)
    e.POST("/activate", h.Activate)
    e.POST("/login", h.Login)
    e.POST("/refresh", h.Refresh)
    e.POST("/reset/request", h.RequestPasswordReset)
    e.POST("/reset/complete", h.CompletePasswordReset)
    e.GET("/me", h.Me)
    return e
}

func TestRegisterHandler(t *testing.T) {
    tests := []struct {
        name   string
        body   string
        err    error
        status int
        want   string
    }{
        {"created", `{"email":"a@example.com","password":"pw"}`, nil, http.StatusCreated, `"email":"a@example.com"`},
        {"malformed json", `{"email":`, nil, http.StatusBadRequest, "Invalid request body."},
        {"bad email", `{"email":"not-an-email","password":"pw"}`, nil, http.StatusBadRequest, "valid email"},
        {"missing password", `{"email":"a@example.com"}`, nil, http.StatusBadRequest, "Password is required."},
        {"duplicate", `{"email":"a@example.com","password":"pw"}`, service.ErrEmailTaken, http.StatusConflict, "A user with this email a@example.com already exists."},
        {"no default group", `{"email":"a@example.com","password":"pw"}`, service.ErrDefaultGroupMissing, http.StatusInternalServerError, "Default user group not found."},
        {"storage failure", `{"email":"a@example.com","password":"pw"}`, errors.Join(service.ErrInternal, errors.New("mysql: gone away")), http.StatusInternalServerError, "An error occurred during user creation."},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            f := &fakeAccounts{err: tt.err, user: service.RegisteredUser{ID: 1, Email: "a@example.com"}}

            rec := do(accountsEcho(f), http.MethodPost, "/register", tt.body)

            assert.Equal(t, tt.status, rec.Code)
            assert.Contains(t, rec.Body.String(), tt.want)
            assert.NotContains(t, rec.Body.String(), "mysql")
        })
    }
}

func TestRegisterKeepsEmailCase(t *testing.T) {
    f := &fakeAccounts{}
    do(accountsEcho(f), http.MethodPost, "/register", `{"email":" Mixed@Example.com ","password":"pw"}`)
    assert.Equal(t, "Mixed@Example.com", f.gotEmail)
}

func TestActivateHandler(t *testing.T) {
    tests := []struct {
        name   string
        err    error
        status int
        want   string
    }{
        {"ok", nil, http.StatusOK, "User account activated successfully."},
        {"invalid", service.ErrInvalidToken, http.StatusBadRequest, "Invalid or expired activation token."},
        {"already active", service.ErrAlreadyActive, http.StatusBadRequest, "User account is already active."},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := do(accountsEcho(&fakeAccounts{err: tt.err}), http.MethodPost, "/activate", `{"email":"a@example.com","token":"t"}`)
            assert.Equal(t, tt.status, rec.Code)
            assert.Contains(t, rec.Body.String(), tt.want)
        })
    }

    rec := do(accountsEcho(&fakeAccounts{}), http.MethodPost, "/activate", `{"email":"a@example.com"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler(t *testing.T) {
    f := &fakeAccounts{pair: service.TokenPair{
        Access:  utils.SignedToken{Token: "acc"},
        Refresh: utils.SignedToken{Token: "ref"},
    }}
    rec := do(accountsEcho(f), http.MethodPost, "/login", `{"email":"a@example.com","password":"pw"}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"access_token":"acc","refresh_token":"ref","token_type":"bearer"}`, rec.Body.String())

    for err, status := range map[error]int{
        service.ErrInvalidCredentials: http.StatusUnauthorized,
        service.ErrInactiveUser:       http.StatusForbidden,
        errors.New("boom"):            http.StatusInternalServerError,
    } {
        rec := do(accountsEcho(&fakeAccounts{err: err}), http.MethodPost, "/login", `{"email":"a@example.com","password":"pw"}`)
        assert.Equal(t, status, rec.Code, err.Error())
    }
}

func TestRefreshHandler(t *testing.T) {
    rec := do(accountsEcho(&fakeAccounts{access: utils.SignedToken{Token: "new"}}), http.MethodPost, "/refresh", `{"refresh_token":"r"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"access_token":"new"}`, rec.Body.String())

    for err, status := range map[error]int{
        service.ErrRefreshExpired:  http.StatusBadRequest,
        service.ErrRefreshInvalid:  http.StatusBadRequest,
        service.ErrRefreshNotFound: http.StatusUnauthorized,
        service.ErrUserNotFound:    http.StatusNotFound,
    } {
        rec := do(accountsEcho(&fakeAccounts{err: err}), http.MethodPost, "/refresh", `{"refresh_token":"r"}`)
        assert.Equal(t, status, rec.Code, err.Error())
    }

    rec = do(accountsEcho(&fakeAccounts{}), http.MethodPost, "/refresh", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetHandlers(t *testing.T) {
    rec := do(accountsEcho(&fakeAccounts{}), http.MethodPost, "/reset/request", `{"email":"ghost@example.com"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "If you are registered")

    rec = do(accountsEcho(&fakeAccounts{}), http.MethodPost, "/reset/complete", `{"email":"a@example.com","token":"t","password":"pw"}`)
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = do(accountsEcho(&fakeAccounts{err: service.ErrInvalidResetToken}), http.MethodPost, "/reset/complete", `{"email":"a@example.com","token":"t","password":"pw"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "Invalid email or token.")
}

func TestMeWithoutIdentity(t *testing.T) {
    rec := do(accountsEcho(&fakeAccounts{}), http.MethodGet, "/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func moviesEcho(f *fakeCatalog) *echo.Echo {
    e := echo.New()
    h := NewMovieHandler(f)
    e.GET("/movies/", h.ListMovies)
    e.GET("/movies/:id/", h.GetMovie)
    return e
}

func TestListMoviesHandler(t *testing.T) {
    next := "/cinema/movies/?page=2&per_page=10"
    f := &fakeCatalog{page: service.MoviePage{
        Movies:     []service.MovieListItem{{ID: 95, Name: "Heat", Year: 1995, IMDb: 8.3, Description: "d"}},
        NextPage:   &next,
        TotalPages: 10,
        TotalItems: 95,
    }}

    rec := do(moviesEcho(f), http.MethodGet, "/movies/", "")

    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, f.gotPage)
    assert.Equal(t, service.DefaultPerPage, f.gotPer)
    assert.JSONEq(t, `{
        "movies": [{"id":95,"name":"Heat","year":1995,"imdb":8.3,"description":"d"}],
        "prev_page": null,
        "next_page": "/cinema/movies/?page=2&per_page=10",
        "total_pages": 10,
        "total_items": 95
    }`, rec.Body.String())
}

func TestListMoviesHandlerErrors(t *testing.T) {
    rec := do(moviesEcho(&fakeCatalog{}), http.MethodGet, "/movies/?page=abc", "")
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

    f := &fakeCatalog{err: service.ErrInvalidArgument}
    rec = do(moviesEcho(f), http.MethodGet, "/movies/?page=1&per_page=50", "")
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
    assert.Equal(t, 50, f.gotPer)

    rec = do(moviesEcho(&fakeCatalog{err: service.ErrNoMovies}), http.MethodGet, "/movies/?page=3", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"No movies found."}`, rec.Body.String())
}

func TestGetMovieHandler(t *testing.T) {
    id := uuid.New()
    f := &fakeCatalog{detail: model.MovieDetail{
        Movie:         model.Movie{ID: 4, UUID: id, Name: "Heat", Price: "12.50"},
        Certification: model.NamedRef{ID: 2, Name: "R"},
        Genres:        []model.NamedRef{{ID: 1, Name: "Crime"}},
    }}

    rec := do(moviesEcho(f), http.MethodGet, "/movies/4/", "")

    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, uint64(4), f.gotID)
    assert.Contains(t, rec.Body.String(), `"uuid":"`+id.String()+`"`)
    assert.Contains(t, rec.Body.String(), `"certificate":{"id":2,"name":"R"}`)

    rec = do(moviesEcho(&fakeCatalog{}), http.MethodGet, "/movies/abc/", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = do(moviesEcho(&fakeCatalog{err: service.ErrMovieNotFound}), http.MethodGet, "/movies/9/", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Contains(t, rec.Body.String(), "Movie with the given ID was not found.")
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
    e := echo.New()
    e.GET("/up", Health(fakePinger{}))
    e.GET("/down", Health(fakePinger{err: errors.New("refused")}))

    rec := do(e, http.MethodGet, "/up", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())

    assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
}
