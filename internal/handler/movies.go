package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/logger"
    "github.com/iliyamo/online-cinema/internal/model"
    "github.com/iliyamo/online-cinema/internal/service"
)

// CatalogService is the read side of the movie catalog.
type CatalogService interface {
    List(ctx context.Context, page, perPage int) (service.MoviePage, error)
    Detail(ctx context.Context, id uint64) (model.MovieDetail, error)
}

// MovieHandler serves the public movie endpoints.
type MovieHandler struct {
    Catalog CatalogService
}

func NewMovieHandler(catalog CatalogService) *MovieHandler {
    return &MovieHandler{Catalog: catalog}
}

// MovieDetail is the public representation of one movie.
type MovieDetail struct {
    ID            uint64           `json:"id"`
    UUID          string           `json:"uuid"`
    Name          string           `json:"name"`
    Year          int              `json:"year"`
    Time          int              `json:"time"`
    IMDb          float64          `json:"imdb"`
    Votes         int              `json:"votes"`
    MetaScore     *float64         `json:"meta_score"`
    Gross         *float64         `json:"gross"`
    Description   string           `json:"description"`
    Price         string           `json:"price"`
    Certification model.NamedRef   `json:"certificate"`
    Genres        []model.NamedRef `json:"genres"`
    Stars         []model.NamedRef `json:"stars"`
    Directors     []model.NamedRef `json:"directors"`
}

// queryInt reads an optional positive integer query parameter. ok is false
// when the value is present but not a number.
func queryInt(c echo.Context, name string, def int) (int, bool) {
    raw := c.QueryParam(name)
    if raw == "" {
        return def, true
    }
    n, err := strconv.Atoi(raw)
    return n, err == nil
}

// ListMovies handles GET /movies/movies/?page=&per_page=.
func (h *MovieHandler) ListMovies(c echo.Context) error {
    page, okPage := queryInt(c, "page", 1)
    perPage, okPer := queryInt(c, "per_page", service.DefaultPerPage)
    if !okPage || !okPer {
        return errorJSON(c, http.StatusUnprocessableEntity, "page and per_page must be integers.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    out, err := h.Catalog.List(ctx, page, perPage)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, out)
    case errors.Is(err, service.ErrInvalidArgument):
        return errorJSON(c, http.StatusUnprocessableEntity,
            "page must be >= 1 and per_page between 1 and "+strconv.Itoa(service.MaxPerPage)+".")
    case errors.Is(err, service.ErrNoMovies):
        return errorJSON(c, http.StatusNotFound, "No movies found.")
    default:
        logger.Errorf("list movies page=%d per_page=%d: %v", page, perPage, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while fetching movies.")
    }
}

// GetMovie handles GET /movies/movies/:id/.
func (h *MovieHandler) GetMovie(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return errorJSON(c, http.StatusBadRequest, "Invalid movie ID.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    m, err := h.Catalog.Detail(ctx, id)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, toMovieDetail(m))
    case errors.Is(err, service.ErrMovieNotFound):
        return errorJSON(c, http.StatusNotFound, "Movie with the given ID was not found.")
    default:
        logger.Errorf("movie %d: %v", id, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while fetching the movie.")
    }
}

func toMovieDetail(m model.MovieDetail) MovieDetail {
    return MovieDetail{
        ID:            m.ID,
        UUID:          m.UUID.String(),
        Name:          m.Name,
        Year:          m.Year,
        Time:          m.Time,
        IMDb:          m.IMDb,
        Votes:         m.Votes,
        MetaScore:     m.MetaScore,
        Gross:         m.Gross,
        Description:   m.Description,
        Price:         m.Price,
        Certification: m.Certification,
        Genres:        m.Genres,
        Stars:         m.Stars,
        Directors:     m.Directors,
    }
}
