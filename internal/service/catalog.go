package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 20

	moviesPath = "/cinema/movies/"
)

// MovieListItem is the list projection of a movie.
type MovieListItem struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Year        int     `json:"year"`
	IMDb        float64 `json:"imdb"`
	Description string  `json:"description"`
}

// MoviePage is one page of the catalog.
type MoviePage struct {
	Movies     []MovieListItem `json:"movies"`
	PrevPage   *string         `json:"prev_page"`
	NextPage   *string         `json:"next_page"`
	TotalPages int             `json:"total_pages"`
	TotalItems int64           `json:"total_items"`
}

// CatalogService serves read-only movie queries.
type CatalogService struct {
	movies *repository.MovieRepo
}

func NewCatalogService(movies *repository.MovieRepo) *CatalogService {
	return &CatalogService{movies: movies}
}

// List returns the movies of the requested page, newest first.
func (s *CatalogService) List(ctx context.Context, page, perPage int) (MoviePage, error) {
	if page < 1 || perPage < 1 || perPage > MaxPerPage {
		return MoviePage{}, ErrInvalidArgument
	}

	total, err := s.movies.Count(ctx)
	if err != nil {
		return MoviePage{}, internal("list movies", err)
	}
	if total == 0 {
		return MoviePage{}, ErrNoMovies
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	// also keeps (page-1)*perPage from overflowing
	if page > totalPages {
		return MoviePage{}, ErrNoMovies
	}

	rows, err := s.movies.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return MoviePage{}, internal("list movies", err)
	}
	if len(rows) == 0 {
		// rows deleted between the count and the page query
		return MoviePage{}, ErrNoMovies
	}

	out := MoviePage{
		Movies:     make([]MovieListItem, 0, len(rows)),
		TotalPages: totalPages,
		TotalItems: total,
	}
	for _, m := range rows {
		out.Movies = append(out.Movies, MovieListItem{
			ID:          m.ID,
			Name:        m.Name,
			Year:        m.Year,
			IMDb:        m.IMDb,
			Description: m.Description,
		})
	}
	if page > 1 {
		out.PrevPage = pageLink(page-1, perPage)
	}
	if page < totalPages {
		out.NextPage = pageLink(page+1, perPage)
	}
	return out, nil
}

// Detail returns a movie with its certification, genres, stars and directors.
func (s *CatalogService) Detail(ctx context.Context, id uint64) (model.MovieDetail, error) {
	m, err := s.movies.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return model.MovieDetail{}, ErrMovieNotFound
	}
	if err != nil {
		return model.MovieDetail{}, internal("movie detail", err)
	}
	return m, nil
}

func pageLink(page, perPage int) *string {
	l := fmt.Sprintf("%s?page=%d&per_page=%d", moviesPath, page, perPage)
	return &l
}
