package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/model"
)

const movieColumns = "m.id, m.uuid, m.name, m.year, m.time, m.imdb, m.votes, m.meta_score, m.gross, m.description, m.price, m.certification_id"

// MovieRepo serves read-only catalog queries.
type MovieRepo struct{ db database.DBTX }

func NewMovieRepo(db database.DBTX) *MovieRepo { return &MovieRepo{db: db} }

// Count returns the number of movies in the catalog.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM movies").Scan(&n)
	return n, err
}

// List returns one page of movies, newest inserted first.
func (r *MovieRepo) List(ctx context.Context, limit, offset int) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies m ORDER BY m.id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0, limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetail loads a movie with its certification, genres, stars and
// directors. Related names are ordered alphabetically.
func (r *MovieRepo) GetDetail(ctx context.Context, id uint64) (model.MovieDetail, error) {
	var d model.MovieDetail
	row := r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+", c.id, c.name FROM movies m "+
			"JOIN certifications c ON c.id = m.certification_id WHERE m.id = ? LIMIT 1", id)
	m, err := scanMovie(row, &d.Certification.ID, &d.Certification.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrMovieNotFound
	}
	if err != nil {
		return d, err
	}
	d.Movie = m

	if d.Genres, err = r.related(ctx, "genres", "movie_genres", "genre_id", id); err != nil {
		return d, err
	}
	if d.Stars, err = r.related(ctx, "stars", "movie_stars", "star_id", id); err != nil {
		return d, err
	}
	if d.Directors, err = r.related(ctx, "directors", "movie_directors", "director_id", id); err != nil {
		return d, err
	}
	return d, nil
}

func (r *MovieRepo) related(ctx context.Context, tbl, join, fk string, movieID uint64) ([]model.NamedRef, error) {
	q := fmt.Sprintf("SELECT x.id, x.name FROM %s x JOIN %s j ON j.%s = x.id WHERE j.movie_id = ? ORDER BY x.name", tbl, join, fk)
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.NamedRef{}
	for rows.Next() {
		var ref model.NamedRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(s scanner, extra ...any) (model.Movie, error) {
	var (
		m         model.Movie
		rawUUID   string
		metaScore sql.NullFloat64
		gross     sql.NullFloat64
	)
	dest := []any{&m.ID, &rawUUID, &m.Name, &m.Year, &m.Time, &m.IMDb, &m.Votes,
		&metaScore, &gross, &m.Description, &m.Price, &m.CertificationID}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return m, err
	}
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return m, fmt.Errorf("movie %d: bad uuid %q: %w", m.ID, rawUUID, err)
	}
	m.UUID = id
	if metaScore.Valid {
		m.MetaScore = &metaScore.Float64
	}
	if gross.Valid {
		m.Gross = &gross.Float64
	}
	return m, nil
}
