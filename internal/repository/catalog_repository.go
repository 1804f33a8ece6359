package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/online-movie-api/internal/model"
)

// movieStats aggregates ratings once per movie. Joining it instead of the
// raw ratings table keeps averages correct when other one-to-many joins
// (actors, genres) are present.
const movieStats = `(SELECT movieId, AVG(rating) AS averageRating, COUNT(rating) AS ratingCount
		FROM ratings GROUP BY movieId)`

// summaryColumns selects the MovieSummary shape from movie m joined with
// movieStats s.
const summaryColumns = `m.movieId, m.titleName, m.releaseYear, m.imageUrl,
		s.averageRating, COALESCE(s.ratingCount, 0) AS ratingCount`

// rankOrder sorts by average descending with unrated movies last, then by
// number of ratings.
const rankOrder = `s.averageRating IS NULL, s.averageRating DESC, ratingCount DESC, m.movieId`

type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListMovies returns the catalog. A non-empty search keeps movies whose
// title, director, any actor or any genre contains it, ignoring case.
func (r *CatalogRepo) ListMovies(ctx context.Context, search string) ([]model.MovieSummary, error) {
	cond := "1=1"
	args := []any{}

	if search = strings.TrimSpace(search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		cond = `(LOWER(m.titleName) LIKE ?
			OR LOWER(d.directorName) LIKE ?
			OR EXISTS (SELECT 1 FROM movie_actor ma JOIN actor a ON a.actorId = ma.actorId
			           WHERE ma.movieId = m.movieId AND LOWER(a.actorName) LIKE ?)
			OR EXISTS (SELECT 1 FROM movie_genre mg JOIN genre g ON g.genreId = mg.genreId
			           WHERE mg.movieId = m.movieId AND LOWER(g.genreName) LIKE ?))`
		args = append(args, like, like, like, like)
	}

	q := `SELECT ` + summaryColumns + `
		FROM movie m
		LEFT JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		LEFT JOIN director d ON d.directorId = m.directorId
		WHERE ` + cond + `
		ORDER BY ` + rankOrder

	return r.querySummaries(ctx, q, args...)
}

// GetMovie returns the detail view of one movie.
func (r *CatalogRepo) GetMovie(ctx context.Context, id int64) (model.MovieDetail, error) {
	var d model.MovieDetail
	err := r.db.QueryRowContext(ctx, `SELECT
			m.movieId, m.titleName, m.releaseYear, m.imageUrl,
			COALESCE(m.trailerUrl, '') AS trailerUrl,
			d.directorName, d.directorId,
			(SELECT GROUP_CONCAT(DISTINCT a.actorName ORDER BY a.actorName SEPARATOR ', ')
			   FROM movie_actor ma JOIN actor a ON a.actorId = ma.actorId
			  WHERE ma.movieId = m.movieId) AS actors,
			(SELECT GROUP_CONCAT(DISTINCT ph.prodName ORDER BY ph.prodName SEPARATOR ', ')
			   FROM movie_production mp JOIN production_house ph ON ph.prodId = mp.prodId
			  WHERE mp.movieId = m.movieId) AS productionHouses
		FROM movie m
		LEFT JOIN director d ON d.directorId = m.directorId
		WHERE m.movieId = ?`, id).Scan(
		&d.MovieID, &d.TitleName, &d.ReleaseYear, &d.ImageURL, &d.TrailerURL,
		&d.DirectorName, &d.DirectorID, &d.Actors, &d.ProductionHouses,
	)
	if err == sql.ErrNoRows {
		return model.MovieDetail{}, ErrMovieNotFound
	}
	return d, err
}

// MovieRatings lists every rating of a movie. An empty result is reported
// as ErrNoRatings whether or not the movie exists.
func (r *CatalogRepo) MovieRatings(ctx context.Context, movieID int64) ([]model.MovieRating, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT m.titleName, r.rating, u.userName
		FROM ratings r
		JOIN movie m ON m.movieId = r.movieId
		JOIN user u  ON u.userId = r.userId
		WHERE r.movieId = ?
		ORDER BY r.timeStamp DESC, u.userName`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MovieRating{}
	for rows.Next() {
		var mr model.MovieRating
		if err := rows.Scan(&mr.TitleName, &mr.Rating, &mr.UserName); err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoRatings
	}
	return out, nil
}

// FormData returns the reference names offered by the authoring form.
func (r *CatalogRepo) FormData(ctx context.Context) (model.FormData, error) {
	var (
		fd  model.FormData
		err error
	)
	if fd.Directors, err = r.names(ctx, "SELECT directorName FROM director ORDER BY directorName"); err != nil {
		return fd, err
	}
	if fd.Actors, err = r.names(ctx, "SELECT actorName FROM actor ORDER BY actorName"); err != nil {
		return fd, err
	}
	if fd.Genres, err = r.names(ctx, "SELECT genreName FROM genre ORDER BY genreName"); err != nil {
		return fd, err
	}
	fd.ProdHouses, err = r.names(ctx, "SELECT prodName FROM production_house ORDER BY prodName")
	return fd, err
}

func (r *CatalogRepo) names(ctx context.Context, q string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// querySummaries runs q, which must select summaryColumns first.
func (r *CatalogRepo) querySummaries(ctx context.Context, q string, args ...any) ([]model.MovieSummary, error) {
	return scanSummaries(ctx, r.db, q, args...)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanSummaries(ctx context.Context, db queryer, q string, args ...any) ([]model.MovieSummary, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MovieSummary{}
	for rows.Next() {
		var (
			m   model.MovieSummary
			avg sql.NullFloat64
		)
		if err := rows.Scan(&m.MovieID, &m.TitleName, &m.ReleaseYear, &m.ImageURL, &avg, &m.RatingCount); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			m.AverageRating = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
