package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/online-movie-api/internal/model"
)

// highRated selects the movies a user rated 4 or more.
const highRated = `SELECT movieId FROM ratings WHERE userId = ? AND rating >= 4`

// RecommendationRepo runs the recommendation and similarity queries. The
// branching between strategies lives in the service package.
type RecommendationRepo struct{ db *sql.DB }

func NewRecommendationRepo(db *sql.DB) *RecommendationRepo { return &RecommendationRepo{db: db} }

// RatingCounts returns how many movies the user rated, and how many of
// those were rated 4 or more.
func (r *RecommendationRepo) RatingCounts(ctx context.Context, userID int64) (total, high int64, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(rating >= 4), 0) FROM ratings WHERE userId = ?",
		userID).Scan(&total, &high)
	return total, high, err
}

// PreferredGenres ranks the genres of the user's high-rated movies by how
// often they occur and returns at most limit genre ids.
func (r *RecommendationRepo) PreferredGenres(ctx context.Context, userID int64, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT mg.genreId, COUNT(*) AS cnt
		FROM ratings r
		JOIN movie_genre mg ON mg.movieId = r.movieId
		WHERE r.userId = ? AND r.rating >= 4
		GROUP BY mg.genreId
		ORDER BY cnt DESC, mg.genreId
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id, cnt int64
		if err := rows.Scan(&id, &cnt); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InGenresUnrated returns rated movies in any of genreIDs that the user
// has not rated yet.
func (r *RecommendationRepo) InGenresUnrated(ctx context.Context, userID int64, genreIDs []int64, limit int) ([]model.MovieSummary, error) {
	if len(genreIDs) == 0 {
		return []model.MovieSummary{}, nil
	}
	args := make([]any, 0, len(genreIDs)+2)
	for _, id := range genreIDs {
		args = append(args, id)
	}
	args = append(args, userID, limit)

	q := `SELECT ` + summaryColumns + `
		FROM movie m
		JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		WHERE EXISTS (SELECT 1 FROM movie_genre mg WHERE mg.movieId = m.movieId AND mg.genreId IN (` + placeholders(len(genreIDs)) + `))
		  AND m.movieId NOT IN (SELECT movieId FROM ratings WHERE userId = ?)
		ORDER BY ` + rankOrder + `
		LIMIT ?`
	return scanSummaries(ctx, r.db, q, args...)
}

// TopRatedQuery filters the global top list.
type TopRatedQuery struct {
	MinCount       int   // minimum number of ratings
	ExcludeRatedBy int64 // drop movies this user rated; 0 keeps all
	Limit          int
}

// TopRated returns the best rated movies overall.
func (r *RecommendationRepo) TopRated(ctx context.Context, tq TopRatedQuery) ([]model.MovieSummary, error) {
	cond := "s.ratingCount >= ?"
	args := []any{tq.MinCount}
	if tq.ExcludeRatedBy != 0 {
		cond += " AND m.movieId NOT IN (SELECT movieId FROM ratings WHERE userId = ?)"
		args = append(args, tq.ExcludeRatedBy)
	}
	args = append(args, tq.Limit)

	q := `SELECT ` + summaryColumns + `
		FROM movie m
		JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		WHERE ` + cond + `
		ORDER BY ` + rankOrder + `
		LIMIT ?`
	return scanSummaries(ctx, r.db, q, args...)
}

// Hybrid scores every movie the user did not rate highly against the ones
// they did: genreMatch counts the candidate's genres that also appear among
// the high-rated movies, directorMatch counts high-rated movies sharing the
// candidate's director. Only positive scores are returned.
func (r *RecommendationRepo) Hybrid(ctx context.Context, userID int64, limit int) ([]model.HybridRecommendation, error) {
	q := `SELECT * FROM (
		SELECT ` + summaryColumns + `,
			(SELECT COUNT(DISTINCT mg.genreId) FROM movie_genre mg
			  WHERE mg.movieId = m.movieId
			    AND mg.genreId IN (SELECT hg.genreId FROM movie_genre hg WHERE hg.movieId IN (` + highRated + `))
			) AS genreMatch,
			(SELECT COUNT(*) FROM movie hm
			  WHERE hm.movieId IN (` + highRated + `)
			    AND hm.directorId = m.directorId
			) AS directorMatch
		FROM movie m
		LEFT JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		WHERE m.movieId NOT IN (` + highRated + `)
	) scored
	WHERE genreMatch * 2 + directorMatch > 0
	ORDER BY genreMatch * 2 + directorMatch DESC, averageRating IS NULL, averageRating DESC, ratingCount DESC, movieId
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, userID, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HybridRecommendation{}
	for rows.Next() {
		var (
			h   model.HybridRecommendation
			avg sql.NullFloat64
		)
		if err := rows.Scan(&h.MovieID, &h.TitleName, &h.ReleaseYear, &h.ImageURL, &avg, &h.RatingCount,
			&h.GenreMatch, &h.DirectorMatch); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			h.AverageRating = &v
		}
		h.Score = 2*h.GenreMatch + h.DirectorMatch
		out = append(out, h)
	}
	return out, rows.Err()
}

// MovieDirector reports whether the movie exists and, if so, its director
// id (invalid when the movie has none).
func (r *RecommendationRepo) MovieDirector(ctx context.Context, movieID int64) (sql.NullInt64, bool, error) {
	var dir sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT directorId FROM movie WHERE movieId = ?", movieID).Scan(&dir)
	if err == sql.ErrNoRows {
		return dir, false, nil
	}
	if err != nil {
		return dir, false, err
	}
	return dir, true, nil
}

// SimilarByGenre returns other movies sharing at least one genre.
func (r *RecommendationRepo) SimilarByGenre(ctx context.Context, movieID int64, limit int) ([]model.MovieSummary, error) {
	return r.similar(ctx, `EXISTS (SELECT 1 FROM movie_genre a JOIN movie_genre b ON b.genreId = a.genreId
		WHERE a.movieId = m.movieId AND b.movieId = ?)`, movieID, limit)
}

// SimilarByDirector returns other movies by the given director.
func (r *RecommendationRepo) SimilarByDirector(ctx context.Context, movieID, directorID int64, limit int) ([]model.MovieSummary, error) {
	q := `SELECT ` + summaryColumns + `
		FROM movie m
		LEFT JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		WHERE m.directorId = ? AND m.movieId <> ?
		ORDER BY ` + rankOrder + `
		LIMIT ?`
	return scanSummaries(ctx, r.db, q, directorID, movieID, limit)
}

// SimilarByProduction returns other movies sharing a production house.
func (r *RecommendationRepo) SimilarByProduction(ctx context.Context, movieID int64, limit int) ([]model.MovieSummary, error) {
	return r.similar(ctx, `EXISTS (SELECT 1 FROM movie_production a JOIN movie_production b ON b.prodId = a.prodId
		WHERE a.movieId = m.movieId AND b.movieId = ?)`, movieID, limit)
}

// similar runs a similarity query whose shared-attribute condition takes
// the source movie id as its only parameter.
func (r *RecommendationRepo) similar(ctx context.Context, shared string, movieID int64, limit int) ([]model.MovieSummary, error) {
	q := `SELECT ` + summaryColumns + `
		FROM movie m
		LEFT JOIN ` + movieStats + ` s ON s.movieId = m.movieId
		WHERE m.movieId <> ? AND ` + shared + `
		ORDER BY ` + rankOrder + `
		LIMIT ?`
	return scanSummaries(ctx, r.db, q, movieID, movieID, limit)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
