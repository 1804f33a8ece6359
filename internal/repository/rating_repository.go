package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/online-movie-api/internal/model"
)

type RatingRepo struct{ db *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert stores the caller's rating for a movie, replacing an earlier one.
// The (userId, movieId) primary key keeps a single row per pair. The
// returned count follows MySQL: 1 for a new row, 2 for a changed one.
func (r *RatingRepo) Upsert(ctx context.Context, userID, movieID int64, rating float64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ratings (userId, movieId, rating, `timeStamp`) VALUES (?,?,?,NOW()) "+
			"ON DUPLICATE KEY UPDATE rating = VALUES(rating), `timeStamp` = NOW()",
		userID, movieID, rating)
	if err != nil {
		if isMissingParent(err) {
			return 0, ErrMovieNotFound
		}
		return 0, err
	}
	return res.RowsAffected()
}

// ForUser lists a user's ratings, newest first.
func (r *RatingRepo) ForUser(ctx context.Context, userID int64) ([]model.UserRating, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT r.movieId, r.rating, r.`timeStamp`, "+
		"m.titleName, m.releaseYear, m.imageUrl "+
		"FROM ratings r JOIN movie m ON m.movieId = r.movieId "+
		"WHERE r.userId = ? ORDER BY r.`timeStamp` DESC, r.movieId DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserRating{}
	for rows.Next() {
		var ur model.UserRating
		if err := rows.Scan(&ur.MovieID, &ur.Rating, &ur.TimeStamp, &ur.TitleName, &ur.ReleaseYear, &ur.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}
