package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/online-movie-api/internal/model"
)

type WatchlistRepo struct{ db *sql.DB }

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{db: db} }

// Add puts a movie on the user's watchlist. Adding it twice is a no-op.
// A no-op update is used instead of INSERT IGNORE so an unknown movie still
// fails its foreign key.
func (r *WatchlistRepo) Add(ctx context.Context, userID, movieID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO watchlist (userId, movieId) VALUES (?,?) ON DUPLICATE KEY UPDATE movieId = movieId",
		userID, movieID)
	if isMissingParent(err) {
		return ErrMovieNotFound
	}
	return err
}

// Remove deletes the entry if present.
func (r *WatchlistRepo) Remove(ctx context.Context, userID, movieID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE userId=? AND movieId=?", userID, movieID)
	return err
}

// List returns the user's watchlist, most recently added first.
func (r *WatchlistRepo) List(ctx context.Context, userID int64) ([]model.WatchlistMovie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT m.movieId, m.titleName, m.releaseYear, m.imageUrl
		FROM watchlist w
		JOIN movie m ON m.movieId = w.movieId
		WHERE w.userId = ?
		ORDER BY w.createdAt DESC, m.movieId DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WatchlistMovie{}
	for rows.Next() {
		var w model.WatchlistMovie
		if err := rows.Scan(&w.MovieID, &w.TitleName, &w.ReleaseYear, &w.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
