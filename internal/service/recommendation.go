// Package service holds the recommendation strategies. Each strategy picks
// its queries from the caller's rating history so that cold-start users
// still get a list instead of an error.
package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/online-movie-api/internal/model"
	"github.com/iliyamo/online-movie-api/internal/repository"
)

const (
	recommendLimit    = 20
	similarLimit      = 10
	preferredGenres   = 3
	genreFallbackMin  = 1 // ratings needed for the genre strategy fallback
	hybridColdMin     = 3 // ratings needed when the user rated nothing
	hybridLukewarmMin = 2 // ratings needed when nothing was rated 4 or more
)

// RecommendationStore is the query surface the strategies need.
type RecommendationStore interface {
	RatingCounts(ctx context.Context, userID int64) (total, high int64, err error)
	PreferredGenres(ctx context.Context, userID int64, limit int) ([]int64, error)
	InGenresUnrated(ctx context.Context, userID int64, genreIDs []int64, limit int) ([]model.MovieSummary, error)
	TopRated(ctx context.Context, q repository.TopRatedQuery) ([]model.MovieSummary, error)
	Hybrid(ctx context.Context, userID int64, limit int) ([]model.HybridRecommendation, error)
	MovieDirector(ctx context.Context, movieID int64) (sql.NullInt64, bool, error)
	SimilarByGenre(ctx context.Context, movieID int64, limit int) ([]model.MovieSummary, error)
	SimilarByDirector(ctx context.Context, movieID, directorID int64, limit int) ([]model.MovieSummary, error)
	SimilarByProduction(ctx context.Context, movieID int64, limit int) ([]model.MovieSummary, error)
}

type Recommender struct {
	store RecommendationStore
}

func NewRecommender(store RecommendationStore) *Recommender {
	return &Recommender{store: store}
}

// ByGenre recommends unrated movies from the user's three favourite
// genres, falling back to the global top list.
func (s *Recommender) ByGenre(ctx context.Context, userID int64) ([]model.MovieSummary, error) {
	genres, err := s.store.PreferredGenres(ctx, userID, preferredGenres)
	if err != nil {
		return nil, err
	}
	if len(genres) == 0 {
		return s.store.TopRated(ctx, repository.TopRatedQuery{MinCount: genreFallbackMin, Limit: recommendLimit})
	}
	return s.store.InGenresUnrated(ctx, userID, genres, recommendLimit)
}

// Hybrid mixes content similarity with the user's high ratings. Results
// are HybridRecommendation for users with favourites and MovieSummary for
// the two cold-start branches.
func (s *Recommender) Hybrid(ctx context.Context, userID int64) (any, error) {
	total, high, err := s.store.RatingCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case total == 0:
		return s.store.TopRated(ctx, repository.TopRatedQuery{MinCount: hybridColdMin, Limit: recommendLimit})
	case high == 0:
		return s.store.TopRated(ctx, repository.TopRatedQuery{
			MinCount: hybridLukewarmMin, ExcludeRatedBy: userID, Limit: recommendLimit,
		})
	}
	return s.store.Hybrid(ctx, userID, recommendLimit)
}

// SimilarByGenre returns up to ten movies sharing a genre with movieID.
func (s *Recommender) SimilarByGenre(ctx context.Context, movieID int64) ([]model.MovieSummary, error) {
	if _, err := s.source(ctx, movieID); err != nil {
		return nil, err
	}
	return s.store.SimilarByGenre(ctx, movieID, similarLimit)
}

// SimilarByDirector returns up to ten movies by the same director; a
// movie without director yields an empty list.
func (s *Recommender) SimilarByDirector(ctx context.Context, movieID int64) ([]model.MovieSummary, error) {
	dir, err := s.source(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !dir.Valid {
		return []model.MovieSummary{}, nil
	}
	return s.store.SimilarByDirector(ctx, movieID, dir.Int64, similarLimit)
}

// SimilarByProduction returns up to ten movies sharing a production house.
func (s *Recommender) SimilarByProduction(ctx context.Context, movieID int64) ([]model.MovieSummary, error) {
	if _, err := s.source(ctx, movieID); err != nil {
		return nil, err
	}
	return s.store.SimilarByProduction(ctx, movieID, similarLimit)
}

// source loads the source movie's director and fails for unknown ids.
func (s *Recommender) source(ctx context.Context, movieID int64) (sql.NullInt64, error) {
	dir, ok, err := s.store.MovieDirector(ctx, movieID)
	if err != nil {
		return dir, err
	}
	if !ok {
		return dir, repository.ErrMovieNotFound
	}
	return dir, nil
}
