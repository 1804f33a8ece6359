package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/model"
)

// Recommender is implemented by service.Recommender.
type Recommender interface {
    ByGenre(ctx context.Context, userID int64) ([]model.MovieSummary, error)
    Hybrid(ctx context.Context, userID int64) (any, error)
    SimilarByGenre(ctx context.Context, movieID int64) ([]model.MovieSummary, error)
    SimilarByDirector(ctx context.Context, movieID int64) ([]model.MovieSummary, error)
    SimilarByProduction(ctx context.Context, movieID int64) ([]model.MovieSummary, error)
}

type RecommendationHandler struct {
    Recommender Recommender
}

// ForUser recommends movies from the caller's favourite genres.
func (h *RecommendationHandler) ForUser(c echo.Context) error {
    uid, err := ownUserID(c)
    if err != nil {
        return respondError(c, err, "Failed to compute recommendations")
    }
    movies, err := h.Recommender.ByGenre(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, err, "Failed to compute recommendations")
    }
    return c.JSON(http.StatusOK, movies)
}

// Hybrid scores candidates by genre and director overlap with the
// caller's high-rated movies.
func (h *RecommendationHandler) Hybrid(c echo.Context) error {
    uid, err := ownUserID(c)
    if err != nil {
        return respondError(c, err, "Failed to compute AI recommendations")
    }
    out, err := h.Recommender.Hybrid(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, err, "Failed to compute AI recommendations")
    }
    return c.JSON(http.StatusOK, out)
}

func (h *RecommendationHandler) SimilarByGenre(c echo.Context) error {
    return h.similar(c, h.Recommender.SimilarByGenre)
}

func (h *RecommendationHandler) SimilarByDirector(c echo.Context) error {
    return h.similar(c, h.Recommender.SimilarByDirector)
}

func (h *RecommendationHandler) SimilarByProduction(c echo.Context) error {
    return h.similar(c, h.Recommender.SimilarByProduction)
}

func (h *RecommendationHandler) similar(c echo.Context, find func(context.Context, int64) ([]model.MovieSummary, error)) error {
    id, err := pathID(c, "movieId")
    if err != nil {
        return respondError(c, err, "Failed to fetch similar movies")
    }
    movies, err := find(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err, "Failed to fetch similar movies")
    }
    if movies == nil {
        movies = []model.MovieSummary{}
    }
    return c.JSON(http.StatusOK, movies)
}
