package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/metrics"
    "github.com/iliyamo/online-movie-api/internal/model"
)

// RatingStore upserts and lists ratings.
type RatingStore interface {
    Upsert(ctx context.Context, userID, movieID int64, rating float64) (int64, error)
    ForUser(ctx context.Context, userID int64) ([]model.UserRating, error)
}

type RatingHandler struct {
    Ratings RatingStore
}

type rateReq struct {
    MovieID flexInt   `json:"movieId"`
    Rating  flexFloat `json:"rating"`
}

// RateMovie stores the session user's score for a movie. A second rating
// of the same movie replaces the first.
func (h *RatingHandler) RateMovie(c echo.Context) error {
    u, err := sessionUser(c)
    if err != nil {
        return respondError(c, err, "Failed to save rating")
    }
    var req rateReq
    if err := bindBody(c, &req); err != nil || req.MovieID <= 0 || req.Rating == 0 {
        return respondError(c, apperror.ValidationFailed("", "userId, movieId, rating required"), "Failed to save rating")
    }
    if req.Rating < 0 || req.Rating > 5 {
        return respondError(c, apperror.ValidationFailed("rating", "rating must be between 0 and 5"), "Failed to save rating")
    }

    affected, err := h.Ratings.Upsert(c.Request().Context(), u.UserID, int64(req.MovieID), float64(req.Rating))
    if err != nil {
        return respondError(c, err, "Failed to save rating")
    }
    metrics.RatingsSaved.Inc()
    return c.JSON(http.StatusCreated, echo.Map{
        "message":      "Rating saved successfully",
        "affectedRows": affected,
    })
}

// UserRatings lists the caller's own ratings, newest first.
func (h *RatingHandler) UserRatings(c echo.Context) error {
    uid, err := ownUserID(c)
    if err != nil {
        return respondError(c, err, "Failed to fetch user ratings")
    }
    rows, err := h.Ratings.ForUser(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, err, "Failed to fetch user ratings")
    }
    return c.JSON(http.StatusOK, rows)
}
