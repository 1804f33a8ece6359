package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/model"
)

// WatchlistStore manages (user, movie) watchlist pairs.
type WatchlistStore interface {
    Add(ctx context.Context, userID, movieID int64) error
    Remove(ctx context.Context, userID, movieID int64) error
    List(ctx context.Context, userID int64) ([]model.WatchlistMovie, error)
}

type WatchlistHandler struct {
    Watchlist WatchlistStore
}

type watchlistReq struct {
    MovieID flexInt `json:"movieId"`
}

// List returns the watchlist of :userId, which must be the caller.
func (h *WatchlistHandler) List(c echo.Context) error {
    uid, err := ownUserID(c)
    if err != nil {
        return respondError(c, err, "Failed to fetch watchlist")
    }
    rows, err := h.Watchlist.List(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, err, "Failed to fetch watchlist")
    }
    return c.JSON(http.StatusOK, rows)
}

// Add is insert-if-absent.
func (h *WatchlistHandler) Add(c echo.Context) error {
    u, movieID, err := h.pair(c)
    if err != nil {
        return respondError(c, err, "Failed to add to watchlist")
    }
    if err := h.Watchlist.Add(c.Request().Context(), u.UserID, movieID); err != nil {
        return respondError(c, err, "Failed to add to watchlist")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Added to watchlist"})
}

// Remove succeeds whether or not the pair existed.
func (h *WatchlistHandler) Remove(c echo.Context) error {
    u, movieID, err := h.pair(c)
    if err != nil {
        return respondError(c, err, "Failed to remove from watchlist")
    }
    if err := h.Watchlist.Remove(c.Request().Context(), u.UserID, movieID); err != nil {
        return respondError(c, err, "Failed to remove from watchlist")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Removed from watchlist"})
}

func (h *WatchlistHandler) pair(c echo.Context) (model.User, int64, error) {
    u, err := sessionUser(c)
    if err != nil {
        return model.User{}, 0, err
    }
    var req watchlistReq
    if err := bindBody(c, &req); err != nil || req.MovieID <= 0 {
        return model.User{}, 0, apperror.ValidationFailed("movieId", "movieId required")
    }
    return u, int64(req.MovieID), nil
}
