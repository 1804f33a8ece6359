// This file holds the public catalog handlers: movie search, movie detail,
// the per-movie rating list, the user list and the lookup lists used by the
// authoring form. None of them require a session.

package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/model"
)

// CatalogStore is the read side of the movie catalog.
type CatalogStore interface {
    ListMovies(ctx context.Context, search string) ([]model.MovieSummary, error)
    GetMovie(ctx context.Context, id int64) (model.MovieDetail, error)
    MovieRatings(ctx context.Context, movieID int64) ([]model.MovieRating, error)
    FormData(ctx context.Context) (model.FormData, error)
}

// UserLister lists registered users.
type UserLister interface {
    List(ctx context.Context) ([]model.User, error)
}

// CatalogHandler serves the unauthenticated browse endpoints.
type CatalogHandler struct {
    Catalog CatalogStore
    Users   UserLister
}

// ListMovies returns every movie with its rating aggregate. ?search narrows
// the list by title, director, actor or genre.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
    movies, err := h.Catalog.ListMovies(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")))
    if err != nil {
        return respondError(c, err, "Failed to fetch movies")
    }
    return c.JSON(http.StatusOK, movies)
}

// GetMovie returns one movie with its director, cast and production houses.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err, "Failed to fetch movie details")
    }
    m, err := h.Catalog.GetMovie(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err, "Failed to fetch movie details")
    }
    return c.JSON(http.StatusOK, m)
}

// MovieDetails lists every rating of a movie. An unrated movie answers
// 404, the same as a missing one.
func (h *CatalogHandler) MovieDetails(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err, "Failed to fetch movie details")
    }
    rows, err := h.Catalog.MovieRatings(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err, "Failed to fetch movie details")
    }
    return c.JSON(http.StatusOK, rows)
}

func (h *CatalogHandler) ListUsers(c echo.Context) error {
    users, err := h.Users.List(c.Request().Context())
    if err != nil {
        return respondError(c, err, "Failed to fetch users")
    }
    return c.JSON(http.StatusOK, users)
}

// FormData returns the reference names offered by the add-movie form.
func (h *CatalogHandler) FormData(c echo.Context) error {
    fd, err := h.Catalog.FormData(c.Request().Context())
    if err != nil {
        return respondError(c, err, "Failed to get form data")
    }
    return c.JSON(http.StatusOK, fd)
}
