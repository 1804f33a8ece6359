package handler

import (
    "bytes"
    "context"
    "net/http"
    "strings"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/metrics"
    "github.com/iliyamo/online-movie-api/internal/model"
)

// MovieAuthor creates a movie with all of its associations atomically.
type MovieAuthor interface {
    Create(ctx context.Context, in model.NewMovie) (int64, error)
}

type AuthoringHandler struct {
    Movies MovieAuthor
}

type addMovieReq struct {
    TitleName     string   `json:"titleName" validate:"required"`
    ReleaseYear   flexInt  `json:"releaseYear"`
    DirectorName  string   `json:"directorName" validate:"required"`
    ProdHouseName string   `json:"prodHouseName" validate:"required"`
    ImageURL      string   `json:"imageUrl"`
    TrailerURL    string   `json:"trailerUrl"`
    ActorNames    nameList `json:"actorNames"`
    GenreNames    nameList `json:"genreNames"`
}

// AddMovie inserts a movie, its director, production house, cast and
// genres in one transaction. Any failure leaves nothing behind.
func (h *AuthoringHandler) AddMovie(c echo.Context) error {
    var req addMovieReq
    if err := bindAndValidate(c, &req); err != nil {
        metrics.MoviesAuthored.WithLabelValues("invalid").Inc()
        return respondError(c, err, "Failed to add movie. Transaction rolled back.")
    }

    id, err := h.Movies.Create(c.Request().Context(), model.NewMovie{
        TitleName:     strings.TrimSpace(req.TitleName),
        ReleaseYear:   int(req.ReleaseYear),
        DirectorName:  strings.TrimSpace(req.DirectorName),
        ProdHouseName: strings.TrimSpace(req.ProdHouseName),
        ImageURL:      strings.TrimSpace(req.ImageURL),
        TrailerURL:    strings.TrimSpace(req.TrailerURL),
        ActorNames:    req.ActorNames,
        GenreNames:    req.GenreNames,
    })
    if err != nil {
        metrics.MoviesAuthored.WithLabelValues("rolled_back").Inc()
        return respondError(c, err, "Failed to add movie. Transaction rolled back.")
    }
    metrics.MoviesAuthored.WithLabelValues("committed").Inc()
    return c.JSON(http.StatusCreated, echo.Map{"message": "Movie added successfully!", "movieId": id})
}

// nameList accepts a JSON array of names or a single comma separated
// string, which is what the admin form posts.
type nameList []string

func (n *nameList) UnmarshalJSON(b []byte) error {
    if bytes.Equal(b, []byte("null")) {
        *n = nil
        return nil
    }
    if len(b) > 0 && b[0] == '"' {
        var s string
        if err := json.Unmarshal(b, &s); err != nil {
            return err
        }
        *n = strings.Split(s, ",")
        return nil
    }
    var names []string
    if err := json.Unmarshal(b, &names); err != nil {
        return err
    }
    *n = names
    return nil
}
