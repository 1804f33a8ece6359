package model

import "time"

// MovieSummary is one catalog row: a movie with its rating aggregate.
// AverageRating is nil when nobody rated the movie yet.
type MovieSummary struct {
    MovieID       int64    `json:"movieId"`
    TitleName     string   `json:"titleName"`
    ReleaseYear   *int64   `json:"releaseYear"`
    ImageURL      *string  `json:"imageUrl"`
    AverageRating *float64 `json:"averageRating"`
    RatingCount   int64    `json:"ratingCount"`
}

// MovieDetail is the single-movie view. Actors and ProductionHouses are
// comma joined names; both are nil when the movie has no such links.
type MovieDetail struct {
    MovieID          int64   `json:"movieId"`
    TitleName        string  `json:"titleName"`
    ReleaseYear      *int64  `json:"releaseYear"`
    ImageURL         *string `json:"imageUrl"`
    TrailerURL       string  `json:"trailerUrl"`
    DirectorName     *string `json:"directorName"`
    DirectorID       *int64  `json:"directorId"`
    Actors           *string `json:"actors"`
    ProductionHouses *string `json:"productionHouses"`
}

// MovieRating is one (user, rating) pair for a movie.
type MovieRating struct {
    TitleName string  `json:"titleName"`
    Rating    float64 `json:"rating"`
    UserName  string  `json:"userName"`
}

// UserRating is one of the caller's own ratings joined with the movie.
type UserRating struct {
    MovieID     int64     `json:"movieId"`
    Rating      float64   `json:"rating"`
    TimeStamp   time.Time `json:"timeStamp"`
    TitleName   string    `json:"titleName"`
    ReleaseYear *int64    `json:"releaseYear"`
    ImageURL    *string   `json:"imageUrl"`
}

// WatchlistMovie is a movie on a user's watchlist.
type WatchlistMovie struct {
    MovieID     int64   `json:"movieId"`
    TitleName   string  `json:"titleName"`
    ReleaseYear *int64  `json:"releaseYear"`
    ImageURL    *string `json:"imageUrl"`
}

// FormData lists every known reference name for the authoring form.
type FormData struct {
    Directors  []string `json:"directors"`
    Actors     []string `json:"actors"`
    Genres     []string `json:"genres"`
    ProdHouses []string `json:"prodHouses"`
}

// NewMovie is the authoring input. Director and production house are
// resolved by name; actor and genre names are resolved one by one.
type NewMovie struct {
    TitleName     string
    ReleaseYear   int
    DirectorName  string
    ProdHouseName string
    ImageURL      string
    TrailerURL    string
    ActorNames    []string
    GenreNames    []string
}

// HybridRecommendation is a movie scored against the caller's favourites.
// Score is 2*GenreMatch + DirectorMatch.
type HybridRecommendation struct {
    MovieSummary
    GenreMatch    int64 `json:"genreMatch"`
    DirectorMatch int64 `json:"directorMatch"`
    Score         int64 `json:"score"`
}
