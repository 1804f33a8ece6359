package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/online-movie-api/internal/model"
)

// RefTable names a reference table whose rows are identified by a name
// column. Only the package level values below are valid; their names are
// interpolated into SQL.
type RefTable struct {
	Table, IDCol, NameCol string
}

var (
	Directors        = RefTable{"director", "directorId", "directorName"}
	Actors           = RefTable{"actor", "actorId", "actorName"}
	Genres           = RefTable{"genre", "genreId", "genreName"}
	ProductionHouses = RefTable{"production_house", "prodId", "prodName"}
)

// txExecer is the part of *sql.Tx used by authoring.
type txExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FindOrCreate returns the id of the row named name in ref, inserting it
// when missing. With several rows of the same name the lowest id wins.
func FindOrCreate(ctx context.Context, q txExecer, ref RefTable, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		"SELECT "+ref.IDCol+" FROM "+ref.Table+" WHERE "+ref.NameCol+" = ? ORDER BY "+ref.IDCol+" LIMIT 1",
		name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := q.ExecContext(ctx, "INSERT INTO "+ref.Table+" ("+ref.NameCol+") VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MovieRepo writes movies together with their reference rows.
type MovieRepo struct{ db *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and every association in one transaction and
// returns the new movie id. Any failure rolls back all of it.
func (r *MovieRepo) Create(ctx context.Context, in model.NewMovie) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	directorID, err := FindOrCreate(ctx, tx, Directors, in.DirectorName)
	if err != nil {
		return 0, err
	}
	prodID, err := FindOrCreate(ctx, tx, ProductionHouses, in.ProdHouseName)
	if err != nil {
		return 0, err
	}

	movieID, err := insertMovie(ctx, tx, in, directorID)
	if err != nil {
		return 0, err
	}

	if err := linkNames(ctx, tx, Actors, "movie_actor", movieID, in.ActorNames); err != nil {
		return 0, err
	}
	if err := linkNames(ctx, tx, Genres, "movie_genre", movieID, in.GenreNames); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO movie_production (movieId, prodId) VALUES (?,?)", movieID, prodID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return movieID, nil
}

// insertMovie writes the movie row. Databases created before trailers
// existed lack the trailerUrl column; the insert is repeated without it.
func insertMovie(ctx context.Context, tx txExecer, in model.NewMovie, directorID int64) (int64, error) {
	year := nullInt(in.ReleaseYear)
	image := nullString(in.ImageURL)

	if in.TrailerURL != "" {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO movie (titleName, releaseYear, directorId, imageUrl, trailerUrl) VALUES (?,?,?,?,?)",
			in.TitleName, year, directorID, image, in.TrailerURL)
		if err == nil {
			return res.LastInsertId()
		}
		if !isUnknownColumn(err) {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO movie (titleName, releaseYear, directorId, imageUrl) VALUES (?,?,?,?)",
		in.TitleName, year, directorID, image)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// linkNames resolves names in ref and inserts one (movieId, id) row per
// distinct id into the association table.
func linkNames(ctx context.Context, tx txExecer, ref RefTable, assoc string, movieID int64, names []string) error {
	ids, err := resolveIDs(ctx, uniqueNames(names), func(ctx context.Context, name string) (int64, error) {
		return FindOrCreate(ctx, tx, ref, name)
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+assoc+" (movieId, "+ref.IDCol+") VALUES (?,?)", movieID, id); err != nil {
			return err
		}
	}
	return nil
}

// resolveIDs maps names to ids and drops repeated ids. Names that differ
// only in case or accents resolve to the same row under the default
// collation.
func resolveIDs(ctx context.Context, names []string, resolve func(context.Context, string) (int64, error)) ([]int64, error) {
	seen := make(map[int64]struct{}, len(names))
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		id, err := resolve(ctx, n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// uniqueNames trims names and drops blanks and repeats, keeping order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
