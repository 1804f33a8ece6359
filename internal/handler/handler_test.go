package handler

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/online-movie-api/internal/auth"
    "github.com/iliyamo/online-movie-api/internal/middleware"
    "github.com/iliyamo/online-movie-api/internal/model"
    "github.com/iliyamo/online-movie-api/internal/repository"
    "github.com/iliyamo/online-movie-api/internal/utils"
    "github.com/iliyamo/online-movie-api/internal/validation"
)

var ann = model.User{UserID: 7, UserName: "Ann", EmailID: "ann@x.com"}

func newEcho() *echo.Echo {
    e := echo.New()
    e.JSONSerializer = JSONSerializer{}
    e.Validator = validation.EchoValidator{}
    return e
}

// as attaches u to every request, standing in for SessionAuth.
func as(u model.User) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            middleware.SetUser(c, u, "sid-1")
            return next(c)
        }
    }
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

// ----- mocks -----

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, name, email, password string) (model.User, error) {
    args := m.Called(ctx, name, email, password)
    return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetCredentials(ctx context.Context, email string) (model.User, string, error) {
    args := m.Called(ctx, email)
    return args.Get(0).(model.User), args.String(1), args.Error(2)
}

func (m *mockUsers) FindOrCreateByEmail(ctx context.Context, email, name string) (model.User, error) {
    args := m.Called(ctx, email, name)
    return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) List(ctx context.Context) ([]model.User, error) {
    args := m.Called(ctx)
    return args.Get(0).([]model.User), args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, s model.Session) error {
    return m.Called(ctx, s).Error(0)
}

func (m *mockSessions) Delete(ctx context.Context, sid string) error {
    return m.Called(ctx, sid).Error(0)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) ListMovies(ctx context.Context, search string) ([]model.MovieSummary, error) {
    args := m.Called(ctx, search)
    return args.Get(0).([]model.MovieSummary), args.Error(1)
}

func (m *mockCatalog) GetMovie(ctx context.Context, id int64) (model.MovieDetail, error) {
    args := m.Called(ctx, id)
    return args.Get(0).(model.MovieDetail), args.Error(1)
}

func (m *mockCatalog) MovieRatings(ctx context.Context, id int64) ([]model.MovieRating, error) {
    args := m.Called(ctx, id)
    return args.Get(0).([]model.MovieRating), args.Error(1)
}

func (m *mockCatalog) FormData(ctx context.Context) (model.FormData, error) {
    args := m.Called(ctx)
    return args.Get(0).(model.FormData), args.Error(1)
}

type mockRatings struct{ mock.Mock }

func (m *mockRatings) Upsert(ctx context.Context, userID, movieID int64, rating float64) (int64, error) {
    args := m.Called(ctx, userID, movieID, rating)
    return args.Get(0).(int64), args.Error(1)
}

func (m *mockRatings) ForUser(ctx context.Context, userID int64) ([]model.UserRating, error) {
    args := m.Called(ctx, userID)
    return args.Get(0).([]model.UserRating), args.Error(1)
}

type mockWatchlist struct{ mock.Mock }

func (m *mockWatchlist) Add(ctx context.Context, userID, movieID int64) error {
    return m.Called(ctx, userID, movieID).Error(0)
}

func (m *mockWatchlist) Remove(ctx context.Context, userID, movieID int64) error {
    return m.Called(ctx, userID, movieID).Error(0)
}

func (m *mockWatchlist) List(ctx context.Context, userID int64) ([]model.WatchlistMovie, error) {
    args := m.Called(ctx, userID)
    return args.Get(0).([]model.WatchlistMovie), args.Error(1)
}

type mockAuthor struct{ mock.Mock }

func (m *mockAuthor) Create(ctx context.Context, in model.NewMovie) (int64, error) {
    args := m.Called(ctx, in)
    return args.Get(0).(int64), args.Error(1)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) Read(ctx context.Context, table, search string) (model.TableInfo, []map[string]any, error) {
    args := m.Called(ctx, table, search)
    return args.Get(0).(model.TableInfo), args.Get(1).([]map[string]any), args.Error(2)
}

func (m *mockAdmin) Insert(ctx context.Context, table string, record map[string]any) (int64, error) {
    args := m.Called(ctx, table, record)
    return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) Update(ctx context.Context, table string, keyValues, updates map[string]any) (int64, error) {
    args := m.Called(ctx, table, keyValues, updates)
    return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) Delete(ctx context.Context, table string, keyValues map[string]any) (int64, error) {
    args := m.Called(ctx, table, keyValues)
    return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) RawQuery(ctx context.Context, query string) (any, error) {
    args := m.Called(ctx, query)
    return args.Get(0), args.Error(1)
}

// ----- auth -----

func newAuth(users *mockUsers, sessions *mockSessions) *AuthHandler {
    return NewAuthHandler(users, sessions, utils.Passwords{Mode: utils.PasswordPlain},
        SessionOptions{Secret: "secret", TTL: time.Hour})
}

func TestRegisterThenDuplicate(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    users.On("Create", mock.Anything, "Ann", "ann@x.com", "p1").Return(ann, nil).Once()
    users.On("Create", mock.Anything, "Ann", "ann@x.com", "p1").Return(model.User{}, repository.ErrEmailExists).Once()
    sessions.On("Create", mock.Anything, mock.MatchedBy(func(s model.Session) bool {
        return s.UserID == ann.UserID && s.SessionID != ""
    })).Return(nil)

    e := newEcho()
    e.POST("/api/register", newAuth(users, sessions).Register)
    body := `{"userName":"Ann","emailId":"ann@x.com","password":"p1"}`

    rec := do(e, http.MethodPost, "/api/register", body)
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"userId":7,"userName":"Ann"}`, rec.Body.String())
    require.Len(t, rec.Result().Cookies(), 1)
    assert.Equal(t, middleware.SessionCookie, rec.Result().Cookies()[0].Name)
    assert.True(t, rec.Result().Cookies()[0].HttpOnly)

    rec = do(e, http.MethodPost, "/api/register", body)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.JSONEq(t, `{"error":"Email already exists."}`, rec.Body.String())
    users.AssertExpectations(t)
}

func TestRegisterMissingFields(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    e := newEcho()
    e.POST("/api/register", newAuth(users, sessions).Register)

    rec := do(e, http.MethodPost, "/api/register", `{"userName":"Ann","emailId":"ann@x.com"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"All fields are required."}`, rec.Body.String())
    users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterSessionFailureStillCreated(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    users.On("Create", mock.Anything, "Ann", "ann@x.com", "p1").Return(ann, nil)
    sessions.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

    e := newEcho()
    e.POST("/api/register", newAuth(users, sessions).Register)
    rec := do(e, http.MethodPost, "/api/register", `{"userName":"Ann","emailId":"ann@x.com","password":"p1"}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Empty(t, rec.Result().Cookies())
}

func TestLogin(t *testing.T) {
    cases := []struct {
        name     string
        stored   string
        lookup   error
        password string
        want     int
    }{
        {"ok", "p1", nil, "p1", http.StatusOK},
        {"wrong password", "p1", nil, "nope", http.StatusUnauthorized},
        {"unknown email", "", repository.ErrUserNotFound, "p1", http.StatusUnauthorized},
        {"oauth account", model.PasswordOAuth, nil, model.PasswordOAuth, http.StatusUnauthorized},
        {"store failure", "", errors.New("boom"), "p1", http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            users, sessions := new(mockUsers), new(mockSessions)
            users.On("GetCredentials", mock.Anything, "ann@x.com").Return(ann, tc.stored, tc.lookup)
            sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

            e := newEcho()
            e.POST("/api/login", newAuth(users, sessions).Login)
            rec := do(e, http.MethodPost, "/api/login", `{"emailId":"ann@x.com","password":"`+tc.password+`"}`)
            assert.Equal(t, tc.want, rec.Code)
            if tc.want == http.StatusOK {
                assert.JSONEq(t, `{"userId":7,"userName":"Ann","emailId":"ann@x.com"}`, rec.Body.String())
            }
            if tc.want == http.StatusUnauthorized {
                assert.JSONEq(t, `{"error":"Invalid email or password."}`, rec.Body.String())
                sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
            }
        })
    }
}

func TestLogoutAndMe(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    sessions.On("Delete", mock.Anything, "sid-1").Return(nil)
    h := newAuth(users, sessions)

    e := newEcho()
    e.POST("/api/auth/logout", h.Logout, as(ann))
    e.POST("/api/auth/logout-anon", h.Logout)
    e.GET("/api/auth/user", h.Me, as(ann))
    e.GET("/api/auth/anon", h.Me)

    rec := do(e, http.MethodPost, "/api/auth/logout", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"message":"Logged out"}`, rec.Body.String())
    require.Len(t, rec.Result().Cookies(), 1)
    assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
    sessions.AssertCalled(t, "Delete", mock.Anything, "sid-1")

    rec = do(e, http.MethodPost, "/api/auth/logout-anon", "")
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = do(e, http.MethodGet, "/api/auth/user", "")
    assert.JSONEq(t, `{"userId":7,"userName":"Ann","emailId":"ann@x.com"}`, rec.Body.String())
    rec = do(e, http.MethodGet, "/api/auth/anon", "")
    assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

// ----- catalog -----

func TestCatalog(t *testing.T) {
    store := new(mockCatalog)
    avg := 4.5
    store.On("ListMovies", mock.Anything, "matrix").Return([]model.MovieSummary{
        {MovieID: 1, TitleName: "The Matrix", AverageRating: &avg, RatingCount: 2},
    }, nil)
    store.On("GetMovie", mock.Anything, int64(99)).Return(model.MovieDetail{}, repository.ErrMovieNotFound)
    store.On("MovieRatings", mock.Anything, int64(3)).Return([]model.MovieRating(nil), repository.ErrNoRatings)

    e := newEcho()
    h := &CatalogHandler{Catalog: store}
    e.GET("/api/movies", h.ListMovies)
    e.GET("/api/movie/:id", h.GetMovie)
    e.GET("/api/movie_details/:id", h.MovieDetails)

    rec := do(e, http.MethodGet, "/api/movies?search=+matrix+", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"titleName":"The Matrix"`)

    rec = do(e, http.MethodGet, "/api/movie/99", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Movie not found"}`, rec.Body.String())

    rec = do(e, http.MethodGet, "/api/movie/abc", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = do(e, http.MethodGet, "/api/movie_details/3", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Movie not found or not rated"}`, rec.Body.String())
}

func TestCatalogStoreFailureIsGeneric(t *testing.T) {
    store := new(mockCatalog)
    store.On("FormData", mock.Anything).Return(model.FormData{}, errors.New("Table 'x' doesn't exist"))
    e := newEcho()
    e.GET("/api/form_data", (&CatalogHandler{Catalog: store}).FormData)

    rec := do(e, http.MethodGet, "/api/form_data", "")
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"Failed to get form data"}`, rec.Body.String())
}

// ----- ratings & watchlist -----

func TestRateMovie(t *testing.T) {
    store := new(mockRatings)
    store.On("Upsert", mock.Anything, ann.UserID, int64(5), 4.0).Return(int64(1), nil)
    store.On("Upsert", mock.Anything, ann.UserID, int64(5), 2.0).Return(int64(2), nil)

    e := newEcho()
    h := &RatingHandler{Ratings: store}
    e.POST("/api/rate_movie", h.RateMovie, as(ann))
    e.POST("/api/rate_movie_anon", h.RateMovie)

    rec := do(e, http.MethodPost, "/api/rate_movie", `{"movieId":5,"rating":4}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"message":"Rating saved successfully","affectedRows":1}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/rate_movie", `{"movieId":"5","rating":"2"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"message":"Rating saved successfully","affectedRows":2}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/rate_movie", `{"movieId":5}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"userId, movieId, rating required"}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/rate_movie", `{"movieId":5,"rating":9}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    for _, body := range []string{
        `{"movieId":5,"rating":"NaN"}`,
        `{"movieId":5,"rating":"-Inf"}`,
        `{"movieId":"5.9","rating":4}`,
    } {
        rec = do(e, http.MethodPost, "/api/rate_movie", body)
        assert.Equal(t, http.StatusBadRequest, rec.Code, body)
    }

    rec = do(e, http.MethodPost, "/api/rate_movie_anon", `{"movieId":5,"rating":4}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    store.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestOwnerOnlyRoutes(t *testing.T) {
    ratings, watch := new(mockRatings), new(mockWatchlist)
    ratings.On("ForUser", mock.Anything, ann.UserID).Return([]model.UserRating{}, nil)
    watch.On("List", mock.Anything, ann.UserID).Return([]model.WatchlistMovie{}, nil)

    e := newEcho()
    e.GET("/api/user-ratings/:userId", (&RatingHandler{Ratings: ratings}).UserRatings, as(ann))
    e.GET("/api/watchlist/:userId", (&WatchlistHandler{Watchlist: watch}).List, as(ann))

    for _, path := range []string{"/api/user-ratings/", "/api/watchlist/"} {
        rec := do(e, http.MethodGet, path+"7", "")
        assert.Equal(t, http.StatusOK, rec.Code, path)
        assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

        rec = do(e, http.MethodGet, path+"8", "")
        assert.Equal(t, http.StatusForbidden, rec.Code, path)
        assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
    }
}

func TestWatchlistAddRemove(t *testing.T) {
    store := new(mockWatchlist)
    store.On("Add", mock.Anything, ann.UserID, int64(3)).Return(nil)
    store.On("Add", mock.Anything, ann.UserID, int64(404)).Return(repository.ErrMovieNotFound)
    store.On("Remove", mock.Anything, ann.UserID, int64(3)).Return(nil)

    e := newEcho()
    h := &WatchlistHandler{Watchlist: store}
    e.POST("/api/watchlist/add", h.Add, as(ann))
    e.POST("/api/watchlist/remove", h.Remove, as(ann))

    rec := do(e, http.MethodPost, "/api/watchlist/add", `{"movieId":3}`)
    assert.JSONEq(t, `{"message":"Added to watchlist"}`, rec.Body.String())
    rec = do(e, http.MethodPost, "/api/watchlist/add", `{"movieId":404}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    rec = do(e, http.MethodPost, "/api/watchlist/remove", `{"movieId":3}`)
    assert.JSONEq(t, `{"message":"Removed from watchlist"}`, rec.Body.String())
    rec = do(e, http.MethodPost, "/api/watchlist/remove", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- authoring -----

func TestAddMovie(t *testing.T) {
    store := new(mockAuthor)
    store.On("Create", mock.Anything, model.NewMovie{
        TitleName: "Arrival", ReleaseYear: 2016, DirectorName: "Denis Villeneuve",
        ProdHouseName: "Lava Bear", ActorNames: []string{"Amy Adams", " Jeremy Renner"},
        GenreNames: []string{"Sci-Fi"},
    }).Return(int64(42), nil)
    store.On("Create", mock.Anything, mock.MatchedBy(func(in model.NewMovie) bool {
        return in.TitleName == "Broken"
    })).Return(int64(0), errors.New("deadlock"))

    e := newEcho()
    e.POST("/api/add_movie", (&AuthoringHandler{Movies: store}).AddMovie, as(ann))

    rec := do(e, http.MethodPost, "/api/add_movie", `{"titleName":"Arrival","releaseYear":"2016",
        "directorName":"Denis Villeneuve","prodHouseName":"Lava Bear",
        "actorNames":"Amy Adams, Jeremy Renner","genreNames":["Sci-Fi"]}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.JSONEq(t, `{"message":"Movie added successfully!","movieId":42}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/add_movie", `{"titleName":"Broken","directorName":"d","prodHouseName":"p"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"Failed to add movie. Transaction rolled back."}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/add_movie", `{"titleName":"No director"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = do(e, http.MethodPost, "/api/add_movie", `{"titleName":"Odd","releaseYear":"NaN","directorName":"d","prodHouseName":"p"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    store.AssertNumberOfCalls(t, "Create", 2)
}

// ----- admin -----

func TestAdminConsole(t *testing.T) {
    store := new(mockAdmin)
    pk := "movieId"
    store.On("Read", mock.Anything, "movie", "dune").Return(model.TableInfo{
        PrimaryKey: &pk, CompositeKey: []string{"movieId"},
    }, []map[string]any{{"movieId": 1, "titleName": "Dune"}}, nil)
    store.On("Insert", mock.Anything, "genre", map[string]any{"genreName": "Noir"}).Return(int64(12), nil)
    store.On("Update", mock.Anything, "genre", map[string]any{"genreId": float64(12)}, map[string]any{"genreName": "Neo-noir"}).Return(int64(0), nil)
    store.On("Delete", mock.Anything, "genre", map[string]any{"genreId": float64(12)}).Return(int64(1), nil)
    store.On("RawQuery", mock.Anything, "SELEC 1").Return(nil, errors.New("You have an error in your SQL syntax"))

    e := newEcho()
    h := &AdminHandler{Store: store}
    e.GET("/api/tables", h.Tables)
    e.GET("/api/table/:tableName", h.ReadTable)
    e.POST("/api/table/:tableName", h.InsertRow)
    e.PUT("/api/table/:tableName", h.UpdateRow)
    e.DELETE("/api/table/:tableName", h.DeleteRow)
    e.POST("/api/run_query", h.RunQuery)

    rec := do(e, http.MethodGet, "/api/tables", "")
    assert.Contains(t, rec.Body.String(), `"Movie_Ratings_1NF"`)

    rec = do(e, http.MethodGet, "/api/table/movie?search=dune", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"primaryKey":"movieId","compositeKey":["movieId"],"columns":null,
        "rows":[{"movieId":1,"titleName":"Dune"}]}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/table/genre", `{"genreName":"Noir"}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"message":"Record added successfully","insertId":12}`, rec.Body.String())

    rec = do(e, http.MethodPut, "/api/table/genre", `{"primaryKeyValues":{"genreId":12},"updates":{"genreName":"Neo-noir"}}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Record not found or no changes made."}`, rec.Body.String())

    rec = do(e, http.MethodDelete, "/api/table/genre", `{"genreId":12}`)
    assert.JSONEq(t, `{"message":"Record deleted successfully"}`, rec.Body.String())

    rec = do(e, http.MethodPost, "/api/run_query", `{"query":"SELEC 1"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"You have an error in your SQL syntax"}`, rec.Body.String())
}

func TestAdminRejectsUnlistedTable(t *testing.T) {
    store := new(mockAdmin)
    e := newEcho()
    h := &AdminHandler{Store: store}
    e.POST("/api/table/:tableName", h.InsertRow)
    e.DELETE("/api/table/:tableName", h.DeleteRow)

    rec := do(e, http.MethodPost, "/api/table/sessions", `{"session_id":"x"}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    rec = do(e, http.MethodDelete, "/api/table/sessions", `{"session_id":"x"}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
    store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

// ----- oauth -----

type fakeProvider struct {
    id  auth.Identity
    err error
}

func (p fakeProvider) Name() string                 { return "github" }
func (p fakeProvider) AuthURL(state string) string { return "https://idp.example/authorize?state=" + state }
func (p fakeProvider) Exchange(context.Context, string) (auth.Identity, error) {
    return p.id, p.err
}

func TestOAuthFlow(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    users.On("FindOrCreateByEmail", mock.Anything, "octo@users.noreply.github.com", "octo").Return(ann, nil)
    sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
    h := newAuth(users, sessions)
    p := fakeProvider{id: auth.Identity{Email: "octo@users.noreply.github.com", DisplayName: "octo"}}

    e := newEcho()
    e.GET("/api/auth/github", h.OAuthLogin(p))
    e.GET("/api/auth/github/callback", h.OAuthCallback(p, "http://front.test"))

    rec := do(e, http.MethodGet, "/api/auth/github", "")
    require.Equal(t, http.StatusFound, rec.Code)
    require.Len(t, rec.Result().Cookies(), 1)
    state := rec.Result().Cookies()[0]
    assert.Equal(t, "https://idp.example/authorize?state="+state.Value, rec.Header().Get(echo.HeaderLocation))

    callback := func(query string, withState bool) *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?"+query, nil)
        if withState {
            req.AddCookie(&http.Cookie{Name: state.Name, Value: state.Value})
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec
    }

    rec = callback("code=abc&state="+state.Value, true)
    assert.Equal(t, "http://front.test/?oauth=success", rec.Header().Get(echo.HeaderLocation))
    sessions.AssertNumberOfCalls(t, "Create", 1)

    rec = callback("code=abc&state=forged", true)
    assert.Equal(t, "http://front.test/?oauth=failure", rec.Header().Get(echo.HeaderLocation))

    rec = callback("code=abc&state="+state.Value, false)
    assert.Equal(t, "http://front.test/?oauth=failure", rec.Header().Get(echo.HeaderLocation))

    rec = callback("error=access_denied&state="+state.Value, true)
    assert.Equal(t, "http://front.test/?oauth=failure", rec.Header().Get(echo.HeaderLocation))
    sessions.AssertNumberOfCalls(t, "Create", 1)
}

func TestOAuthExchangeFailure(t *testing.T) {
    users, sessions := new(mockUsers), new(mockSessions)
    h := newAuth(users, sessions)
    p := fakeProvider{err: auth.ErrNoEmail}

    e := newEcho()
    e.GET("/cb", h.OAuthCallback(p, "http://front.test"))
    req := httptest.NewRequest(http.MethodGet, "/cb?code=abc&state=s1", nil)
    req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusFound, rec.Code)
    assert.Equal(t, "http://front.test/?oauth=failure", rec.Header().Get(echo.HeaderLocation))
    users.AssertNotCalled(t, "FindOrCreateByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlexNumbers(t *testing.T) {
    var i flexInt
    var f flexFloat
    for _, in := range []string{`7`, `"7"`, `" 7 "`, `7.0`} {
        require.NoError(t, i.UnmarshalJSON([]byte(in)), in)
        assert.Equal(t, flexInt(7), i, in)
    }
    for _, in := range []string{`""`, `null`} {
        require.NoError(t, i.UnmarshalJSON([]byte(in)), in)
        assert.Zero(t, i, in)
    }
    for _, in := range []string{`"5.9"`, `"NaN"`, `"Inf"`, `"1e300"`, `"abc"`} {
        assert.Error(t, i.UnmarshalJSON([]byte(in)), in)
    }

    require.NoError(t, f.UnmarshalJSON([]byte(`"3.5"`)))
    assert.Equal(t, flexFloat(3.5), f)
    for _, in := range []string{`"NaN"`, `"nan"`, `"+Inf"`, `"-infinity"`} {
        assert.Error(t, f.UnmarshalJSON([]byte(in)), in)
    }
}
