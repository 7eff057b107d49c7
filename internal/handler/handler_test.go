package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/database"
	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/logging"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/router"
	"github.com/iliyamo/movie-watchlist/internal/session"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

type rendered struct {
	name string
	data any
}

// recorder stands in for the HTML renderer and keeps every page it was
// asked to render.
type recorder struct {
	mu    sync.Mutex
	pages []rendered
}

func (r *recorder) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.mu.Lock()
	r.pages = append(r.pages, rendered{name: name, data: data})
	r.mu.Unlock()
	_, err := io.WriteString(w, name)
	return err
}

func (r *recorder) last(t *testing.T) rendered {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.pages)
	return r.pages[len(r.pages)-1]
}

type fakeEvents struct {
	mu      sync.Mutex
	ratings []queue.RatingSubmittedEvent
	users   []queue.UserRegisteredEvent
}

func (f *fakeEvents) PublishRatingSubmitted(_ context.Context, ev queue.RatingSubmittedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, ev)
	return nil
}

func (f *fakeEvents) PublishUserRegistered(_ context.Context, ev queue.UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, ev)
	return nil
}

func (f *fakeEvents) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ratings), len(f.users)
}

type app struct {
	e       *echo.Echo
	gw      *database.Gateway
	store   *session.MemoryStore
	users   *repository.UserRepo
	movies  *repository.MovieRepo
	saved   *repository.SavedMovieRepo
	reviews *repository.ReviewRepo
	view    *recorder
	events  *fakeEvents
}

type appOptions struct {
	sessionTTL time.Duration
	limiter    *middleware.CredentialLimiter
}

func newApp(t *testing.T) *app {
	t.Helper()
	return newAppWith(t, appOptions{sessionTTL: time.Hour})
}

func newAppWith(t *testing.T, opt appOptions) *app {
	t.Helper()
	gw, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "data.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	log := logging.Discard()
	cfg := config.Config{BcryptCost: bcrypt.MinCost, AdminUsername: "admin"}
	store := session.NewMemoryStore(opt.sessionTTL)
	mgr := session.NewManager(store, session.Options{Secret: "test-secret", TTL: opt.sessionTTL})

	users := repository.NewUserRepo(gw)
	movies := repository.NewMovieRepo(gw)
	saved := repository.NewSavedMovieRepo(gw)
	reviews := repository.NewReviewRepo(gw)
	ratings := repository.NewRatings(gw, reviews, movies)
	events := &fakeEvents{}

	e := echo.New()
	view := &recorder{}
	e.Renderer = view
	router.Setup(e, router.Deps{
		Log:      log,
		Sessions: mgr,
		DB:       gw.DB(),
		Limiter:  opt.limiter,
		Auth:     handler.NewAuthHandler(cfg, users, mgr, events, log),
		Movies:   handler.NewMovieHandler(movies, saved, reviews, ratings, events, log),
		Users:    handler.NewUserHandler(users, log),
		Admin:    handler.NewAdminHandler(users, log),
	})
	return &app{e: e, gw: gw, store: store, users: users, movies: movies, saved: saved, reviews: reviews, view: view, events: events}
}

// client is a browser: it keeps the cookies the server hands out.
type client struct {
	app     *app
	cookies map[string]*http.Cookie
}

func (a *app) client() *client { return &client{app: a, cookies: map[string]*http.Cookie{}} }

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder { return c.do(http.MethodGet, path, nil) }

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form)
}

// landing fetches "/" and returns the flash it showed.
func (c *client) landing(t *testing.T) handler.LandingView {
	t.Helper()
	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	page := c.app.view.last(t)
	require.Equal(t, "start", page.name)
	return page.data.(handler.LandingView)
}

func signUpForm(name, pw, confirm string) url.Values {
	return url.Values{"username": {name}, "password": {pw}, "password_confirmation": {confirm}}
}

func (a *app) signUpAndLogIn(t *testing.T, name string) (*client, uint64) {
	t.Helper()
	c := a.client()
	require.Equal(t, http.StatusSeeOther, c.post("/try_sign_up", signUpForm(name, "pw", "pw")).Code)
	rec := c.post("/try_log_in", url.Values{"username": {name}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/p/movies", rec.Header().Get("Location"))
	u, err := a.users.FindByName(context.Background(), name)
	require.NoError(t, err)
	return c, u.ID
}

func userCount(t *testing.T, a *app) int {
	t.Helper()
	all, err := a.users.List(context.Background())
	require.NoError(t, err)
	return len(all)
}

func TestSignUpRejections(t *testing.T) {
	a := newApp(t)
	c := a.client()
	require.Equal(t, http.StatusSeeOther, c.post("/try_sign_up", signUpForm("taken", "pw", "pw")).Code)
	c.landing(t)

	cases := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"empty username", signUpForm("", "pw", "pw"), "You need to have a name"},
		{"mismatch", signUpForm("carol", "pw", "other"), "The passwords do not match"},
		{"taken", signUpForm("taken", "pw", "pw"), "That username is already taken"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := c.post("/try_sign_up", tc.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
			assert.Equal(t, 1, userCount(t, a), "no row is created")

			v := c.landing(t)
			assert.Equal(t, tc.msg, v.Message)
			assert.Equal(t, "sign up", v.MessagePosition)
		})
	}
}

func TestSignUpStoresDigest(t *testing.T) {
	a := newApp(t)
	c := a.client()
	c.post("/try_sign_up", signUpForm("dave", "hunter2", "hunter2"))

	u, err := a.users.FindByName(context.Background(), "dave")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", u.PasswordDigest)
	assert.True(t, utils.VerifyPassword(u.PasswordDigest, "hunter2"))

	v := c.landing(t)
	assert.Equal(t, "User dave was successfully created!", v.Message)
	assert.Equal(t, "top", v.MessagePosition)

	assert.Eventually(t, func() bool { _, n := a.events.counts(); return n == 1 }, time.Second, 10*time.Millisecond)
}

func TestFlashIsShownOnce(t *testing.T) {
	a := newApp(t)
	c := a.client()
	c.post("/try_sign_up", signUpForm("", "", ""))

	assert.Equal(t, "You need to have a name", c.landing(t).Message)
	assert.Equal(t, handler.LandingView{}, c.landing(t))
}

func TestLogInRejections(t *testing.T) {
	a := newApp(t)
	c := a.client()
	c.post("/try_sign_up", signUpForm("erin", "right", "right"))
	c.landing(t)

	c.post("/try_log_in", url.Values{"username": {"nobody"}, "password": {"x"}})
	v := c.landing(t)
	assert.Equal(t, "User does not exist", v.Message)
	assert.Equal(t, "log in", v.MessagePosition)

	c.post("/try_log_in", url.Values{"username": {"erin"}, "password": {"wrong"}})
	v = c.landing(t)
	assert.Equal(t, "The password is incorrect", v.Message)
	assert.False(t, v.LoggedIn)

	assert.Equal(t, http.StatusSeeOther, c.get("/p/movies").Code)
}

func TestLogInSetsIdentityAndAdminFlag(t *testing.T) {
	a := newApp(t)

	user, _ := a.signUpAndLogIn(t, "frank")
	assert.Equal(t, http.StatusOK, user.get("/p/movies").Code)
	assert.Equal(t, http.StatusSeeOther, user.get("/a/admin_page").Code)

	admin, _ := a.signUpAndLogIn(t, "admin")
	rec := admin.get("/a/admin_page")
	require.Equal(t, http.StatusOK, rec.Code)
	page := a.view.last(t)
	assert.Equal(t, "admin_page", page.name)
	assert.Len(t, page.data.(handler.AdminView).Users, 2)
}

func TestLogInRenewsSessionCookie(t *testing.T) {
	a := newApp(t)
	c := a.client()
	c.post("/try_sign_up", signUpForm("gina", "pw", "pw"))
	before := c.cookies["session"].Value

	c.post("/try_log_in", url.Values{"username": {"gina"}, "password": {"pw"}})
	assert.NotEqual(t, before, c.cookies["session"].Value)
}

func TestLogOut(t *testing.T) {
	a := newApp(t)
	c, _ := a.signUpAndLogIn(t, "hank")

	rec := c.post("/log_out", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, http.StatusSeeOther, c.get("/p/watch_list").Code)
}

func TestGuardsRedirectWithoutMutation(t *testing.T) {
	a := newApp(t)
	_, victimID := a.signUpAndLogIn(t, "ivy")
	guest := a.client()

	for _, path := range []string{"/p/movies", "/p/watch_list", "/p/user/1", "/p/movies/movie/1", "/a/admin_page"} {
		rec := guest.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}

	assert.Equal(t, http.StatusSeeOther, guest.post("/p/movies/movie/save/1", nil).Code)
	assert.Equal(t, http.StatusSeeOther, guest.post("/p/movies/movie/add_rating/1", url.Values{"rating": {"5"}}).Code)
	assert.Equal(t, http.StatusSeeOther, guest.post(fmt.Sprintf("/a/remove_user/%d", victimID), nil).Code)

	member, _ := a.signUpAndLogIn(t, "jack")
	assert.Equal(t, http.StatusSeeOther, member.post(fmt.Sprintf("/a/remove_user/%d", victimID), nil).Code)

	ctx := context.Background()
	_, err := a.users.FindByID(ctx, victimID)
	assert.NoError(t, err, "user survives")
	rows, err := a.reviews.ListByMovie(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)
	m, err := a.movies.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, m.UserRating)
}

func TestSaveThenRemove(t *testing.T) {
	a := newApp(t)
	c, uid := a.signUpAndLogIn(t, "kate")
	ctx := context.Background()

	rec := c.post("/p/movies/movie/save/2", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/p/movies/movie/2", rec.Header().Get("Location"))
	c.post("/p/movies/movie/save/2", nil)

	saved, err := a.saved.Find(ctx, uid, 2)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	require.Equal(t, http.StatusOK, c.get("/p/movies/movie/2").Code)
	assert.True(t, a.view.last(t).data.(handler.MovieDetailView).IsInList)

	require.Equal(t, http.StatusOK, c.get("/p/watch_list").Code)
	wl := a.view.last(t).data.(handler.WatchListView)
	require.Len(t, wl.Movies, 1)
	assert.Equal(t, "The Godfather", wl.Movies[0].Title)

	c.post("/p/movies/movie/remove/2", nil)
	saved, err = a.saved.Find(ctx, uid, 2)
	require.NoError(t, err)
	assert.Empty(t, saved)

	c.get("/p/movies/movie/2")
	assert.False(t, a.view.last(t).data.(handler.MovieDetailView).IsInList)
}

func TestRatingsAverageAndOneReviewPerUser(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	for i, r := range []string{"3", "4", "5"} {
		c, _ := a.signUpAndLogIn(t, fmt.Sprintf("rater%d", i))
		rec := c.post("/p/movies/movie/add_rating/3", url.Values{"rating": {r}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/p/movies/movie/3", rec.Header().Get("Location"))
	}
	m, err := a.movies.FindByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, m.UserRating)
	assert.InDelta(t, 4.0, *m.UserRating, 1e-9)

	c, uid := a.signUpAndLogIn(t, "changer")
	c.post("/p/movies/movie/add_rating/3", url.Values{"rating": {"1"}})
	c.post("/p/movies/movie/add_rating/3", url.Values{"rating": {"5"}})

	mine, err := a.reviews.Find(ctx, uid, 3)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 5, mine[0].Rating)

	m, err = a.movies.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.25, *m.UserRating, 1e-9)

	c.get("/p/movies/movie/3")
	assert.Equal(t, "5", a.view.last(t).data.(handler.MovieDetailView).UserRating)

	assert.Eventually(t, func() bool { n, _ := a.events.counts(); return n == 5 }, time.Second, 10*time.Millisecond)
}

func TestRatingMustBeAnInteger(t *testing.T) {
	a := newApp(t)
	c, uid := a.signUpAndLogIn(t, "leo")

	rec := c.post("/p/movies/movie/add_rating/1", url.Values{"rating": {"lots"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rows, err := a.reviews.Find(context.Background(), uid, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	c.get("/p/movies/movie/1")
	assert.Equal(t, "unset", a.view.last(t).data.(handler.MovieDetailView).UserRating)
}

func TestMissingEntitiesRenderNotFound(t *testing.T) {
	a := newApp(t)
	c, uid := a.signUpAndLogIn(t, "mia")

	for _, path := range []string{"/p/movies/movie/999", "/p/movies/movie/abc", "/p/user/999", "/p/user/x"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "not_found", a.view.last(t).name, path)
	}

	require.Equal(t, http.StatusOK, c.get(fmt.Sprintf("/p/user/%d", uid)).Code)
	page := a.view.last(t)
	assert.Equal(t, "user_page", page.name)
	assert.Equal(t, "mia", page.data.(handler.UserView).User.Username)
}

func TestMoviesList(t *testing.T) {
	a := newApp(t)
	c, _ := a.signUpAndLogIn(t, "nina")

	require.Equal(t, http.StatusOK, c.get("/p/movies").Code)
	page := a.view.last(t)
	assert.Equal(t, "movies", page.name)
	assert.Len(t, page.data.(handler.MoviesView).Movies, 5)
}

func TestAdminRemovesUser(t *testing.T) {
	a := newApp(t)
	_, victimID := a.signUpAndLogIn(t, "oscar")
	admin, _ := a.signUpAndLogIn(t, "admin")

	rec := admin.post(fmt.Sprintf("/a/remove_user/%d", victimID), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/a/admin_page", rec.Header().Get("Location"))

	_, err := a.users.FindByID(context.Background(), victimID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	rec := a.client().get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	require.NoError(t, a.gw.Close())
	rec = a.client().get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAbandonedSessionsAreSwept(t *testing.T) {
	a := newAppWith(t, appOptions{sessionTTL: 200 * time.Millisecond})
	for i := 0; i < 200; i++ {
		// A fresh client each time: nobody ever comes back for the flash.
		a.client().post("/try_sign_up", signUpForm("", "pw", "pw"))
	}
	require.Positive(t, a.store.Len())
	assert.Eventually(t, func() bool { return a.store.Len() == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestLogInIsThrottled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter := middleware.NewCredentialLimiter(config.RateLimitConfig{
		Enabled: true,
		Burst:   2,
		Refill:  time.Minute,
		Prefix:  "rl",
	}, rdb, logging.Discard())
	a := newAppWith(t, appOptions{sessionTTL: time.Hour, limiter: limiter})

	c := a.client()
	c.post("/try_sign_up", signUpForm("frank", "right", "right"))
	c.landing(t)

	wrong := url.Values{"username": {"frank"}, "password": {"wrong"}}
	for i := 0; i < 2; i++ {
		c.post("/try_log_in", wrong)
		assert.Equal(t, "The password is incorrect", c.landing(t).Message)
	}

	rec := c.post("/try_log_in", url.Values{"username": {"frank"}, "password": {"right"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"), "the correct password is refused too once throttled")
	v := c.landing(t)
	assert.Contains(t, v.Message, "Too many attempts")
	assert.Equal(t, "log in", v.MessagePosition)
	assert.False(t, v.LoggedIn)
}
