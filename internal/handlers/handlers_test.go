package handlers

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"personal-tracker/internal/models"
	"personal-tracker/internal/storage"
	"personal-tracker/internal/tracker"
	"personal-tracker/web"
)

type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	svc    *tracker.Service
	h      *Handlers
	router http.Handler
	server *httptest.Server
	client *http.Client
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	suite.svc = tracker.NewService(db, logger)

	templates, err := fs.Sub(web.TemplatesFS, "templates")
	require.NoError(suite.T(), err)
	static, err := fs.Sub(web.StaticFS, "static")
	require.NoError(suite.T(), err)

	suite.h, err = NewHandlers(suite.svc, db.Sessions(), templates, logger, Options{SessionDuration: DefaultSessionDuration})
	require.NoError(suite.T(), err)
	suite.router = suite.h.Router(static)
	suite.server = httptest.NewServer(suite.router)
	suite.client = suite.newClient()
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.server.Close()
	suite.db.Close()
}

// newClient returns a client with its own cookie jar that does not follow redirects.
func (suite *HandlersTestSuite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(suite.T(), err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (suite *HandlersTestSuite) get(c *http.Client, path string) (*http.Response, string) {
	resp, err := c.Get(suite.server.URL + path)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	return resp, string(body)
}

func (suite *HandlersTestSuite) post(c *http.Client, path string, form url.Values) *http.Response {
	resp, err := c.PostForm(suite.server.URL+path, form)
	require.NoError(suite.T(), err)
	resp.Body.Close()
	return resp
}

func (suite *HandlersTestSuite) assertRedirect(resp *http.Response, location string) {
	suite.Equal(http.StatusFound, resp.StatusCode)
	suite.Equal(location, resp.Header.Get("Location"))
}

// login registers username and signs c in.
func (suite *HandlersTestSuite) login(c *http.Client, username string) {
	_, err := suite.svc.Register(context.Background(), username, username+"-pass")
	require.NoError(suite.T(), err)
	resp := suite.post(c, "/login", url.Values{"username": {username}, "password": {username + "-pass"}})
	suite.assertRedirect(resp, "/")
}

func (suite *HandlersTestSuite) TestProtectedRoutesRedirectToLogin() {
	for _, path := range []string{"/", "/expenses", "/study", "/toggle_task/1", "/delete_task/1", "/delete_expense/1"} {
		resp, _ := suite.get(suite.client, path)
		suite.assertRedirect(resp, "/login")
	}
}

func (suite *HandlersTestSuite) TestRegisterAndLogin() {
	resp := suite.post(suite.client, "/register", url.Values{"username": {"alice"}, "password": {"secret"}})
	suite.assertRedirect(resp, "/login")

	_, body := suite.get(suite.client, "/login")
	suite.Contains(body, "Registration successful! Please login.")

	_, body = suite.get(suite.client, "/login")
	suite.NotContains(body, "Registration successful!", "flash is shown once")

	resp = suite.post(suite.client, "/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	suite.assertRedirect(resp, "/")

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(suite.T(), sessionCookie)
	suite.True(sessionCookie.HttpOnly)
	suite.Equal(http.SameSiteLaxMode, sessionCookie.SameSite)

	resp, body = suite.get(suite.client, "/")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(body, "Welcome back, alice!")

	resp, _ = suite.get(suite.client, "/login")
	suite.assertRedirect(resp, "/")
	resp, _ = suite.get(suite.client, "/register")
	suite.assertRedirect(resp, "/")
}

func (suite *HandlersTestSuite) TestRegisterErrors() {
	resp := suite.post(suite.client, "/register", url.Values{"username": {"alice"}})
	suite.assertRedirect(resp, "/register")
	_, body := suite.get(suite.client, "/register")
	suite.Contains(body, "Username and password required")

	suite.post(suite.client, "/register", url.Values{"username": {"alice"}, "password": {"one"}})
	resp = suite.post(suite.client, "/register", url.Values{"username": {"alice"}, "password": {"two"}})
	suite.assertRedirect(resp, "/register")
	_, body = suite.get(suite.client, "/register")
	suite.Contains(body, "Username already exists. Choose another.")
}

func (suite *HandlersTestSuite) TestLoginFailures() {
	_, err := suite.svc.Register(context.Background(), "alice", "secret")
	require.NoError(suite.T(), err)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"secret"}},
	} {
		resp := suite.post(suite.client, "/login", form)
		suite.assertRedirect(resp, "/login")
		_, body := suite.get(suite.client, "/login")
		suite.Contains(body, "Invalid username or password")
	}

	resp := suite.post(suite.client, "/login", url.Values{"username": {"alice"}})
	suite.assertRedirect(resp, "/login")
	_, body := suite.get(suite.client, "/login")
	suite.Contains(body, "Username and password required")
}

func (suite *HandlersTestSuite) TestLogout() {
	suite.login(suite.client, "alice")

	resp, _ := suite.get(suite.client, "/logout")
	suite.assertRedirect(resp, "/login")

	resp, _ = suite.get(suite.client, "/")
	suite.assertRedirect(resp, "/login")

	// Logging out without a session still clears the cookie and redirects.
	resp, _ = suite.get(suite.newClient(), "/logout")
	suite.assertRedirect(resp, "/login")
}

func (suite *HandlersTestSuite) TestStaleSessionCookieIsCleared() {
	req := httptest.NewRequest(http.MethodGet, "/expenses", http.NoBody)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.assertRedirect(w.Result(), "/login")
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	suite.True(cleared, "stale session cookie should be cleared")
}

func (suite *HandlersTestSuite) TestStoreFailureKeepsSessionCookie() {
	ctx := context.Background()
	user, err := suite.svc.Register(ctx, "alice", "secret")
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.db.Sessions().Create(ctx, "live-token", user.ID, time.Now().Add(29*24*time.Hour)))

	suite.db.Close()

	for _, path := range []string{"/expenses", "/login", "/register"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "live-token"})
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)

		suite.Equal(http.StatusInternalServerError, w.Code, path)
		for _, c := range w.Result().Cookies() {
			if c.Name == SessionCookieName {
				suite.GreaterOrEqual(c.MaxAge, 0, "%s must not clear the session cookie", path)
			}
		}
	}
}

func (suite *HandlersTestSuite) TestMethodNotAllowed() {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/logout"},
		{http.MethodDelete, "/login"},
		{http.MethodPost, "/delete_task/1"},
		{http.MethodPut, "/expenses"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)
		suite.Equal(http.StatusMethodNotAllowed, w.Code, "%s %s", tt.method, tt.path)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestLongCategoryIsRejected() {
	suite.login(suite.client, "alice")

	resp := suite.post(suite.client, "/expenses", url.Values{
		"category": {strings.Repeat("x", 5000)}, "amount": {"5"}, "date": {"2024-03-01"},
	})
	suite.assertRedirect(resp, "/expenses")
	for _, c := range resp.Cookies() {
		if c.Name == flashCookieName {
			suite.Less(len(c.Value), 4096, "flash cookie must fit in a browser cookie")
		}
	}

	_, body := suite.get(suite.client, "/expenses")
	suite.Contains(body, "Category must be at most 64 characters")
	suite.Contains(body, "No expenses found.")
}

func (suite *HandlersTestSuite) TestRollingSessionRenewal() {
	ctx := context.Background()
	user, err := suite.svc.Register(ctx, "alice", "secret")
	require.NoError(suite.T(), err)

	store := suite.db.Sessions()
	require.NoError(suite.T(), store.Create(ctx, "old-token", user.ID, time.Now().Add(time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/study", http.NoBody)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "old-token"})
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)

	session, err := store.Lookup(ctx, "old-token")
	require.NoError(suite.T(), err)
	suite.True(session.ExpiresAt.After(time.Now().Add(DefaultSessionDuration-time.Hour)), "session should be extended")

	renewed := false
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == "old-token" && c.MaxAge > 0 {
			renewed = true
		}
	}
	suite.True(renewed, "cookie should be refreshed")
}

func (suite *HandlersTestSuite) TestExpenseValidationFlashes() {
	suite.login(suite.client, "alice")

	tests := []struct {
		form url.Values
		msg  string
	}{
		{url.Values{"amount": {"5"}, "date": {"2024-03-01"}}, "Category, amount, and date are required"},
		{url.Values{"category": {"food"}, "amount": {"abc"}, "date": {"2024-03-01"}}, "Amount must be a valid number"},
		{url.Values{"category": {"food"}, "amount": {"0"}, "date": {"2024-03-01"}}, "Amount must be greater than zero"},
		{url.Values{"category": {"food"}, "amount": {"-3"}, "date": {"2024-03-01"}}, "Amount must be greater than zero"},
	}
	for _, tt := range tests {
		resp := suite.post(suite.client, "/expenses", tt.form)
		suite.assertRedirect(resp, "/expenses")
		_, body := suite.get(suite.client, "/expenses")
		suite.Contains(body, tt.msg)
	}

	_, body := suite.get(suite.client, "/expenses")
	suite.Contains(body, "No expenses found.")
	suite.Contains(body, "₹0.00")
}

func (suite *HandlersTestSuite) TestExpenseLifecycle() {
	suite.login(suite.client, "alice")

	resp := suite.post(suite.client, "/expenses", url.Values{
		"category": {"food"}, "amount": {"12.5"}, "date": {"2024-03-02"}, "note": {"lunch"},
	})
	suite.assertRedirect(resp, "/expenses")
	_, body := suite.get(suite.client, "/expenses")
	suite.Contains(body, "Expense of ₹12.50 added to food")
	suite.Contains(body, "lunch")

	suite.post(suite.client, "/expenses", url.Values{"category": {"books"}, "amount": {"30"}, "date": {"2024-03-01"}})

	_, body = suite.get(suite.client, "/expenses")
	suite.Contains(body, "₹42.50")

	_, body = suite.get(suite.client, "/expenses?category=books")
	suite.Contains(body, "₹30.00")
	suite.NotContains(body, "lunch")

	list, err := suite.svc.Expenses(context.Background(), suite.userID("alice"), "books")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list.Expenses, 1)

	resp, _ = suite.get(suite.client, "/delete_expense/"+itoa(list.Expenses[0].ID))
	suite.assertRedirect(resp, "/expenses")
	_, body = suite.get(suite.client, "/expenses")
	suite.Contains(body, "Expense deleted successfully")
	suite.Contains(body, "₹12.50")
}

func (suite *HandlersTestSuite) TestCannotTouchOtherUsersRecords() {
	ctx := context.Background()
	suite.login(suite.client, "alice")
	bob := suite.newClient()
	suite.login(bob, "bob")

	aliceID := suite.userID("alice")
	e, err := suite.svc.AddExpense(ctx, aliceID, tracker.ExpenseInput{Category: "food", Amount: "9", Date: "2024-03-03"})
	require.NoError(suite.T(), err)
	task, err := suite.svc.AddTask(ctx, aliceID, tracker.TaskInput{Title: "Revise", DueDate: "2024-03-10"})
	require.NoError(suite.T(), err)

	resp, body := suite.get(bob, "/toggle_task/"+itoa(task.ID))
	suite.Equal(http.StatusNotFound, resp.StatusCode)
	suite.Contains(body, "Task not found")

	suite.get(bob, "/delete_task/"+itoa(task.ID))
	suite.get(bob, "/delete_expense/"+itoa(e.ID))

	tasks, err := suite.svc.Tasks(ctx, aliceID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), tasks, 1)
	suite.False(tasks[0].Completed)

	list, err := suite.svc.Expenses(ctx, aliceID, "")
	require.NoError(suite.T(), err)
	suite.Len(list.Expenses, 1)
}

func (suite *HandlersTestSuite) TestStudyLifecycle() {
	suite.login(suite.client, "alice")

	resp := suite.post(suite.client, "/study", url.Values{"due_date": {"2024-03-10"}})
	suite.assertRedirect(resp, "/study")
	_, body := suite.get(suite.client, "/study")
	suite.Contains(body, "Task title is required")

	suite.post(suite.client, "/study", url.Values{"title": {"Revise"}})
	_, body = suite.get(suite.client, "/study")
	suite.Contains(body, "Due date is required")

	suite.post(suite.client, "/study", url.Values{"title": {"Revise algebra"}, "description": {"ch. 4"}, "due_date": {"2024-03-10"}})
	_, body = suite.get(suite.client, "/study")
	suite.Contains(body, "Task added successfully!")
	suite.Contains(body, "Revise algebra")
	suite.Contains(body, "due 2024-03-10")

	tasks, err := suite.svc.Tasks(context.Background(), suite.userID("alice"))
	require.NoError(suite.T(), err)
	require.Len(suite.T(), tasks, 1)
	id := itoa(tasks[0].ID)

	resp, _ = suite.get(suite.client, "/toggle_task/"+id)
	suite.assertRedirect(resp, "/study")
	_, body = suite.get(suite.client, "/study")
	suite.Contains(body, `class="done"`)

	resp, _ = suite.get(suite.client, "/toggle_task/999")
	suite.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = suite.get(suite.client, "/delete_task/"+id)
	suite.assertRedirect(resp, "/study")
	_, body = suite.get(suite.client, "/study")
	suite.Contains(body, "Task deleted successfully")
	suite.Contains(body, "No study tasks yet.")
}

func (suite *HandlersTestSuite) TestDashboard() {
	suite.login(suite.client, "alice")
	ctx := context.Background()
	aliceID := suite.userID("alice")

	today := models.NewDate(time.Now()).String()
	for _, amount := range []string{"10", "5.25"} {
		_, err := suite.svc.AddExpense(ctx, aliceID, tracker.ExpenseInput{Category: "food", Amount: amount, Date: today})
		require.NoError(suite.T(), err)
	}
	_, err := suite.svc.AddExpense(ctx, aliceID, tracker.ExpenseInput{Category: "rent", Amount: "100", Date: "2001-01-01"})
	require.NoError(suite.T(), err)
	task, err := suite.svc.AddTask(ctx, aliceID, tracker.TaskInput{Title: "a", DueDate: today})
	require.NoError(suite.T(), err)
	_, err = suite.svc.AddTask(ctx, aliceID, tracker.TaskInput{Title: "b", DueDate: today})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.svc.ToggleTask(ctx, aliceID, task.ID))

	resp, body := suite.get(suite.client, "/")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(body, "₹15.25")
	suite.Contains(body, "1 / 2")
	suite.Contains(body, "1 pending")
	suite.Contains(body, "₹115.25")
	suite.Less(strings.Index(body, "rent"), strings.Index(body, "food"), "categories ordered by total")
}

func (suite *HandlersTestSuite) TestDashboardEmpty() {
	suite.login(suite.client, "alice")
	_, body := suite.get(suite.client, "/")
	suite.Contains(body, "₹0.00")
	suite.Contains(body, "0 / 0")
	suite.Contains(body, "No expenses recorded yet.")
}

func (suite *HandlersTestSuite) TestHTMXPartial() {
	suite.login(suite.client, "alice")

	req, err := http.NewRequest(http.MethodGet, suite.server.URL+"/expenses", http.NoBody)
	require.NoError(suite.T(), err)
	req.Header.Set("HX-Request", "true")
	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.NotContains(string(body), "<html")
	suite.Contains(string(body), "expense-form")
}

func (suite *HandlersTestSuite) TestHealthAndStatic() {
	resp, body := suite.get(suite.client, "/healthz")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("ok", body)

	resp, body = suite.get(suite.client, "/static/style.css")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(body, ".card")

	resp, _ = suite.get(suite.client, "/healthz")
	suite.NotEmpty(resp.Header.Get("X-Request-ID"))
}

func (suite *HandlersTestSuite) userID(username string) int64 {
	u, err := suite.db.GetUserByUsername(context.Background(), username)
	require.NoError(suite.T(), err)
	return u.ID
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestGetCategoryStyle(t *testing.T) {
	assert.Equal(t, knownCategories["food"], getCategoryStyle(" Food "))

	custom := getCategoryStyle("Hobbies")
	assert.Equal(t, custom, getCategoryStyle("hobbies"), "style is stable per name")
	assert.Contains(t, fallbackColors, custom.Color)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.50", formatAmount(12.5))
	assert.Equal(t, "0.00", formatAmount(0))
}

func TestNewHandlersMissingTemplates(t *testing.T) {
	_, err := NewHandlers(nil, nil, fs.FS(emptyFS{}), logrus.New(), Options{})
	assert.Error(t, err)
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
