package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-ai/daybook/internal/events"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/services"
	"github.com/daybook-ai/daybook/internal/store/sqlite"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type cannedReplier struct{ text string }

func (c cannedReplier) Reply(context.Context, []*model.Message, string) (string, error) {
	return c.text, nil
}
func (c cannedReplier) Complete(context.Context, string) (string, error) { return c.text, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.EnsureSchema(db))
	s := sqlite.NewWithDB(db)

	clk := fixedClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	log := zerolog.Nop()
	bus := events.NewBus(16, log)
	replier := cannedReplier{text: "glad to hear it"}

	streaks := services.NewStreakService(s, clk, log)
	router := NewRouter(Deps{
		Users:     services.NewUserService(s, "UTC", log),
		Journal:   services.NewJournalService(s, replier, streaks, bus, clk, log),
		Streaks:   streaks,
		Summaries: services.NewSummaryService(s, replier, log),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createUser(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/users", map[string]string{
		"email":    "api-test@example.com",
		"timeZone": "UTC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)
	require.NotEmpty(t, u.UserID)
	return u.UserID
}

func TestCreateAndGetUser(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	resp, err := http.Get(srv.URL + "/api/users/" + userID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)
	assert.Equal(t, "api-test@example.com", u.Email)
	assert.Equal(t, "UTC", u.TimeZone)
}

func TestCreateUserRejectsBadEmail(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/users", map[string]string{"email": "nope"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	url := fmt.Sprintf("%s/api/users/%s/days/2025-03-10/messages", srv.URL, userID)
	resp := postJSON(t, url, map[string]string{"text": "good day today"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res services.SendResult
	decode(t, resp, &res)
	assert.Equal(t, model.StatusDone, res.Status)
	assert.Equal(t, "glad to hear it", res.AssistantMessage.Text)

	listResp, err := http.Get(url)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var listing struct {
		Messages []*model.Message `json:"messages"`
		Count    int              `json:"count"`
	}
	decode(t, listResp, &listing)
	assert.Equal(t, 2, listing.Count)
}

func TestSendMessageToPastDayRejected(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	url := fmt.Sprintf("%s/api/users/%s/days/2025-03-09/messages", srv.URL, userID)
	resp := postJSON(t, url, map[string]string{"text": "too late"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreakEndpoint(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	url := fmt.Sprintf("%s/api/users/%s/days/2025-03-10/messages", srv.URL, userID)
	resp := postJSON(t, url, map[string]string{"text": "check in"})
	_ = resp.Body.Close()

	stResp, err := http.Get(fmt.Sprintf("%s/api/users/%s/streak", srv.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, stResp.StatusCode)
	var st struct {
		CurrentStreak    int `json:"currentStreak"`
		MilestonePercent int `json:"milestonePercent"`
		NextMilestone    int `json:"nextMilestone"`
	}
	decode(t, stResp, &st)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 30, st.NextMilestone)
	assert.Equal(t, 3, st.MilestonePercent)
}

func TestCalendarEndpoint(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/api/users/%s/days/2025-03-10/messages", srv.URL, userID),
		map[string]string{"text": "done"})
	_ = resp.Body.Close()

	calResp, err := http.Get(fmt.Sprintf("%s/api/users/%s/calendar?year=2025&month=3", srv.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, calResp.StatusCode)
	var cal struct {
		Days []*model.CalendarDay `json:"days"`
	}
	decode(t, calResp, &cal)
	require.Len(t, cal.Days, 31)
	assert.Equal(t, model.StatusDone, cal.Days[9].Status)
	assert.Equal(t, model.StatusMissed, cal.Days[0].Status)
	assert.Equal(t, model.StatusUpcoming, cal.Days[30].Status)
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	userID := createUser(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/api/users/%s/days/2025-03-10/messages", srv.URL, userID),
		map[string]string{"text": "shipped the feature"})
	_ = resp.Body.Close()

	sumResp := postJSON(t, fmt.Sprintf("%s/api/users/%s/days/2025-03-10/summary", srv.URL, userID), nil)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	var sum services.Summary
	decode(t, sumResp, &sum)
	assert.Equal(t, "2025-03-10", sum.Date)
	assert.NotEmpty(t, sum.Text)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}
