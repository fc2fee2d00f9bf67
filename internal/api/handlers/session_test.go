package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidolearn/kidolearn-api/internal/testutil"
)

type OpenSessionResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type CloseSessionResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Duration  int64  `json:"duration"`
	Message   string `json:"message"`
}

type SessionPageResponse struct {
	Sessions []struct {
		SessionID string `json:"sessionId"`
		ChildID   string `json:"childId"`
		Child     struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"child"`
		Platform string  `json:"platform"`
		EndTime  *string `json:"endTime"`
		Duration *int64  `json:"duration"`
	} `json:"sessions"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"hasMore"`
}

func TestSessionHandler_OpenClose(t *testing.T) {
	ts := testutil.NewTestServer(t)

	parent, token := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	child := testutil.NewChildBuilder().WithParent(parent).WithName("Maya").Build(t, ts.DB.DB)

	var sessionID string

	t.Run("open", func(t *testing.T) {
		body := map[string]interface{}{
			"childId":    child.ID.String(),
			"deviceInfo": map[string]string{"model": "iPad"},
			"appVersion": "2.3.0",
			"platform":   "ios",
		}
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/sessions"), body, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result OpenSessionResult
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.Equal(t, "Session started", result.Message)

		_, err := uuid.Parse(result.SessionID)
		assert.NoError(t, err, "session id must be a canonical UUID")

		sessionID = result.SessionID
	})

	t.Run("open session lists with no end time", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/sessions"), nil, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		var page SessionPageResponse
		testutil.AssertJSONResponse(t, resp, &page)
		require.Len(t, page.Sessions, 1)
		assert.Equal(t, sessionID, page.Sessions[0].SessionID)
		assert.Nil(t, page.Sessions[0].EndTime)
		assert.Nil(t, page.Sessions[0].Duration)
	})

	t.Run("close", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{"sessionId": sessionID}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result CloseSessionResult
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.Equal(t, sessionID, result.SessionID)
		assert.Equal(t, "Session ended", result.Message)

		// Closed within the test run, so at most a couple of seconds.
		assert.GreaterOrEqual(t, result.Duration, int64(0))
		assert.LessOrEqual(t, result.Duration, int64(2))
	})

	t.Run("second close answers not found", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{"sessionId": sessionID}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Session not found")
	})
}

func TestSessionHandler_Open_Errors(t *testing.T) {
	ts := testutil.NewTestServer(t)

	parent, token := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	_ = parent

	otherParent, _ := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	foreignChild := testutil.NewChildBuilder().WithParent(otherParent).Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		body           map[string]interface{}
		token          string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "missing childId",
			body:           map[string]interface{}{"platform": "ios"},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "childId is required",
		},
		{
			name:           "malformed childId",
			body:           map[string]interface{}{"childId": "nope"},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid child ID",
		},
		{
			name:           "another parent's child reads as absent",
			body:           map[string]interface{}{"childId": foreignChild.ID.String()},
			token:          token,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Child not found",
		},
		{
			name:           "unknown child",
			body:           map[string]interface{}{"childId": uuid.New().String()},
			token:          token,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Child not found",
		},
		{
			name:           "unauthorized request",
			body:           map[string]interface{}{"childId": foreignChild.ID.String()},
			token:          "",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/sessions"), tt.body, tt.token)
			resp := testutil.DoRequest(t, req)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
			}
		})
	}

	t.Run("missing sessionId on close", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "sessionId is required")
	})

	t.Run("unknown sessionId on close", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{"sessionId": uuid.New().String()}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Session not found")
	})
}

func TestSessionHandler_Close_ForeignSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	parent, _ := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	child := testutil.NewChildBuilder().WithParent(parent).Build(t, ts.DB.DB)
	session := testutil.NewSessionBuilder().WithChild(child).Build(t, ts.DB.DB)

	_, otherToken := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)

	req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{"sessionId": session.SessionID}, otherToken)
	resp := testutil.DoRequest(t, req)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Session not found")

	// The session is still open for its real owner.
	got, err := ts.Repos.AppSession.GetBySessionIDForParent(context.Background(), session.SessionID, parent.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EndTime, "foreign close must not end the session")
}

func TestSessionHandler_List(t *testing.T) {
	ts := testutil.NewTestServer(t)

	parent, token := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	childA := testutil.NewChildBuilder().WithParent(parent).WithName("Maya").Build(t, ts.DB.DB)
	childB := testutil.NewChildBuilder().WithParent(parent).WithName("Leo").Build(t, ts.DB.DB)

	otherParent, _ := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	foreignChild := testutil.NewChildBuilder().WithParent(otherParent).Build(t, ts.DB.DB)
	testutil.NewSessionBuilder().WithChild(foreignChild).Closed(60).Build(t, ts.DB.DB)

	// 20 sessions for one child, 5 for the other, spread backwards in time
	// so ordering is deterministic.
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 20; i++ {
		testutil.NewSessionBuilder().
			WithChild(childA).
			WithSessionID(fmt.Sprintf("sess-a-%02d", i)).
			WithStartTime(base.Add(-time.Duration(i) * time.Hour)).
			Closed(60).
			Build(t, ts.DB.DB)
	}
	for i := 0; i < 5; i++ {
		testutil.NewSessionBuilder().
			WithChild(childB).
			WithSessionID(fmt.Sprintf("sess-b-%02d", i)).
			WithStartTime(base.Add(-time.Duration(i)*time.Hour - 30*time.Minute)).
			Closed(60).
			Build(t, ts.DB.DB)
	}

	get := func(t *testing.T, query string) SessionPageResponse {
		t.Helper()
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/sessions"+query), nil, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result SessionPageResponse
		testutil.AssertJSONResponse(t, resp, &result)
		return result
	}

	t.Run("default page", func(t *testing.T) {
		result := get(t, "")
		assert.Len(t, result.Sessions, 20)
		assert.Equal(t, int64(25), result.TotalCount)
		assert.Equal(t, 20, result.Limit)
		assert.Equal(t, 0, result.Offset)
		assert.True(t, result.HasMore)

		// Newest first.
		assert.Equal(t, "sess-a-00", result.Sessions[0].SessionID)
		assert.Equal(t, "Maya", result.Sessions[0].Child.Name)
	})

	t.Run("first page of ten", func(t *testing.T) {
		result := get(t, "?limit=10&offset=0")
		assert.Len(t, result.Sessions, 10)
		assert.Equal(t, int64(25), result.TotalCount)
		assert.True(t, result.HasMore)
	})

	t.Run("last page", func(t *testing.T) {
		result := get(t, "?limit=10&offset=20")
		assert.Len(t, result.Sessions, 5)
		assert.Equal(t, int64(25), result.TotalCount)
		assert.False(t, result.HasMore)
	})

	t.Run("child filter", func(t *testing.T) {
		result := get(t, "?childId="+childB.ID.String())
		assert.Len(t, result.Sessions, 5)
		assert.Equal(t, int64(5), result.TotalCount)
		for _, s := range result.Sessions {
			assert.Equal(t, childB.ID.String(), s.ChildID)
		}
	})

	t.Run("oversized limit is clamped", func(t *testing.T) {
		result := get(t, "?limit=500")
		assert.Equal(t, 100, result.Limit)
		assert.Len(t, result.Sessions, 25)
		assert.False(t, result.HasMore)
	})

	t.Run("non-positive limit falls back to default", func(t *testing.T) {
		result := get(t, "?limit=-3")
		assert.Equal(t, 20, result.Limit)
	})

	t.Run("foreign child filter yields an empty page", func(t *testing.T) {
		result := get(t, "?childId="+foreignChild.ID.String())
		assert.Len(t, result.Sessions, 0)
		assert.Equal(t, int64(0), result.TotalCount)
		assert.False(t, result.HasMore)
	})

	t.Run("malformed child filter yields an empty page", func(t *testing.T) {
		result := get(t, "?childId=not-a-uuid")
		assert.Len(t, result.Sessions, 0)
		assert.Equal(t, int64(0), result.TotalCount)
	})

	t.Run("identity without a parent record yields an empty page", func(t *testing.T) {
		freshToken := testutil.MintToken(t, "auth0|never-seen", "new@example.com", "New")
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/sessions"), nil, freshToken)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result SessionPageResponse
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Len(t, result.Sessions, 0)
		assert.Equal(t, int64(0), result.TotalCount)
	})

	t.Run("unauthorized request", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/sessions"), nil, "")
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSessionHandler_EventFeed(t *testing.T) {
	ts := testutil.NewTestServer(t)

	parent, token := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)
	child := testutil.NewChildBuilder().WithParent(parent).WithName("Maya").Build(t, ts.DB.DB)

	_, otherToken := testutil.NewParentBuilder().BuildWithToken(t, ts.DB.DB)

	feed := testutil.NewWSClient(t, ts.WebSocketURL(token))
	otherFeed := testutil.NewWSClient(t, ts.WebSocketURL(otherToken))

	// Open a session over the API and expect the started event.
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/sessions"), map[string]interface{}{"childId": child.ID.String()}, token)
	resp := testutil.DoRequest(t, req)
	var opened OpenSessionResult
	testutil.AssertJSONResponse(t, resp, &opened)
	resp.Body.Close()
	require.True(t, opened.Success)

	started := feed.ExpectSessionStarted(2 * time.Second)
	assert.Equal(t, child.ID, started.ChildID)
	assert.Equal(t, "Maya", started.ChildName)
	assert.Equal(t, opened.SessionID, started.SessionID)
	assert.False(t, started.StartTime.IsZero())

	// Close it and expect the ended event with the duration.
	req = testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/sessions"), map[string]string{"sessionId": opened.SessionID}, token)
	resp = testutil.DoRequest(t, req)
	var closed CloseSessionResult
	testutil.AssertJSONResponse(t, resp, &closed)
	resp.Body.Close()
	require.True(t, closed.Success)

	ended := feed.ExpectSessionEnded(2 * time.Second)
	assert.Equal(t, child.ID, ended.ChildID)
	assert.Equal(t, opened.SessionID, ended.SessionID)
	assert.Equal(t, closed.Duration, ended.Duration)

	// The other parent's feed stays silent.
	otherFeed.ExpectNoEvent(300 * time.Millisecond)
}

func TestSessionHandler_EventFeed_Auth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("garbage token is rejected", func(t *testing.T) {
		status, failed := testutil.DialError(t, ts.WebSocketURL("garbage"))
		require.True(t, failed, "dial must fail without a valid token")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("token without a parent record is rejected", func(t *testing.T) {
		token := testutil.MintToken(t, "auth0|no-parent-yet", "x@example.com", "X")
		status, failed := testutil.DialError(t, ts.WebSocketURL(token))
		require.True(t, failed)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		status, failed := testutil.DialError(t, ts.WebSocketURL(""))
		require.True(t, failed)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}
