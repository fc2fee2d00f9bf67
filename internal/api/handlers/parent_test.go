package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidolearn/kidolearn-api/internal/testutil"
)

type ParentResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	HasPIN    bool   `json:"hasPin"`
	CreatedAt string `json:"createdAt"`
}

func TestParentHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token := testutil.MintToken(t, "auth0|parent-me", "dana@example.com", "Dana")

	tests := []struct {
		name           string
		token          string
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "first call creates the parent from token claims",
			token:          token,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result ParentResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotEmpty(t, result.ID)
				assert.Equal(t, "dana@example.com", result.Email)
				assert.Equal(t, "Dana", result.Name)
				assert.False(t, result.HasPIN)
			},
		},
		{
			name:           "missing token",
			token:          "",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization header required",
		},
		{
			name:           "garbage token",
			token:          "not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token",
		},
		{
			name:           "expired token",
			token:          testutil.MintExpiredToken(t, "auth0|parent-me"),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, tt.token)
			resp := testutil.DoRequest(t, req)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}

	t.Run("header without bearer scheme", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, "")
		req.Header.Set("Authorization", token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid authorization header")
	})
}

func TestParentHandler_Me_Idempotent(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token := testutil.MintToken(t, "auth0|repeat", "repeat@example.com", "Repeat")

	var first, second ParentResponse
	for i, out := range []*ParentResponse{&first, &second} {
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode, "call %d", i+1)
		testutil.AssertJSONResponse(t, resp, out)
	}

	assert.Equal(t, first.ID, second.ID, "repeated calls must resolve the same parent")
}

func TestParentHandler_PIN(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token := testutil.MintToken(t, "auth0|pin-parent", "pin@example.com", "Pin Parent")

	// Bootstrap the parent record.
	req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, token)
	resp := testutil.DoRequest(t, req)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("verify before any pin is set", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin/verify"), map[string]string{"pin": "1234"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "No PIN has been set")
	})

	t.Run("set accepts only POST", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "PUT", ts.APIURL("/me/pin"), map[string]string{"pin": "4812"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("set rejects a non-numeric pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin"), map[string]string{"pin": "12ab"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "PIN must be 4 to 8 digits")
	})

	t.Run("set rejects a short pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin"), map[string]string{"pin": "123"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "PIN must be 4 to 8 digits")
	})

	t.Run("set a valid pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin"), map[string]string{"pin": "4812"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.Equal(t, "PIN updated", result.Message)
	})

	t.Run("profile reports the pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		var result ParentResponse
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.HasPIN)
	})

	t.Run("verify the correct pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin/verify"), map[string]string{"pin": "4812"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Valid bool `json:"valid"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.Valid)
	})

	t.Run("verify a wrong pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin/verify"), map[string]string{"pin": "0000"}, token)
		resp := testutil.DoRequest(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Valid bool `json:"valid"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.False(t, result.Valid)
	})

	t.Run("replace the pin", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin"), map[string]string{"pin": "87654321"}, token)
		resp := testutil.DoRequest(t, req)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/me/pin/verify"), map[string]string{"pin": "4812"}, token)
		resp = testutil.DoRequest(t, req)
		defer resp.Body.Close()

		var result struct {
			Valid bool `json:"valid"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.False(t, result.Valid, "old pin must stop working after replacement")
	})
}
