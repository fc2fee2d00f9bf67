package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type Parent struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	HasPIN bool   `json:"hasPin"`
}

type Child struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type childList struct {
	Children []Child `json:"children"`
}

type openSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

type closeSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Duration  int64  `json:"duration"`
}

// Me fetches the parent profile, creating it on first call
func (c *APIClient) Me(token string) (*Parent, error) {
	resp, err := c.get("/me", token)
	if err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("me failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var parent Parent
	if err := json.NewDecoder(resp.Body).Decode(&parent); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parent, nil
}

// CreateChild adds a child profile under the authenticated parent
func (c *APIClient) CreateChild(token, name string) (*Child, error) {
	body := map[string]string{
		"name": name,
	}

	resp, err := c.post("/children", body, token)
	if err != nil {
		return nil, fmt.Errorf("create child request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create child failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var child Child
	if err := json.NewDecoder(resp.Body).Decode(&child); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &child, nil
}

// ListChildren fetches all child profiles for the authenticated parent
func (c *APIClient) ListChildren(token string) ([]Child, error) {
	resp, err := c.get("/children", token)
	if err != nil {
		return nil, fmt.Errorf("list children request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list children failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var list childList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return list.Children, nil
}

// OpenSession starts an app session for a child and returns its id
func (c *APIClient) OpenSession(token, childID string) (string, error) {
	body := map[string]interface{}{
		"childId":    childID,
		"deviceInfo": map[string]string{"model": "devicesim"},
		"appVersion": "devicesim/1.0",
		"platform":   "sim",
	}

	resp, err := c.post("/sessions", body, token)
	if err != nil {
		return "", fmt.Errorf("open session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("open session failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result openSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.SessionID, nil
}

// CloseSession ends an app session and returns the recorded duration in seconds
func (c *APIClient) CloseSession(token, sessionID string) (int64, error) {
	body := map[string]string{
		"sessionId": sessionID,
	}

	resp, err := c.put("/sessions", body, token)
	if err != nil {
		return 0, fmt.Errorf("close session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("close session failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result closeSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Duration, nil
}

// HTTP helpers

func (c *APIClient) get(path, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func (c *APIClient) put(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("PUT", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
