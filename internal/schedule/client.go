package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// templateSummary mirrors the server's template listing without importing the
// storage package (which would pull in pgx and other server-side dependencies).
type templateSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client talks to the LiftPlan server's plan-assignment API.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an HTTP client for the LiftPlan server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchTemplates retrieves template name → id from the server.
func (c *Client) FetchTemplates() (map[string]string, error) {
	resp, err := c.httpClient.Get(c.serverURL + "/api/v1/templates")
	if err != nil {
		return nil, fmt.Errorf("fetching templates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("templates request failed (status %d): %s", resp.StatusCode, body)
	}

	var list []templateSummary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}

	byName := make(map[string]string, len(list))
	for _, t := range list {
		byName[t.Name] = t.ID
	}
	return byName, nil
}

// AssignWorkout schedules a template onto a date.
func (c *Client) AssignWorkout(date, templateID string) error {
	body, _ := json.Marshal(map[string]string{"template_id": templateID})
	return c.put("/api/v1/plans/"+date+"/workout", body)
}

// AssignRest schedules a rest day onto a date.
func (c *Client) AssignRest(date string) error {
	return c.put("/api/v1/plans/"+date+"/rest", nil)
}

func (c *Client) put(path string, body []byte) error {
	req, err := http.NewRequest(http.MethodPut, c.serverURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, respBody)
	}
	return nil
}
