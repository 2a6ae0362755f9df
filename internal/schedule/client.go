package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"timetrack.service/internal/core/model"
)

// Provider is the contract for the external schedule service, which owns
// shift assignments. A nil assignment with a nil error means the user has no
// shift for that date.
type Provider interface {
	ShiftFor(ctx context.Context, userID int64, date time.Time) (*model.ShiftAssignment, error)
}

// shiftResponse is the schedule API's JSON payload for one assignment.
type shiftResponse struct {
	UserID    int64     `json:"userId"`
	ShiftName string    `json:"shiftName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// HTTPClient talks to the schedule service over HTTP. It wraps every call in
// a circuit breaker so an outage of the schedule system does not cascade into
// every clock-in request hammering it.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPClient builds a schedule client with a circuit breaker that trips
// when the failure rate exceeds 50% over at least 10 requests.
func NewHTTPClient(baseURL string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "Schedule-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// ShiftFor fetches the user's assignment for the given calendar date.
func (c *HTTPClient) ShiftFor(ctx context.Context, userID int64, date time.Time) (*model.ShiftAssignment, error) {
	endpoint := fmt.Sprintf("%sschedule/%d?date=%s", c.baseURL, userID, url.QueryEscape(date.Format("2006-01-02")))

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule service unavailable: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	resp := result.(*shiftResponse)
	return &model.ShiftAssignment{
		UserID:    resp.UserID,
		ShiftName: resp.ShiftName,
		StartTime: resp.StartTime,
		EndTime:   resp.EndTime,
	}, nil
}

// fetch performs the HTTP call. A 404 is not a failure for the breaker: the
// user simply has no assignment that day.
func (c *HTTPClient) fetch(ctx context.Context, endpoint string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call schedule api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schedule api returned non-successful status code: %d", resp.StatusCode)
	}

	var payload shiftResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode schedule response: %w", err)
	}

	return &payload, nil
}
