package genqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Result is the executor's verdict for one item. A failed result with
// Paused set is a systemic condition: the whole queue must pause rather
// than the item failing.
type Result struct {
	Success bool
	Paused  bool
	Reason  PauseReason
	Message string
}

// Executor performs the external content-generation call. The queue treats
// it as opaque; everything it reports maps to either "this item failed" or
// "the whole queue must pause".
type Executor interface {
	Generate(ctx context.Context, item Item) Result
}

// HTTPExecutor calls the generation API over HTTP.
type HTTPExecutor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExecutor constructs an HTTPExecutor. The timeout bounds one
// generation call; the processor holds at most one call in flight.
func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	JobID      string `json:"job_id"`
	CourseID   int64  `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Paused  bool   `json:"paused"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

// Generate posts the item to the generation API and maps the response.
func (e *HTTPExecutor) Generate(ctx context.Context, item Item) Result {
	payload, err := json.Marshal(generateRequest{
		JobID:      item.ID.String(),
		CourseID:   item.CourseID,
		CourseCode: item.CourseCode,
		CourseName: item.CourseName,
	})
	if err != nil {
		return Result{Message: fmt.Sprintf("encode request: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return Result{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Transport failure fails the item; only an explicit paused
		// response pauses the queue.
		return Result{Message: fmt.Sprintf("generation call: %v", err)}
	}
	defer resp.Body.Close()

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{Message: fmt.Sprintf("decode response: %v", err)}
	}
	if decoded.Success {
		return Result{Success: true}
	}
	result := Result{Message: decoded.Error}
	if decoded.Paused {
		result.Paused = true
		result.Reason = PauseReason(decoded.Reason)
		if result.Reason == "" {
			result.Reason = PauseCreditsExhausted
		}
	}
	return result
}

var _ Executor = (*HTTPExecutor)(nil)
