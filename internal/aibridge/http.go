package aibridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// HTTPDecider POSTs the decision request to an external service and expects
// an action back. The context deadline is the full decision budget.
type HTTPDecider struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPDecider(baseURL string) *HTTPDecider {
	return &HTTPDecider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
	}
}

type decideResponse struct {
	Action room.Action `json:"action"`
	Error  string      `json:"error,omitempty"`
}

func (d *HTTPDecider) Decide(ctx context.Context, req Request) (room.Action, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return room.Action{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/decide", bytes.NewReader(body))
	if err != nil {
		return room.Action{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return room.Action{}, ErrDecisionTimeout
		}
		return room.Action{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return room.Action{}, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return room.Action{}, fmt.Errorf("%w: status %d", ErrInvalidDecision, resp.StatusCode)
	}
	var out decideResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return room.Action{}, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	if out.Error != "" {
		return room.Action{}, fmt.Errorf("%w: %s", ErrInvalidDecision, out.Error)
	}
	return out.Action, nil
}
