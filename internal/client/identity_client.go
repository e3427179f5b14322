package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/callhub/be-dispatch/internal/errors"
)

// IdentityClient resolves workers against the platform identity service
// over HTTP. The dispatch service only needs the role and active flag,
// so the response type stays deliberately small.
type IdentityClient struct {
	http *resty.Client
}

type workerResponse struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// NewIdentityClient creates a client for the identity service at baseURL.
func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &IdentityClient{http: httpClient}
}

// GetWorkerRole returns the role and active flag for a worker.
func (c *IdentityClient) GetWorkerRole(ctx context.Context, workerID int64) (string, bool, error) {
	var worker workerResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&worker).
		Get(fmt.Sprintf("/api/v1/workers/%d", workerID))
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrCodeInternal, "identity service unreachable")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return worker.Role, worker.IsActive, nil
	case http.StatusNotFound:
		return "", false, errors.NotFound("worker", fmt.Sprint(workerID))
	default:
		return "", false, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("identity service returned status %d", resp.StatusCode()))
	}
}
