package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// OperationsClient implements opencloud.OperationsClient.
type OperationsClient struct {
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewOperationsClient creates a new operations client.
func NewOperationsClient(httpClient *http.Client) *OperationsClient {
	return &OperationsClient{
		httpClient:   httpClient,
		pollInterval: constants.DefaultPollInterval,
		pollTimeout:  constants.DefaultPollTimeout,
	}
}

// PollOperation implements opencloud.Poller. path is the operation
// resource path relative to the API host, with or without a leading
// slash.
func (c *OperationsClient) PollOperation(ctx context.Context, path string) (*opencloud.OperationResponse, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting operation: %w", err)
	}

	var operation opencloud.OperationResponse

	err = parseBody(resp, &operation, "operation")
	if err != nil {
		return nil, err
	}

	return &operation, nil
}

// PollUntilComplete polls the operation until it reports done or the
// poll timeout lapses.
func (c *OperationsClient) PollUntilComplete(ctx context.Context, path string) (*opencloud.OperationResponse, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// First check immediately
	operation, err := c.PollOperation(pollCtx, path)
	if err != nil {
		return nil, fmt.Errorf("getting operation status: %w", err)
	}

	if operation.Done {
		return operation, nil
	}

	for {
		select {
		case <-pollCtx.Done():
			// Return the last known state on timeout
			return operation, fmt.Errorf("timeout waiting for operation to complete: %w", pollCtx.Err())
		case <-ticker.C:
			operation, err = c.PollOperation(pollCtx, path)
			if err != nil {
				return nil, fmt.Errorf("getting operation status: %w", err)
			}

			if operation.Done {
				return operation, nil
			}
		}
	}
}
