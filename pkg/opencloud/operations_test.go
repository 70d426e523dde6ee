package opencloud

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPoller serves a fixed sequence of poll responses and counts
// how many times it was asked.
type scriptedPoller struct {
	responses []*OperationResponse
	err       error
	calls     int
}

func (p *scriptedPoller) PollOperation(ctx context.Context, path string) (*OperationResponse, error) {
	p.calls++

	if p.err != nil {
		return nil, p.err
	}

	index := p.calls - 1
	if index >= len(p.responses) {
		index = len(p.responses) - 1
	}

	return p.responses[index], nil
}

type uploadResult struct {
	AssetID int64 `json:"assetId"`
}

func decodeUploadResult(payload json.RawMessage) (*uploadResult, error) {
	var result uploadResult

	err := json.Unmarshal(payload, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func TestOperation_FetchStatus_Pending(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Path: "assets/v1/operations/op-1", Done: false},
	}}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	result, done, err := op.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Nil(t, result)
	assert.False(t, op.Done())
}

func TestOperation_FetchStatus_Completes(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Done: false},
		{Done: true, Response: json.RawMessage(`{"assetId": 12345}`)},
	}}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	_, done, err := op.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, done)

	result, done, err := op.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, int64(12345), result.AssetID)
	assert.True(t, op.Done())

	// Completion is permanent: further checks reuse the cached payload.
	result, done, err = op.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, int64(12345), result.AssetID)
	assert.Equal(t, 2, poller.calls)
}

func TestOperation_FetchStatus_PollerError(t *testing.T) {
	pollErr := errors.New("service unavailable")
	poller := &scriptedPoller{err: pollErr}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	_, done, err := op.FetchStatus(context.Background())
	assert.ErrorIs(t, err, pollErr)
	assert.False(t, done)
	assert.False(t, op.Done())
}

func TestOperation_Wait_CachedResponse(t *testing.T) {
	poller := &scriptedPoller{}

	op := NewOperation(poller, "assets/v1/operations/op-1",
		MaterializeFunc(decodeUploadResult),
		WithCachedResponse(json.RawMessage(`{"assetId": 777}`)))

	assert.True(t, op.Done())

	result, err := op.Wait(context.Background(), DefaultWaitOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(777), result.AssetID)
	assert.Zero(t, poller.calls)
}

func TestOperation_Wait_PollsUntilDone(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Done: false},
		{Done: false},
		{Done: true, Response: json.RawMessage(`{"assetId": 42}`)},
	}}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	result, err := op.Wait(context.Background(), WaitOptions{
		Timeout:     time.Second,
		Interval:    time.Millisecond,
		MinInterval: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.AssetID)
	assert.Equal(t, 3, poller.calls)
}

func TestOperation_Wait_Timeout(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Done: false},
	}}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	_, err := op.Wait(context.Background(), WaitOptions{
		Timeout:     10 * time.Millisecond,
		Interval:    5 * time.Millisecond,
		MinInterval: -1,
	})
	assert.ErrorIs(t, err, ErrOperationTimeout)
	assert.False(t, op.Done())
}

func TestOperation_Wait_ContextCancelled(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Done: false},
	}}

	op := NewOperation(poller, "assets/v1/operations/op-1", MaterializeFunc(decodeUploadResult))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := op.Wait(ctx, WaitOptions{Timeout: time.Second, Interval: 50 * time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOperation_FixedResult(t *testing.T) {
	poller := &scriptedPoller{responses: []*OperationResponse{
		{Done: true, Response: json.RawMessage(`{"ignored": true}`)},
	}}

	op := NewOperation(poller, "universes/v1/operations/op-9", FixedResult("published"))

	result, done, err := op.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "published", result)
}

func TestWaitOptions_Defaults(t *testing.T) {
	opts := WaitOptions{}
	assert.Equal(t, float64(1), opts.exponent())
	assert.Positive(t, opts.floor())

	opts = WaitOptions{IntervalExponent: 1.5, MinInterval: -1}
	assert.Equal(t, 1.5, opts.exponent())
	assert.Zero(t, opts.floor())

	opts = WaitOptions{MinInterval: 3 * time.Second}
	assert.Equal(t, 3*time.Second, opts.floor())
}
