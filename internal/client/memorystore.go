package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// MemoryStoreClient implements opencloud.MemoryStoreClient against the
// v2 memory store API, covering sorted maps and queues.
type MemoryStoreClient struct {
	httpClient *http.Client
	poller     opencloud.Poller
}

// NewMemoryStoreClient creates a new memory store client.
func NewMemoryStoreClient(httpClient *http.Client, poller opencloud.Poller) *MemoryStoreClient {
	return &MemoryStoreClient{httpClient: httpClient, poller: poller}
}

func (c *MemoryStoreClient) sortedMapPath(universeID int64, mapName string) string {
	return constants.APIPathMemoryStore + "/" + strconv.FormatInt(universeID, 10) +
		"/memory-store/sorted-maps/" + url.PathEscape(mapName) + "/items"
}

func (c *MemoryStoreClient) queuePath(universeID int64, queueName string) string {
	return constants.APIPathMemoryStore + "/" + strconv.FormatInt(universeID, 10) +
		"/memory-store/queues/" + url.PathEscape(queueName) + "/items"
}

// sortedMapWireEntry is the wire shape of a sorted map item. The sort
// key arrives in one of two fields depending on its type.
type sortedMapWireEntry struct {
	ID             string          `json:"id"`
	Value          json.RawMessage `json:"value"`
	Etag           string          `json:"etag"`
	ExpireTime     *time.Time      `json:"expireTime,omitempty"`
	StringSortKey  *string         `json:"stringSortKey,omitempty"`
	NumericSortKey *float64        `json:"numericSortKey,omitempty"`
}

func (w *sortedMapWireEntry) toEntry() opencloud.SortedMapEntry {
	entry := opencloud.SortedMapEntry{
		Key:        w.ID,
		Value:      w.Value,
		Etag:       w.Etag,
		ExpireTime: w.ExpireTime,
	}

	switch {
	case w.StringSortKey != nil:
		entry.SortKey = *w.StringSortKey
	case w.NumericSortKey != nil:
		entry.SortKey = *w.NumericSortKey
	}

	return entry
}

// buildSortedMapFilter composes the server-side filter expression from
// the bound options. String bounds are quoted.
func buildSortedMapFilter(opts *opencloud.SortedMapListOptions) string {
	var clauses []string

	appendClause := func(field, op string, bound any) {
		if bound == nil {
			return
		}

		if s, ok := bound.(string); ok {
			bound = strconv.Quote(s)
		}

		clauses = append(clauses, fmt.Sprintf("%s %s %v", field, op, bound))
	}

	appendClause("id", ">", opts.LowerBoundKey)
	appendClause("id", "<", opts.UpperBoundKey)
	appendClause("sortKey", ">", opts.LowerBoundSortKey)
	appendClause("sortKey", "<", opts.UpperBoundSortKey)

	return strings.Join(clauses, " && ")
}

// SortedMapListPage fetches one page of sorted map items.
func (c *MemoryStoreClient) SortedMapListPage(ctx context.Context, universeID int64, mapName string, opts *opencloud.SortedMapListOptions, cursor string) ([]opencloud.SortedMapEntry, string, error) {
	if opts == nil {
		opts = &opencloud.SortedMapListOptions{}
	}

	query := opencloud.NewQueryParams().
		Set("maxPageSize", constants.DefaultPageLimit).
		SetOptional("filter", buildSortedMapFilter(opts)).
		SetOptional("pageToken", cursor)

	if opts.Descending {
		query.Set("orderBy", "desc")
	}

	resp, err := c.httpClient.Get(ctx, c.sortedMapPath(universeID, mapName), query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing sorted map items: %w", err)
	}

	var page struct {
		Items         []sortedMapWireEntry `json:"items"`
		NextPageToken string               `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "sorted map page")
	if err != nil {
		return nil, "", err
	}

	entries := make([]opencloud.SortedMapEntry, 0, len(page.Items))
	for i := range page.Items {
		entries = append(entries, page.Items[i].toEntry())
	}

	return entries, page.NextPageToken, nil
}

// SortedMapList iterates sorted map items in sort key order.
func (c *MemoryStoreClient) SortedMapList(ctx context.Context, universeID int64, mapName string, opts *opencloud.SortedMapListOptions, pagerOpts ...opencloud.PagerOption) *opencloud.Pager[opencloud.SortedMapEntry] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.SortedMapEntry, string, error) {
		return c.SortedMapListPage(ctx, universeID, mapName, opts, cursor)
	}, pagerOpts...)
}

// SortedMapGet fetches one item by key.
func (c *MemoryStoreClient) SortedMapGet(ctx context.Context, universeID int64, mapName, key string) (*opencloud.SortedMapEntry, error) {
	resp, err := c.httpClient.Get(ctx, c.sortedMapPath(universeID, mapName)+"/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, fmt.Errorf("getting sorted map item: %w", err)
	}

	var wire sortedMapWireEntry

	err = parseBody(resp, &wire, "sorted map item")
	if err != nil {
		return nil, err
	}

	entry := wire.toEntry()
	if entry.Key == "" {
		entry.Key = key
	}

	return &entry, nil
}

// SortedMapSet creates or updates one item with the given time to
// live. A violated exclusive condition returns a
// *opencloud.PreconditionFailedError.
func (c *MemoryStoreClient) SortedMapSet(ctx context.Context, universeID int64, mapName, key string, value any, ttl time.Duration, opts *opencloud.SortedMapSetOptions) (*opencloud.SortedMapEntry, error) {
	if opts == nil {
		opts = &opencloud.SortedMapSetOptions{}
	}

	if opts.ExclusiveCreate && opts.ExclusiveUpdate {
		return nil, opencloud.ErrExclusiveConditions
	}

	body := map[string]any{
		"id":    key,
		"value": value,
		"ttl":   ttlString(ttl),
	}

	switch sortKey := opts.SortKey.(type) {
	case nil:
	case string:
		body["stringSortKey"] = sortKey
	default:
		body["numericSortKey"] = sortKey
	}

	var (
		resp *http.Response
		err  error
	)

	if opts.ExclusiveCreate {
		query := opencloud.NewQueryParams().Set("id", key)

		resp, err = c.httpClient.Do(ctx, &http.Request{
			Method:         nethttp.MethodPost,
			Path:           c.sortedMapPath(universeID, mapName),
			Query:          query.ToValues(),
			Body:           body,
			ExpectedStatus: []int{200, 409},
		})
	} else {
		query := opencloud.NewQueryParams().Set("allowMissing", !opts.ExclusiveUpdate)

		resp, err = c.httpClient.Do(ctx, &http.Request{
			Method:         nethttp.MethodPatch,
			Path:           c.sortedMapPath(universeID, mapName) + "/" + url.PathEscape(key),
			Query:          query.ToValues(),
			Body:           body,
			ExpectedStatus: []int{200, 404, 409},
		})
	}

	if err != nil {
		return nil, fmt.Errorf("setting sorted map item: %w", err)
	}

	switch resp.StatusCode {
	case nethttp.StatusNotFound:
		if opts.ExclusiveUpdate {
			return nil, &opencloud.PreconditionFailedError{Reason: "no value exists for this key"}
		}

		return nil, opencloud.NewAPIError(resp.StatusCode, opencloud.ErrNotFound, resp.Body)
	case nethttp.StatusConflict:
		var conflict struct {
			Error string `json:"error"`
		}

		_ = resp.JSON(&conflict)

		if conflict.Error == "ALREADY_EXISTS" {
			return nil, &opencloud.PreconditionFailedError{Reason: "a value already exists for this key"}
		}

		return nil, opencloud.NewAPIError(resp.StatusCode, opencloud.ErrUnexpectedStatus, resp.Body)
	}

	var wire sortedMapWireEntry

	err = parseBody(resp, &wire, "sorted map item")
	if err != nil {
		return nil, err
	}

	entry := wire.toEntry()
	if entry.Key == "" {
		entry.Key = key
	}

	return &entry, nil
}

// SortedMapDelete removes one item from the sorted map.
func (c *MemoryStoreClient) SortedMapDelete(ctx context.Context, universeID int64, mapName, key string) error {
	_, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodDelete,
		Path:           c.sortedMapPath(universeID, mapName) + "/" + url.PathEscape(key),
		ExpectedStatus: []int{200, 204},
	})
	if err != nil {
		return fmt.Errorf("deleting sorted map item: %w", err)
	}

	return nil
}

// QueueAdd appends a value to the queue. Higher priorities leave the
// queue first.
func (c *MemoryStoreClient) QueueAdd(ctx context.Context, universeID int64, queueName string, value any, ttl time.Duration, priority float64) error {
	_, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   c.queuePath(universeID, queueName) + ":add",
		Body: map[string]any{
			"data":     value,
			"ttl":      ttlString(ttl),
			"priority": priority,
		},
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return fmt.Errorf("adding queue item: %w", err)
	}

	return nil
}

// QueueRead reads values from the head of the queue. Read values stay
// invisible to other readers until discarded or the invisibility window
// lapses. An empty queue returns a result with no items and no read ID.
func (c *MemoryStoreClient) QueueRead(ctx context.Context, universeID int64, queueName string, opts *opencloud.QueueReadOptions) (*opencloud.QueueReadResult, error) {
	if opts == nil {
		opts = &opencloud.QueueReadOptions{}
	}

	count := opts.Count
	if count <= 0 {
		count = 1
	}

	invisibility := opts.InvisibilityTimeout
	if invisibility <= 0 {
		invisibility = 30 * time.Second
	}

	query := opencloud.NewQueryParams().
		Set("count", count).
		Set("allOrNothing", opts.AllOrNothing).
		Set("invisibilityTimeoutSeconds", int(invisibility.Seconds()))

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodGet,
		Path:           c.queuePath(universeID, queueName) + ":read",
		Query:          query.ToValues(),
		ExpectedStatus: []int{200, 204},
	})
	if err != nil {
		return nil, fmt.Errorf("reading queue items: %w", err)
	}

	if resp.StatusCode == nethttp.StatusNoContent {
		return &opencloud.QueueReadResult{}, nil
	}

	var result opencloud.QueueReadResult

	err = parseBody(resp, &result, "queue read result")
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// QueueDiscard permanently removes previously read values.
func (c *MemoryStoreClient) QueueDiscard(ctx context.Context, universeID int64, queueName, readID string) error {
	query := opencloud.NewQueryParams().Set("readId", readID)

	_, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           c.queuePath(universeID, queueName) + ":discard",
		Query:          query.ToValues(),
		ExpectedStatus: []int{200, 204},
	})
	if err != nil {
		return fmt.Errorf("discarding queue items: %w", err)
	}

	return nil
}

// Flush starts wiping every sorted map and queue in the universe. The
// wipe runs server-side; the returned operation completes when it is
// finished.
func (c *MemoryStoreClient) Flush(ctx context.Context, universeID int64) (*opencloud.Operation[bool], error) {
	base := constants.APIPathMemoryStore + "/" + strconv.FormatInt(universeID, 10) + "/memory-store"

	resp, err := c.httpClient.Post(ctx, base+":flush", nil)
	if err != nil {
		return nil, fmt.Errorf("flushing memory store: %w", err)
	}

	var started struct {
		Path string `json:"path"`
	}

	err = parseBody(resp, &started, "flush operation")
	if err != nil {
		return nil, err
	}

	segments := strings.Split(started.Path, "/")
	operationPath := base + "/operations/" + segments[len(segments)-1]

	return opencloud.NewOperation(c.poller, operationPath, opencloud.FixedResult(true)), nil
}

// ttlString renders a duration in the API's whole-second form, e.g.
// "300s".
func ttlString(ttl time.Duration) string {
	return strconv.FormatInt(int64(ttl.Seconds()), 10) + "s"
}
