package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// OrderedDataStoresClient implements opencloud.OrderedDataStoresClient.
// Ordered data stores hold integer values sorted server-side, suited
// for leaderboards.
type OrderedDataStoresClient struct {
	httpClient *http.Client
}

// NewOrderedDataStoresClient creates a new ordered data stores client.
func NewOrderedDataStoresClient(httpClient *http.Client) *OrderedDataStoresClient {
	return &OrderedDataStoresClient{httpClient: httpClient}
}

func (c *OrderedDataStoresClient) entriesPath(universeID int64, name, scope string) string {
	return constants.APIPathOrderedDataStores + "/" + strconv.FormatInt(universeID, 10) +
		"/orderedDataStores/" + url.PathEscape(name) +
		"/scopes/" + url.PathEscape(scope) +
		"/entries"
}

// ListPage fetches one page of entries in sorted order.
func (c *OrderedDataStoresClient) ListPage(ctx context.Context, universeID int64, name, scope string, opts *opencloud.OrderedListOptions, cursor string) ([]opencloud.OrderedEntry, string, error) {
	if opts == nil {
		opts = &opencloud.OrderedListOptions{}
	}

	if scope == "" {
		scope = DefaultScope
	}

	pageSize := opts.MaxPageSize
	if pageSize <= 0 || pageSize > constants.DefaultPageLimit {
		pageSize = constants.DefaultPageLimit
	}

	query := opencloud.NewQueryParams().
		Set("max_page_size", pageSize).
		SetOptional("filter", opts.Filter).
		SetOptional("page_token", cursor)

	if opts.Descending {
		query.Set("order_by", "desc")
	}

	resp, err := c.httpClient.Get(ctx, c.entriesPath(universeID, name, scope), query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing ordered entries: %w", err)
	}

	var page struct {
		Entries       []opencloud.OrderedEntry `json:"entries"`
		NextPageToken string                   `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "ordered entries page")
	if err != nil {
		return nil, "", err
	}

	return page.Entries, page.NextPageToken, nil
}

// List iterates entries in sorted order.
func (c *OrderedDataStoresClient) List(ctx context.Context, universeID int64, name, scope string, opts *opencloud.OrderedListOptions, pagerOpts ...opencloud.PagerOption) *opencloud.Pager[opencloud.OrderedEntry] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.OrderedEntry, string, error) {
		return c.ListPage(ctx, universeID, name, scope, opts, cursor)
	}, pagerOpts...)
}

// Create creates a new entry. The write fails if the ID already exists.
func (c *OrderedDataStoresClient) Create(ctx context.Context, universeID int64, name, scope, id string, value int64) (*opencloud.OrderedEntry, error) {
	scope = scopeOrDefault(scope)

	query := opencloud.NewQueryParams().Set("id", id)

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           c.entriesPath(universeID, name, scope),
		Query:          query.ToValues(),
		Body:           map[string]int64{"value": value},
		ExpectedStatus: []int{200, 201},
	})
	if err != nil {
		return nil, fmt.Errorf("creating ordered entry: %w", err)
	}

	return parseOrderedEntry(resp, id)
}

// Get fetches an entry by ID.
func (c *OrderedDataStoresClient) Get(ctx context.Context, universeID int64, name, scope, id string) (*opencloud.OrderedEntry, error) {
	scope = scopeOrDefault(scope)

	resp, err := c.httpClient.Get(ctx, c.entriesPath(universeID, name, scope)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting ordered entry: %w", err)
	}

	return parseOrderedEntry(resp, id)
}

// Update overwrites the value of an existing entry.
func (c *OrderedDataStoresClient) Update(ctx context.Context, universeID int64, name, scope, id string, value int64) (*opencloud.OrderedEntry, error) {
	scope = scopeOrDefault(scope)

	query := opencloud.NewQueryParams().Set("allow_missing", false)

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPatch,
		Path:           c.entriesPath(universeID, name, scope) + "/" + url.PathEscape(id),
		Query:          query.ToValues(),
		Body:           map[string]int64{"value": value},
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return nil, fmt.Errorf("updating ordered entry: %w", err)
	}

	return parseOrderedEntry(resp, id)
}

// Increment atomically adds delta to an entry and returns the new
// value.
func (c *OrderedDataStoresClient) Increment(ctx context.Context, universeID int64, name, scope, id string, delta int64) (*opencloud.OrderedEntry, error) {
	scope = scopeOrDefault(scope)

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           c.entriesPath(universeID, name, scope) + "/" + url.PathEscape(id) + ":increment",
		Body:           map[string]int64{"amount": delta},
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return nil, fmt.Errorf("incrementing ordered entry: %w", err)
	}

	return parseOrderedEntry(resp, id)
}

// Delete removes an entry.
func (c *OrderedDataStoresClient) Delete(ctx context.Context, universeID int64, name, scope, id string) error {
	scope = scopeOrDefault(scope)

	_, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodDelete,
		Path:           c.entriesPath(universeID, name, scope) + "/" + url.PathEscape(id),
		ExpectedStatus: []int{200, 204},
	})
	if err != nil {
		return fmt.Errorf("deleting ordered entry: %w", err)
	}

	return nil
}

func scopeOrDefault(scope string) string {
	if scope == "" {
		return DefaultScope
	}

	return scope
}

// parseOrderedEntry fills in the entry ID when the API omits it from
// the response body.
func parseOrderedEntry(resp *http.Response, id string) (*opencloud.OrderedEntry, error) {
	var entry opencloud.OrderedEntry

	err := parseBody(resp, &entry, "ordered entry")
	if err != nil {
		return nil, err
	}

	if entry.ID == "" {
		entry.ID = id
	}

	return &entry, nil
}
