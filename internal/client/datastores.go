package client

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// DataStoresClient implements opencloud.DataStoresClient against the
// standard data store API.
type DataStoresClient struct {
	httpClient *http.Client
}

// NewDataStoresClient creates a new data stores client.
func NewDataStoresClient(httpClient *http.Client) *DataStoresClient {
	return &DataStoresClient{httpClient: httpClient}
}

// DefaultScope is used when a caller passes an empty scope together
// with a plain key.
const DefaultScope = "global"

// resolveScope returns the effective scope and key. An empty scope
// means the key carries its own scope in "scope/key" form.
func resolveScope(scope, key string) (string, string, error) {
	if scope != "" {
		return scope, key, nil
	}

	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("key %q: %w", key, opencloud.ErrScopeRequired)
	}

	return parts[0], parts[1], nil
}

func (c *DataStoresClient) universePath(universeID int64) string {
	return constants.APIPathDataStores + "/" + strconv.FormatInt(universeID, 10)
}

// ListPage fetches one page of data stores, optionally matching a name
// prefix.
func (c *DataStoresClient) ListPage(ctx context.Context, universeID int64, prefix, cursor string) ([]opencloud.DataStore, string, error) {
	query := opencloud.NewQueryParams().
		SetOptional("prefix", prefix).
		Set("limit", constants.DefaultPageLimit).
		SetOptional("cursor", cursor)

	resp, err := c.httpClient.Get(ctx, c.universePath(universeID)+"/standard-datastores", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing datastores: %w", err)
	}

	var page struct {
		DataStores     []opencloud.DataStore `json:"datastores"`
		NextPageCursor string                `json:"nextPageCursor"`
	}

	err = parseBody(resp, &page, "datastores page")
	if err != nil {
		return nil, "", err
	}

	return page.DataStores, page.NextPageCursor, nil
}

// List iterates all data stores in the universe.
func (c *DataStoresClient) List(ctx context.Context, universeID int64, prefix string, opts ...opencloud.PagerOption) *opencloud.Pager[opencloud.DataStore] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.DataStore, string, error) {
		return c.ListPage(ctx, universeID, prefix, cursor)
	}, opts...)
}

// ListKeysPage fetches one page of keys in a data store. An empty scope
// lists keys across all scopes.
func (c *DataStoresClient) ListKeysPage(ctx context.Context, universeID int64, name, scope, prefix, cursor string) ([]opencloud.ListedEntry, string, error) {
	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("AllScopes", scope == "").
		SetOptional("prefix", prefix).
		SetOptional("cursor", cursor)

	resp, err := c.httpClient.Get(ctx, c.universePath(universeID)+"/standard-datastores/datastore/entries", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing keys: %w", err)
	}

	var page struct {
		Keys           []opencloud.ListedEntry `json:"keys"`
		NextPageCursor string                  `json:"nextPageCursor"`
	}

	err = parseBody(resp, &page, "keys page")
	if err != nil {
		return nil, "", err
	}

	return page.Keys, page.NextPageCursor, nil
}

// ListKeys iterates all keys in a data store.
func (c *DataStoresClient) ListKeys(ctx context.Context, universeID int64, name, scope, prefix string, opts ...opencloud.PagerOption) *opencloud.Pager[opencloud.ListedEntry] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.ListedEntry, string, error) {
		return c.ListKeysPage(ctx, universeID, name, scope, prefix, cursor)
	}, opts...)
}

// GetEntry fetches the value and version metadata of a key.
func (c *DataStoresClient) GetEntry(ctx context.Context, universeID int64, name, scope, key string) (*opencloud.Entry, error) {
	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return nil, err
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key)

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodGet,
		Path:           c.universePath(universeID) + "/standard-datastores/datastore/entries/entry",
		Query:          query.ToValues(),
		ExpectedStatus: []int{200},
		Cacheable:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}

	return entryFromResponse(resp)
}

// SetEntry writes the value of a key. opts enables conditional writes
// and entry metadata. A failed condition returns a
// *opencloud.PreconditionFailedError carrying the currently stored
// value.
func (c *DataStoresClient) SetEntry(ctx context.Context, universeID int64, name, scope, key string, value any, opts *opencloud.SetEntryOptions) (*opencloud.EntryVersion, error) {
	if opts == nil {
		opts = &opencloud.SetEntryOptions{}
	}

	if opts.ExclusiveCreate && opts.MatchVersion != "" {
		return nil, opencloud.ErrExclusiveConditions
	}

	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding entry value: %w", err)
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key).
		Set("exclusiveCreate", opts.ExclusiveCreate).
		SetOptional("matchVersion", opts.MatchVersion)

	headers, err := entryWriteHeaders(body, opts.UserIDs, opts.Attributes)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           c.universePath(universeID) + "/standard-datastores/datastore/entries/entry",
		Query:          query.ToValues(),
		Headers:        headers,
		RawBody:        body,
		ContentType:    "application/json",
		ExpectedStatus: []int{200, 412},
	})
	if err != nil {
		return nil, fmt.Errorf("setting entry: %w", err)
	}

	if resp.StatusCode == nethttp.StatusPreconditionFailed {
		return nil, preconditionError(resp, opts)
	}

	var version opencloud.EntryVersion

	err = parseBody(resp, &version, "entry version")
	if err != nil {
		return nil, err
	}

	return &version, nil
}

// IncrementEntry atomically adds delta to a numeric entry and returns
// the new value.
func (c *DataStoresClient) IncrementEntry(ctx context.Context, universeID int64, name, scope, key string, delta int64, opts *opencloud.SetEntryOptions) (*opencloud.Entry, error) {
	if opts == nil {
		opts = &opencloud.SetEntryOptions{}
	}

	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return nil, err
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key).
		Set("incrementBy", delta)

	headers, err := entryWriteHeaders(nil, opts.UserIDs, opts.Attributes)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           c.universePath(universeID) + "/standard-datastores/datastore/entries/entry/increment",
		Query:          query.ToValues(),
		Headers:        headers,
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return nil, fmt.Errorf("incrementing entry: %w", err)
	}

	return entryFromResponse(resp)
}

// DeleteEntry removes a key from the data store.
func (c *DataStoresClient) DeleteEntry(ctx context.Context, universeID int64, name, scope, key string) error {
	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return err
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key)

	_, err = c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodDelete,
		Path:           c.universePath(universeID) + "/standard-datastores/datastore/entries/entry",
		Query:          query.ToValues(),
		ExpectedStatus: []int{204},
	})
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	return nil
}

// ListVersionsPage fetches one page of versions of an entry.
func (c *DataStoresClient) ListVersionsPage(ctx context.Context, universeID int64, name, scope, key string, opts *opencloud.ListVersionsOptions, cursor string) ([]opencloud.EntryVersion, string, error) {
	if opts == nil {
		opts = &opencloud.ListVersionsOptions{}
	}

	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return nil, "", err
	}

	sortOrder := opts.SortOrder
	if sortOrder == "" {
		sortOrder = opencloud.SortOrderDescending
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key).
		Set("sortOrder", string(sortOrder)).
		Set("limit", constants.DefaultPageLimit).
		SetOptional("cursor", cursor)

	if !opts.After.IsZero() {
		query.Set("startTime", opts.After.UTC().Format(time.RFC3339))
	}

	if !opts.Before.IsZero() {
		query.Set("endTime", opts.Before.UTC().Format(time.RFC3339))
	}

	resp, err := c.httpClient.Get(ctx, c.universePath(universeID)+"/standard-datastores/datastore/entries/entry/versions", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing versions: %w", err)
	}

	var page struct {
		Versions       []opencloud.EntryVersion `json:"versions"`
		NextPageCursor string                   `json:"nextPageCursor"`
	}

	err = parseBody(resp, &page, "versions page")
	if err != nil {
		return nil, "", err
	}

	return page.Versions, page.NextPageCursor, nil
}

// ListVersions iterates all stored versions of an entry.
func (c *DataStoresClient) ListVersions(ctx context.Context, universeID int64, name, scope, key string, opts *opencloud.ListVersionsOptions, pagerOpts ...opencloud.PagerOption) *opencloud.Pager[opencloud.EntryVersion] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.EntryVersion, string, error) {
		return c.ListVersionsPage(ctx, universeID, name, scope, key, opts, cursor)
	}, pagerOpts...)
}

// GetVersion fetches the value of an entry at a specific version ID.
func (c *DataStoresClient) GetVersion(ctx context.Context, universeID int64, name, scope, key, version string) (*opencloud.Entry, error) {
	scope, key, err := resolveScope(scope, key)
	if err != nil {
		return nil, err
	}

	query := opencloud.NewQueryParams().
		Set("datastoreName", name).
		Set("scope", scope).
		Set("entryKey", key).
		Set("versionId", version)

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodGet,
		Path:           c.universePath(universeID) + "/standard-datastores/datastore/entries/entry/versions/version",
		Query:          query.ToValues(),
		ExpectedStatus: []int{200, 400},
	})
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	// The API reports an unknown version ID as a 400 rather than a 404.
	if resp.StatusCode == nethttp.StatusBadRequest {
		return nil, opencloud.NewAPIError(resp.StatusCode, opencloud.ErrNotFound, resp.Body)
	}

	return entryFromResponse(resp)
}

// entryWriteHeaders builds the metadata headers for a write. body may
// be nil for increments, which carry no checksum.
func entryWriteHeaders(body []byte, userIDs []int64, attributes map[string]any) (map[string]string, error) {
	if userIDs == nil {
		userIDs = []int64{}
	}

	if attributes == nil {
		attributes = map[string]any{}
	}

	encodedUsers, err := json.Marshal(userIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding entry user ids: %w", err)
	}

	encodedAttributes, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("encoding entry attributes: %w", err)
	}

	headers := map[string]string{
		constants.HeaderEntryUserIDs:    string(encodedUsers),
		constants.HeaderEntryAttributes: string(encodedAttributes),
	}

	if body != nil {
		checksum := md5.Sum(body)
		headers["content-md5"] = base64.StdEncoding.EncodeToString(checksum[:])
	}

	return headers, nil
}

// entryInfoFromHeaders assembles version metadata from the
// roblox-entry-* response headers.
func entryInfoFromHeaders(headers nethttp.Header) (*opencloud.EntryInfo, error) {
	info := &opencloud.EntryInfo{
		Version:    headers.Get(constants.HeaderEntryVersion),
		UserIDs:    []int64{},
		Attributes: map[string]any{},
	}

	if created := headers.Get(constants.HeaderEntryCreatedTime); created != "" {
		parsed, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parsing entry created time: %w", err)
		}

		info.Created = parsed
	}

	if updated := headers.Get(constants.HeaderEntryVersionCreatedTime); updated != "" {
		parsed, err := time.Parse(time.RFC3339, updated)
		if err != nil {
			return nil, fmt.Errorf("parsing entry version created time: %w", err)
		}

		info.Updated = parsed
	}

	if userIDs := headers.Get(constants.HeaderEntryUserIDs); userIDs != "" {
		err := json.Unmarshal([]byte(userIDs), &info.UserIDs)
		if err != nil {
			return nil, fmt.Errorf("parsing entry user ids: %w", err)
		}
	}

	if attributes := headers.Get(constants.HeaderEntryAttributes); attributes != "" {
		err := json.Unmarshal([]byte(attributes), &info.Attributes)
		if err != nil {
			return nil, fmt.Errorf("parsing entry attributes: %w", err)
		}
	}

	return info, nil
}

func entryFromResponse(resp *http.Response) (*opencloud.Entry, error) {
	info, err := entryInfoFromHeaders(resp.Headers)
	if err != nil {
		return nil, err
	}

	return &opencloud.Entry{
		Value: json.RawMessage(resp.Body),
		Info:  *info,
	}, nil
}

func preconditionError(resp *http.Response, opts *opencloud.SetEntryOptions) error {
	info, err := entryInfoFromHeaders(resp.Headers)
	if err != nil {
		info = nil
	}

	reason := "precondition failed"

	switch {
	case opts.ExclusiveCreate:
		reason = "a value already exists for this key"
	case opts.MatchVersion != "":
		reason = fmt.Sprintf("the current version is not %q", opts.MatchVersion)
	}

	return &opencloud.PreconditionFailedError{
		Value:  json.RawMessage(resp.Body),
		Info:   info,
		Reason: reason,
	}
}
