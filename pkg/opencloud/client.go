package opencloud

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client.
//
// Exactly one credential is used per client: APIKey sends the
// service-specific x-api-key header, BearerToken the standard
// Authorization header. When ClientID/ClientSecret/RefreshToken are set,
// the client refreshes the bearer token through the OAuth2 token
// endpoint as needed.
type Config struct {
	// BaseURL overrides the Open Cloud host. Defaults to
	// https://apis.roblox.com.
	BaseURL string

	// APIKey is an Open Cloud API key from the Creator Dashboard.
	APIKey string

	// BearerToken is an OAuth2 access token used instead of an API key.
	BearerToken string

	// ClientID, ClientSecret, and RefreshToken enable automatic OAuth2
	// token refresh for delegated authorization.
	ClientID     string
	ClientSecret string
	RefreshToken string

	// TokenURL overrides the OAuth2 token endpoint.
	TokenURL string

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// Debug enables request/response logging through Logger.
	Debug bool

	// Logger receives debug and error logs. Optional.
	Logger Logger

	// RetryMax is the number of retries on 5xx responses.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the exponential backoff
	// between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// HTTPTimeout bounds each request round trip.
	HTTPTimeout time.Duration

	// Cache enables read-through response caching for entry reads.
	Cache *CacheConfig
}

// SetEntryOptions controls a conditional data store write.
type SetEntryOptions struct {
	// UserIDs attributes the entry to players, for GDPR tracking.
	UserIDs []int64

	// Attributes is arbitrary metadata stored with the entry.
	Attributes map[string]any

	// ExclusiveCreate fails the write if the key already exists.
	ExclusiveCreate bool

	// MatchVersion fails the write unless the current version matches.
	// Mutually exclusive with ExclusiveCreate.
	MatchVersion string
}

// ListVersionsOptions filters a data store version listing.
type ListVersionsOptions struct {
	After     time.Time
	Before    time.Time
	SortOrder SortOrder
}

// OrderedListOptions filters an ordered data store listing.
type OrderedListOptions struct {
	// Descending returns entries from highest value to lowest.
	Descending bool

	// Filter is a server-side filter expression, e.g. "entry > 10".
	Filter string

	// MaxPageSize caps each page; the API maximum is 100.
	MaxPageSize int
}

// SortedMapListOptions filters a sorted map listing.
type SortedMapListOptions struct {
	Descending bool

	// Bound filters compose into the API's filter expression. String
	// bounds are quoted automatically.
	LowerBoundKey     any
	UpperBoundKey     any
	LowerBoundSortKey any
	UpperBoundSortKey any
}

// SortedMapSetOptions controls a conditional sorted map write.
type SortedMapSetOptions struct {
	// SortKey orders the entry within the map; numeric or string.
	SortKey any

	// ExclusiveCreate fails the write if the key already exists.
	ExclusiveCreate bool

	// ExclusiveUpdate fails the write if the key does not exist.
	ExclusiveUpdate bool
}

// QueueReadOptions controls a queue read.
type QueueReadOptions struct {
	// Count is the number of items to read. Defaults to 1.
	Count int

	// AllOrNothing returns nothing unless Count items are available.
	AllOrNothing bool

	// InvisibilityTimeout hides read items from other readers until the
	// window lapses or they are discarded. Defaults to 30s.
	InvisibilityTimeout time.Duration
}

// AssetUploadRequest describes a new asset or asset revision.
type AssetUploadRequest struct {
	Type        AssetType
	Name        string
	Description string
	Creator     AssetCreator

	// ExpectedPrice guards priced uploads against fee changes.
	ExpectedPrice int
}

// InventoryListOptions filters a user inventory listing.
type InventoryListOptions struct {
	// Filter is the API's filter expression, e.g.
	// "inventoryItemAssetTypes=HAT,CLASSIC_PANTS".
	Filter string

	// MaxPageSize caps each page; the API maximum is 100.
	MaxPageSize int
}

// DataStoresClient accesses standard data stores.
type DataStoresClient interface {
	ListPage(ctx context.Context, universeID int64, prefix, cursor string) ([]DataStore, string, error)
	List(ctx context.Context, universeID int64, prefix string, opts ...PagerOption) *Pager[DataStore]

	ListKeysPage(ctx context.Context, universeID int64, name, scope, prefix, cursor string) ([]ListedEntry, string, error)
	ListKeys(ctx context.Context, universeID int64, name, scope, prefix string, opts ...PagerOption) *Pager[ListedEntry]

	GetEntry(ctx context.Context, universeID int64, name, scope, key string) (*Entry, error)
	SetEntry(ctx context.Context, universeID int64, name, scope, key string, value any, opts *SetEntryOptions) (*EntryVersion, error)
	IncrementEntry(ctx context.Context, universeID int64, name, scope, key string, delta int64, opts *SetEntryOptions) (*Entry, error)
	DeleteEntry(ctx context.Context, universeID int64, name, scope, key string) error

	ListVersionsPage(ctx context.Context, universeID int64, name, scope, key string, opts *ListVersionsOptions, cursor string) ([]EntryVersion, string, error)
	ListVersions(ctx context.Context, universeID int64, name, scope, key string, opts *ListVersionsOptions, pagerOpts ...PagerOption) *Pager[EntryVersion]
	GetVersion(ctx context.Context, universeID int64, name, scope, key, version string) (*Entry, error)
}

// OrderedDataStoresClient accesses ordered data stores.
type OrderedDataStoresClient interface {
	ListPage(ctx context.Context, universeID int64, name, scope string, opts *OrderedListOptions, cursor string) ([]OrderedEntry, string, error)
	List(ctx context.Context, universeID int64, name, scope string, opts *OrderedListOptions, pagerOpts ...PagerOption) *Pager[OrderedEntry]

	Create(ctx context.Context, universeID int64, name, scope, id string, value int64) (*OrderedEntry, error)
	Get(ctx context.Context, universeID int64, name, scope, id string) (*OrderedEntry, error)
	Update(ctx context.Context, universeID int64, name, scope, id string, value int64) (*OrderedEntry, error)
	Increment(ctx context.Context, universeID int64, name, scope, id string, delta int64) (*OrderedEntry, error)
	Delete(ctx context.Context, universeID int64, name, scope, id string) error
}

// MemoryStoreClient accesses memory store sorted maps and queues.
type MemoryStoreClient interface {
	SortedMapListPage(ctx context.Context, universeID int64, mapName string, opts *SortedMapListOptions, cursor string) ([]SortedMapEntry, string, error)
	SortedMapList(ctx context.Context, universeID int64, mapName string, opts *SortedMapListOptions, pagerOpts ...PagerOption) *Pager[SortedMapEntry]
	SortedMapGet(ctx context.Context, universeID int64, mapName, key string) (*SortedMapEntry, error)
	SortedMapSet(ctx context.Context, universeID int64, mapName, key string, value any, ttl time.Duration, opts *SortedMapSetOptions) (*SortedMapEntry, error)
	SortedMapDelete(ctx context.Context, universeID int64, mapName, key string) error

	QueueAdd(ctx context.Context, universeID int64, queueName string, value any, ttl time.Duration, priority float64) error
	QueueRead(ctx context.Context, universeID int64, queueName string, opts *QueueReadOptions) (*QueueReadResult, error)
	QueueDiscard(ctx context.Context, universeID int64, queueName, readID string) error

	// Flush wipes every sorted map and queue in the universe. The wipe is
	// asynchronous; wait on the returned operation to know when it lands.
	Flush(ctx context.Context, universeID int64) (*Operation[bool], error)
}

// MessagingClient publishes to live game servers.
type MessagingClient interface {
	Publish(ctx context.Context, universeID int64, topic, message string) error
}

// PlacesClient uploads place files.
type PlacesClient interface {
	UploadVersion(ctx context.Context, universeID, placeID int64, file io.Reader, versionType PlaceVersionType) (*PlaceVersion, error)
}

// AssetsClient uploads and manages assets.
type AssetsClient interface {
	Get(ctx context.Context, assetID int64) (*Asset, error)
	Upload(ctx context.Context, request *AssetUploadRequest, filename string, file io.Reader) (*Operation[*Asset], error)
	Update(ctx context.Context, assetID int64, request *AssetUploadRequest, filename string, file io.Reader) (*Operation[*Asset], error)

	ListVersionsPage(ctx context.Context, assetID int64, cursor string) ([]AssetVersion, string, error)
	ListVersions(ctx context.Context, assetID int64, opts ...PagerOption) *Pager[AssetVersion]
	RollbackVersion(ctx context.Context, assetID int64, versionPath string) (*AssetVersion, error)
}

// OperationsClient polls long-running operations. It implements Poller.
type OperationsClient interface {
	Poller
	PollUntilComplete(ctx context.Context, path string) (*OperationResponse, error)
}

// GroupsClient reads group metadata.
type GroupsClient interface {
	Get(ctx context.Context, groupID int64) (*Group, error)
	GetShout(ctx context.Context, groupID int64) (*GroupShout, error)

	ListMembershipsPage(ctx context.Context, groupID int64, filter, cursor string) ([]GroupMembership, string, error)
	ListMemberships(ctx context.Context, groupID int64, filter string, opts ...PagerOption) *Pager[GroupMembership]

	ListRolesPage(ctx context.Context, groupID int64, cursor string) ([]GroupRole, string, error)
	ListRoles(ctx context.Context, groupID int64, opts ...PagerOption) *Pager[GroupRole]
}

// UsersClient reads user metadata.
type UsersClient interface {
	Get(ctx context.Context, userID int64) (*User, error)

	ListInventoryItemsPage(ctx context.Context, userID int64, opts *InventoryListOptions, cursor string) ([]InventoryItem, string, error)
	ListInventoryItems(ctx context.Context, userID int64, opts *InventoryListOptions, pagerOpts ...PagerOption) *Pager[InventoryItem]
}

// StorageClients groups the data-persistence resource clients.
type StorageClients interface {
	DataStores() DataStoresClient
	OrderedDataStores() OrderedDataStoresClient
	MemoryStore() MemoryStoreClient
}

// CreationClients groups the content-publishing resource clients.
type CreationClients interface {
	Assets() AssetsClient
	Places() PlacesClient
	Operations() OperationsClient
}

// SocialClients groups the social-graph resource clients.
type SocialClients interface {
	Groups() GroupsClient
	Users() UsersClient
}

// Client is the full Open Cloud client surface.
type Client interface {
	StorageClients
	CreationClients
	SocialClients

	Messaging() MessagingClient
}

// RawValue decodes a raw JSON value into out, for callers that want a
// typed view of Entry and sorted map values.
func RawValue(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}
