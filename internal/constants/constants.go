package constants

import "time"

// API endpoints.
const (
	// DefaultBaseURL is the Open Cloud API host used when none is configured.
	DefaultBaseURL = "https://apis.roblox.com"

	// DefaultAuthURL is the OAuth2 authorization endpoint.
	DefaultAuthURL = "https://apis.roblox.com/oauth/v1/authorize"

	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://apis.roblox.com/oauth/v1/token"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for uploads and other longer operations.
	ExtendedHTTPTimeout = 120 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries on 5xx.
	DefaultRetryMax = 2

	// DefaultRetryWaitMin is the initial wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Polling intervals and operation wait defaults.
const (
	// DefaultPollInterval is used for long-running operation polling.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollTimeout bounds PollUntilComplete.
	DefaultPollTimeout = 5 * time.Minute

	// DefaultWaitTimeout bounds Operation.Wait when the caller does not
	// supply a timeout.
	DefaultWaitTimeout = 60 * time.Second

	// DefaultWaitExponent grows the poll interval between checks.
	DefaultWaitExponent = 1.3

	// DefaultMinWaitInterval is the floor applied to a grown interval so a
	// zero starting interval cannot spin forever.
	DefaultMinWaitInterval = 250 * time.Millisecond
)

// Pagination limits.
const (
	// DefaultPageLimit is the page size requested from list endpoints.
	DefaultPageLimit = 100

	// MaxSortedMapPageSize is the largest page the memory store API allows.
	MaxSortedMapPageSize = 200
)

// Cache defaults.
const (
	// DefaultCacheSize is the default maximum number of cached responses.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is how long a cached response stays fresh.
	DefaultCacheTTL = 5 * time.Minute
)

// API path prefixes per endpoint family.
const (
	// APIPathDataStores is the standard data store API prefix.
	APIPathDataStores = "/datastores/v1/universes"

	// APIPathOrderedDataStores is the ordered data store API prefix.
	APIPathOrderedDataStores = "/ordered-data-stores/v1/universes"

	// APIPathMemoryStore is the memory store API prefix.
	APIPathMemoryStore = "/cloud/v2/universes"

	// APIPathMessaging is the messaging service API prefix.
	APIPathMessaging = "/messaging-service/v1/universes"

	// APIPathAssets is the assets API prefix.
	APIPathAssets = "/assets/v1"

	// APIPathUniverses is the legacy universe (place publishing) prefix.
	APIPathUniverses = "/universes/v1"

	// APIPathGroups is the groups API prefix.
	APIPathGroups = "/cloud/v2/groups"

	// APIPathUsers is the users API prefix.
	APIPathUsers = "/cloud/v2/users"
)

// Wire header names used by the data store entry APIs.
const (
	HeaderEntryVersion            = "roblox-entry-version"
	HeaderEntryCreatedTime        = "roblox-entry-created-time"
	HeaderEntryVersionCreatedTime = "roblox-entry-version-created-time"
	HeaderEntryAttributes         = "roblox-entry-attributes"
	HeaderEntryUserIDs            = "roblox-entry-userids"
	HeaderWebhookSignature        = "roblox-signature"
)
