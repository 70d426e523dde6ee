package opencloud

import (
	"encoding/json"
	"time"
)

// DataStore describes a standard data store within a universe.
type DataStore struct {
	Name string `json:"name"`

	// CreatedTime is nil for handles obtained without a listing call.
	CreatedTime *time.Time `json:"createdTime,omitempty"`
}

// ListedEntry is one key returned by a data store key listing.
type ListedEntry struct {
	Key   string `json:"key"`
	Scope string `json:"scope"`
}

// EntryInfo describes the current version of a data store entry. It is
// assembled from the roblox-entry-* response headers.
type EntryInfo struct {
	Version    string         `json:"version"`
	Created    time.Time      `json:"created"`
	Updated    time.Time      `json:"updated"`
	UserIDs    []int64        `json:"userIds"`
	Attributes map[string]any `json:"attributes"`
}

// Entry is the value of a data store key together with its version
// metadata. Value is left raw so callers choose the target type.
type Entry struct {
	Value json.RawMessage `json:"value"`
	Info  EntryInfo       `json:"info"`
}

// EntryVersion describes one stored version of a data store entry.
type EntryVersion struct {
	Version       string    `json:"version"`
	Deleted       bool      `json:"deleted"`
	ContentLength int64     `json:"contentLength"`
	CreatedTime   time.Time `json:"createdTime"`
	// ObjectCreatedTime is when the key itself was first created.
	ObjectCreatedTime time.Time `json:"objectCreatedTime"`
}

// SortOrder controls version and ordered-entry listing direction.
type SortOrder string

const (
	SortOrderAscending  SortOrder = "Ascending"
	SortOrderDescending SortOrder = "Descending"
)

// OrderedEntry is one entry of an ordered data store.
type OrderedEntry struct {
	// Path is the full resource path of the entry.
	Path string `json:"path"`
	ID   string `json:"id"`
	// Value is the entry's integer value, the only type ordered data
	// stores support.
	Value int64 `json:"value"`
}

// SortedMapEntry is one item in a memory store sorted map.
type SortedMapEntry struct {
	Key   string          `json:"id"`
	Value json.RawMessage `json:"value"`
	// SortKey is either the numeric or string sort key, whichever the
	// entry was stored with.
	SortKey any `json:"sortKey,omitempty"`
	// Etag is a server generated value for preconditional updates.
	Etag       string     `json:"etag"`
	ExpireTime *time.Time `json:"expireTime,omitempty"`
}

// QueueReadResult is the outcome of reading from a memory store queue.
type QueueReadResult struct {
	// Items holds the raw values read, in priority order.
	Items []json.RawMessage `json:"data"`
	// ReadID is passed to Discard to permanently remove the read items.
	// Empty when the queue had nothing to return.
	ReadID string `json:"id"`
}

// AssetType enumerates the asset types Open Cloud can upload.
type AssetType string

const (
	AssetTypeAudio   AssetType = "Audio"
	AssetTypeDecal   AssetType = "Decal"
	AssetTypeModel   AssetType = "Model"
	AssetTypeVideo   AssetType = "Video"
	AssetTypeUnknown AssetType = ""
)

// ModerationState enumerates asset moderation outcomes.
type ModerationState string

const (
	ModerationReviewing ModerationState = "Reviewing"
	ModerationRejected  ModerationState = "Rejected"
	ModerationApproved  ModerationState = "Approved"
)

// ModerationResult is the moderation verdict attached to an asset.
type ModerationResult struct {
	ModerationState ModerationState `json:"moderationState"`
}

// AssetCreator identifies the user or group an asset belongs to.
type AssetCreator struct {
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// CreationContext carries asset ownership and pricing information.
type CreationContext struct {
	Creator       AssetCreator `json:"creator"`
	ExpectedPrice int          `json:"expectedPrice,omitempty"`
}

// Asset is an asset uploaded through the assets API.
type Asset struct {
	ID              json.Number       `json:"assetId"`
	Name            string            `json:"displayName"`
	Description     string            `json:"description"`
	Type            AssetType         `json:"assetType"`
	CreationContext *CreationContext  `json:"creationContext,omitempty"`
	Moderation      *ModerationResult `json:"moderationResult,omitempty"`
	RevisionID      json.Number       `json:"revisionId,omitempty"`
	RevisionTime    *time.Time        `json:"revisionCreateTime,omitempty"`
}

// AssetVersion is one revision of an asset.
type AssetVersion struct {
	Path            string            `json:"path"`
	CreationContext *CreationContext  `json:"creationContext,omitempty"`
	Moderation      *ModerationResult `json:"moderationResult,omitempty"`
}

// PlaceVersionType selects whether an uploaded place file is published.
type PlaceVersionType string

const (
	PlaceVersionSaved     PlaceVersionType = "Saved"
	PlaceVersionPublished PlaceVersionType = "Published"
)

// PlaceVersion is the result of uploading a place file.
type PlaceVersion struct {
	VersionNumber int `json:"versionNumber"`
}

// Group is a Roblox group's public metadata.
type Group struct {
	Path        string     `json:"path"`
	ID          string     `json:"id"`
	Name        string     `json:"displayName"`
	Description string     `json:"description"`
	Owner       string     `json:"owner,omitempty"`
	MemberCount int        `json:"memberCount"`
	PublicEntry bool       `json:"publicEntryAllowed"`
	Locked      bool       `json:"locked"`
	Verified    bool       `json:"verified"`
	CreateTime  *time.Time `json:"createTime,omitempty"`
	UpdateTime  *time.Time `json:"updateTime,omitempty"`
}

// GroupShout is a group's current shout.
type GroupShout struct {
	Content    string     `json:"content"`
	Poster     string     `json:"poster,omitempty"`
	CreateTime *time.Time `json:"createTime,omitempty"`
	UpdateTime *time.Time `json:"updateTime,omitempty"`
}

// GroupMembership links a user to a group role.
type GroupMembership struct {
	Path       string     `json:"path"`
	User       string     `json:"user"`
	Role       string     `json:"role"`
	CreateTime *time.Time `json:"createTime,omitempty"`
	UpdateTime *time.Time `json:"updateTime,omitempty"`
}

// GroupRole is one role in a group.
type GroupRole struct {
	Path        string `json:"path"`
	ID          string `json:"id"`
	Name        string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Rank        int    `json:"rank"`
	MemberCount int    `json:"memberCount,omitempty"`
}

// User is a Roblox user's public metadata.
type User struct {
	Path        string     `json:"path"`
	ID          string     `json:"id"`
	Username    string     `json:"name"`
	DisplayName string     `json:"displayName"`
	About       string     `json:"about,omitempty"`
	Locale      string     `json:"locale,omitempty"`
	Premium     bool       `json:"premium,omitempty"`
	IDVerified  bool       `json:"idVerified,omitempty"`
	CreateTime  *time.Time `json:"createTime,omitempty"`
}

// InventoryItem is one item in a user's inventory listing. Exactly one of
// the detail fields is set depending on the item's kind.
type InventoryItem struct {
	Path                 string                  `json:"path"`
	AssetDetails         *InventoryAssetDetails  `json:"assetDetails,omitempty"`
	BadgeDetails         *InventoryItemReference `json:"badgeDetails,omitempty"`
	GamePassDetails      *InventoryItemReference `json:"gamePassDetails,omitempty"`
	PrivateServerDetails *InventoryItemReference `json:"privateServerDetails,omitempty"`
}

// InventoryAssetDetails describes an asset inventory item.
type InventoryAssetDetails struct {
	AssetID                string `json:"assetId"`
	InventoryItemAssetType string `json:"inventoryItemAssetType"`
	InstanceID             string `json:"instanceId,omitempty"`
	SerialNumber           int    `json:"serialNumber,omitempty"`
}

// InventoryItemReference holds the ID of a non-asset inventory item.
type InventoryItemReference struct {
	BadgeID         string `json:"badgeId,omitempty"`
	GamePassID      string `json:"gamePassId,omitempty"`
	PrivateServerID string `json:"privateServerId,omitempty"`
}

// OperationResponse is the wire shape of a long-running operation poll.
type OperationResponse struct {
	Path     string          `json:"path"`
	Done     bool            `json:"done"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
}
