package client

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// PlacesClient implements opencloud.PlacesClient.
type PlacesClient struct {
	httpClient *http.Client
}

// NewPlacesClient creates a new places client.
func NewPlacesClient(httpClient *http.Client) *PlacesClient {
	return &PlacesClient{httpClient: httpClient}
}

// UploadVersion uploads a place file (.rbxl or .rbxlx) as a new
// version, optionally publishing it immediately.
func (c *PlacesClient) UploadVersion(ctx context.Context, universeID, placeID int64, file io.Reader, versionType opencloud.PlaceVersionType) (*opencloud.PlaceVersion, error) {
	if versionType == "" {
		versionType = opencloud.PlaceVersionSaved
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading place file: %w", err)
	}

	path := constants.APIPathUniverses + "/" + strconv.FormatInt(universeID, 10) +
		"/places/" + strconv.FormatInt(placeID, 10) + "/versions"

	query := opencloud.NewQueryParams().Set("versionType", string(versionType))

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           path,
		Query:          query.ToValues(),
		RawBody:        data,
		ContentType:    "application/octet-stream",
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return nil, fmt.Errorf("uploading place version: %w", err)
	}

	var version opencloud.PlaceVersion

	err = parseBody(resp, &version, "place version")
	if err != nil {
		return nil, err
	}

	return &version, nil
}
