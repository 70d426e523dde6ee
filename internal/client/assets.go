package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// AssetsClient implements opencloud.AssetsClient. Uploads are
// asynchronous: the API returns an operation that resolves to the
// finished asset once moderation completes.
type AssetsClient struct {
	httpClient *http.Client
	poller     opencloud.Poller
}

// NewAssetsClient creates a new assets client.
func NewAssetsClient(httpClient *http.Client, poller opencloud.Poller) *AssetsClient {
	return &AssetsClient{httpClient: httpClient, poller: poller}
}

// assetMIMETypes maps upload file extensions to their content types.
var assetMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".bmp":  "image/bmp",
	".tga":  "image/tga",
	".fbx":  "model/fbx",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// Get fetches an asset's metadata.
func (c *AssetsClient) Get(ctx context.Context, assetID int64) (*opencloud.Asset, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathAssets+"/assets/"+strconv.FormatInt(assetID, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}

	var asset opencloud.Asset

	err = parseBody(resp, &asset, "asset")
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// Upload creates a new asset from the file contents and returns the
// upload operation. Moderated names or content surface as
// opencloud.ErrModerated.
func (c *AssetsClient) Upload(ctx context.Context, request *opencloud.AssetUploadRequest, filename string, file io.Reader) (*opencloud.Operation[*opencloud.Asset], error) {
	payload := map[string]any{
		"assetType": string(request.Type),
		"creationContext": opencloud.CreationContext{
			Creator:       request.Creator,
			ExpectedPrice: request.ExpectedPrice,
		},
		"displayName": request.Name,
		"description": request.Description,
	}

	return c.submitAsset(ctx, nethttp.MethodPost, constants.APIPathAssets+"/assets", nil, payload, filename, file)
}

// Update revises an existing asset. file may be nil for a
// metadata-only update.
func (c *AssetsClient) Update(ctx context.Context, assetID int64, request *opencloud.AssetUploadRequest, filename string, file io.Reader) (*opencloud.Operation[*opencloud.Asset], error) {
	payload := map[string]any{
		"assetId": strconv.FormatInt(assetID, 10),
	}

	var mask []string

	if request.Name != "" {
		payload["displayName"] = request.Name

		mask = append(mask, "displayName")
	}

	if request.Description != "" {
		payload["description"] = request.Description

		mask = append(mask, "description")
	}

	query := opencloud.NewQueryParams().SetOptional("updateMask", strings.Join(mask, ","))

	path := constants.APIPathAssets + "/assets/" + strconv.FormatInt(assetID, 10)

	return c.submitAsset(ctx, nethttp.MethodPatch, path, query.ToValues(), payload, filename, file)
}

func (c *AssetsClient) submitAsset(ctx context.Context, method, path string, query url.Values, payload map[string]any, filename string, file io.Reader) (*opencloud.Operation[*opencloud.Asset], error) {
	body, contentType, err := encodeAssetForm(payload, filename, file)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         method,
		Path:           path,
		Query:          query,
		RawBody:        body,
		ContentType:    contentType,
		ExpectedStatus: []int{200, 400},
	})
	if err != nil {
		return nil, fmt.Errorf("submitting asset: %w", err)
	}

	if resp.StatusCode == nethttp.StatusBadRequest {
		return nil, translateAssetRejection(resp)
	}

	var submitted struct {
		Path string `json:"path"`
	}

	err = parseBody(resp, &submitted, "asset operation")
	if err != nil {
		return nil, err
	}

	operationPath := constants.APIPathAssets + "/" + submitted.Path

	return opencloud.NewOperation(c.poller, operationPath, opencloud.MaterializeFunc(func(payload json.RawMessage) (*opencloud.Asset, error) {
		var asset opencloud.Asset

		err := json.Unmarshal(payload, &asset)
		if err != nil {
			return nil, fmt.Errorf("parsing asset: %w", err)
		}

		return &asset, nil
	})), nil
}

// encodeAssetForm builds the multipart body: a "request" JSON part and
// an optional "fileContent" part carrying the asset bytes.
func encodeAssetForm(payload map[string]any, filename string, file io.Reader) ([]byte, string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encoding asset request: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	err = writer.WriteField("request", string(encoded))
	if err != nil {
		return nil, "", fmt.Errorf("writing asset request part: %w", err)
	}

	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="fileContent"; filename=%q`, filename))

		if mimeType, ok := assetMIMETypes[strings.ToLower(filepath.Ext(filename))]; ok {
			header.Set("Content-Type", mimeType)
		} else {
			header.Set("Content-Type", "application/octet-stream")
		}

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("writing asset file part: %w", err)
		}

		_, err = io.Copy(part, file)
		if err != nil {
			return nil, "", fmt.Errorf("copying asset file: %w", err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("finalizing asset form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// translateAssetRejection distinguishes moderation rejections from
// other bad requests. The API reports both as 400s with a message.
func translateAssetRejection(resp *http.Response) error {
	var rejection struct {
		Message string `json:"message"`
	}

	_ = resp.JSON(&rejection)

	if strings.Contains(rejection.Message, "moderated") {
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrModerated, resp.Body)
	}

	return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrUnexpectedStatus, resp.Body)
}

// ListVersionsPage fetches one page of asset versions, latest first.
func (c *AssetsClient) ListVersionsPage(ctx context.Context, assetID int64, cursor string) ([]opencloud.AssetVersion, string, error) {
	query := opencloud.NewQueryParams().
		Set("maxPageSize", 50).
		SetOptional("pageToken", cursor)

	resp, err := c.httpClient.Get(ctx, constants.APIPathAssets+"/assets/"+strconv.FormatInt(assetID, 10)+"/versions", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing asset versions: %w", err)
	}

	var page struct {
		AssetVersions []opencloud.AssetVersion `json:"assetVersions"`
		NextPageToken string                   `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "asset versions page")
	if err != nil {
		return nil, "", err
	}

	return page.AssetVersions, page.NextPageToken, nil
}

// ListVersions iterates all versions of an asset, latest first.
func (c *AssetsClient) ListVersions(ctx context.Context, assetID int64, opts ...opencloud.PagerOption) *opencloud.Pager[opencloud.AssetVersion] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.AssetVersion, string, error) {
		return c.ListVersionsPage(ctx, assetID, cursor)
	}, opts...)
}

// RollbackVersion reverts the asset to a previous version.
// versionPath is the full version resource path, e.g.
// "assets/123/versions/4".
func (c *AssetsClient) RollbackVersion(ctx context.Context, assetID int64, versionPath string) (*opencloud.AssetVersion, error) {
	resp, err := c.httpClient.Post(ctx, constants.APIPathAssets+"/assets/"+strconv.FormatInt(assetID, 10)+"/versions:rollback",
		map[string]string{"assetVersion": versionPath})
	if err != nil {
		return nil, fmt.Errorf("rolling back asset: %w", err)
	}

	var version opencloud.AssetVersion

	err = parseBody(resp, &version, "asset version")
	if err != nil {
		return nil, err
	}

	return &version, nil
}
