package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

func newTestAssets(server *httptest.Server) *AssetsClient {
	httpClient := internalhttp.NewClient(server.URL, nil)

	return NewAssetsClient(httpClient, NewOperationsClient(httpClient))
}

func TestAssetsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets/v1/assets/99", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"assetId":     "99",
			"displayName": "Cool Hat",
			"assetType":   "Model",
		})
	}))
	defer server.Close()

	assets := newTestAssets(server)

	asset, err := assets.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "Cool Hat", asset.Name)
	assert.Equal(t, opencloud.AssetTypeModel, asset.Type)
}

func TestAssetsClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assets/v1/assets":
			require.NoError(t, r.ParseMultipartForm(1<<20))

			var request map[string]any
			require.NoError(t, json.Unmarshal([]byte(r.MultipartForm.Value["request"][0]), &request))
			assert.Equal(t, "Decal", request["assetType"])
			assert.Equal(t, "My Decal", request["displayName"])

			files := r.MultipartForm.File["fileContent"]
			require.Len(t, files, 1)
			assert.Equal(t, "decal.png", files[0].Filename)
			assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"path": "operations/op-7"})
		case "/assets/v1/operations/op-7":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"path":     "operations/op-7",
				"done":     true,
				"response": map[string]any{"assetId": "99", "displayName": "My Decal"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	assets := newTestAssets(server)

	operation, err := assets.Upload(context.Background(), &opencloud.AssetUploadRequest{
		Type:    opencloud.AssetTypeDecal,
		Name:    "My Decal",
		Creator: opencloud.AssetCreator{UserID: "101"},
	}, "decal.png", bytes.NewReader([]byte("png bytes")))
	require.NoError(t, err)
	assert.Equal(t, "/assets/v1/operations/op-7", operation.Path())

	asset, done, err := operation.FetchStatus(context.Background())
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "My Decal", asset.Name)
}

func TestAssetsClient_Upload_Moderated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"AssetName is moderated."}`))
	}))
	defer server.Close()

	assets := newTestAssets(server)

	_, err := assets.Upload(context.Background(), &opencloud.AssetUploadRequest{
		Type: opencloud.AssetTypeDecal,
		Name: "bad name",
	}, "decal.png", bytes.NewReader(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, opencloud.ErrModerated)
}

func TestAssetsClient_ListVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets/v1/assets/99/versions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"assetVersions": []map[string]any{
				{"path": "assets/99/versions/2"},
				{"path": "assets/99/versions/1"},
			},
		})
	}))
	defer server.Close()

	assets := newTestAssets(server)

	versions, err := assets.ListVersions(context.Background(), 99).All()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "assets/99/versions/2", versions[0].Path)
}

func TestAssetsClient_RollbackVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets/v1/assets/99/versions:rollback", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "assets/99/versions/1", body["assetVersion"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"path": "assets/99/versions/3"})
	}))
	defer server.Close()

	assets := newTestAssets(server)

	version, err := assets.RollbackVersion(context.Background(), 99, "assets/99/versions/1")
	require.NoError(t, err)
	assert.Equal(t, "assets/99/versions/3", version.Path)
}
