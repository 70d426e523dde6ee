package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

func TestPlacesClient_UploadVersion(t *testing.T) {
	placeFile := []byte("binary place file contents")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/universes/v1/1234/places/5678/versions", r.URL.Path)
		assert.Equal(t, "Published", r.URL.Query().Get("versionType"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, placeFile, body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"versionNumber": 42})
	}))
	defer server.Close()

	places := NewPlacesClient(internalhttp.NewClient(server.URL, nil))

	version, err := places.UploadVersion(context.Background(), 1234, 5678,
		bytes.NewReader(placeFile), opencloud.PlaceVersionPublished)
	require.NoError(t, err)
	assert.Equal(t, 42, version.VersionNumber)
}

func TestPlacesClient_UploadVersion_DefaultsToSaved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Saved", r.URL.Query().Get("versionType"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"versionNumber": 1})
	}))
	defer server.Close()

	places := NewPlacesClient(internalhttp.NewClient(server.URL, nil))

	_, err := places.UploadVersion(context.Background(), 1234, 5678, bytes.NewReader(nil), "")
	require.NoError(t, err)
}
