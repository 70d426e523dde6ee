package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/rbxcloud-io/rbxcloud/internal/http"
)

func newTestGroups(server *httptest.Server) *GroupsClient {
	return NewGroupsClient(internalhttp.NewClient(server.URL, nil))
}

func TestGroupsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cloud/v2/groups/77", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"path":        "groups/77",
			"id":          "77",
			"displayName": "Builders",
			"memberCount": 250,
			"verified":    true,
		})
	}))
	defer server.Close()

	groups := newTestGroups(server)

	group, err := groups.Get(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Builders", group.Name)
	assert.Equal(t, 250, group.MemberCount)
	assert.True(t, group.Verified)
}

func TestGroupsClient_GetShout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cloud/v2/groups/77/shout", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": "Update out now!",
			"poster":  "users/101",
		})
	}))
	defer server.Close()

	groups := newTestGroups(server)

	shout, err := groups.GetShout(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Update out now!", shout.Content)
	assert.Equal(t, "users/101", shout.Poster)
}

func TestGroupsClient_ListMemberships(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cloud/v2/groups/77/memberships", r.URL.Path)
		assert.Equal(t, "user == 'users/101'", r.URL.Query().Get("filter"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"groupMemberships": []map[string]any{
				{"path": "groups/77/memberships/m1", "user": "users/101", "role": "groups/77/roles/5"},
			},
		})
	}))
	defer server.Close()

	groups := newTestGroups(server)

	memberships, err := groups.ListMemberships(context.Background(), 77, "user == 'users/101'").All()
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "users/101", memberships[0].User)
}

func TestGroupsClient_ListRoles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cloud/v2/groups/77/roles", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"groupRoles": []map[string]any{
				{"path": "groups/77/roles/1", "displayName": "Member", "rank": 1},
				{"path": "groups/77/roles/255", "displayName": "Owner", "rank": 255},
			},
		})
	}))
	defer server.Close()

	groups := newTestGroups(server)

	roles, err := groups.ListRoles(context.Background(), 77).All()
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "Owner", roles[1].Name)
	assert.Equal(t, 255, roles[1].Rank)
}
