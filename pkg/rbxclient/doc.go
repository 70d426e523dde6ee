// Package rbxclient provides the primary entry point for constructing a
// Roblox Open Cloud API client that implements the opencloud.Client
// interface.
//
// It layers configuration, HTTP transport, and authentication on top of
// the resource interfaces and types defined in the opencloud package.
// Most applications should import rbxclient to build a client, then use
// the returned opencloud.Client to access resource-specific clients, for
// example DataStores(), Messaging(), Assets(), etc.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
//	  "github.com/rbxcloud-io/rbxcloud/pkg/rbxclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: an API key from the Creator Dashboard.
//	  cli, err := rbxclient.NewWithAPIKey("api-key")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an OAuth2 access token you already have:
//	  cli, err = rbxclient.NewWithToken("eyJhbGciOi...")
//
//	  // Or with automatic token refresh through the OAuth2 endpoint:
//	  cli, err = rbxclient.New(&opencloud.Config{
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    RefreshToken: "refresh-token",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the opencloud.Client interface
//	  entry, err := cli.DataStores().GetEntry(ctx, 3260133, "PlayerData", "global", "user_287113233")
//	  if err != nil { log.Fatal(err) }
//	  _ = entry
//	}
//
// # Helpers
//
// The package also provides convenience constructors NewWithAPIKey,
// NewWithToken, and NewWithOAuth2 that wrap New with the appropriate
// configuration.
package rbxclient
