// Package opencloud provides the public types and interfaces for the
// Roblox Open Cloud API client.
//
// The package defines three primitives every resource client is built
// from:
//
//   - the transport contract (Config, error taxonomy): one HTTP call
//     with uniform status-to-error translation and bounded retry on
//     server failures;
//   - Pager, a lazy cursor-following iterator that presents a
//     paginated list endpoint as one flat sequence;
//   - Operation, a handle to a server-side long-running job with a
//     non-blocking status check and a bounded Wait.
//
// Construct a working client with the rbxclient package:
//
//	client, err := rbxclient.New(&opencloud.Config{
//		APIKey: os.Getenv("ROBLOX_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	entry, err := client.DataStores().GetEntry(ctx, universeID,
//		"playerData", "global", "player_287")
//
// Iterating a paginated listing fetches pages only as items are
// consumed:
//
//	pager := client.DataStores().ListKeys(ctx, universeID,
//		"playerData", "global", "")
//	for pager.HasNext() {
//		key, err := pager.Next()
//		...
//	}
//
// Long-running calls such as asset uploads return an Operation:
//
//	op, err := client.Assets().Upload(ctx, req, "model.fbx", file)
//	asset, err := op.Wait(ctx, opencloud.DefaultWaitOptions())
package opencloud
