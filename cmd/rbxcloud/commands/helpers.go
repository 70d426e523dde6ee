package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
	"github.com/rbxcloud-io/rbxcloud/pkg/rbxclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Unknown      = "unknown"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	// JSON formatting.
	defaultJSONIndent = 2

	timeFormat = "2006-01-02 15:04:05"
)

// Common static errors used throughout the commands package.
var (
	ErrCredentialRequired  = errors.New("an API key or token is required (use --api-key, --token, or rbxcloud configure)")
	ErrUniverseRequired    = errors.New("universe ID is required (use --universe or set it in the config file)")
	ErrInvalidUniverseID   = errors.New("universe ID must be numeric")
	ErrInvalidEntryValue   = errors.New("entry value must be valid JSON")
	ErrAssetTypeRequired   = errors.New("asset type is required (--type)")
	ErrCreatorRequired     = errors.New("a creator is required (--user or --group)")
	ErrPlaceRequired       = errors.New("place ID is required (--place)")
	ErrNothingToUpdate     = errors.New("nothing to update (set --name or --description)")
	ErrConfigValueRequired = errors.New("a value is required")
)

// newClient builds an Open Cloud client from the resolved configuration.
func newClient() (opencloud.Client, error) {
	config := &opencloud.Config{
		APIKey:      viper.GetString("api_key"),
		BearerToken: viper.GetString("token"),
		BaseURL:     viper.GetString("base_url"),
	}

	if config.APIKey == "" && config.BearerToken == "" {
		return nil, ErrCredentialRequired
	}

	client, err := rbxclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// universeID resolves the target universe from the --universe flag or the
// config file.
func universeID() (int64, error) {
	raw := viper.GetString("universe")
	if raw == "" {
		return 0, ErrUniverseRequired
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUniverseID, raw)
	}

	return id, nil
}

// renderOutput writes data as JSON or YAML per the --output flag, or runs
// renderTable for the default table format.
func renderOutput(data any, renderTable func() error) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(defaultJSONIndent)

		return encoder.Encode(data)
	default:
		return renderTable()
	}
}

// parseValueArg interprets a command-line value argument as JSON, falling
// back to a plain string when it does not parse. "42" stores a number and
// "hello" stores a string without forcing users to shell-quote both.
func parseValueArg(arg string) any {
	var value any

	err := json.Unmarshal([]byte(arg), &value)
	if err != nil {
		return arg
	}

	return value
}

// compactJSON renders a raw value on one line for table cells.
func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return NotAvailable
	}

	compacted, err := json.Marshal(json.RawMessage(raw))
	if err != nil {
		return string(raw)
	}

	return string(compacted)
}

// formatTime renders an optional timestamp for table cells.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}

	return t.Format(timeFormat)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ID %q: %w", arg, err)
	}

	return id, nil
}
