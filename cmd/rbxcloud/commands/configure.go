package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
)

// cliConfig is the on-disk shape of ~/.rbxcloud/config.yml.
type cliConfig struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Token    string `yaml:"token,omitempty"`
	Universe string `yaml:"universe,omitempty"`
	Output   string `yaml:"output,omitempty"`
}

// NewConfigureCommand creates the configure command
func NewConfigureCommand() *cobra.Command {
	var universe string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save credentials and defaults",
		Long: `Prompt for an Open Cloud API key and write it, together with an
optional default universe ID, to the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadCLIConfig()

			fmt.Print("API key: ")

			keyBytes, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read API key: %w", err)
			}

			fmt.Println()

			apiKey := strings.TrimSpace(string(keyBytes))
			if apiKey == "" {
				return fmt.Errorf("API key: %w", ErrConfigValueRequired)
			}

			config.APIKey = apiKey

			if universe != "" {
				config.Universe = universe
			}

			path, err := saveCLIConfig(config)
			if err != nil {
				return err
			}

			fmt.Println("Configuration saved to", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&universe, "set-universe", "", "default universe ID to store")

	return cmd
}

func configFilePath() (string, error) {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		return cfgFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	return filepath.Join(home, ".rbxcloud", "config.yml"), nil
}

func loadCLIConfig() *cliConfig {
	config := &cliConfig{}

	path, err := configFilePath()
	if err != nil {
		return config
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config
	}

	_ = yaml.Unmarshal(data, config)

	return config
}

func saveCLIConfig(config *cliConfig) (string, error) {
	path, err := configFilePath()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	// The file holds a credential, so it is owner-readable only.
	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return path, nil
}
