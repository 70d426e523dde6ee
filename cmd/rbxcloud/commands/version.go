package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := struct {
				Version   string `json:"version" yaml:"version"`
				Commit    string `json:"commit" yaml:"commit"`
				Date      string `json:"date" yaml:"date"`
				GoVersion string `json:"go_version" yaml:"go_version"`
				Platform  string `json:"platform" yaml:"platform"`
			}{
				Version:   version,
				Commit:    commit,
				Date:      date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			return renderOutput(info, func() error {
				fmt.Printf("rbxcloud %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
				fmt.Printf("%s %s\n", info.GoVersion, info.Platform)

				return nil
			})
		},
	}
}
