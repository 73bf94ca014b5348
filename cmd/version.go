package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/facet/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version, commit, build time, Go version and platform.

Examples:
  facet version               # One line with the commit
  facet version --short       # Version only
  facet version --detailed    # Every build field
  facet version --format json # Machine readable`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().Bool("short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

// versionReport is the JSON form of the version command.
type versionReport struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		info := version.GetBuildInfo()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(versionReport{
			Version:   info.Version,
			GitCommit: info.GitCommit,
			BuildTime: info.BuildTime,
			GoVersion: info.GoVersion,
			Platform:  info.Platform,
			IsRelease: version.IsRelease(),
			IsDirty:   version.IsDirty(),
		})
	case "text":
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}

	switch {
	case short:
		_, err := fmt.Fprintln(out, version.GetShortVersion())
		return err
	case detailed:
		writeDetailedVersion(out)
	default:
		info := version.GetBuildInfo()
		fmt.Fprintf(out, "facet %s", info.Version)
		if len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
			fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
		}
		if version.IsDirty() {
			fmt.Fprint(out, " (dirty)")
		}
		fmt.Fprintf(out, "\nGo: %s\nPlatform: %s\n", info.GoVersion, info.Platform)
	}
	return nil
}

func writeDetailedVersion(out io.Writer) {
	fmt.Fprintln(out, version.GetDetailedVersion())
	if version.IsDirty() {
		fmt.Fprintln(out, "Working directory: dirty")
	}
	buildType := "development"
	if version.IsRelease() {
		buildType = "release"
	}
	fmt.Fprintf(out, "Build type: %s\n", buildType)
}
