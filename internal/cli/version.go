package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// currentBuild fills in whatever ldflags left unset from the module's
// embedded build info.
func currentBuild(bi *debug.BuildInfo) buildInfo {
	info := buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func writeVersion(w io.Writer, info buildInfo, verbose bool) {
	suffix := ""
	if info.Modified {
		suffix = " (modified)"
	}
	fmt.Fprintf(w, "telepath %s%s\n", info.Version, suffix)
	if verbose {
		fmt.Fprintf(w, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(w, "  built:      %s\n", info.BuildDate)
		fmt.Fprintf(w, "  go version: %s\n", info.GoVersion)
		fmt.Fprintf(w, "  platform:   %s\n", info.Platform)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		bi, _ := debug.ReadBuildInfo()
		info := currentBuild(bi)
		if JSONOutput() {
			return printJSON(info)
		}
		writeVersion(os.Stdout, info, Verbose())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
