package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flashware/flashcheck/internal/archive"
	"github.com/flashware/flashcheck/internal/manifest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Parse and print a module manifest",
	Long: `Inspect parses a module manifest and prints the resulting record. The file
may be a raw property file or a flashable archive, in which case the embedded
` + archive.ModulePropPath + ` entry is parsed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m, err := loadManifest(args[0])
		if err != nil {
			var parseErr *manifest.ParseError
			if errors.As(err, &parseErr) {
				fmt.Fprintf(os.Stderr, "Malformed manifest: %v\n", parseErr)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		if m == nil {
			fmt.Fprintln(os.Stderr, "No complete module manifest found")
			os.Exit(1)
		}

		printManifest(m)
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)
}

// loadManifest reads a manifest from a raw prop file or from inside a
// flashable archive, deciding by file extension.
func loadManifest(path string) (*manifest.Manifest, error) {
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		result, err := archive.CheckFile(path)
		if err != nil {
			return nil, err
		}
		if err := result.ManifestErr(); err != nil {
			return nil, err
		}
		return result.Manifest(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer archive.CloseQuietly(f)

	return manifest.Parse(f)
}

func printManifest(m *manifest.Manifest) {
	requires := make([]string, 0, len(m.Requires))
	for name := range m.Requires {
		requires = append(requires, name)
	}
	sort.Strings(requires)

	record := map[string]any{
		"version":      m.Version,
		"version_code": m.VersionCode,
		"arch":         m.Arch,
		"min_sdk":      m.MinSDK,
		"max_sdk":      m.MaxSDK,
	}
	if len(requires) > 0 {
		record["requires"] = requires
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
