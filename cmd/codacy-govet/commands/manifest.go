package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	govet "github.com/codacy/codacy-govet"
	"github.com/codacy/codacy-govet/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [path]",
	Short: "Write the cached rule manifest",
	Long: `Write every reportable rule with its parameter defaults to the cached rule
manifest. Runs without an explicit rule list in the configuration read it.
The default path is <src>/` + manifest.FileName + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVar(&flagCategory, "category", "", "Only include rules of this category")
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	path := manifest.Path(flagSourceRoot)
	if len(args) == 1 {
		path = args[0]
	}
	if err := govet.WriteManifest(path, govet.WithCategory(flagCategory)); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
