package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pixedit",
	Short: "Declarative image edit pipeline",
	Long: `pixedit — applies a declarative stack of edits (geometry, color,
filters, resize, export encoding) to an image, deterministically.

Runs as a one-shot CLI or as the HTTP service backing the browser editor,
with undo/redo sessions and target-file-size export.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pixedit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[pixedit] "+format+"\n", args...)
	}
}
