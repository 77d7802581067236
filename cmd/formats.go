package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixedit/internal/encoder"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List available export formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := encoder.NewRegistry()
		fmt.Println(reg.String())
		for _, f := range reg.Available() {
			enc := reg.Get(f)
			sizeTarget := ""
			if encoder.CanTargetSize(f) {
				sizeTarget = "  (target-size capable)"
			}
			fmt.Printf("  %-5s .%s  %s%s\n", f, enc.Extension(), enc.MIME(), sizeTarget)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
