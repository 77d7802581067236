package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/executor"
)

var (
	processInput    string
	processOutput   string
	processEdits    string
	processTargetKB int
	processTimeout  time.Duration
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the edit pipeline once on an image file",
	Long: `Reads an image, applies the edit descriptor (JSON file, or defaults
when omitted), and writes the encoded result.

The output format comes from the descriptor's exportFormat field;
"original" keeps the source's detected format.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processInput, "in", "i", "", "input image (required)")
	processCmd.Flags().StringVarP(&processOutput, "out", "o", "", "output file (required)")
	processCmd.Flags().StringVarP(&processEdits, "edits", "e", "", "edit descriptor JSON file")
	processCmd.Flags().IntVar(&processTargetKB, "target-kb", 0, "approximate output size in KB (lossy formats)")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 30*time.Second, "execution budget")
	processCmd.MarkFlagRequired("in")
	processCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(processInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	e := edits.Defaults()
	if processEdits != "" {
		data, err := os.ReadFile(processEdits)
		if err != nil {
			return fmt.Errorf("read edits: %w", err)
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("parse edits: %w", err)
		}
	}
	if processTargetKB > 0 {
		e.DownloadTargetKB = processTargetKB
	}

	logVerbose("input:  %s (%d bytes)", processInput, len(src))
	logVerbose("format: %s quality=%d", e.ExportFormat, e.Quality)

	ctx, cancel := context.WithTimeout(cmd.Context(), processTimeout)
	defer cancel()

	res, err := executor.New().Execute(ctx, src, e)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(os.Stderr, "[pixedit] warn: %s\n", warn)
	}

	if err := os.WriteFile(processOutput, res.Bytes, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logVerbose("output: %s %dx%d %s (%d bytes, q%d, %s)",
		processOutput, res.Width, res.Height, res.Format,
		res.SizeBytes, res.QualityUsed, res.ProcessingTime.Round(time.Millisecond))
	return nil
}
