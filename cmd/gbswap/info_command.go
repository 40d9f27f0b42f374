package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gbswap/internal/bitmap"
	"gbswap/internal/pixels"
)

// infoReport is the --json form of `gbswap info`.
type infoReport struct {
	File      string          `json:"file"`
	Metadata  bitmap.Metadata `json:"metadata"`
	Swappable bool            `json:"swappable"`
}

func newInfoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "info INPUT",
		Short:       "Show BMP metadata and whether the channels can be swapped",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer file.Close()

			decoded, err := bitmap.Decode(file)
			if err != nil {
				return err
			}
			report := infoReport{
				File:      filepath.Base(args[0]),
				Metadata:  decoded.Metadata,
				Swappable: decoded.Buffer.Channels >= pixels.MinSwapChannels,
			}
			if asJSON {
				return writeJSON(cmd, report)
			}

			rows := append(decoded.Metadata.Summary(), [2]string{"Swappable", yesNo(report.Swappable)})
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(report.File, [2]string{"Property", "Value"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
