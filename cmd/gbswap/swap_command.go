package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gbswap/internal/fileutil"
	"gbswap/internal/logging"
	"gbswap/internal/session"
)

func newSwapCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "swap INPUT",
		Short: "Swap the green and blue channels of a local BMP file",
		Long: "Swap the green and blue channels of a local BMP file.\n\n" +
			"The result is written next to the input as gb_swapped_<name> unless\n" +
			"--output is given. Use --output - to write the bitmap to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwap(cmd, ctx, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file, or - for stdout")
	return cmd
}

func runSwap(cmd *cobra.Command, ctx *commandContext, input, output string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	output = strings.TrimSpace(output)
	toStdout := output == "-"
	if toStdout && isTerminal(cmd.OutOrStdout()) {
		return errors.New("refusing to write binary image data to a terminal; redirect stdout or pass --output FILE")
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	shell := session.NewShell(session.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes}, logger)
	res := shell.Process(cmd.Context(), session.Upload{FileName: filepath.Base(input), Data: data})
	if res.Download == nil {
		if res.Err == nil {
			return errors.New("no output produced")
		}
		return fmt.Errorf("%s: %w", res.Message, res.Err)
	}

	if toStdout {
		_, err := cmd.OutOrStdout().Write(res.Download.Data)
		return err
	}

	target := output
	if target == "" {
		target = filepath.Join(filepath.Dir(input), res.Download.Name)
	}
	if err := fileutil.WriteFileVerified(target, res.Download.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d × %d %s, %s)\n",
		target,
		res.Metadata.Width,
		res.Metadata.Height,
		res.Metadata.Mode,
		humanize.IBytes(uint64(len(res.Download.Data))),
	)
	return nil
}
