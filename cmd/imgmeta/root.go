package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonhull/imgmeta"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	verbose bool
	format  string
	legacy  bool
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	g := &globals{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "imgmeta",
		Short:         "Decode images without losing their metadata",
		Version:       imgmeta.GetVersionInfo().String(),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if !g.verbose {
				return nil
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
		},
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log decoder and save steps to stderr")
	cmd.PersistentFlags().StringVarP(&g.format, "format", "f", "", "Format tag of the source (default: guessed from the extension)")
	cmd.PersistentFlags().BoolVar(&g.legacy, "legacy-dispatch", false, "Only decode pixels of PNG and JPEG sources")

	cmd.AddCommand(
		newInfoCommand(g),
		newCopyMetadataCommand(g),
		newFramesCommand(g),
		newCropCommand(g),
	)
	return cmd
}

// open builds a decoder for path using the persistent flags.
func (g *globals) open(path string) (*imgmeta.DecoderWithMetadata, error) {
	format, err := g.formatFor(path)
	if err != nil {
		return nil, err
	}
	opts := []imgmeta.Option{imgmeta.WithLogger(g.logger)}
	if g.legacy {
		opts = append(opts, imgmeta.WithLegacyDispatch())
	}
	return imgmeta.Open(path, format, opts...)
}

// formatFor resolves --format, falling back to the file extension.
func (g *globals) formatFor(path string) (imgmeta.Format, error) {
	if g.format == "" {
		format := imgmeta.FormatFromExtension(path)
		if format == imgmeta.FormatUnknown {
			return format, fmt.Errorf("cannot guess the format of %s, pass --format", path)
		}
		return format, nil
	}
	return parseFormat(g.format)
}

// parseFormat maps a format name such as "png" or "TIFF" to its tag.
func parseFormat(name string) (imgmeta.Format, error) {
	for f := imgmeta.FormatPNG; f <= imgmeta.FormatHDR; f++ {
		if strings.EqualFold(f.String(), name) {
			return f, nil
		}
	}
	if f := imgmeta.FormatFromExtension("x." + strings.ToLower(name)); f != imgmeta.FormatUnknown {
		return f, nil
	}
	return imgmeta.FormatUnknown, fmt.Errorf("unknown format %q", name)
}
