package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/imgmeta"
)

func newFramesCommand(g *globals) *cobra.Command {
	var (
		outDir       string
		withMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "frames <image>",
		Short: "Write every frame of an image as a PNG",
		Long: `Decode every frame of the image, composed onto its canvas, and write
frame-000.png, frame-001.png and so on into the output directory. Still
images yield a single frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			frames, err := d.IntoFrames()
			if err != nil {
				return err
			}
			defer frames.Close()

			n := 0
			for frame, err := range frames.All() {
				if err != nil {
					return fmt.Errorf("frame %d: %w", n, err)
				}
				path := filepath.Join(outDir, fmt.Sprintf("frame-%03d.png", n))
				if err := writeFrame(d, path, frame, withMetadata); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s\n", path, frame.Width, frame.Height, frame.Delay)
				n++
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory for the frame files")
	cmd.Flags().BoolVar(&withMetadata, "metadata", false, "Copy the source's metadata into each frame")
	return cmd
}

func writeFrame(d *imgmeta.DecoderWithMetadata, path string, frame *imgmeta.Frame, withMetadata bool) error {
	img, err := toImage(frame.Pix, imgmeta.ColorRGBA8, int(frame.Width), int(frame.Height))
	if err != nil {
		return err
	}
	if err := writePNG(path, img); err != nil {
		return err
	}
	if withMetadata {
		return d.SaveMetadata(path)
	}
	return nil
}
