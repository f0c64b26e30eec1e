package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCropCommand(g *globals) *cobra.Command {
	var (
		output     string
		noMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "crop <image> <x> <y> <width> <height>",
		Short: "Cut a region out of an image into a PNG that keeps the tags",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rect [4]uint32
			for i, arg := range args[1:] {
				v, err := strconv.ParseUint(arg, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", arg, err)
				}
				rect[i] = uint32(v)
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			ct, err := d.ColorType()
			if err != nil {
				return err
			}
			pix, err := d.LoadRect(rect[0], rect[1], rect[2], rect[3])
			if err != nil {
				return err
			}
			img, err := toImage(pix, ct, int(rect[2]), int(rect[3]))
			if err != nil {
				return err
			}
			if err := writePNG(output, img); err != nil {
				return err
			}
			if !noMetadata {
				if err := d.SaveMetadata(output); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\n", output, rect[2], rect[3])
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the PNG to write")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "Do not copy the source's metadata")
	return cmd
}
