package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simonhull/imgmeta"
)

func newInfoCommand(g *globals) *cobra.Command {
	var tagsOnly bool

	cmd := &cobra.Command{
		Use:   "info <image>...",
		Short: "Print dimensions, color type and tags of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := printInfo(out, g, path, tagsOnly); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tagsOnly, "tags", false, "Print only the tags")
	return cmd
}

func printInfo(out io.Writer, g *globals, path string, tagsOnly bool) error {
	d, err := g.open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	md := d.Metadata()

	if !tagsOnly {
		fmt.Fprintf(tw, "File:\t%s\n", path)
		fmt.Fprintf(tw, "Format:\t%s\n", d.Format())
		if err := printPixels(tw, d); err != nil {
			fmt.Fprintf(tw, "Pixels:\t%v\n", err)
		}
		fmt.Fprintf(tw, "Metadata container:\t%s\n", md.Format())
		fmt.Fprintf(tw, "ICC profile:\t%d bytes\n", len(md.ICCProfile()))
		for _, w := range md.Warnings {
			fmt.Fprintf(tw, "Warning:\t%s\n", w)
		}
	}
	for _, key := range md.Keys() {
		value, _ := md.Get(key)
		fmt.Fprintf(tw, "%s\t%s\n", key, value)
	}
	return tw.Flush()
}

func printPixels(w io.Writer, d *imgmeta.DecoderWithMetadata) error {
	width, height, err := d.Dimensions()
	if err != nil {
		return err
	}
	ct, err := d.ColorType()
	if err != nil {
		return err
	}
	animated, err := d.IsAnimated()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Dimensions:\t%dx%d\n", width, height)
	fmt.Fprintf(w, "Color type:\t%s\n", ct)
	fmt.Fprintf(w, "Animated:\t%t\n", animated)
	return nil
}
