package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/imgmeta"
)

func newCopyMetadataCommand(g *globals) *cobra.Command {
	var (
		backup          string
		validate        bool
		preserveModTime bool
		comment         string
		stripExif       bool
	)

	cmd := &cobra.Command{
		Use:   "copy-metadata <source> <target>...",
		Short: "Write the source's metadata into existing JPEG or PNG files",
		Long: `Copy EXIF, XMP, ICC profile, IPTC and comment from the source into each
target, replacing what the target carried. Targets keep their pixels.

Examples:
  # Restore tags lost by an editor that re-encoded the photo
  imgmeta copy-metadata original.jpg edited.jpg

  # Copy into a PNG, keeping a backup and checking the result
  imgmeta copy-metadata --backup .bak --validate scan.tiff scan.png`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			md := d.Metadata()
			if cmd.Flags().Changed("comment") {
				md.SetComment(comment)
			}
			if stripExif {
				md.ClearExif()
			}

			var opts []imgmeta.SaveOption
			if backup != "" {
				opts = append(opts, imgmeta.WithBackup(backup))
			}
			if validate {
				opts = append(opts, imgmeta.WithValidation())
			}
			if preserveModTime {
				opts = append(opts, imgmeta.WithPreserveModTime())
			}

			for _, target := range args[1:] {
				if err := d.SaveMetadata(target, opts...); err != nil {
					return fmt.Errorf("%s: %w", target, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tags written\n", target, len(md.Keys()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backup, "backup", "", "Keep each target's previous contents with this suffix")
	cmd.Flags().BoolVar(&validate, "validate", false, "Re-read each target and compare tags")
	cmd.Flags().BoolVar(&preserveModTime, "preserve-mtime", false, "Keep each target's modification time")
	cmd.Flags().StringVar(&comment, "comment", "", "Replace the comment before writing")
	cmd.Flags().BoolVar(&stripExif, "strip-exif", false, "Drop EXIF before writing")
	return cmd
}
