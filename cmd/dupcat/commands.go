package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/n2code/dupcat/cmd/dupcat/flags"
	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/dedup"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/locations"
	"github.com/n2code/dupcat/internal/output"
	"github.com/n2code/dupcat/internal/persistency"
	"github.com/n2code/dupcat/internal/scan"
)

func directoryArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// isCatalogFile tells catalog files apart from directories by their extension.
func isCatalogFile(path string) bool {
	encoding, _, err := persistency.EncodingOf(path)
	return err == nil && encoding != persistency.Binary
}

// openCatalog accepts a catalog file or a cataloged directory.
func (c *cli) openCatalog(arg string) (*catalog.Catalog, error) {
	if isCatalogFile(arg) {
		return c.engine.ReadCatalog(arg)
	}
	return c.engine.LoadCatalogOf(arg)
}

func (c *cli) reportFailures(failures []scan.Failure) {
	for _, f := range failures {
		c.print.Out(output.Error, "skipped %s: %s\n", f.Path, f.Message())
	}
}

// unreadable fails the command if any file had to be left out.
func unreadable(failures []scan.Failure) error {
	if len(failures) > 0 {
		return fmt.Errorf("%s could not be read", output.Count(len(failures), "file", "files"))
	}
	return nil
}

func (c *cli) printSummary(cat *catalog.Catalog) {
	s := cat.Summarize()
	c.print.Out(output.Normal, "%s with %s, %s in total\n",
		output.Count(s.Files, "file", "files"),
		output.Count(s.DistinctContents, "distinct content", "distinct contents"),
		output.Filesize(s.TotalBytes))
	if s.WastedBytes > 0 {
		c.print.Out(output.Normal, "%s occupied by duplicates\n", output.Filesize(s.WastedBytes))
	}
}

func (c *cli) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [DIRECTORY]",
		Short: "Catalog all files of a directory",
		Long: `Hash every file below DIRECTORY (default: working directory) and store the
catalog in it. Unreadable files are reported and left out.`,
		Args: cobra.MaximumNArgs(1),
	}
	destination := cmd.Flags().String(flags.Output, "", "store the catalog at this path instead (extension selects the format)")
	force := cmd.Flags().Bool(flags.Force, false, "replace an existing catalog")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		directory := directoryArg(args)
		target := *destination
		if target == "" {
			target = c.engine.CatalogPath(directory)
		}
		cat, failures, err := c.engine.BuildCatalog(cmd.Context(), directory, target)
		if err != nil {
			return err
		}
		c.reportFailures(failures)
		if err := c.engine.WriteCatalog(cat, target, *force); err != nil {
			return err
		}
		c.print.Out(output.Normal, "Catalog written to %s\n", c.display(target))
		c.printSummary(cat)
		return unreadable(failures)
	}
	return cmd
}

func (c *cli) updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [DIRECTORY]",
		Short: "Bring the catalog of a directory up to date",
		Long: `Compare DIRECTORY to its catalog. Only files unknown to the catalog are read,
files at known paths are assumed unchanged. Removed files are dropped.`,
		Args: cobra.MaximumNArgs(1),
	}
	dryRun := cmd.Flags().Bool(flags.DryRun, false, "only list what would change")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		directory := directoryArg(args)
		prior, err := c.engine.LoadCatalogOf(directory)
		if err != nil {
			return err
		}
		update, err := c.engine.UpdateCatalog(cmd.Context(), prior, directory, *dryRun)
		if err != nil {
			return err
		}
		for _, change := range update.Changes {
			c.print.Out(output.Required, "%c %s\n", rune(change.Kind), change.Path)
		}
		c.reportFailures(update.Failures)
		switch {
		case !update.HasChanges && len(update.Failures) == 0:
			c.print.Out(output.Normal, "Catalog is up to date\n")
		case !update.HasChanges:
			c.print.Out(output.Normal, "Catalog not modified\n")
		case *dryRun:
			c.print.Out(output.Normal, "%s (dry run, catalog not modified)\n", output.Count(len(update.Changes), "change", "changes"))
		default:
			if err := c.engine.WriteCatalog(update.Catalog, c.engine.CatalogPath(directory), true); err != nil {
				return err
			}
			c.print.Out(output.Normal, "%s recorded\n", output.Count(len(update.Changes), "change", "changes"))
		}
		return unreadable(update.Failures)
	}
	return cmd
}

func (c *cli) showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [CATALOG|DIRECTORY]",
		Short: "Display a catalog",
		Args:  cobra.MaximumNArgs(1),
	}
	asTree := cmd.Flags().Bool(flags.Tree, false, "render as directory tree, duplicates marked with *")
	onlyDuplicates := cmd.Flags().Bool(flags.Duplicates, false, "list only contents stored more than once")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cat, err := c.openCatalog(directoryArg(args))
		if err != nil {
			return err
		}
		c.print.Out(output.Normal, "%s\n", c.print.Dim(fmt.Sprintf("cataloged %s, updated %s",
			cat.CatalogedOn().Format("2006-01-02 15:04:05"), cat.UpdatedOn().Format("2006-01-02 15:04:05"))))
		switch {
		case *onlyDuplicates:
			for _, bucket := range cat.Duplicates() {
				c.print.Out(output.Required, "%s  %s\n", bucket[0].Hash(), output.Filesize(bucket[0].Size()))
				for _, r := range bucket {
					c.print.Out(output.Required, "  %s\n", r.Path())
				}
			}
		case *asTree:
			tree := output.NewVisualFileTree(cat.BaseDirectory())
			for _, r := range cat.Records() {
				marker := ""
				if len(cat.Find(r.Hash())) > 1 {
					marker = "* "
				}
				tree.InsertPath(string(r.Path()), marker)
			}
			c.print.Out(output.Required, "%s", tree.Render())
		default:
			for _, r := range cat.Records() {
				c.print.Out(output.Required, "%s\n", r)
			}
		}
		c.printSummary(cat)
		return nil
	}
	return cmd
}

func (c *cli) lookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup CATALOG|DIRECTORY PATH",
		Short: "Show the record of one cataloged path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(args[0])
			if err != nil {
				return err
			}
			r, err := cat.Get(args[1])
			if err != nil {
				return err
			}
			c.print.Out(output.Required, "%s\n", r)
			for _, same := range cat.Find(r.Hash()) {
				if same.Key() != r.Key() {
					c.print.Out(output.Normal, "%s\n", output.Indent(2, "same content: "+string(same.Path())))
				}
			}
			return nil
		},
	}
}

func (c *cli) dupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dups BASE OTHER",
		Short: "Find files in OTHER whose content exists in BASE",
		Long: `List every file of OTHER whose content is already present in BASE. BASE is a
catalog file or a cataloged directory. OTHER is a catalog file or any directory,
which is then read on the fly. With --delete the duplicates in OTHER are removed
after typed confirmation. Files in BASE are never touched.`,
		Args: cobra.ExactArgs(2),
	}
	remove := cmd.Flags().Bool(flags.Delete, false, "delete the duplicates found in OTHER")
	assumeYes := cmd.Flags().Bool(flags.Yes, false, "do not ask before deleting")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		base, err := c.openCatalog(args[0])
		if err != nil {
			return err
		}
		var candidates []dedup.Candidate
		if isCatalogFile(args[1]) {
			other, err := c.engine.ReadCatalog(args[1])
			if err != nil {
				return err
			}
			if err := distinctTrees(base.BaseDirectory(), other.BaseDirectory()); err != nil {
				return err
			}
			candidates = c.engine.FindDuplicates(base, other)
		} else {
			if err := distinctTrees(base.BaseDirectory(), args[1]); err != nil {
				return err
			}
			var failures []scan.Failure
			candidates, failures, err = c.engine.FindDuplicatesInDirectory(cmd.Context(), base, args[1])
			if err != nil {
				return err
			}
			c.reportFailures(failures)
		}

		for _, cand := range candidates {
			c.print.Out(output.Required, "%s\n", c.display(cand.FullPath))
			c.print.Out(output.Verbose, "  %s\n", c.print.Dim("same as "+string(cand.Match.Path())))
		}
		c.print.Out(output.Normal, "%s found, %s\n",
			output.Count(len(candidates), "duplicate", "duplicates"),
			output.Filesize(dedup.WastedBytes(candidates)))
		if !*remove || len(candidates) == 0 {
			return nil
		}

		confirm := TypedConfirmation(c.in, c.out)
		if *assumeYes {
			confirm = PreConfirmed(c.out)
		}
		deleted, skipped, err := c.engine.DeleteDuplicates(cmd.Context(), candidates, confirm)
		for _, s := range skipped {
			c.print.Out(output.Error, "kept %s: %s\n", c.display(s), c.print.Alert("content changed since cataloging"))
		}
		c.print.Out(output.Normal, "%s deleted\n", output.Count(deleted, "file", "files"))
		return err
	}
	return cmd
}

// distinctTrees refuses trees that overlap, where files of the shared part would be their own duplicates.
func distinctTrees(base string, other string) error {
	a, errA := filepath.Abs(base)
	b, errB := filepath.Abs(other)
	if errA != nil || errB != nil {
		return nil
	}
	if contains(a, b) || contains(b, a) {
		return errors.NewConfigurationError("BASE and OTHER must not contain one another", a, b)
	}
	return nil
}

func contains(parent string, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *cli) volumeCommand() *cobra.Command {
	volume := &cobra.Command{
		Use:   "volume",
		Short: "Track content across backup volumes in a multi-location index",
	}

	scanCmd := &cobra.Command{
		Use:   "scan INDEX DIRECTORY|CATALOG",
		Short: "Add all files of a volume or catalog to the index (created if missing)",
		Args:  cobra.ExactArgs(2),
	}
	name := scanCmd.Flags().String(flags.Name, "", "volume name (default: directory name)")
	readOnly := scanCmd.Flags().Bool(flags.ReadOnly, false, "volume is read-only media")
	scanCmd.RunE = func(cmd *cobra.Command, args []string) error {
		index, err := c.openIndex(args[0])
		if err != nil {
			return err
		}
		volumeName := volumeNameOr(*name, args[1])
		var report scan.VolumeReport
		if isCatalogFile(args[1]) {
			cat, err := c.engine.ReadCatalog(args[1])
			if err != nil {
				return err
			}
			report = c.engine.MergeCatalog(index, cat, volumeName, *readOnly)
		} else if report, err = c.engine.ScanVolume(cmd.Context(), index, args[1], volumeName, *readOnly); err != nil {
			return err
		}
		c.reportFailures(report.Failures)
		if err := c.engine.WriteIndex(index, args[0], true); err != nil {
			return err
		}
		c.print.Out(output.Normal, "%s: %d added, %d merged, %d unchanged, %d skipped\n", report.Volume,
			report.Count(locations.Added), report.Count(locations.Merged),
			report.Count(locations.Same), report.Count(locations.Skipped))
		return nil
	}

	listCmd := &cobra.Command{
		Use:   "list INDEX",
		Short: "List indexed contents with all their locations",
		Args:  cobra.ExactArgs(1),
	}
	onlyDuplicates := listCmd.Flags().Bool(flags.Duplicates, false, "list only contents with more than one location")
	listCmd.RunE = func(cmd *cobra.Command, args []string) error {
		index, err := c.engine.ReadIndex(args[0])
		if err != nil {
			return err
		}
		items := index.Items()
		if *onlyDuplicates {
			items = index.Duplicates()
		}
		for _, it := range items {
			size := "size unknown"
			if it.SizeKnown {
				size = output.Filesize(it.Size)
			}
			c.print.Out(output.Required, "%s  %s  [%s]\n", it.Hash, size, strings.Join(it.Locations.Volumes(), ", "))
			for _, l := range it.Locations {
				c.print.Out(output.Required, "  %s\n", l)
			}
		}
		c.print.Out(output.Normal, "%s in %s\n",
			output.Count(index.Len(), "content", "contents"),
			output.Count(index.LocationCount(), "location", "locations"))
		return nil
	}

	volume.AddCommand(scanCmd, listCmd)
	return volume
}

// openIndex loads an existing index or starts an empty one.
func (c *cli) openIndex(path string) (*locations.Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return locations.NewIndex(), nil
	}
	return c.engine.ReadIndex(path)
}

func volumeNameOr(name string, directory string) string {
	if name != "" {
		return name
	}
	abs, err := filepath.Abs(directory)
	if err != nil {
		return directory
	}
	return filepath.Base(abs)
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			c.print.Out(output.Required, "dupcat version %s\n", version)
			c.print.Out(output.Normal, "go version: %s\n", runtime.Version())
			c.print.Out(output.Normal, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
