package cli

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"diskwarden/internal/models"
	"diskwarden/internal/services"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type dfOptions struct {
	binary    bool
	bits      bool
	imprecise bool
	minSize   string
}

func newDFCmd(load loader) *cobra.Command {
	var opts dfOptions

	c := &cobra.Command{
		Use:   "df",
		Short: "Show device-backed filesystems and their usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var minBytes int64
			if opts.minSize != "" {
				var err error
				if minBytes, err = units.FromHumanSize(opts.minSize); err != nil {
					return fmt.Errorf("invalid --min-size: %w", err)
				}
			}

			cfg, _, err := load()
			if err != nil {
				return err
			}
			discoverer, err := services.NewFilesystemDiscoverer(nil, cfg.DiscoveryCommand, cfg.DiscoveryTimeout)
			if err != nil {
				return err
			}

			filesystems, err := discoverer.Discover(cmd.Context())
			if err != nil {
				return err
			}
			filesystems = filterMinSize(filesystems, uint64(minBytes))

			fmt.Fprint(cmd.OutOrStdout(), filesystemTable(filesystems, opts))
			return nil
		},
	}

	c.Flags().BoolVar(&opts.binary, "binary", false, "use base-1024 units (KiB, MiB, ...)")
	c.Flags().BoolVar(&opts.bits, "bits", false, "show sizes in bits instead of bytes")
	c.Flags().BoolVar(&opts.imprecise, "imprecise", false, "drop the decimal below ten of a unit")
	c.Flags().StringVar(&opts.minSize, "min-size", "", "hide filesystems smaller than this (e.g. 1GB)")
	return c
}

func filterMinSize(filesystems []models.Filesystem, minBytes uint64) []models.Filesystem {
	if minBytes == 0 {
		return filesystems
	}
	kept := make([]models.Filesystem, 0, len(filesystems))
	for _, fs := range filesystems {
		if fs.CapacityBytes >= minBytes {
			kept = append(kept, fs)
		}
	}
	return kept
}

func filesystemTable(filesystems []models.Filesystem, opts dfOptions) string {
	format := services.FormatDecimal
	if opts.binary {
		format = services.FormatBinary
	}
	unit := services.Bytes
	if opts.bits {
		unit = services.Bits
	}
	size := func(n uint64) string { return format(float64(n), unit, opts.imprecise) }

	sorted := make([]models.Filesystem, len(filesystems))
	copy(sorted, filesystems)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MountPath < sorted[j].MountPath
	})

	var buf bytes.Buffer
	writeTable(&buf, sorted, size)
	return buf.String()
}

func writeTable(w io.Writer, filesystems []models.Filesystem, size func(uint64) string) {
	table := tablewriter.NewWriter(w)

	table.SetHeader([]string{"FILESYSTEM", "SIZE", "USED", "FREE", "USE%", "MOUNTED ON"})

	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.SetAutoWrapText(false)

	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,  // FILESYSTEM
		tablewriter.ALIGN_RIGHT, // SIZE
		tablewriter.ALIGN_RIGHT, // USED
		tablewriter.ALIGN_RIGHT, // FREE
		tablewriter.ALIGN_RIGHT, // USE%
		tablewriter.ALIGN_LEFT,  // MOUNTED ON
	})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, fs := range filesystems {
		usage := "-"
		if percent, ok := fs.UsagePercent(); ok {
			usage = strconv.Itoa(percent) + "%"
		}
		table.Append([]string{
			fs.Device,
			size(fs.CapacityBytes),
			size(fs.UsedBytes),
			size(fs.FreeBytes()),
			usage,
			fs.MountPath,
		})
	}

	table.Render()
}
