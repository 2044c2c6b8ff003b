package cmd

import (
	"io"
	"os"
	"strconv"

	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/objstore"
	"github.com/nanovms/ldemul/orphan"
	"github.com/nanovms/ldemul/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// OrphansCommand places the sections of the given objects that the layout has no rule for
func OrphansCommand() *cobra.Command {
	cmdOrphans := &cobra.Command{
		Use:   "orphans [flags] <object>...",
		Short: "show where orphan sections end up",
		Args:  cobra.MinimumNArgs(1),
		Run:   orphansCommandHandler,
	}

	persistentFlags := cmdOrphans.PersistentFlags()

	PersistConfigCommandFlags(persistentFlags)
	PersistOrphanCommandFlags(persistentFlags)

	return cmdOrphans
}

func orphansCommandHandler(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()

	c := types.NewConfig()
	orphanFlags := NewOrphanCommandFlags(flags)
	container := NewMergeConfigContainer(
		NewConfigCommandFlags(flags),
		orphanFlags,
		NewGlobalCommandFlags(flags),
	)
	if err := container.Merge(c); err != nil {
		exitWithError(err.Error())
	}

	logger := log.NewFromConfig(os.Stderr, c)

	res, err := PlaceOrphans(c, afero.NewOsFs(), orphanFlags.Layout, logger, args)
	if res == nil {
		exitWithErrorStack(c, err)
	}

	if c.RunConfig.JSON {
		printJSON(res)
	} else {
		PrintOrphans(os.Stdout, res)
	}

	if err != nil {
		os.Exit(1)
	}
}

// OrphanPlacement is the printable form of a placement decision
type OrphanPlacement struct {
	File    string `json:"file"`
	Section string `json:"section"`
	Flags   string `json:"flags"`
	Output  string `json:"output,omitempty"`
	Bucket  string `json:"bucket,omitempty"`
	After   string `json:"after,omitempty"`
	Action  string `json:"action"`
}

// OrphansResult is what the orphans command prints
type OrphansResult struct {
	Placements []OrphanPlacement `json:"placements"`
	Layout     []string          `json:"layout"`
}

// PlaceOrphans reads the sections of every object, assigns them by the
// rules of the layout file, or of the default layout when layoutFile is
// empty, and places the rest. With orphan handling "error" the result is
// returned along with orphan.ErrUnplaced.
func PlaceOrphans(c *types.Config, fs afero.Fs, layoutFile string, logger *log.Logger, paths []string) (*OrphansResult, error) {
	layout := orphan.DefaultLayout()
	if layoutFile != "" {
		var err error
		if layout, err = orphan.LoadLayout(fs, layoutFile); err != nil {
			return nil, err
		}
	}

	store := objstore.NewELFStore(fs)
	var inputs []*orphan.Input
	for _, p := range paths {
		table, err := store.Sections(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, orphan.InputsFromTable(table)...)
	}

	orphans := layout.AssignByRules(inputs)
	decisions, err := orphan.NewPlacer(layout, c, logger).PlaceAll(orphans)

	res := &OrphansResult{Placements: []OrphanPlacement{}, Layout: layout.Names()}
	for _, d := range decisions {
		p := OrphanPlacement{
			File:    d.Input.File,
			Section: d.Input.Name,
			Flags:   d.Input.Flags.String(),
			Bucket:  d.Bucket,
			After:   d.Anchor,
		}
		if d.Output != nil {
			p.Output = d.Output.Name
		}
		switch {
		case d.Discarded:
			p.Action = "discarded"
		case d.Merged:
			p.Action = "merged"
		default:
			p.Action = "created"
		}
		res.Placements = append(res.Placements, p)
	}

	return res, err
}

// PrintOrphans writes the placement decisions and the resulting section order
func PrintOrphans(w io.Writer, res *OrphansResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Section", "Output", "Action", "After", "Bucket"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor})
	table.SetRowLine(true)

	for _, p := range res.Placements {
		var row []string
		row = append(row, p.File)
		row = append(row, p.Section)
		row = append(row, p.Output)
		row = append(row, p.Action)
		row = append(row, p.After)
		row = append(row, p.Bucket)
		table.Append(row)
	}

	table.Render()

	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Output section"})
	for i, name := range res.Layout {
		table.Append([]string{strconv.Itoa(i), name})
	}
	table.Render()
}
