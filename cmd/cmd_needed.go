package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/objstore"
	"github.com/nanovms/ldemul/resolve"
	"github.com/nanovms/ldemul/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NeededCommand resolves the DT_NEEDED entries of the given inputs
func NeededCommand() *cobra.Command {
	cmdNeeded := &cobra.Command{
		Use:   "needed [flags] <input>...",
		Short: "find the shared libraries the inputs depend on",
		Args:  cobra.MinimumNArgs(1),
		Run:   neededCommandHandler,
	}

	persistentFlags := cmdNeeded.PersistentFlags()

	PersistConfigCommandFlags(persistentFlags)
	PersistLinkCommandFlags(persistentFlags)
	PersistInputCommandFlags(persistentFlags)

	return cmdNeeded
}

// InputCommandFlags tell how each input entered the link
type InputCommandFlags struct {
	AsNeeded    []string
	NoAddNeeded []string
	Referenced  []string
}

// Class returns the link class of the input at path and whether it is
// referenced by a regular object.
func (flags *InputCommandFlags) Class(path string) (resolve.LinkClass, bool) {
	var class resolve.LinkClass
	if contains(flags.AsNeeded, path) {
		class |= resolve.AsNeeded
	}
	if contains(flags.NoAddNeeded, path) {
		class |= resolve.NoAddNeeded
	}
	return class, contains(flags.Referenced, path)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NewInputCommandFlags returns an instance of InputCommandFlags
func NewInputCommandFlags(cmdFlags *pflag.FlagSet) (flags *InputCommandFlags) {
	flags = &InputCommandFlags{}

	flags.AsNeeded, _ = cmdFlags.GetStringArray("as-needed")
	flags.NoAddNeeded, _ = cmdFlags.GetStringArray("no-add-needed")
	flags.Referenced, _ = cmdFlags.GetStringArray("referenced")

	return
}

// PersistInputCommandFlags append a command the per input flags
func PersistInputCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.StringArray("as-needed", nil, "input linked with --as-needed")
	cmdFlags.StringArray("no-add-needed", nil, "input whose dependencies get no DT_NEEDED tag")
	cmdFlags.StringArray("referenced", nil, "as-needed input a regular object uses")
}

func neededCommandHandler(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()

	c := types.NewConfig()
	container := NewMergeConfigContainer(
		NewConfigCommandFlags(flags),
		NewLinkCommandFlags(flags),
		NewGlobalCommandFlags(flags),
	)
	if err := container.Merge(c); err != nil {
		exitWithError(err.Error())
	}

	logger := log.NewFromConfig(os.Stderr, c)
	fs := afero.NewOsFs()

	report, err := ResolveNeeded(c, objstore.NewELFStore(fs), resolve.DefaultEnv(fs, c, logger), logger, NewInputCommandFlags(flags), args)
	if err != nil {
		exitWithErrorStack(c, err)
	}

	if c.RunConfig.JSON {
		printJSON(NeededResultFromReport(report))
		return
	}
	PrintNeeded(os.Stdout, report)
}

// ResolveNeeded loads inputs and resolves their dependencies
func ResolveNeeded(c *types.Config, store objstore.Store, env resolve.Env, logger *log.Logger, inputs *InputCommandFlags, paths []string) (*resolve.Report, error) {
	engine := resolve.NewEngine(c, store, env, logger)

	for _, p := range paths {
		class, referenced := inputs.Class(p)
		if _, err := engine.AddInput(p, class, referenced); err != nil {
			return nil, err
		}
	}

	return engine.Resolve()
}

// NeededObject is the printable form of a loaded object
type NeededObject struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Class    string `json:"class"`
	Explicit bool   `json:"explicit"`
	Size     int64  `json:"size"`
	Tagged   bool   `json:"tagged"`
}

// NeededResolution is the printable form of a needed entry
type NeededResolution struct {
	Requester string `json:"requester"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Path      string `json:"path,omitempty"`
	Source    string `json:"source,omitempty"`
	Pass      string `json:"pass,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NeededResult is what the needed command prints
type NeededResult struct {
	Objects []NeededObject     `json:"objects"`
	Entries []NeededResolution `json:"entries"`
	Tags    []string           `json:"dt_needed"`
}

// NeededResultFromReport flattens report for printing
func NeededResultFromReport(report *resolve.Report) *NeededResult {
	res := &NeededResult{
		Objects: []NeededObject{},
		Entries: []NeededResolution{},
		Tags:    []string{},
	}

	tagged := map[*resolve.LoadedObject]bool{}
	for _, obj := range report.Tags {
		tagged[obj] = true
		res.Tags = append(res.Tags, obj.Name)
	}

	for _, obj := range report.Objects {
		res.Objects = append(res.Objects, NeededObject{
			Name:     obj.Name,
			Path:     obj.Path,
			Class:    obj.Class.String(),
			Explicit: obj.Explicit,
			Size:     obj.Size,
			Tagged:   tagged[obj],
		})
	}

	for _, n := range report.Entries {
		r := NeededResolution{
			Requester: n.Requester.Name,
			Name:      n.Name,
			State:     n.State.String(),
			Source:    n.Source,
			Pass:      n.Pass(),
			Reason:    n.Reason,
		}
		if n.Object != nil {
			r.Path = n.Object.Path
		}
		res.Entries = append(res.Entries, r)
	}

	return res
}

// PrintNeeded writes the loaded objects and the resolution of every
// needed entry as tables
func PrintNeeded(w io.Writer, report *resolve.Report) {
	res := NeededResultFromReport(report)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Path", "Class", "Size", "DT_NEEDED"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor})
	table.SetRowLine(true)

	for _, obj := range res.Objects {
		var row []string
		row = append(row, obj.Name)
		row = append(row, obj.Path)
		row = append(row, obj.Class)
		row = append(row, humanize.Bytes(uint64(obj.Size)))
		if obj.Tagged {
			row = append(row, "yes")
		} else {
			row = append(row, "")
		}
		table.Append(row)
	}

	table.Render()

	if len(res.Entries) == 0 {
		return
	}

	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Requester", "Needed", "State", "Found", "Source", "Pass"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor})
	table.SetRowLine(true)

	for _, e := range res.Entries {
		var row []string
		row = append(row, e.Requester)
		row = append(row, e.Name)
		if e.Reason != "" {
			row = append(row, e.State+" ("+e.Reason+")")
		} else {
			row = append(row, e.State)
		}
		row = append(row, e.Path)
		row = append(row, e.Source)
		row = append(row, e.Pass)
		table.Append(row)
	}

	table.Render()

	io.WriteString(w, "DT_NEEDED: "+strings.Join(res.Tags, " ")+"\n")
}
