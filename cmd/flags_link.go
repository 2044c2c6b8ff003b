package cmd

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/pflag"
)

// LinkCommandFlags consolidates the flags describing how dependencies are searched
type LinkCommandFlags struct {
	Output       string
	Sysroot      string
	Rpath        []string
	RpathLink    []string
	LibraryPaths []string
	SearchDirs   []string
	Width        int
	HintStyle    string
	Cross        bool
	Format       string
	Flavor       string
	CopyDTNeeded bool
	Rescan       bool
	Unresolved   string
	Prefix       string
	BigEndian    bool
}

// MergeToConfig overrides configuration passed by argument with link flags values
func (flags *LinkCommandFlags) MergeToConfig(c *types.Config) error {
	if flags.Output != "" {
		c.Output = flags.Output
	}

	if flags.Sysroot != "" {
		c.Sysroot = flags.Sysroot
	}

	sep := c.Platform.Separator()
	if len(flags.Rpath) > 0 {
		c.Rpath = joinList(c.Rpath, flags.Rpath, sep)
	}

	if len(flags.RpathLink) > 0 {
		c.RpathLink = joinList(c.RpathLink, flags.RpathLink, sep)
	}

	if len(flags.LibraryPaths) > 0 || len(flags.SearchDirs) > 0 {
		var dirs []types.SearchDir
		for _, d := range flags.LibraryPaths {
			dirs = append(dirs, types.SearchDir{Path: d, CmdLine: true})
		}
		for _, d := range flags.SearchDirs {
			dirs = append(dirs, types.SearchDir{Path: d})
		}
		c.SearchDirs = append(dirs, c.SearchDirs...)
	}

	if flags.Width != 0 {
		if flags.Width != 32 && flags.Width != 64 {
			return errors.Errorf("invalid address width %d, expected 32 or 64", flags.Width)
		}
		c.AddressWidth = flags.Width
	}

	if flags.HintStyle != "" {
		switch style := types.HintStyle(flags.HintStyle); style {
		case types.HintsNone, types.HintsLinux, types.HintsFreeBSD:
			c.Platform.HintStyle = style
		default:
			return errors.Errorf("unknown hint style %q", flags.HintStyle)
		}
	}

	if flags.Cross {
		c.Platform.Native = false
	}

	if flags.Format != "" {
		c.OutputFormat = flags.Format
	}

	if flags.Flavor != "" {
		c.OutputFlavor = flags.Flavor
	}

	if flags.CopyDTNeeded {
		c.CopyDTNeededEntries = true
	}

	if flags.Rescan {
		c.Rescan = true
	}

	if flags.Unresolved != "" {
		switch flags.Unresolved {
		case types.UnresolvedReportAll, types.UnresolvedIgnoreAll,
			types.UnresolvedIgnoreInSharedLibs, types.UnresolvedIgnoreInObjectFiles:
			c.UnresolvedSymbols = flags.Unresolved
		default:
			return errors.Errorf("bad --unresolved-symbols option: %s", flags.Unresolved)
		}
	}

	if flags.Prefix != "" {
		c.InstallPrefix = flags.Prefix
	}

	if flags.BigEndian {
		c.HintsByteOrder = "big"
	}

	return nil
}

func joinList(current string, add []string, sep string) string {
	if current != "" {
		add = append([]string{current}, add...)
	}
	return strings.Join(add, sep)
}

// NewLinkCommandFlags returns an instance of LinkCommandFlags
func NewLinkCommandFlags(cmdFlags *pflag.FlagSet) (flags *LinkCommandFlags) {
	flags = &LinkCommandFlags{}

	flags.Output, _ = cmdFlags.GetString("output")
	flags.Sysroot, _ = cmdFlags.GetString("sysroot")
	flags.Rpath, _ = cmdFlags.GetStringArray("rpath")
	flags.RpathLink, _ = cmdFlags.GetStringArray("rpath-link")
	flags.LibraryPaths, _ = cmdFlags.GetStringArray("library-path")
	flags.SearchDirs, _ = cmdFlags.GetStringArray("search-dir")
	flags.Width, _ = cmdFlags.GetInt("width")
	flags.HintStyle, _ = cmdFlags.GetString("hint-style")
	flags.Cross, _ = cmdFlags.GetBool("cross")
	flags.Format, _ = cmdFlags.GetString("format")
	flags.Flavor, _ = cmdFlags.GetString("flavor")
	flags.CopyDTNeeded, _ = cmdFlags.GetBool("copy-dt-needed-entries")
	flags.Rescan, _ = cmdFlags.GetBool("rescan")
	flags.Unresolved, _ = cmdFlags.GetString("unresolved-symbols")
	flags.Prefix, _ = cmdFlags.GetString("install-prefix")
	flags.BigEndian, _ = cmdFlags.GetBool("hints-big-endian")

	return
}

// PersistLinkCommandFlags append a command the flags describing the link
func PersistLinkCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.StringP("output", "o", "", "path of the binary being linked, owner of $ORIGIN for top level entries")
	cmdFlags.String("sysroot", "", "prefix applied to absolute search directories")
	cmdFlags.StringArray("rpath", nil, "add a directory to the runtime library search path")
	cmdFlags.StringArray("rpath-link", nil, "add a directory searched for dependencies of shared libraries")
	cmdFlags.StringArrayP("library-path", "L", nil, "add a command line library directory")
	cmdFlags.StringArray("search-dir", nil, "add a script library directory, used for dependencies too")
	cmdFlags.IntP("width", "m", 0, "target address width, 32 or 64")
	cmdFlags.String("hint-style", "", "system hint file to consult: none, linux or freebsd")
	cmdFlags.Bool("cross", false, "host and target differ, environment and hint files are ignored")
	cmdFlags.String("format", "", "output format dependencies must match, e.g. elf64-little-x86_64")
	cmdFlags.String("flavor", "", "OS ABI dependencies must match")
	cmdFlags.Bool("copy-dt-needed-entries", false, "keep DT_NEEDED tags for libraries found through other libraries")
	cmdFlags.Bool("rescan", false, "the link is re-scanning its inputs")
	cmdFlags.String("unresolved-symbols", "", "report-all, ignore-all, ignore-in-shared-libs or ignore-in-object-files")
	cmdFlags.String("install-prefix", "", "prefix tried before the plain ld.so.conf location")
	cmdFlags.Bool("hints-big-endian", false, "read ld-elf.so.hints as big endian")
}
