package types

// HintStyle selects which system hint source a native link consults.
type HintStyle string

const (
	// HintsNone disables system hint sources
	HintsNone HintStyle = "none"
	// HintsLinux reads ld.so.conf
	HintsLinux HintStyle = "linux"
	// HintsFreeBSD reads the ld-elf.so.hints binary file
	HintsFreeBSD HintStyle = "freebsd"
)

// Values accepted by Config.UnresolvedSymbols.
const (
	UnresolvedReportAll           = "report-all"
	UnresolvedIgnoreAll           = "ignore-all"
	UnresolvedIgnoreInSharedLibs  = "ignore-in-shared-libs"
	UnresolvedIgnoreInObjectFiles = "ignore-in-object-files"
)

// Values accepted by Config.OrphanHandling.
const (
	OrphanPlace   = "place"
	OrphanDiscard = "discard"
	OrphanWarn    = "warn"
	OrphanError   = "error"
)

// Config for a link session
type Config struct {
	// Output is the path of the binary being produced. It stands in for the
	// owner of $ORIGIN when a needed entry has no requester.
	Output string `json:",omitempty"`

	// Sysroot is prepended to absolute search directories.
	Sysroot string `json:",omitempty"`

	// Rpath is the separator-joined -rpath list.
	Rpath string `json:",omitempty"`

	// RpathLink is the separator-joined -rpath-link list.
	RpathLink string `json:",omitempty"`

	// SearchDirs are the library search directories, in order.
	SearchDirs []SearchDir `json:",omitempty"`

	// Platform describes the host/target combination.
	Platform Platform `json:",omitempty"`

	// AddressWidth is 32 or 64 and drives $LIB expansion.
	AddressWidth int `json:",omitempty"`

	// OutputFormat is the format tag every dynamic dependency must match.
	// Empty means it is taken from the first dynamic input.
	OutputFormat string `json:",omitempty"`

	// OutputFlavor is the OS ABI flavor every dynamic dependency must match.
	OutputFlavor string `json:",omitempty"`

	// CopyDTNeededEntries keeps DT_NEEDED tags for libraries pulled in only
	// through other shared libraries.
	CopyDTNeededEntries bool `json:",omitempty"`

	// Rescan is set when the link is re-scanning its inputs.
	Rescan bool `json:",omitempty"`

	// UnresolvedSymbols policy, one of the Unresolved* values.
	UnresolvedSymbols string `json:",omitempty"`

	// CombReloc merges allocated relocation sections into one.
	CombReloc bool `json:",omitempty"`

	// Relocatable is set for partial (-r) links.
	Relocatable bool `json:",omitempty"`

	// Executable is set when the output is an executable.
	Executable bool `json:",omitempty"`

	// OrphanHandling, one of the Orphan* values.
	OrphanHandling string `json:",omitempty"`

	// UniqueOrphanSections keeps every orphan in its own output section name.
	UniqueOrphanSections bool `json:",omitempty"`

	// InstallPrefix is tried before the plain ld.so.conf location.
	InstallPrefix string `json:",omitempty"`

	// HintsByteOrder is "little" or "big".
	HintsByteOrder string `json:",omitempty"`

	// RunConfig
	RunConfig RunConfig `json:",omitempty"`
}

// SearchDir is a library search directory
type SearchDir struct {
	Path string `json:",omitempty"`

	// CmdLine marks directories given with -L; those are not used to
	// locate DT_NEEDED entries.
	CmdLine bool `json:",omitempty"`
}

// Platform holds the platform-conditional switches.
type Platform struct {
	// Native is set when host and target are the same system.
	Native bool `json:",omitempty"`

	HintStyle HintStyle `json:",omitempty"`

	PathSeparator string `json:",omitempty"`

	// HasDriveLetters enables C:-style path handling.
	HasDriveLetters bool `json:",omitempty"`
}

// LinuxLike reports whether the libc heuristic applies.
func (p Platform) LinuxLike() bool {
	return p.HintStyle == HintsLinux
}

// Separator returns the path list separator, defaulting to ':'.
func (p Platform) Separator() string {
	if p.PathSeparator == "" {
		return ":"
	}
	return p.PathSeparator
}

// RunConfig holds diagnostic settings
type RunConfig struct {
	// ShowWarnings
	ShowWarnings bool `json:",omitempty"`

	// ShowErrors
	ShowErrors bool `json:",omitempty"`

	// ShowDebug
	ShowDebug bool `json:",omitempty"`

	// Verbose traces every candidate the resolver looks at.
	Verbose bool `json:",omitempty"`

	// JSON prints results as json
	JSON bool `json:",omitempty"`
}

// IgnoreUnresolvedInSharedLibs reports whether unresolved symbols in shared
// libraries are ignored under the current policy.
func (c *Config) IgnoreUnresolvedInSharedLibs() bool {
	return c.UnresolvedSymbols == UnresolvedIgnoreAll ||
		c.UnresolvedSymbols == UnresolvedIgnoreInSharedLibs
}

// NewConfig returns a Config with the usual defaults of a native 64-bit link
func NewConfig() *Config {
	return &Config{
		Output: "a.out",
		SearchDirs: []SearchDir{
			{Path: "/lib64"},
			{Path: "/usr/lib64"},
			{Path: "/lib"},
			{Path: "/usr/lib"},
			{Path: "/usr/local/lib"},
		},
		Platform: Platform{
			Native:        true,
			HintStyle:     HintsLinux,
			PathSeparator: ":",
		},
		AddressWidth:      64,
		UnresolvedSymbols: UnresolvedReportAll,
		CombReloc:         true,
		Executable:        true,
		OrphanHandling:    OrphanPlace,
		HintsByteOrder:    "little",
		RunConfig: RunConfig{
			ShowWarnings: true,
			ShowErrors:   true,
		},
	}
}
