package constants

const (
	// WarningColor used in warning texts
	WarningColor = "\033[1;33m%s\033[0m"
	// ErrorColor used in error texts
	ErrorColor = "\033[1;31m%s\033[0m"
)

const (
	// ProgramName prefixes every diagnostic
	ProgramName = "ldemul"

	// Version of ldemul
	Version = "0.1.0"

	// LdSoConf is the Linux dynamic loader configuration file
	LdSoConf = "/etc/ld.so.conf"

	// ElfHints is the FreeBSD hints file written by ldconfig
	ElfHints = "/var/run/ld-elf.so.hints"

	// ElfHintsMagic is the magic number of ElfHints ("Ehnt")
	ElfHintsMagic = 0x746e6845

	// ElfHintsVersion is the only supported hints format version
	ElfHintsVersion = 1

	// DefaultConfigEnv names a json config file read when --config is absent
	DefaultConfigEnv = "LDEMUL_DEFAULT_CONFIG"

	// DiscardSection receives discarded orphans
	DiscardSection = "/DISCARD/"
)
