package cmd

import (
	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/pflag"
)

// OrphanCommandFlags consolidates the flags used to place orphan sections
type OrphanCommandFlags struct {
	Layout         string
	OrphanHandling string
	Relocatable    bool
	Shared         bool
	Unique         bool
	NoCombReloc    bool
}

// MergeToConfig overrides configuration passed by argument with orphan flags values
func (flags *OrphanCommandFlags) MergeToConfig(c *types.Config) error {
	if flags.OrphanHandling != "" {
		switch flags.OrphanHandling {
		case types.OrphanPlace, types.OrphanDiscard, types.OrphanWarn, types.OrphanError:
			c.OrphanHandling = flags.OrphanHandling
		default:
			return errors.Errorf("invalid argument to option \"--orphan-handling\": %s", flags.OrphanHandling)
		}
	}

	if flags.Relocatable {
		c.Relocatable = true
		c.Executable = false
	}

	if flags.Shared {
		c.Executable = false
	}

	if flags.Unique {
		c.UniqueOrphanSections = true
	}

	if flags.NoCombReloc {
		c.CombReloc = false
	}

	return nil
}

// NewOrphanCommandFlags returns an instance of OrphanCommandFlags
func NewOrphanCommandFlags(cmdFlags *pflag.FlagSet) (flags *OrphanCommandFlags) {
	flags = &OrphanCommandFlags{}

	flags.Layout, _ = cmdFlags.GetString("layout")
	flags.OrphanHandling, _ = cmdFlags.GetString("orphan-handling")
	flags.Relocatable, _ = cmdFlags.GetBool("relocatable")
	flags.Shared, _ = cmdFlags.GetBool("shared")
	flags.Unique, _ = cmdFlags.GetBool("unique-orphan-sections")
	flags.NoCombReloc, _ = cmdFlags.GetBool("no-combreloc")

	return
}

// PersistOrphanCommandFlags append a command the flags used to place orphan sections
func PersistOrphanCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.StringP("layout", "T", "", "yaml layout of the output sections, a default executable layout is used otherwise")
	cmdFlags.String("orphan-handling", "", "place, discard, warn or error")
	cmdFlags.BoolP("relocatable", "r", false, "partial link")
	cmdFlags.Bool("shared", false, "the output is a shared library")
	cmdFlags.Bool("unique-orphan-sections", false, "give every orphan its own output section")
	cmdFlags.Bool("no-combreloc", false, "do not combine dynamic relocation sections")
}
