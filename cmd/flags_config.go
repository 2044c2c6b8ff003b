package cmd

import (
	"encoding/json"
	"strings"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/constants"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/xyproto/env/v2"
)

// ConfigCommandFlags handles config file path flag and build configuration from the file
type ConfigCommandFlags struct {
	Config string

	// Fs is where the config file is read from.
	Fs afero.Fs
}

// MergeToConfig reads a json configuration file. Without --config the
// file named by LDEMUL_DEFAULT_CONFIG is read, if any.
func (flags *ConfigCommandFlags) MergeToConfig(c *types.Config) (err error) {
	file := flags.Config
	if file == "" {
		file = strings.TrimSpace(env.Str(constants.DefaultConfigEnv))
	}
	if file == "" {
		return
	}

	fs := flags.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return errors.Errorf("error reading config: %v", err)
	}

	if err = json.Unmarshal(data, c); err != nil {
		return errors.Errorf("error config: %v", err)
	}

	return
}

// NewConfigCommandFlags returns an instance of ConfigCommandFlags
func NewConfigCommandFlags(cmdFlags *pflag.FlagSet) (flags *ConfigCommandFlags) {
	var err error
	flags = &ConfigCommandFlags{}

	flags.Config, err = cmdFlags.GetString("config")
	if err != nil {
		exitWithError(err.Error())
	}

	flags.Config = strings.TrimSpace(flags.Config)

	return
}

// PersistConfigCommandFlags append a command the config file flag
func PersistConfigCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.StringP("config", "c", "", "ldemul config file")
}
