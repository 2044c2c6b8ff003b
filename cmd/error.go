package cmd

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/constants"
	"github.com/nanovms/ldemul/types"
	"github.com/ttacon/chalk"
)

func exitWithError(errs string) {
	fmt.Fprintln(os.Stderr, chalk.Red, constants.ProgramName+": "+errs, chalk.Reset)
	os.Exit(1)
}

// exitWithErrorStack prints the stack of wrapped errors in debug mode
func exitWithErrorStack(c *types.Config, err error) {
	if e, ok := err.(*errors.Error); ok && c.RunConfig.ShowDebug {
		fmt.Fprintln(os.Stderr, e.ErrorStack())
	}
	exitWithError(err.Error())
}
