package resolve

import (
	"os"

	"github.com/nanovms/ldemul/hints"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/afero"
	"github.com/xyproto/env/v2"
)

// HintSource provides the directory list of the platform hint file and
// the name of the file it came from.
type HintSource interface {
	Paths() (dirs string, source string)
}

// Env is what the resolver reads from its surroundings
type Env struct {
	Getenv func(key string) string
	Getwd  func() (string, error)
	Hints  HintSource
}

// DefaultEnv reads the process environment and the hint files of fs
func DefaultEnv(fs afero.Fs, c *types.Config, logger *log.Logger) Env {
	return Env{
		Getenv: func(key string) string { return env.Str(key) },
		Getwd:  os.Getwd,
		Hints:  hints.NewCache(fs, c, logger),
	}
}

func (e Env) getenv(key string) string {
	if e.Getenv == nil {
		return ""
	}
	return e.Getenv(key)
}

func (e Env) hintPaths() (string, string) {
	if e.Hints == nil {
		return "", ""
	}
	return e.Hints.Paths()
}
