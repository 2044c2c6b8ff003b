package hints

import (
	"encoding/binary"
	"sync"

	"github.com/nanovms/ldemul/constants"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/search"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/afero"
)

// Cache reads the system hint sources at most once and hands the same
// directory list, or the same absence of one, to every caller.
type Cache struct {
	fs       afero.Fs
	sysroot  string
	prefix   string
	platform types.Platform
	order    binary.ByteOrder
	logger   *log.Logger

	freebsdOnce sync.Once
	freebsd     string

	linuxOnce sync.Once
	linux     string
}

// NewCache returns a Cache reading from fs with the settings of c
func NewCache(fs afero.Fs, c *types.Config, logger *log.Logger) *Cache {
	var order binary.ByteOrder = binary.LittleEndian
	if c.HintsByteOrder == "big" {
		order = binary.BigEndian
	}
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &Cache{
		fs:       fs,
		sysroot:  c.Sysroot,
		prefix:   c.InstallPrefix,
		platform: c.Platform,
		order:    order,
		logger:   logger,
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Paths returns the list of the hint source selected by the platform.
// An empty string means the source is unavailable.
func (c *Cache) Paths() (string, string) {
	switch c.platform.HintStyle {
	case types.HintsFreeBSD:
		return c.FreeBSD(), "ld-elf.so.hints"
	case types.HintsLinux:
		return c.Linux(), "ld.so.conf"
	}
	return "", ""
}

// FreeBSD returns the sysroot-prefixed directory list of ld-elf.so.hints
func (c *Cache) FreeBSD() string {
	c.freebsdOnce.Do(func() {
		filename := c.sysroot + constants.ElfHints
		f, err := c.fs.Open(filename)
		if err != nil {
			c.logger.Infof("%s: %v", filename, err)
			return
		}
		defer f.Close()

		dirs, err := ReadElfHints(f, c.order)
		if err != nil {
			c.logger.Infof("%s: %v", filename, err)
			return
		}
		c.freebsd = search.AddSysroot(dirs, c.sysroot, c.platform)
	})
	return c.freebsd
}

// Linux returns the sysroot-prefixed directory list of ld.so.conf. The
// file under the install prefix wins over the plain one.
func (c *Cache) Linux() string {
	c.linuxOnce.Do(func() {
		candidates := []string{c.sysroot + c.prefix + constants.LdSoConf}
		if c.prefix != "" {
			candidates = append(candidates, c.sysroot+constants.LdSoConf)
		}

		for _, filename := range candidates {
			dirs, ok := ParseLdSoConf(c.fs, filename, c.platform.Separator(), c.logger)
			if !ok {
				c.logger.Infof("%s: not found", filename)
				continue
			}
			c.linux = search.AddSysroot(dirs, c.sysroot, c.platform)
			return
		}
	})
	return c.linux
}
