package hints

import (
	"bufio"
	"path"
	"strings"

	"github.com/nanovms/ldemul/log"
	"github.com/spf13/afero"
)

// confParser accumulates the directories of an ld.so.conf tree
type confParser struct {
	fs     afero.Fs
	sep    string
	logger *log.Logger
	path   strings.Builder
	seen   bool
}

// ParseLdSoConf reads the ld.so.conf file at filename, following its
// include directives, and returns the directories joined with sep. ok is
// false when filename itself could not be opened. A read error ends the
// file early and is logged at info level.
func ParseLdSoConf(fs afero.Fs, filename, sep string, logger *log.Logger) (dirs string, ok bool) {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	p := &confParser{fs: fs, sep: sep, logger: logger}
	if !p.parse(filename) {
		return "", false
	}
	return p.path.String(), true
}

func (p *confParser) parse(filename string) bool {
	f, err := p.fs.Open(filename)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if hash := strings.IndexByte(line, '#'); hash >= 0 {
			line = line[:hash]
		}
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "include") && len(line) > 7 && (line[7] == ' ' || line[7] == '\t') {
			for _, pattern := range strings.Fields(line[8:]) {
				p.include(filename, pattern)
			}
			continue
		}

		dir := line
		if end := strings.IndexAny(dir, "= \t\f\r\v"); end >= 0 {
			dir = dir[:end]
		}
		p.add(strings.TrimRight(dir, "/"))
	}
	if err := scanner.Err(); err != nil {
		p.logger.Infof("%s: %v", filename, err)
	}
	return true
}

// include parses every file matching pattern, relative patterns being
// taken from the directory of the including file. Nothing guards against
// include cycles.
func (p *confParser) include(filename, pattern string) {
	if !strings.HasPrefix(pattern, "/") {
		pattern = path.Join(path.Dir(filename), pattern)
	}

	matches, err := afero.Glob(p.fs, pattern)
	if err != nil {
		return
	}
	for _, m := range matches {
		p.parse(m)
	}
}

func (p *confParser) add(dir string) {
	if p.seen {
		p.path.WriteString(p.sep)
	}
	p.path.WriteString(dir)
	p.seen = true
}
