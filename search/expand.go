package search

import (
	"os"
	"strings"

	"github.com/nanovms/ldemul/log"
)

// Expander replaces the dynamic string tokens $ORIGIN, $LIB and $PLATFORM
// in search path lists.
type Expander struct {
	// Width is the target address width, 32 or 64.
	Width int

	// Output is the path of the binary being linked. It owns $ORIGIN for
	// lists that have no owning object.
	Output string

	// Getwd resolves relative owner paths. Defaults to os.Getwd.
	Getwd func() (string, error)

	Logger *log.Logger
}

type token int

const (
	tokenUnknown token = iota
	tokenOrigin
	tokenLib
	tokenPlatform
)

var tokenNames = []struct {
	name string
	tok  token
}{
	{"ORIGIN", tokenOrigin},
	{"LIB", tokenLib},
	{"PLATFORM", tokenPlatform},
}

// scanToken recognizes the token starting right after a '$'. It returns
// the token and the length of the text it spans after the '$'. An
// unbraced name is only a token when followed by '/' or the end of the
// element, so $LIBRARY is not $LIB.
func scanToken(s string) (token, int) {
	braced := strings.HasPrefix(s, "{")
	if braced {
		s = s[1:]
	}
	for _, t := range tokenNames {
		if !strings.HasPrefix(s, t.name) {
			continue
		}
		if !braced {
			// the name must end the path element
			if rest := s[len(t.name):]; rest != "" && rest[0] != '/' {
				return tokenUnknown, 0
			}
			return t.tok, len(t.name)
		}
		if strings.HasPrefix(s[len(t.name):], "}") {
			return t.tok, len(t.name) + 2
		}
		return tokenUnknown, 0
	}
	return tokenUnknown, 0
}

// Expand substitutes the tokens of list. owner is the path of the object
// the list belongs to; empty means the output binary. Tokens that cannot
// be expanded are kept verbatim.
func (x *Expander) Expand(list string, owner string) string {
	if !strings.Contains(list, "$") {
		return list
	}

	var b strings.Builder
	for i := 0; i < len(list); {
		c := list[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		tok, n := scanToken(list[i+1:])
		var replacement string
		switch tok {
		case tokenOrigin:
			replacement = x.origin(owner)
		case tokenLib:
			replacement = "lib"
			if x.Width == 64 {
				replacement = "lib64"
			}
		case tokenPlatform:
			if x.Logger != nil {
				x.Logger.Infof("$PLATFORM in %q is not supported and is left unexpanded", list)
			}
		}

		if replacement == "" {
			// unknown or unsupported: keep the '$' and rescan what follows
			b.WriteByte(c)
			i++
			continue
		}
		b.WriteString(replacement)
		i += 1 + n
	}
	return b.String()
}

// origin returns the absolute directory holding owner, or the output
// binary when owner is empty.
func (x *Expander) origin(owner string) string {
	if owner == "" {
		owner = x.Output
	}
	if owner == "" {
		return ""
	}

	if !strings.HasPrefix(owner, "/") {
		getwd := x.Getwd
		if getwd == nil {
			getwd = os.Getwd
		}
		cwd, err := getwd()
		if err != nil {
			return ""
		}
		owner = strings.TrimSuffix(cwd, "/") + "/" + owner
	}

	slash := strings.LastIndex(owner, "/")
	if slash == 0 {
		return "/"
	}
	return owner[:slash]
}
