package portage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

var keyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseError describes a malformed line in a settings file
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ParseConfigFile reads a make.conf style file. Values may reference
// variables from expand or assigned earlier in the same file. A directory is
// read file by file in lexical order.
func ParseConfigFile(path string, expand map[string]string) (map[string]string, error) {
	vars := make(map[string]string)
	scope := make(map[string]string, len(expand))
	for k, v := range expand {
		scope[k] = v
	}
	if err := parseInto(path, scope, vars, 0); err != nil {
		return nil, err
	}
	return vars, nil
}

const maxSourceDepth = 16

func parseInto(path string, scope, vars map[string]string, depth int) error {
	if depth > maxSourceDepth {
		return fmt.Errorf("%s: source nesting too deep", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasSuffix(e.Name(), "~") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if err := parseInto(filepath.Join(path, name), scope, vars, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, stmt := range splitStatements(string(src)) {
		line := strings.TrimSpace(stmt.text)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if raw, ok := sourceTarget(line); ok {
			words, err := shellquote.Split(expandVars(raw, scope))
			if err != nil || len(words) != 1 {
				return &ParseError{File: path, Line: stmt.line, Msg: fmt.Sprintf("bad source target %q", raw)}
			}
			target := words[0]
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			if err := parseInto(target, scope, vars, depth+1); err != nil {
				return err
			}
			continue
		}

		line = strings.TrimPrefix(line, "export ")
		eq := strings.Index(line, "=")
		if eq <= 0 {
			return &ParseError{File: path, Line: stmt.line, Msg: "expected KEY=value"}
		}
		key := strings.TrimSpace(line[:eq])
		if !keyRegexp.MatchString(key) {
			return &ParseError{File: path, Line: stmt.line, Msg: fmt.Sprintf("invalid variable name %q", key)}
		}

		raw := stripComment(line[eq+1:])
		words, err := shellquote.Split(expandVars(raw, scope))
		if err != nil {
			return &ParseError{File: path, Line: stmt.line, Msg: err.Error()}
		}
		value := strings.Join(words, " ")
		vars[key] = value
		scope[key] = value
	}
	return nil
}

type statement struct {
	text string
	line int
}

// splitStatements joins physical lines into logical statements: a quoted
// value may span lines, and a trailing backslash continues the line.
func splitStatements(src string) []statement {
	var (
		out     []statement
		cur     strings.Builder
		start   = 1
		single  bool
		double  bool
		escaped bool
	)

	lines := strings.Split(src, "\n")
	for i, l := range lines {
		if cur.Len() == 0 {
			start = i + 1
		} else {
			cur.WriteByte('\n')
		}
		cur.WriteString(l)

		for j := 0; j < len(l); j++ {
			c := l[j]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && !single:
				escaped = true
			case c == '\'' && !double:
				single = !single
			case c == '"' && !single:
				double = !double
			case c == '#' && !single && !double && (j == 0 || l[j-1] == ' ' || l[j-1] == '\t'):
				// rest of the physical line is a comment, quotes in it do not count
				j = len(l)
			}
		}

		continued := escaped
		escaped = false
		if continued && !single && !double {
			s := cur.String()
			cur.Reset()
			cur.WriteString(strings.TrimSuffix(s, "\\"))
			continue
		}
		if single || double {
			continue
		}
		out = append(out, statement{text: cur.String(), line: start})
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, statement{text: cur.String(), line: start})
	}
	return out
}

// sourceTarget returns the unexpanded argument of a "source" line
func sourceTarget(line string) (string, bool) {
	for _, prefix := range []string{"source ", ". "} {
		if strings.HasPrefix(line, prefix) {
			return stripComment(strings.TrimSpace(strings.TrimPrefix(line, prefix))), true
		}
	}
	return "", false
}

// stripComment removes an unquoted trailing "# comment"
func stripComment(s string) string {
	var single, double, escaped bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && !single:
			escaped = true
		case c == '\'' && !double:
			single = !single
		case c == '"' && !single:
			double = !double
		case c == '#' && !single && !double && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t'):
			return s[:i]
		}
	}
	return s
}

// expandVars substitutes ${VAR} and $VAR outside single quotes. Unknown
// variables expand to the empty string. Substituted values are quoted for
// their position so that lexing the result yields them unchanged.
func expandVars(s string, scope map[string]string) string {
	var (
		sb      strings.Builder
		single  bool
		double  bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			sb.WriteByte(c)
			continue
		case c == '\\' && !single:
			escaped = true
			sb.WriteByte(c)
			continue
		case c == '\'' && !double:
			single = !single
		case c == '"' && !single:
			double = !double
		case c == '$' && !single && i+1 < len(s):
			if s[i+1] == '{' {
				if end := strings.IndexByte(s[i+2:], '}'); end >= 0 {
					sb.WriteString(quoteValue(scope[s[i+2:i+2+end]], double))
					i += end + 2
					continue
				}
			} else if n := varNameLen(s[i+1:]); n > 0 {
				sb.WriteString(quoteValue(scope[s[i+1:i+1+n]], double))
				i += n
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")

// quoteValue escapes v for splicing inside double quotes, or as separate
// words when unquoted
func quoteValue(v string, double bool) string {
	if double {
		return doubleQuoteEscaper.Replace(v)
	}
	return shellquote.Join(strings.Fields(v)...)
}

func varNameLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (n > 0 && c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return n
}
