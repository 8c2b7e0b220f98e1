// Package command parses and renders the serial command templates declared
// in the configuration file.
//
// A template is literal text with {name} placeholders. Doubled braces ({{
// and }}) stand for literal braces. Placeholder names follow Go identifier
// rules (ASCII letters, digits, underscore, not starting with a digit).
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMalformedTemplate is returned by Parse for unbalanced braces or
	// invalid placeholder names.
	ErrMalformedTemplate = errors.New("malformed command template")

	// ErrParamMismatch indicates the supplied parameter keys differ from the
	// template placeholders.
	ErrParamMismatch = errors.New("parameter mismatch")

	// ErrInvalidValue indicates a parameter value cannot be placed on a
	// single command line.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// MismatchError lists the keys that made a parameter set differ from a
// template's placeholder set. Both slices are sorted.
type MismatchError struct {
	Missing []string
	Extra   []string
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrParamMismatch, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrParamMismatch) match.
func (e *MismatchError) Is(target error) bool {
	return target == ErrParamMismatch
}

type segment struct {
	text  string
	param bool
}

// Template is a parsed command template. It is immutable and safe for
// concurrent use.
type Template struct {
	raw      string
	segments []segment
	params   []string
	index    map[string]struct{}
}

// Parse parses a command template.
func Parse(s string) (*Template, error) {
	t := &Template{raw: s, index: make(map[string]struct{})}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			name := s[i+1 : i+1+end]
			if !validName(name) {
				return nil, fmt.Errorf("%w: invalid placeholder %q", ErrMalformedTemplate, "{"+name+"}")
			}
			flush()
			t.segments = append(t.segments, segment{text: name, param: true})
			if _, seen := t.index[name]; !seen {
				t.index[name] = struct{}{}
				t.params = append(t.params, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: unmatched '}' at offset %d", ErrMalformedTemplate, i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}

// Placeholders returns the distinct placeholder names in order of first
// appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.params))
	copy(out, t.params)
	return out
}

// Has reports whether name is a placeholder of t.
func (t *Template) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Check returns a *MismatchError unless the keys of params are exactly the
// template placeholders.
func (t *Template) Check(params map[string]any) error {
	var missing, extra []string
	for _, p := range t.params {
		if _, ok := params[p]; !ok {
			missing = append(missing, p)
		}
	}
	for k := range params {
		if _, ok := t.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &MismatchError{Missing: missing, Extra: extra}
}

// Render substitutes every placeholder with its formatted value. The key set
// must match exactly and no value may contain a line break.
func (t *Template) Render(params map[string]any) (string, error) {
	if err := t.Check(params); err != nil {
		return "", err
	}

	values := make(map[string]string, len(t.params))
	for _, p := range t.params {
		v := FormatValue(params[p])
		if strings.ContainsAny(v, "\r\n") {
			return "", fmt.Errorf("%w: %s contains a line break", ErrInvalidValue, p)
		}
		values[p] = v
	}

	var b strings.Builder
	for _, seg := range t.segments {
		if seg.param {
			b.WriteString(values[seg.text])
		} else {
			b.WriteString(seg.text)
		}
	}
	return b.String(), nil
}
