package executor

import "strings"

// fieldPath chains backward from the current field to the operation
// root. Links are only ever extended by wrapping, never mutated, so a
// parent executor's path stays valid while children resolve. The root
// link carries an empty key and the operation's source position.
type fieldPath struct {
	parent   *fieldPath
	key      string
	location Location
}

// segments returns the response keys from the root to this field. The
// root link contributes no segment.
func (p *fieldPath) segments() []string {
	n := 0
	for link := p; link != nil; link = link.parent {
		if link.key != "" {
			n++
		}
	}
	out := make([]string, n)
	for link := p; link != nil; link = link.parent {
		if link.key != "" {
			n--
			out[n] = link.key
		}
	}
	return out
}

// String renders the dotted form used in error messages.
func (p *fieldPath) String() string {
	return strings.Join(p.segments(), ".")
}
