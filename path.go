package opt

import (
	"fmt"
	"strconv"
	"strings"
)

// StepKind distinguishes the three ways a Path can descend into a
// complex-typed value, per §3 "Path".
type StepKind uint8

const (
	// FieldStep accesses a named struct member.
	FieldStep StepKind = iota
	// SubscriptStep accesses an array/map element, either by a literal key
	// or (when AllKeys is true) the wildcard "every element" position.
	SubscriptStep
	// CardinalityStep takes the size of a container, terminating a Path.
	CardinalityStep
)

// Step is one element of a Path.
type Step struct {
	Kind StepKind

	// FieldName/FieldIndex are set when Kind == FieldStep.
	FieldName  Name
	FieldIndex int

	// Key/AllKeys are set when Kind == SubscriptStep. Key holds the literal
	// subscript (e.g. a map key or array index rendered as a string); when
	// AllKeys is true the step stands for every element ("[*]") and Key is
	// ignored.
	Key     string
	AllKeys bool
}

func (s Step) String() string {
	switch s.Kind {
	case FieldStep:
		return "." + s.FieldName.String()
	case SubscriptStep:
		if s.AllKeys {
			return "[*]"
		}
		return "[" + strconv.Quote(s.Key) + "]"
	case CardinalityStep:
		return "#card"
	default:
		return "?"
	}
}

func (s Step) equal(o Step) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case FieldStep:
		return s.FieldName == o.FieldName && s.FieldIndex == o.FieldIndex
	case SubscriptStep:
		return s.AllKeys == o.AllKeys && (s.AllKeys || s.Key == o.Key)
	default:
		return true
	}
}

// Path is an interned, ordered sequence of Steps. Two Paths with the same
// steps share one PathID, so Path equality is comparing PathIDs.
type Path struct {
	ID    PathID
	Steps []Step
}

func (p Path) String() string {
	var sb strings.Builder
	for _, s := range p.Steps {
		sb.WriteString(s.String())
	}
	if sb.Len() == 0 {
		return "<root>"
	}
	return sb.String()
}

// IsPrefixOf returns true if p's steps are a prefix of other's steps -
// used when deciding whether one live subfield subsumes another.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p.Steps) > len(other.Steps) {
		return false
	}
	for i, s := range p.Steps {
		if !s.equal(other.Steps[i]) {
			return false
		}
	}
	return true
}

// PathInterner interns Paths within one query's arena.
type PathInterner struct {
	byKey map[string]Path
	all   []Path
}

// NewPathInterner constructs an empty interner. Path 0 is reserved (as with
// every id in this arena) so PathID zero-value reliably means "no path /
// whole column", matching how BaseTable records "column accessed whole".
func NewPathInterner() *PathInterner {
	return &PathInterner{byKey: make(map[string]Path)}
}

// Root returns the (interned) empty path, representing "the whole value".
func (pi *PathInterner) Root() Path {
	return pi.Intern(nil)
}

// Intern returns the canonical Path for the given steps.
func (pi *PathInterner) Intern(steps []Step) Path {
	key := pathKey(steps)
	if p, ok := pi.byKey[key]; ok {
		return p
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	p := Path{ID: PathID(len(pi.all)) + 1, Steps: cp}
	pi.byKey[key] = p
	pi.all = append(pi.all, p)
	return p
}

// Extend interns the path formed by appending step to base.
func (pi *PathInterner) Extend(base Path, step Step) Path {
	steps := make([]Step, len(base.Steps)+1)
	copy(steps, base.Steps)
	steps[len(base.Steps)] = step
	return pi.Intern(steps)
}

func pathKey(steps []Step) string {
	var sb strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&sb, "%d|", s.Kind)
		switch s.Kind {
		case FieldStep:
			fmt.Fprintf(&sb, "%s|%d;", s.FieldName.String(), s.FieldIndex)
		case SubscriptStep:
			if s.AllKeys {
				sb.WriteString("*;")
			} else {
				fmt.Fprintf(&sb, "%s;", s.Key)
			}
		default:
			sb.WriteString(";")
		}
	}
	return sb.String()
}
