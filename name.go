package opt

// Name is an interned string. Two Names compare equal with == if and only if
// the underlying strings are equal; the NameInterner guarantees that by
// handing out the same Name value for repeated requests of the same string,
// mirroring the teacher's tree.Name / symbol-table convention.
type Name struct {
	id  uint32
	str string
}

// String returns the underlying string.
func (n Name) String() string { return n.str }

// Empty returns true for the zero Name.
func (n Name) Empty() bool { return n.str == "" && n.id == 0 }

// NameInterner assigns stable small integer ids to strings within one
// query's arena. It is not safe for concurrent use; each query builds its
// own interner, consistent with the single-threaded-per-query model of §5.
type NameInterner struct {
	byStr map[string]Name
	all   []Name
}

// NewNameInterner constructs an empty interner.
func NewNameInterner() *NameInterner {
	return &NameInterner{byStr: make(map[string]Name)}
}

// Intern returns the canonical Name for s, creating one if this is the
// first time s has been seen by this interner.
func (ni *NameInterner) Intern(s string) Name {
	if n, ok := ni.byStr[s]; ok {
		return n
	}
	n := Name{id: uint32(len(ni.all)) + 1, str: s}
	ni.byStr[s] = n
	ni.all = append(ni.all, n)
	return n
}
