package expr

import "github.com/flintsql/optimizer"

// ArgPath names one argument of a call plus a path into that argument's
// value, the target of a value_path -> (arg_index, arg_path) subfield
// transform (§9 "Subfield metadata").
type ArgPath struct {
	ArgIndex int
	Path     opt.Path
}

// FunctionMetadata is the per-function registry entry consulted by both
// subfield marking and the cost model, adapted from the original
// implementation's FunctionRegistry (§D.3 of SPEC_FULL.md).
type FunctionMetadata struct {
	Name string

	// Cost is used when CostFn is nil: a flat self-cost for one call,
	// independent of arguments (§4.3 "Expression self-cost").
	Cost float64

	// CostFn, if set, computes a call's self-cost from its arguments
	// instead of using the flat Cost value - e.g. a regex match whose cost
	// scales with pattern complexity.
	CostFn func(g *Graph, args []opt.ExprID) float64

	// ValuePathToArgPath, if non-nil, is consulted by subfield marking
	// (§4.1) when a getter is applied to this call's result: given the
	// path requested on the call's output, it returns which argument (and
	// which path into it) actually produces that value, or ok=false if the
	// call does not have a structural passthrough for this path (in which
	// case every argument is marked as fully consumed). A row-constructor
	// like make_row(a, b) would map path ".f0" to ArgPath{0, <root>}.
	ValuePathToArgPath func(path opt.Path) (ArgPath, bool)
}

// Registry is a name -> FunctionMetadata lookup table. Functions with no
// entry are treated per §9: subfield marking consumes every argument with
// an empty path, and self-cost falls back to a fixed default.
type Registry struct {
	byName map[string]*FunctionMetadata
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*FunctionMetadata)}
}

// Register adds or replaces the metadata for a function name.
func (r *Registry) Register(md *FunctionMetadata) {
	r.byName[md.Name] = md
}

// Lookup returns the metadata for name, or nil if unregistered.
func (r *Registry) Lookup(name string) *FunctionMetadata {
	return r.byName[name]
}

// DefaultSelfCost is the self-cost assigned to a call with no registered
// metadata, or whose metadata has neither Cost nor CostFn set.
const DefaultSelfCost = 5.0

// SelfCost returns md's self-cost for a call with the given arguments,
// applying the DefaultSelfCost fallback when md is nil.
func SelfCost(g *Graph, md *FunctionMetadata, args []opt.ExprID) float64 {
	if md == nil {
		return DefaultSelfCost
	}
	if md.CostFn != nil {
		return md.CostFn(g, args)
	}
	if md.Cost != 0 {
		return md.Cost
	}
	return DefaultSelfCost
}

// RegisterRowConstructor registers a struct/row constructor function (like
// the original's make_row) whose N-th argument becomes the N-th field of
// the constructed row, so that an outer ".fieldN" getter propagates to
// exactly that argument instead of consuming the whole row (§9).
func RegisterRowConstructor(r *Registry, name string, fieldCount int) {
	r.Register(&FunctionMetadata{
		Name: name,
		Cost: 2,
		ValuePathToArgPath: func(path opt.Path) (ArgPath, bool) {
			if len(path.Steps) == 0 {
				return ArgPath{}, false
			}
			first := path.Steps[0]
			if first.Kind != opt.FieldStep || first.FieldIndex >= fieldCount {
				return ArgPath{}, false
			}
			rest := path.Steps[1:]
			// The caller re-interns the remaining steps against the
			// argument's own path interner; we only report which argument
			// and how many leading steps were consumed here.
			_ = rest
			return ArgPath{ArgIndex: first.FieldIndex, Path: opt.Path{Steps: rest}}, true
		},
	})
}
