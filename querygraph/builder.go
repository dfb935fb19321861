package querygraph

import (
	"context"
	"math"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/expr"
)

// Builder lowers a LogicalPlan into a forest of DerivedTables (§4.1),
// allocating arena ids from md and expression nodes from graph as it goes.
type Builder struct {
	md      *opt.Metadata
	catalog cat.Catalog
	graph   *expr.Graph
	funcs   *expr.Registry

	// nextPlaceholder allocates TableIDs for nested-scope members that have
	// no backing Metadata.TableMeta entry (§4.1: Aggregation/Sort/Limit/
	// Unnest wrap their input in a nested DerivedTable rather than a real
	// scan). It starts well above any TableID Metadata.AddTable will ever
	// hand out for a single query.
	nextPlaceholder opt.TableID
}

// NewBuilder returns a Builder writing into the given arena, catalog and
// expression graph.
func NewBuilder(md *opt.Metadata, catalog cat.Catalog, graph *expr.Graph, funcs *expr.Registry) *Builder {
	return &Builder{md: md, catalog: catalog, graph: graph, funcs: funcs, nextPlaceholder: 1 << 24}
}

// scope is the resolver context threaded through translate: it maps a
// LogicalNode's output column position to the opt.ColumnID the builder
// assigned it, and carries the lambda-parameter bindings currently in
// effect for subfield marking and expression construction.
type scope struct {
	cols   []opt.ColumnID
	params map[string]opt.ColumnID

	// synonyms maps a column in cols back to the expression that computes
	// it, for columns synthesized by a Project/Aggregate/Unnest rather than
	// produced by a BaseTable. An InputRef resolving to such a column
	// inlines this expression instead of emitting a bare reference to a
	// column no placed RelationOp will ever physically produce.
	synonyms map[opt.ColumnID]opt.ExprID
}

func (s scope) withParam(name string, col opt.ColumnID) scope {
	next := scope{cols: s.cols, params: make(map[string]opt.ColumnID, len(s.params)+1), synonyms: s.synonyms}
	for k, v := range s.params {
		next.params[k] = v
	}
	next.params[name] = col
	return next
}

// Build translates root into a DerivedTable forest and returns its root
// scope.
func (b *Builder) Build(ctx context.Context, root LogicalNode) (*DerivedTable, error) {
	if root == nil {
		return nil, opt.NewInvalidInput("logical plan root is nil")
	}
	dt, _, err := b.translate(ctx, root)
	return dt, err
}

func (b *Builder) translate(ctx context.Context, node LogicalNode) (*DerivedTable, []opt.ColumnID, error) {
	switch n := node.(type) {
	case *Scan:
		return b.translateScan(ctx, n)
	case *Filter:
		return b.translateFilter(ctx, n)
	case *Project:
		return b.translateProject(ctx, n)
	case *Aggregate:
		return b.translateAggregate(ctx, n)
	case *Join:
		return b.translateJoin(ctx, n)
	case *Sort:
		return b.translateSort(ctx, n)
	case *Limit:
		return b.translateLimit(ctx, n)
	case *Set:
		return b.translateSet(ctx, n)
	case *Values:
		return b.translateValues(ctx, n)
	case *Unnest:
		return b.translateUnnest(ctx, n)
	default:
		return nil, nil, opt.NewInvalidInput("unsupported logical node kind %T", n)
	}
}

func (b *Builder) translateScan(ctx context.Context, n *Scan) (*DerivedTable, []opt.ColumnID, error) {
	tbl, err := b.catalog.FindTable(ctx, n.Table)
	if err != nil {
		return nil, nil, opt.NewCatalogError("%v", err)
	}
	tid := b.md.AddTable(tbl, b.md.Names.Intern(n.Table))
	tm := b.md.TableMeta(tid)

	bt := NewBaseTable(b.md.NextObjectID(), tid)
	for _, c := range tm.Columns {
		bt.RequireColumn(c)
	}

	dt := NewDerivedTable(b.md.NextObjectID())
	dt.Tables.Add(tid)
	dt.Base[tid] = bt
	dt.Projected = append([]opt.ColumnID(nil), tm.Columns...)
	return dt, dt.Projected, nil
}

func (b *Builder) translateValues(ctx context.Context, n *Values) (*DerivedTable, []opt.ColumnID, error) {
	if len(n.Rows) == 0 {
		return nil, nil, opt.NewInvalidInput("VALUES with no rows is rejected")
	}
	dt := NewDerivedTable(b.md.NextObjectID())
	cols := make([]opt.ColumnID, len(n.Columns()))
	for i, oc := range n.Columns() {
		cols[i] = b.md.AddColumn(b.md.Names.Intern(oc.Name), oc.Type, 0)
	}
	sc := scope{}
	rows := make([][]opt.ExprID, len(n.Rows))
	for i, row := range n.Rows {
		if len(row) != len(cols) {
			return nil, nil, opt.NewInvalidInput("VALUES row %d has %d entries, want %d", i, len(row), len(cols))
		}
		exprs := make([]opt.ExprID, len(row))
		for j, e := range row {
			id, err := b.resolveScalar(sc, e)
			if err != nil {
				return nil, nil, err
			}
			exprs[j] = id
		}
		rows[i] = exprs
	}
	dt.ValuesRows = rows
	dt.Projected = cols
	return dt, cols, nil
}

func (b *Builder) translateFilter(ctx context.Context, n *Filter) (*DerivedTable, []opt.ColumnID, error) {
	dt, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	sc := scope{cols: cols, synonyms: dt.Synonyms}
	conjuncts, err := b.flattenAnd(sc, n.Predicate)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range conjuncts {
		b.placeConjunct(dt, c)
	}
	return dt, cols, nil
}

// flattenAnd splits a predicate across nested ANDs into its conjuncts
// (§4.1 "conjuncts are flattened across nested AND") and resolves each to
// an opt.ExprID.
func (b *Builder) flattenAnd(sc scope, e ScalarExpr) ([]opt.ExprID, error) {
	if sf, ok := e.(SpecialForm); ok && sf.Form == And {
		var out []opt.ExprID
		for _, a := range sf.Args {
			sub, err := b.flattenAnd(sc, a)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}
	id, err := b.resolveScalar(sc, e)
	if err != nil {
		return nil, err
	}
	return []opt.ExprID{id}, nil
}

// placeConjunct pushes a conjunct into a single member BaseTable when
// every column it references belongs to that one table, converting simple
// comparisons to ColumnFilters (§4.1), and otherwise leaves it as a
// DerivedTable-level conjunct.
func (b *Builder) placeConjunct(dt *DerivedTable, e opt.ExprID) {
	refs := b.graph.Node(e).ColumnRefs()
	owner, ok := b.soleOwner(dt, refs)
	if !ok {
		dt.Conjuncts = append(dt.Conjuncts, e)
		return
	}
	if cf, ok := b.asColumnFilter(e); ok {
		owner.AddFilter(cf)
		return
	}
	owner.AddResidualFilter(e, b.graph)
}

// soleOwner returns the single BaseTable member of dt that provides every
// column in refs, if exactly one such member exists.
func (b *Builder) soleOwner(dt *DerivedTable, refs opt.ColSet) (*BaseTable, bool) {
	var found *BaseTable
	ok := true
	dt.Tables.ForEach(func(t opt.TableID) {
		bt, isBase := dt.Base[t]
		if !isBase {
			return
		}
		if refs.Intersects(bt.Columns) {
			if found != nil {
				ok = false
				return
			}
			if refs.SubsetOf(bt.Columns) {
				found = bt
			} else {
				ok = false
			}
		}
	})
	if found == nil {
		ok = false
	}
	return found, ok
}

// asColumnFilter recognizes eq(col, literal), in either argument order, so
// it can be offered to the catalog for pushdown (§4.2). Range and IN
// shapes are not recognized and stay residual filters.
func (b *Builder) asColumnFilter(e opt.ExprID) (ColumnFilter, bool) {
	n := b.graph.Node(e)
	if n.Op != expr.CallOp || len(n.Args) != 2 {
		return ColumnFilter{}, false
	}
	left, right := b.graph.Node(n.Args[0]), b.graph.Node(n.Args[1])
	var col opt.ColumnID
	var lit *expr.Expr
	switch {
	case left.Op == expr.ColumnOp && right.Op == expr.LiteralOp:
		col, lit = left.Col, right
	case right.Op == expr.ColumnOp && left.Op == expr.LiteralOp:
		col, lit = right.Col, left
	default:
		return ColumnFilter{}, false
	}
	switch n.FuncName {
	case "eq":
		return ColumnFilter{Column: col, Op: cat.FilterEq, Value: lit.Literal, Expr: e}, true
	default:
		return ColumnFilter{}, false
	}
}

func (b *Builder) translateProject(ctx context.Context, n *Project) (*DerivedTable, []opt.ColumnID, error) {
	dt, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	sc := scope{cols: cols, synonyms: dt.Synonyms}
	out := make([]opt.ColumnID, len(n.Projections))
	for i, p := range n.Projections {
		if ref, ok := p.(InputRef); ok {
			out[i] = cols[ref.Index]
			continue
		}
		id, err := b.resolveScalar(sc, p)
		if err != nil {
			return nil, nil, err
		}
		oc := n.Columns()[i]
		newCol := b.md.AddColumn(b.md.Names.Intern(oc.Name), oc.Type, 0)
		dt.Synonyms[newCol] = id
		out[i] = newCol
	}
	dt.Projected = out
	return dt, out, nil
}

func (b *Builder) translateAggregate(ctx context.Context, n *Aggregate) (*DerivedTable, []opt.ColumnID, error) {
	inner, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	outer := NewDerivedTable(b.md.NextObjectID())
	b.nestScope(outer, inner)

	sc := scope{cols: cols, synonyms: inner.Synonyms}
	keys := make([]opt.ColumnID, len(n.GroupBy))
	for i, ge := range n.GroupBy {
		if ref, ok := ge.(InputRef); ok {
			keys[i] = cols[ref.Index]
			continue
		}
		id, err := b.resolveScalar(sc, ge)
		if err != nil {
			return nil, nil, err
		}
		newCol := b.md.AddColumn(b.md.Names.Intern("grp"), cat.Type{}, 0)
		outer.Synonyms[newCol] = id
		keys[i] = newCol
	}

	aggs := make([]opt.ColumnID, len(n.Aggs))
	aggExprs := make([]opt.ExprID, len(n.Aggs))
	for i, ae := range n.Aggs {
		call, ok := ae.(Call)
		if !ok {
			return nil, nil, opt.NewInvalidInput("aggregate slot %d is not a call", i)
		}
		args := make([]opt.ExprID, len(call.Args))
		for j, a := range call.Args {
			id, err := b.resolveScalar(sc, a)
			if err != nil {
				return nil, nil, err
			}
			args[j] = id
		}
		var filterID opt.ExprID
		if call.Filter != nil {
			filterID, err = b.resolveScalar(sc, call.Filter)
			if err != nil {
				return nil, nil, err
			}
		}
		id := b.graph.Aggregate(call.Func, args, filterID, nil, expr.ValueInfo{})
		outCol := n.Columns()[len(n.GroupBy)+i]
		newCol := b.md.AddColumn(b.md.Names.Intern(outCol.Name), outCol.Type, 0)
		aggs[i] = newCol
		aggExprs[i] = id
	}

	outer.Group = &GroupBy{Keys: keys, Aggs: aggs, AggExprs: aggExprs}
	outer.Projected = append(append([]opt.ColumnID(nil), keys...), aggs...)
	return outer, outer.Projected, nil
}

// nestScope adds inner as a nested member of outer under a fresh
// placeholder TableID, used whenever a node cannot freely reorder with its
// parent (§4.1: Aggregation/Sort/Limit/Unnest).
func (b *Builder) nestScope(outer, inner *DerivedTable) opt.TableID {
	placeholder := b.nextPlaceholder
	b.nextPlaceholder++
	outer.Tables.Add(placeholder)
	outer.Nested[placeholder] = inner
	return placeholder
}

// mergeScope splices a flat child scope's members directly into parent,
// used by translateJoin to flatten chains of joins into one DerivedTable
// (§4.1: "A Join becomes a JoinEdge between its two inputs").
func mergeScope(parent, child *DerivedTable) {
	child.Tables.ForEach(func(t opt.TableID) {
		parent.Tables.Add(t)
	})
	for t, bt := range child.Base {
		parent.Base[t] = bt
	}
	for t, nt := range child.Nested {
		parent.Nested[t] = nt
	}
	parent.Edges = append(parent.Edges, child.Edges...)
	parent.Conjuncts = append(parent.Conjuncts, child.Conjuncts...)
	for c, e := range child.Synonyms {
		parent.Synonyms[c] = e
	}
}

// isFlat reports whether a scope can be merged wholesale into an enclosing
// join's scope rather than needing to be nested as an opaque member.
func isFlat(dt *DerivedTable) bool {
	return dt.Group == nil && dt.Order == nil && dt.Limit < 0 && dt.Offset < 0 && dt.UnionInputs == nil
}

func (b *Builder) translateJoin(ctx context.Context, n *Join) (*DerivedTable, []opt.ColumnID, error) {
	left, lcols, err := b.translate(ctx, n.Left)
	if err != nil {
		return nil, nil, err
	}
	right, rcols, err := b.translate(ctx, n.Right)
	if err != nil {
		return nil, nil, err
	}

	combined := NewDerivedTable(b.md.NextObjectID())
	var leftTables, rightTables opt.TableSet
	if isFlat(left) {
		mergeScope(combined, left)
		leftTables = setOf(left.Tables)
	} else {
		ph := b.nestScope(combined, left)
		leftTables = opt.MakeTableSet(ph)
	}
	if isFlat(right) {
		mergeScope(combined, right)
		rightTables = setOf(right.Tables)
	} else {
		ph := b.nestScope(combined, right)
		rightTables = opt.MakeTableSet(ph)
	}

	allCols := append(append([]opt.ColumnID(nil), lcols...), rcols...)
	synonyms := make(map[opt.ColumnID]opt.ExprID, len(left.Synonyms)+len(right.Synonyms))
	for c, e := range left.Synonyms {
		synonyms[c] = e
	}
	for c, e := range right.Synonyms {
		synonyms[c] = e
	}
	sc := scope{cols: allCols, synonyms: synonyms}
	conjuncts, err := b.flattenAnd(sc, n.Condition)
	if err != nil {
		return nil, nil, err
	}

	edge := &JoinEdge{ObjectID: b.md.NextObjectID(), Left: leftTables, Right: rightTables, Kind: joinEdgeKind(n.JoinKind)}
	var residual []opt.ExprID
	for _, c := range conjuncts {
		if lk, rk, ok := b.asEquiKey(c, lcols, rcols); ok {
			edge.LeftKeys = append(edge.LeftKeys, lk)
			edge.RightKeys = append(edge.RightKeys, rk)
			continue
		}
		residual = append(residual, c)
	}
	if len(residual) == 1 {
		edge.ExtraFilter = residual[0]
	} else if len(residual) > 1 {
		edge.ExtraFilter = b.graph.Call("and", residual, nil, expr.ValueInfo{})
	}
	combined.Edges = append(combined.Edges, edge)
	combined.Projected = allCols
	return combined, allCols, nil
}

func setOf(ts opt.TableSet) opt.TableSet { return ts.Copy() }

func joinEdgeKind(k JoinKind) JoinEdgeKind {
	switch k {
	case LeftJoin:
		return LeftEdge
	case RightJoin:
		return RightEdge
	case FullJoin:
		return FullEdge
	default:
		return InnerEdge
	}
}

// asEquiKey recognizes eq(col, col) conjuncts with one side drawn from
// lcols and the other from rcols (§4.1 "scanning for eq(col, col)
// conjuncts over disjoint sides").
func (b *Builder) asEquiKey(e opt.ExprID, lcols, rcols []opt.ColumnID) (left, right opt.ColumnID, ok bool) {
	n := b.graph.Node(e)
	if n.Op != expr.CallOp || n.FuncName != "eq" || len(n.Args) != 2 {
		return 0, 0, false
	}
	a, c := b.graph.Node(n.Args[0]), b.graph.Node(n.Args[1])
	if a.Op != expr.ColumnOp || c.Op != expr.ColumnOp {
		return 0, 0, false
	}
	if containsCol(lcols, a.Col) && containsCol(rcols, c.Col) {
		return a.Col, c.Col, true
	}
	if containsCol(lcols, c.Col) && containsCol(rcols, a.Col) {
		return c.Col, a.Col, true
	}
	return 0, 0, false
}

func containsCol(cols []opt.ColumnID, c opt.ColumnID) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}

func (b *Builder) translateSort(ctx context.Context, n *Sort) (*DerivedTable, []opt.ColumnID, error) {
	inner, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	outer := NewDerivedTable(b.md.NextObjectID())
	b.nestScope(outer, inner)
	for _, k := range n.Keys {
		ref, ok := k.Expr.(InputRef)
		if !ok {
			return nil, nil, opt.NewInvalidInput("ORDER BY expression must reference an output column")
		}
		outer.Order = append(outer.Order, ColumnOrderKey{Column: cols[ref.Index], Desc: k.Desc})
	}
	outer.Projected = cols
	return outer, cols, nil
}

func (b *Builder) translateLimit(ctx context.Context, n *Limit) (*DerivedTable, []opt.ColumnID, error) {
	inner, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	outer := NewDerivedTable(b.md.NextObjectID())
	b.nestScope(outer, inner)
	outer.Limit, outer.Offset = n.Limit, n.Offset
	if outer.Limit < 0 {
		outer.Limit = math.MaxInt64
	}
	if outer.Offset < 0 {
		outer.Offset = 0
	}
	outer.Projected = cols
	return outer, cols, nil
}

func (b *Builder) translateSet(ctx context.Context, n *Set) (*DerivedTable, []opt.ColumnID, error) {
	if len(n.SetInputs) == 0 {
		return nil, nil, opt.NewInvalidInput("set operation with no inputs")
	}
	outer := NewDerivedTable(b.md.NextObjectID())
	var firstCols []opt.ColumnID
	for _, in := range n.SetInputs {
		dt, cols, err := b.translate(ctx, in)
		if err != nil {
			return nil, nil, err
		}
		outer.UnionInputs = append(outer.UnionInputs, dt)
		if firstCols == nil {
			firstCols = cols
		}
	}
	outer.Projected = firstCols
	if n.SetKind != UnionAllSet {
		// Distinct union/intersect/except all add a deduplicating
		// aggregation over every output column (§4.1). Intersect/Except's
		// multiplicity semantics beyond plain dedup are not modeled; see
		// DESIGN.md.
		outer.Group = &GroupBy{Keys: firstCols}
	}
	return outer, firstCols, nil
}

func (b *Builder) translateUnnest(ctx context.Context, n *Unnest) (*DerivedTable, []opt.ColumnID, error) {
	inner, cols, err := b.translate(ctx, n.Input)
	if err != nil {
		return nil, nil, err
	}
	outer := NewDerivedTable(b.md.NextObjectID())
	b.nestScope(outer, inner)
	sc := scope{cols: cols, synonyms: inner.Synonyms}
	id, err := b.resolveScalar(sc, n.Expr)
	if err != nil {
		return nil, nil, err
	}
	outCols := make([]opt.ColumnID, len(n.Columns()))
	for i, oc := range n.Columns() {
		outCols[i] = b.md.AddColumn(b.md.Names.Intern(oc.Name), oc.Type, 0)
	}
	outer.UnnestExpr = id
	outer.Projected = append(append([]opt.ColumnID(nil), cols...), outCols...)
	return outer, outer.Projected, nil
}

// resolveScalar translates one node of the input ScalarExpr tree into an
// (interned) expr.Graph node, resolving InputRef against sc.cols and
// ParamRef against sc.params (§4.1 "For lambda bodies").
func (b *Builder) resolveScalar(sc scope, e ScalarExpr) (opt.ExprID, error) {
	switch v := e.(type) {
	case InputRef:
		if v.Index < 0 || v.Index >= len(sc.cols) {
			return 0, opt.NewInvalidInput("input reference %d out of range", v.Index)
		}
		col := sc.cols[v.Index]
		if id, ok := sc.synonyms[col]; ok {
			return id, nil
		}
		return b.graph.Column(col, expr.ValueInfo{Type: b.md.ColumnMeta(col).Type}), nil

	case ParamRef:
		col, ok := sc.params[v.Name]
		if !ok {
			return 0, opt.NewInvalidInput("reference to lambda parameter %q outside its body", v.Name)
		}
		return b.graph.Column(col, expr.ValueInfo{Type: b.md.ColumnMeta(col).Type}), nil

	case Constant:
		return b.graph.Literal(v.Value, expr.ValueInfo{}), nil

	case Call:
		args := make([]opt.ExprID, len(v.Args))
		for i, a := range v.Args {
			id, err := b.resolveScalar(sc, a)
			if err != nil {
				return 0, err
			}
			args[i] = id
		}
		return b.graph.Call(v.Func, args, b.funcs.Lookup(v.Func), expr.ValueInfo{}), nil

	case SpecialForm:
		return b.resolveSpecialForm(sc, v)

	case Lambda:
		return b.resolveLambda(sc, v)

	default:
		return 0, opt.NewInvalidInput("unsupported scalar expression kind %T", e)
	}
}

func (b *Builder) resolveSpecialForm(sc scope, sf SpecialForm) (opt.ExprID, error) {
	switch sf.Form {
	case Dereference:
		base, err := b.resolveScalar(sc, sf.Args[0])
		if err != nil {
			return 0, err
		}
		var step opt.Step
		switch {
		case sf.AllKeys:
			step = opt.Step{Kind: opt.SubscriptStep, AllKeys: true}
		case sf.Field != "":
			step = opt.Step{Kind: opt.FieldStep, FieldName: b.md.Names.Intern(sf.Field), FieldIndex: sf.Index}
		default:
			step = opt.Step{Kind: opt.SubscriptStep, Key: sf.Field}
		}
		return b.graph.Field(base, step, expr.ValueInfo{}), nil

	case If, And, Or:
		args := make([]opt.ExprID, len(sf.Args))
		for i, a := range sf.Args {
			id, err := b.resolveScalar(sc, a)
			if err != nil {
				return 0, err
			}
			args[i] = id
		}
		return b.graph.Call(specialFormName(sf.Form), args, nil, expr.ValueInfo{}), nil

	case Cast:
		if len(sf.Args) != 1 {
			return 0, opt.NewInvalidInput("cast takes exactly one argument")
		}
		arg, err := b.resolveScalar(sc, sf.Args[0])
		if err != nil {
			return 0, err
		}
		return b.graph.Call("cast", []opt.ExprID{arg}, nil, expr.ValueInfo{}), nil

	default:
		return 0, opt.NewInvalidInput("unsupported special form %d", sf.Form)
	}
}

func specialFormName(f FormKind) string {
	switch f {
	case If:
		return "if"
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return "?"
	}
}

// resolveLambda binds each parameter to a fresh synthetic column standing
// for one element of the higher-order call's container argument, then
// resolves Body in a scope extended with those bindings (§4.1 "For lambda
// bodies: capture rows are pushed onto a context stack").
func (b *Builder) resolveLambda(sc scope, l Lambda) (opt.ExprID, error) {
	names := make([]opt.Name, len(l.Params))
	inner := sc
	for i, p := range l.Params {
		col := b.md.AddColumn(b.md.Names.Intern(p), cat.Type{}, 0)
		inner = inner.withParam(p, col)
		names[i] = b.md.Names.Intern(p)
	}
	body, err := b.resolveScalar(inner, l.Body)
	if err != nil {
		return 0, err
	}
	return b.graph.Lambda(names, body, expr.ValueInfo{}), nil
}
