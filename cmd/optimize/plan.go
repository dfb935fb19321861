// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package main

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/querygraph"
)

// jsonNode is the wire shape of one LogicalNode, tagged by Kind. It exists
// only at the CLI boundary; the optimizer itself never sees JSON (§6
// "Input" describes the programmatic LogicalPlan/ScalarExpr trees, not a
// serialization of them).
type jsonNode struct {
	ID      int64           `json:"id"`
	Kind    string          `json:"kind"`
	Columns []jsonOutputCol `json:"columns"`

	// ScanNode
	Table string `json:"table,omitempty"`

	// FilterNode / ProjectNode / AggregateNode / SortNode / LimitNode /
	// UnnestNode
	Input *jsonNode `json:"input,omitempty"`

	Predicate   *jsonScalar  `json:"predicate,omitempty"`
	Projections []jsonScalar `json:"projections,omitempty"`
	GroupBy     []jsonScalar `json:"groupBy,omitempty"`
	Aggs        []jsonScalar `json:"aggs,omitempty"`

	// JoinNode
	Left, Right *jsonNode  `json:"left,omitempty"`
	JoinKind    string     `json:"joinKind,omitempty"`
	Condition   *jsonScalar `json:"condition,omitempty"`

	// SortNode
	Keys []jsonOrderKey `json:"keys,omitempty"`

	// LimitNode
	Limit  *int64 `json:"limit,omitempty"`
	Offset *int64 `json:"offset,omitempty"`

	// SetNode
	SetInputs []jsonNode `json:"inputs,omitempty"`
	SetKind   string     `json:"setKind,omitempty"`

	// UnnestNode
	Expr *jsonScalar `json:"expr,omitempty"`

	// ValuesNode
	Rows [][]jsonScalar `json:"rows,omitempty"`
}

type jsonOutputCol struct {
	Name string   `json:"name"`
	Type jsonType `json:"type"`
}

type jsonType struct {
	Kind     string          `json:"kind"`
	ElemKind string          `json:"elemKind,omitempty"`
	KeyKind  string          `json:"keyKind,omitempty"`
	Fields   []jsonNamedType `json:"fields,omitempty"`
}

type jsonNamedType struct {
	Name string   `json:"name"`
	Type jsonType `json:"type"`
}

type jsonOrderKey struct {
	Expr jsonScalar `json:"expr"`
	Desc bool       `json:"desc"`
}

// jsonScalar is the wire shape of one ScalarExpr, tagged by Kind.
type jsonScalar struct {
	Kind string `json:"kind"`

	// InputRef
	Index int `json:"index,omitempty"`

	// Constant
	Value interface{} `json:"value,omitempty"`

	// Call
	Func     string        `json:"func,omitempty"`
	Args     []jsonScalar  `json:"args,omitempty"`
	Filter   *jsonScalar   `json:"filter,omitempty"`
	Ordering []jsonOrderKey `json:"ordering,omitempty"`

	// SpecialForm
	Form    string `json:"form,omitempty"`
	Field   string `json:"field,omitempty"`
	AllKeys bool   `json:"allKeys,omitempty"`
	CastTo  string `json:"castTo,omitempty"`

	// Lambda
	Params []string    `json:"params,omitempty"`
	Body   *jsonScalar `json:"body,omitempty"`

	// ParamRef
	Name string `json:"name,omitempty"`
}

func decodeType(t jsonType) (cat.Type, error) {
	kind, err := decodeTypeKind(t.Kind)
	if err != nil {
		return cat.Type{}, err
	}
	out := cat.Type{Kind: kind}
	if t.ElemKind != "" {
		if out.ElemKind, err = decodeTypeKind(t.ElemKind); err != nil {
			return cat.Type{}, err
		}
	}
	if t.KeyKind != "" {
		if out.KeyKind, err = decodeTypeKind(t.KeyKind); err != nil {
			return cat.Type{}, err
		}
	}
	for _, f := range t.Fields {
		ft, err := decodeType(f.Type)
		if err != nil {
			return cat.Type{}, err
		}
		out.Fields = append(out.Fields, cat.NamedType{Name: f.Name, Type: ft})
	}
	return out, nil
}

func decodeTypeKind(s string) (cat.TypeKind, error) {
	switch s {
	case "scalar", "":
		return cat.Scalar, nil
	case "struct":
		return cat.Struct, nil
	case "array":
		return cat.Array, nil
	case "map":
		return cat.Map, nil
	default:
		return 0, errors.Newf("unknown type kind %q", s)
	}
}

func decodeColumns(cols []jsonOutputCol) ([]querygraph.OutputCol, error) {
	out := make([]querygraph.OutputCol, len(cols))
	for i, c := range cols {
		t, err := decodeType(c.Type)
		if err != nil {
			return nil, err
		}
		out[i] = querygraph.OutputCol{Name: c.Name, Type: t}
	}
	return out, nil
}

func decodeOrderKeys(keys []jsonOrderKey) ([]querygraph.OrderKey, error) {
	out := make([]querygraph.OrderKey, len(keys))
	for i, k := range keys {
		e, err := decodeScalar(k.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = querygraph.OrderKey{Expr: e, Desc: k.Desc}
	}
	return out, nil
}

func decodeScalar(s jsonScalar) (querygraph.ScalarExpr, error) {
	switch s.Kind {
	case "inputRef":
		return querygraph.InputRef{Index: s.Index}, nil
	case "constant":
		return querygraph.Constant{Value: s.Value}, nil
	case "call":
		args, err := decodeScalars(s.Args)
		if err != nil {
			return nil, err
		}
		var filter querygraph.ScalarExpr
		if s.Filter != nil {
			if filter, err = decodeScalar(*s.Filter); err != nil {
				return nil, err
			}
		}
		ordering, err := decodeOrderKeys(s.Ordering)
		if err != nil {
			return nil, err
		}
		return querygraph.Call{Func: s.Func, Args: args, Filter: filter, Ordering: ordering}, nil
	case "specialForm":
		form, err := decodeSpecialForm(s.Form)
		if err != nil {
			return nil, err
		}
		args, err := decodeScalars(s.Args)
		if err != nil {
			return nil, err
		}
		index := s.Index
		if s.Form == "" && index == 0 {
			index = 0
		}
		return querygraph.SpecialForm{
			Form: form, Args: args, Field: s.Field, Index: index,
			AllKeys: s.AllKeys, CastTo: s.CastTo,
		}, nil
	case "lambda":
		if s.Body == nil {
			return nil, errors.Newf("lambda scalar missing body")
		}
		body, err := decodeScalar(*s.Body)
		if err != nil {
			return nil, err
		}
		return querygraph.Lambda{Params: s.Params, Body: body}, nil
	case "paramRef":
		return querygraph.ParamRef{Name: s.Name}, nil
	default:
		return nil, errors.Newf("unknown scalar kind %q", s.Kind)
	}
}

func decodeScalars(in []jsonScalar) ([]querygraph.ScalarExpr, error) {
	out := make([]querygraph.ScalarExpr, len(in))
	for i, s := range in {
		e, err := decodeScalar(s)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func decodeSpecialForm(s string) (querygraph.FormKind, error) {
	switch s {
	case "dereference", "":
		return querygraph.Dereference, nil
	case "if":
		return querygraph.If, nil
	case "and":
		return querygraph.And, nil
	case "or":
		return querygraph.Or, nil
	case "cast":
		return querygraph.Cast, nil
	default:
		return 0, errors.Newf("unknown special form %q", s)
	}
}

func decodeJoinKind(s string) (querygraph.JoinKind, error) {
	switch s {
	case "inner", "":
		return querygraph.InnerJoin, nil
	case "left":
		return querygraph.LeftJoin, nil
	case "right":
		return querygraph.RightJoin, nil
	case "full":
		return querygraph.FullJoin, nil
	default:
		return 0, errors.Newf("unknown join kind %q", s)
	}
}

func decodeSetKind(s string) (querygraph.SetKind, error) {
	switch s {
	case "union", "":
		return querygraph.UnionSet, nil
	case "unionAll":
		return querygraph.UnionAllSet, nil
	case "intersect":
		return querygraph.IntersectSet, nil
	case "except":
		return querygraph.ExceptSet, nil
	default:
		return 0, errors.Newf("unknown set kind %q", s)
	}
}

func decodeNode(n jsonNode) (querygraph.LogicalNode, error) {
	cols, err := decodeColumns(n.Columns)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case "scan":
		return querygraph.NewScan(n.ID, cols, n.Table), nil
	case "filter":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		if n.Predicate == nil {
			return nil, errors.Newf("filter node %d missing predicate", n.ID)
		}
		pred, err := decodeScalar(*n.Predicate)
		if err != nil {
			return nil, err
		}
		return querygraph.NewFilter(n.ID, cols, input, pred), nil
	case "project":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		projs, err := decodeScalars(n.Projections)
		if err != nil {
			return nil, err
		}
		return querygraph.NewProject(n.ID, cols, input, projs), nil
	case "aggregate":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		groupBy, err := decodeScalars(n.GroupBy)
		if err != nil {
			return nil, err
		}
		aggs, err := decodeScalars(n.Aggs)
		if err != nil {
			return nil, err
		}
		return querygraph.NewAggregate(n.ID, cols, input, groupBy, aggs), nil
	case "join":
		if n.Left == nil || n.Right == nil {
			return nil, errors.Newf("join node %d missing left or right", n.ID)
		}
		left, err := decodeNode(*n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(*n.Right)
		if err != nil {
			return nil, err
		}
		kind, err := decodeJoinKind(n.JoinKind)
		if err != nil {
			return nil, err
		}
		if n.Condition == nil {
			return nil, errors.Newf("join node %d missing condition", n.ID)
		}
		cond, err := decodeScalar(*n.Condition)
		if err != nil {
			return nil, err
		}
		return querygraph.NewJoin(n.ID, cols, left, right, kind, cond), nil
	case "sort":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		keys, err := decodeOrderKeys(n.Keys)
		if err != nil {
			return nil, err
		}
		return querygraph.NewSort(n.ID, cols, input, keys), nil
	case "limit":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		limit, offset := int64(-1), int64(-1)
		if n.Limit != nil {
			limit = *n.Limit
		}
		if n.Offset != nil {
			offset = *n.Offset
		}
		return querygraph.NewLimit(n.ID, cols, input, limit, offset), nil
	case "set":
		inputs := make([]querygraph.LogicalNode, len(n.SetInputs))
		for i, in := range n.SetInputs {
			node, err := decodeNode(in)
			if err != nil {
				return nil, err
			}
			inputs[i] = node
		}
		kind, err := decodeSetKind(n.SetKind)
		if err != nil {
			return nil, err
		}
		return querygraph.NewSet(n.ID, cols, inputs, kind), nil
	case "unnest":
		input, err := decodeRequiredInput(n.Input)
		if err != nil {
			return nil, err
		}
		if n.Expr == nil {
			return nil, errors.Newf("unnest node %d missing expr", n.ID)
		}
		e, err := decodeScalar(*n.Expr)
		if err != nil {
			return nil, err
		}
		return querygraph.NewUnnest(n.ID, cols, input, e), nil
	case "values":
		rows := make([][]querygraph.ScalarExpr, len(n.Rows))
		for i, row := range n.Rows {
			r, err := decodeScalars(row)
			if err != nil {
				return nil, err
			}
			rows[i] = r
		}
		return querygraph.NewValues(n.ID, cols, rows), nil
	default:
		return nil, errors.Newf("unknown node kind %q", n.Kind)
	}
}

func decodeRequiredInput(in *jsonNode) (querygraph.LogicalNode, error) {
	if in == nil {
		return nil, errors.Newf("node missing required input")
	}
	return decodeNode(*in)
}

// ParsePlan decodes a JSON-encoded LogicalPlan, the CLI's wire format for
// the programmatic input tree described by §6 "Input".
func ParsePlan(data []byte) (querygraph.LogicalNode, error) {
	var n jsonNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrap(err, "decoding logical plan")
	}
	return decodeNode(n)
}
