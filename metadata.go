package opt

import "github.com/flintsql/optimizer/cat"

// ColumnMeta records everything the arena knows about one ColumnID: its
// name, the relation it was produced by, and - when it was synthesized by
// subfield pushdown (§4.5) - the top column it is a subfield of and the
// Path leading to it (§3 "Column").
type ColumnMeta struct {
	MetaID ColumnID
	Name   Name
	Type   cat.Type

	// Table is set when this column is a base-table column; 0 otherwise.
	Table TableID

	// TopColumn and Subfield identify the original whole-value column this
	// one was pruned from, when this ColumnMeta was synthesized by
	// subfield pushdown rather than present in the original logical plan.
	// TopColumn == MetaID and Subfield.Steps == nil for an ordinary column.
	TopColumn ColumnID
	Subfield  Path
}

// TableMeta records the catalog table and chosen layout backing one
// TableID, plus the per-column ColumnIDs the arena assigned it.
type TableMeta struct {
	MetaID TableID
	Table  cat.Table
	Name   Name

	// Columns[i] is the ColumnID assigned to Table.Column(i).
	Columns []ColumnID
}

// Metadata is the per-query arena (§3 "Ownership summary"): it owns every
// Name, Path, ColumnMeta and TableMeta created while building and
// optimizing one query, and assigns the dense ids referenced everywhere
// else. It is released as a whole when the query completes; nothing in it
// is individually freed.
type Metadata struct {
	Names *NameInterner
	Paths *PathInterner

	cols   []ColumnMeta
	tables []TableMeta

	nextObjectID ObjectID
}

// NewMetadata returns a fresh, empty arena.
func NewMetadata() *Metadata {
	return &Metadata{
		Names: NewNameInterner(),
		Paths: NewPathInterner(),
	}
}

// NextObjectID returns a fresh debug-only ObjectID (§SPEC_FULL.md D.1).
func (md *Metadata) NextObjectID() ObjectID {
	md.nextObjectID++
	return md.nextObjectID
}

// AddColumn allocates a new ColumnID for a plain (non-subfield) column.
func (md *Metadata) AddColumn(name Name, typ cat.Type, table TableID) ColumnID {
	id := ColumnID(len(md.cols)) + 1
	md.cols = append(md.cols, ColumnMeta{MetaID: id, Name: name, Type: typ, Table: table, TopColumn: id})
	return id
}

// AddSubfieldColumn allocates a new ColumnID synthesized by subfield
// pushdown: it stands for `top.path`.
func (md *Metadata) AddSubfieldColumn(name Name, typ cat.Type, table TableID, top ColumnID, path Path) ColumnID {
	id := ColumnID(len(md.cols)) + 1
	md.cols = append(md.cols, ColumnMeta{MetaID: id, Name: name, Type: typ, Table: table, TopColumn: top, Subfield: path})
	return id
}

// ColumnMeta returns the metadata for col.
func (md *Metadata) ColumnMeta(col ColumnID) *ColumnMeta {
	return &md.cols[col.index()]
}

// AddTable allocates a new TableID for a scan of t, with one ColumnID per
// catalog column.
func (md *Metadata) AddTable(t cat.Table, alias Name) TableID {
	id := TableID(len(md.tables)) + 1
	tm := TableMeta{MetaID: id, Table: t, Name: alias}
	tm.Columns = make([]ColumnID, t.ColumnCount())
	md.tables = append(md.tables, tm)
	for i := 0; i < t.ColumnCount(); i++ {
		col := t.Column(i)
		cid := md.AddColumn(md.Names.Intern(col.Name), col.Type, id)
		tm.Columns[i] = cid
		md.cols[cid.index()].Table = id
	}
	md.tables[id.index()] = tm
	return id
}

// TableMeta returns the metadata for tbl.
func (md *Metadata) TableMeta(tbl TableID) *TableMeta {
	return &md.tables[tbl.index()]
}

// QualifiedName returns a human-readable "table.column" or "column" name
// for diagnostics and trace output.
func (md *Metadata) QualifiedName(col ColumnID) string {
	cm := md.ColumnMeta(col)
	if cm.Table == 0 {
		return cm.Name.String()
	}
	tm := md.TableMeta(cm.Table)
	return tm.Name.String() + "." + cm.Name.String()
}
