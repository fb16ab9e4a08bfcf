package filter

import (
	"regexp"

	"github.com/csvquery/csvex/internal/decimal"
)

// ValueKind distinguishes the two forms a compiled comparison value can
// take: an already-parsed arbitrary-precision decimal, or a byte range
// into the filter's source text (for string/bareword literals).
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueString
)

// Value is one compiled comparison constant. String values are stored as a
// byte range into Filter.Source (quotes included for TString; verbatim for
// a bareword) rather than a copied string, keeping with the
// arena-indices-not-pointers design.
type Value struct {
	Kind   ValueKind
	Num    decimal.Decimal
	Range  [2]int // into Filter.Source
	Quoted bool   // true if Range includes surrounding quotes to strip
}

// Text returns the value's literal text with quotes stripped if present.
func (v Value) Text(source string) string {
	s := source[v.Range[0]:v.Range[1]]
	if v.Quoted && len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// FieldRange selects a byte sub-slice of a field: [Start, End). End == -1
// means "to the end of the field" (clamped at evaluation time).
type FieldRange struct {
	Start int
	End   int // -1 means unbounded
}

// Slice returns the sub-slice of field selected by r, clamping End to the
// field's length.
func (r FieldRange) Slice(field []byte) []byte {
	start := r.Start
	if start > len(field) {
		start = len(field)
	}
	end := r.End
	if end < 0 || end > len(field) {
		end = len(field)
	}
	if end < start {
		end = start
	}
	return field[start:end]
}

// CmpOp enumerates comparison operators.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNeq
	OpGt
	OpLt
	OpGte
	OpLte
)

// Combine enumerates the all/any combinator for multi-valued comparisons
// and matches. The grammar's default when neither is written is All.
type Combine int

const (
	CombineAll Combine = iota
	CombineAny
)

// BinOp enumerates the two logical connectives.
type BinOp int

const (
	BinAnd BinOp = iota
	BinOr
)

// NodeKind enumerates evaluation-tree node shapes.
type NodeKind int

const (
	NodeExist NodeKind = iota
	NodeCmp
	NodeMatch
	NodeUnary
	NodeBinary
)

// Node is one entry in the compiled evaluation arena. Which fields are
// meaningful depends on Kind; cross-references (Child, Lhs, Rhs, value and
// regex ranges) are indices, never pointers, so the arena clones/moves
// trivially.
type Node struct {
	Kind NodeKind

	// NodeExist, NodeCmp, NodeMatch
	Col   int
	Range FieldRange

	// NodeCmp
	Op      CmpOp
	Combine Combine
	Values  [2]int // [start,end) into Filter.Values

	// NodeMatch
	Regex [2]int // [start,end) into Filter.Regex

	// NodeUnary
	Negate bool
	Child  int

	// NodeBinary
	Lhs, Rhs int
	BinOp    BinOp
}

// Filter is an immutable, compiled filter expression.
type Filter struct {
	Source string
	Values []Value
	Regex  []*regexp.Regexp
	Nodes  []Node
	Start  int // index of the root node; meaningless if len(Nodes)==0
}

// IsIdentity reports whether this filter has no nodes, i.e. every record
// passes.
func (f *Filter) IsIdentity() bool { return len(f.Nodes) == 0 }

// Identity returns the always-true filter (no nodes).
func Identity() *Filter { return &Filter{} }
