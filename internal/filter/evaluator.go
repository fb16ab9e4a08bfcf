package filter

import (
	"bytes"

	"github.com/csvquery/csvex/internal/decimal"
	"github.com/csvquery/csvex/internal/record"
)

// Evaluate runs the compiled filter against rec, operating directly on raw
// (untrimmed) record bytes without copying fields out of the record.
// Numeric comparisons parse the field into a decimal.Decimal and compare
// through math/big, which allocates. The identity filter (no nodes)
// always returns true.
func (f *Filter) Evaluate(rec *record.Record) bool {
	if f.IsIdentity() {
		return true
	}
	return f.evalNode(f.Start, rec)
}

func fieldOrEmpty(rec *record.Record, col int) []byte {
	if col < rec.NumFields() {
		return rec.Field(col)
	}
	return nil
}

func (f *Filter) evalNode(idx int, rec *record.Record) bool {
	n := &f.Nodes[idx]
	switch n.Kind {
	case NodeExist:
		sub := n.Range.Slice(fieldOrEmpty(rec, n.Col))
		return len(sub) > 0

	case NodeCmp:
		sub := n.Range.Slice(fieldOrEmpty(rec, n.Col))
		vals := f.Values[n.Values[0]:n.Values[1]]
		matched := 0
		for _, v := range vals {
			if f.cmpOne(sub, v, n.Op) {
				matched++
			}
		}
		if n.Combine == CombineAny {
			return matched > 0
		}
		return matched == len(vals)

	case NodeMatch:
		sub := n.Range.Slice(fieldOrEmpty(rec, n.Col))
		res := f.Regex[n.Regex[0]:n.Regex[1]]
		matched := 0
		for _, re := range res {
			if re.Match(sub) {
				matched++
			}
		}
		if n.Combine == CombineAny {
			return matched > 0
		}
		return matched == len(res)

	case NodeUnary:
		r := f.evalNode(n.Child, rec)
		if n.Negate {
			return !r
		}
		return r

	case NodeBinary:
		if n.BinOp == BinAnd {
			return f.evalNode(n.Lhs, rec) && f.evalNode(n.Rhs, rec)
		}
		return f.evalNode(n.Lhs, rec) || f.evalNode(n.Rhs, rec)
	}
	return false
}

// cmpOne compares field sub-slice s against value v using op. A numeric
// value first tries to parse s as a decimal (comparing numerically on
// success, falling back to a textual comparison of s against the value
// rendered back to text on failure); a string value always compares
// byte-for-byte against its trimmed-of-quotes source text.
func (f *Filter) cmpOne(s []byte, v Value, op CmpOp) bool {
	if v.Kind == ValueNumber {
		if d, ok := decimal.Parse(s); ok {
			return applyOp(decimal.Compare(d, v.Num), op)
		}
		return applyOpBytes(s, []byte(v.Num.String()), op)
	}
	return applyOpBytes(s, []byte(v.Text(f.Source)), op)
}

func applyOp(cmp int, op CmpOp) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func applyOpBytes(a, b []byte, op CmpOp) bool {
	return applyOp(bytes.Compare(a, b), op)
}
