package filter

import (
	"regexp"
	"strings"

	"github.com/csvquery/csvex/internal/decimal"
)

// Parser builds a Filter's node arena from source text, using at most one
// token of look-ahead.
type Parser struct {
	lex     *Lexer
	src     string
	numCols int // -1 disables the column-bounds check (used by the highlighter)

	tok Tok

	nodes  []Node
	values []Value
	regex  []*regexp.Regexp

	// tag, if set, is called once for every token the parser recognizes a
	// grammatical role for, in source order. The highlighter runs the same
	// parser with numCols==-1 and tag set instead of building an arena.
	tag func(Tok, Style)
}

func (p *Parser) tagTok(style Style) {
	if p.tag != nil {
		p.tag(p.tok, style)
	}
}

// Compile parses source into an immutable Filter. numCols is the current
// column count; a column reference >= numCols is a compile error. An empty
// (or whitespace-only) source compiles to the identity filter.
func Compile(source string, numCols int) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return Identity(), nil
	}
	p := &Parser{lex: NewLexer(source), src: source, numCols: numCols}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TEOF {
		return nil, &CompileError{Range: p.tok.Span(), Msg: "unexpected trailing input"}
	}
	return &Filter{Source: source, Values: p.values, Regex: p.regex, Nodes: p.nodes, Start: root}, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) text() string { return p.tok.Text(p.src) }

func (p *Parser) errorHere(msg string) error {
	return &CompileError{Range: p.tok.Span(), Msg: msg}
}

func (p *Parser) addNode(n Node) int {
	p.nodes = append(p.nodes, n)
	return len(p.nodes) - 1
}

// parseExpr implements: expr := 'not' expr | '(' expr ')' | action (logi expr)?
func (p *Parser) parseExpr() (int, error) {
	switch {
	case p.tok.Kind == TIdent && p.text() == "not":
		p.tagTok(StyleLogi)
		if err := p.advance(); err != nil {
			return 0, err
		}
		child, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		return p.addNode(Node{Kind: NodeUnary, Negate: true, Child: child}), nil

	case p.tok.Kind == TLParen:
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
		child, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.tok.Kind != TRParen {
			return 0, p.errorHere("expected ')'")
		}
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
		return p.addNode(Node{Kind: NodeUnary, Negate: false, Child: child}), nil

	default:
		actionIdx, err := p.parseAction()
		if err != nil {
			return 0, err
		}
		if op, ok := p.peekLogi(); ok {
			p.tagTok(StyleLogi)
			if err := p.advance(); err != nil {
				return 0, err
			}
			rhs, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			return p.addNode(Node{Kind: NodeBinary, Lhs: actionIdx, Rhs: rhs, BinOp: op}), nil
		}
		return actionIdx, nil
	}
}

func (p *Parser) peekLogi() (BinOp, bool) {
	switch {
	case p.tok.Kind == TAndAnd:
		return BinAnd, true
	case p.tok.Kind == TOrOr:
		return BinOr, true
	case p.tok.Kind == TIdent && p.text() == "and":
		return BinAnd, true
	case p.tok.Kind == TIdent && p.text() == "or":
		return BinOr, true
	}
	return 0, false
}

// parseAction implements: action := column (match_op | cmp_op)?
func (p *Parser) parseAction() (int, error) {
	if p.tok.Kind != TInt {
		return 0, p.errorHere("expected column index")
	}
	colTok := p.tok
	col := int(p.tok.Int)
	if p.numCols >= 0 && col >= p.numCols {
		return 0, &CompileError{Range: colTok.Span(), Msg: "column index out of range"}
	}
	p.tagTok(StyleId)
	if err := p.advance(); err != nil {
		return 0, err
	}

	fr := FieldRange{Start: 0, End: -1}
	if p.tok.Kind == TLBracket {
		var err error
		fr, err = p.parseRange()
		if err != nil {
			return 0, err
		}
	}

	switch {
	case p.tok.Kind == TTilde || (p.tok.Kind == TIdent && p.text() == "matches"):
		return p.parseMatch(col, fr)
	case p.isCmpOpTok():
		return p.parseCmp(col, fr)
	default:
		return p.addNode(Node{Kind: NodeExist, Col: col, Range: fr}), nil
	}
}

func (p *Parser) isCmpOpTok() bool {
	switch p.tok.Kind {
	case TEqEq, TNotEq, TGt, TLt, TGte, TLte:
		return true
	case TIdent:
		switch p.text() {
		case "eq", "ne", "gt", "lt", "ge", "le":
			return true
		}
	}
	return false
}

func cmpOpFromTok(tok Tok, text string) CmpOp {
	switch tok.Kind {
	case TEqEq:
		return OpEq
	case TNotEq:
		return OpNeq
	case TGt:
		return OpGt
	case TLt:
		return OpLt
	case TGte:
		return OpGte
	case TLte:
		return OpLte
	}
	switch text {
	case "eq":
		return OpEq
	case "ne":
		return OpNeq
	case "gt":
		return OpGt
	case "lt":
		return OpLt
	case "ge":
		return OpGte
	case "le":
		return OpLte
	}
	return OpEq
}

// parseRange implements the bracket sub-slice grammar:
//
//	'[' uint? (':' uint?)? ']'   // start .. end
//	'[' uint? ('~' uint?)? ']'   // start .. start+len
//	'[' uint ']'                 // single index ⇒ [start, start+1]
func (p *Parser) parseRange() (FieldRange, error) {
	p.tagTok(StyleNone) // '['
	if err := p.advance(); err != nil {
		return FieldRange{}, err
	}

	hasS, s := false, 0
	if p.tok.Kind == TInt {
		hasS, s = true, int(p.tok.Int)
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return FieldRange{}, err
		}
	}

	switch p.tok.Kind {
	case TRBracket:
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return FieldRange{}, err
		}
		if hasS {
			return FieldRange{Start: s, End: s + 1}, nil
		}
		return FieldRange{Start: 0, End: -1}, nil

	case TColon, TTilde:
		isLen := p.tok.Kind == TTilde
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return FieldRange{}, err
		}
		hasN, n := false, 0
		if p.tok.Kind == TInt {
			hasN, n = true, int(p.tok.Int)
			p.tagTok(StyleNone)
			if err := p.advance(); err != nil {
				return FieldRange{}, err
			}
		}
		if p.tok.Kind != TRBracket {
			return FieldRange{}, p.errorHere("expected ']'")
		}
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return FieldRange{}, err
		}

		start := 0
		if hasS {
			start = s
		}
		switch {
		case !hasS && !hasN:
			return FieldRange{Start: 0, End: -1}, nil
		case !hasS && hasN:
			return FieldRange{Start: 0, End: n}, nil
		case hasS && !hasN:
			return FieldRange{Start: start, End: -1}, nil
		default: // hasS && hasN
			if isLen {
				return FieldRange{Start: start, End: start + n}, nil
			}
			if n < s {
				return FieldRange{}, p.errorHere("range end before start")
			}
			return FieldRange{Start: start, End: n}, nil
		}

	default:
		return FieldRange{}, p.errorHere("expected ':' , '~' or ']'")
	}
}

func (p *Parser) isLiteralTok() bool {
	switch p.tok.Kind {
	case TString, TIdent, TInt:
		return true
	}
	return false
}

func (p *Parser) parseValueLiteral() (Value, error) {
	if !p.isLiteralTok() {
		return Value{}, p.errorHere("expected a value")
	}
	tok := p.tok
	if tok.Kind == TString {
		p.tagTok(StyleString)
		v := Value{Kind: ValueString, Range: tok.Span(), Quoted: true}
		return v, p.advance()
	}
	text := p.text()
	if d, ok := decimal.Parse([]byte(text)); ok {
		p.tagTok(StyleNumber)
		v := Value{Kind: ValueNumber, Num: d}
		return v, p.advance()
	}
	p.tagTok(StyleString)
	v := Value{Kind: ValueString, Range: tok.Span(), Quoted: false}
	return v, p.advance()
}

func (p *Parser) parseRegexLiteral() (*regexp.Regexp, error) {
	if !p.isLiteralTok() {
		return nil, p.errorHere("expected a regex")
	}
	tok := p.tok
	text := tok.Text(p.src)
	if tok.Kind == TString && len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	// Highlighting never compiles the pattern: an invalid regex should still
	// colour as a regex literal, and compiling here would be wasted work on
	// every keystroke.
	if p.tag != nil {
		p.tagTok(StyleRegex)
		return nil, p.advance()
	}
	re, err := regexp.Compile(text)
	if err != nil {
		return nil, &CompileError{Range: tok.Span(), Msg: "invalid regular expression"}
	}
	return re, p.advance()
}

func (p *Parser) parseCombine() Combine {
	if p.tok.Kind == TIdent {
		switch p.text() {
		case "all":
			p.tagTok(StyleAction)
			_ = p.advance()
			return CombineAll
		case "any":
			p.tagTok(StyleAction)
			_ = p.advance()
			return CombineAny
		}
	}
	return CombineAll
}

func (p *Parser) parseMatch(col int, fr FieldRange) (int, error) {
	p.tagTok(StyleAction) // 'matches' / '~'
	if err := p.advance(); err != nil {
		return 0, err
	}
	combine := p.parseCombine()

	start := len(p.regex)
	if p.tok.Kind == TLBrace {
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
		for {
			re, err := p.parseRegexLiteral()
			if err != nil {
				return 0, err
			}
			p.regex = append(p.regex, re)
			if p.tok.Kind == TComma {
				p.tagTok(StyleNone)
				if err := p.advance(); err != nil {
					return 0, err
				}
				continue
			}
			break
		}
		if p.tok.Kind != TRBrace {
			return 0, p.errorHere("expected '}'")
		}
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
	} else {
		re, err := p.parseRegexLiteral()
		if err != nil {
			return 0, err
		}
		p.regex = append(p.regex, re)
	}
	end := len(p.regex)
	return p.addNode(Node{Kind: NodeMatch, Col: col, Range: fr, Combine: combine, Regex: [2]int{start, end}}), nil
}

func (p *Parser) parseCmp(col int, fr FieldRange) (int, error) {
	opTok := p.tok
	op := cmpOpFromTok(opTok, p.text())
	p.tagTok(StyleAction)
	if err := p.advance(); err != nil {
		return 0, err
	}
	combine := p.parseCombine()

	start := len(p.values)
	if p.tok.Kind == TLBrace {
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
		for {
			v, err := p.parseValueLiteral()
			if err != nil {
				return 0, err
			}
			p.values = append(p.values, v)
			if p.tok.Kind == TComma {
				p.tagTok(StyleNone)
				if err := p.advance(); err != nil {
					return 0, err
				}
				continue
			}
			break
		}
		if p.tok.Kind != TRBrace {
			return 0, p.errorHere("expected '}'")
		}
		p.tagTok(StyleNone)
		if err := p.advance(); err != nil {
			return 0, err
		}
	} else {
		v, err := p.parseValueLiteral()
		if err != nil {
			return 0, err
		}
		p.values = append(p.values, v)
	}
	end := len(p.values)
	return p.addNode(Node{Kind: NodeCmp, Col: col, Range: fr, Op: op, Combine: combine, Values: [2]int{start, end}}), nil
}
