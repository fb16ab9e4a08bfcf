package filter

import "testing"

func lexAll(t *testing.T, src string) []Tok {
	t.Helper()
	l := NewLexer(src)
	var toks []Tok
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == TEOF {
			return toks
		}
	}
}

func TestLexerPunctuation(t *testing.T) {
	toks := lexAll(t, "[1:2]{,}()")
	wantKinds := []TokKind{TLBracket, TInt, TColon, TInt, TRBracket, TLBrace, TComma, TRBrace, TLParen, TRParen, TEOF}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexerTwoCharOperators(t *testing.T) {
	toks := lexAll(t, "&& || == != >= <=")
	want := []TokKind{TAndAnd, TOrOr, TEqEq, TNotEq, TGte, TLte, TEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks := lexAll(t, `"hello world"`)
	if toks[0].Kind != TString {
		t.Fatalf("token 0 kind = %v, want TString", toks[0].Kind)
	}
	if toks[0].Text(`"hello world"`) != `"hello world"` {
		t.Errorf("Text() = %q, want quoted text", toks[0].Text(`"hello world"`))
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer(`"hello`)
	_, err := l.Next()
	if err == nil {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestLexerIntToken(t *testing.T) {
	toks := lexAll(t, "42")
	if toks[0].Kind != TInt || toks[0].Int != 42 {
		t.Fatalf("got %+v, want TInt{Int:42}", toks[0])
	}
}

func TestLexerIdentBareword(t *testing.T) {
	toks := lexAll(t, "matches")
	if toks[0].Kind != TIdent {
		t.Fatalf("token kind = %v, want TIdent", toks[0].Kind)
	}
	if toks[0].Text("matches") != "matches" {
		t.Errorf("Text() = %q, want matches", toks[0].Text("matches"))
	}
}

func TestLexerSkipsWhitespace(t *testing.T) {
	toks := lexAll(t, "  1   2  ")
	if len(toks) != 3 || toks[0].Kind != TInt || toks[1].Kind != TInt || toks[2].Kind != TEOF {
		t.Fatalf("got %+v, want [TInt TInt TEOF]", toks)
	}
}
