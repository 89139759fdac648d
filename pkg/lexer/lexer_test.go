package lexer

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, src string, want ...Kind) {
	t.Helper()
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("Tokenize(%q) = %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize(%q)[%d] = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	assertKinds(t, "start: say \"hi\"", Ident, Colon, KwSay, Str, EOF)
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	assertKinds(t, "a == b != c && d || e <= f >= g", Ident, Eq, Ident, Neq, Ident, AndAnd, Ident, OrOr, Ident, Lte, Ident, Gte, Ident, EOF)
}

func TestTokenizeIntVsFloat(t *testing.T) {
	toks, err := Tokenize([]byte("42 3.14"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != Int || toks[0].IntVal != 42 {
		t.Fatalf("expected Int 42, got %+v", toks[0])
	}
	if toks[1].Kind != Float || toks[1].FltVal != 3.14 {
		t.Fatalf("expected Float 3.14, got %+v", toks[1])
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize([]byte(`"a\nb"`))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != Str || toks[0].Str != "a\nb" {
		t.Fatalf("expected resolved escape, got %+v", toks[0])
	}
}

func TestTokenizeSkipsLineAndBlockComments(t *testing.T) {
	assertKinds(t, "a // comment\n/* block\ncomment */ b", Ident, Ident, EOF)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	if _, err := Tokenize([]byte(`"unterminated`)); err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}

func TestTokenizeUnterminatedBlockCommentErrors(t *testing.T) {
	if _, err := Tokenize([]byte("/* never closed")); err == nil {
		t.Fatal("expected an error for an unterminated block comment")
	}
}

func TestTokenizeLineAndColumnTracking(t *testing.T) {
	toks, err := Tokenize([]byte("a\nbb"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Fatalf("expected first token at 1:1, got %d:%d", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 1 {
		t.Fatalf("expected second token at 2:1, got %d:%d", toks[1].Line, toks[1].Column)
	}
}

func TestTokenizeUnexpectedCharacterErrors(t *testing.T) {
	if _, err := Tokenize([]byte("@")); err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
}
