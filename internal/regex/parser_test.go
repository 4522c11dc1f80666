package regex

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func lit(c rune) Token { return Token{Kind: KindLiteral, Lit: c} }

func wild() Token { return Token{Kind: KindWildcard} }

func digit() Token { return Token{Kind: KindDigit} }

func word() Token { return Token{Kind: KindWord} }

func backref(n int) Token { return Token{Kind: KindBackref, Num: n} }

func class(negated bool, chars ...rune) Token {
	set := make(map[rune]bool, len(chars))
	for _, c := range chars {
		set[c] = true
	}
	return Token{Kind: KindClass, Set: set, Negated: negated}
}

func group(num int, alts ...[]Token) Token {
	return Token{Kind: KindGroup, Num: num, Alts: alts}
}

func quant(t Token, q Quant) Token {
	t.Quant = q
	return t
}

func TestParseLiterals(t *testing.T) {
	p, err := Parse("abc")
	assert.NilError(t, err)
	assert.Assert(t, !p.AnchorStart)
	assert.Assert(t, !p.AnchorEnd)
	assert.DeepEqual(t, p.Tokens, []Token{lit('a'), lit('b'), lit('c')})
}

func TestParseAnchors(t *testing.T) {
	plain, err := Parse("abc")
	assert.NilError(t, err)
	anchored, err := Parse("^abc$")
	assert.NilError(t, err)

	assert.Assert(t, anchored.AnchorStart)
	assert.Assert(t, anchored.AnchorEnd)
	assert.DeepEqual(t, anchored.Tokens, plain.Tokens)
}

func TestParseAnchorCharsOffBoundary(t *testing.T) {
	// Away from the pattern boundaries '^' and '$' are plain literals.
	p, err := Parse("a^b$c")
	assert.NilError(t, err)
	assert.Assert(t, !p.AnchorStart)
	assert.Assert(t, !p.AnchorEnd)
	assert.DeepEqual(t, p.Tokens, []Token{lit('a'), lit('^'), lit('b'), lit('$'), lit('c')})
}

func TestParseEscapedDollarAtEnd(t *testing.T) {
	p, err := Parse(`price\$`)
	assert.NilError(t, err)
	assert.Assert(t, !p.AnchorEnd)
	assert.DeepEqual(t, p.Tokens[len(p.Tokens)-1], lit('$'))
}

func TestParseEscapes(t *testing.T) {
	p, err := Parse(`\d\w\.\\\(\)\[\]\|\+\?\^`)
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		digit(), word(),
		lit('.'), lit('\\'), lit('('), lit(')'), lit('['), lit(']'),
		lit('|'), lit('+'), lit('?'), lit('^'),
	})
}

func TestParseBackreferences(t *testing.T) {
	p, err := Parse(`(a)\1x\9`)
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		group(1, []Token{lit('a')}),
		backref(1),
		lit('x'),
		backref(9),
	})
}

func TestParseWildcard(t *testing.T) {
	p, err := Parse("a.c")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{lit('a'), wild(), lit('c')})
}

func TestParseCharClass(t *testing.T) {
	tests := []struct {
		pattern string
		want    Token
	}{
		{"[abc]", class(false, 'a', 'b', 'c')},
		{"[^xyz]", class(true, 'x', 'y', 'z')},
		{"[a-c]", class(false, 'a', 'b', 'c')},
		{"[a-cx]", class(false, 'a', 'b', 'c', 'x')},
		{"[]a]", class(false, ']', 'a')},
		{"[^]a]", class(true, ']', 'a')},
		{"[a-]", class(false, 'a', '-')},
		{"[.+?(]", class(false, '.', '+', '?', '(')},
	}
	for _, tc := range tests {
		p, err := Parse(tc.pattern)
		assert.NilError(t, err, "pattern %q", tc.pattern)
		assert.DeepEqual(t, p.Tokens, []Token{tc.want})
	}
}

func TestParseGroupNumbering(t *testing.T) {
	p, err := Parse("((a)(b))")
	assert.NilError(t, err)
	want := []Token{
		group(1, []Token{
			group(2, []Token{lit('a')}),
			group(3, []Token{lit('b')}),
		}),
	}
	if diff := cmp.Diff(want, p.Tokens); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGroupNumberingAcrossAlternatives(t *testing.T) {
	// The outer group claims its number before either alternative parses.
	p, err := Parse("(x|(y))")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		group(1,
			[]Token{lit('x')},
			[]Token{group(2, []Token{lit('y')})},
		),
	})
}

func TestParseAlternationSplitSkipsNested(t *testing.T) {
	p, err := Parse("(stricter|(gun|laws))")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		group(1,
			[]Token{lit('s'), lit('t'), lit('r'), lit('i'), lit('c'), lit('t'), lit('e'), lit('r')},
			[]Token{group(2, []Token{lit('g'), lit('u'), lit('n')}, []Token{lit('l'), lit('a'), lit('w'), lit('s')})},
		),
	})
}

func TestParseQuantifierBinding(t *testing.T) {
	p, err := Parse("ab+c?")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		lit('a'),
		quant(lit('b'), QuantPlus),
		quant(lit('c'), QuantOptional),
	})

	p, err = Parse("(ab)+")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{
		quant(group(1, []Token{lit('a'), lit('b')}), QuantPlus),
	})
}

func TestParseTopLevelPipeIsLiteral(t *testing.T) {
	p, err := Parse("a|b")
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Tokens, []Token{lit('a'), lit('|'), lit('b')})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		pattern string
		pos     int
	}{
		{"(ab", 0},
		{"a(b(c)", 1},
		{"[ab", 0},
		{`ab\`, 2},
		{"+a", 0},
		{"?a", 0},
		{"(+a)", 1},
		{"(a|+b)", 3},
		{"a++", 2},
		{"a??", 2},
	}
	for _, tc := range tests {
		_, err := Parse(tc.pattern)
		assert.Assert(t, err != nil, "pattern %q should not parse", tc.pattern)
		var serr *SyntaxError
		assert.Assert(t, errors.As(err, &serr), "pattern %q: %v", tc.pattern, err)
		assert.Equal(t, serr.Pos, tc.pos, "pattern %q", tc.pattern)
	}
}

func TestParseEmptyPattern(t *testing.T) {
	p, err := Parse("")
	assert.NilError(t, err)
	assert.Assert(t, len(p.Tokens) == 0)

	p, err = Parse("^$")
	assert.NilError(t, err)
	assert.Assert(t, p.AnchorStart)
	assert.Assert(t, p.AnchorEnd)
	assert.Assert(t, len(p.Tokens) == 0)
}
