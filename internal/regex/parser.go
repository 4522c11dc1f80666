package regex

type parser struct {
	src    []rune
	pos    int
	end    int
	groups int
}

// Parse converts a pattern string into a Pattern. A '^' at index 0 and an
// unescaped '$' at the final index become anchor flags; anywhere else both
// characters are ordinary literals. Group numbers are assigned left to right
// as each '(' is seen, nested groups included.
func Parse(pattern string) (*Pattern, error) {
	src := []rune(pattern)
	p := &parser{src: src, end: len(src)}

	out := &Pattern{Source: pattern}
	if p.end > p.pos && src[0] == '^' {
		out.AnchorStart = true
		p.pos = 1
	}
	if p.end > p.pos && src[p.end-1] == '$' && !escapedAt(src, p.end-1) {
		out.AnchorEnd = true
		p.end--
	}

	tokens, err := p.sequence(false)
	if err != nil {
		return nil, err
	}
	out.Tokens = tokens
	return out, nil
}

// escapedAt reports whether src[i] is preceded by an odd run of backslashes.
func escapedAt(src []rune, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// sequence parses tokens until the end of the pattern, or until an
// unescaped '|' or ')' when inside a group. At the top level those two
// characters have no special meaning and parse as literals.
func (p *parser) sequence(inGroup bool) ([]Token, error) {
	var tokens []Token
	for p.pos < p.end {
		c := p.src[p.pos]
		if inGroup && (c == '|' || c == ')') {
			break
		}
		switch c {
		case '+', '?':
			if len(tokens) == 0 {
				return nil, &SyntaxError{p.pos, "quantifier with nothing to repeat"}
			}
			last := &tokens[len(tokens)-1]
			if last.Quant != QuantNone {
				return nil, &SyntaxError{p.pos, "quantifier follows a quantifier"}
			}
			if c == '+' {
				last.Quant = QuantPlus
			} else {
				last.Quant = QuantOptional
			}
			p.pos++
		case '(':
			tok, err := p.group()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case '[':
			tok, err := p.class()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case '\\':
			tok, err := p.escape()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case '.':
			tokens = append(tokens, Token{Kind: KindWildcard})
			p.pos++
		default:
			tokens = append(tokens, Token{Kind: KindLiteral, Lit: c})
			p.pos++
		}
	}
	return tokens, nil
}

// group parses '( alt | alt | ... )'. The group number is claimed when the
// opening parenthesis is seen, so nested groups inside the first alternative
// get higher numbers than this group and numbering is stable across
// alternatives.
func (p *parser) group() (Token, error) {
	open := p.pos
	p.pos++
	p.groups++
	num := p.groups

	var alts [][]Token
	for {
		alt, err := p.sequence(true)
		if err != nil {
			return Token{}, err
		}
		alts = append(alts, alt)
		if p.pos >= p.end {
			return Token{}, &SyntaxError{open, "missing closing parenthesis"}
		}
		if p.src[p.pos] == '|' {
			p.pos++
			continue
		}
		p.pos++ // ')'
		return Token{Kind: KindGroup, Num: num, Alts: alts}, nil
	}
}

// class parses '[...]'. A '^' right after the bracket negates the class, a
// ']' in the first content position is a literal, and 'a-z' expands to the
// inclusive range. Every other metacharacter loses its meaning inside.
func (p *parser) class() (Token, error) {
	open := p.pos
	p.pos++
	negated := false
	if p.pos < p.end && p.src[p.pos] == '^' {
		negated = true
		p.pos++
	}

	set := make(map[rune]bool)
	first := true
	for p.pos < p.end {
		c := p.src[p.pos]
		if c == ']' && !first {
			p.pos++
			return Token{Kind: KindClass, Set: set, Negated: negated}, nil
		}
		if p.pos+2 < p.end && p.src[p.pos+1] == '-' && p.src[p.pos+2] != ']' && p.src[p.pos+2] >= c {
			for r := c; r <= p.src[p.pos+2]; r++ {
				set[r] = true
			}
			p.pos += 3
		} else {
			set[c] = true
			p.pos++
		}
		first = false
	}
	return Token{}, &SyntaxError{open, "missing closing bracket"}
}

// escape parses a backslash sequence: \d and \w character classes, \1..\9
// backreferences, and otherwise a literal of the escaped character.
func (p *parser) escape() (Token, error) {
	slash := p.pos
	if p.pos+1 >= p.end {
		return Token{}, &SyntaxError{slash, "trailing backslash"}
	}
	c := p.src[p.pos+1]
	p.pos += 2
	switch {
	case c == 'd':
		return Token{Kind: KindDigit}, nil
	case c == 'w':
		return Token{Kind: KindWord}, nil
	case c >= '1' && c <= '9':
		return Token{Kind: KindBackref, Num: int(c - '0')}, nil
	default:
		return Token{Kind: KindLiteral, Lit: c}, nil
	}
}
