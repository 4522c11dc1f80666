package regex

import (
	"strings"
	"unicode"
)

// maxGroups is the number of capture slots; backreferences are \1..\9.
const maxGroups = 9

type capture struct {
	text []rune
	ok   bool
}

// captures is the capture table for a single match attempt. It is a fixed
// array so a snapshot is a plain value copy; the text slices alias the input
// and are never mutated.
type captures [maxGroups]capture

func (c *captures) get(n int) ([]rune, bool) {
	if n < 1 || n > maxGroups {
		return nil, false
	}
	return c[n-1].text, c[n-1].ok
}

func (c *captures) put(n int, text []rune) {
	if n >= 1 && n <= maxGroups {
		c[n-1] = capture{text: text, ok: true}
	}
}

// endMode controls where a token sequence is allowed to stop.
type endMode int

const (
	// endAnywhere accepts the first position the sequence can reach.
	endAnywhere endMode = iota
	// endExact requires the sequence to consume the input completely.
	endExact
)

// Match reports whether the pattern matches anywhere in input. Under
// ignoreCase the input and the pattern's literal characters are folded to
// lowercase before comparison, so captured text compares case-insensitively
// as well.
func (p *Pattern) Match(input string, ignoreCase bool) bool {
	tokens := p.Tokens
	in := []rune(input)
	if ignoreCase {
		tokens = foldTokens(tokens)
		in = []rune(strings.ToLower(input))
	}

	mode := endAnywhere
	if p.AnchorEnd {
		mode = endExact
	}

	if p.AnchorStart {
		var caps captures
		_, ok := seqMatch(tokens, 0, in, 0, &caps, mode)
		return ok
	}
	min := minMatchLength(tokens)
	for start := 0; start+min <= len(in); start++ {
		var caps captures
		if _, ok := seqMatch(tokens, 0, in, start, &caps, mode); ok {
			return true
		}
	}
	return false
}

// LiteralOnly reports whether the pattern is a plain unanchored sequence of
// unquantified literal characters, and returns that text. Such patterns can
// be matched by substring search alone.
func (p *Pattern) LiteralOnly() (string, bool) {
	if p.AnchorStart || p.AnchorEnd || len(p.Tokens) == 0 {
		return "", false
	}
	var b strings.Builder
	for i := range p.Tokens {
		t := &p.Tokens[i]
		if t.Kind != KindLiteral || t.Quant != QuantNone {
			return "", false
		}
		b.WriteRune(t.Lit)
	}
	return b.String(), true
}

// seqMatch matches tokens[i:] against in starting at position j and returns
// the input position after the match. Under endExact the sequence must end
// at len(in). Branches that mutate caps restore it before reporting failure,
// so a false return leaves the table as it was on entry.
func seqMatch(tokens []Token, i int, in []rune, j int, caps *captures, mode endMode) (int, bool) {
	if i == len(tokens) {
		if mode == endExact && j != len(in) {
			return 0, false
		}
		return j, true
	}

	t := &tokens[i]
	switch t.Kind {
	case KindGroup:
		return groupMatch(tokens, i, in, j, caps, mode)
	case KindBackref:
		return backrefMatch(tokens, i, in, j, caps, mode)
	}

	switch t.Quant {
	case QuantPlus:
		// Greedy: take the longest run first, give back one character at a
		// time while the rest of the sequence refuses to match.
		max := countGreedy(t, in, j)
		for k := max; k >= 1; k-- {
			saved := *caps
			if end, ok := seqMatch(tokens, i+1, in, j+k, caps, mode); ok {
				return end, true
			}
			*caps = saved
		}
		return 0, false
	case QuantOptional:
		if j < len(in) && charMatches(t, in[j]) {
			saved := *caps
			if end, ok := seqMatch(tokens, i+1, in, j+1, caps, mode); ok {
				return end, true
			}
			*caps = saved
		}
		return seqMatch(tokens, i+1, in, j, caps, mode)
	default:
		if j >= len(in) || !charMatches(t, in[j]) {
			return 0, false
		}
		return seqMatch(tokens, i+1, in, j+1, caps, mode)
	}
}

// groupMatch handles a group token at tokens[i], including its quantifier
// and the continuation tokens[i+1:].
func groupMatch(tokens []Token, i int, in []rune, j int, caps *captures, mode endMode) (int, bool) {
	t := &tokens[i]
	switch t.Quant {
	case QuantPlus:
		return groupPlus(tokens, i, in, j, caps, mode)
	case QuantOptional:
		saved := *caps
		for _, alt := range t.Alts {
			*caps = saved
			if pos, ok := seqMatch(alt, 0, in, j, caps, endAnywhere); ok {
				caps.put(t.Num, in[j:pos])
				if end, ok := seqMatch(tokens, i+1, in, pos, caps, mode); ok {
					return end, true
				}
			}
		}
		*caps = saved
		return seqMatch(tokens, i+1, in, j, caps, mode)
	default:
		// Alternatives in order; within one alternative try the longest
		// possible span first and shrink until the continuation succeeds.
		saved := *caps
		for _, alt := range t.Alts {
			for end := len(in); end >= j; end-- {
				*caps = saved
				if _, ok := seqMatch(alt, 0, in[:end], j, caps, endExact); ok {
					caps.put(t.Num, in[j:end])
					if fin, ok := seqMatch(tokens, i+1, in, end, caps, mode); ok {
						return fin, true
					}
				}
			}
		}
		*caps = saved
		return 0, false
	}
}

// groupPlus expands a '+' group greedily, recording the position and capture
// table after every successful repeat, then backs off repeat by repeat. The
// backoff resumes from the recorded end of the last kept repeat with the
// capture table as it stood at that point.
func groupPlus(tokens []Token, i int, in []rune, j int, caps *captures, mode endMode) (int, bool) {
	t := &tokens[i]

	type repeat struct {
		pos  int
		caps captures
	}
	var repeats []repeat
	cur := *caps
	pos := j
	for {
		next := cur
		end, ok := groupOnce(t, in, pos, &next)
		if !ok {
			break
		}
		repeats = append(repeats, repeat{pos: end, caps: next})
		if end == pos {
			break // an empty repeat would never advance
		}
		cur = next
		pos = end
	}
	if len(repeats) == 0 {
		return 0, false
	}

	for k := len(repeats) - 1; k >= 0; k-- {
		after := repeats[k].caps
		if end, ok := seqMatch(tokens, i+1, in, repeats[k].pos, &after, mode); ok {
			*caps = after
			return end, true
		}
	}
	return 0, false
}

// groupOnce consumes a single occurrence of the group: the first alternative
// that matches wins and its span is captured under the group's number.
func groupOnce(t *Token, in []rune, j int, caps *captures) (int, bool) {
	saved := *caps
	for _, alt := range t.Alts {
		*caps = saved
		if pos, ok := seqMatch(alt, 0, in, j, caps, endAnywhere); ok {
			caps.put(t.Num, in[j:pos])
			return pos, true
		}
	}
	*caps = saved
	return 0, false
}

// backrefMatch consumes the text most recently captured by the referenced
// group. A reference to a group that has not captured on the current path
// fails here rather than erroring.
func backrefMatch(tokens []Token, i int, in []rune, j int, caps *captures, mode endMode) (int, bool) {
	t := &tokens[i]
	text, ok := caps.get(t.Num)
	if !ok {
		return 0, false
	}

	switch t.Quant {
	case QuantPlus:
		var ends []int
		pos := j
		for runesHavePrefix(in, pos, text) {
			pos += len(text)
			ends = append(ends, pos)
			if len(text) == 0 {
				break
			}
		}
		for k := len(ends) - 1; k >= 0; k-- {
			saved := *caps
			if end, ok := seqMatch(tokens, i+1, in, ends[k], caps, mode); ok {
				return end, true
			}
			*caps = saved
		}
		return 0, false
	case QuantOptional:
		if runesHavePrefix(in, j, text) {
			saved := *caps
			if end, ok := seqMatch(tokens, i+1, in, j+len(text), caps, mode); ok {
				return end, true
			}
			*caps = saved
		}
		return seqMatch(tokens, i+1, in, j, caps, mode)
	default:
		if !runesHavePrefix(in, j, text) {
			return 0, false
		}
		return seqMatch(tokens, i+1, in, j+len(text), caps, mode)
	}
}

func runesHavePrefix(in []rune, j int, text []rune) bool {
	if j+len(text) > len(in) {
		return false
	}
	for k, r := range text {
		if in[j+k] != r {
			return false
		}
	}
	return true
}

// charMatches tests a single character against a non-group token.
func charMatches(t *Token, c rune) bool {
	switch t.Kind {
	case KindLiteral:
		return c == t.Lit
	case KindWildcard:
		return true
	case KindDigit:
		return c >= '0' && c <= '9'
	case KindWord:
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	case KindClass:
		return t.Set[c] != t.Negated
	}
	return false
}

// countGreedy counts consecutive characters matching t starting at j.
func countGreedy(t *Token, in []rune, j int) int {
	n := 0
	for j+n < len(in) && charMatches(t, in[j+n]) {
		n++
	}
	return n
}

// minMatchLength is the fewest input characters the token sequence can
// consume: '?' contributes nothing, a group contributes its cheapest
// alternative, everything else at least one character. Used to cut the set
// of start positions worth trying.
func minMatchLength(tokens []Token) int {
	total := 0
	for i := range tokens {
		t := &tokens[i]
		if t.Quant == QuantOptional {
			continue
		}
		if t.Kind == KindGroup {
			best := -1
			for _, alt := range t.Alts {
				if n := minMatchLength(alt); best < 0 || n < best {
					best = n
				}
			}
			if best > 0 {
				total += best
			}
			continue
		}
		total++
	}
	return total
}

// foldTokens returns a lowercase copy of the token tree for case-insensitive
// matching. Escapes, wildcards and backreferences need no folding.
func foldTokens(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i := range tokens {
		t := tokens[i]
		switch t.Kind {
		case KindLiteral:
			t.Lit = unicode.ToLower(t.Lit)
		case KindClass:
			set := make(map[rune]bool, len(t.Set))
			for r := range t.Set {
				set[unicode.ToLower(r)] = true
			}
			t.Set = set
		case KindGroup:
			alts := make([][]Token, len(t.Alts))
			for a, alt := range t.Alts {
				alts[a] = foldTokens(alt)
			}
			t.Alts = alts
		}
		out[i] = t
	}
	return out
}
