package search

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/funkybooboo/grep/internal/regex"
)

// Options control how the searcher decides and renders hits. A line hits
// when any pattern matches it; Invert negates that decision before anything
// else happens.
type Options struct {
	IgnoreCase        bool
	Invert            bool
	Count             bool
	Quiet             bool
	LineNumber        bool
	WithFilename      bool
	FilesWithMatches  bool
	FilesWithoutMatch bool
	MaxCount          int // 0 = unlimited
	Before            int
	After             int
}

// Searcher runs a compiled pattern set over sources. Unreadable sources are
// diagnosed on the error writer and skipped; they never abort a run.
type Searcher struct {
	patterns []*regex.Pattern
	opts     Options
	pr       printer
	errw     io.Writer
	pre      *prefilter
}

func New(patterns []*regex.Pattern, opts Options, out, errw io.Writer) *Searcher {
	return &Searcher{
		patterns: patterns,
		opts:     opts,
		pr:       printer{out: out, withFilename: opts.WithFilename, lineNumber: opts.LineNumber},
		errw:     errw,
		pre:      newPrefilter(patterns, opts.IgnoreCase),
	}
}

// sourceState is the per-source scan state: the bounded before-context
// queue, the after-context countdown, and the set of line numbers already
// printed, which guarantees no line is emitted twice.
type sourceState struct {
	printed map[int]bool
	before  []Line
	after   int
	hits    int
	matched bool
}

// SearchReader scans a stream such as standard input. Context options do
// not apply to streams.
func (s *Searcher) SearchReader(name string, r io.Reader) bool {
	matched, err := s.scan(name, r, false)
	if err != nil {
		s.warn(name, reason(err))
	}
	return matched
}

// SearchFile scans one named file with full context support.
func (s *Searcher) SearchFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		s.warn(path, reason(err))
		return false
	}
	if info.IsDir() {
		s.warn(path, "is a directory")
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.warn(path, reason(err))
		return false
	}
	// A file with invalid UTF-8 anywhere is skipped before any line is emitted.
	if !utf8.Valid(data) {
		s.warn(path, reason(errNotUTF8))
		return false
	}
	matched, err := s.scan(path, bytes.NewReader(data), true)
	if err != nil {
		s.warn(path, reason(err))
	}
	return matched
}

// SearchDir walks root and scans every regular file, in sorted order.
// Traversal errors are diagnosed and skipped like unreadable files.
func (s *Searcher) SearchDir(root string) bool {
	info, err := os.Stat(root)
	if err != nil {
		s.warn(root, reason(err))
		return false
	}
	if !info.IsDir() {
		s.warn(root, "not a directory")
		return false
	}
	matched := false
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.warn(path, reason(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if s.SearchFile(path) {
			matched = true
			if s.opts.Quiet {
				return fs.SkipAll
			}
		}
		return nil
	})
	return matched
}

// hit decides whether a line is emitted under the current options.
func (s *Searcher) hit(text string) bool {
	matched := false
	if s.pre != nil {
		matched = s.pre.match(text)
	} else {
		for _, p := range s.patterns {
			if p.Match(text, s.opts.IgnoreCase) {
				matched = true
				break
			}
		}
	}
	if s.opts.Invert {
		return !matched
	}
	return matched
}

func (s *Searcher) scan(name string, r io.Reader, withContext bool) (bool, error) {
	useContext := withContext && !s.opts.Count && (s.opts.Before > 0 || s.opts.After > 0)
	st := &sourceState{}
	if useContext {
		st.printed = make(map[int]bool)
	}

	ls := newLineScanner(r)
	for ls.Scan() {
		ln := ls.Line()
		if s.hit(ln.Text) {
			st.matched = true
			st.hits++
			if s.opts.Quiet || s.opts.FilesWithMatches || s.opts.FilesWithoutMatch {
				break
			}
			if !s.opts.Count {
				s.flushBefore(name, st)
				s.emit(name, ln, st)
				if useContext {
					st.after = s.opts.After
				}
			}
			if s.opts.MaxCount > 0 && st.hits >= s.opts.MaxCount {
				break
			}
			continue
		}
		if !useContext {
			continue
		}
		if st.after > 0 {
			s.emit(name, ln, st)
			st.after--
		}
		if s.opts.Before > 0 {
			st.before = append(st.before, ln)
			if len(st.before) > s.opts.Before {
				st.before = st.before[1:]
			}
		}
	}
	if err := ls.Err(); err != nil {
		return st.matched, err
	}

	switch {
	case s.opts.Quiet:
	case s.opts.FilesWithMatches:
		if st.matched {
			s.pr.name(name)
		}
	case s.opts.FilesWithoutMatch:
		if !st.matched {
			s.pr.name(name)
		}
	case s.opts.Count:
		s.pr.count(name, st.hits)
	}
	return st.matched, nil
}

// emit prints a line unless its number was already printed for this source.
func (s *Searcher) emit(name string, ln Line, st *sourceState) {
	if st.printed != nil {
		if st.printed[ln.Num] {
			return
		}
		st.printed[ln.Num] = true
	}
	s.pr.line(name, ln)
}

// flushBefore prints the queued leading context ahead of a hit.
func (s *Searcher) flushBefore(name string, st *sourceState) {
	for _, ln := range st.before {
		s.emit(name, ln, st)
	}
	st.before = st.before[:0]
}

func (s *Searcher) warn(name, description string) {
	fmt.Fprintf(s.errw, "%s: %s\n", name, description)
}
