package search

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printer renders output lines. Prefixes are colon-separated: filename
// first when enabled, then the line number, then the content.
type printer struct {
	out          io.Writer
	withFilename bool
	lineNumber   bool
}

func (p *printer) line(name string, ln Line) {
	var b strings.Builder
	if p.withFilename {
		b.WriteString(name)
		b.WriteByte(':')
	}
	if p.lineNumber {
		b.WriteString(strconv.Itoa(ln.Num))
		b.WriteByte(':')
	}
	b.WriteString(ln.Text)
	fmt.Fprintln(p.out, b.String())
}

// count emits the per-source match count, prefixed with the source name in
// multi-source runs.
func (p *printer) count(name string, n int) {
	if p.withFilename {
		fmt.Fprintf(p.out, "%s:%d\n", name, n)
	} else {
		fmt.Fprintln(p.out, n)
	}
}

// name emits just the source name, for files-with-matches and
// files-without-match.
func (p *printer) name(name string) {
	fmt.Fprintln(p.out, name)
}
