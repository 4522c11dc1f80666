// Package cli wires the command-line surface to the search package and maps
// results to grep exit codes: 0 for a hit, 1 for none, 2 for bad arguments
// or an unusable pattern.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funkybooboo/grep/internal/regex"
	"github.com/funkybooboo/grep/internal/search"
)

const version = "1.2.0"

const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

const stdinName = "(standard input)"

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	ran    bool
	code   int
}

// Execute runs the command and returns the process exit code.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, code: exitNoMatch}
	cmd := a.newRootCmd()
	if args == nil {
		// cobra falls back to os.Args when given nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		var serr *regex.SyntaxError
		if errors.As(err, &serr) {
			fmt.Fprintln(stderr, "grep: invalid pattern")
		} else {
			fmt.Fprintf(stderr, "grep: %s\n", strings.ToLower(err.Error()))
		}
		return exitError
	}
	if !a.ran {
		// --help or --version short-circuited before the run function.
		return exitMatch
	}
	return a.code
}

func (a *app) newRootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "grep [flags] PATTERN [FILE...]",
		Short: "Search for patterns in files using a built-in regex engine",
		Long: `Search for lines matching a pattern, like Unix grep, using a
self-contained regular-expression engine.

Pattern syntax:
  literals      match exact characters
  (group)       capture group with alternation support
  a|b           alternation inside a group
  +             one or more of the previous token
  ?             zero or one of the previous token
  [abc]         character class, [a-z] ranges
  [^abc]        negated character class
  ^             start of line anchor
  $             end of line anchor
  \1 .. \9      backreferences to captured groups
  \d, \w        digit and word character classes
  .             any character

Examples:
  grep "error" log.txt
  grep -r -n "^import" src/
  grep -i -C 2 "(\w+) and \1" notes.txt`,
		Args:          cobra.ArbitraryArgs,
		RunE:          a.run,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	fl := c.Flags()
	fl.BoolP("extended-regexp", "E", false, "Accepted for compatibility; extended syntax is the default")
	fl.StringArrayP("regexp", "e", nil, "Use PATTERN for matching; repeatable")
	fl.StringArrayP("file", "f", nil, "Read patterns from FILE, one per line")
	fl.BoolP("recursive", "r", false, "Descend into each FILE as a directory")
	fl.BoolP("dereference-recursive", "R", false, "Same as --recursive")
	fl.BoolP("line-number", "n", false, "Prefix each output line with its line number")
	fl.BoolP("ignore-case", "i", false, "Ignore case distinctions")
	fl.BoolP("invert-match", "v", false, "Select non-matching lines")
	fl.BoolP("count", "c", false, "Print only a count of matching lines per source")
	fl.IntP("after-context", "A", 0, "Print NUM lines of trailing context")
	fl.IntP("before-context", "B", 0, "Print NUM lines of leading context")
	fl.IntP("context", "C", 0, "Print NUM lines of context before and after")
	fl.BoolP("quiet", "q", false, "Suppress all output; exit on first hit")
	fl.Bool("silent", false, "Same as --quiet")
	fl.IntP("max-count", "m", 0, "Stop after NUM hits per source (0 = unlimited)")
	fl.BoolP("files-with-matches", "l", false, "Print only names of sources with a hit")
	fl.BoolP("files-without-match", "L", false, "Print only names of sources without a hit")
	c.MarkFlagsMutuallyExclusive("files-with-matches", "files-without-match")

	return c
}

func (a *app) run(c *cobra.Command, args []string) error {
	a.ran = true
	fl := c.Flags()

	patterns, _ := fl.GetStringArray("regexp")
	patternFiles, _ := fl.GetStringArray("file")
	recursive, _ := fl.GetBool("recursive")
	derefRecursive, _ := fl.GetBool("dereference-recursive")
	recursive = recursive || derefRecursive
	lineNumber, _ := fl.GetBool("line-number")
	ignoreCase, _ := fl.GetBool("ignore-case")
	invert, _ := fl.GetBool("invert-match")
	count, _ := fl.GetBool("count")
	after, _ := fl.GetInt("after-context")
	before, _ := fl.GetInt("before-context")
	context, _ := fl.GetInt("context")
	quiet, _ := fl.GetBool("quiet")
	silent, _ := fl.GetBool("silent")
	quiet = quiet || silent
	maxCount, _ := fl.GetInt("max-count")
	filesWith, _ := fl.GetBool("files-with-matches")
	filesWithout, _ := fl.GetBool("files-without-match")

	if after < 0 || before < 0 || context < 0 {
		return errors.New("invalid context length argument")
	}
	if maxCount < 0 {
		return errors.New("invalid max count")
	}
	if fl.Changed("context") {
		after, before = context, context
	}

	for _, pf := range patternFiles {
		data, err := os.ReadFile(pf)
		if err != nil {
			return fmt.Errorf("cannot read pattern file %s", pf)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line != "" {
				patterns = append(patterns, line)
			}
		}
	}

	files := args
	if len(patterns) == 0 {
		if len(args) == 0 {
			return errors.New("no pattern given")
		}
		patterns = []string{args[0]}
		files = args[1:]
	}
	if recursive && len(files) == 0 {
		return errors.New("at least one file required for recursive search")
	}

	compiled := make([]*regex.Pattern, 0, len(patterns))
	for _, p := range patterns {
		cp, err := regex.Parse(p)
		if err != nil {
			return err
		}
		compiled = append(compiled, cp)
	}

	opts := search.Options{
		IgnoreCase:        ignoreCase,
		Invert:            invert,
		Count:             count,
		Quiet:             quiet,
		LineNumber:        lineNumber,
		WithFilename:      recursive || len(files) > 1,
		FilesWithMatches:  filesWith,
		FilesWithoutMatch: filesWithout,
		MaxCount:          maxCount,
		Before:            before,
		After:             after,
	}
	searcher := search.New(compiled, opts, a.stdout, a.stderr)

	matched := false
	if len(files) == 0 {
		matched = searcher.SearchReader(stdinName, a.stdin)
	} else {
		for _, f := range files {
			var m bool
			if recursive {
				m = searcher.SearchDir(f)
			} else {
				m = searcher.SearchFile(f)
			}
			if m {
				matched = true
				if quiet {
					break
				}
			}
		}
	}

	if matched {
		a.code = exitMatch
	} else {
		a.code = exitNoMatch
	}
	return nil
}
