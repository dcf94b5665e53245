package query

import (
	"context"
	"strings"
)

// SplitStatements splits a SQL script on semicolons. Semicolons inside
// quoted strings, quoted identifiers and comments do not split. Empty
// statements and comment-only statements are dropped.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		quote   rune
		hasCode bool
	)

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" && hasCode {
			stmts = append(stmts, s)
		}
		current.Reset()
		hasCode = false
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if quote != 0 {
			current.WriteRune(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			hasCode = true
			current.WriteRune(c)
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				current.WriteRune(runes[i])
				i++
			}
			if i < len(runes) {
				current.WriteRune('\n')
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := strings.Index(string(runes[i+2:]), "*/")
			if end < 0 {
				current.WriteString(string(runes[i:]))
				i = len(runes)
				break
			}
			comment := "/*" + string(runes[i+2:])[:end] + "*/"
			current.WriteString(comment)
			i += len([]rune(comment)) - 1
		case c == ';':
			flush()
		default:
			if !isSpace(c) {
				hasCode = true
			}
			current.WriteRune(c)
		}
	}
	flush()
	return stmts
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// StatementResult is the outcome of one statement of a script.
type StatementResult struct {
	SQL    string
	Result *Result
	Err    error
}

// RunScript runs every statement of script in order. A failing statement
// is reported in its result and does not stop the script.
func (r *Runner) RunScript(ctx context.Context, script string, limit int) []StatementResult {
	stmts := SplitStatements(script)
	out := make([]StatementResult, 0, len(stmts))
	for _, s := range stmts {
		if ctx.Err() != nil {
			out = append(out, StatementResult{SQL: s, Err: ctx.Err()})
			continue
		}
		res, err := r.Run(ctx, s, limit)
		out = append(out, StatementResult{SQL: s, Result: res, Err: err})
	}
	return out
}
