package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/tilleul/lang/scanner"
	"github.com/mna/tilleul/lang/token"
)

// Tokenize prints, for each file given, every token the scanner produces in
// order, one per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	var failed bool
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}

		sc := scanner.New(string(src))
		for {
			tok := sc.ScanToken()
			fmt.Fprintf(stdio.Stdout, "%s:%d: %s", name, tok.Line, tok.Type)
			if tok.Type == token.STRING || tok.Type == token.NUMBER || tok.Type == token.IDENT {
				fmt.Fprintf(stdio.Stdout, " %s", tok.Lexeme)
			}
			fmt.Fprintln(stdio.Stdout)
			if tok.Type == token.EOF {
				break
			}
		}
	}
	if failed {
		return fmt.Errorf("tokenize: one or more files failed")
	}
	return nil
}
