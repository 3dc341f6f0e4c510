package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vellum/lang/scanner"
	"github.com/mna/vellum/lang/token"
)

// Tokenize runs the scanner phase over the file at args[0] and prints one
// line per token, matching spec §6's "tokenize <path>" driver mode.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return ioErrorf(err)
	}

	var s scanner.Scanner
	s.Init(src)
	for {
		tok := s.Scan()
		fmt.Fprintf(stdio.Stdout, "%4d %-14s %q\n", tok.Line, tok.Kind, tok.Lexeme)
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.ILLEGAL {
			return compileErrorf(tok.Lexeme)
		}
	}
	return nil
}
