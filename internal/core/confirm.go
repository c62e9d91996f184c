package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer asks the operator a yes/no question.
type Confirmer func(question string) (bool, error)

// TerminalConfirm prompts on out and reads the answer from in.  When in
// is not a terminal nobody can answer, so it proceeds without asking.
func TerminalConfirm(in *os.File, out io.Writer) Confirmer {
	return func(question string) (bool, error) {
		if !term.IsTerminal(int(in.Fd())) {
			return true, nil
		}
		return askYesNo(in, out, question)
	}
}

// askYesNo accepts y or yes in any case; anything else, including an
// empty line or EOF, is no.
func askYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
