package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Swapped out in tests. Nil means the process's current os.Stdout/os.Stdin.
var (
	stdout io.Writer
	stdin  io.Reader
)

func output() io.Writer {
	if stdout != nil {
		return stdout
	}
	return os.Stdout
}

func input() io.Reader {
	if stdin != nil {
		return stdin
	}
	return os.Stdin
}

func outf(format string, args ...any) {
	fmt.Fprintf(output(), format, args...)
}

func outln(args ...any) {
	fmt.Fprintln(output(), args...)
}

// confirm asks a yes/no question and defaults to no.
func confirm(question string) bool {
	outf("%s [y/N] ", question)
	line, _ := bufio.NewReader(input()).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

// splitConfigFlag pulls "--config <file>" (or --config=<file>) out of args.
func splitConfigFlag(args []string) (string, []string, error) {
	var path string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--config requires a file path")
			}
			path = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		default:
			rest = append(rest, arg)
		}
	}
	return path, rest, nil
}
