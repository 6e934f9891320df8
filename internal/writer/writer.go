package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// ErrDeclined means the operator did not confirm the write.
var ErrDeclined = errors.New("aborted by user")

// Confirm asks for a y/N answer before writing the given line. Anything
// but an explicit yes, including EOF, declines.
func Confirm(in io.Reader, out io.Writer, line string) error {
	fmt.Fprintf(out, "Write %q? [y/N]: ", line)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return ErrDeclined
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return nil
	}
	return ErrDeclined
}

// ConfirmStdin prompts on the controlling terminal. A non-terminal stdin
// cannot answer a prompt, so it counts as a decline with a hint to pass
// --yes instead.
func ConfirmStdin(line string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%w: stdin is not a terminal, use --yes to skip confirmation", ErrDeclined)
	}
	return Confirm(os.Stdin, os.Stdout, line)
}

// Write replaces the target file with a single line, atomically: the
// content lands in a temporary file first and is renamed over the
// target. Mode 0644 so the configuration evaluator can read it.
func Write(path, line string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".boot-device-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(line + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
