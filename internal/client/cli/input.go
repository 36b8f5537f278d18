package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a password from the terminal
// without echo.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword asks for a password twice and fails if the answers differ.
//
// Prompts written to w:
//
//	Choose password: ****
//	Repeat password: ****
//
// Returns:
//
//	The chosen password. The caller owns it and should clear it after use.
//	errPasswordMismatch when the two answers differ; both buffers are wiped
//	before returning.
func GetNewPassword(w io.Writer) ([]byte, error) {
	pw, err := getPassword("Choose password", w)
	if err != nil {
		return nil, err
	}
	again, err := getPassword("Repeat password", w)
	if err != nil {
		clear(pw)
		return nil, err
	}
	defer clear(again)

	if !bytes.Equal(pw, again) {
		clear(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// GetMultiline prints a prompt to w and reads lines until an empty line or
// EOF. A PEM block pasted into the terminal is read this way.
//
// Parameters:
//
//	reader  source of the pasted text; "\r\n" line endings are accepted
//	prompt  first line of the prompt, followed by a hint on how to finish
//	w       where the prompt is written
//
// Returns:
//
//	The lines joined with '\n' with surrounding space trimmed. An empty first
//	line yields "". Only read errors other than io.EOF are returned.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
