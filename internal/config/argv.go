package config

import (
	"fmt"
	"unicode"
)

// parseArgv splits a shell-like command string into an argv slice. Double and
// single quotes group words, backslash escapes the next rune. Returns nil for
// a blank string.
func parseArgv(input string) ([]string, error) {
	runes := []rune(input)
	var argv []string
	var word []rune
	inWord := false

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
			}
			word = append(word, runes[i+1])
			inWord = true
			i += 2
		case r == '\'' || r == '"':
			end := closingQuote(runes, i+1, r)
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote in command: %q", input)
			}
			word = append(word, runes[i+1:end]...)
			inWord = true
			i = end + 1
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, string(word))
				word = word[:0]
				inWord = false
			}
			i++
		default:
			word = append(word, r)
			inWord = true
			i++
		}
	}

	if inWord {
		argv = append(argv, string(word))
	}
	return argv, nil
}

// closingQuote returns the index of the matching quote rune at or after from,
// or -1 when the quote never closes.
func closingQuote(runes []rune, from int, quote rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == quote {
			return i
		}
	}
	return -1
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
