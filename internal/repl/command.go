package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command names understood by the line-mode chat.
const (
	CmdSay    = "say"
	CmdReply  = "reply"
	CmdDelete = "delete"
	CmdSend   = "send"
	CmdList   = "list"
	CmdHelp   = "help"
	CmdQuit   = "quit"
)

var (
	// ErrUnknownCommand is returned for a slash command outside the fixed set.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadIndex is returned when a card number is missing or not positive.
	ErrBadIndex = errors.New("expected a card number starting at 1")
)

// Command is one parsed input line.
type Command struct {
	Name string

	// Index is the 1-based card number, or 0 when none was given.
	Index int

	// Text is the utterance for CmdSay.
	Text string
}

// Parse turns a line into a command. Lines not starting with "/" are
// utterances for the chat.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Name: CmdSay, Text: line}, nil
	}

	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: /", ErrUnknownCommand)
	}

	name := strings.ToLower(fields[0])
	switch name {
	case "q", "exit":
		name = CmdQuit
	case "h", "?":
		name = CmdHelp
	case "ls":
		name = CmdList
	}

	switch name {
	case CmdReply, CmdDelete:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("/%s: %w", name, ErrBadIndex)
		}
		n, err := parseIndex(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("/%s: %w", name, err)
		}
		return Command{Name: name, Index: n}, nil

	case CmdSend:
		if len(fields) == 1 {
			return Command{Name: name}, nil
		}
		n, err := parseIndex(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("/%s: %w", name, err)
		}
		return Command{Name: name, Index: n}, nil

	case CmdList, CmdHelp, CmdQuit:
		return Command{Name: name}, nil
	}

	return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, fields[0])
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrBadIndex
	}
	return n, nil
}
