package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Name identifies a chat command.
type Name string

const (
	Credit     Name = "credit"
	Connect    Name = "connect"
	Mint       Name = "mint"
	Burn       Name = "burn"
	Rank       Name = "rank"
	Leadership Name = "leadership"
	Me         Name = "me"
)

// LeadershipSize is the number of holders /leadership shows.
const LeadershipSize = 10

var (
	// ErrNotACommand indicates a message that does not start with a slash.
	ErrNotACommand = errors.New("not a command")
	// ErrUnknownCommand indicates a slash command this bot does not serve.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage indicates a known command with malformed arguments.
	ErrUsage = errors.New("usage")
)

type definition struct {
	usage string
	args  int
	// creatorOnly commands are refused unless the sender created the chat.
	creatorOnly bool
}

var commands = map[Name]definition{
	Credit:     {usage: "/credit"},
	Connect:    {usage: "/connect <address>", args: 1},
	Mint:       {usage: "/mint <amount> <user>", args: 2, creatorOnly: true},
	Burn:       {usage: "/burn <amount> <user>", args: 2, creatorOnly: true},
	Rank:       {usage: "/rank <user>", args: 1},
	Leadership: {usage: "/leadership"},
	Me:         {usage: "/me"},
}

// Command is one parsed chat command.
type Command struct {
	Name Name
	Args []string
}

// Parse reads a command from message text. A "@botname" suffix on the command
// word is ignored, as chat platforms append it in group chats.
func Parse(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, ErrNotACommand
	}
	word := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(word, '@'); at >= 0 {
		word = word[:at]
	}
	name := Name(strings.ToLower(word))
	def, ok := commands[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, word)
	}
	args := fields[1:]
	if len(args) != def.args {
		return Command{}, fmt.Errorf("%w: %s", ErrUsage, def.usage)
	}
	return Command{Name: name, Args: args}, nil
}

// CreatorOnly reports whether the command requires the chat creator.
func (c Command) CreatorOnly() bool {
	return commands[c.Name].creatorOnly
}

func (c Command) usage() string {
	return commands[c.Name].usage
}

func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil || amount == 0 {
		return 0, fmt.Errorf("%w: amount must be a positive whole number", ErrUsage)
	}
	return amount, nil
}

// memberRef normalizes a user mention into a member id.
func memberRef(s string) string {
	return strings.TrimPrefix(s, "@")
}
