package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/voxdash/internal/model"
)

type Type string

const (
	TypeTodo    Type = "todo"
	TypeRemind  Type = "remind"
	TypeEvent   Type = "event"
	TypeDone    Type = "done"
	TypeRemove  Type = "rm"
	TypeShare   Type = "share"
	TypeSignIn  Type = "signin"
	TypeSignOut Type = "signout"

	TypeUnregister Type = "unregister"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Kind names one of the three entity collections.
type Kind string

const (
	KindTodo     Kind = "todo"
	KindReminder Kind = "reminder"
	KindEvent    Kind = "event"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "todo", "todos":
		return KindTodo, nil
	case "reminder", "reminders", "remind":
		return KindReminder, nil
	case "event", "events", "cal", "calendar":
		return KindEvent, nil
	default:
		return "", invalid("unknown kind %q (want todo, reminder or event)", s)
	}
}

type TodoArgs struct {
	Title string
}

type RemindArgs struct {
	Importance model.Importance
	Text       string
}

type EventArgs struct {
	From  time.Time
	To    time.Time
	Title string
}

// TargetArgs addresses a single entity. ID may be a unique prefix.
type TargetArgs struct {
	Kind Kind
	ID   string
}

type ShareArgs struct {
	Kind  Kind
	ID    string
	Email string
}

type SignInArgs struct {
	Email string
}

type UnregisterArgs struct {
	Email string
}

type Command struct {
	Type   Type
	Raw    string
	Todo   *TodoArgs
	Remind *RemindArgs
	Event  *EventArgs
	Done   *TargetArgs
	Remove *TargetArgs
	Share  *ShareArgs
	SignIn *SignInArgs

	Unregister *UnregisterArgs
}

func Parse(input string) (Command, error) {
	return ParseAt(input, time.Now())
}

// ParseAt parses input, resolving clock-only event times against now.
func ParseAt(input string, now time.Time) (Command, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeTodo:
		return parseTodo(input, args)
	case TypeRemind:
		return parseRemind(input, args)
	case TypeEvent:
		return parseEvent(input, args, now)
	case TypeDone:
		if len(args) != 1 {
			return Command{}, invalid("done requires a todo id")
		}
		return Command{Type: TypeDone, Raw: input, Done: &TargetArgs{Kind: KindTodo, ID: args[0]}}, nil
	case TypeRemove:
		return parseRemove(input, args)
	case TypeShare:
		return parseShare(input, args)
	case TypeSignIn:
		if len(args) != 1 {
			return Command{}, invalid("signin requires an email")
		}
		return Command{Type: TypeSignIn, Raw: input, SignIn: &SignInArgs{Email: args[0]}}, nil
	case TypeSignOut:
		return Command{Type: TypeSignOut, Raw: input}, nil
	case TypeUnregister:
		if len(args) != 1 {
			return Command{}, invalid("unregister requires an email")
		}
		return Command{Type: TypeUnregister, Raw: input, Unregister: &UnregisterArgs{Email: args[0]}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseTodo(raw string, args []string) (Command, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, invalid("todo requires a title")
	}
	return Command{Type: TypeTodo, Raw: raw, Todo: &TodoArgs{Title: title}}, nil
}

func parseRemind(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("remind requires an importance and text")
	}
	imp, err := model.ParseImportance(args[0])
	if err != nil {
		return Command{}, invalid("importance must be low, medium or high")
	}
	return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Importance: imp, Text: strings.Join(args[1:], " ")}}, nil
}

func parseEvent(raw string, args []string, now time.Time) (Command, error) {
	if len(args) < 3 {
		return Command{}, invalid("event requires from, to and a title")
	}
	from, err := parseWhen(args[0], now)
	if err != nil {
		return Command{}, err
	}
	to, err := parseWhen(args[1], now)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeEvent, Raw: raw, Event: &EventArgs{From: from, To: to, Title: strings.Join(args[2:], " ")}}, nil
}

func parseRemove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("rm requires a kind and an id")
	}
	kind, err := ParseKind(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeRemove, Raw: raw, Remove: &TargetArgs{Kind: kind, ID: args[1]}}, nil
}

func parseShare(raw string, args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, invalid("share requires a kind, an id and an email")
	}
	kind, err := ParseKind(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeShare, Raw: raw, Share: &ShareArgs{Kind: kind, ID: args[1], Email: args[2]}}, nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseWhen accepts a full timestamp or a clock time, which is taken as
// today in now's location.
func parseWhen(s string, now time.Time) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("15:04", s); err == nil {
		y, m, d := now.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}
	return time.Time{}, invalid("unrecognized time %q (use 2006-01-02T15:04 or 15:04)", s)
}

// ParseTime is the time syntax of the event command, for callers outside the
// palette.
func ParseTime(s string, now time.Time) (time.Time, error) {
	return parseWhen(s, now)
}
