package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Todo    func(TodoArgs) (Result, error)
	Remind  func(RemindArgs) (Result, error)
	Event   func(EventArgs) (Result, error)
	Done    func(TargetArgs) (Result, error)
	Remove  func(TargetArgs) (Result, error)
	Share   func(ShareArgs) (Result, error)
	SignIn  func(SignInArgs) (Result, error)
	SignOut func() (Result, error)

	Unregister func(UnregisterArgs) (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, h Handlers) (Result, error) {
	switch cmd.Type {
	case TypeTodo:
		if h.Todo == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Todo(*cmd.Todo)
	case TypeRemind:
		if h.Remind == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Remind(*cmd.Remind)
	case TypeEvent:
		if h.Event == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Event(*cmd.Event)
	case TypeDone:
		if h.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Done(*cmd.Done)
	case TypeRemove:
		if h.Remove == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Remove(*cmd.Remove)
	case TypeShare:
		if h.Share == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Share(*cmd.Share)
	case TypeSignIn:
		if h.SignIn == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.SignIn(*cmd.SignIn)
	case TypeSignOut:
		if h.SignOut == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.SignOut()
	case TypeUnregister:
		if h.Unregister == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Unregister(*cmd.Unregister)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
