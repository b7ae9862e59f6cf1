package backend

import "github.com/sandeepkv93/voxdash/internal/provider"

// Operation is a tool-call function name understood by the backend.
type Operation string

const (
	GetTodos            Operation = "getTodos"
	CreateTodo          Operation = "createTodo"
	CompleteTodo        Operation = "completeTodo"
	DeleteTodo          Operation = "deleteTodo"
	ShareTodo           Operation = "shareTodo"
	GetReminders        Operation = "getReminders"
	AddReminder         Operation = "addReminder"
	DeleteReminder      Operation = "deleteReminder"
	ShareReminder       Operation = "shareReminder"
	GetCalendarEntries  Operation = "getCalendarEntries"
	AddCalendarEntry    Operation = "addCalendarEntry"
	DeleteCalendarEntry Operation = "deleteCalendarEntry"
	ShareCalendarEntry  Operation = "shareCalendarEntry"
)

type opSpec struct {
	path        string
	description string
	required    []string
	properties  map[string]string
}

var operations = map[Operation]opSpec{
	GetTodos: {
		path:        "/get_todos/",
		description: "List todos created by or shared with a user.",
		required:    []string{"user_email"},
		properties:  map[string]string{"user_email": "string"},
	},
	CreateTodo: {
		path:        "/create_todo/",
		description: "Create a todo.",
		required:    []string{"title"},
		properties:  map[string]string{"title": "string", "description": "string", "created_by": "string"},
	},
	CompleteTodo: {
		path:        "/complete_todo/",
		description: "Mark a todo as completed.",
		required:    []string{"id", "created_by"},
		properties:  map[string]string{"id": "integer", "created_by": "string"},
	},
	DeleteTodo: {
		path:        "/delete_todo/",
		description: "Delete a todo.",
		required:    []string{"id"},
		properties:  map[string]string{"id": "integer"},
	},
	ShareTodo: {
		path:        "/share_todo/",
		description: "Share a todo with another user.",
		required:    []string{"todo_id", "user_email"},
		properties:  map[string]string{"todo_id": "integer", "user_email": "string"},
	},
	GetReminders: {
		path:        "/get_reminders/",
		description: "List reminders.",
		properties:  map[string]string{"user_email": "string"},
	},
	AddReminder: {
		path:        "/add_reminder/",
		description: "Add a reminder with an importance of low, medium or high.",
		required:    []string{"reminder_text", "importance", "created_by"},
		properties:  map[string]string{"reminder_text": "string", "importance": "string", "created_by": "string"},
	},
	DeleteReminder: {
		path:        "/delete_reminder/",
		description: "Delete a reminder.",
		required:    []string{"id"},
		properties:  map[string]string{"id": "integer"},
	},
	ShareReminder: {
		path:        "/share_reminder/",
		description: "Share a reminder with another user.",
		required:    []string{"reminder_id", "user_email"},
		properties:  map[string]string{"reminder_id": "integer", "user_email": "string"},
	},
	GetCalendarEntries: {
		path:        "/get_calendar_entries/",
		description: "List calendar entries.",
		properties:  map[string]string{"user_email": "string"},
	},
	AddCalendarEntry: {
		path:        "/add_calendar_entry/",
		description: "Add a calendar entry. Times are ISO 8601.",
		required:    []string{"title", "event_from", "event_to", "created_by"},
		properties: map[string]string{
			"title": "string", "description": "string",
			"event_from": "string", "event_to": "string", "created_by": "string",
		},
	},
	DeleteCalendarEntry: {
		path:        "/delete_calendar_entry/",
		description: "Delete a calendar entry.",
		required:    []string{"id"},
		properties:  map[string]string{"id": "integer"},
	},
	ShareCalendarEntry: {
		path:        "/share_calendar_entry/",
		description: "Share a calendar entry with another user.",
		required:    []string{"event_id", "user_email"},
		properties:  map[string]string{"event_id": "integer", "user_email": "string"},
	},
}

var operationOrder = []Operation{
	GetTodos, CreateTodo, CompleteTodo, DeleteTodo, ShareTodo,
	GetReminders, AddReminder, DeleteReminder, ShareReminder,
	GetCalendarEntries, AddCalendarEntry, DeleteCalendarEntry, ShareCalendarEntry,
}

// Operations lists every operation in a stable order.
func Operations() []Operation {
	return append([]Operation(nil), operationOrder...)
}

func Lookup(name string) (Operation, bool) {
	op := Operation(name)
	_, ok := operations[op]
	return op, ok
}

func (o Operation) Path() string {
	return operations[o].path
}

// FunctionDefs describes the operations as tools the voice assistant may call.
func FunctionDefs() []provider.FunctionDef {
	defs := make([]provider.FunctionDef, 0, len(operationOrder))
	for _, op := range operationOrder {
		entry := operations[op]
		props := make(map[string]any, len(entry.properties))
		for name, typ := range entry.properties {
			props[name] = map[string]any{"type": typ}
		}
		params := map[string]any{"type": "object", "properties": props}
		if len(entry.required) > 0 {
			params["required"] = append([]string(nil), entry.required...)
		}
		defs = append(defs, provider.FunctionDef{
			Name:        string(op),
			Description: entry.description,
			Parameters:  params,
		})
	}
	return defs
}
