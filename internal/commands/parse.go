// Package commands parses and dispatches chat commands onto the record
// store, the context buffer, and the completion provider.
package commands

import "strings"

// Command is a parsed chat command. Name is the top-level verb, Sub the
// subcommand for grouped verbs (task/note/analyze), and Rest the
// untokenized remainder.
type Command struct {
	Name string
	Sub  string
	Rest string
}

// groups are verbs that take a subcommand.
var groups = map[string]bool{
	"task":    true,
	"note":    true,
	"analyze": true,
}

// Parse extracts a command from a message. Returns false when the text
// does not start with the configured prefix.
func Parse(prefix, text string) (*Command, bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	body := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if body == "" {
		return &Command{Name: "help"}, true
	}

	name, rest, _ := strings.Cut(body, " ")
	cmd := &Command{Name: strings.ToLower(name), Rest: strings.TrimSpace(rest)}

	if groups[cmd.Name] && cmd.Rest != "" {
		sub, rest, _ := strings.Cut(cmd.Rest, " ")
		cmd.Sub = strings.ToLower(sub)
		cmd.Rest = strings.TrimSpace(rest)
	}
	return cmd, true
}

// splitTitleBody splits "title | body" input used by task add and note
// add. The body is empty when no separator is present.
func splitTitleBody(rest string) (title, body string) {
	title, body, _ = strings.Cut(rest, "|")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}

// splitTaskFields splits "title | description | priority" input used by
// task add. Description and priority are empty when absent.
func splitTaskFields(rest string) (title, description, priority string) {
	title, body := splitTitleBody(rest)
	description, priority = splitTitleBody(body)
	return title, description, priority
}
