// Package host defines what reintest needs from the editor it runs in: an
// editor that paints ranges, a window that knows the active editor and can
// show messages, and a configuration source.
package host

import (
	"strings"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
)

// Editor shows one document and paints ranges on it.
type Editor interface {
	Document() *document.Document
	// SetDecorations replaces every range previously painted with t.
	SetDecorations(t decoration.Type, ranges []annotate.Range)
}

// Window tracks editors and shows notifications.
type Window interface {
	// ActiveEditor returns nil when no editor is focused.
	ActiveEditor() Editor
	VisibleEditors() []Editor
	ShowInformationMessage(msg string)
}

// Configuration reads string settings.
type Configuration interface {
	GetString(key, def string) string
}

// EventKind identifies what happened in the host.
type EventKind string

const (
	ActiveEditorChanged  EventKind = "active-editor-changed"
	TextChanged          EventKind = "text-changed"
	DocumentOpened       EventKind = "document-opened"
	ConfigurationChanged EventKind = "configuration-changed"
	CommandInvoked       EventKind = "command-invoked"
)

// Event is one host notification.
type Event struct {
	Kind EventKind
	// Editor is set for editor and document events.
	Editor Editor
	// Keys lists the changed configuration keys; empty means unknown.
	Keys []string
	// Command is set for CommandInvoked.
	Command string
}

// AffectsConfiguration reports whether the event changed any key in section.
// A configuration event without keys is assumed to affect everything.
func (e Event) AffectsConfiguration(section string) bool {
	if e.Kind != ConfigurationChanged {
		return false
	}
	if len(e.Keys) == 0 {
		return true
	}
	for _, k := range e.Keys {
		if k == section || strings.HasPrefix(k, section+".") {
			return true
		}
	}
	return false
}
