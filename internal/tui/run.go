package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/techtranslator/techtranslator/internal/chat"
	"github.com/techtranslator/techtranslator/internal/dispatch"
)

// Run starts the chat interface and blocks until the user quits.
func Run(store *chat.Store, dispatcher *dispatch.Dispatcher) error {
	p := tea.NewProgram(NewModel(store, dispatcher), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
