// Package ui is the bubbletea model behind `pulsec routes tui`: a text
// input for a candidate path, and a live-updating view of what
// router.SelectBestMatch resolves it to. Modeled on the teacher's
// cmd/vango/internal/ui package (Model/Init/Update/View, a DefaultKeyMap
// of key.Binding, lipgloss styles split into their own file).
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/router"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap is the routes TUI's key bindings.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap mirrors the teacher's quit/help bindings.
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// RouteModel is the Elm-architecture model for `pulsec routes tui`.
type RouteModel struct {
	routes   []*router.Route
	input    textinput.Model
	showHelp bool
	width    int
}

// NewRouteModel returns a RouteModel ready to Run under tea.NewProgram.
func NewRouteModel(routes []*router.Route) RouteModel {
	ti := textinput.New()
	ti.Placeholder = "/users/42"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 40
	return RouteModel{routes: routes, input: ti}
}

func (m RouteModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m RouteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m RouteModel) View() string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("pulsec routes"))
	fmt.Fprintln(&b, subtitleStyle.Render("type a path, watch it resolve live"))
	fmt.Fprintln(&b, m.input.View())
	fmt.Fprintln(&b)

	path := m.input.Value()
	if path == "" {
		fmt.Fprintln(&b, mutedStyle.Render("(enter a path)"))
	} else if match := router.SelectBestMatch(m.routes, path); match == nil {
		fmt.Fprintln(&b, errorStyle.Render("no match"))
	} else {
		fmt.Fprintln(&b, successStyle.Render("matched"))
		var chain []string
		for _, r := range match.Chain {
			switch {
			case r.Index:
				chain = append(chain, "(index)")
			case r.Path == "":
				chain = append(chain, "(layout)")
			default:
				chain = append(chain, r.Path)
			}
		}
		fmt.Fprintln(&b, normalStyle.Render("chain: "+strings.Join(chain, " -> ")))
		if len(match.Params) > 0 {
			keys := make([]string, 0, len(match.Params))
			for k := range match.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "%s\n", normalStyle.Render(fmt.Sprintf("  %s = %v", k, match.Params[k])))
			}
		}
	}

	if m.showHelp {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, mutedStyle.Render("esc quit  ?  toggle help"))
	}
	return baseStyle.Render(b.String())
}
