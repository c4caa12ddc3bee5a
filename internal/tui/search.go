// Package tui provides the interactive terminal search UI.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/biblio/internal/books"
	"github.com/lepinkainen/biblio/internal/favorites"
	"github.com/lepinkainen/biblio/internal/search"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 18

	// The controller mutates state on its own goroutines (debounce timer,
	// in-flight requests), so the view polls for fresh snapshots.
	snapshotInterval = 150 * time.Millisecond
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

type snapshotTickMsg time.Time

type settledMsg struct{}

type bookItem struct {
	book     books.Book
	favorite bool
}

func (i bookItem) Title() string {
	return fmt.Sprintf("%s (%s)", i.book.Title, books.FormatYear(i.book.PublishedYear))
}

func (i bookItem) Description() string { return i.book.Description }

func (i bookItem) FilterValue() string { return i.book.Title }

type itemStyles struct {
	normal      lipgloss.Style
	selected    lipgloss.Style
	titleStyle  lipgloss.Style
	authorStyle lipgloss.Style
	metaStyle   lipgloss.Style
	descStyle   lipgloss.Style
	starStyle   lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		authorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")),
		metaStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		descStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
		starStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
	}
}

type bookDelegate struct {
	styles itemStyles
}

func newDelegate() bookDelegate {
	return bookDelegate{styles: newItemStyles()}
}

func (d bookDelegate) Height() int                         { return 5 }
func (d bookDelegate) Spacing() int                        { return 1 }
func (d bookDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	entry, ok := item.(bookItem)
	if !ok {
		return
	}
	book := entry.book

	title := fmt.Sprintf("%s (%s)", book.Title, books.FormatYear(book.PublishedYear))
	if entry.favorite {
		title = d.styles.starStyle.Render("★ ") + d.styles.titleStyle.Render(title)
	} else {
		title = d.styles.titleStyle.Render(title)
	}

	authorLine := d.styles.authorStyle.Render(books.FormatAuthors(book.Authors))
	metaLine := d.styles.metaStyle.Render(formatMetadata(book))
	descLine := d.styles.descStyle.Render(books.Truncate(book.Description, max(m.Width()-4, 10)))

	content := lipgloss.JoinVertical(lipgloss.Left, title, authorLine, metaLine, descLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

// formatMetadata creates the metadata line with pages, language and rating
func formatMetadata(book books.Book) string {
	var parts []string
	if book.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", book.PageCount))
	}
	if book.Language != "" {
		parts = append(parts, strings.ToUpper(book.Language))
	}
	if book.AverageRating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f/5 (%d ratings)", book.AverageRating, book.RatingsCount))
	}
	if book.ISBN13 != "" {
		parts = append(parts, book.ISBN13)
	}
	if len(parts) == 0 {
		return "No metadata available"
	}
	return strings.Join(parts, " | ")
}

type model struct {
	controller *search.Controller
	store      *favorites.Store

	input   textinput.Model
	results list.Model
	spin    spinner.Model

	snapshot search.Snapshot
	status   string
}

func newModel(controller *search.Controller, store *favorites.Store) *model {
	input := textinput.New()
	input.Placeholder = "Search books..."
	input.Focus()
	input.CharLimit = 200
	input.Width = defaultListWidth - 4

	l := list.New(nil, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return &model{
		controller: controller,
		store:      store,
		input:      input,
		results:    l,
		spin:       spin,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, snapshotTick())
}

func snapshotTick() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return snapshotTickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			// Fire a pending debounced search right away.
			controller := m.controller
			return m, func() tea.Msg {
				controller.FlushPending()
				return settledMsg{}
			}
		case "pgdown", "ctrl+n":
			controller := m.controller
			return m, func() tea.Msg {
				controller.LoadMore()
				return settledMsg{}
			}
		case "ctrl+r":
			controller := m.controller
			return m, func() tea.Msg {
				controller.Retry()
				return settledMsg{}
			}
		case "ctrl+l":
			m.controller.Clear()
			m.input.SetValue("")
			m.status = ""
			return m, nil
		case "ctrl+f":
			if entry, ok := m.results.SelectedItem().(bookItem); ok {
				nowFavorite, err := m.store.Toggle(entry.book)
				switch {
				case err != nil:
					m.status = err.Error()
				case nowFavorite:
					m.status = fmt.Sprintf("Added %q to favorites", entry.book.Title)
				default:
					m.status = fmt.Sprintf("Removed %q from favorites", entry.book.Title)
				}
			}
			return m, nil
		case "up", "down":
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.controller.SetQuery(m.input.Value())
		}
		return m, cmd

	case snapshotTickMsg:
		m.syncSnapshot()
		return m, snapshotTick()

	case settledMsg:
		m.syncSnapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-8, 5)
		m.results.SetSize(width, height)
		m.input.Width = width - 4
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// syncSnapshot pulls fresh controller state into the list.
func (m *model) syncSnapshot() {
	snap := m.controller.Snapshot()
	m.snapshot = snap

	items := make([]list.Item, len(snap.Results))
	for i, book := range snap.Results {
		items[i] = bookItem{book: book, favorite: m.store.IsFavorite(book.ID)}
	}
	m.results.SetItems(items)
}

func (m *model) View() string {
	snap := m.snapshot

	header := headerStyle.Render("biblio")
	inputView := m.input.View()

	var statusLine string
	switch {
	case snap.Error != "":
		statusLine = errorStyle.Render(snap.Error + "  (ctrl+r to retry)")
	case snap.Loading:
		statusLine = m.spin.View() + " Searching..."
	case snap.LoadingMore:
		statusLine = m.spin.View() + " Loading more..."
	case snap.Typing:
		statusLine = mutedStyle.Render("Waiting for you to stop typing...")
	case snap.IsEmpty():
		statusLine = mutedStyle.Render(fmt.Sprintf("No results for %q", snap.Query))
	case snap.HasSearched:
		counter := fmt.Sprintf("%d of %d results", snap.ResultsCount(), snap.Pagination.TotalItems)
		if snap.CanLoadMore() {
			counter += "  (pgdn for more)"
		}
		statusLine = mutedStyle.Render(counter)
	default:
		statusLine = mutedStyle.Render("Type at least two characters to search")
	}
	if m.status != "" {
		statusLine += "  " + mutedStyle.Render(m.status)
	}

	help := helpStyle.Render("enter search now | ctrl+f favorite | pgdn more | ctrl+l clear | esc quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, inputView, statusLine, m.results.View(), help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("161"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Run starts the interactive search UI and blocks until the user quits.
func Run(controller *search.Controller, store *favorites.Store) error {
	m := newModel(controller, store)
	_, err := runProgram(m)
	controller.Close()
	return err
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
