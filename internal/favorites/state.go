package favorites

import "github.com/lepinkainen/biblio/internal/books"

// State is the normalized favorites table: an entity map plus the insertion
// order. The invariant after every transition: AllIDs has no duplicates,
// every id in AllIDs has an entry in ByID, and ByID has no orphans.
type State struct {
	ByID      map[string]books.Book
	AllIDs    []string
	IsLoaded  bool
	IsLoading bool
	Err       string
}

func initialState() State {
	return State{
		ByID:      map[string]books.Book{},
		AllIDs:    []string{},
		IsLoading: true,
	}
}

// command is the tagged-variant set processed by apply.
type command interface{ isCommand() }

type hydrateCmd struct {
	byID   map[string]books.Book
	allIDs []string
}

type toggleCmd struct {
	book books.Book
}

type setLoadingCmd struct {
	loading bool
}

type setErrorCmd struct {
	msg string
}

func (hydrateCmd) isCommand()    {}
func (toggleCmd) isCommand()     {}
func (setLoadingCmd) isCommand() {}
func (setErrorCmd) isCommand()   {}

// apply is the pure transition function: given a state and a command it
// returns the next state without mutating the input.
func apply(state State, cmd command) State {
	switch cmd := cmd.(type) {
	case hydrateCmd:
		next := state
		next.ByID = cloneByID(cmd.byID)
		next.AllIDs = append([]string(nil), cmd.allIDs...)
		next.IsLoaded = true
		next.IsLoading = false
		next.Err = ""
		return next

	case toggleCmd:
		next := state
		next.Err = ""
		if _, isFavorite := state.ByID[cmd.book.ID]; isFavorite {
			next.ByID = cloneByID(state.ByID)
			delete(next.ByID, cmd.book.ID)
			allIDs := make([]string, 0, len(state.AllIDs))
			for _, id := range state.AllIDs {
				if id != cmd.book.ID {
					allIDs = append(allIDs, id)
				}
			}
			next.AllIDs = allIDs
			return next
		}
		next.ByID = cloneByID(state.ByID)
		next.ByID[cmd.book.ID] = cmd.book
		next.AllIDs = append(append([]string(nil), state.AllIDs...), cmd.book.ID)
		return next

	case setLoadingCmd:
		next := state
		next.IsLoading = cmd.loading
		return next

	case setErrorCmd:
		next := state
		next.Err = cmd.msg
		next.IsLoading = false
		return next

	default:
		return state
	}
}

// repair enforces the normalization invariant on untrusted input: ids without
// an entity are dropped from the order, entities not referenced by the order
// are dropped from the map, duplicates collapse to their first occurrence.
func repair(byID map[string]books.Book, allIDs []string) (map[string]books.Book, []string) {
	cleanIDs := make([]string, 0, len(allIDs))
	cleanByID := make(map[string]books.Book, len(allIDs))
	seen := make(map[string]struct{}, len(allIDs))

	for _, id := range allIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		book, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		cleanIDs = append(cleanIDs, id)
		cleanByID[id] = book
	}

	return cleanByID, cleanIDs
}

func cloneByID(src map[string]books.Book) map[string]books.Book {
	dst := make(map[string]books.Book, len(src))
	for id, book := range src {
		dst[id] = book
	}
	return dst
}
