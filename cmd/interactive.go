package cmd

import (
	"context"

	"github.com/lepinkainen/biblio/internal/googlebooks"
	"github.com/lepinkainen/biblio/internal/search"
	"github.com/lepinkainen/biblio/internal/tui"
)

// InteractiveCmd represents the interactive command
type InteractiveCmd struct {
	PageSize int    `help:"Results per page (1-40)" default:"10"`
	Lang     string `help:"Restrict results to a two-letter language code"`
	Newest   bool   `help:"Order by publication date instead of relevance"`
}

func (i *InteractiveCmd) Run() error {
	store, kv, err := openFavorites(context.Background())
	if err != nil {
		return err
	}
	defer kv.Close()
	defer store.Wait()

	orderBy := googlebooks.OrderByRelevance
	if i.Newest {
		orderBy = googlebooks.OrderByNewest
	}

	controller := search.NewController(newBooksClient(), search.Options{
		PageSize:     i.PageSize,
		OrderBy:      orderBy,
		LangRestrict: i.Lang,
	})

	return tui.Run(controller, store)
}
