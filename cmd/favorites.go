package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/biblio/internal/books"
	"github.com/lepinkainen/biblio/internal/config"
	"github.com/lepinkainen/biblio/internal/favorites"
)

// FavoritesListCmd lists the saved favorites
type FavoritesListCmd struct {
	JSON bool `help:"Print favorites as JSON"`
}

// FavoritesToggleCmd adds or removes a single volume
type FavoritesToggleCmd struct {
	ID string `arg:"" help:"Volume id to toggle"`
}

// FavoritesClearCmd removes every favorite
type FavoritesClearCmd struct {
	Force bool `short:"f" help:"Skip the confirmation prompt"`
}

// FavoritesExportCmd writes favorites out as markdown notes
type FavoritesExportCmd struct {
	Output    string `short:"o" help:"Directory to write notes into (defaults to ExportDir from config)"`
	Overwrite bool   `help:"Overwrite existing note files"`
}

// openFavorites opens the durable store and hydrates it. The caller must
// close the returned KV after store.Wait().
func openFavorites(ctx context.Context) (*favorites.Store, *favorites.BadgerKV, error) {
	kv, err := favorites.OpenBadger(config.FavoritesDBPath)
	if err != nil {
		return nil, nil, err
	}

	store := favorites.NewStore(kv)
	if err := store.Hydrate(ctx); err != nil {
		kv.Close()
		return nil, nil, err
	}
	return store, kv, nil
}

func (f *FavoritesListCmd) Run() error {
	ctx := context.Background()
	store, kv, err := openFavorites(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	saved := store.List()
	if f.JSON {
		return printJSON(saved)
	}

	if len(saved) == 0 {
		fmt.Println("No favorites saved.")
		return nil
	}
	for _, book := range saved {
		printBookLine(book)
	}
	return nil
}

func (f *FavoritesToggleCmd) Run() error {
	ctx := context.Background()
	store, kv, err := openFavorites(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	book, known := store.Get(f.ID)
	if !known {
		// Not saved yet, look the volume up so the full record is stored
		client := newBooksClient()
		volume, _, err := client.GetVolumeCached(ctx, f.ID)
		if err != nil {
			return err
		}
		mapped := books.Sanitize(books.MapVolume(volume))
		if mapped == nil {
			return fmt.Errorf("volume %s has no usable data", f.ID)
		}
		book = *mapped
	}

	nowFavorite, err := store.Toggle(book)
	if err != nil {
		return err
	}
	store.Wait()

	if nowFavorite {
		fmt.Printf("Added %q to favorites.\n", book.Title)
	} else {
		fmt.Printf("Removed %q from favorites.\n", book.Title)
	}
	return nil
}

func (f *FavoritesClearCmd) Run() error {
	ctx := context.Background()
	store, kv, err := openFavorites(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	count := len(store.List())
	if count == 0 {
		fmt.Println("No favorites to clear.")
		return nil
	}

	if !f.Force {
		fmt.Printf("Remove all %d favorites? [y/N] ", count)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("Removed %d favorites.\n", count)
	return nil
}

func (f *FavoritesExportCmd) Run() error {
	ctx := context.Background()
	store, kv, err := openFavorites(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	directory := f.Output
	if directory == "" {
		directory = config.ExportDir
	}
	overwrite := f.Overwrite || config.OverwriteFiles

	written, err := store.ExportMarkdown(directory, overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d notes to %s\n", written, directory)
	return nil
}
