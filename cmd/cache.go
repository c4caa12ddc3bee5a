package cmd

import (
	"fmt"
	"time"

	"github.com/lepinkainen/biblio/internal/cache"
	"github.com/spf13/viper"
)

// CacheClearCmd removes cached volume data
type CacheClearCmd struct {
	Expired bool `help:"Only remove entries past their TTL"`
}

func (c *CacheClearCmd) Run() error {
	db, err := cache.Global()
	if err != nil {
		return err
	}

	if c.Expired {
		ttl, err := time.ParseDuration(viper.GetString("cache.ttl"))
		if err != nil {
			ttl = cache.DefaultTTL
		}
		if err := db.ClearExpired(cache.VolumesTable, ttl); err != nil {
			return err
		}
		fmt.Println("Expired cache entries removed.")
		return nil
	}

	removed, err := db.ClearAll(cache.VolumesTable)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached volumes.\n", removed)
	return nil
}
