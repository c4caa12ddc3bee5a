package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column for consistency.

// VolumesTable is the table holding Google Books volume detail responses.
const VolumesTable = "volumes_cache"

// VolumesSchema defines the schema for the volume detail cache.
const VolumesSchema = `
CREATE TABLE IF NOT EXISTS volumes_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_volumes_cached_at ON volumes_cache(cached_at);
`

// AllSchemas contains all cache table schemas for easy initialization.
var AllSchemas = []string{
	VolumesSchema,
}

// ValidTableNames is the whitelist of allowed cache table names.
var ValidTableNames = map[string]bool{
	VolumesTable: true,
}
