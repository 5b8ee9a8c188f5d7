package sqlite

import (
	"database/sql"

	"hydrocore/internal/cacheport"
)

// Cache is a sqlite-backed cacheport.Port sharing the Store's database
// handle, so a single sqlite file can back both the track/channel data
// and its derived-value cache for an integration test.
type Cache struct {
	db *sql.DB
}

var _ cacheport.Port = (*Cache)(nil)

// CacheFor returns a Cache over the same database handle s uses, so
// cache entries live alongside the store's own tables.
func (s *Store) CacheFor() *Cache {
	return &Cache{db: s.db}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	var value []byte
	if err := c.db.QueryRow(`SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value); err != nil {
		return nil, false
	}
	return value, true
}

func (c *Cache) Get2(key string, headerLen int) ([]byte, []byte, bool) {
	value, ok := c.Get(key)
	if !ok || len(value) < headerLen {
		return nil, nil, false
	}
	header := make([]byte, headerLen)
	copy(header, value[:headerLen])
	body := make([]byte, len(value)-headerLen)
	copy(body, value[headerLen:])
	return header, body, true
}

func (c *Cache) Set(key string, value []byte) {
	c.db.Exec(`INSERT INTO cache_entries (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
}

func (c *Cache) Set2(key string, header, body []byte) {
	value := make([]byte, 0, len(header)+len(body))
	value = append(value, header...)
	value = append(value, body...)
	c.Set(key, value)
}

func (c *Cache) Delete(key string) {
	c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
}
