package schema

import (
	"io/fs"
	"path"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/utils"
)

type cacheEntry struct {
	once  sync.Once
	specs []*EntitySpec
	err   error
}

// Cache memoizes loaded schemas per game version and scripts directory.
// It is safe for concurrent use.
type Cache struct {
	fsys fs.FS
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache(fsys fs.FS, log zerolog.Logger) *Cache {
	return &Cache{
		fsys:    fsys,
		log:     log,
		entries: make(map[string]*cacheEntry),
	}
}

// ScriptsRoot finds the scripts directory for version. It tries
// "<ver>/scripts", then "<ver>", then the fs root itself.
func ScriptsRoot(fsys fs.FS, version config.Version) (string, error) {
	for _, candidate := range []string{
		path.Join(version.Dir(), "scripts"),
		version.Dir(),
		".",
	} {
		if _, err := fs.Stat(fsys, path.Join(candidate, "entities.xml")); err == nil {
			return candidate, nil
		}
	}
	return "", utils.NewError(utils.KindSchema, "no scripts directory for version %v", version)
}

func (c *Cache) Get(version config.Version) ([]*EntitySpec, error) {
	root, err := ScriptsRoot(c.fsys, version)
	if err != nil {
		return nil, err
	}
	return c.GetRoot(version, root)
}

func (c *Cache) GetRoot(version config.Version, root string) ([]*EntitySpec, error) {
	key := version.String() + "|" + root

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		c.log.Info().Str("version", version.String()).Str("root", root).Msg("Loading schema")
		e.specs, e.err = Load(c.fsys, root, c.log)
	})
	return e.specs, e.err
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
