package language

import (
	"context"
	"os"
	"path"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"
)

// Registry holds registered languages and the process-wide cache of their
// compiled pattern sets. Reads are lock-free after the first load of each
// language; concurrent first loads are deduplicated.
type Registry struct {
	mu    sync.RWMutex
	langs map[string]Language

	cache *gocache.Cache
	group singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		langs: make(map[string]Language),
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Register adds or replaces a language. Replacing drops any cached compiled
// configuration for it.
func (r *Registry) Register(lang Language) error {
	if lang.Name == "" {
		return errors.New("language name must not be empty")
	}
	if lang.Parser == nil {
		return errors.Errorf("language %s: parser must not be nil", lang.Name)
	}

	r.mu.Lock()
	r.langs[lang.Name] = lang
	r.mu.Unlock()
	r.cache.Delete(lang.Name)
	return nil
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.langs))
	for name := range r.langs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the compiled configuration for a language, compiling and
// caching it on first use. It fails with ErrGrammarMissing for unknown names
// and with the query compile error when a pattern file is malformed; in the
// latter case only that language is disabled.
func (r *Registry) Config(ctx context.Context, name string) (*Config, error) {
	if cached, ok := r.cache.Get(name); ok {
		return cached.(*Config), nil
	}

	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		if cached, ok := r.cache.Get(name); ok {
			return cached.(*Config), nil
		}

		r.mu.RLock()
		lang, ok := r.langs[name]
		r.mu.RUnlock()
		if !ok {
			return nil, errors.Errorf("%w: %s", ErrGrammarMissing, name)
		}

		cfg, err := compile(lang)
		if err != nil {
			zerolog.Ctx(ctx).Warn().
				Str("language", name).
				Err(err).
				Msg("query compilation failed, language disabled")
			return nil, err
		}

		zerolog.Ctx(ctx).Debug().
			Str("language", name).
			Msg("compiled pattern sets")

		r.cache.Set(name, cfg, gocache.NoExpiration)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

// Query file names inside a language's query directory.
const (
	highlightsFile = "highlights.scm"
	injectionsFile = "injections.scm"
)

// LoadQueries reads query sources for every registered language from
// root/<name>/highlights.scm and root/<name>/injections.scm on the given
// filesystem. Missing files leave the language's in-code sources untouched.
func (r *Registry) LoadQueries(fsys afero.Fs, root string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, lang := range r.langs {
		changed := false

		if b, err := readQueryFile(fsys, path.Join(root, name, highlightsFile)); err != nil {
			return err
		} else if b != nil {
			lang.HighlightsQuery = b
			changed = true
		}

		if b, err := readQueryFile(fsys, path.Join(root, name, injectionsFile)); err != nil {
			return err
		} else if b != nil {
			lang.InjectionsQuery = b
			changed = true
		}

		if changed {
			r.langs[name] = lang
			r.cache.Delete(name)
		}
	}
	return nil
}

func readQueryFile(fsys afero.Fs, name string) ([]byte, error) {
	b, err := afero.ReadFile(fsys, name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading query file %s: %w", name, err)
	}
	return b, nil
}
