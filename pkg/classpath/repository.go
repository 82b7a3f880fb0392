// Package classpath locates class files in directories, archives and jmod
// files and caches the parsed classes.
package classpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/daimatz/jclass/pkg/classfile"
)

var log = commonlog.GetLogger("jclass.classpath")

// Repository loads classes by name from an ordered list of entries. The
// first entry that holds a class wins. Parsed classes are cached; the
// repository is safe for concurrent use.
type Repository struct {
	entries []Entry
	opts    []classfile.Option

	mu    sync.Mutex
	cache map[string]*classfile.JavaClass
}

// New creates a Repository searching entries in order.
func New(entries ...Entry) *Repository {
	return &Repository{
		entries: entries,
		cache:   make(map[string]*classfile.JavaClass),
	}
}

// Open creates a Repository from file system paths, choosing the entry
// type of each with OpenEntry.
func Open(paths ...string) (*Repository, error) {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		e, err := OpenEntry(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return New(entries...), nil
}

// SetParseOptions sets the options passed to classfile.Parse for classes
// loaded from now on.
func (r *Repository) SetParseOptions(opts ...classfile.Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Entries returns the search path.
func (r *Repository) Entries() []Entry { return r.entries }

// normalize accepts "java.lang.Object", "java/lang/Object" and
// "java/lang/Object.class".
func normalize(name string) string {
	name = strings.TrimSuffix(name, ".class")
	return strings.ReplaceAll(name, ".", "/")
}

// LoadClass returns the class with the given name, parsing it on first
// request. The error matches ErrClassNotFound when no entry holds it.
func (r *Repository) LoadClass(name string) (*classfile.JavaClass, error) {
	name = normalize(name)

	r.mu.Lock()
	if jc, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return jc, nil
	}
	opts := r.opts
	r.mu.Unlock()

	for _, e := range r.entries {
		data, err := e.ReadClass(name)
		if errors.Is(err, ErrClassNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jc, err := classfile.ParseBytes(data, opts...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s from %s: %w", name, e, err)
		}
		log.Debugf("loaded %s from %s", name, e)

		r.mu.Lock()
		defer r.mu.Unlock()
		// another goroutine may have loaded it meanwhile
		if cached, ok := r.cache[name]; ok {
			return cached, nil
		}
		r.cache[name] = jc
		return jc, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrClassNotFound)
}

// Store places jc in the cache under its own name, shadowing the entries.
func (r *Repository) Store(jc *classfile.JavaClass) error {
	name, err := jc.ClassName()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[name] = jc
	return nil
}

// Remove drops name from the cache.
func (r *Repository) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, normalize(name))
}

// Clear empties the cache.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*classfile.JavaClass)
}

// ClassNames lists every class reachable through the entries, sorted and
// without duplicates.
func (r *Repository) ClassNames() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, e := range r.entries {
		list, err := e.ClassNames()
		if err != nil {
			return nil, err
		}
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		log.Infof("%s: %d classes", e, len(list))
	}
	sort.Strings(names)
	return names, nil
}

// Superclasses returns the superclass chain of jc, nearest first, ending
// at the class with no superclass.
func (r *Repository) Superclasses(jc *classfile.JavaClass) ([]*classfile.JavaClass, error) {
	var chain []*classfile.JavaClass
	seen := make(map[string]bool)
	for {
		super, err := jc.SuperClassName()
		if err != nil {
			return nil, err
		}
		if super == "" {
			return chain, nil
		}
		if seen[super] {
			return nil, fmt.Errorf("circular superclass chain at %s", super)
		}
		seen[super] = true
		if jc, err = r.LoadClass(super); err != nil {
			return nil, fmt.Errorf("loading superclass: %w", err)
		}
		chain = append(chain, jc)
	}
}

// Close releases every entry.
func (r *Repository) Close() error {
	var errs []error
	for _, e := range r.entries {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
