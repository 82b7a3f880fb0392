package classpath

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrClassNotFound is returned when no entry holds the requested class.
var ErrClassNotFound = errors.New("class not found")

// Entry is one location classes are read from: a directory tree, a jar or
// zip archive, or a JDK jmod file. Names are internal class names such as
// "java/lang/Object".
type Entry interface {
	ReadClass(name string) ([]byte, error)
	ClassNames() ([]string, error)
	Close() error
	String() string
}

// DirEntry reads classes from a directory laid out by package.
type DirEntry struct {
	Root string
}

// NewDirEntry returns an entry rooted at dir.
func NewDirEntry(dir string) *DirEntry {
	return &DirEntry{Root: dir}
}

func (e *DirEntry) ReadClass(name string) ([]byte, error) {
	path := filepath.Join(e.Root, filepath.FromSlash(name)+".class")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s in %s: %w", name, e.Root, ErrClassNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("dir: reading %s: %w", path, err)
	}
	return data, nil
}

func (e *DirEntry) ClassNames() ([]string, error) {
	var names []string
	err := filepath.WalkDir(e.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(e.Root, path)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), ".class"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dir: walking %s: %w", e.Root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (e *DirEntry) Close() error   { return nil }
func (e *DirEntry) String() string { return e.Root }

// jmodMagic precedes the zip data of a jmod file.
var jmodMagic = []byte("JM\x01\x00")

// ArchiveEntry reads classes from a zip-format archive. Jar and zip files
// keep classes at the root; jmod files keep them under "classes/" after a
// four byte header. The archive is opened on first use.
type ArchiveEntry struct {
	Path   string
	prefix string
	jmod   bool

	mu     sync.Mutex
	opened bool
	closer io.Closer
	files  map[string]*zip.File
}

// NewArchiveEntry returns an entry for a jar or zip file.
func NewArchiveEntry(path string) *ArchiveEntry {
	return &ArchiveEntry{Path: path}
}

// NewJmodEntry returns an entry for a JDK jmod file such as
// $JAVA_HOME/jmods/java.base.jmod.
func NewJmodEntry(path string) *ArchiveEntry {
	return &ArchiveEntry{Path: path, prefix: "classes/", jmod: true}
}

func (e *ArchiveEntry) kind() string {
	if e.jmod {
		return "jmod"
	}
	return "archive"
}

func (e *ArchiveEntry) open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return nil
	}

	var zr *zip.Reader
	if e.jmod {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return fmt.Errorf("jmod: reading %s: %w", e.Path, err)
		}
		if !bytes.HasPrefix(data, jmodMagic) {
			return fmt.Errorf("jmod: %s: missing JM header", e.Path)
		}
		data = data[len(jmodMagic):] // Skip "JM\x01\x00" header
		if zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			return fmt.Errorf("jmod: opening zip in %s: %w", e.Path, err)
		}
	} else {
		rc, err := zip.OpenReader(e.Path)
		if err != nil {
			return fmt.Errorf("archive: opening %s: %w", e.Path, err)
		}
		zr = &rc.Reader
		e.closer = rc
	}

	e.files = make(map[string]*zip.File)
	for _, f := range zr.File {
		name, ok := strings.CutPrefix(f.Name, e.prefix)
		if !ok || !strings.HasSuffix(name, ".class") {
			continue
		}
		e.files[strings.TrimSuffix(name, ".class")] = f
	}
	e.opened = true
	return nil
}

func (e *ArchiveEntry) ReadClass(name string) ([]byte, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	f, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", name, e.Path, ErrClassNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: opening %s: %w", e.kind(), f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", e.kind(), f.Name, err)
	}
	return data, nil
}

func (e *ArchiveEntry) ClassNames() ([]string, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(e.files))
	for name := range e.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (e *ArchiveEntry) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.closer != nil {
		err = e.closer.Close()
	}
	e.opened, e.closer, e.files = false, nil, nil
	return err
}

func (e *ArchiveEntry) String() string { return e.Path }

// OpenEntry picks the entry type for path: a directory, a .jmod file, or
// any other file as a jar or zip archive.
func OpenEntry(path string) (Entry, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("classpath entry: %w", err)
	}
	switch {
	case st.IsDir():
		return NewDirEntry(path), nil
	case strings.HasSuffix(path, ".jmod"):
		return NewJmodEntry(path), nil
	}
	return NewArchiveEntry(path), nil
}

// FindJmod locates java.base.jmod from $JAVA_BASE_JMOD, then
// $JAVA_HOME/jmods, then the usual Linux JDK install paths. It returns ""
// when none is found.
func FindJmod() string {
	// 1. Explicit env var
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	// 2. JAVA_HOME
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	// 3. Glob fallback
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
