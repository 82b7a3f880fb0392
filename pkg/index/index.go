// Package index stores class, method and field metadata from a class
// repository in a SQLite database.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/classpath"
)

var log = commonlog.GetLogger("jclass.index")

// ErrNotFound indicates the requested class isn't indexed.
var ErrNotFound = errors.New("class not indexed")

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	name         TEXT PRIMARY KEY,
	super        TEXT NOT NULL,
	interfaces   TEXT NOT NULL,
	access_flags INTEGER NOT NULL,
	major        INTEGER NOT NULL,
	minor        INTEGER NOT NULL,
	source_file  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS methods (
	class        TEXT NOT NULL,
	name         TEXT NOT NULL,
	descriptor   TEXT NOT NULL,
	access_flags INTEGER NOT NULL,
	code_length  INTEGER NOT NULL,
	PRIMARY KEY (class, name, descriptor)
);
CREATE TABLE IF NOT EXISTS fields (
	class        TEXT NOT NULL,
	name         TEXT NOT NULL,
	descriptor   TEXT NOT NULL,
	access_flags INTEGER NOT NULL,
	PRIMARY KEY (class, name, descriptor)
);
CREATE INDEX IF NOT EXISTS classes_super ON classes (super);
`

// Index is a SQLite class index.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens or creates the index database at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// DB exposes the underlying database for ad hoc queries.
func (ix *Index) DB() *sql.DB { return ix.db }

// Close closes the database connection.
func (ix *Index) Close() error {
	if ix.db != nil {
		return ix.db.Close()
	}
	return nil
}

// ClassRow is one row of the classes table.
type ClassRow struct {
	Name        string
	Super       string
	Interfaces  []string
	AccessFlags classfile.AccessFlags
	Major       uint16
	Minor       uint16
	SourceFile  string
}

// MemberRow is one row of the methods or fields table. CodeLength is
// always zero for fields and for methods without code.
type MemberRow struct {
	Class       string
	Name        string
	Descriptor  string
	AccessFlags classfile.AccessFlags
	CodeLength  int
}

type entry struct {
	class   ClassRow
	methods []MemberRow
	fields  []MemberRow
}

// Build loads the named classes from repo, parsing them concurrently, and
// writes them to ix in one transaction. Rows of re-indexed classes are
// replaced. A nil names indexes every class in repo. It returns the number
// of classes written.
func Build(ctx context.Context, ix *Index, repo *classpath.Repository, names []string) (int, error) {
	if names == nil {
		var err error
		if names, err = repo.ClassNames(); err != nil {
			return 0, err
		}
	}

	entries := make([]*entry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jc, err := repo.LoadClass(name)
			if err != nil {
				return err
			}
			e, err := newEntry(jc)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", name, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := ix.write(ctx, entries); err != nil {
		return 0, err
	}
	log.Infof("indexed %d classes into %s", len(entries), ix.path)
	return len(entries), nil
}

func newEntry(jc *classfile.JavaClass) (*entry, error) {
	cp := jc.ConstantPool
	name, err := jc.ClassName()
	if err != nil {
		return nil, err
	}
	super, err := jc.SuperClassName()
	if err != nil {
		return nil, err
	}
	ifaces, err := jc.InterfaceNames()
	if err != nil {
		return nil, err
	}
	source, err := jc.SourceFileName()
	if err != nil {
		return nil, err
	}
	e := &entry{class: ClassRow{
		Name:        name,
		Super:       super,
		Interfaces:  ifaces,
		AccessFlags: jc.AccessFlags,
		Major:       jc.MajorVersion,
		Minor:       jc.MinorVersion,
		SourceFile:  source,
	}}

	for _, f := range jc.Fields {
		row, err := memberRow(name, &f.FieldOrMethod, cp)
		if err != nil {
			return nil, err
		}
		e.fields = append(e.fields, row)
	}
	for _, m := range jc.Methods {
		row, err := memberRow(name, &m.FieldOrMethod, cp)
		if err != nil {
			return nil, err
		}
		if code := m.Code(); code != nil {
			row.CodeLength = len(code.Bytecode)
		}
		e.methods = append(e.methods, row)
	}
	return e, nil
}

func memberRow(class string, m *classfile.FieldOrMethod, cp *classfile.ConstantPool) (MemberRow, error) {
	name, err := m.Name(cp)
	if err != nil {
		return MemberRow{}, err
	}
	desc, err := m.Descriptor(cp)
	if err != nil {
		return MemberRow{}, err
	}
	return MemberRow{Class: class, Name: name, Descriptor: desc, AccessFlags: m.AccessFlags}, nil
}

func (ix *Index) write(ctx context.Context, entries []*entry) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		c := e.class
		for _, table := range []string{"methods", "fields"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE class = ?", c.Name); err != nil {
				return fmt.Errorf("clearing %s of %s: %w", table, c.Name, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO classes (name, super, interfaces, access_flags, major, minor, source_file) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.Name, c.Super, strings.Join(c.Interfaces, ","), int64(c.AccessFlags), int64(c.Major), int64(c.Minor), c.SourceFile,
		)
		if err != nil {
			return fmt.Errorf("saving class %s: %w", c.Name, err)
		}
		for _, m := range e.methods {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO methods (class, name, descriptor, access_flags, code_length) VALUES (?, ?, ?, ?, ?)",
				m.Class, m.Name, m.Descriptor, int64(m.AccessFlags), m.CodeLength,
			)
			if err != nil {
				return fmt.Errorf("saving method %s.%s: %w", m.Class, m.Name, err)
			}
		}
		for _, f := range e.fields {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO fields (class, name, descriptor, access_flags) VALUES (?, ?, ?, ?)",
				f.Class, f.Name, f.Descriptor, int64(f.AccessFlags),
			)
			if err != nil {
				return fmt.Errorf("saving field %s.%s: %w", f.Class, f.Name, err)
			}
		}
		log.Debugf("indexed %s: %d methods, %d fields", c.Name, len(e.methods), len(e.fields))
	}
	return tx.Commit()
}

// Class returns the indexed row for name.
func (ix *Index) Class(ctx context.Context, name string) (*ClassRow, error) {
	var (
		c      ClassRow
		ifaces string
		flags  int64
	)
	err := ix.db.QueryRowContext(ctx,
		"SELECT name, super, interfaces, access_flags, major, minor, source_file FROM classes WHERE name = ?", name,
	).Scan(&c.Name, &c.Super, &ifaces, &flags, &c.Major, &c.Minor, &c.SourceFile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("querying class: %w", err)
	}
	c.AccessFlags = classfile.AccessFlags(flags)
	if ifaces != "" {
		c.Interfaces = strings.Split(ifaces, ",")
	}
	return &c, nil
}

// Methods returns the methods of class ordered by name and descriptor.
func (ix *Index) Methods(ctx context.Context, class string) ([]MemberRow, error) {
	return ix.members(ctx, "SELECT class, name, descriptor, access_flags, code_length FROM methods WHERE class = ? ORDER BY name, descriptor", class)
}

// Fields returns the fields of class ordered by name.
func (ix *Index) Fields(ctx context.Context, class string) ([]MemberRow, error) {
	return ix.members(ctx, "SELECT class, name, descriptor, access_flags, 0 FROM fields WHERE class = ? ORDER BY name, descriptor", class)
}

func (ix *Index) members(ctx context.Context, query, class string) ([]MemberRow, error) {
	rows, err := ix.db.QueryContext(ctx, query, class)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var out []MemberRow
	for rows.Next() {
		var (
			m     MemberRow
			flags int64
		)
		if err := rows.Scan(&m.Class, &m.Name, &m.Descriptor, &flags, &m.CodeLength); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		m.AccessFlags = classfile.AccessFlags(flags)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Subclasses returns the indexed classes whose direct superclass is super.
func (ix *Index) Subclasses(ctx context.Context, super string) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, "SELECT name FROM classes WHERE super = ? ORDER BY name", super)
	if err != nil {
		return nil, fmt.Errorf("querying subclasses: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
