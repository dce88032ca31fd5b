// Package desktopcache is a read-only lookup over the desktop-file →
// package-name cache (spec.md §1: "contract reduced to two lookup
// operations"). The cache itself is maintained by something else
// (typically a package manager's post-install hook); this package only
// ever queries it, and opens the database lazily on first use.
package desktopcache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// Cache is a lazily-opened, read-only handle onto the desktop-file
// cache database.
type Cache struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
}

// New returns a Cache that will open path on first query.
func New(path string) *Cache {
	return &Cache{path: path}
}

func (c *Cache) open() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db, nil
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&immutable=1", c.path))
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

// PackageForDesktopFile resolves a desktop-file basename (e.g.
// "org.gnome.Calculator.desktop") to the package that installed it.
func (c *Cache) PackageForDesktopFile(ctx context.Context, desktopFile string) (string, bool, error) {
	db, err := c.open()
	if err != nil {
		return "", false, err
	}

	query, args, err := sq.Select("package_name").
		From("desktop_files").
		Where(sq.Eq{"filename": desktopFile}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", false, err
	}

	var pkg string
	err = db.QueryRowContext(ctx, query, args...).Scan(&pkg)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pkg, true, nil
}

// DesktopFilesForPackage resolves a package name to the desktop files
// it installed, the inverse lookup.
func (c *Cache) DesktopFilesForPackage(ctx context.Context, packageName string) ([]string, error) {
	db, err := c.open()
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select("filename").
		From("desktop_files").
		Where(sq.Eq{"package_name": packageName}).
		OrderBy("filename").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		out = append(out, filename)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle, if it was ever
// opened.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
