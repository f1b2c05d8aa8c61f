// Package sqlite reads the module catalog from the content server's SQLite
// database.
//
// The schema is the one the content server's ORM generates: a Module table,
// a Category table and an implicit _CategoryToModule join table (A is the
// category id, B the module id). Only enabled modules are returned, ordered
// by name.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/errors"
)

const modulesQuery = `
SELECT CAST(id AS TEXT), name, COALESCE(description, ''), COALESCE(language, ''),
       COALESCE(indexHtmlUrl, ''), COALESCE(logoUrl, '')
FROM "Module"
WHERE enabled = 1
ORDER BY name ASC`

const categoriesQuery = `
SELECT CAST(cm."B" AS TEXT), c.name, COALESCE(c.description, '')
FROM "_CategoryToModule" cm
JOIN "Category" c ON c.id = cm."A"
ORDER BY c.name ASC`

// Source opens the database on every Fetch so the file may be replaced by
// the content server between refreshes.
type Source struct {
	dsn string
}

// New creates a Source for dsn (a file path or a file: URI).
func New(dsn string) *Source {
	return &Source{dsn: dsn}
}

// Fetch implements catalog.Source.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Entry, error) {
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return nil, errors.WrapIO("open", s.dsn, err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx, modulesQuery)
	if err != nil {
		return nil, errors.WrapIO("query", s.dsn, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []catalog.Entry
	pos := make(map[string]int)
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Description, &e.Language, &e.CanonicalContentURL, &e.LogoURL); err != nil {
			return nil, errors.WrapIO("scan", s.dsn, err)
		}
		pos[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapIO("query", s.dsn, err)
	}

	ok, err := hasTable(ctx, db, "_CategoryToModule")
	if err != nil || !ok {
		return entries, err
	}

	crows, err := db.QueryContext(ctx, categoriesQuery)
	if err != nil {
		return nil, errors.WrapIO("query", s.dsn, err)
	}
	defer func() { _ = crows.Close() }()

	for crows.Next() {
		var moduleID string
		var c catalog.Category
		if err := crows.Scan(&moduleID, &c.Name, &c.Description); err != nil {
			return nil, errors.WrapIO("scan", s.dsn, err)
		}
		if i, ok := pos[moduleID]; ok {
			entries[i].Categories = append(entries[i].Categories, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, errors.WrapIO("query", s.dsn, err)
	}
	return entries, nil
}

func hasTable(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
