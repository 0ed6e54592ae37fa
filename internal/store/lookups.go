package store

import (
	"context"
	"fmt"

	"catalogsync/internal/catalog"
	"catalogsync/internal/services"
)

// FindOrCreate returns the id of the lookup row whose normalized name matches
// name, creating it when absent. The first-seen spelling is kept as the display
// name. Concurrent callers converge on one row through the unique name_key.
func (s *Store) FindOrCreate(ctx context.Context, lookup Lookup, name string) (int64, error) {
	tables, ok := lookupSchema[lookup]
	if !ok {
		return 0, fmt.Errorf("find or create: unknown lookup %d", lookup)
	}
	key := catalog.LookupKey(name)
	if key == "" {
		return 0, services.Wrap(services.ErrValidation, "store", "find or create "+tables.table, "name is blank", nil)
	}

	// The no-op update makes RETURNING yield the existing id on conflict.
	query := "INSERT INTO " + tables.table + " (name, name_key) VALUES (?, ?) " +
		"ON CONFLICT (name_key) DO UPDATE SET name_key = excluded.name_key RETURNING id"
	id, err := s.returningID(ctx, query, catalog.DisplayName(name), key)
	if err != nil {
		return 0, fmt.Errorf("find or create %s %q: %w", tables.table, name, err)
	}
	return id, nil
}

// Link associates a title with a lookup row. Existing links are left untouched.
func (s *Store) Link(ctx context.Context, lookup Lookup, titleID, lookupID int64) error {
	tables, ok := lookupSchema[lookup]
	if !ok {
		return fmt.Errorf("link: unknown lookup %d", lookup)
	}
	query := "INSERT INTO " + tables.joinTable + " (title_id, " + tables.joinKey + ") VALUES (?, ?) " +
		"ON CONFLICT (title_id, " + tables.joinKey + ") DO NOTHING"
	if err := s.exec(ctx, query, titleID, lookupID); err != nil {
		return fmt.Errorf("link %s %d to title %d: %w", tables.table, lookupID, titleID, err)
	}
	return nil
}

func (s *Store) linkedNames(ctx context.Context, lookup Lookup, titleID int64) ([]string, error) {
	tables := lookupSchema[lookup]
	query := "SELECT l.name FROM " + tables.table + " l JOIN " + tables.joinTable + " j ON j." + tables.joinKey + " = l.id " +
		"WHERE j.title_id = ? ORDER BY j.id ASC"
	rows, err := s.query(ctx, query, titleID)
	if err != nil {
		return nil, fmt.Errorf("list %s for title %d: %w", tables.table, titleID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
