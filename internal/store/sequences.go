package store

import (
	"context"
	"errors"
	"fmt"
)

// sequenceTables lists every table with an auto-increment id, parents first.
var sequenceTables = []string{
	"titles",
	"genres",
	"actors",
	"countries",
	"title_genres",
	"title_actors",
	"title_countries",
	"seasons",
	"episodes",
}

// RepairSequences sets every id counter so the next insert receives max(id)+1.
// Tables are repaired independently; the returned error joins the failures of
// the tables that could not be repaired.
func (s *Store) RepairSequences(ctx context.Context) error {
	var errs []error
	for _, table := range sequenceTables {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		for _, stmt := range s.dialect.repairSequence(table) {
			if err := s.exec(ctx, stmt); err != nil {
				errs = append(errs, fmt.Errorf("repair %s sequence: %w", table, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}
