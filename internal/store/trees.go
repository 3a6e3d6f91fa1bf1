package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/drzraf/ged2dot/internal/graph"
)

// SaveGraph replaces the stored tree with g and records the import. References are
// stored by id, so g does not need to be resolved. Node order is preserved.
func (d *DB) SaveGraph(ctx context.Context, g *graph.Graph, source string) (*Import, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"individual_fams", "family_children", "individuals", "families"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	imp := &Import{
		ID:        uuid.New().String(),
		Source:    source,
		CreatedAt: time.Now().UnixMilli(),
	}
	for pos, n := range g.Nodes() {
		switch n := n.(type) {
		case *graph.Individual:
			if err := insertIndividual(ctx, tx, pos, n); err != nil {
				return nil, err
			}
			imp.Individuals++
		case *graph.Family:
			if err := insertFamily(ctx, tx, pos, n); err != nil {
				return nil, err
			}
			imp.Families++
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO imports (id, source, created_at, individuals, families)
		VALUES (?, ?, ?, ?, ?)
	`, imp.ID, imp.Source, imp.CreatedAt, imp.Individuals, imp.Families); err != nil {
		return nil, fmt.Errorf("recording import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return imp, nil
}

func insertIndividual(ctx context.Context, tx *sql.Tx, pos int, ind *graph.Individual) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO individuals (position, id, forename, surname, sex, famc, note, birth, death)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pos, ind.Identifier, ind.Forename, ind.Surname, ind.Sex, ind.FamcID, ind.Note, ind.Birth, ind.Death); err != nil {
		return fmt.Errorf("inserting individual %s: %w", ind.Identifier, err)
	}
	for ord, fam := range ind.FamsIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO individual_fams (position, ord, family_id) VALUES (?, ?, ?)",
			pos, ord, fam); err != nil {
			return fmt.Errorf("inserting FAMS of %s: %w", ind.Identifier, err)
		}
	}
	return nil
}

func insertFamily(ctx context.Context, tx *sql.Tx, pos int, fam *graph.Family) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO families (position, id, wife, husb) VALUES (?, ?, ?, ?)",
		pos, fam.Identifier, fam.WifeID, fam.HusbID); err != nil {
		return fmt.Errorf("inserting family %s: %w", fam.Identifier, err)
	}
	for ord, child := range fam.ChildIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_children (position, ord, child_id) VALUES (?, ?, ?)",
			pos, ord, child); err != nil {
			return fmt.Errorf("inserting CHIL of %s: %w", fam.Identifier, err)
		}
	}
	return nil
}

// LoadGraph returns the stored tree, unresolved, in its original order
func (d *DB) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	byPos := make(map[int]graph.Node)

	individuals, err := d.loadIndividuals(ctx)
	if err != nil {
		return nil, err
	}
	for pos, ind := range individuals {
		byPos[pos] = ind
	}

	families, err := d.loadFamilies(ctx)
	if err != nil {
		return nil, err
	}
	for pos, fam := range families {
		byPos[pos] = fam
	}

	g := graph.New()
	for _, pos := range slices.Sorted(maps.Keys(byPos)) {
		g.Add(byPos[pos])
	}
	return g, nil
}

func (d *DB) loadIndividuals(ctx context.Context) (map[int]*graph.Individual, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT position, id, forename, surname, sex, famc, note, birth, death
		FROM individuals
	`)
	if err != nil {
		return nil, fmt.Errorf("querying individuals: %w", err)
	}
	defer rows.Close()

	out := make(map[int]*graph.Individual)
	for rows.Next() {
		var pos int
		ind := graph.NewIndividual("")
		if err := rows.Scan(&pos, &ind.Identifier, &ind.Forename, &ind.Surname, &ind.Sex,
			&ind.FamcID, &ind.Note, &ind.Birth, &ind.Death); err != nil {
			return nil, fmt.Errorf("scanning individual: %w", err)
		}
		out[pos] = ind
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fams, err := d.conn.QueryContext(ctx, "SELECT position, family_id FROM individual_fams ORDER BY position, ord")
	if err != nil {
		return nil, fmt.Errorf("querying FAMS: %w", err)
	}
	defer fams.Close()
	for fams.Next() {
		var pos int
		var id string
		if err := fams.Scan(&pos, &id); err != nil {
			return nil, fmt.Errorf("scanning FAMS: %w", err)
		}
		if ind, ok := out[pos]; ok {
			ind.FamsIDs = append(ind.FamsIDs, id)
		}
	}
	return out, fams.Err()
}

func (d *DB) loadFamilies(ctx context.Context) (map[int]*graph.Family, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT position, id, wife, husb FROM families")
	if err != nil {
		return nil, fmt.Errorf("querying families: %w", err)
	}
	defer rows.Close()

	out := make(map[int]*graph.Family)
	for rows.Next() {
		var pos int
		fam := graph.NewFamily("")
		if err := rows.Scan(&pos, &fam.Identifier, &fam.WifeID, &fam.HusbID); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		out[pos] = fam
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	children, err := d.conn.QueryContext(ctx, "SELECT position, child_id FROM family_children ORDER BY position, ord")
	if err != nil {
		return nil, fmt.Errorf("querying CHIL: %w", err)
	}
	defer children.Close()
	for children.Next() {
		var pos int
		var id string
		if err := children.Scan(&pos, &id); err != nil {
			return nil, fmt.Errorf("scanning CHIL: %w", err)
		}
		if fam, ok := out[pos]; ok {
			fam.ChildIDs = append(fam.ChildIDs, id)
		}
	}
	return out, children.Err()
}

// Imports returns the recorded imports, newest first
func (d *DB) Imports(ctx context.Context) ([]Import, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, source, created_at, individuals, families
		FROM imports ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying imports: %w", err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.CreatedAt, &imp.Individuals, &imp.Families); err != nil {
			return nil, fmt.Errorf("scanning import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}
