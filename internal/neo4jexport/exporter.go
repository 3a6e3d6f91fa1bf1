// Package neo4jexport pushes a family tree into a Neo4j database.
package neo4jexport

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/drzraf/ged2dot/internal/graph"
)

// Options are the connection settings
type Options struct {
	URI      string
	Username string
	Password string
	Database string // empty selects the server default
}

// Stats counts what an export wrote
type Stats struct {
	Individuals int `json:"individuals"`
	Families    int `json:"families"`
	Spouses     int `json:"spouses"`
	Children    int `json:"children"`
}

// Exporter writes trees through a Neo4j driver
type Exporter struct {
	driver neo4j.DriverWithContext
	dbName string
}

// New connects to Neo4j and verifies the connection
func New(ctx context.Context, opts Options) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	return &Exporter{driver: driver, dbName: opts.Database}, nil
}

func (e *Exporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Reset deletes every Individual and Family node
func (e *Exporter) Reset(ctx context.Context) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) WHERE n:Individual OR n:Family DETACH DELETE n", nil)
	})
	return err
}

const (
	mergeIndividuals = `
		UNWIND $rows AS row
		MERGE (i:Individual {id: row.id})
		SET i.forename = row.forename,
			i.surname = row.surname,
			i.sex = row.sex,
			i.birth = row.birth,
			i.death = row.death,
			i.note = row.note
	`
	mergeFamilies = `
		UNWIND $rows AS row
		MERGE (f:Family {id: row.id})
	`
	mergeSpouses = `
		UNWIND $rows AS row
		MATCH (i:Individual {id: row.individual}), (f:Family {id: row.family})
		MERGE (i)-[r:SPOUSE_OF]->(f)
		SET r.role = row.role
	`
	mergeChildren = `
		UNWIND $rows AS row
		MATCH (i:Individual {id: row.individual}), (f:Family {id: row.family})
		MERGE (i)-[:CHILD_OF]->(f)
	`
)

// Export merges every entity and relationship of g in one write transaction.
// Running it twice leaves the database unchanged.
func (e *Exporter) Export(ctx context.Context, g *graph.Graph) (Stats, error) {
	batch := buildBatch(g)

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, step := range []struct {
			what  string
			query string
			rows  []map[string]any
		}{
			{"individuals", mergeIndividuals, batch.individuals},
			{"families", mergeFamilies, batch.families},
			{"spouses", mergeSpouses, batch.spouses},
			{"children", mergeChildren, batch.children},
		} {
			if len(step.rows) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, step.query, map[string]any{"rows": step.rows}); err != nil {
				return nil, fmt.Errorf("merging %s: %w", step.what, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return batch.stats(), nil
}

// batch holds the UNWIND parameter rows of one export
type batch struct {
	individuals []map[string]any
	families    []map[string]any
	spouses     []map[string]any
	children    []map[string]any
}

func (b *batch) stats() Stats {
	return Stats{
		Individuals: len(b.individuals),
		Families:    len(b.families),
		Spouses:     len(b.spouses),
		Children:    len(b.children),
	}
}

func buildBatch(g *graph.Graph) *batch {
	b := &batch{}
	for _, ind := range g.Individuals() {
		b.individuals = append(b.individuals, individualRow(ind))
	}
	for _, fam := range g.Families() {
		b.families = append(b.families, map[string]any{"id": fam.Identifier})
		if fam.WifeID != "" {
			b.spouses = append(b.spouses, relationRow(fam.WifeID, fam.Identifier, "wife"))
		}
		if fam.HusbID != "" {
			b.spouses = append(b.spouses, relationRow(fam.HusbID, fam.Identifier, "husb"))
		}
		for _, child := range fam.ChildIDs {
			b.children = append(b.children, relationRow(child, fam.Identifier, ""))
		}
	}
	return b
}

func individualRow(ind *graph.Individual) map[string]any {
	return map[string]any{
		"id":       ind.Identifier,
		"forename": ind.Forename,
		"surname":  ind.Surname,
		"sex":      ind.Sex,
		"birth":    ind.Birth,
		"death":    ind.Death,
		"note":     ind.Note,
	}
}

func relationRow(individual, family, role string) map[string]any {
	row := map[string]any{"individual": individual, "family": family}
	if role != "" {
		row["role"] = role
	}
	return row
}
