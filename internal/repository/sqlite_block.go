package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLiteBlockRepo stores the block catalog and loads it back as a graph.
type SQLiteBlockRepo struct {
	db db.DBTX
}

func NewSQLiteBlockRepo(conn db.DBTX) *SQLiteBlockRepo {
	return &SQLiteBlockRepo{db: conn}
}

func (r *SQLiteBlockRepo) Create(ctx context.Context, b *domain.CatalogBlock) error {
	query := `INSERT INTO blocks (usage_key, course_key, block_type, display_name, due, graded, format)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.UsageKey,
		b.CourseKey,
		string(b.Type),
		b.DisplayName,
		nullableTimeToString(b.Due),
		nullableBoolToValue(b.Graded),
		b.Format,
	)
	if err != nil {
		return fmt.Errorf("inserting block %s: %w", b.UsageKey, err)
	}
	return nil
}

func (r *SQLiteBlockRepo) AddChild(ctx context.Context, parentKey, childKey string, position int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO block_children (parent_key, child_key, position) VALUES (?, ?, ?)`,
		parentKey, childKey, position,
	)
	if err != nil {
		return fmt.Errorf("linking %s -> %s: %w", parentKey, childKey, err)
	}
	return nil
}

// LoadStructure reads a course's catalog into a block graph rooted at the
// course's root usage key. Only fields holding data are set on a block.
// Child references to blocks the catalog does not hold are kept as
// undeclared graph nodes.
func (r *SQLiteBlockRepo) LoadStructure(ctx context.Context, courseKey string) (*blockgraph.BlockStructure, error) {
	ck, err := coursekey.Parse(courseKey)
	if err != nil {
		return nil, err
	}
	root := ck.RootUsageKey().String()

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM blocks WHERE usage_key = ? AND course_key = ?`, root, courseKey,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("root block of %s: %w", courseKey, ErrNotFound)
		}
		return nil, fmt.Errorf("loading blocks for %s: %w", courseKey, err)
	}

	bs := blockgraph.New(root)
	if err := r.loadBlocks(ctx, courseKey, bs); err != nil {
		return nil, fmt.Errorf("loading blocks for %s: %w", courseKey, err)
	}
	if err := r.loadRelations(ctx, courseKey, bs); err != nil {
		return nil, fmt.Errorf("loading blocks for %s: %w", courseKey, err)
	}
	return bs, nil
}

func (r *SQLiteBlockRepo) loadBlocks(ctx context.Context, courseKey string, bs *blockgraph.BlockStructure) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT usage_key, block_type, display_name, due, graded, format
		FROM blocks WHERE course_key = ? ORDER BY rowid`, courseKey)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, typ, name, format string
		var due sql.NullString
		var graded sql.NullInt64
		if err := rows.Scan(&key, &typ, &name, &due, &graded, &format); err != nil {
			return fmt.Errorf("scanning block row: %w", err)
		}

		fields := map[string]any{blockgraph.FieldType: typ}
		if name != "" {
			fields[blockgraph.FieldDisplayName] = name
		}
		if format != "" {
			fields[blockgraph.FieldFormat] = format
		}
		if t := parseNullableTime(due); t != nil {
			fields[blockgraph.FieldDue] = *t
		}
		if g := parseNullableBool(graded); g != nil {
			fields[blockgraph.FieldGraded] = *g
		}
		bs.AddBlock(key, fields)
	}
	return rows.Err()
}

func (r *SQLiteBlockRepo) loadRelations(ctx context.Context, courseKey string, bs *blockgraph.BlockStructure) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bc.parent_key, bc.child_key
		FROM block_children bc
		JOIN blocks b ON b.usage_key = bc.parent_key
		WHERE b.course_key = ?
		ORDER BY b.rowid, bc.position`, courseKey)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parent, child string
		if err := rows.Scan(&parent, &child); err != nil {
			return fmt.Errorf("scanning block relation: %w", err)
		}
		bs.AddRelation(parent, child)
	}
	return rows.Err()
}
