package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// Repository implements repository.MappingRepository on Postgres. Stage
// mapping configuration is read-heavy and write-rare; every write goes
// through an ON CONFLICT upsert keyed by canonical stage.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new Postgres repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the mapping and definition tables if they don't exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	mappingsDDL := `
	CREATE TABLE IF NOT EXISTS stage_mappings (
		id UUID PRIMARY KEY,
		canonical_stage TEXT NOT NULL UNIQUE,
		start_stage_id TEXT NOT NULL DEFAULT '',
		end_stage_id TEXT NOT NULL DEFAULT '',
		start_stage_name TEXT NOT NULL DEFAULT '',
		end_stage_name TEXT NOT NULL DEFAULT '',
		avg_min_days DOUBLE PRECISION,
		avg_max_days DOUBLE PRECISION,
		metric_comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	if _, err := r.client.DB().ExecContext(ctx, mappingsDDL); err != nil {
		return fmt.Errorf("failed to create stage_mappings table: %w", err)
	}

	definitionsDDL := `
	CREATE TABLE IF NOT EXISTS metric_definitions (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		canonical_stage TEXT NOT NULL REFERENCES stage_mappings(canonical_stage) ON UPDATE CASCADE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	if _, err := r.client.DB().ExecContext(ctx, definitionsDDL); err != nil {
		return fmt.Errorf("failed to create metric_definitions table: %w", err)
	}

	r.log.Info("Postgres schema initialized successfully")
	return nil
}

const mappingColumns = `id, canonical_stage, start_stage_id, end_stage_id, start_stage_name, end_stage_name, avg_min_days, avg_max_days, metric_comment, created_at, updated_at`

func scanMapping(row interface{ Scan(...interface{}) error }) (*domain.StageMapping, error) {
	var m domain.StageMapping
	var minDays, maxDays sql.NullFloat64
	err := row.Scan(&m.ID, &m.CanonicalStage, &m.StartStageID, &m.EndStageID,
		&m.StartStageName, &m.EndStageName, &minDays, &maxDays,
		&m.MetricComment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if minDays.Valid {
		m.AvgMinDays = &minDays.Float64
	}
	if maxDays.Valid {
		m.AvgMaxDays = &maxDays.Float64
	}
	return &m, nil
}

// UpsertMapping inserts or updates a mapping keyed by canonical stage.
func (r *Repository) UpsertMapping(ctx context.Context, mapping *domain.StageMapping) (*domain.StageMapping, error) {
	row := r.client.DB().QueryRowContext(ctx, `
		INSERT INTO stage_mappings (id, canonical_stage, start_stage_id, end_stage_id, start_stage_name, end_stage_name, avg_min_days, avg_max_days, metric_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (canonical_stage) DO UPDATE SET
			start_stage_id = EXCLUDED.start_stage_id,
			end_stage_id = EXCLUDED.end_stage_id,
			start_stage_name = EXCLUDED.start_stage_name,
			end_stage_name = EXCLUDED.end_stage_name,
			avg_min_days = EXCLUDED.avg_min_days,
			avg_max_days = EXCLUDED.avg_max_days,
			metric_comment = EXCLUDED.metric_comment,
			updated_at = NOW()
		RETURNING `+mappingColumns,
		mapping.ID, mapping.CanonicalStage, mapping.StartStageID, mapping.EndStageID,
		mapping.StartStageName, mapping.EndStageName,
		nullFloat(mapping.AvgMinDays), nullFloat(mapping.AvgMaxDays), mapping.MetricComment)

	saved, err := scanMapping(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mapping: %w", err)
	}
	return saved, nil
}

// GetMapping retrieves the mapping for a canonical stage, nil when absent.
func (r *Repository) GetMapping(ctx context.Context, canonicalStage string) (*domain.StageMapping, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM stage_mappings WHERE canonical_stage = $1`, canonicalStage)

	m, err := scanMapping(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}
	return m, nil
}

// ListMappings returns every mapping ordered by canonical stage.
func (r *Repository) ListMappings(ctx context.Context) ([]*domain.StageMapping, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM stage_mappings ORDER BY canonical_stage`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*domain.StageMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mapping rows: %w", err)
	}
	return mappings, nil
}

// DeleteMapping removes a mapping. Fails if a metric definition still
// references the canonical stage.
func (r *Repository) DeleteMapping(ctx context.Context, canonicalStage string) error {
	result, err := r.client.DB().ExecContext(ctx,
		`DELETE FROM stage_mappings WHERE canonical_stage = $1`, canonicalStage)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const definitionColumns = `id, title, canonical_stage, sort_order, active, created_at, updated_at`

func scanDefinition(row interface{ Scan(...interface{}) error }) (*domain.MetricDefinition, error) {
	var d domain.MetricDefinition
	err := row.Scan(&d.ID, &d.Title, &d.CanonicalStage, &d.SortOrder, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDefinition inserts or updates a metric definition by ID.
func (r *Repository) UpsertDefinition(ctx context.Context, def *domain.MetricDefinition) (*domain.MetricDefinition, error) {
	row := r.client.DB().QueryRowContext(ctx, `
		INSERT INTO metric_definitions (id, title, canonical_stage, sort_order, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			canonical_stage = EXCLUDED.canonical_stage,
			sort_order = EXCLUDED.sort_order,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING `+definitionColumns,
		def.ID, def.Title, def.CanonicalStage, def.SortOrder, def.Active)

	saved, err := scanDefinition(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert definition: %w", err)
	}
	return saved, nil
}

// ListDefinitions returns every definition ordered by sort order.
func (r *Repository) ListDefinitions(ctx context.Context) ([]*domain.MetricDefinition, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+definitionColumns+` FROM metric_definitions ORDER BY sort_order, title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*domain.MetricDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition row: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}
	return defs, nil
}

// ListActiveDefinitions returns active definitions joined with their mappings,
// ordered by configured sort order.
func (r *Repository) ListActiveDefinitions(ctx context.Context) ([]*repository.DefinitionWithMapping, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT d.id, d.title, d.canonical_stage, d.sort_order, d.active, d.created_at, d.updated_at,
		       m.id, m.canonical_stage, m.start_stage_id, m.end_stage_id, m.start_stage_name, m.end_stage_name,
		       m.avg_min_days, m.avg_max_days, m.metric_comment, m.created_at, m.updated_at
		FROM metric_definitions d
		JOIN stage_mappings m ON m.canonical_stage = d.canonical_stage
		WHERE d.active
		ORDER BY d.sort_order, d.title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active definitions: %w", err)
	}
	defer rows.Close()

	var result []*repository.DefinitionWithMapping
	for rows.Next() {
		var item repository.DefinitionWithMapping
		var minDays, maxDays sql.NullFloat64
		err := rows.Scan(
			&item.Definition.ID, &item.Definition.Title, &item.Definition.CanonicalStage,
			&item.Definition.SortOrder, &item.Definition.Active,
			&item.Definition.CreatedAt, &item.Definition.UpdatedAt,
			&item.Mapping.ID, &item.Mapping.CanonicalStage,
			&item.Mapping.StartStageID, &item.Mapping.EndStageID,
			&item.Mapping.StartStageName, &item.Mapping.EndStageName,
			&minDays, &maxDays, &item.Mapping.MetricComment,
			&item.Mapping.CreatedAt, &item.Mapping.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan joined definition row: %w", err)
		}
		if minDays.Valid {
			item.Mapping.AvgMinDays = &minDays.Float64
		}
		if maxDays.Valid {
			item.Mapping.AvgMaxDays = &maxDays.Float64
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating joined definition rows: %w", err)
	}
	return result, nil
}

// DeleteDefinition removes a definition by ID. The mapping it references is
// retained for historical metric reconstruction.
func (r *Repository) DeleteDefinition(ctx context.Context, id string) error {
	result, err := r.client.DB().ExecContext(ctx,
		`DELETE FROM metric_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ping checks if the Postgres connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the Postgres connection
func (r *Repository) Close() error {
	return r.client.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
