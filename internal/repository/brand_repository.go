package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
)

type BrandRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	ListActive(ctx context.Context) ([]*models.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	query := `SELECT id, name, active, voice, style_guide, settings, created_at, updated_at FROM brands WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	brand, err := scanBrand(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return brand, nil
}

func (r *brandRepository) ListActive(ctx context.Context) ([]*models.Brand, error) {
	query := `SELECT id, name, active, voice, style_guide, settings, created_at, updated_at FROM brands WHERE active = TRUE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		brands = append(brands, brand)
	}
	return brands, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBrand(row rowScanner) (*models.Brand, error) {
	var brand models.Brand
	var voice, styleGuide, settings []byte

	err := row.Scan(&brand.ID, &brand.Name, &brand.Active, &voice, &styleGuide, &settings, &brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(voice, &brand.Voice); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(styleGuide, &brand.StyleGuide); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &brand.Settings); err != nil {
		return nil, err
	}
	return &brand, nil
}
