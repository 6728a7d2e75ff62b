package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
)

type ConnectorRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sc *models.SocialConnector) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialConnector, error)
	GetByBrandAndPlatform(ctx context.Context, brandID int64, platform string) (*models.SocialConnector, error)
	ListByBrand(ctx context.Context, brandID int64) ([]*models.SocialConnector, error)
	ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialConnector, error)
	SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateRateCounters(ctx context.Context, id int64, postsThisHour int, hourStart time.Time, postsToday int, dayStart time.Time) error
	TouchLastPosted(ctx context.Context, id int64, postedAt time.Time) error
	Remove(ctx context.Context, id int64) error
}

type connectorRepository struct {
	db *sql.DB
}

func NewConnectorRepository(db *sql.DB) ConnectorRepository {
	return &connectorRepository{db: db}
}

const connectorColumns = `id, brand_id, platform, account_name, access_token, refresh_token, token_expires_at,
	rate_limits, posts_this_hour, hour_window_start, posts_today, day_window_start,
	COALESCE(last_posted_at, 'epoch'::timestamptz), platform_settings, created_at, updated_at`

func (r *connectorRepository) Create(ctx context.Context, tx *sql.Tx, sc *models.SocialConnector) (int64, error) {
	insertQuery := `
		INSERT INTO social_connectors(
			brand_id,
			platform,
			account_name,
			access_token,
			refresh_token,
			token_expires_at,
			rate_limits,
			platform_settings
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	rateLimits, err := json.Marshal(sc.RateLimits)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	settings, err := json.Marshal(sc.PlatformSettings)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, sc.BrandID, sc.Platform, sc.AccountName,
			sc.AccessToken, sc.RefreshToken, sc.TokenExpiresAt, rateLimits, settings).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, sc.BrandID, sc.Platform, sc.AccountName,
			sc.AccessToken, sc.RefreshToken, sc.TokenExpiresAt, rateLimits, settings).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectorRepository) GetByID(ctx context.Context, id int64) (*models.SocialConnector, error) {
	query := `SELECT ` + connectorColumns + ` FROM social_connectors WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	sc, err := scanConnector(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sc, nil
}

func (r *connectorRepository) GetByBrandAndPlatform(ctx context.Context, brandID int64, platform string) (*models.SocialConnector, error) {
	query := `SELECT ` + connectorColumns + ` FROM social_connectors WHERE brand_id = $1 AND platform = $2`
	row := r.db.QueryRowContext(ctx, query, brandID, platform)

	sc, err := scanConnector(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sc, nil
}

func (r *connectorRepository) ListByBrand(ctx context.Context, brandID int64) ([]*models.SocialConnector, error) {
	query := `SELECT ` + connectorColumns + ` FROM social_connectors WHERE brand_id = $1`
	rows, err := r.db.QueryContext(ctx, query, brandID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connectors []*models.SocialConnector
	for rows.Next() {
		sc, err := scanConnector(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connectors = append(connectors, sc)
	}
	return connectors, rows.Err()
}

func (r *connectorRepository) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialConnector, error) {
	query := `SELECT ` + connectorColumns + `
		FROM social_connectors
		WHERE (token_expires_at BETWEEN $1 AND $2)
		OR (token_expires_at < $1)`
	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connectors []*models.SocialConnector
	for rows.Next() {
		sc, err := scanConnector(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connectors = append(connectors, sc)
	}
	return connectors, rows.Err()
}

func (r *connectorRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	updateTokenQuery := `
		UPDATE social_connectors
		SET
			access_token = COALESCE(NULLIF($2, ''), access_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1;
	`
	result, err := tx.ExecContext(ctx, updateTokenQuery, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; connector may not exist")
		return errors.New("no rows affected; connector may not exist")
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectorRepository) UpdateRateCounters(ctx context.Context, id int64, postsThisHour int, hourStart time.Time, postsToday int, dayStart time.Time) error {
	query := `
		UPDATE social_connectors
		SET posts_this_hour = $2,
			hour_window_start = $3,
			posts_today = $4,
			day_window_start = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, postsThisHour, hourStart, postsToday, dayStart)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectorRepository) TouchLastPosted(ctx context.Context, id int64, postedAt time.Time) error {
	query := `UPDATE social_connectors SET last_posted_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, postedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectorRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_connectors WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanConnector(row rowScanner) (*models.SocialConnector, error) {
	var sc models.SocialConnector
	var rateLimits, settings []byte

	err := row.Scan(&sc.ID, &sc.BrandID, &sc.Platform, &sc.AccountName, &sc.AccessToken, &sc.RefreshToken,
		&sc.TokenExpiresAt, &rateLimits, &sc.PostsThisHour, &sc.HourWindowStart, &sc.PostsToday,
		&sc.DayWindowStart, &sc.LastPostedAt, &settings, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(rateLimits) > 0 {
		if err := json.Unmarshal(rateLimits, &sc.RateLimits); err != nil {
			return nil, err
		}
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &sc.PlatformSettings); err != nil {
			return nil, err
		}
	}
	return &sc, nil
}
