package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adukenov/uslugi-backend/internal/models"
)

// ErrSubServiceNotFound возвращается, когда подуслуга не найдена.
var ErrSubServiceNotFound = errors.New("sub-service not found")

// CatalogRepository отвечает за справочник услуг и компетенции специалистов.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListMainServices возвращает все основные категории услуг.
func (r *CatalogRepository) ListMainServices(ctx context.Context) ([]models.MainService, error) {
	var services []models.MainService
	err := r.db.SelectContext(ctx, &services, `
		SELECT id, name, created_at
		FROM main_services ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list main services %w", err)
	}
	return services, nil
}

// ListSubServices возвращает подуслуги, при заданном mainServiceID только в
// рамках этой категории.
func (r *CatalogRepository) ListSubServices(ctx context.Context, mainServiceID *uuid.UUID) ([]models.SubService, error) {
	var services []models.SubService
	var err error
	if mainServiceID != nil {
		err = r.db.SelectContext(ctx, &services, `
			SELECT id, main_service_id, name, description, base_price, expiration_hours, created_at
			FROM sub_services WHERE main_service_id = $1 ORDER BY name
		`, *mainServiceID)
	} else {
		err = r.db.SelectContext(ctx, &services, `
			SELECT id, main_service_id, name, description, base_price, expiration_hours, created_at
			FROM sub_services ORDER BY name
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list sub services %w", err)
	}
	return services, nil
}

// CreateMainService добавляет категорию услуг. Повторный вызов с тем же
// именем возвращает существующую запись.
func (r *CatalogRepository) CreateMainService(ctx context.Context, name string) (*models.MainService, error) {
	var service models.MainService
	err := r.db.GetContext(ctx, &service, `
		INSERT INTO main_services (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`, name)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: insert main service %w", err)
	}
	return &service, nil
}

// CreateSubService добавляет подуслугу в категорию.
func (r *CatalogRepository) CreateSubService(ctx context.Context, sub *models.SubService) error {
	err := r.db.GetContext(ctx, sub, `
		INSERT INTO sub_services (main_service_id, name, description, base_price, expiration_hours)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (main_service_id, name) DO UPDATE SET
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			expiration_hours = EXCLUDED.expiration_hours
		RETURNING id, main_service_id, name, description, base_price, expiration_hours, created_at
	`, sub.MainServiceID, sub.Name, sub.Description, sub.BasePrice, sub.ExpirationHours)
	if err != nil {
		return fmt.Errorf("catalog repository: insert sub service %w", err)
	}
	return nil
}

// GetSubServiceByID возвращает подуслугу по идентификатору.
func (r *CatalogRepository) GetSubServiceByID(ctx context.Context, id uuid.UUID) (*models.SubService, error) {
	var service models.SubService
	err := r.db.GetContext(ctx, &service, `
		SELECT id, main_service_id, name, description, base_price, expiration_hours, created_at
		FROM sub_services WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubServiceNotFound
		}
		return nil, fmt.Errorf("catalog repository: get sub service %w", err)
	}
	return &service, nil
}

// ListSpecialistSubServiceIDs возвращает набор подуслуг, заявленных специалистом.
func (r *CatalogRepository) ListSpecialistSubServiceIDs(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT sub_service_id FROM specialist_sub_services
		WHERE specialist_id = $1 ORDER BY sub_service_id
	`, specialistID)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list specialist sub services %w", err)
	}
	return ids, nil
}

// HasCapability проверяет, заявлена ли подуслуга у специалиста.
func (r *CatalogRepository) HasCapability(ctx context.Context, specialistID, subServiceID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM specialist_sub_services
		WHERE specialist_id = $1 AND sub_service_id = $2
	`, specialistID, subServiceID)
	if err != nil {
		return false, fmt.Errorf("catalog repository: has capability %w", err)
	}
	return count > 0, nil
}

// ReplaceSpecialistSubServices полностью заменяет набор компетенций специалиста.
func (r *CatalogRepository) ReplaceSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog repository: begin tx %w", err)
	}
	defer tx.Rollback()

	// Проверяем, что все подуслуги существуют.
	if len(subServiceIDs) > 0 {
		var count int
		query, args, err := sqlx.In(`SELECT COUNT(*) FROM sub_services WHERE id IN (?)`, subServiceIDs)
		if err != nil {
			return fmt.Errorf("catalog repository: build in query %w", err)
		}
		if err := tx.GetContext(ctx, &count, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("catalog repository: count sub services %w", err)
		}
		if count != len(subServiceIDs) {
			return ErrSubServiceNotFound
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM specialist_sub_services WHERE specialist_id = $1`, specialistID); err != nil {
		return fmt.Errorf("catalog repository: clear capabilities %w", err)
	}

	if len(subServiceIDs) > 0 {
		// Batch INSERT компетенций
		query := `INSERT INTO specialist_sub_services (specialist_id, sub_service_id) VALUES `
		values := make([]interface{}, 0, len(subServiceIDs)*2)
		for i, id := range subServiceIDs {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
			values = append(values, specialistID, id)
		}
		query += " ON CONFLICT DO NOTHING"

		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("catalog repository: insert capabilities %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog repository: commit %w", err)
	}

	return nil
}
