package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GariBroman/osminog/internal/models"
)

var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrServiceSetNotFound = errors.New("service set not found")
)

// CatalogRepository отвечает за каталог услуг и корзины клиентов.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const serviceColumns = `id, contractor_id, category_id, title, description, price,
	discount_percent, active, created_at`

// ListCategories возвращает все категории услуг.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var categories []models.ServiceCategory
	query := `SELECT id, title FROM service_categories ORDER BY title`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// ListServicesByCategory возвращает активные услуги категории.
func (r *CatalogRepository) ListServicesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Service, error) {
	var services []models.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE category_id = $1 AND active ORDER BY title`
	if err := r.db.SelectContext(ctx, &services, query, categoryID); err != nil {
		return nil, fmt.Errorf("catalog repository: list services by category %w", err)
	}
	return services, nil
}

// ListContractorServices возвращает активные услуги подрядчика.
func (r *CatalogRepository) ListContractorServices(ctx context.Context, contractorID uuid.UUID) ([]models.Service, error) {
	var services []models.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE contractor_id = $1 AND active ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &services, query, contractorID); err != nil {
		return nil, fmt.Errorf("catalog repository: list contractor services %w", err)
	}
	return services, nil
}

// GetService возвращает услугу по идентификатору.
func (r *CatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	if err := r.db.GetContext(ctx, &service, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog repository: get service %w", err)
	}
	return &service, nil
}

// CreateService создаёт карточку услуги.
func (r *CatalogRepository) CreateService(ctx context.Context, service *models.Service) (*models.Service, error) {
	var created models.Service
	query := `
		INSERT INTO services (contractor_id, category_id, title, description, price, discount_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + serviceColumns + `
	`
	err := r.db.GetContext(ctx, &created, query,
		service.ContractorID, service.CategoryID, service.Title,
		service.Description, service.Price, service.DiscountPercent)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: create service %w", err)
	}
	return &created, nil
}

// UpdateServicePrice обновляет цену и скидку услуги.
func (r *CatalogRepository) UpdateServicePrice(ctx context.Context, serviceID uuid.UUID, price, discountPercent int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE services SET price = $2, discount_percent = $3 WHERE id = $1`,
		serviceID, price, discountPercent)
	if err != nil {
		return fmt.Errorf("catalog repository: update service price %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: update service price rows affected %w", err)
	}
	if affected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// DeactivateService скрывает услугу из каталога; запись сохраняется для истории.
func (r *CatalogRepository) DeactivateService(ctx context.Context, serviceID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE services SET active = FALSE WHERE id = $1`, serviceID)
	if err != nil {
		return fmt.Errorf("catalog repository: deactivate service %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: deactivate service rows affected %w", err)
	}
	if affected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// GetOrCreateOpenSet возвращает открытую корзину клиента, создавая её при необходимости.
func (r *CatalogRepository) GetOrCreateOpenSet(ctx context.Context, clientID uuid.UUID) (*models.ServiceSet, error) {
	var set models.ServiceSet
	query := `
		INSERT INTO service_sets (client_id)
		VALUES ($1)
		ON CONFLICT (client_id) WHERE paid_at IS NULL
		DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING id, client_id, created_at, paid_at
	`
	if err := r.db.GetContext(ctx, &set, query, clientID); err != nil {
		return nil, fmt.Errorf("catalog repository: get or create open set %w", err)
	}

	services, err := r.listSetServices(ctx, set.ID)
	if err != nil {
		return nil, err
	}
	set.Services = services
	return &set, nil
}

// AddToSet добавляет услугу в открытую корзину клиента.
func (r *CatalogRepository) AddToSet(ctx context.Context, setID, serviceID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO service_set_items (service_set_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, setID, serviceID)
	if err != nil {
		return fmt.Errorf("catalog repository: add to set %w", err)
	}
	return nil
}

// ClearSet удаляет все услуги из корзины.
func (r *CatalogRepository) ClearSet(ctx context.Context, setID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM service_set_items WHERE service_set_id = $1`, setID)
	if err != nil {
		return fmt.Errorf("catalog repository: clear set %w", err)
	}
	return nil
}

// CheckoutSet помечает корзину оплаченной; следующая AddToSet создаст новую.
func (r *CatalogRepository) CheckoutSet(ctx context.Context, setID uuid.UUID) (*models.ServiceSet, error) {
	var set models.ServiceSet
	query := `
		UPDATE service_sets
		SET paid_at = NOW()
		WHERE id = $1 AND paid_at IS NULL
		RETURNING id, client_id, created_at, paid_at
	`
	if err := r.db.GetContext(ctx, &set, query, setID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceSetNotFound
		}
		return nil, fmt.Errorf("catalog repository: checkout set %w", err)
	}

	services, err := r.listSetServices(ctx, set.ID)
	if err != nil {
		return nil, err
	}
	set.Services = services
	return &set, nil
}

func (r *CatalogRepository) listSetServices(ctx context.Context, setID uuid.UUID) ([]models.Service, error) {
	var services []models.Service
	query := `
		SELECT s.id, s.contractor_id, s.category_id, s.title, s.description, s.price,
		       s.discount_percent, s.active, s.created_at
		FROM services s
		JOIN service_set_items i ON i.service_id = s.id
		WHERE i.service_set_id = $1
		ORDER BY s.title
	`
	if err := r.db.SelectContext(ctx, &services, query, setID); err != nil {
		return nil, fmt.Errorf("catalog repository: list set services %w", err)
	}
	return services, nil
}
