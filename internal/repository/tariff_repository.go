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

var ErrTariffNotFound = errors.New("tariff not found")

// TariffRepository отвечает за тарифные планы.
type TariffRepository struct {
	db *sqlx.DB
}

func NewTariffRepository(db *sqlx.DB) *TariffRepository {
	return &TariffRepository{db: db}
}

const tariffColumns = `id, title, orders_limit, price, validity_days, answer_delay_hours,
	contractor_contacts_visible, personal_contractor_assignable`

// List возвращает все тарифы в порядке возрастания цены.
func (r *TariffRepository) List(ctx context.Context) ([]models.Tariff, error) {
	var tariffs []models.Tariff
	query := `SELECT ` + tariffColumns + ` FROM tariffs ORDER BY price`
	if err := r.db.SelectContext(ctx, &tariffs, query); err != nil {
		return nil, fmt.Errorf("tariff repository: list %w", err)
	}
	return tariffs, nil
}

// GetByID возвращает тариф по идентификатору.
func (r *TariffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	var tariff models.Tariff
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE id = $1`
	if err := r.db.GetContext(ctx, &tariff, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTariffNotFound
		}
		return nil, fmt.Errorf("tariff repository: get by id %w", err)
	}
	return &tariff, nil
}
