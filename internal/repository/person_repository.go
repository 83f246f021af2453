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

// Ошибки уровня репозитория.
var (
	ErrPersonNotFound     = errors.New("person not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrContractorNotFound = errors.New("contractor not found")
)

// PersonRepository отвечает за учётные записи и их ролевые расширения.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository создаёт новый экземпляр.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// GetByTelegramID возвращает учётную запись по идентификатору чат-платформы.
func (r *PersonRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Person, error) {
	var person models.Person
	query := `SELECT id, telegram_id, name, phone, created_at FROM persons WHERE telegram_id = $1`
	if err := r.db.GetContext(ctx, &person, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("person repository: get by telegram id %w", err)
	}
	return &person, nil
}

// Upsert создаёт учётную запись или обновляет имя и телефон существующей.
// telegram_id неизменяем и служит ключом конфликта.
func (r *PersonRepository) Upsert(ctx context.Context, telegramID int64, name, phone string) (*models.Person, error) {
	var person models.Person
	query := `
		INSERT INTO persons (telegram_id, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone
		RETURNING id, telegram_id, name, phone, created_at
	`
	if err := r.db.GetContext(ctx, &person, query, telegramID, name, phone); err != nil {
		return nil, fmt.Errorf("person repository: upsert %w", err)
	}
	return &person, nil
}

// ResolveRole определяет роль пользователя одним запросом.
// Если пользователь состоит в нескольких ролях, действует фиксированный
// порядок приоритета: owner > manager > contractor > client.
func (r *PersonRepository) ResolveRole(ctx context.Context, telegramID int64) (models.Role, error) {
	var probe struct {
		IsOwner      bool `db:"is_owner"`
		IsManager    bool `db:"is_manager"`
		IsContractor bool `db:"is_contractor"`
		IsClient     bool `db:"is_client"`
	}
	query := `
		SELECT
			EXISTS (SELECT 1 FROM owners o WHERE o.person_id = p.id AND o.active) AS is_owner,
			EXISTS (SELECT 1 FROM managers m WHERE m.person_id = p.id AND m.active) AS is_manager,
			EXISTS (SELECT 1 FROM contractors c WHERE c.person_id = p.id AND c.active) AS is_contractor,
			EXISTS (SELECT 1 FROM clients cl WHERE cl.person_id = p.id) AS is_client
		FROM persons p
		WHERE p.telegram_id = $1
	`
	if err := r.db.GetContext(ctx, &probe, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoleVisitor, nil
		}
		return models.RoleVisitor, fmt.Errorf("person repository: resolve role %w", err)
	}

	switch {
	case probe.IsOwner:
		return models.RoleOwner, nil
	case probe.IsManager:
		return models.RoleManager, nil
	case probe.IsContractor:
		return models.RoleContractor, nil
	case probe.IsClient:
		return models.RoleClient, nil
	default:
		return models.RoleVisitor, nil
	}
}

// GetOrCreateClient создаёт клиентское расширение учётной записи, если его ещё нет.
func (r *PersonRepository) GetOrCreateClient(ctx context.Context, telegramID int64) (*models.Client, error) {
	var client models.Client
	query := `
		INSERT INTO clients (person_id)
		SELECT id FROM persons WHERE telegram_id = $1
		ON CONFLICT (person_id) DO UPDATE SET person_id = EXCLUDED.person_id
		RETURNING id, person_id
	`
	if err := r.db.GetContext(ctx, &client, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("person repository: get or create client %w", err)
	}
	return &client, nil
}

// GetClient возвращает клиентское расширение по идентификатору чат-платформы.
func (r *PersonRepository) GetClient(ctx context.Context, telegramID int64) (*models.Client, error) {
	var client models.Client
	query := `
		SELECT c.id, c.person_id
		FROM clients c
		JOIN persons p ON p.id = c.person_id
		WHERE p.telegram_id = $1
	`
	if err := r.db.GetContext(ctx, &client, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("person repository: get client %w", err)
	}
	return &client, nil
}

// CreateContractorApplication создаёт неактивного подрядчика с анкетой.
// Повторная заявка не перетирает существующую запись.
func (r *PersonRepository) CreateContractorApplication(ctx context.Context, telegramID int64, comment string) (*models.Contractor, error) {
	var contractor models.Contractor
	query := `
		INSERT INTO contractors (person_id, comment)
		SELECT id, $2 FROM persons WHERE telegram_id = $1
		ON CONFLICT (person_id) DO UPDATE SET person_id = EXCLUDED.person_id
		RETURNING id, person_id, active, comment
	`
	if err := r.db.GetContext(ctx, &contractor, query, telegramID, comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("person repository: create contractor application %w", err)
	}
	return &contractor, nil
}

// GetContractor возвращает подрядчика по идентификатору чат-платформы.
func (r *PersonRepository) GetContractor(ctx context.Context, telegramID int64) (*models.Contractor, error) {
	var contractor models.Contractor
	query := `
		SELECT c.id, c.person_id, c.active, c.comment
		FROM contractors c
		JOIN persons p ON p.id = c.person_id
		WHERE p.telegram_id = $1
	`
	if err := r.db.GetContext(ctx, &contractor, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractorNotFound
		}
		return nil, fmt.Errorf("person repository: get contractor %w", err)
	}
	return &contractor, nil
}

// ApproveContractor активирует подрядчика после собеседования.
func (r *PersonRepository) ApproveContractor(ctx context.Context, contractorID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contractors SET active = TRUE WHERE id = $1`, contractorID)
	if err != nil {
		return fmt.Errorf("person repository: approve contractor %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("person repository: approve contractor rows affected %w", err)
	}
	if affected == 0 {
		return ErrContractorNotFound
	}
	return nil
}

// ListContractorApplications возвращает заявки подрядчиков, ожидающие одобрения.
func (r *PersonRepository) ListContractorApplications(ctx context.Context) ([]models.Contractor, error) {
	var contractors []models.Contractor
	query := `
		SELECT c.id, c.person_id, c.active, c.comment
		FROM contractors c
		WHERE NOT c.active
		ORDER BY c.id
	`
	if err := r.db.SelectContext(ctx, &contractors, query); err != nil {
		return nil, fmt.Errorf("person repository: list contractor applications %w", err)
	}
	return contractors, nil
}

// GetPersonByContractorID возвращает учётную запись подрядчика (для передачи контактов).
func (r *PersonRepository) GetPersonByContractorID(ctx context.Context, contractorID uuid.UUID) (*models.Person, error) {
	var person models.Person
	query := `
		SELECT p.id, p.telegram_id, p.name, p.phone, p.created_at
		FROM persons p
		JOIN contractors c ON c.person_id = p.id
		WHERE c.id = $1
	`
	if err := r.db.GetContext(ctx, &person, query, contractorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractorNotFound
		}
		return nil, fmt.Errorf("person repository: get person by contractor id %w", err)
	}
	return &person, nil
}

// ListActiveManagers возвращает telegram-идентификаторы действующих менеджеров.
func (r *PersonRepository) ListActiveManagers(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `
		SELECT p.telegram_id
		FROM managers m
		JOIN persons p ON p.id = m.person_id
		WHERE m.active
		ORDER BY p.telegram_id
	`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("person repository: list active managers %w", err)
	}
	return ids, nil
}
