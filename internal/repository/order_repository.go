package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GariBroman/osminog/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderTaken        = errors.New("order already taken")
	ErrComplaintNotFound = errors.New("complaint not found")
)

// OrderRepository отвечает за заказы, комментарии и претензии.
type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, subscription_id, contractor_id, description, salary, declined,
	created_at, take_at, estimated_time, finished_at`

// Create создаёт заказ под подпиской клиента.
func (r *OrderRepository) Create(ctx context.Context, subscriptionID uuid.UUID, description string) (*models.Order, error) {
	var order models.Order
	query := `
		INSERT INTO orders (subscription_id, description)
		VALUES ($1, $2)
		RETURNING ` + orderColumns + `
	`
	if err := r.db.GetContext(ctx, &order, query, subscriptionID, description); err != nil {
		return nil, fmt.Errorf("order repository: create %w", err)
	}
	return &order, nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return &order, nil
}

// ListAvailable возвращает свободные заказы: без подрядчика, не взятые и не
// отклонённые, от старых к новым — первым пришёл, первым обслужен.
func (r *OrderRepository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE contractor_id IS NULL AND take_at IS NULL AND NOT declined
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("order repository: list available %w", err)
	}
	return orders, nil
}

// ListForClient возвращает незавершённые заказы клиента, от новых к старым.
func (r *OrderRepository) ListForClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT o.id, o.subscription_id, o.contractor_id, o.description, o.salary, o.declined,
		       o.created_at, o.take_at, o.estimated_time, o.finished_at
		FROM orders o
		JOIN subscriptions s ON s.id = o.subscription_id
		WHERE s.client_id = $1 AND o.finished_at IS NULL AND NOT o.declined
		ORDER BY o.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &orders, query, clientID); err != nil {
		return nil, fmt.Errorf("order repository: list for client %w", err)
	}
	return orders, nil
}

// ListActiveForContractor возвращает взятые подрядчиком незавершённые заказы.
func (r *OrderRepository) ListActiveForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE contractor_id = $1 AND finished_at IS NULL AND NOT declined
		ORDER BY take_at
	`
	if err := r.db.SelectContext(ctx, &orders, query, contractorID); err != nil {
		return nil, fmt.Errorf("order repository: list active for contractor %w", err)
	}
	return orders, nil
}

// AssignContractor атомарно закрепляет свободный заказ за подрядчиком.
// Состояние проверяется в самом UPDATE: из двух подрядчиков, взявших заказ
// одновременно, выигрывает ровно один, второй получает ErrOrderTaken.
func (r *OrderRepository) AssignContractor(ctx context.Context, orderID, contractorID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		UPDATE orders
		SET contractor_id = $2, take_at = NOW()
		WHERE id = $1 AND contractor_id IS NULL AND take_at IS NULL AND NOT declined
		RETURNING ` + orderColumns + `
	`
	if err := r.db.GetContext(ctx, &order, query, orderID, contractorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Заказ либо не существует, либо уже взят — различаем отдельным чтением.
			if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrOrderTaken
		}
		return nil, fmt.Errorf("order repository: assign contractor %w", err)
	}
	return &order, nil
}

// SetEstimate выставляет срок выполнения. Срок может менять только подрядчик,
// за которым закреплён заказ, это условие зашито в сам запрос.
func (r *OrderRepository) SetEstimate(ctx context.Context, orderID, contractorID uuid.UUID, estimate time.Time) (*models.Order, error) {
	var order models.Order
	query := `
		UPDATE orders
		SET estimated_time = $3
		WHERE id = $1 AND contractor_id = $2 AND finished_at IS NULL
		RETURNING ` + orderColumns + `
	`
	if err := r.db.GetContext(ctx, &order, query, orderID, contractorID, estimate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: set estimate %w", err)
	}
	return &order, nil
}

// Close помечает заказ выполненным.
func (r *OrderRepository) Close(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		UPDATE orders
		SET finished_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns + `
	`
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: close %w", err)
	}
	return &order, nil
}

// Decline отклоняет заказ. Квоту подписки отклонение не возвращает.
func (r *OrderRepository) Decline(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		UPDATE orders
		SET declined = TRUE
		WHERE id = $1
		RETURNING ` + orderColumns + `
	`
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: decline %w", err)
	}
	return &order, nil
}

// AddComment добавляет уточнение к заказу.
func (r *OrderRepository) AddComment(ctx context.Context, orderID uuid.UUID, author models.Role, comment string) (*models.OrderComment, error) {
	var result models.OrderComment
	query := `
		INSERT INTO order_comments (order_id, author, comment)
		VALUES ($1, $2, $3)
		RETURNING id, order_id, author, comment, created_at
	`
	if err := r.db.GetContext(ctx, &result, query, orderID, author, comment); err != nil {
		return nil, fmt.Errorf("order repository: add comment %w", err)
	}
	return &result, nil
}

// CreateComplaint создаёт претензию к заказу.
func (r *OrderRepository) CreateComplaint(ctx context.Context, orderID uuid.UUID, text string) (*models.Complaint, error) {
	var complaint models.Complaint
	query := `
		INSERT INTO complaints (order_id, complaint)
		VALUES ($1, $2)
		RETURNING id, order_id, complaint, created_at, closed_at, closed_by_id
	`
	if err := r.db.GetContext(ctx, &complaint, query, orderID, text); err != nil {
		return nil, fmt.Errorf("order repository: create complaint %w", err)
	}
	return &complaint, nil
}

// ListOpenComplaints возвращает незакрытые претензии, старые первыми.
func (r *OrderRepository) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	query := `
		SELECT id, order_id, complaint, created_at, closed_at, closed_by_id
		FROM complaints
		WHERE closed_at IS NULL
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &complaints, query); err != nil {
		return nil, fmt.Errorf("order repository: list open complaints %w", err)
	}
	return complaints, nil
}

// CloseComplaint закрывает претензию от имени менеджера или владельца.
func (r *OrderRepository) CloseComplaint(ctx context.Context, complaintID, closedByID uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	query := `
		UPDATE complaints
		SET closed_at = NOW(), closed_by_id = $2
		WHERE id = $1 AND closed_at IS NULL
		RETURNING id, order_id, complaint, created_at, closed_at, closed_by_id
	`
	if err := r.db.GetContext(ctx, &complaint, query, complaintID, closedByID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("order repository: close complaint %w", err)
	}
	return &complaint, nil
}

// SalaryReport агрегирует выплаты подрядчика по заказам, завершённым в [from, to).
func (r *OrderRepository) SalaryReport(ctx context.Context, contractorID uuid.UUID, from, to time.Time) (int, int, error) {
	var report struct {
		Count int `db:"order_count"`
		Total int `db:"total_salary"`
	}
	query := `
		SELECT COUNT(*) AS order_count, COALESCE(SUM(salary), 0) AS total_salary
		FROM orders
		WHERE contractor_id = $1 AND finished_at >= $2 AND finished_at < $3
	`
	if err := r.db.GetContext(ctx, &report, query, contractorID, from, to); err != nil {
		return 0, 0, fmt.Errorf("order repository: salary report %w", err)
	}
	return report.Count, report.Total, nil
}
