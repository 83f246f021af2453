package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/validation"
)

// CatalogStore описывает взаимодействие сервиса с хранилищем каталога.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	ListServicesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Service, error)
	ListContractorServices(ctx context.Context, contractorID uuid.UUID) ([]models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	CreateService(ctx context.Context, service *models.Service) (*models.Service, error)
	UpdateServicePrice(ctx context.Context, serviceID uuid.UUID, price, discountPercent int) error
	DeactivateService(ctx context.Context, serviceID uuid.UUID) error
	GetOrCreateOpenSet(ctx context.Context, clientID uuid.UUID) (*models.ServiceSet, error)
	AddToSet(ctx context.Context, setID, serviceID uuid.UUID) error
	ClearSet(ctx context.Context, setID uuid.UUID) error
	CheckoutSet(ctx context.Context, setID uuid.UUID) (*models.ServiceSet, error)
}

// CatalogService — каталог услуг подрядчиков и корзины клиентов.
type CatalogService struct {
	catalog CatalogStore
}

// NewCatalogService создаёт новый сервис каталога.
func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Categories возвращает все категории услуг.
func (s *CatalogService) Categories(ctx context.Context) ([]models.ServiceCategory, error) {
	return s.catalog.ListCategories(ctx)
}

// ServicesByCategory возвращает активные услуги категории.
func (s *CatalogService) ServicesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Service, error) {
	return s.catalog.ListServicesByCategory(ctx, categoryID)
}

// ContractorServices возвращает активные услуги подрядчика.
func (s *CatalogService) ContractorServices(ctx context.Context, contractorID uuid.UUID) ([]models.Service, error) {
	return s.catalog.ListContractorServices(ctx, contractorID)
}

// CreateService создаёт карточку услуги подрядчика.
func (s *CatalogService) CreateService(ctx context.Context, contractorID, categoryID uuid.UUID, title, description string, price int) (*models.Service, error) {
	if err := validation.ValidateText("название услуги", title, validation.MaxServiceTitleLength); err != nil {
		return nil, err
	}
	if price < validation.MinPrice || price > validation.MaxPrice {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимая цена услуги")
	}

	return s.catalog.CreateService(ctx, &models.Service{
		ContractorID: contractorID,
		CategoryID:   categoryID,
		Title:        title,
		Description:  description,
		Price:        price,
	})
}

// UpdateServicePrice обновляет цену и скидку услуги.
func (s *CatalogService) UpdateServicePrice(ctx context.Context, serviceID uuid.UUID, price, discountPercent int) error {
	if price < validation.MinPrice || price > validation.MaxPrice {
		return apperror.New(apperror.ErrCodeValidation, "недопустимая цена услуги")
	}
	if discountPercent < 0 || discountPercent > 100 {
		return apperror.New(apperror.ErrCodeValidation, "скидка должна быть от 0 до 100 процентов")
	}

	err := s.catalog.UpdateServicePrice(ctx, serviceID, price, discountPercent)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, "услуга не найдена")
	}
	return err
}

// DeactivateService скрывает услугу из каталога.
func (s *CatalogService) DeactivateService(ctx context.Context, serviceID uuid.UUID) error {
	err := s.catalog.DeactivateService(ctx, serviceID)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, "услуга не найдена")
	}
	return err
}

// Cart возвращает открытую корзину клиента, создавая её при необходимости.
func (s *CatalogService) Cart(ctx context.Context, clientID uuid.UUID) (*models.ServiceSet, error) {
	return s.catalog.GetOrCreateOpenSet(ctx, clientID)
}

// AddToCart добавляет активную услугу в корзину клиента.
func (s *CatalogService) AddToCart(ctx context.Context, clientID, serviceID uuid.UUID) (*models.ServiceSet, error) {
	service, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "услуга не найдена")
		}
		return nil, err
	}
	if !service.Active {
		return nil, apperror.New(apperror.ErrCodeNotFound, "услуга больше не доступна")
	}

	set, err := s.catalog.GetOrCreateOpenSet(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.AddToSet(ctx, set.ID, serviceID); err != nil {
		return nil, err
	}
	return s.catalog.GetOrCreateOpenSet(ctx, clientID)
}

// ClearCart очищает открытую корзину клиента.
func (s *CatalogService) ClearCart(ctx context.Context, clientID uuid.UUID) error {
	set, err := s.catalog.GetOrCreateOpenSet(ctx, clientID)
	if err != nil {
		return err
	}
	return s.catalog.ClearSet(ctx, set.ID)
}

// Checkout закрывает корзину клиента, помечая её оплаченной.
func (s *CatalogService) Checkout(ctx context.Context, clientID uuid.UUID) (*models.ServiceSet, error) {
	set, err := s.catalog.GetOrCreateOpenSet(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(set.Services) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "корзина пуста")
	}
	return s.catalog.CheckoutSet(ctx, set.ID)
}
