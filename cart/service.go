package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/notify"
)

// MaxQuantity is the ceiling for a single cart line.
const MaxQuantity = 10

var ErrQuantityLimit = fmt.Errorf("cart: quantity exceeds %d units per line", MaxQuantity)

var _ Service = (*service)(nil)

type Service interface {
	AddLine(ctx context.Context, line Line) error
	RemoveLine(ctx context.Context, id string)
	SetQuantity(ctx context.Context, id string, quantity int) error
	Clear(ctx context.Context)
	Contains(productSlug, size string) bool

	// Prune deletes the stored snapshot when the cart is empty and reports
	// whether it did.
	Prune(ctx context.Context) bool

	Snapshot() models.Cart
	Subscribe(fn func(models.Cart)) (unsubscribe func())
	Close()
}

// Line is the input of AddLine.
type Line struct {
	ProductSlug string  `json:"productSlug" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Image       string  `json:"image"`
	Size        string  `json:"size" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	Origin      string  `json:"origin"`
}

type Option func(*service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMergeCeiling makes AddLine reject a line, new or merged, whose
// quantity would exceed MaxQuantity. Without it AddLine sets the sum.
// SetQuantity enforces the ceiling either way.
func WithMergeCeiling() Option {
	return func(s *service) {
		s.mergeCeiling = true
	}
}

type service struct {
	mu     sync.Mutex
	cart   *models.Cart
	closed bool

	repo         Repository
	hub          *notify.Hub[models.Cart]
	notifier     notify.Notifier
	validate     *validator.Validate
	mergeCeiling bool

	logger *zap.Logger
}

// NewService hydrates the cart from repo before returning.
func NewService(ctx context.Context, repo Repository, opts ...Option) Service {
	s := &service{
		repo:     repo,
		hub:      notify.NewHub[models.Cart](),
		notifier: notify.Nop,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = repo.Load(ctx)
	if s.mergeCeiling {
		s.clampLoaded()
	}
	return s
}

// clampLoaded caps stored lines written before the ceiling was enabled.
func (s *service) clampLoaded() {
	clamped := false
	for i := range s.cart.Items {
		if s.cart.Items[i].Quantity > MaxQuantity {
			s.logger.Warn("Clamping stored cart line to quantity limit",
				zap.String("line_id", s.cart.Items[i].ID), zap.Int("quantity", s.cart.Items[i].Quantity))
			s.cart.Items[i].Quantity = MaxQuantity
			clamped = true
		}
	}
	if clamped {
		s.cart.Recalculate()
	}
}

func (s *service) AddLine(ctx context.Context, line Line) error {
	if err := s.validate.Struct(line); err != nil {
		return fmt.Errorf("invalid cart line: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.LineID(line.ProductSlug, line.Size)
	idx := s.cart.Index(id)

	next := line.Quantity
	if idx >= 0 {
		next += s.cart.Items[idx].Quantity
	}
	if next > MaxQuantity && s.mergeCeiling {
		s.logger.Info("Rejected cart line above quantity limit",
			zap.String("line_id", id), zap.Int("quantity", next))
		s.notifyQuantityLimit(ctx)
		return ErrQuantityLimit
	}

	var n *models.Notification
	if idx >= 0 {
		s.cart.Items[idx].Quantity = next
		n = notify.New(enum.NotificationKindCartQuantityUpdated, enum.NotificationLevelSuccess,
			"Cantidad actualizada",
			fmt.Sprintf("%s (%s) - Cantidad: %d", line.Name, line.Size, next))
	} else {
		s.cart.Items = append(s.cart.Items, models.CartLine{
			ID:          id,
			ProductSlug: line.ProductSlug,
			Name:        line.Name,
			Image:       line.Image,
			Size:        line.Size,
			Price:       line.Price,
			Quantity:    line.Quantity,
			Origin:      line.Origin,
		})
		n = notify.New(enum.NotificationKindCartItemAdded, enum.NotificationLevelSuccess,
			"Producto añadido al carrito",
			fmt.Sprintf("%s (%s) x%d", line.Name, line.Size, line.Quantity))
	}

	s.commit(ctx)
	s.notifier.Notify(ctx, n)
	return nil
}

func (s *service) RemoveLine(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, id)
}

func (s *service) removeLocked(ctx context.Context, id string) {
	idx := s.cart.Index(id)
	if idx < 0 {
		return
	}
	removed := s.cart.Items[idx]
	s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)

	s.commit(ctx)
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindCartItemRemoved, enum.NotificationLevelInfo,
		"Producto eliminado",
		fmt.Sprintf("%s (%s)", removed.Name, removed.Size)))
}

func (s *service) SetQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		s.removeLocked(ctx, id)
		return nil
	}
	if quantity > MaxQuantity {
		s.notifyQuantityLimit(ctx)
		return ErrQuantityLimit
	}

	idx := s.cart.Index(id)
	if idx < 0 {
		return nil
	}
	s.cart.Items[idx].Quantity = quantity
	s.commit(ctx)
	return nil
}

func (s *service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = s.cart.Items[:0]
	s.commit(ctx)
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindCartCleared, enum.NotificationLevelSuccess,
		"Carrito vaciado", ""))
}

func (s *service) Contains(productSlug, size string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Index(models.LineID(productSlug, size)) >= 0
}

func (s *service) Prune(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cart.Items) > 0 {
		return false
	}
	return s.repo.Delete(ctx)
}

func (s *service) Snapshot() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *service) Subscribe(fn func(models.Cart)) func() {
	return s.hub.Subscribe(fn)
}

// Close drops every subscriber. State and storage are left as they are.
func (s *service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Clear()
}

// commit recomputes totals, publishes and persists. Caller holds s.mu.
func (s *service) commit(ctx context.Context) {
	s.cart.Recalculate()
	if !s.closed {
		s.hub.Publish(s.cart.Clone())
	}
	s.repo.Save(ctx, s.cart)
}

func (s *service) notifyQuantityLimit(ctx context.Context) {
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindCartQuantityLimit, enum.NotificationLevelError,
		"Cantidad máxima excedida",
		fmt.Sprintf("Máximo %d unidades por producto", MaxQuantity)))
}

// IsValidationError reports whether err came from input validation.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
