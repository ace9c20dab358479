package domain

import (
	"context"

	"cardapio/internal/models"
)

// MenuBackend is a durable store for menu items.
// Implementations return ErrNotFound for unknown ids.
type MenuBackend interface {
	Name() string
	List(ctx context.Context) ([]models.MenuItem, error)
	Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error)
	Delete(ctx context.Context, id int64) error
}

// MenuService is the cached, failure-tolerant view over a MenuBackend.
type MenuService interface {
	ListAll(ctx context.Context) []models.MenuItem
	ListActive(ctx context.Context) []models.MenuItem
	GetByID(ctx context.Context, id int64) (models.MenuItem, error)
	Create(ctx context.Context, in models.MenuItemInput) (models.WriteResult, error)
	Patch(ctx context.Context, id int64, patch models.MenuItemPatch) (models.WriteResult, error)
	SoftRemove(ctx context.Context, id int64) (models.WriteResult, error)
	HardRemove(ctx context.Context, id int64) (models.WriteResult, error)
	CurrentHash(ctx context.Context) string
	SyncFingerprint(ctx context.Context) models.Fingerprint
	Refresh(ctx context.Context) error
	Invalidate()
	Status() models.SyncStatus
}

// NotificationChannel delivers menu update notifications one way.
type NotificationChannel interface {
	Name() string
	Publish(ctx context.Context, n models.UpdateNotification) error
}

// NotificationBus is a channel that can also be observed.
type NotificationBus interface {
	NotificationChannel
	Subscribe(ctx context.Context) (<-chan models.UpdateNotification, error)
	LastUpdate(ctx context.Context) (string, error)
	// Latest returns the most recent notification while it is still fresh, or nil.
	Latest(ctx context.Context) (*models.UpdateNotification, error)
}

// MenuNotifier is called by handlers after every menu mutation.
type MenuNotifier interface {
	// InstanceID is stamped on every notification this process publishes.
	InstanceID() string
	NotifyMenuChanged(ctx context.Context, changes map[int64]models.MenuItemPatch) models.UpdateNotification
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, status string) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	DeactivateOrder(ctx context.Context, id int64) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	DeactivateCustomer(ctx context.Context, id int64) error
}

type SiteInfoRepository interface {
	GetSiteInfo(ctx context.Context) (map[string]string, error)
	SetSiteInfo(ctx context.Context, values map[string]string) error
}

type OrderService interface {
	PlaceOrder(ctx context.Context, order *models.Order) error
	ListOrders(ctx context.Context, status string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	Cancel(ctx context.Context, id int64) error
}

type CustomerService interface {
	Register(ctx context.Context, c *models.Customer) error
	List(ctx context.Context) ([]*models.Customer, error)
	Deactivate(ctx context.Context, id int64) error
}

type SiteInfoService interface {
	Get(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]string) (map[string]string, error)
}
