package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/payments"
	"github.com/swickapp/swick-server/internal/realtime"
	"github.com/swickapp/swick-server/internal/repo"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

// fakePublisher records every published event for assertion.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Channel string
	Event   string
	Payload any
}

func (f *fakePublisher) Publish(channel, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{channel, event, payload})
	return nil
}

func (f *fakePublisher) AuthorizeChannel(body []byte) ([]byte, error) {
	return []byte(`{"auth":"signed"}`), nil
}

func (f *fakePublisher) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// fakeProcessor returns canned intents; every charge succeeds unless
// configured otherwise.
type fakeProcessor struct {
	createErr error
	intent    *payments.Intent
	confirmed *payments.Intent
	detached  []string
}

func (f *fakeProcessor) CreateIntent(_ context.Context, p payments.CreateIntentParams) (*payments.Intent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &payments.Intent{
		ID: "pi_test", Status: payments.StatusSucceeded,
		OrderID: p.OrderID, Purpose: p.Purpose,
	}, nil
}

func (f *fakeProcessor) RetrieveIntent(_ context.Context, id string) (*payments.Intent, error) {
	if f.intent != nil {
		return f.intent, nil
	}
	return &payments.Intent{ID: id, Status: payments.StatusSucceeded, Purpose: payments.PurposeOrder}, nil
}

func (f *fakeProcessor) ConfirmIntent(_ context.Context, id string) (*payments.Intent, error) {
	if f.confirmed != nil {
		return f.confirmed, nil
	}
	return f.RetrieveIntent(context.Background(), id)
}

func (f *fakeProcessor) CreateCustomer(context.Context) (string, error) { return "cus_fake", nil }

func (f *fakeProcessor) CreateSetupIntent(context.Context, string) (string, error) {
	return "seti_secret", nil
}

func (f *fakeProcessor) ListPaymentMethods(context.Context, string) ([]payments.Card, error) {
	return []payments.Card{{PaymentMethodID: "pm_1", Brand: "visa", Last4: "4242"}}, nil
}

func (f *fakeProcessor) DetachPaymentMethod(_ context.Context, ref string) error {
	f.detached = append(f.detached, ref)
	return nil
}

type testEnv struct {
	db        *gorm.DB
	processor *fakeProcessor
	publisher *fakePublisher
	orders    *OrderService
	servers   *ServerService
}

func newTestEnv(t *testing.T) *testEnv {
	db := InitTestDB(t)
	processor := &fakeProcessor{}
	publisher := &fakePublisher{}
	log := slog.Default()

	orderRepo := &repo.OrderRepo{DB: db}
	menuRepo := &repo.MenuRepo{DB: db}
	accountRepo := &repo.AccountRepo{DB: db}
	requestRepo := &repo.RequestRepo{DB: db}
	notifier := realtime.NewNotifier(publisher, log)
	coordinator := payments.NewCoordinator(processor, orderRepo, false, log)

	return &testEnv{
		db:        db,
		processor: processor,
		publisher: publisher,
		orders: &OrderService{
			Orders:      orderRepo,
			Menu:        menuRepo,
			Accounts:    accountRepo,
			Requests:    requestRepo,
			Coordinator: coordinator,
			Processor:   processor,
			Notifier:    notifier,
			Log:         log,
		},
		servers: &ServerService{
			Orders:    orderRepo,
			Accounts:  accountRepo,
			Requests:  requestRepo,
			Notifier:  notifier,
			Publisher: publisher,
			Audit:     nil,
			Log:       log,
		},
	}
}

func (env *testEnv) seedRestaurant(t *testing.T, userID uint, name string) *models.Restaurant {
	t.Helper()
	user := models.User{ID: userID, Email: name + "@example.com", Name: name}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	restaurant := models.Restaurant{UserID: user.ID, Name: name}
	if err := env.db.Create(&restaurant).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return &restaurant
}

func (env *testEnv) seedCustomer(t *testing.T, userID uint, email string) *models.Customer {
	t.Helper()
	user := models.User{ID: userID, Email: email, Name: "Customer"}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	customer := models.Customer{UserID: user.ID, StripeCustID: "cus_seed"}
	if err := env.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return &customer
}

func (env *testEnv) seedServer(t *testing.T, userID uint, restaurantID *uint) *models.Server {
	t.Helper()
	user := models.User{ID: userID, Email: "staff@example.com", Name: "Staff"}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	server := models.Server{UserID: user.ID, RestaurantID: restaurantID}
	if err := env.db.Create(&server).Error; err != nil {
		t.Fatalf("seed server: %v", err)
	}
	return &server
}

func (env *testEnv) seedMeal(t *testing.T, restaurantID uint, price string) *models.Meal {
	t.Helper()
	category := models.Category{RestaurantID: restaurantID, Name: "Mains"}
	if err := env.db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	meal := models.Meal{
		RestaurantID: restaurantID,
		CategoryID:   category.ID,
		Name:         "Burger",
		Price:        decimal.RequireFromString(price),
		Enabled:      true,
	}
	if err := env.db.Create(&meal).Error; err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	return &meal
}

func (env *testEnv) seedCustomization(t *testing.T, mealID uint, additions ...string) *models.Customization {
	t.Helper()
	cust := models.Customization{MealID: mealID, Name: "Size", Max: len(additions)}
	for i, a := range additions {
		cust.Options = append(cust.Options, "opt"+string(rune('A'+i)))
		cust.PriceAdditions = append(cust.PriceAdditions, decimal.RequireFromString(a))
	}
	if err := env.db.Create(&cust).Error; err != nil {
		t.Fatalf("seed customization: %v", err)
	}
	return &cust
}
