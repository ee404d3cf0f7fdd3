package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"goflare.io/storefront/models"
)

func product(id int, title, category, price string) models.Product {
	return models.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: category,
	}
}

func sampleProducts() []models.Product {
	return []models.Product{
		product(1, "Fjallraven Backpack", "men's clothing", "109.95"),
		product(2, "Slim Fit T-Shirt", "men's clothing", "22.30"),
		product(3, "Cotton Jacket", "men's clothing", "55.99"),
		product(4, "Casual Slim Fit", "men's clothing", "15.99"),
		product(5, "Dragon Bracelet", "jewelery", "695.00"),
		product(6, "Solid Gold Petite", "jewelery", "168.00"),
		product(7, "White Gold Ring", "jewelery", "9.99"),
		product(8, "Rose Gold Earrings", "jewelery", "10.99"),
		product(9, "Portable Hard Drive", "electronics", "64.00"),
		product(10, "Men's Casual Shirt", "men's clothing", "7.95"),
	}
}

// fakeCatalog is an in-memory Catalog that counts calls.
type fakeCatalog struct {
	mu         sync.Mutex
	products   []models.Product
	categories []models.Category
	err        error
	calls      map[string]int
}

func newFakeCatalog(products []models.Product) *fakeCatalog {
	return &fakeCatalog{
		products:   products,
		categories: []models.Category{"electronics", "jewelery", "men's clothing"},
		calls:      make(map[string]int),
	}
}

func (f *fakeCatalog) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeCatalog) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	if err := f.record("ListProducts"); err != nil {
		return nil, err
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int) (models.Product, error) {
	if err := f.record("GetProduct"); err != nil {
		return models.Product{}, err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	if err := f.record("ListCategories"); err != nil {
		return nil, err
	}
	return append([]models.Category(nil), f.categories...), nil
}

func (f *fakeCatalog) ListProductsByCategory(_ context.Context, category models.Category) ([]models.Product, error) {
	if err := f.record("ListProductsByCategory"); err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchProducts(_ context.Context, query string) ([]models.Product, error) {
	if err := f.record("SearchProducts"); err != nil {
		return nil, err
	}
	return search(f.products, query), nil
}

// fakeMirror records the last snapshot written through ReplaceAll.
type fakeMirror struct {
	*fakeCatalog
	replaced int
	err      error
}

func (m *fakeMirror) ReplaceAll(_ context.Context, _ pgx.Tx, products []models.Product, categories []models.Category) error {
	if m.err != nil {
		return m.err
	}
	m.replaced++
	m.products = products
	m.categories = categories
	return nil
}

// fakeTransactor runs fn without a database.
type fakeTransactor struct {
	runs int
}

func (t *fakeTransactor) ExecuteTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	t.runs++
	return fn(nil)
}

// fakeRedis implements the few commands the cache uses. Any other command
// panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return redis.NewStringResult("", r.getErr)
	}
	value, ok := r.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return redis.NewStatusResult("", r.setErr)
	}
	switch v := value.(type) {
	case []byte:
		r.data[key] = v
	case string:
		r.data[key] = []byte(v)
	default:
		return redis.NewStatusResult("", errors.New("unsupported value type"))
	}
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[key]
	return ok
}
