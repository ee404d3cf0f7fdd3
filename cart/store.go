package cart

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Service = (*Store)(nil)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("price cannot be negative")
)

// Change describes one completed mutation. Lines is a snapshot taken
// before the lock was released.
type Change struct {
	Type      enum.CartChange
	ProductID int
	Title     string
	Quantity  int
	Lines     []models.CartLine
}

// Count returns the badge count of the snapshot.
func (c Change) Count() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

type Listener func(Change)

type Option func(*Store)

// WithStrictInvariants makes Restore panic on duplicate product ids
// instead of collapsing them.
func WithStrictInvariants() Option {
	return func(s *Store) {
		s.strict = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store holds the lines of one visitor's cart. All mutations are
// serialised; listeners run after the lock is released.
type Store struct {
	mu        sync.RWMutex
	lines     []models.CartLine
	listeners []Listener
	strict    bool
	logger    *zap.Logger
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		lines:  []models.CartLine{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l to be called after every mutation.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) Add(product models.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("add product %d: %w", product.ID, ErrInvalidQuantity)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("add product %d: %w", product.ID, ErrInvalidPrice)
	}

	s.mu.Lock()
	var newQuantity int
	if idx := s.indexOf(product.ID); idx >= 0 {
		// 商品已存在，累加數量
		if quantity > math.MaxInt-s.lines[idx].Quantity {
			s.mu.Unlock()
			return fmt.Errorf("add product %d: %w", product.ID, ErrInvalidQuantity)
		}
		s.lines[idx].Quantity += quantity
		newQuantity = s.lines[idx].Quantity
	} else {
		s.lines = append(s.lines, models.NewCartLine(product, quantity))
		newQuantity = quantity
	}
	change := s.changeLocked(enum.CartChangeAdded, product.ID, product.Title, newQuantity)
	s.mu.Unlock()

	s.logger.Debug("Product added to cart",
		zap.Int("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Int("line_quantity", newQuantity))
	s.notify(change)
	return nil
}

// Remove deletes the line for productID. Unknown ids are ignored.
func (s *Store) Remove(productID int) {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	title := s.lines[idx].Title
	s.lines = removeIndex(s.lines, idx)
	change := s.changeLocked(enum.CartChangeRemoved, productID, title, 0)
	s.mu.Unlock()

	s.notify(change)
}

// UpdateQuantity sets the quantity of an existing line exactly. A quantity
// below 1 removes the line; unknown ids are ignored.
func (s *Store) UpdateQuantity(productID, quantity int) {
	if quantity < 1 {
		s.Remove(productID)
		return
	}

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.lines[idx].Quantity = quantity
	change := s.changeLocked(enum.CartChangeUpdated, productID, s.lines[idx].Title, quantity)
	s.mu.Unlock()

	s.notify(change)
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = []models.CartLine{}
	change := s.changeLocked(enum.CartChangeCleared, 0, "", 0)
	s.mu.Unlock()

	s.notify(change)
}

// Restore replaces the contents with a snapshot. Duplicate product ids keep
// the position of their first occurrence and have their quantities summed;
// lines with a quantity below 1 are dropped. Listeners are not notified.
func (s *Store) Restore(lines []models.CartLine) {
	normalized, duplicates := normalizeLines(lines)
	if len(duplicates) > 0 {
		if s.strict {
			panic(fmt.Sprintf("cart: duplicate lines for products %v", duplicates))
		}
		s.logger.Error("Collapsed duplicate cart lines", zap.Ints("product_ids", duplicates))
	}

	s.mu.Lock()
	s.lines = normalized
	s.mu.Unlock()
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (s *Store) Summary() models.OrderSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Summarize(s.lines)
}

func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneLines(s.lines)
}

func (s *Store) Line(productID int) (models.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(productID); idx >= 0 {
		return s.lines[idx], true
	}
	return models.CartLine{}, false
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

func (s *Store) changeLocked(typ enum.CartChange, productID int, title string, quantity int) Change {
	return Change{
		Type:      typ,
		ProductID: productID,
		Title:     title,
		Quantity:  quantity,
		Lines:     models.CloneLines(s.lines),
	}
}

func (s *Store) notify(change Change) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}

func (s *Store) indexOf(productID int) int {
	for i := range s.lines {
		if s.lines[i].ID == productID {
			return i
		}
	}
	return -1
}

func removeIndex(lines []models.CartLine, idx int) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	return append(out, lines[idx+1:]...)
}

func normalizeLines(src []models.CartLine) ([]models.CartLine, []int) {
	out := make([]models.CartLine, 0, len(src))
	positions := make(map[int]int, len(src))
	var duplicates []int

	for _, line := range src {
		if line.Quantity < 1 {
			continue
		}
		if idx, ok := positions[line.ID]; ok {
			out[idx].Quantity += line.Quantity
			duplicates = append(duplicates, line.ID)
			continue
		}
		positions[line.ID] = len(out)
		out = append(out, line)
	}
	return out, duplicates
}
