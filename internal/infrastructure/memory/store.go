// Package memory là storage backend chạy trong process (APP_STORAGE_DRIVER=memory).
// Dùng cho local dev và test; semantics giống Postgres: khóa theo thứ tự book id,
// ghi trong transaction chỉ có hiệu lực khi commit.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	cartModel "bookstore-ecommerce/internal/domains/cart/model"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	orderModel "bookstore-ecommerce/internal/domains/order/model"
	paymentModel "bookstore-ecommerce/internal/domains/payment/model"
	promoModel "bookstore-ecommerce/internal/domains/promotion/model"
	sessionModel "bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/internal/domains/user"
)

// Store giữ toàn bộ bảng trong map. mu bảo vệ các map; bookLocks/orderLocks
// đóng vai trò row lock (SELECT ... FOR UPDATE) trong transaction.
type Store struct {
	mu sync.RWMutex

	books     map[int64]*catalogModel.Book
	bookLocks map[int64]*sync.Mutex

	promos map[uuid.UUID]*promoModel.PromoCode

	carts map[uuid.UUID]map[int64]cartModel.CartItem

	orders     map[uuid.UUID]*orderModel.Order
	orderLocks map[uuid.UUID]*sync.Mutex

	users    map[uuid.UUID]*user.User
	sessions map[string]*sessionModel.Session

	wishlist map[uuid.UUID]map[int64]time.Time

	callbackLogs []paymentModel.CallbackLog

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		books:      make(map[int64]*catalogModel.Book),
		bookLocks:  make(map[int64]*sync.Mutex),
		promos:     make(map[uuid.UUID]*promoModel.PromoCode),
		carts:      make(map[uuid.UUID]map[int64]cartModel.CartItem),
		orders:     make(map[uuid.UUID]*orderModel.Order),
		orderLocks: make(map[uuid.UUID]*sync.Mutex),
		users:      make(map[uuid.UUID]*user.User),
		sessions:   make(map[string]*sessionModel.Session),
		wishlist:   make(map[uuid.UUID]map[int64]time.Time),
		now:        time.Now,
	}
}

// =====================================================
// SEED & INSPECTION
// =====================================================

// SeedBook thêm hoặc ghi đè một cuốn sách
func (s *Store) SeedBook(b catalogModel.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	book := b
	s.books[b.ID] = &book
	if _, ok := s.bookLocks[b.ID]; !ok {
		s.bookLocks[b.ID] = &sync.Mutex{}
	}
}

// SeedPromo thêm promo code, tự sinh ID nếu thiếu
func (s *Store) SeedPromo(p promoModel.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	promo := p
	s.promos[p.ID] = &promo
}

// BookStock returns the committed stock of a book, -1 when unknown
func (s *Store) BookStock(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return -1
	}
	return b.Stock
}

// =====================================================
// REPOSITORY ACCESSORS
// =====================================================

func (s *Store) Catalog() *CatalogRepository         { return &CatalogRepository{s: s} }
func (s *Store) Promotions() *PromotionRepository    { return &PromotionRepository{s: s} }
func (s *Store) Carts() *CartRepository              { return &CartRepository{s: s} }
func (s *Store) Orders() *OrderStore                 { return &OrderStore{s: s} }
func (s *Store) Users() *UserRepository              { return &UserRepository{s: s} }
func (s *Store) Sessions() *SessionRepository        { return &SessionRepository{s: s} }
func (s *Store) Wishlist() *WishlistRepository       { return &WishlistRepository{s: s} }
func (s *Store) PaymentLogs() *CallbackLogRepository { return &CallbackLogRepository{s: s} }

// =====================================================
// ROW LOCKS
// =====================================================

func (s *Store) bookLock(id int64) (*sync.Mutex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.bookLocks[id]
	return l, ok
}

func (s *Store) orderLock(id uuid.UUID) (*sync.Mutex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.orderLocks[id]
	return l, ok
}
