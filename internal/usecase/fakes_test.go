package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// in-memory store (tx は snapshot/rollback)
// =====================

type memState struct {
	users       map[string]model.User
	products    map[int64]model.Product
	cartItems   map[int64]model.CartItem
	orders      map[int64]model.Order
	orderItems  map[int64][]model.OrderItem
	auditLogs   []model.AuditLog
	nextCartID  int64
	nextOrderID int64
	nextItemID  int64
	nextAuditID int64
}

type memStore struct {
	s memState

	// テストから障害を差し込む
	failCreateOrder error
	failDebit       error
	failClearCart   error
	beforeClearCart func()
}

func newMemStore() *memStore {
	return &memStore{s: memState{
		users:      map[string]model.User{},
		products:   map[int64]model.Product{},
		cartItems:  map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
	}}
}

func (m *memStore) clone() memState {
	c := m.s
	c.users = make(map[string]model.User, len(m.s.users))
	for k, v := range m.s.users {
		c.users[k] = v
	}
	c.products = make(map[int64]model.Product, len(m.s.products))
	for k, v := range m.s.products {
		c.products[k] = v
	}
	c.cartItems = make(map[int64]model.CartItem, len(m.s.cartItems))
	for k, v := range m.s.cartItems {
		c.cartItems[k] = v
	}
	c.orders = make(map[int64]model.Order, len(m.s.orders))
	for k, v := range m.s.orders {
		c.orders[k] = v
	}
	c.orderItems = make(map[int64][]model.OrderItem, len(m.s.orderItems))
	for k, v := range m.s.orderItems {
		c.orderItems[k] = append([]model.OrderItem(nil), v...)
	}
	c.auditLogs = append([]model.AuditLog(nil), m.s.auditLogs...)
	return c
}

func (m *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snapshot := m.clone()
	if err := fn(m); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

func (m *memStore) Users() repo.UserRepository           { return memUsers{m} }
func (m *memStore) Products() repo.ProductRepository     { return memProducts{m} }
func (m *memStore) CartItems() repo.CartItemRepository   { return memCartItems{m} }
func (m *memStore) Orders() repo.OrderRepository         { return memOrders{m} }
func (m *memStore) OrderItems() repo.OrderItemRepository { return memOrderItems{m} }
func (m *memStore) AuditLogs() repo.AuditLogRepository   { return memAuditLogs{m} }

func (m *memStore) addUser(id string, limit string) model.User {
	l := decimal.RequireFromString(limit)
	u := model.User{
		ID:              id,
		Email:           id + "@example.com",
		Role:            model.RoleUser,
		IsActive:        true,
		CreditLimit:     l,
		AvailableCredit: l,
		UsedCredit:      decimal.Zero,
	}
	m.s.users[id] = u
	return u
}

func (m *memStore) addProduct(id int64, name string, price string, inStock bool) model.Product {
	p := model.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Category: "Grains", InStock: inStock}
	m.s.products[id] = p
	return p
}

func (m *memStore) cartCount(userID string) int {
	n := 0
	for _, it := range m.s.cartItems {
		if it.UserID == userID {
			n++
		}
	}
	return n
}

// ---- users ----

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.m.s.users {
		if u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}
	r.m.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID string) (*model.User, error) {
	u, ok := r.m.s.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.m.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) UpdateProfile(ctx context.Context, userID, phone, ippis string) error {
	u, ok := r.m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PhoneNumber, u.IPPISNumber = phone, ippis
	r.m.s.users[userID] = u
	return nil
}

func (r memUsers) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	u, ok := r.m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.LastLoginAt = &at
	r.m.s.users[userID] = u
	return nil
}

func (r memUsers) IncrementTokenVersion(ctx context.Context, userID string) error {
	u, ok := r.m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.TokenVersion++
	r.m.s.users[userID] = u
	return nil
}

func (r memUsers) DebitCredit(ctx context.Context, userID string, amount decimal.Decimal) (bool, error) {
	if r.m.failDebit != nil {
		return false, r.m.failDebit
	}
	u, ok := r.m.s.users[userID]
	if !ok || u.AvailableCredit.LessThan(amount) {
		return false, nil
	}
	u.AvailableCredit = u.AvailableCredit.Sub(amount)
	u.UsedCredit = u.UsedCredit.Add(amount)
	r.m.s.users[userID] = u
	return true, nil
}

func (r memUsers) SetCreditLimit(ctx context.Context, userID string, limit decimal.Decimal) (bool, error) {
	u, ok := r.m.s.users[userID]
	if !ok || u.UsedCredit.GreaterThan(limit) {
		return false, nil
	}
	u.CreditLimit = limit
	u.AvailableCredit = limit.Sub(u.UsedCredit)
	r.m.s.users[userID] = u
	return true, nil
}

// ---- products ----

type memProducts struct{ m *memStore }

func (r memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range r.m.s.products {
		if !q.IncludeOutOfStock && !p.InStock {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.m.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.m.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) Count(ctx context.Context) (int64, error) {
	return int64(len(r.m.s.products)), nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = int64(len(r.m.s.products) + 1)
	r.m.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	if _, ok := r.m.s.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.m.s.products[p.ID] = p
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := r.m.s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.m.s.products, id)
	return nil
}

// ---- cart ----

type memCartItems struct{ m *memStore }

func (r memCartItems) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	out := []model.CartItem{}
	for _, it := range r.m.s.cartItems {
		if it.UserID != userID {
			continue
		}
		// 削除済み商品はゼロ値のProductで返る
		it.Product = r.m.s.products[it.ProductID]
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCartItems) AddOrIncrement(ctx context.Context, userID string, productID int64, qty int64) error {
	for id, it := range r.m.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity += qty
			r.m.s.cartItems[id] = it
			return nil
		}
	}
	r.m.s.nextCartID++
	r.m.s.cartItems[r.m.s.nextCartID] = model.CartItem{
		ID: r.m.s.nextCartID, UserID: userID, ProductID: productID, Quantity: qty,
	}
	return nil
}

func (r memCartItems) UpdateQuantity(ctx context.Context, userID string, cartItemID int64, qty int64) error {
	it, ok := r.m.s.cartItems[cartItemID]
	if !ok || it.UserID != userID {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.m.s.cartItems[cartItemID] = it
	return nil
}

func (r memCartItems) DeleteByID(ctx context.Context, userID string, cartItemID int64) error {
	if it, ok := r.m.s.cartItems[cartItemID]; ok && it.UserID == userID {
		delete(r.m.s.cartItems, cartItemID)
	}
	return nil
}

func (r memCartItems) DeleteByIDs(ctx context.Context, userID string, ids []int64) (int64, error) {
	if r.m.beforeClearCart != nil {
		r.m.beforeClearCart()
	}
	if r.m.failClearCart != nil {
		return 0, r.m.failClearCart
	}
	var n int64
	for _, id := range ids {
		if it, ok := r.m.s.cartItems[id]; ok && it.UserID == userID {
			delete(r.m.s.cartItems, id)
			n++
		}
	}
	return n, nil
}

// ---- orders ----

type memOrders struct{ m *memStore }

func (r memOrders) Create(ctx context.Context, order *model.Order) error {
	if r.m.failCreateOrder != nil {
		return r.m.failCreateOrder
	}
	r.m.s.nextOrderID++
	order.ID = r.m.s.nextOrderID
	order.CreatedAt = time.Date(2026, 1, 1, 0, 0, int(order.ID), 0, time.UTC)
	order.UpdatedAt = order.CreatedAt
	r.m.s.orders[order.ID] = *order
	return nil
}

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.m.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) ListByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range r.m.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memOrders) FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error) {
	for _, o := range r.m.s.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	o, ok := r.m.s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.m.s.orders[orderID] = o
	return true, nil
}

func (r memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	all := []model.Order{}
	for _, o := range r.m.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type memOrderItems struct{ m *memStore }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		r.m.s.nextItemID++
		it.ID = r.m.s.nextItemID
		it.OrderID = orderID
		r.m.s.orderItems[orderID] = append(r.m.s.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem{}, r.m.s.orderItems[orderID]...), nil
}

type memAuditLogs struct{ m *memStore }

func (r memAuditLogs) Create(ctx context.Context, log model.AuditLog) error {
	r.m.s.nextAuditID++
	log.ID = r.m.s.nextAuditID
	r.m.s.auditLogs = append(r.m.s.auditLogs, log)
	return nil
}

func (r memAuditLogs) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(r.m.s.auditLogs) - 1; i >= 0; i-- {
		l := r.m.s.auditLogs[i]
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// ---- cache / metrics ----

// Redis実装と同じく明細だけ持つ（Productは落とす）
type memCache struct {
	lines   map[string][]model.CartItem
	deletes int
}

func newMemCache() *memCache { return &memCache{lines: map[string][]model.CartItem{}} }

func (c *memCache) Get(ctx context.Context, userID string) ([]model.CartItem, error) {
	lines, ok := c.lines[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return append([]model.CartItem(nil), lines...), nil
}

func (c *memCache) Set(ctx context.Context, userID string, lines []model.CartItem) error {
	stored := make([]model.CartItem, 0, len(lines))
	for _, l := range lines {
		l.Product = model.Product{}
		stored = append(stored, l)
	}
	c.lines[userID] = stored
	return nil
}

func (c *memCache) Delete(ctx context.Context, userID string) error {
	c.deletes++
	delete(c.lines, userID)
	return nil
}

type recMetrics struct {
	placed   []decimal.Decimal
	failures []string
	cache    []string
}

func (m *recMetrics) OrderPlaced(total decimal.Decimal)  { m.placed = append(m.placed, total) }
func (m *recMetrics) OrderPlacementFailed(reason string) { m.failures = append(m.failures, reason) }
func (m *recMetrics) CartCacheResult(result string)      { m.cache = append(m.cache, result) }
