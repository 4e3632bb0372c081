// Package memory is an in-process backend for the repositories, used by tests and by --storage=memory.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
	"table-service/internal/domain"
	"table-service/internal/repository"
)

// Store keeps every aggregate as a private copy. Reads hand out copies too, so callers
// never share state with the store.
type Store struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	tickets  map[uuid.UUID]domain.KitchenTicket
	tables   map[int64]repository.Table
	timeline map[uuid.UUID][]repository.TimelineEvent

	locksMu    sync.Mutex
	orderLocks map[uuid.UUID]*orderLock
}

// orderLock is dropped from the map once no caller holds or waits for it.
type orderLock struct {
	sync.Mutex
	refs int
}

func NewStore() *Store {
	return &Store{
		orders:     make(map[uuid.UUID]*domain.Order),
		tickets:    make(map[uuid.UUID]domain.KitchenTicket),
		tables:     make(map[int64]repository.Table),
		timeline:   make(map[uuid.UUID][]repository.TimelineEvent),
		orderLocks: make(map[uuid.UUID]*orderLock),
	}
}

// Repositories returns the store behind every repository contract.
func (m *Store) Repositories() repository.Store {
	return repository.Store{
		Orders:   (*Orders)(m),
		Tickets:  (*Tickets)(m),
		Tables:   (*Tables)(m),
		Timeline: (*Timeline)(m),
		Tx:       m,
		Locker:   m,
	}
}

// AddTable seeds a dining table.
func (m *Store) AddTable(t repository.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (m *Store) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *Store) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *Store) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *Store) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

type snapshot struct {
	orders   map[uuid.UUID]*domain.Order
	tickets  map[uuid.UUID]domain.KitchenTicket
	tables   map[int64]repository.Table
	timeline map[uuid.UUID][]repository.TimelineEvent
}

func (m *Store) snapshot() snapshot {
	s := snapshot{
		orders:   make(map[uuid.UUID]*domain.Order, len(m.orders)),
		tickets:  make(map[uuid.UUID]domain.KitchenTicket, len(m.tickets)),
		tables:   make(map[int64]repository.Table, len(m.tables)),
		timeline: make(map[uuid.UUID][]repository.TimelineEvent, len(m.timeline)),
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	for k, v := range m.tickets {
		s.tickets[k] = v
	}
	for k, v := range m.tables {
		s.tables[k] = v
	}
	for k, v := range m.timeline {
		s.timeline[k] = v
	}
	return s
}

func (m *Store) restore(s snapshot) {
	m.orders, m.tickets, m.tables, m.timeline = s.orders, s.tickets, s.tables, s.timeline
}

// WithinTx holds the write lock for fn and restores the previous state if fn fails.
func (m *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// WithOrderLock serializes fn with every other locked call for the same order.
func (m *Store) WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error {
	m.rlock(ctx)
	_, ok := m.orders[orderID]
	m.runlock(ctx)
	if !ok {
		return apperr.WithMetadata(apperr.CodeOrderNotFound, "order not found", map[string]string{"order_id": orderID.String()})
	}

	m.locksMu.Lock()
	l, ok := m.orderLocks[orderID]
	if !ok {
		l = &orderLock{}
		m.orderLocks[orderID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.Lock()
	defer func() {
		l.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.orderLocks, orderID)
		}
		m.locksMu.Unlock()
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Orders implements repository.OrderRepository.
type Orders Store

var _ repository.OrderRepository = (*Orders)(nil)

func (r *Orders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.WithMetadata(apperr.CodeOrderNotFound, "order not found", map[string]string{"order_id": id.String()})
	}
	return o.Clone(), nil
}

func (r *Orders) Add(ctx context.Context, o *domain.Order) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	o.Version = 1
	m.orders[o.ID] = o.Clone()
	return nil
}

func (r *Orders) Update(ctx context.Context, o *domain.Order) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	cur, ok := m.orders[o.ID]
	if !ok {
		return apperr.WithMetadata(apperr.CodeOrderNotFound, "order not found", map[string]string{"order_id": o.ID.String()})
	}
	if cur.Version != o.Version {
		return apperr.WithMetadata(apperr.CodeConcurrentUpdate, "order was modified concurrently",
			map[string]string{"order_id": o.ID.String()})
	}
	o.Version++
	m.orders[o.ID] = o.Clone()
	return nil
}

func (r *Orders) NextSequence(ctx context.Context, day time.Time) (int, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	y, mo, d := day.UTC().Date()
	n := 0
	for _, o := range m.orders {
		oy, om, od := o.CreatedAt.UTC().Date()
		if oy == y && om == mo && od == d {
			n++
		}
	}
	return n + 1, nil
}

func (r *Orders) HasOpenOrders(ctx context.Context, tableID int64, except uuid.UUID) (bool, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	for id, o := range m.orders {
		if id != except && o.TableID == tableID && o.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

// Tickets implements repository.TicketRepository.
type Tickets Store

var _ repository.TicketRepository = (*Tickets)(nil)

func (r *Tickets) GetByID(ctx context.Context, id uuid.UUID) (*domain.KitchenTicket, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	t, ok := m.tickets[id]
	if !ok {
		return nil, apperr.WithMetadata(apperr.CodeTicketNotFound, "ticket not found", map[string]string{"ticket_id": id.String()})
	}
	return &t, nil
}

func (r *Tickets) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.KitchenTicket, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]*domain.KitchenTicket, 0)
	for _, t := range m.tickets {
		if t.OrderID == orderID {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrderItemID < out[j].OrderItemID
	})
	return out, nil
}

func (r *Tickets) AddBatch(ctx context.Context, tickets []*domain.KitchenTicket) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, t := range tickets {
		m.tickets[t.ID] = *t
	}
	return nil
}

func (r *Tickets) Update(ctx context.Context, t *domain.KitchenTicket) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.tickets[t.ID]; !ok {
		return apperr.WithMetadata(apperr.CodeTicketNotFound, "ticket not found", map[string]string{"ticket_id": t.ID.String()})
	}
	m.tickets[t.ID] = *t
	return nil
}

// Tables implements repository.TableRepository.
type Tables Store

var _ repository.TableRepository = (*Tables)(nil)

func (r *Tables) GetByID(ctx context.Context, id int64) (repository.Table, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	t, ok := m.tables[id]
	if !ok {
		return repository.Table{}, tableNotFound(id)
	}
	return t, nil
}

func (r *Tables) SetOccupied(ctx context.Context, id int64, occupied bool) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	t, ok := m.tables[id]
	if !ok {
		return tableNotFound(id)
	}
	t.Occupied = occupied
	m.tables[id] = t
	return nil
}

// Timeline implements repository.TimelineRepository.
type Timeline Store

var _ repository.TimelineRepository = (*Timeline)(nil)

func (r *Timeline) AppendEvent(ctx context.Context, e repository.TimelineEvent) error {
	m := (*Store)(r)
	m.wlock(ctx)
	defer m.wunlock(ctx)
	m.timeline[e.OrderID] = append(m.timeline[e.OrderID], e)
	return nil
}

func (r *Timeline) GetTimeline(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]repository.TimelineEvent, error) {
	m := (*Store)(r)
	m.rlock(ctx)
	defer m.runlock(ctx)
	all := m.timeline[orderID]
	if offset >= len(all) {
		return []repository.TimelineEvent{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]repository.TimelineEvent(nil), all[offset:end]...), nil
}

func tableNotFound(id int64) error {
	return apperr.WithMetadata(apperr.CodeTableNotFound, "table not found", map[string]string{"table_id": strconv.FormatInt(id, 10)})
}
