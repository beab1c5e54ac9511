// Package porttest provides in-memory implementations of the ports for tests.
package porttest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

// StoreRepo is an in-memory port.StoreRepository.
type StoreRepo struct {
	mu     sync.Mutex
	nextID int64
	stores map[int64]domain.Store
	// Err, when set, is returned by every method.
	Err error
}

func NewStoreRepo() *StoreRepo {
	return &StoreRepo{stores: make(map[int64]domain.Store)}
}

func (r *StoreRepo) CreateStore(ctx context.Context, name, address string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.nextID++
	s := domain.Store{ID: r.nextID, Name: name, Address: address, CreatedAt: time.Now().UTC()}
	r.stores[s.ID] = s
	return &s, nil
}

func (r *StoreRepo) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.stores[storeID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *StoreRepo) ListStores(ctx context.Context) ([]domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]domain.Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InventoryRepo is an in-memory port.InventoryRepository. Writes become
// visible only on Commit.
type InventoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.InventoryItem

	// BeginErr fails Begin; OpErr fails every statement inside a transaction.
	BeginErr error
	OpErr    error

	Begun      int
	Committed  int
	RolledBack int
	// Open counts transactions not yet committed or rolled back.
	Open int
}

func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{items: make(map[int64]domain.InventoryItem)}
}

func (r *InventoryRepo) Begin(ctx context.Context) (port.InventoryTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.BeginErr != nil {
		return nil, r.BeginErr
	}
	r.Begun++
	r.Open++
	return &inventoryTx{repo: r, pending: map[int64]domain.InventoryItem{}}, nil
}

// Items returns a snapshot of committed items.
func (r *InventoryRepo) Items() []domain.InventoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.InventoryItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put stores a committed item directly.
func (r *InventoryRepo) Put(item domain.InventoryItem) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item.ID
}

type inventoryTx struct {
	repo    *InventoryRepo
	pending map[int64]domain.InventoryItem
	done    bool
}

func (t *inventoryTx) CreateItem(ctx context.Context, item domain.InventoryItem) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.OpErr != nil {
		return 0, t.repo.OpErr
	}
	t.repo.nextID++
	item.ID = t.repo.nextID
	t.pending[item.ID] = item
	return item.ID, nil
}

func (t *inventoryTx) ListItems(ctx context.Context, storeID int64) ([]domain.InventoryItem, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.OpErr != nil {
		return nil, t.repo.OpErr
	}
	out := []domain.InventoryItem{}
	for _, it := range t.repo.items {
		if it.StoreID == storeID {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *inventoryTx) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.OpErr != nil {
		return false, t.repo.OpErr
	}
	it, ok := t.pending[itemID]
	if !ok {
		it, ok = t.repo.items[itemID]
	}
	if !ok {
		return false, nil
	}
	it.Quantity = quantity
	t.pending[itemID] = it
	return true, nil
}

func (t *inventoryTx) Commit() error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.repo.Open--
	t.repo.Committed++
	for id, it := range t.pending {
		t.repo.items[id] = it
	}
	return nil
}

func (t *inventoryTx) Rollback() error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.repo.Open--
	t.repo.RolledBack++
	return nil
}

// Validator answers store lookups from a fixed table.
type Validator struct {
	mu     sync.Mutex
	Result map[int64]domain.StoreCheck
	// Err is returned alongside domain.StoreUnreachable.
	Err   error
	Calls []int64
}

func NewValidator() *Validator {
	return &Validator{Result: map[int64]domain.StoreCheck{}}
}

func (v *Validator) Lookup(ctx context.Context, storeID int64) (domain.StoreCheck, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Calls = append(v.Calls, storeID)
	check, ok := v.Result[storeID]
	if !ok {
		check = domain.StoreMissing
	}
	if check == domain.StoreUnreachable {
		return check, v.Err
	}
	return check, nil
}

// Idempotency is an in-memory port.IdempotencyRepository.
type Idempotency struct {
	mu   sync.Mutex
	keys map[string]bool
	Err  error
	// ReleaseErr fails ReleaseIdempotency and leaves the key claimed.
	ReleaseErr error
}

func NewIdempotency() *Idempotency {
	return &Idempotency{keys: map[string]bool{}}
}

func (m *Idempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *Idempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReleaseErr != nil {
		return m.ReleaseErr
	}
	delete(m.keys, key)
	return nil
}

func (m *Idempotency) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key]
}
