package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	"gorm.io/gorm"
)

// MemoryStore is an in-memory stand-in for the database. It enforces the
// unique terminal ID, the unique (terminal_id, date) key and the transaction
// to client foreign key, and translates violations to gorm's errors.
// Batch writes apply row by row, so only WithTransaction makes them atomic.
type MemoryStore struct {
	mu           sync.Mutex
	clients      []models.Client
	transactions []models.Transaction
	nextClientID uint
	nextTxID     uint

	// FailWrites, when set, is returned by every write after it is set
	FailWrites error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextClientID: 1, nextTxID: 1}
}

// Clients returns the client repository view of the store
func (s *MemoryStore) Clients() repository.ClientRepository {
	return &memoryClientRepository{s: s}
}

// Transactions returns the transaction repository view of the store
func (s *MemoryStore) Transactions() repository.TransactionRepository {
	return &memoryTransactionRepository{s: s}
}

// Transactor returns a Transactor that restores the store when fn fails
func (s *MemoryStore) Transactor() repository.Transactor {
	return memoryTransactor{s: s}
}

// ClientCount returns the number of stored clients
func (s *MemoryStore) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// TransactionCount returns the number of stored transactions
func (s *MemoryStore) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// SeedClients stores clients directly, bypassing the repositories
func (s *MemoryStore) SeedClients(clients ...*models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range clients {
		if err := s.insertClient(c); err != nil {
			panic(err)
		}
	}
}

// SeedTransactions stores transactions directly, bypassing the repositories
func (s *MemoryStore) SeedTransactions(txs ...*models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		if err := s.upsertTransaction(t); err != nil {
			panic(err)
		}
	}
}

func (s *MemoryStore) clientIndexByTerminal(terminalID string) int {
	for i := range s.clients {
		if s.clients[i].TerminalID == terminalID {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) insertClient(c *models.Client) error {
	if s.clientIndexByTerminal(c.TerminalID) >= 0 {
		return fmt.Errorf("insert client %s: %w", c.TerminalID, gorm.ErrDuplicatedKey)
	}
	now := time.Now().UTC()
	c.ID = s.nextClientID
	c.CreatedAt = now
	c.UpdatedAt = now
	s.nextClientID++
	s.clients = append(s.clients, *c)
	return nil
}

func (s *MemoryStore) upsertTransaction(t *models.Transaction) error {
	if s.clientIndexByTerminal(t.TerminalID) < 0 {
		return fmt.Errorf("insert transaction for %s: %w", t.TerminalID, gorm.ErrForeignKeyViolated)
	}
	key := t.Key()
	for i := range s.transactions {
		if s.transactions[i].Key() == key {
			s.transactions[i].Volume = t.Volume
			s.transactions[i].Value = t.Value
			t.ID = s.transactions[i].ID
			return nil
		}
	}
	t.ID = s.nextTxID
	s.nextTxID++
	s.transactions = append(s.transactions, *t)
	return nil
}

func (s *MemoryStore) matchClient(c *models.Client, f models.ClientFilter) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.TerminalID != nil && c.TerminalID != *f.TerminalID {
		return false
	}
	if f.Group != nil && c.Group != *f.Group {
		return false
	}
	return true
}

func (s *MemoryStore) matchTransaction(t *models.Transaction, f models.TransactionFilter) bool {
	if f.ID != nil && t.ID != *f.ID {
		return false
	}
	if f.TerminalID != nil && t.TerminalID != *f.TerminalID {
		return false
	}
	if f.Group != nil {
		idx := s.clientIndexByTerminal(t.TerminalID)
		if idx < 0 || s.clients[idx].Group != *f.Group {
			return false
		}
	}
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !t.Date.Before(*f.DateTo) {
		return false
	}
	return true
}


func page[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return []*T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memoryClientRepository struct {
	s *MemoryStore
}

func (r *memoryClientRepository) ByID(ctx context.Context, id uint) (*models.Client, error) {
	return r.first(models.ClientFilter{ID: &id})
}

func (r *memoryClientRepository) ByTerminalID(ctx context.Context, terminalID string) (*models.Client, error) {
	return r.first(models.ClientFilter{TerminalID: &terminalID})
}

// first returns the first client matching f, or nil
func (r *memoryClientRepository) first(f models.ClientFilter) (*models.Client, error) {
	items, err := r.ByFilter(context.Background(), f, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *memoryClientRepository) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Client, 0)
	for i := range r.s.clients {
		if r.s.matchClient(&r.s.clients[i], filter) {
			c := r.s.clients[i]
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r *memoryClientRepository) ByGroup(ctx context.Context, group string) ([]*models.Client, error) {
	return r.ByFilter(ctx, models.ClientFilter{Group: &group}, "", 0, 0)
}

func (r *memoryClientRepository) ListGroups(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[string]struct{}{}
	groups := make([]string, 0)
	for _, c := range r.s.clients {
		if _, ok := seen[c.Group]; ok {
			continue
		}
		seen[c.Group] = struct{}{}
		groups = append(groups, c.Group)
	}
	sort.Strings(groups)
	return groups, nil
}

func (r *memoryClientRepository) Save(ctx context.Context, client *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	return r.s.insertClient(client)
}

func (r *memoryClientRepository) SaveBatch(ctx context.Context, clients []*models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range clients {
		if r.s.FailWrites != nil {
			return r.s.FailWrites
		}
		if err := r.s.insertClient(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryClientRepository) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(items)), err
}

func (r *memoryClientRepository) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *memoryClientRepository) Update(ctx context.Context, client *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}

	idx := -1
	for i := range r.s.clients {
		if r.s.clients[i].ID == client.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return gorm.ErrRecordNotFound
	}
	if other := r.s.clientIndexByTerminal(client.TerminalID); other >= 0 && other != idx {
		return fmt.Errorf("update client %d: %w", client.ID, gorm.ErrDuplicatedKey)
	}

	old := r.s.clients[idx]
	// ON UPDATE CASCADE
	if old.TerminalID != client.TerminalID {
		for i := range r.s.transactions {
			if r.s.transactions[i].TerminalID == old.TerminalID {
				r.s.transactions[i].TerminalID = client.TerminalID
			}
		}
	}
	updated := *client
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.s.clients[idx] = updated
	return nil
}

func (r *memoryClientRepository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	return r.DeleteByFilter(ctx, models.ClientFilter{ID: &id})
}

func (r *memoryClientRepository) DeleteByFilter(ctx context.Context, filter models.ClientFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return 0, r.s.FailWrites
	}

	doomed := map[string]struct{}{}
	for i := range r.s.clients {
		if r.s.matchClient(&r.s.clients[i], filter) {
			doomed[r.s.clients[i].TerminalID] = struct{}{}
		}
	}
	// ON DELETE RESTRICT
	for _, t := range r.s.transactions {
		if _, ok := doomed[t.TerminalID]; ok {
			return 0, fmt.Errorf("delete client %s: %w", t.TerminalID, gorm.ErrForeignKeyViolated)
		}
	}

	kept := r.s.clients[:0]
	for _, c := range r.s.clients {
		if _, ok := doomed[c.TerminalID]; !ok {
			kept = append(kept, c)
		}
	}
	r.s.clients = kept
	return int64(len(doomed)), nil
}

type memoryTransactionRepository struct {
	s *MemoryStore
}

func (r *memoryTransactionRepository) ByID(ctx context.Context, id uint) (*models.Transaction, error) {
	items, err := r.ByFilter(ctx, models.TransactionFilter{ID: &id}, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *memoryTransactionRepository) ByFilter(ctx context.Context, filter models.TransactionFilter, orderBy string, limit, offset int) ([]*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Transaction, 0)
	for i := range r.s.transactions {
		if r.s.matchTransaction(&r.s.transactions[i], filter) {
			t := r.s.transactions[i]
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

func (r *memoryTransactionRepository) Save(ctx context.Context, t *models.Transaction) error {
	return r.UpsertBatch(ctx, []*models.Transaction{t})
}

func (r *memoryTransactionRepository) SaveBatch(ctx context.Context, txs []*models.Transaction) error {
	return r.UpsertBatch(ctx, txs)
}

func (r *memoryTransactionRepository) Count(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(items)), err
}

func (r *memoryTransactionRepository) Exists(ctx context.Context, filter models.TransactionFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *memoryTransactionRepository) UpsertBatch(ctx context.Context, txs []*models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range txs {
		if r.s.FailWrites != nil {
			return r.s.FailWrites
		}
		if err := r.s.upsertTransaction(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryTransactionRepository) DeleteByFilter(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return 0, r.s.FailWrites
	}

	var deleted int64
	kept := make([]models.Transaction, 0, len(r.s.transactions))
	for i := range r.s.transactions {
		if r.s.matchTransaction(&r.s.transactions[i], filter) {
			deleted++
			continue
		}
		kept = append(kept, r.s.transactions[i])
	}
	r.s.transactions = kept
	return deleted, nil
}

type memoryTransactor struct {
	s *MemoryStore
}

type memorySnapshot struct {
	clients      []models.Client
	transactions []models.Transaction
	nextClientID uint
	nextTxID     uint
}

func (t memoryTransactor) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.s.mu.Lock()
	snap := memorySnapshot{
		clients:      append([]models.Client(nil), t.s.clients...),
		transactions: append([]models.Transaction(nil), t.s.transactions...),
		nextClientID: t.s.nextClientID,
		nextTxID:     t.s.nextTxID,
	}
	t.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.s.mu.Lock()
		t.s.clients = snap.clients
		t.s.transactions = snap.transactions
		t.s.nextClientID = snap.nextClientID
		t.s.nextTxID = snap.nextTxID
		t.s.mu.Unlock()
		return err
	}
	return nil
}
