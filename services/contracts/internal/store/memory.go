package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"
)

// Memory is the in-memory repository used by tests and by the server when no
// database is configured. The mutex is held across the whole sign
// read-modify-write, which gives the same linearization the postgres store
// gets from its row lock.
type Memory struct {
	mu           sync.RWMutex
	contracts    map[string]*domain.Contract
	deliverables map[string]*domain.Deliverable
	ctrOrder     []string
	dlvOrder     map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		contracts:    make(map[string]*domain.Contract),
		deliverables: make(map[string]*domain.Deliverable),
		dlvOrder:     make(map[string][]string),
	}
}

func (m *Memory) CreateContract(ctx context.Context, c *domain.Contract, ds []*domain.Deliverable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.ID]; ok {
		return fmt.Errorf("contract %s already exists", c.ID)
	}
	m.contracts[c.ID] = cloneContract(c)
	m.ctrOrder = append(m.ctrOrder, c.ID)
	for _, d := range ds {
		m.deliverables[d.ID] = cloneDeliverable(d)
		m.dlvOrder[c.ID] = append(m.dlvOrder[c.ID], d.ID)
	}
	return nil
}

func (m *Memory) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, id)
	}
	return cloneContract(c), nil
}

func (m *Memory) ListContractsByParty(ctx context.Context, userID string) ([]*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Contract
	for _, id := range m.ctrOrder {
		if c := m.contracts[id]; c.IsParty(userID) {
			out = append(out, cloneContract(c))
		}
	}
	return out, nil
}

func (m *Memory) ListDeliverables(ctx context.Context, contractID string) ([]*domain.Deliverable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Deliverable
	for _, id := range m.dlvOrder[contractID] {
		out = append(out, cloneDeliverable(m.deliverables[id]))
	}
	return out, nil
}

func (m *Memory) GetDeliverable(ctx context.Context, id string) (*domain.Deliverable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deliverables[id]
	if !ok {
		return nil, fmt.Errorf("%w: deliverable %s", domain.ErrNotFound, id)
	}
	return cloneDeliverable(d), nil
}

func (m *Memory) Sign(ctx context.Context, contractID, userID string, at time.Time) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, contractID)
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidTransition, c.Status)
	}
	switch userID {
	case c.ClientID:
		if c.ClientSignedAt == nil {
			t := at
			c.ClientSignedAt = &t
		}
	case c.ProviderID:
		if c.ProviderSignedAt == nil {
			t := at
			c.ProviderSignedAt = &t
		}
	default:
		return nil, fmt.Errorf("%w: user %s is not a party to contract %s", domain.ErrUnauthorized, userID, contractID)
	}
	if domain.Quorum(c) && c.Status == domain.StatusPendingSignature {
		c.Status = domain.StatusActive
		t := at
		c.StartDate = &t
	}
	c.UpdatedAt = at
	return cloneContract(c), nil
}

func (m *Memory) UpdateContractStatus(ctx context.Context, id string, from, to domain.ContractStatus, endDate *time.Time) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, id)
	}
	if c.Status != from {
		return nil, fmt.Errorf("%w: contract moved to %s", domain.ErrInvalidTransition, c.Status)
	}
	c.Status = to
	if endDate != nil {
		t := *endDate
		c.ActualEndDate = &t
	}
	c.UpdatedAt = time.Now().UTC()
	return cloneContract(c), nil
}

func (m *Memory) SubmitDeliverable(ctx context.Context, id string, fileURLs []string, description string, at time.Time) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliverables[id]
	if !ok {
		return nil, fmt.Errorf("%w: deliverable %s", domain.ErrNotFound, id)
	}
	if d.Status != domain.DeliverablePending {
		return nil, fmt.Errorf("%w: deliverable is %s", domain.ErrInvalidTransition, d.Status)
	}
	d.Status = domain.DeliverableSubmitted
	d.FileURLs = append([]string(nil), fileURLs...)
	if description != "" {
		d.Description = description
	}
	t := at
	d.SubmittedAt = &t
	d.UpdatedAt = at
	return cloneDeliverable(d), nil
}

func (m *Memory) ReviewDeliverable(ctx context.Context, id string, status domain.DeliverableStatus, feedback string, at time.Time) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliverables[id]
	if !ok {
		return nil, fmt.Errorf("%w: deliverable %s", domain.ErrNotFound, id)
	}
	if d.Status != domain.DeliverableSubmitted {
		return nil, fmt.Errorf("%w: deliverable is %s", domain.ErrInvalidTransition, d.Status)
	}
	d.Status = status
	d.Feedback = feedback
	t := at
	d.ReviewedAt = &t
	d.UpdatedAt = at
	return cloneDeliverable(d), nil
}

func cloneContract(c *domain.Contract) *domain.Contract {
	out := *c
	out.Terms = append([]byte(nil), c.Terms...)
	out.ClientSignedAt = cloneTime(c.ClientSignedAt)
	out.ProviderSignedAt = cloneTime(c.ProviderSignedAt)
	out.StartDate = cloneTime(c.StartDate)
	out.ActualEndDate = cloneTime(c.ActualEndDate)
	out.Deliverables = nil
	return &out
}

func cloneDeliverable(d *domain.Deliverable) *domain.Deliverable {
	out := *d
	out.FileURLs = append([]string(nil), d.FileURLs...)
	out.SubmittedAt = cloneTime(d.SubmittedAt)
	out.ReviewedAt = cloneTime(d.ReviewedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
