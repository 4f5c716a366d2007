// Package lifecycle owns the contract status machine and the deliverable
// submit/review workflow. It is the only writer of Contract.Status and
// Deliverable.Status; persistence and notification delivery are injected.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"

	"github.com/google/uuid"
)

// Repository is the transactional persistence capability. Implementations
// must make CreateContract an all-or-nothing batch and Sign a single atomic
// read-modify-write (see Sign for the quorum rule).
type Repository interface {
	CreateContract(ctx context.Context, c *domain.Contract, ds []*domain.Deliverable) error
	GetContract(ctx context.Context, id string) (*domain.Contract, error)
	ListContractsByParty(ctx context.Context, userID string) ([]*domain.Contract, error)
	ListDeliverables(ctx context.Context, contractID string) ([]*domain.Deliverable, error)
	GetDeliverable(ctx context.Context, id string) (*domain.Deliverable, error)

	// Sign records userID's signature timestamp (no-op when already set) and,
	// when the post-update record satisfies the quorum, promotes the contract
	// to active with start_date=at, all in one atomic step. Two concurrent
	// calls for the two parties must be linearized: one of them must observe
	// the other's signature.
	Sign(ctx context.Context, contractID, userID string, at time.Time) (*domain.Contract, error)

	// UpdateContractStatus moves the contract from the expected current status
	// to the new one, failing with domain.ErrInvalidTransition when the row no
	// longer carries `from`. endDate is set as actual_end_date when non-nil.
	UpdateContractStatus(ctx context.Context, id string, from, to domain.ContractStatus, endDate *time.Time) (*domain.Contract, error)

	// SubmitDeliverable and ReviewDeliverable are conditional on the expected
	// current deliverable status, mirroring UpdateContractStatus.
	SubmitDeliverable(ctx context.Context, id string, fileURLs []string, description string, at time.Time) (*domain.Deliverable, error)
	ReviewDeliverable(ctx context.Context, id string, status domain.DeliverableStatus, feedback string, at time.Time) (*domain.Deliverable, error)
}

// Notifier delivers a notification to one user. Errors are logged and
// swallowed; production wiring hands in an async dispatcher.
type Notifier interface {
	Notify(ctx context.Context, userID string, n domain.Notification) error
}

type Engine struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(repo Repository, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// WithClock pins the engine's clock; tests use it to assert timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

type DeliverableSpec struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CreateContractRequest struct {
	MissionID    string            `json:"mission_id"`
	BidID        string            `json:"bid_id"`
	ClientID     string            `json:"client_id"`
	ProviderID   string            `json:"provider_id"`
	Terms        json.RawMessage   `json:"terms,omitempty"`
	Deliverables []DeliverableSpec `json:"deliverables,omitempty"`
}

func (r CreateContractRequest) validate() error {
	if strings.TrimSpace(r.MissionID) == "" || strings.TrimSpace(r.BidID) == "" {
		return fmt.Errorf("%w: mission_id and bid_id are required", domain.ErrValidation)
	}
	if strings.TrimSpace(r.ClientID) == "" || strings.TrimSpace(r.ProviderID) == "" {
		return fmt.Errorf("%w: client_id and provider_id are required", domain.ErrValidation)
	}
	if r.ClientID == r.ProviderID {
		return fmt.Errorf("%w: client and provider must be different users", domain.ErrValidation)
	}
	for i, spec := range r.Deliverables {
		if strings.TrimSpace(spec.Title) == "" {
			return fmt.Errorf("%w: deliverable %d has an empty title", domain.ErrValidation, i)
		}
	}
	return nil
}

// CreateContract persists the contract in pending_signature together with its
// deliverable batch, then notifies both parties.
func (e *Engine) CreateContract(ctx context.Context, req CreateContractRequest) (*domain.Contract, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	c := &domain.Contract{
		ID:         "ctr_" + uuid.NewString(),
		MissionID:  req.MissionID,
		BidID:      req.BidID,
		ClientID:   req.ClientID,
		ProviderID: req.ProviderID,
		Terms:      req.Terms,
		Status:     domain.StatusPendingSignature,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ds := make([]*domain.Deliverable, 0, len(req.Deliverables))
	for _, spec := range req.Deliverables {
		ds = append(ds, &domain.Deliverable{
			ID:          "dlv_" + uuid.NewString(),
			ContractID:  c.ID,
			Title:       spec.Title,
			Description: spec.Description,
			Status:      domain.DeliverablePending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := e.repo.CreateContract(ctx, c, ds); err != nil {
		e.logger.Error("contract create failed", "mission_id", req.MissionID, "bid_id", req.BidID, "error", err)
		return nil, fmt.Errorf("create contract: %w", err)
	}
	for _, d := range ds {
		c.Deliverables = append(c.Deliverables, *d)
	}
	n := domain.Notification{
		Type:    "contract_created",
		Title:   "Contract created",
		Message: "A new contract was created and awaits your signature",
		Link:    "/contracts/" + c.ID,
	}
	e.notify(ctx, c.ClientID, n)
	e.notify(ctx, c.ProviderID, n)
	return c, nil
}

// Sign records the caller's signature. The quorum check and the promotion to
// active happen inside the repository's atomic read-modify-write; the engine
// only interprets the outcome and notifies the counter-party.
func (e *Engine) Sign(ctx context.Context, contractID, userID string) (*domain.Contract, error) {
	c, err := e.repo.Sign(ctx, contractID, userID, e.now().UTC())
	if err != nil {
		return nil, err
	}
	msg := "The contract was signed by the other party"
	if c.Status == domain.StatusActive {
		msg = "Both parties signed, the contract is now active"
	}
	e.notify(ctx, c.Counterparty(userID), domain.Notification{
		Type:    "contract_signed",
		Title:   "Contract signed",
		Message: msg,
		Link:    "/contracts/" + c.ID,
	})
	return c, nil
}

// Transition moves the contract along one edge of the status table. The
// repository update is conditional on the status the edge was validated
// against, so a concurrent transition cannot slip through.
func (e *Engine) Transition(ctx context.Context, contractID string, newStatus domain.ContractStatus, userID string) (*domain.Contract, error) {
	c, err := e.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !c.IsParty(userID) {
		return nil, fmt.Errorf("%w: user %s is not a party to contract %s", domain.ErrUnauthorized, userID, contractID)
	}
	if !domain.CanTransition(c.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, c.Status, newStatus)
	}
	var endDate *time.Time
	if newStatus == domain.StatusCompleted {
		t := e.now().UTC()
		endDate = &t
	}
	updated, err := e.repo.UpdateContractStatus(ctx, contractID, c.Status, newStatus, endDate)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, updated.Counterparty(userID), domain.Notification{
		Type:    "contract_status_changed",
		Title:   "Contract status changed",
		Message: fmt.Sprintf("The contract is now %s", newStatus),
		Link:    "/contracts/" + contractID,
	})
	return updated, nil
}

// ListContracts returns every contract the user is a party to, oldest first,
// with nested deliverables.
func (e *Engine) ListContracts(ctx context.Context, userID string) ([]*domain.Contract, error) {
	cs, err := e.repo.ListContractsByParty(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		if err := e.attachDeliverables(ctx, c); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

func (e *Engine) GetContract(ctx context.Context, contractID, userID string) (*domain.Contract, error) {
	c, err := e.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !c.IsParty(userID) {
		// Same shape as a missing contract so ids cannot be probed.
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, contractID)
	}
	if err := e.attachDeliverables(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) attachDeliverables(ctx context.Context, c *domain.Contract) error {
	ds, err := e.repo.ListDeliverables(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Deliverables = c.Deliverables[:0]
	for _, d := range ds {
		c.Deliverables = append(c.Deliverables, *d)
	}
	return nil
}

// notify is fire-and-forget: a sink failure is logged, never propagated.
func (e *Engine) notify(ctx context.Context, userID string, n domain.Notification) {
	if err := e.notifier.Notify(ctx, userID, n); err != nil {
		e.logger.Warn("notification delivery failed", "user_id", userID, "type", n.Type, "error", err)
	}
}
