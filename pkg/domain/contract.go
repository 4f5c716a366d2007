package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type ContractStatus string

const (
	StatusPendingSignature ContractStatus = "pending_signature"
	StatusActive           ContractStatus = "active"
	StatusInProgress       ContractStatus = "in_progress"
	StatusUnderReview      ContractStatus = "under_review"
	StatusCompleted        ContractStatus = "completed"
	StatusDisputed         ContractStatus = "disputed"
	StatusCancelled        ContractStatus = "cancelled"
)

// ContractTransitions is the full set of legal status edges. Completed and
// cancelled have no outgoing edges; every attempt to leave them must fail.
var ContractTransitions = map[ContractStatus][]ContractStatus{
	StatusPendingSignature: {StatusActive, StatusCancelled},
	StatusActive:           {StatusInProgress, StatusCancelled},
	StatusInProgress:       {StatusUnderReview, StatusDisputed, StatusCancelled},
	StatusUnderReview:      {StatusCompleted, StatusInProgress, StatusDisputed},
	StatusCompleted:        {},
	StatusDisputed:         {StatusInProgress, StatusCancelled},
	StatusCancelled:        {},
}

func ParseContractStatus(s string) (ContractStatus, error) {
	st := ContractStatus(s)
	if _, ok := ContractTransitions[st]; !ok {
		return "", fmt.Errorf("%w: unknown contract status %q", ErrValidation, s)
	}
	return st, nil
}

func CanTransition(from, to ContractStatus) bool {
	for _, next := range ContractTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ContractStatus) Terminal() bool {
	return len(ContractTransitions[s]) == 0
}

type DeliverableStatus string

const (
	DeliverablePending   DeliverableStatus = "pending"
	DeliverableSubmitted DeliverableStatus = "submitted"
	DeliverableApproved  DeliverableStatus = "approved"
	DeliverableRejected  DeliverableStatus = "rejected"
)

// DeliverableTransitions deliberately has no rejected->submitted edge:
// resubmission after rejection is an open product decision and stays closed
// until taken.
var DeliverableTransitions = map[DeliverableStatus][]DeliverableStatus{
	DeliverablePending:   {DeliverableSubmitted},
	DeliverableSubmitted: {DeliverableApproved, DeliverableRejected},
	DeliverableApproved:  {},
	DeliverableRejected:  {},
}

func CanTransitionDeliverable(from, to DeliverableStatus) bool {
	for _, next := range DeliverableTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Contract binds a client and a provider to an accepted (mission, bid) pair.
// MissionID, BidID, ClientID and ProviderID are opaque references into
// collaborator domains.
type Contract struct {
	ID               string          `json:"id"`
	MissionID        string          `json:"mission_id"`
	BidID            string          `json:"bid_id"`
	ClientID         string          `json:"client_id"`
	ProviderID       string          `json:"provider_id"`
	Terms            json.RawMessage `json:"terms,omitempty"`
	Status           ContractStatus  `json:"status"`
	ClientSignedAt   *time.Time      `json:"client_signed_at,omitempty"`
	ProviderSignedAt *time.Time      `json:"provider_signed_at,omitempty"`
	StartDate        *time.Time      `json:"start_date,omitempty"`
	ActualEndDate    *time.Time      `json:"actual_end_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Deliverables     []Deliverable   `json:"deliverables,omitempty"`
}

func (c *Contract) IsParty(userID string) bool {
	return userID == c.ClientID || userID == c.ProviderID
}

// Counterparty returns the other party. Callers must have checked IsParty.
func (c *Contract) Counterparty(userID string) string {
	if userID == c.ClientID {
		return c.ProviderID
	}
	return c.ClientID
}

// Quorum reports whether both parties have signed. It must only be evaluated
// against the post-update record inside the sign read-modify-write.
func Quorum(c *Contract) bool {
	return c.ClientSignedAt != nil && c.ProviderSignedAt != nil
}

type Deliverable struct {
	ID          string            `json:"id"`
	ContractID  string            `json:"contract_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      DeliverableStatus `json:"status"`
	FileURLs    []string          `json:"file_urls,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time        `json:"reviewed_at,omitempty"`
	Feedback    string            `json:"feedback,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Notification is the payload handed to the notification sink. Delivery is
// fire-and-forget; the sink's failure never fails a lifecycle operation.
type Notification struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}
