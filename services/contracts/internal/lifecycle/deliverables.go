package lifecycle

import (
	"context"
	"fmt"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"
)

type SubmitDeliverableRequest struct {
	FileURLs    []string `json:"file_urls"`
	Description string   `json:"description,omitempty"`
}

type ReviewDeliverableRequest struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// SubmitDeliverable moves a deliverable pending -> submitted, recording the
// provider's file references. Only the owning contract's provider may submit.
func (e *Engine) SubmitDeliverable(ctx context.Context, deliverableID, userID string, req SubmitDeliverableRequest) (*domain.Deliverable, error) {
	d, err := e.repo.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}
	c, err := e.repo.GetContract(ctx, d.ContractID)
	if err != nil {
		return nil, err
	}
	if userID != c.ProviderID {
		return nil, fmt.Errorf("%w: only the provider may submit deliverables", domain.ErrUnauthorized)
	}
	if !domain.CanTransitionDeliverable(d.Status, domain.DeliverableSubmitted) {
		return nil, fmt.Errorf("%w: deliverable is %s", domain.ErrInvalidTransition, d.Status)
	}
	updated, err := e.repo.SubmitDeliverable(ctx, deliverableID, req.FileURLs, req.Description, e.now().UTC())
	if err != nil {
		return nil, err
	}
	e.notify(ctx, c.ClientID, domain.Notification{
		Type:    "deliverable_submitted",
		Title:   "Deliverable submitted",
		Message: fmt.Sprintf("%q was submitted for review", updated.Title),
		Link:    "/contracts/" + c.ID,
	})
	return updated, nil
}

// ReviewDeliverable approves or rejects a submitted deliverable. Unlike the
// system this replaces, the caller must be the owning contract's client.
// Reviewing never touches the contract status: promoting the contract is a
// separate, explicit Transition call.
func (e *Engine) ReviewDeliverable(ctx context.Context, deliverableID, userID string, req ReviewDeliverableRequest) (*domain.Deliverable, error) {
	d, err := e.repo.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}
	c, err := e.repo.GetContract(ctx, d.ContractID)
	if err != nil {
		return nil, err
	}
	if userID != c.ClientID {
		return nil, fmt.Errorf("%w: only the client may review deliverables", domain.ErrUnauthorized)
	}
	target := domain.DeliverableRejected
	if req.Approved {
		target = domain.DeliverableApproved
	}
	if !domain.CanTransitionDeliverable(d.Status, target) {
		return nil, fmt.Errorf("%w: deliverable is %s", domain.ErrInvalidTransition, d.Status)
	}
	updated, err := e.repo.ReviewDeliverable(ctx, deliverableID, target, req.Feedback, e.now().UTC())
	if err != nil {
		return nil, err
	}
	e.notify(ctx, c.ProviderID, domain.Notification{
		Type:    "deliverable_reviewed",
		Title:   "Deliverable reviewed",
		Message: fmt.Sprintf("%q was %s", updated.Title, updated.Status),
		Link:    "/contracts/" + c.ID,
	})
	return updated, nil
}
