package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransitionMatchesTable(t *testing.T) {
	cases := []struct {
		from, to ContractStatus
		ok       bool
	}{
		{StatusPendingSignature, StatusActive, true},
		{StatusPendingSignature, StatusCancelled, true},
		{StatusPendingSignature, StatusInProgress, false},
		{StatusActive, StatusInProgress, true},
		{StatusActive, StatusCompleted, false},
		{StatusInProgress, StatusUnderReview, true},
		{StatusInProgress, StatusDisputed, true},
		{StatusUnderReview, StatusCompleted, true},
		{StatusUnderReview, StatusInProgress, true},
		{StatusDisputed, StatusInProgress, true},
		{StatusDisputed, StatusCompleted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.ok {
			t.Fatalf("CanTransition(%s,%s)=%v want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	all := []ContractStatus{
		StatusPendingSignature, StatusActive, StatusInProgress,
		StatusUnderReview, StatusCompleted, StatusDisputed, StatusCancelled,
	}
	for _, terminal := range []ContractStatus{StatusCompleted, StatusCancelled} {
		if !terminal.Terminal() {
			t.Fatalf("expected %s to be terminal", terminal)
		}
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Fatalf("terminal %s must not transition to %s", terminal, to)
			}
		}
	}
	if StatusActive.Terminal() {
		t.Fatalf("active must not be terminal")
	}
}

func TestParseContractStatus(t *testing.T) {
	st, err := ParseContractStatus("under_review")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st != StatusUnderReview {
		t.Fatalf("got %s", st)
	}
	if _, err := ParseContractStatus("archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeliverableTransitions(t *testing.T) {
	if !CanTransitionDeliverable(DeliverablePending, DeliverableSubmitted) {
		t.Fatalf("pending must submit")
	}
	if !CanTransitionDeliverable(DeliverableSubmitted, DeliverableApproved) ||
		!CanTransitionDeliverable(DeliverableSubmitted, DeliverableRejected) {
		t.Fatalf("submitted must review either way")
	}
	// No resubmission edge until the product decision is taken.
	if CanTransitionDeliverable(DeliverableRejected, DeliverableSubmitted) {
		t.Fatalf("rejected must not resubmit")
	}
	if CanTransitionDeliverable(DeliverableApproved, DeliverableRejected) {
		t.Fatalf("approved is final")
	}
}

func TestQuorum(t *testing.T) {
	now := time.Now()
	c := &Contract{ClientID: "usr_1", ProviderID: "usr_2"}
	if Quorum(c) {
		t.Fatalf("unsigned contract has no quorum")
	}
	c.ClientSignedAt = &now
	if Quorum(c) {
		t.Fatalf("half-signed contract has no quorum")
	}
	c.ProviderSignedAt = &now
	if !Quorum(c) {
		t.Fatalf("dual-signed contract has quorum")
	}
}

func TestCounterparty(t *testing.T) {
	c := &Contract{ClientID: "usr_1", ProviderID: "usr_2"}
	if !c.IsParty("usr_1") || !c.IsParty("usr_2") || c.IsParty("usr_3") {
		t.Fatalf("party membership wrong")
	}
	if c.Counterparty("usr_1") != "usr_2" || c.Counterparty("usr_2") != "usr_1" {
		t.Fatalf("counterparty wrong")
	}
}
