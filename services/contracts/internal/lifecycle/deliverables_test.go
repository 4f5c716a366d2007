package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndReviewFlow(t *testing.T) {
	eng, sink, clock := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)
	dlv := c.Deliverables[0]

	clock.Advance(time.Hour)
	submitted, err := eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs:    []string{"https://files.example/spec.pdf", "https://files.example/annex.pdf"},
		Description: "v1 of the spec",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliverableSubmitted, submitted.Status)
	assert.Equal(t, []string{"https://files.example/spec.pdf", "https://files.example/annex.pdf"}, submitted.FileURLs)
	assert.Equal(t, "v1 of the spec", submitted.Description)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, clock.Now(), *submitted.SubmittedAt)

	subs := sink.byType("deliverable_submitted")
	require.Len(t, subs, 1)
	assert.Equal(t, "usr_1", subs[0].userID)

	clock.Advance(time.Hour)
	reviewed, err := eng.ReviewDeliverable(ctx, dlv.ID, "usr_1", ReviewDeliverableRequest{
		Approved: true,
		Feedback: "looks good",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliverableApproved, reviewed.Status)
	assert.Equal(t, "looks good", reviewed.Feedback)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.True(t, reviewed.ReviewedAt.After(*reviewed.SubmittedAt))

	revs := sink.byType("deliverable_reviewed")
	require.Len(t, revs, 1)
	assert.Equal(t, "usr_2", revs[0].userID)

	// Reviewing a deliverable never touches the owning contract's status.
	got, err := eng.GetContract(ctx, c.ID, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingSignature, got.Status)
}

func TestSubmitRequiresProvider(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)

	for _, user := range []string{"usr_1", "usr_99"} {
		_, err := eng.SubmitDeliverable(ctx, c.Deliverables[0].ID, user, SubmitDeliverableRequest{
			FileURLs: []string{"https://files.example/a"},
		})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}
}

func TestSubmitOnlyFromPending(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)
	dlv := c.Deliverables[0]

	_, err := eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/a"},
	})
	require.NoError(t, err)

	_, err = eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/b"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// The system this replaces let anyone review a deliverable; here the review
// is restricted to the owning contract's client.
func TestReviewRequiresClient(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)
	dlv := c.Deliverables[0]

	_, err := eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/a"},
	})
	require.NoError(t, err)

	for _, user := range []string{"usr_2", "usr_99"} {
		_, err := eng.ReviewDeliverable(ctx, dlv.ID, user, ReviewDeliverableRequest{Approved: true})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}
}

func TestReviewOnlyFromSubmitted(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)
	dlv := c.Deliverables[0]

	// Still pending: nothing to review.
	_, err := eng.ReviewDeliverable(ctx, dlv.ID, "usr_1", ReviewDeliverableRequest{Approved: true})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/a"},
	})
	require.NoError(t, err)
	_, err = eng.ReviewDeliverable(ctx, dlv.ID, "usr_1", ReviewDeliverableRequest{Approved: false, Feedback: "missing section"})
	require.NoError(t, err)

	// Re-reviewing an already decided deliverable fails.
	_, err = eng.ReviewDeliverable(ctx, dlv.ID, "usr_1", ReviewDeliverableRequest{Approved: true})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectedDeliverableCannotBeResubmitted(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	c := createTestContract(t, eng)
	dlv := c.Deliverables[1]

	_, err := eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/build.zip"},
	})
	require.NoError(t, err)
	rejected, err := eng.ReviewDeliverable(ctx, dlv.ID, "usr_1", ReviewDeliverableRequest{Approved: false, Feedback: "does not build"})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliverableRejected, rejected.Status)
	assert.Equal(t, "does not build", rejected.Feedback)

	_, err = eng.SubmitDeliverable(ctx, dlv.ID, "usr_2", SubmitDeliverableRequest{
		FileURLs: []string{"https://files.example/build2.zip"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDeliverableNotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SubmitDeliverable(ctx, "dlv_missing", "usr_2", SubmitDeliverableRequest{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = eng.ReviewDeliverable(ctx, "dlv_missing", "usr_1", ReviewDeliverableRequest{Approved: true})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
