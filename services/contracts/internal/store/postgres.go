package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct{ DB *pgxpool.Pool }

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

const contractCols = `contract_id,mission_id,bid_id,client_id,provider_id,terms,status,
client_signed_at,provider_signed_at,start_date,actual_end_date,created_at,updated_at`

const deliverableCols = `deliverable_id,contract_id,title,description,status,file_urls,
submitted_at,reviewed_at,feedback,created_at,updated_at`

func (s *Postgres) CreateContract(ctx context.Context, c *domain.Contract, ds []*domain.Deliverable) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO contracts(contract_id,mission_id,bid_id,client_id,provider_id,terms,status,created_at,updated_at)
VALUES($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$8)
`, c.ID, c.MissionID, c.BidID, c.ClientID, c.ProviderID, termsArg(c), string(c.Status), c.CreatedAt)
	if err != nil {
		return err
	}
	for _, d := range ds {
		_, err = tx.Exec(ctx, `
INSERT INTO deliverables(deliverable_id,contract_id,title,description,status,created_at,updated_at)
VALUES($1,$2,$3,$4,$5,$6,$6)
`, d.ID, d.ContractID, d.Title, d.Description, string(d.Status), d.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Postgres) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+contractCols+` FROM contracts WHERE contract_id=$1`, id)
	c, err := scanContract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, id)
	}
	return c, err
}

func (s *Postgres) ListContractsByParty(ctx context.Context, userID string) ([]*domain.Contract, error) {
	rows, err := s.DB.Query(ctx, `
SELECT `+contractCols+` FROM contracts
WHERE client_id=$1 OR provider_id=$1
ORDER BY created_at, contract_id
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) ListDeliverables(ctx context.Context, contractID string) ([]*domain.Deliverable, error) {
	rows, err := s.DB.Query(ctx, `
SELECT `+deliverableCols+` FROM deliverables
WHERE contract_id=$1
ORDER BY created_at, deliverable_id
`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) GetDeliverable(ctx context.Context, id string) (*domain.Deliverable, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+deliverableCols+` FROM deliverables WHERE deliverable_id=$1`, id)
	d, err := scanDeliverable(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: deliverable %s", domain.ErrNotFound, id)
	}
	return d, err
}

// Sign holds a row lock across the signature write and the quorum check so
// two concurrent calls for the two parties serialize: the loser of the lock
// race observes the winner's signature and performs the promotion.
func (s *Postgres) Sign(ctx context.Context, contractID, userID string, at time.Time) (*domain.Contract, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+contractCols+` FROM contracts WHERE contract_id=$1 FOR UPDATE`, contractID)
	c, err := scanContract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, contractID)
	}
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidTransition, c.Status)
	}
	switch userID {
	case c.ClientID:
		if c.ClientSignedAt == nil {
			c.ClientSignedAt = &at
		}
	case c.ProviderID:
		if c.ProviderSignedAt == nil {
			c.ProviderSignedAt = &at
		}
	default:
		return nil, fmt.Errorf("%w: user %s is not a party to contract %s", domain.ErrUnauthorized, userID, contractID)
	}
	if domain.Quorum(c) && c.Status == domain.StatusPendingSignature {
		c.Status = domain.StatusActive
		c.StartDate = &at
	}
	c.UpdatedAt = at
	_, err = tx.Exec(ctx, `
UPDATE contracts SET client_signed_at=$2, provider_signed_at=$3, status=$4, start_date=$5, updated_at=$6
WHERE contract_id=$1
`, contractID, c.ClientSignedAt, c.ProviderSignedAt, string(c.Status), c.StartDate, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Postgres) UpdateContractStatus(ctx context.Context, id string, from, to domain.ContractStatus, endDate *time.Time) (*domain.Contract, error) {
	row := s.DB.QueryRow(ctx, `
UPDATE contracts SET status=$3, actual_end_date=COALESCE($4, actual_end_date), updated_at=now()
WHERE contract_id=$1 AND status=$2
RETURNING `+contractCols, id, string(from), string(to), endDate)
	c, err := scanContract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or a concurrent transition won.
		var current string
		err := s.DB.QueryRow(ctx, `SELECT status FROM contracts WHERE contract_id=$1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: contract %s", domain.ErrNotFound, id)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: contract moved to %s", domain.ErrInvalidTransition, current)
	}
	return c, err
}

func (s *Postgres) SubmitDeliverable(ctx context.Context, id string, fileURLs []string, description string, at time.Time) (*domain.Deliverable, error) {
	if fileURLs == nil {
		fileURLs = []string{}
	}
	row := s.DB.QueryRow(ctx, `
UPDATE deliverables SET status=$2, file_urls=$3,
  description=CASE WHEN $4 <> '' THEN $4 ELSE description END,
  submitted_at=$5, updated_at=$5
WHERE deliverable_id=$1 AND status=$6
RETURNING `+deliverableCols,
		id, string(domain.DeliverableSubmitted), fileURLs, description, at, string(domain.DeliverablePending))
	d, err := scanDeliverable(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.deliverableConflict(ctx, id)
	}
	return d, err
}

func (s *Postgres) ReviewDeliverable(ctx context.Context, id string, status domain.DeliverableStatus, feedback string, at time.Time) (*domain.Deliverable, error) {
	row := s.DB.QueryRow(ctx, `
UPDATE deliverables SET status=$2, feedback=$3, reviewed_at=$4, updated_at=$4
WHERE deliverable_id=$1 AND status=$5
RETURNING `+deliverableCols,
		id, string(status), feedback, at, string(domain.DeliverableSubmitted))
	d, err := scanDeliverable(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.deliverableConflict(ctx, id)
	}
	return d, err
}

func (s *Postgres) deliverableConflict(ctx context.Context, id string) error {
	var current string
	err := s.DB.QueryRow(ctx, `SELECT status FROM deliverables WHERE deliverable_id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: deliverable %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: deliverable is %s", domain.ErrInvalidTransition, current)
}

func termsArg(c *domain.Contract) any {
	if len(c.Terms) == 0 {
		return nil
	}
	return string(c.Terms)
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var c domain.Contract
	var terms []byte
	var status string
	err := row.Scan(&c.ID, &c.MissionID, &c.BidID, &c.ClientID, &c.ProviderID, &terms, &status,
		&c.ClientSignedAt, &c.ProviderSignedAt, &c.StartDate, &c.ActualEndDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Terms = terms
	c.Status = domain.ContractStatus(status)
	return &c, nil
}

func scanDeliverable(row pgx.Row) (*domain.Deliverable, error) {
	var d domain.Deliverable
	var status string
	var description, feedback *string
	err := row.Scan(&d.ID, &d.ContractID, &d.Title, &description, &status, &d.FileURLs,
		&d.SubmittedAt, &d.ReviewedAt, &feedback, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		d.Description = *description
	}
	if feedback != nil {
		d.Feedback = *feedback
	}
	d.Status = domain.DeliverableStatus(status)
	return &d, nil
}
