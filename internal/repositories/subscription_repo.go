package repositories

import (
	"context"
	"time"

	"flixstream/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repository needs. It is also
// satisfied by pgxmock.PgxPoolIface in tests.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context) ([]*models.Subscription, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByPlan(ctx context.Context) (map[string]int, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, full_name, email, phone, contact_method, plan_id, plan_name, plan_price, plan_duration, status, created_at, expires_at, iptv_username, iptv_password, iptv_url`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.Phone, &s.ContactMethod, &s.PlanID, &s.PlanName, &s.PlanPrice, &s.PlanDuration, &s.Status, &s.CreatedAt, &s.ExpiresAt, &s.IPTVUsername, &s.IPTVPassword, &s.IPTVURL)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, full_name, email, phone, contact_method, plan_id, plan_name, plan_price, plan_duration, status, created_at, expires_at, iptv_username, iptv_password, iptv_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query, subscription.ID, subscription.FullName, subscription.Email, subscription.Phone, subscription.ContactMethod, subscription.PlanID, subscription.PlanName, subscription.PlanPrice, subscription.PlanDuration, subscription.Status, subscription.CreatedAt, subscription.ExpiresAt, subscription.IPTVUsername, subscription.IPTVPassword, subscription.IPTVURL)
	return err
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

func (r *subscriptionRepo) List(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

func (r *subscriptionRepo) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at ASC
	`
	rows, err := r.db.Query(ctx, query, models.StatusActive, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// Update replaces all mutable fields of the subscription row. The row is
// locked inside a transaction so concurrent renewals of the same id cannot
// interleave partial writes; on any failure the prior state is kept.
func (r *subscriptionRepo) Update(ctx context.Context, subscription *models.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM subscriptions WHERE id = $1 FOR UPDATE`, subscription.ID).Scan(&locked)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}

	query := `
		UPDATE subscriptions
		SET full_name = $1, email = $2, phone = $3, contact_method = $4, plan_id = $5, plan_name = $6, plan_price = $7, plan_duration = $8, status = $9, expires_at = $10, iptv_username = $11, iptv_password = $12, iptv_url = $13
		WHERE id = $14
	`
	_, err = tx.Exec(ctx, query, subscription.FullName, subscription.Email, subscription.Phone, subscription.ContactMethod, subscription.PlanID, subscription.PlanName, subscription.PlanPrice, subscription.PlanDuration, subscription.Status, subscription.ExpiresAt, subscription.IPTVUsername, subscription.IPTVPassword, subscription.IPTVURL, subscription.ID)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM subscriptions GROUP BY status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *subscriptionRepo) CountByPlan(ctx context.Context) (map[string]int, error) {
	query := `SELECT plan_name, COUNT(*) FROM subscriptions GROUP BY plan_name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var planName string
		var count int
		if err := rows.Scan(&planName, &count); err != nil {
			return nil, err
		}
		counts[planName] = count
	}
	return counts, rows.Err()
}

// MarkExpired flips active subscriptions whose expiry has passed to expired
// and reports how many rows changed.
func (r *subscriptionRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = $1
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3
	`
	tag, err := r.db.Exec(ctx, query, models.StatusExpired, models.StatusActive, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	var subscriptions []*models.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, s)
	}
	return subscriptions, rows.Err()
}
