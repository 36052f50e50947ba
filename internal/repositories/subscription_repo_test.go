package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"flixstream/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SubscriptionRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    SubscriptionRepository
	subID   uuid.UUID
	context context.Context
}

func (suite *SubscriptionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewSubscriptionRepo(mock)
	suite.subID = uuid.New()
	suite.context = context.Background()
}

func (suite *SubscriptionRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestSubscriptionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionRepoTestSuite))
}

func stringPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func (suite *SubscriptionRepoTestSuite) sampleSubscription() *models.Subscription {
	expires := time.Now().Add(180 * 24 * time.Hour).UTC().Truncate(time.Second)
	return &models.Subscription{
		ID:            suite.subID,
		FullName:      "Jordan Blake",
		Email:         "jordan@example.com",
		Phone:         "+33612345678",
		ContactMethod: models.ContactWhatsApp,
		PlanID:        "6months",
		PlanName:      "6 Months",
		PlanPrice:     "39.99",
		PlanDuration:  "6 months",
		Status:        models.StatusActive,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		ExpiresAt:     timePtr(expires),
		IPTVUsername:  stringPtr("user_abc123"),
		IPTVPassword:  stringPtr("s3cr3tpass"),
		IPTVURL:       stringPtr("http://stream.example.com:8080"),
	}
}

func subscriptionRows(subs ...*models.Subscription) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "full_name", "email", "phone", "contact_method",
		"plan_id", "plan_name", "plan_price", "plan_duration",
		"status", "created_at", "expires_at",
		"iptv_username", "iptv_password", "iptv_url",
	})
	for _, s := range subs {
		rows.AddRow(s.ID, s.FullName, s.Email, s.Phone, s.ContactMethod,
			s.PlanID, s.PlanName, s.PlanPrice, s.PlanDuration,
			s.Status, s.CreatedAt, s.ExpiresAt,
			s.IPTVUsername, s.IPTVPassword, s.IPTVURL)
	}
	return rows
}

func (suite *SubscriptionRepoTestSuite) TestCreate_Success() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(sub.ID, sub.FullName, sub.Email, sub.Phone, sub.ContactMethod,
			sub.PlanID, sub.PlanName, sub.PlanPrice, sub.PlanDuration,
			sub.Status, sub.CreatedAt, sub.ExpiresAt,
			sub.IPTVUsername, sub.IPTVPassword, sub.IPTVURL).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, sub)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestCreate_Failure() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(sub.ID, sub.FullName, sub.Email, sub.Phone, sub.ContactMethod,
			sub.PlanID, sub.PlanName, sub.PlanPrice, sub.PlanDuration,
			sub.Status, sub.CreatedAt, sub.ExpiresAt,
			sub.IPTVUsername, sub.IPTVPassword, sub.IPTVURL).
		WillReturnError(errors.New("connection reset"))

	err := suite.repo.Create(suite.context, sub)
	assert.Error(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestGetByID_Success() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectQuery(`(?s)SELECT (.+) FROM subscriptions`).
		WithArgs(sub.ID).
		WillReturnRows(subscriptionRows(sub))

	got, err := suite.repo.GetByID(suite.context, sub.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), sub.ID, got.ID)
	assert.Equal(suite.T(), sub.Email, got.Email)
	assert.Equal(suite.T(), sub.Status, got.Status)
	assert.Equal(suite.T(), *sub.IPTVUsername, *got.IPTVUsername)
}

func (suite *SubscriptionRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`(?s)SELECT (.+) FROM subscriptions`).
		WithArgs(suite.subID).
		WillReturnError(pgx.ErrNoRows)

	got, err := suite.repo.GetByID(suite.context, suite.subID)
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *SubscriptionRepoTestSuite) TestList_OrderedByCreation() {
	first := suite.sampleSubscription()
	second := suite.sampleSubscription()
	second.ID = uuid.New()
	second.Email = "casey@example.com"

	suite.mock.ExpectQuery(`(?s)SELECT (.+) FROM subscriptions`).
		WillReturnRows(subscriptionRows(second, first))

	got, err := suite.repo.List(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), got, 2)
	assert.Equal(suite.T(), second.ID, got[0].ID)
	assert.Equal(suite.T(), first.ID, got[1].ID)
}

func (suite *SubscriptionRepoTestSuite) TestListExpiringBefore() {
	sub := suite.sampleSubscription()
	cutoff := time.Now().Add(30 * 24 * time.Hour)

	suite.mock.ExpectQuery(`(?s)SELECT (.+) FROM subscriptions`).
		WithArgs(models.StatusActive, cutoff).
		WillReturnRows(subscriptionRows(sub))

	got, err := suite.repo.ListExpiringBefore(suite.context, cutoff)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), got, 1)
	assert.Equal(suite.T(), sub.ID, got[0].ID)
}

func (suite *SubscriptionRepoTestSuite) TestListExpiringBefore_Empty() {
	cutoff := time.Now()

	suite.mock.ExpectQuery(`(?s)SELECT (.+) FROM subscriptions`).
		WithArgs(models.StatusActive, cutoff).
		WillReturnRows(subscriptionRows())

	got, err := suite.repo.ListExpiringBefore(suite.context, cutoff)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), got)
}

func (suite *SubscriptionRepoTestSuite) TestUpdate_CommitsInTransaction() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id FROM subscriptions WHERE id = \$1 FOR UPDATE`).
		WithArgs(sub.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(sub.ID))
	suite.mock.ExpectExec(`UPDATE subscriptions`).
		WithArgs(sub.FullName, sub.Email, sub.Phone, sub.ContactMethod,
			sub.PlanID, sub.PlanName, sub.PlanPrice, sub.PlanDuration,
			sub.Status, sub.ExpiresAt,
			sub.IPTVUsername, sub.IPTVPassword, sub.IPTVURL, sub.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Update(suite.context, sub)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestUpdate_MissingRowRollsBack() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id FROM subscriptions WHERE id = \$1 FOR UPDATE`).
		WithArgs(sub.ID).
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectRollback()

	err := suite.repo.Update(suite.context, sub)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *SubscriptionRepoTestSuite) TestUpdate_WriteFailureRollsBack() {
	sub := suite.sampleSubscription()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id FROM subscriptions WHERE id = \$1 FOR UPDATE`).
		WithArgs(sub.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(sub.ID))
	suite.mock.ExpectExec(`UPDATE subscriptions`).
		WithArgs(sub.FullName, sub.Email, sub.Phone, sub.ContactMethod,
			sub.PlanID, sub.PlanName, sub.PlanPrice, sub.PlanDuration,
			sub.Status, sub.ExpiresAt,
			sub.IPTVUsername, sub.IPTVPassword, sub.IPTVURL, sub.ID).
		WillReturnError(errors.New("disk full"))
	suite.mock.ExpectRollback()

	err := suite.repo.Update(suite.context, sub)
	assert.Error(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestCountByStatus() {
	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM subscriptions GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(models.StatusActive, 4).
			AddRow(models.StatusExpired, 2))

	counts, err := suite.repo.CountByStatus(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, counts[models.StatusActive])
	assert.Equal(suite.T(), 2, counts[models.StatusExpired])
	assert.Equal(suite.T(), 0, counts[models.StatusPending])
}

func (suite *SubscriptionRepoTestSuite) TestCountByPlan() {
	suite.mock.ExpectQuery(`SELECT plan_name, COUNT\(\*\) FROM subscriptions GROUP BY plan_name`).
		WillReturnRows(pgxmock.NewRows([]string{"plan_name", "count"}).
			AddRow("6 Months", 3).
			AddRow("12 Months", 1))

	counts, err := suite.repo.CountByPlan(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, counts["6 Months"])
	assert.Equal(suite.T(), 1, counts["12 Months"])
}

func (suite *SubscriptionRepoTestSuite) TestMarkExpired() {
	now := time.Now()

	suite.mock.ExpectExec(`UPDATE subscriptions`).
		WithArgs(models.StatusExpired, models.StatusActive, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	expired, err := suite.repo.MarkExpired(suite.context, now)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), expired)
}
