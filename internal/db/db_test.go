package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-sourcer/internal/credits"
	"github.com/jonathan/profile-sourcer/internal/types"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestEnsureSchema(t *testing.T) {
	mock, db := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, db.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshot(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    *credits.Snapshot
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT subscription_tier, credits_remaining FROM accounts WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows([]string{"subscription_tier", "credits_remaining"}).
						AddRow("professional", 12.5))
			},
			want: &credits.Snapshot{Tier: types.TierProfessional, CreditsRemaining: 12.5},
		},
		{
			name: "unknown tier is basic",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT subscription_tier`).
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows([]string{"subscription_tier", "credits_remaining"}).
						AddRow("legacy", 0.0))
			},
			want: &credits.Snapshot{Tier: types.TierBasic, CreditsRemaining: 0},
		},
		{
			name: "missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT subscription_tier`).
					WithArgs(id).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: credits.ErrUnknownAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMock(t)
			tt.setup(mock)

			got, err := db.GetSnapshot(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestChargeOneUnit(t *testing.T) {
	id := uuid.New()

	t.Run("charged", func(t *testing.T) {
		mock, db := newMock(t)
		mock.ExpectExec(`UPDATE accounts\s+SET credits_remaining = credits_remaining - \$2.*WHERE id = \$1 AND credits_remaining >= \$2`).
			WithArgs(id, credits.SearchCost).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		n, err := db.ChargeOneUnit(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("balance drained", func(t *testing.T) {
		mock, db := newMock(t)
		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id, credits.SearchCost).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		n, err := db.ChargeOneUnit(context.Background(), id)
		require.NoError(t, err)
		assert.Zero(t, n)

		// The guard turns zero rows into a refusal.
		err = credits.NewGuard(db).Charge(context.Background(), id)
		assert.Error(t, err)
	})

	t.Run("driver error", func(t *testing.T) {
		mock, db := newMock(t)
		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id, credits.SearchCost).
			WillReturnError(errors.New("conn closed"))

		_, err := db.ChargeOneUnit(context.Background(), id)
		assert.ErrorContains(t, err, "conn closed")
	})
}

func TestCreateAccount(t *testing.T) {
	mock, db := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("ana@example.com", "enterprise", 50.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	got, err := db.CreateAccount(context.Background(), "ana@example.com", types.TierEnterprise, 50)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch(t *testing.T) {
	mock, db := newMock(t)
	accountID, recordID := uuid.New(), uuid.New()

	mock.ExpectQuery(`INSERT INTO search_history`).
		WithArgs(accountID, (*uuid.UUID)(nil), "react dev", pgxmock.AnyArg(), 1, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(recordID))

	got, err := db.RecordSearch(context.Background(), &types.SearchRecord{
		AccountID:   accountID,
		Prompt:      "react dev",
		Queries:     map[string]string{"professional-network": "site:linkedin.com/in (\"React\")"},
		ResultCount: 1,
		Results:     []types.Candidate{{Name: "Ana", ProfileURL: "https://www.linkedin.com/in/ana"}},
	})
	require.NoError(t, err)
	assert.Equal(t, recordID, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var historyCols = []string{"id", "account_id", "project_id", "prompt", "queries", "result_count", "results", "created_at"}

func TestListSearches(t *testing.T) {
	mock, db := newMock(t)
	accountID := uuid.New()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	project := uuid.New()

	mock.ExpectQuery(`FROM search_history WHERE account_id = \$1\s+ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(accountID, DefaultHistoryLimit).
		WillReturnRows(pgxmock.NewRows(historyCols).
			AddRow(uuid.New(), accountID, &project, "go dev",
				[]byte(`{"code-hosting":"site:github.com (\"Go\")"}`), 2,
				[]byte(`[{"name":"a","profile_url":"https://github.com/a","snippet":"","source":"github"}]`), created).
			AddRow(uuid.New(), accountID, (*uuid.UUID)(nil), "qa", []byte(`{}`), 0, []byte(`[]`), created))

	records, err := db.ListSearches(context.Background(), accountID, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "go dev", records[0].Prompt)
	assert.Equal(t, &project, records[0].ProjectID)
	assert.Equal(t, `site:github.com ("Go")`, records[0].Queries["code-hosting"])
	require.Len(t, records[0].Results, 1)
	assert.Equal(t, "https://github.com/a", records[0].Results[0].ProfileURL)
	assert.Nil(t, records[1].ProjectID)
	assert.Empty(t, records[1].Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSearch_NotFound(t *testing.T) {
	mock, db := newMock(t)
	accountID, id := uuid.New(), uuid.New()
	mock.ExpectQuery(`FROM search_history WHERE id = \$1 AND account_id = \$2`).
		WithArgs(id, accountID).
		WillReturnRows(pgxmock.NewRows(historyCols))

	rec, err := db.GetSearch(context.Background(), accountID, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}
