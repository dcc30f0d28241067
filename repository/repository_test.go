package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	testingutil "github.com/Mashyrano/Pos-performance-Tracker/testing"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := testingutil.NewMockDB()
	require.NoError(t, err)
	return db, mock
}

func TestClientRepositorySQL(t *testing.T) {
	ctx := context.Background()

	t.Run("ByGroup", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewClientRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE group_name = \$1 ORDER BY id ASC`).
			WithArgs("G1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "terminal_id", "group_name", "branch"}).
				AddRow(1, "SBM001", "G1", "A").
				AddRow(2, "FCM002", "G1", "A"))

		clients, err := repo.ByGroup(ctx, "G1")
		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, "FCM002", clients[1].TerminalID)
		assert.Equal(t, "G1", clients[1].Group)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListGroups", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewClientRepository(db)

		mock.ExpectQuery(`SELECT DISTINCT "group_name" FROM "clients" ORDER BY group_name ASC`).
			WillReturnRows(sqlmock.NewRows([]string{"group_name"}).AddRow("G1").AddRow("G2"))

		groups, err := repo.ListGroups(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"G1", "G2"}, groups)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteRestrictedByTransactions", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewClientRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "clients" WHERE id = \$1`).
			WithArgs(1).
			WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})
		mock.ExpectRollback()

		_, err := repo.DeleteByID(ctx, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SaveDuplicateTerminal", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewClientRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "clients"`).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
		mock.ExpectRollback()

		err := repo.Save(ctx, testingutil.NewClient("SBM001", "G1", "A"))
		require.Error(t, err)
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateUnknownClient", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewClientRepository(db)

		client := testingutil.NewClient("SBM001", "G1", "A")
		client.ID = 7

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "clients" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Update(ctx, client)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepositorySQL(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("UpsertOverwritesVolumeAndValue", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewTransactionRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "transactions" .* ON CONFLICT \("terminal_id","date"\) DO UPDATE SET "volume"="excluded"."volume","value"="excluded"."value"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectCommit()

		err := repo.UpsertBatch(ctx, []*models.Transaction{
			{TerminalID: "SBM001", Date: day, Volume: 2, Value: 100},
			{TerminalID: "FCM002", Date: day, Volume: 1, Value: 50},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyUpsertIsNoop", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewTransactionRepository(db)

		require.NoError(t, repo.UpsertBatch(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GroupAndDateFilter", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewTransactionRepository(db)

		group := "G1"
		to := day.AddDate(0, 0, 1)
		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE terminal_id IN \(SELECT "?terminal_id"? FROM "clients" WHERE group_name = \$1\) AND date >= \$2 AND date < \$3 ORDER BY date ASC, id ASC`).
			WithArgs("G1", day, to).
			WillReturnRows(sqlmock.NewRows([]string{"id", "terminal_id", "date", "volume", "value"}).
				AddRow(1, "SBM001", day, 2, 100.0))

		txs, err := repo.ByFilter(ctx, models.TransactionFilter{Group: &group, DateFrom: &day, DateTo: &to}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, int64(2), txs[0].Volume)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteAll", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewTransactionRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "transactions"`).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		deleted, err := repo.DeleteByFilter(ctx, models.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("WithTransactionRollsBack", func(t *testing.T) {
		db, mock := newMock(t)
		repo := repository.NewTransactionRepository(db)
		transactor := repository.NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "transactions" WHERE terminal_id = \$1`).
			WithArgs("SBM001").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		terminal := "SBM001"
		err := transactor.WithTransaction(ctx, func(txCtx context.Context) error {
			if _, err := repo.DeleteByFilter(txCtx, models.TransactionFilter{TerminalID: &terminal}); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	if !testingutil.LiveDBAvailable() {
		t.Skip("TEST_DB_HOST not set")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)
		clients := repository.NewClientRepository(testDB.DB)
		txs := repository.NewTransactionRepository(testDB.DB)
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		_, err := fixtures.CreateTestClient("T1", "G1", "A")
		require.NoError(t, err)

		err = clients.Save(ctx, testingutil.NewClient("T1", "G2", "B"))
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

		require.NoError(t, txs.UpsertBatch(ctx, []*models.Transaction{{TerminalID: "T1", Date: day, Volume: 5, Value: 10}}))
		require.NoError(t, txs.UpsertBatch(ctx, []*models.Transaction{{TerminalID: "T1", Date: day, Volume: 9, Value: 20}}))

		terminal := "T1"
		rows, err := txs.ByFilter(ctx, models.TransactionFilter{TerminalID: &terminal}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(9), rows[0].Volume)
		assert.Equal(t, 20.0, rows[0].Value)

		err = txs.UpsertBatch(ctx, []*models.Transaction{{TerminalID: "GHOST", Date: day, Volume: 1, Value: 1}})
		assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

		client, err := clients.ByTerminalID(ctx, "T1")
		require.NoError(t, err)
		_, err = clients.DeleteByID(ctx, client.ID)
		assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

		client.TerminalID = "T1-renamed"
		require.NoError(t, clients.Update(ctx, client))
		renamed := "T1-renamed"
		rows, err = txs.ByFilter(ctx, models.TransactionFilter{TerminalID: &renamed}, "", 0, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		groups, err := clients.ListGroups(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"G1"}, groups)
		return nil
	})
	require.NoError(t, err)
}
