package repositories_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/database"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/repositories"
	"qc-tracker/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(name string) *models.Task {
	return &models.Task{
		ID:          models.NewID(),
		Name:        name,
		Description: "colour grade check",
		Priority:    models.PriorityMedium,
		AssignedTo:  "QC Team",
		Status:      models.WorkStatusPending,
		QCStatus:    models.QCStatusPending,
		Attachments: []string{},
	}
}

func runStoreContract(t *testing.T, store repositories.Store) {
	ctx := context.Background()

	t.Run("task lifecycle", func(t *testing.T) {
		task := newTask("Trailer Cut")
		require.NoError(t, store.Tasks().Create(ctx, task))

		found, err := store.Tasks().FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trailer Cut", found.Name)
		assert.Equal(t, models.QCStatusPending, found.QCStatus)
		assert.Equal(t, []string{}, found.Attachments)

		approved := models.QCStatusApproved
		remarks := "looks good"
		updated, err := store.Tasks().UpdateStatus(ctx, task.ID, models.TaskStatusUpdate{QCStatus: &approved, QCRemarks: &remarks})
		require.NoError(t, err)
		assert.Equal(t, models.QCStatusApproved, updated.QCStatus)
		assert.Equal(t, models.WorkStatusPending, updated.Status)
		assert.Equal(t, "looks good", updated.QCRemarks)

		require.NoError(t, store.Tasks().Delete(ctx, task.ID))
		_, err = store.Tasks().FindByID(ctx, task.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("update unknown task", func(t *testing.T) {
		status := models.WorkStatusCompleted
		_, err := store.Tasks().UpdateStatus(ctx, models.NewID(), models.TaskStatusUpdate{Status: &status})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("delete unknown task", func(t *testing.T) {
		err := store.Tasks().Delete(ctx, models.NewID())
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("find by ids", func(t *testing.T) {
		a, b := newTask("Alpha"), newTask("Beta")
		require.NoError(t, store.Tasks().Create(ctx, a))
		require.NoError(t, store.Tasks().Create(ctx, b))

		found, err := store.Tasks().FindByIDs(ctx, []string{a.ID, b.ID, models.NewID()})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, "Beta", found[b.ID].Name)
	})

	t.Run("reports sorted newest first", func(t *testing.T) {
		task := newTask("Sorted")
		require.NoError(t, store.Tasks().Create(ctx, task))

		base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		for i, status := range []models.ReportStatus{models.ReportStatusPending, models.ReportStatusApproved, models.ReportStatusApproved} {
			require.NoError(t, store.Reports().Create(ctx, &models.Report{
				ID:            models.NewID(),
				TaskID:        task.ID,
				QCRemarks:     "pass",
				Status:        status,
				GeneratedDate: base.Add(time.Duration(i) * time.Hour),
			}))
		}

		reports, err := store.Reports().FindByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.True(t, reports[0].GeneratedDate.After(reports[1].GeneratedDate))
		assert.True(t, reports[1].GeneratedDate.After(reports[2].GeneratedDate))

		count, err := store.Reports().CountByTaskAndStatus(ctx, task.ID, models.ReportStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		all, err := store.Reports().List(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].GeneratedDate.After(all[i-1].GeneratedDate))
		}

		_, err = store.Reports().FindByID(ctx, models.NewID())
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("feedback crud", func(t *testing.T) {
		fb := &models.Feedback{ID: models.NewID(), TaskID: models.NewID(), QCRemarks: "fix audio", EditorID: "editor-1", Timestamp: time.Now().UTC()}
		require.NoError(t, store.Feedback().Create(ctx, fb))

		list, err := store.Feedback().FindByTask(ctx, fb.TaskID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		updated, err := store.Feedback().Update(ctx, fb.ID, "fix audio levels", "editor-2")
		require.NoError(t, err)
		assert.Equal(t, "fix audio levels", updated.QCRemarks)
		assert.Equal(t, "editor-2", updated.EditorID)

		require.NoError(t, store.Feedback().Delete(ctx, fb.ID))
		assert.True(t, errors.Is(store.Feedback().Delete(ctx, fb.ID), apperrors.ErrNotFound))

		_, err = store.Feedback().Update(ctx, fb.ID, "x", "y")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("users unique by email", func(t *testing.T) {
		email := models.NewID() + "@example.com"
		user := &models.User{ID: models.NewID(), Name: "Nimal", Email: email, PasswordHash: "hash", Role: models.RoleQC}
		require.NoError(t, store.Users().Create(ctx, user))

		found, err := store.Users().FindByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "hash", found.PasswordHash)

		dup := &models.User{ID: models.NewID(), Name: "Other", Email: email, PasswordHash: "hash", Role: models.RoleEditor}
		assert.True(t, errors.Is(store.Users().Create(ctx, dup), apperrors.ErrDuplicate))

		_, err = store.Users().FindByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("concurrent updates are last write wins", func(t *testing.T) {
		task := newTask("Race")
		require.NoError(t, store.Tasks().Create(ctx, task))

		var wg sync.WaitGroup
		for _, s := range []models.WorkStatus{models.WorkStatusInProgress, models.WorkStatusCompleted} {
			wg.Add(1)
			go func(status models.WorkStatus) {
				defer wg.Done()
				_, err := store.Tasks().UpdateStatus(ctx, task.ID, models.TaskStatusUpdate{Status: &status})
				assert.NoError(t, err)
			}(s)
		}
		wg.Wait()

		found, err := store.Tasks().FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Contains(t, []models.WorkStatus{models.WorkStatusInProgress, models.WorkStatusCompleted}, found.Status)
	})
}

func TestGormStore(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	assert.Equal(t, "sqlite", store.Name())
	require.NoError(t, store.Ping(context.Background()))

	runStoreContract(t, store)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("QC_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("QC_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	conn, err := database.ConnectMongo(ctx, database.MongoConfig{URI: uri, Database: "qc_test_" + models.NewID()})
	require.NoError(t, err)
	defer func() {
		_ = conn.Database.Drop(ctx)
		_ = conn.Close(ctx)
	}()

	store := repositories.NewMongoStore(conn)
	require.NoError(t, store.EnsureIndexes(ctx))

	runStoreContract(t, store)

	_, err = store.Tasks().FindByID(ctx, "not-an-id")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidID))
}
