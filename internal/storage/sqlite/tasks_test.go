package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantcare/internal/models"
)

func seedTaskPlant(t *testing.T, store *Store) time.Time {
	t.Helper()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.CreatePlant(context.Background(), testPlant("alice", "fern", created))
	require.NoError(t, err)
	return created
}

func TestUpsertTasksIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := seedTaskPlant(t, store)

	loc := time.FixedZone("EST", -5*3600)
	keys := []models.TaskKey{
		{OwnerID: "alice", PlantID: "fern", Type: models.ActionWater, ScheduledFor: base.AddDate(0, 0, 7)},
		{OwnerID: "alice", PlantID: "fern", Type: models.ActionWater, ScheduledFor: base.AddDate(0, 0, 14)},
		{OwnerID: "alice", PlantID: "fern", Type: models.ActionFertilize, ScheduledFor: base.AddDate(0, 0, 7)},
	}

	created, err := store.UpsertTasks(ctx, keys)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	// Same instants expressed in another zone still collide.
	again := make([]models.TaskKey, len(keys))
	for i, k := range keys {
		k.ScheduledFor = k.ScheduledFor.In(loc)
		again[i] = k
	}
	created, err = store.UpsertTasks(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	tasks, err := store.ListTasks(ctx, "alice", TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	assert.Equal(t, "fern", tasks[0].PlantName)
}

func TestUpsertTasksPreservesCompletion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := seedTaskPlant(t, store)

	key := models.TaskKey{OwnerID: "alice", PlantID: "fern", Type: models.ActionWater, ScheduledFor: base.AddDate(0, 0, 7)}
	_, err := store.UpsertTasks(ctx, []models.TaskKey{key})
	require.NoError(t, err)

	open, err := store.ListOpenTasks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, open, 1)

	doneAt := base.AddDate(0, 0, 7).Add(2 * time.Hour)
	ok, err := store.CompleteTask(ctx, "alice", open[0].ID, doneAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CompleteTask(ctx, "alice", open[0].ID, doneAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "second completion is a no-op")

	_, err = store.UpsertTasks(ctx, []models.TaskKey{key})
	require.NoError(t, err)

	task, err := store.GetTask(ctx, "alice", open[0].ID)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(doneAt))

	open, err = store.ListOpenTasks(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestUpsertTasksRollsBackBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := seedTaskPlant(t, store)

	_, err := store.UpsertTasks(ctx, []models.TaskKey{
		{OwnerID: "alice", PlantID: "fern", Type: models.ActionWater, ScheduledFor: base},
		{OwnerID: "alice", PlantID: "ghost", Type: models.ActionWater, ScheduledFor: base},
	})
	require.Error(t, err)

	tasks, err := store.ListTasks(ctx, "alice", TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTaskConflict(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := seedTaskPlant(t, store)

	key := models.TaskKey{OwnerID: "alice", PlantID: "fern", Type: "repot", ScheduledFor: base}
	task, err := store.CreateTask(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "repot", task.Type)
	assert.True(t, task.Open())

	_, err = store.CreateTask(ctx, key)
	assert.ErrorIs(t, err, models.ErrConflict)

	key.PlantID = "ghost"
	_, err = store.CreateTask(ctx, key)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.GetTask(ctx, "bob", task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListTasksWindows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := seedTaskPlant(t, store)

	var keys []models.TaskKey
	for i := 0; i < 5; i++ {
		keys = append(keys, models.TaskKey{OwnerID: "alice", PlantID: "fern", Type: models.ActionWater, ScheduledFor: base.AddDate(0, 0, i)})
	}
	_, err := store.UpsertTasks(ctx, keys)
	require.NoError(t, err)

	between, err := store.ListTasksScheduledBetween(ctx, "alice", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.True(t, between[0].ScheduledFor.Equal(base.AddDate(0, 0, 1)))
	assert.True(t, between[1].ScheduledFor.Equal(base.AddDate(0, 0, 2)))

	_, err = store.CompleteTask(ctx, "alice", between[0].ID, base.AddDate(0, 0, 1).Add(time.Hour))
	require.NoError(t, err)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	completed, err := store.ListTasks(ctx, "alice", TaskFilter{CompletedFrom: &from, CompletedBefore: &to})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, between[0].ID, completed[0].ID)

	cutoff := base.AddDate(0, 0, 2)
	early, err := store.ListTasks(ctx, "alice", TaskFilter{OpenOnly: true, Type: models.ActionWater, PlantID: "fern", ScheduledBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, early, 1)
	assert.True(t, early[0].ScheduledFor.Equal(base))
}
