package todo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrator() Migrator {
	now := epoch.Add(time.Hour)
	return Migrator{Now: func() time.Time { return now }, IDs: seqIDs()}
}

func TestDecode_EmptyIsCurrent(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		doc, err := Decode([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, CurrentVersion, doc.Version)
		assert.Empty(t, doc.Todos)
	}
}

func TestDecode_LegacyArray(t *testing.T) {
	doc, err := Decode([]byte(`[{"id":"1700000000000","text":"Buy milk","completed":false}]`))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Version)
	require.Len(t, doc.Todos, 1)
	assert.Equal(t, "Buy milk", doc.Todos[0].Text)
}

func TestDecode_RejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version":99,"todos":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestDecode_MillisecondTimestamps(t *testing.T) {
	doc, err := Decode([]byte(`{"version":2,"todos":[{"id":"a","text":"x","completed":false,"status":"all","createdAt":1714554000000,"priority":"high"}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Todos, 1)
	assert.True(t, doc.Todos[0].CreatedAt.Equal(time.UnixMilli(1714554000000)))
}

func TestMigrate_LegacyFillsDefaults(t *testing.T) {
	doc, err := Decode([]byte(`[
		{"id":"1","text":"open","completed":false},
		{"id":"2","text":"closed","completed":true},
		{"id":"3","text":"sectioned","completed":false,"status":"all"}
	]`))
	require.NoError(t, err)

	m := testMigrator()
	got, changed, err := m.Migrate(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, got, 3)

	assert.Equal(t, StatusAll, got[0].Status)
	assert.Equal(t, StatusDone, got[1].Status, "completed legacy tasks land in done")
	assert.Equal(t, StatusAll, got[2].Status)

	migratedAt := m.Now()
	for _, task := range got {
		assert.Equal(t, PriorityLow, task.Priority)
		assert.True(t, task.CreatedAt.Equal(migratedAt), "records migrated together share the migration time")
		assert.True(t, task.Consistent())
	}
}

func TestMigrate_KeepsPresentFields(t *testing.T) {
	created := epoch.Add(-24 * time.Hour)
	doc := Document{Version: 1, Todos: Collection{
		{ID: "a", Text: "a", Status: StatusAll, CreatedAt: created, Priority: PriorityHigh},
		{ID: "b", Text: "b", Status: StatusAll},
	}}
	got, changed, err := testMigrator().Migrate(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got[0].CreatedAt.Equal(created))
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, PriorityLow, got[1].Priority)
}

func TestMigrate_Idempotent(t *testing.T) {
	doc, err := Decode([]byte(`[{"id":"1","text":"a","completed":true},{"id":"2","text":"b","completed":false}]`))
	require.NoError(t, err)

	m := testMigrator()
	first, changed, err := m.Migrate(doc)
	require.NoError(t, err)
	require.True(t, changed)

	raw, err := Encode(first)
	require.NoError(t, err)
	again, err := Decode(raw)
	require.NoError(t, err)

	later := Migrator{Now: func() time.Time { return epoch.Add(48 * time.Hour) }, IDs: seqIDs()}
	second, changed, err := later.Migrate(again)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, second.Equal(first))
}

func TestMigrate_RepairsCurrentVersionRecords(t *testing.T) {
	doc := Document{Version: CurrentVersion, Todos: Collection{
		{ID: "a", Text: "a", Completed: true, Status: StatusAll, CreatedAt: epoch, Priority: PriorityLow},
		{ID: "a", Text: "dup", Status: StatusAll, CreatedAt: epoch, Priority: "urgent"},
		{ID: "", Text: "blank id", Status: "archived", CreatedAt: epoch, Priority: PriorityMedium},
	}}
	got, changed, err := testMigrator().Migrate(doc)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, StatusDone, got[0].Status)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "t1", got[1].ID)
	assert.Equal(t, PriorityLow, got[1].Priority)
	assert.Equal(t, "t2", got[2].ID)
	assert.Equal(t, StatusAll, got[2].Status)
	assert.Equal(t, []string{"a", "dup", "blank id"}, []string{got[0].Text, got[1].Text, got[2].Text})
}

func TestMigrate_DoesNotModifyInput(t *testing.T) {
	doc := Document{Version: 0, Todos: Collection{{ID: "a", Text: "a"}}}
	_, _, err := testMigrator().Migrate(doc)
	require.NoError(t, err)
	assert.Equal(t, Status(""), doc.Todos[0].Status)
}

func TestEncode_EmptyCollection(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"todos":[]}`, string(raw))
}

func TestEncode_FieldNames(t *testing.T) {
	raw, err := Encode(Collection{{
		ID: "a", Text: "x", Status: StatusAll, Priority: PriorityMedium,
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"todos":[{"id":"a","text":"x","completed":false,"status":"all","createdAt":"2024-05-01T09:00:00Z","priority":"medium"}]}`, string(raw))
}
