package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

type memoryStore struct {
	entries    []Entry
	rows       []TimelineRow
	lastOffset int
	lastLimit  int
	lastMax    int
}

func (m *memoryStore) Insert(_ context.Context, e Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryStore) Window(_ context.Context, _ TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	m.lastOffset, m.lastLimit = offset, limit
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	return m.rows[offset:end], nil
}

func (m *memoryStore) All(_ context.Context, _ TimelineFilters, max int) ([]TimelineRow, error) {
	m.lastMax = max
	return m.rows, nil
}

func seedRows(n int) []TimelineRow {
	rows := make([]TimelineRow, n)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = TimelineRow{At: base.Add(-time.Duration(i) * time.Hour), Action: "edit", Entity: "cbucbo"}
	}
	return rows
}

func TestTimelinePaging(t *testing.T) {
	store := &memoryStore{rows: seedRows(25)}
	svc := NewService(store, nil)

	first, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, first.Rows, 20)
	assert.Equal(t, PagingInfo{Page: 1, PageSize: 20, HasNext: true, NextPage: 2}, first.Paging)
	assert.Equal(t, 21, store.lastLimit)

	second, err := svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, second.Rows, 5)
	assert.Equal(t, PagingInfo{Page: 2, PageSize: 20, PrevPage: 1}, second.Paging)
	assert.Equal(t, 20, store.lastOffset)

	_, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize+1, store.lastLimit)

	empty, err := svc.Timeline(context.Background(), TimelineFilters{Page: 9})
	require.NoError(t, err)
	assert.NotNil(t, empty.Rows)
	assert.Empty(t, empty.Rows)
}

func TestRecordValidates(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, nil)

	assert.Error(t, svc.Record(context.Background(), Entry{Entity: "cbucbo", EntityID: "1"}))
	require.NoError(t, svc.Record(context.Background(), Entry{
		ActorID: "u1", Module: rbac.ModuleHealth, Action: rbac.ActionCreate, Entity: "cbucbo", EntityID: "1",
	}))
	assert.Len(t, store.entries, 1)

	var nilSvc *Service
	assert.Error(t, nilSvc.Record(context.Background(), Entry{}))
}

func TestExportCapsRows(t *testing.T) {
	store := &memoryStore{rows: seedRows(2)}
	rows, err := NewService(store, nil).Export(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, maxExportRows, store.lastMax)
}

func TestWriteCSV(t *testing.T) {
	out, err := WriteCSV([]TimelineRow{{
		At: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), ActorID: "u1", Actor: "ana@example.org",
		Module: "health", Action: "delete", Entity: "cbucbo", EntityID: "5",
	}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "occurred_at,actor_id,actor,module,action,entity,entity_id", lines[0])
	assert.Equal(t, "2025-03-01T10:00:00Z,u1,ana@example.org,health,delete,cbucbo,5", lines[1])
}
