package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	require.Equal(t, 10, NormalizeLimit(10))
	require.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 42, time.UTC), ID: uuid.New()}

	decoded, err := ParseCursor(EncodeCursor(cursor))
	require.NoError(t, err)
	require.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	require.Equal(t, cursor.ID, decoded.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	require.Error(t, err)
}

type row struct {
	id        uuid.UUID
	createdAt time.Time
}

func TestBuildPageTrimsBufferRow(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []row{
		{uuid.New(), base.Add(3 * time.Minute)},
		{uuid.New(), base.Add(2 * time.Minute)},
		{uuid.New(), base.Add(time.Minute)},
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.createdAt, ID: r.id} }

	page := BuildPage(rows, 2, cursorOf)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, rows[1].id, next.ID)

	last := BuildPage(rows[2:], 2, cursorOf)
	require.Len(t, last.Items, 1)
	require.Empty(t, last.NextCursor)

	none := BuildPage[row](nil, 2, cursorOf)
	require.NotNil(t, none.Items)
}
