package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:1)/reports?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestTable_Name(t *testing.T) {
	assert.Equal(t, "crypto_report", Table{}.TableName())
}

func TestTable_RoundTripOptionalColumns(t *testing.T) {
	row := tableFrom(NewReport{HTML: "<p/>", JS: "x()"})
	assert.Nil(t, row.CSSContent)
	assert.Nil(t, row.HTMLContentEn)
	require.NotNil(t, row.JSContent)

	r := row.report()
	assert.Equal(t, "<p/>", r.HTML)
	assert.Equal(t, "", r.CSS)
	assert.Equal(t, "x()", r.JS)
}

func TestSQL_InsertStatement(t *testing.T) {
	db := dryRunDB(t)
	row := tableFrom(NewReport{HTML: "<p/>", CSS: "p{}"})
	stmt := db.Session(&gorm.Session{DryRun: true}).Create(&row).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "INSERT INTO `crypto_report`")
	assert.Contains(t, sql, "`html_content`")
	assert.Contains(t, sql, "`created_at`")
	assert.False(t, row.CreatedAt.IsZero())
}

func TestSQL_LatestStatement(t *testing.T) {
	db := dryRunDB(t)
	var row Table
	stmt := db.Session(&gorm.Session{DryRun: true}).Order("created_at DESC").Order("id DESC").First(&row).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY created_at DESC,id DESC")
}

func TestNewSQL_NilConnection(t *testing.T) {
	_, err := NewSQL(nil)
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	latest, err := m.FindLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	a, _ := m.Insert(ctx, NewReport{HTML: "a"})
	b, _ := m.Insert(ctx, NewReport{HTML: "b", HTMLEn: "b-en"})
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	latest, err = m.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", latest.HTML)
	assert.Equal(t, "b-en", latest.HTMLEn)

	got, err := m.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got.HTML)

	_, err = m.FindByID(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, m.Len())
}
