package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

func TestQueryLoggerReportsOnlySlowOrFailed(t *testing.T) {
	buf := &bytes.Buffer{}
	q := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: buf}), 100*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT * FROM shifts", 3 }
	ctx := context.Background()

	q.Trace(ctx, time.Now(), stmt, nil)
	q.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len(), "fast and not-found queries stay quiet")

	q.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), `"db.query_slow"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT * FROM shifts"`)

	buf.Reset()
	q.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), `"db.query_failed"`)

	buf.Reset()
	q.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), stmt, errors.New("x"))
	assert.Zero(t, buf.Len(), "silent mode suppresses everything")
}

func TestQueryLoggerWithoutLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil, time.Second))
	assert.True(t, strings.HasPrefix(sqliteDSN(""), "file:venueops.db?"))
}
