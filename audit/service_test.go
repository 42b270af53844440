package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unrealsaint/lucera2missionparser/model"
	"github.com/unrealsaint/lucera2missionparser/testutil"
	"go.uber.org/zap"
)

func TestLog_FlushedOnStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	id := 17
	svc.Log(Entry{
		TraceID:  "trace-123",
		Editor:   "saint",
		Action:   "reward.upsert",
		RewardID: &id,
		Request:  map[string]string{"name": "Daily"},
		IP:       "127.0.0.1",
		Duration: 42 * time.Millisecond,
	})
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "saint", logs[0].Editor)
	assert.Equal(t, "reward.upsert", logs[0].Action)
	require.NotNil(t, logs[0].RewardID)
	assert.Equal(t, 17, *logs[0].RewardID)
	assert.JSONEq(t, `{"name":"Daily"}`, string(logs[0].Request))
	assert.Equal(t, 42, logs[0].DurationMs)
	assert.Empty(t, logs[0].Error)
}

func TestLog_RecordsError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	svc.Log(Entry{Action: "catalog.load", Err: errors.New("malformed record")})
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "malformed record", logs[0].Error)
	assert.Nil(t, logs[0].RewardID)
}

func TestLog_ManyEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	for i := 0; i < 250; i++ {
		svc.Log(Entry{Action: "reward.delete"})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(250), count)
}

func TestStop_Idempotent(t *testing.T) {
	svc := New(testutil.SetupTestDB(t), zap.NewNop())
	svc.Stop(context.Background())
	assert.NotPanics(t, func() { svc.Stop(context.Background()) })
}

func TestNilService(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.Log(Entry{Action: "x"})
		svc.Stop(context.Background())
	})
}
