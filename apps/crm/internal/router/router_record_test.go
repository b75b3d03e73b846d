package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"PipelineCRM/apps/crm/internal/notify"
	v1 "PipelineCRM/apps/crm/internal/router/v1"
	"PipelineCRM/apps/crm/internal/service"
	"PipelineCRM/config"
	"PipelineCRM/consts"
	"PipelineCRM/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRouterSoftDeleteService struct {
	softDeleteManyFn func(context.Context, []service.RecordRef) (*service.SoftDeleteGroup, error)
	undoGroupFn      func(context.Context, string) bool
	finalizeGroupFn  func(context.Context, string) bool
	groupsFn         func() []*service.SoftDeleteGroup
}

var _ service.SoftDeleteService = (*fakeRouterSoftDeleteService)(nil)

func (f *fakeRouterSoftDeleteService) SoftDeleteSingle(ctx context.Context, store, id string) (*service.SoftDeleteGroup, error) {
	return f.SoftDeleteMany(ctx, []service.RecordRef{{Store: store, Id: id}})
}

func (f *fakeRouterSoftDeleteService) SoftDeleteMany(ctx context.Context, refs []service.RecordRef) (*service.SoftDeleteGroup, error) {
	if f.softDeleteManyFn == nil {
		return nil, nil
	}
	return f.softDeleteManyFn(ctx, refs)
}

func (f *fakeRouterSoftDeleteService) UndoGroup(ctx context.Context, groupId string) bool {
	if f.undoGroupFn == nil {
		return false
	}
	return f.undoGroupFn(ctx, groupId)
}

func (f *fakeRouterSoftDeleteService) FinalizeGroup(ctx context.Context, groupId string) bool {
	if f.finalizeGroupFn == nil {
		return false
	}
	return f.finalizeGroupFn(ctx, groupId)
}

func (f *fakeRouterSoftDeleteService) Bootstrap(ctx context.Context) error { return nil }

func (f *fakeRouterSoftDeleteService) Groups() []*service.SoftDeleteGroup {
	if f.groupsFn == nil {
		return nil
	}
	return f.groupsFn()
}

func (f *fakeRouterSoftDeleteService) TTL() time.Duration { return 15 * time.Second }

func (f *fakeRouterSoftDeleteService) Shutdown() {}

var routerRecordLoggerOnce sync.Once

func initRouterRecordTestLogger() {
	routerRecordLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		gin.SetMode(gin.TestMode)
	})
}

func buildRecordTestRouter(softSvc service.SoftDeleteService) *gin.Engine {
	relationshipHandler := v1.NewRelationshipHandler(&fakeRouterRelationshipService{})
	recordHandler := v1.NewRecordHandler(softSvc)
	selectionHandler := v1.NewSelectionHandler(&fakeRouterSelectionService{})
	wsHandler := notify.NewWSHandler(notify.NewConnectionManager())
	return InitRouter(config.DefaultServerConfig(), relationshipHandler, recordHandler, selectionHandler, wsHandler)
}

func TestRouterRecordDelete(t *testing.T) {
	initRouterRecordTestLogger()

	r := buildRecordTestRouter(&fakeRouterSoftDeleteService{
		softDeleteManyFn: func(_ context.Context, refs []service.RecordRef) (*service.SoftDeleteGroup, error) {
			require.Len(t, refs, 1)
			require.Equal(t, "contacts", refs[0].Store)
			require.Equal(t, "c1", refs[0].Id)
			return &service.SoftDeleteGroup{
				Id:        "g0",
				Records:   []service.GroupRecord{{Store: "contacts", Id: "c1"}},
				PendingAt: 1000,
				ExpiresAt: 16000,
			}, nil
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/record/delete",
		`{"store":"contacts","id":"c1"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		GroupId string   `json:"groupId"`
		Ids     []string `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "g0", data.GroupId)
	assert.Equal(t, []string{"c1"}, data.Ids)
}

func TestRouterRecordDeleteMany(t *testing.T) {
	initRouterRecordTestLogger()

	r := buildRecordTestRouter(&fakeRouterSoftDeleteService{
		softDeleteManyFn: func(_ context.Context, refs []service.RecordRef) (*service.SoftDeleteGroup, error) {
			require.Len(t, refs, 2)
			require.Equal(t, "contacts", refs[0].Store)
			return &service.SoftDeleteGroup{
				Id: "g1",
				Records: []service.GroupRecord{
					{Store: "contacts", Id: "c1"},
					{Store: "contacts", Id: "c2"},
				},
				PendingAt: 1000,
				ExpiresAt: 16000,
			}, nil
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/record/delete-many",
		`{"records":[{"store":"contacts","id":"c1"},{"store":"contacts","id":"c2"}]}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		GroupId   string   `json:"groupId"`
		Ids       []string `json:"ids"`
		ExpiresAt int64    `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "g1", data.GroupId)
	assert.Equal(t, []string{"c1", "c2"}, data.Ids)
	assert.Equal(t, int64(16000), data.ExpiresAt)
}

func TestRouterRecordDeleteNothing(t *testing.T) {
	initRouterRecordTestLogger()

	// 所有记录都被跳过时返回空组，不是错误
	r := buildRecordTestRouter(&fakeRouterSoftDeleteService{})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/record/delete-many",
		`{"records":[{"store":"contacts","id":"missing"}]}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		GroupId string   `json:"groupId"`
		Ids     []string `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Empty(t, data.GroupId)
	assert.Empty(t, data.Ids)
}

func TestRouterRecordUndo(t *testing.T) {
	initRouterRecordTestLogger()

	r := buildRecordTestRouter(&fakeRouterSoftDeleteService{
		undoGroupFn: func(_ context.Context, groupId string) bool {
			return groupId == "g1"
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/record/undo", `{"groupId":"g1"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		Restored bool `json:"restored"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.True(t, data.Restored)

	// 未知组：restored=false，依然是成功响应
	req = newRouterJSONRequest(t, http.MethodPost, "/api/v1/record/undo", `{"groupId":"gone"}`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body = decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.False(t, data.Restored)
}

func TestRouterRecordGroups(t *testing.T) {
	initRouterRecordTestLogger()

	r := buildRecordTestRouter(&fakeRouterSoftDeleteService{
		groupsFn: func() []*service.SoftDeleteGroup {
			return []*service.SoftDeleteGroup{
				{
					Id:        "g1",
					Records:   []service.GroupRecord{{Store: "contacts", Id: "c1"}},
					PendingAt: 1000,
					ExpiresAt: 16000,
				},
			}
		},
	})

	req := newRouterJSONRequest(t, http.MethodGet, "/api/v1/record/groups", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		Groups []struct {
			Id    string   `json:"id"`
			Ids   []string `json:"ids"`
			Store string   `json:"store"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.Len(t, data.Groups, 1)
	assert.Equal(t, "g1", data.Groups[0].Id)
	assert.Equal(t, []string{"c1"}, data.Groups[0].Ids)
	assert.Equal(t, "contacts", data.Groups[0].Store)
}
