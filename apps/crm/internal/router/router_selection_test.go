package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

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

type fakeRouterSelectionService struct {
	selectFn  func(ids []string, selType, reason string)
	setFn     func(ids []string, selType, reason string)
	clearFn   func(reason string)
	selection []string
	selType   string
}

var _ service.SelectionService = (*fakeRouterSelectionService)(nil)

func (f *fakeRouterSelectionService) Select(ids []string, selType, reason string) {
	if f.selectFn != nil {
		f.selectFn(ids, selType, reason)
	}
}

func (f *fakeRouterSelectionService) Deselect(ids []string, selType, reason string) {}

func (f *fakeRouterSelectionService) Toggle(id string, selType, reason string) {}

func (f *fakeRouterSelectionService) Set(ids []string, selType, reason string) {
	if f.setFn != nil {
		f.setFn(ids, selType, reason)
	}
}

func (f *fakeRouterSelectionService) Clear(reason string) {
	if f.clearFn != nil {
		f.clearFn(reason)
	}
}

func (f *fakeRouterSelectionService) GetSelection() []string {
	if f.selection == nil {
		return []string{}
	}
	return f.selection
}

func (f *fakeRouterSelectionService) GetSelectionType() string {
	if f.selType == "" {
		return service.SelectionTypeContacts
	}
	return f.selType
}

func (f *fakeRouterSelectionService) Subscribe(fn func(service.SelectionChange)) (cancel func()) {
	return func() {}
}

var routerSelectionLoggerOnce sync.Once

func initRouterSelectionTestLogger() {
	routerSelectionLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		gin.SetMode(gin.TestMode)
	})
}

func buildSelectionTestRouter(selSvc service.SelectionService) *gin.Engine {
	relationshipHandler := v1.NewRelationshipHandler(&fakeRouterRelationshipService{})
	recordHandler := v1.NewRecordHandler(&fakeRouterSoftDeleteService{})
	selectionHandler := v1.NewSelectionHandler(selSvc)
	wsHandler := notify.NewWSHandler(notify.NewConnectionManager())
	return InitRouter(config.DefaultServerConfig(), relationshipHandler, recordHandler, selectionHandler, wsHandler)
}

func TestRouterSelectionSelect(t *testing.T) {
	initRouterSelectionTestLogger()

	called := false
	fake := &fakeRouterSelectionService{
		selection: []string{"c1", "c2"},
		selType:   service.SelectionTypeContacts,
	}
	fake.selectFn = func(ids []string, selType, reason string) {
		called = true
		require.Equal(t, []string{"c1", "c2"}, ids)
		require.Equal(t, service.SelectionTypeContacts, selType)
		require.Equal(t, "row-click", reason)
	}
	r := buildSelectionTestRouter(fake)

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/selection/select",
		`{"ids":["c1","c2"],"type":"contacts","reason":"row-click"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)
	assert.True(t, called)

	var data struct {
		Ids  []string `json:"ids"`
		Type string   `json:"type"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, []string{"c1", "c2"}, data.Ids)
	assert.Equal(t, service.SelectionTypeContacts, data.Type)
}

func TestRouterSelectionInvalidType(t *testing.T) {
	initRouterSelectionTestLogger()

	r := buildSelectionTestRouter(&fakeRouterSelectionService{})

	// oneof 校验直接把未知类型挡在绑定阶段
	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/selection/select",
		`{"ids":["c1"],"type":"bogus"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeParamError), body.Code)
}

func TestRouterSelectionClearAndGet(t *testing.T) {
	initRouterSelectionTestLogger()

	cleared := false
	fake := &fakeRouterSelectionService{}
	fake.clearFn = func(reason string) { cleared = true }
	r := buildSelectionTestRouter(fake)

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/selection/clear", `{}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)
	assert.True(t, cleared)

	req = newRouterJSONRequest(t, http.MethodGet, "/api/v1/selection", "")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body = decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		Ids  []string `json:"ids"`
		Type string   `json:"type"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Empty(t, data.Ids)
	assert.Equal(t, service.SelectionTypeContacts, data.Type)
}
