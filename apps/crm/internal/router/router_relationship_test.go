package router

import (
	"bytes"
	"context"
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
	"PipelineCRM/model"
	"PipelineCRM/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRouterRelationshipService struct {
	normalizePairFn    func(a, b string) (service.NormalizedPair, error)
	linkContactsFn     func(context.Context, string, string, string) (*service.LinkResult, error)
	unlinkContactsFn   func(context.Context, string, string) (bool, error)
	listLinksForFn     func(context.Context, string) (*service.LinkView, error)
	listLinksForManyFn func(context.Context, []string) (map[string][]service.Neighbor, error)
	countLinksFn       func(context.Context, string) (int64, error)
	repointLinksFn     func(context.Context, string, string) (*service.RepointResult, error)
}

var _ service.RelationshipService = (*fakeRouterRelationshipService)(nil)

func (f *fakeRouterRelationshipService) NormalizePair(a, b string) (service.NormalizedPair, error) {
	if f.normalizePairFn == nil {
		return service.NormalizedPair{}, nil
	}
	return f.normalizePairFn(a, b)
}

func (f *fakeRouterRelationshipService) LinkContacts(ctx context.Context, a, b, role string) (*service.LinkResult, error) {
	if f.linkContactsFn == nil {
		return &service.LinkResult{Edge: &model.RelationshipEdge{}}, nil
	}
	return f.linkContactsFn(ctx, a, b, role)
}

func (f *fakeRouterRelationshipService) UnlinkContacts(ctx context.Context, a, b string) (bool, error) {
	if f.unlinkContactsFn == nil {
		return false, nil
	}
	return f.unlinkContactsFn(ctx, a, b)
}

func (f *fakeRouterRelationshipService) ListLinksFor(ctx context.Context, contactId string) (*service.LinkView, error) {
	if f.listLinksForFn == nil {
		return &service.LinkView{}, nil
	}
	return f.listLinksForFn(ctx, contactId)
}

func (f *fakeRouterRelationshipService) ListLinksForMany(ctx context.Context, contactIds []string) (map[string][]service.Neighbor, error) {
	if f.listLinksForManyFn == nil {
		return map[string][]service.Neighbor{}, nil
	}
	return f.listLinksForManyFn(ctx, contactIds)
}

func (f *fakeRouterRelationshipService) CountLinks(ctx context.Context, contactId string) (int64, error) {
	if f.countLinksFn == nil {
		return 0, nil
	}
	return f.countLinksFn(ctx, contactId)
}

func (f *fakeRouterRelationshipService) RepointLinks(ctx context.Context, winnerId, loserId string) (*service.RepointResult, error) {
	if f.repointLinksFn == nil {
		return &service.RepointResult{}, nil
	}
	return f.repointLinksFn(ctx, winnerId, loserId)
}

type routerResultBody struct {
	Code    int32           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var routerRelationshipLoggerOnce sync.Once

func initRouterRelationshipTestLogger() {
	routerRelationshipLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		gin.SetMode(gin.TestMode)
	})
}

func newRouterJSONRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeRouterBody(t *testing.T, w *httptest.ResponseRecorder) routerResultBody {
	t.Helper()
	var body routerResultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func buildRelationshipTestRouter(relSvc service.RelationshipService) *gin.Engine {
	relationshipHandler := v1.NewRelationshipHandler(relSvc)
	recordHandler := v1.NewRecordHandler(&fakeRouterSoftDeleteService{})
	selectionHandler := v1.NewSelectionHandler(&fakeRouterSelectionService{})
	wsHandler := notify.NewWSHandler(notify.NewConnectionManager())
	return InitRouter(config.DefaultServerConfig(), relationshipHandler, recordHandler, selectionHandler, wsHandler)
}

func TestRouterHealth(t *testing.T) {
	initRouterRelationshipTestLogger()

	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{})
	req := newRouterJSONRequest(t, http.MethodGet, "/health", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRelationshipLink(t *testing.T) {
	initRouterRelationshipTestLogger()

	called := false
	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{
		linkContactsFn: func(_ context.Context, a, b, role string) (*service.LinkResult, error) {
			called = true
			require.Equal(t, "c1", a)
			require.Equal(t, "c2", b)
			require.Equal(t, model.RoleSpouse, role)
			return &service.LinkResult{
				Edge: &model.RelationshipEdge{
					Id: "e1", FromId: "c1", ToId: "c2",
					EdgeKey: "c1::c2", Role: model.RoleSpouse,
				},
				Changed: true,
			}, nil
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/relationship/link",
		`{"contactA":"c1","contactB":"c2","role":"spouse"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)
	assert.True(t, called)

	var data struct {
		EdgeKey string `json:"edgeKey"`
		Changed bool   `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "c1::c2", data.EdgeKey)
	assert.True(t, data.Changed)
}

func TestRouterRelationshipLinkParamError(t *testing.T) {
	initRouterRelationshipTestLogger()

	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{})

	// 缺少必填字段，绑定失败
	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/relationship/link", `{"contactA":"c1"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeParamError), body.Code)
}

func TestRouterRelationshipLinkBusinessError(t *testing.T) {
	initRouterRelationshipTestLogger()

	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{
		linkContactsFn: func(_ context.Context, a, b, role string) (*service.LinkResult, error) {
			return nil, service.ErrSelfLink
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/relationship/link",
		`{"contactA":"c1","contactB":"c1"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSelfLink), body.Code)
}

func TestRouterRelationshipCount(t *testing.T) {
	initRouterRelationshipTestLogger()

	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{
		countLinksFn: func(_ context.Context, contactId string) (int64, error) {
			require.Equal(t, "c1", contactId)
			return 3, nil
		},
	})

	req := newRouterJSONRequest(t, http.MethodGet, "/api/v1/relationship/count?contactId=c1", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, int64(3), data.Count)
}

func TestRouterRelationshipRepoint(t *testing.T) {
	initRouterRelationshipTestLogger()

	r := buildRelationshipTestRouter(&fakeRouterRelationshipService{
		repointLinksFn: func(_ context.Context, winnerId, loserId string) (*service.RepointResult, error) {
			require.Equal(t, "w", winnerId)
			require.Equal(t, "l", loserId)
			return &service.RepointResult{Moved: 2, Dropped: 1, Merged: 1}, nil
		},
	})

	req := newRouterJSONRequest(t, http.MethodPost, "/api/v1/relationship/repoint",
		`{"winnerId":"w","loserId":"l"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeRouterBody(t, w)
	assert.Equal(t, int32(consts.CodeSuccess), body.Code)

	var data struct {
		Moved   int `json:"moved"`
		Dropped int `json:"dropped"`
		Merged  int `json:"merged"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, 2, data.Moved)
	assert.Equal(t, 1, data.Dropped)
	assert.Equal(t, 1, data.Merged)
}
