package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registracion/internal/core/apperror"
	appctx "registracion/internal/core/context"
	"registracion/internal/core/types"
	"registracion/internal/domain/operation"
	"registracion/internal/domain/weighing"
	"registracion/pkg/logger"
	"registracion/pkg/metrics"
)

const (
	validToken = "good-token"
	opID       = "6F9619FF-8B86-D011-B42D-00C04FC964FF"
)

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: "1", Username: "operador"}, nil
}

type fakeWeighing struct {
	registered []weighing.Request
	reset      []weighing.ResetRequest
	err        error
	label      int64
}

func (f *fakeWeighing) Register(_ context.Context, req weighing.Request) (*weighing.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, req)
	overOrder, quality := weighing.Totals(req.Bundles)
	return &weighing.Result{
		OperationID:    req.OperationID,
		LotID:          req.DestinationLotID,
		OverOrderTotal: overOrder,
		QualityTotal:   quality,
		TotalBundles:   len(req.Bundles),
		Bundles:        req.Bundles,
	}, nil
}

func (f *fakeWeighing) Reset(_ context.Context, req weighing.ResetRequest) error {
	if f.err != nil {
		return f.err
	}
	f.reset = append(f.reset, req)
	return nil
}

func (f *fakeWeighing) ListBundles(_ context.Context, _ weighing.ResetRequest) ([]weighing.StoredBundle, error) {
	return []weighing.StoredBundle{{Bundle: weighing.Bundle{Number: 1, Rolls: 2}, RegistrationID: 7}}, f.err
}

func (f *fakeWeighing) ListSurplusBundles(_ context.Context, _ string) ([]weighing.StoredBundle, error) {
	return nil, f.err
}

func (f *fakeWeighing) NextLabel(_ context.Context) (int64, error) {
	f.label++
	return f.label, f.err
}

func (f *fakeWeighing) LastLabel(_ context.Context) (int64, error) {
	return f.label, f.err
}

type fakeOperations struct {
	suspend  []operation.SuspendRequest
	opened   []operation.OpenRequest
	detailFn func(string) (*operation.Detail, error)
}

func (f *fakeOperations) ListForMachine(_ context.Context, machineID string) ([]operation.ListItem, error) {
	return []operation.ListItem{{Status: operation.Status("Normal")}}, nil
}

func (f *fakeOperations) Detail(_ context.Context, id string) (*operation.Detail, error) {
	return f.detailFn(id)
}

func (f *fakeOperations) SetSuspended(_ context.Context, req operation.SuspendRequest) (*operation.SuspendResult, error) {
	if req.Password != "secret" {
		return nil, apperror.NewForbidden("invalid supervisor credentials")
	}
	f.suspend = append(f.suspend, req)
	return &operation.SuspendResult{OperationIDs: []string{req.OperationID}, Suspended: req.Suspend}, nil
}

func (f *fakeOperations) ProcessOperations(_ context.Context, reqs []operation.OpenRequest) (int64, error) {
	f.opened = append(f.opened, reqs...)
	return 42, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	weighing   *fakeWeighing
	operations *fakeOperations
	metrics    *metrics.Metrics
	serve      func(method, path string, body any, token string) *httptest.ResponseRecorder
}

func newTestEnv(t *testing.T, dbErr error) *testEnv {
	t.Helper()

	env := &testEnv{
		weighing: &fakeWeighing{},
		operations: &fakeOperations{detailFn: func(id string) (*operation.Detail, error) {
			return nil, apperror.NewNotFound("operation", id)
		}},
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	router := NewRouter(RouterConfig{
		Logger:       logger.Nop(),
		JWTValidator: fakeValidator{},
		Weighing:     env.weighing,
		Operations:   env.operations,
		DB:           fakePinger{err: dbErr},
		Metrics:      env.metrics,
	})

	env.serve = func(method, path string, body any, token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	return env
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthStatuses(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodGet, "/api/pesaje/etiquetas/ultima", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.serve(http.MethodGet, "/api/pesaje/etiquetas/ultima", nil, "forged")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, decode(t, w)["code"])

	w = env.serve(http.MethodGet, "/api/pesaje/etiquetas/ultima", nil, validToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.serve(http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.serve(http.MethodGet, "/ready", nil, "").Code)

	down := newTestEnv(t, errors.New("connection refused"))
	w := down.serve(http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestRegisterResolvesKindFromBody(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/registrar", map[string]any{
		"operacionId":    opID,
		"sobrante":       "2",
		"scrapNoSeriado": 1,
		"atados":         []map[string]any{{"rollos": "3", "peso": "120,5"}},
	}, validToken)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, env.weighing.registered, 1)
	req := env.weighing.registered[0]
	assert.Equal(t, weighing.KindScrapUnserialized, req.Kind)
	assert.Equal(t, 3, req.Bundles[0].Rolls)
	assert.Equal(t, types.NewKilograms(120.5), req.Bundles[0].Weight)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, opID, body["operacionId"])

	assert.Equal(t, float64(1), testutil.ToFloat64(
		env.metrics.WeighingRegistrations.WithLabelValues("scrap_unserialized", "ok")))
}

func TestPerKindRouteIgnoresBodyCode(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/sobrante", map[string]any{
		"operacionId": opID,
		"sobrante":    0,
		"atados":      []map[string]any{{"atado": 1, "rollos": 1, "peso": 10}},
	}, validToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, weighing.KindSurplus, env.weighing.registered[0].Kind)
}

func TestRegisterRejectsMalformedOperationID(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/registrar", map[string]any{
		"operacionId": "not-a-guid",
		"atados":      []map[string]any{{"atado": 1, "rollos": 1, "peso": 10}},
	}, validToken)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeInvalidOperationID, decode(t, w)["code"])
	assert.Empty(t, env.weighing.registered)
}

func TestRegisterRejectsUnknownCode(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/registrar", map[string]any{
		"operacionId": opID,
		"sobrante":    5,
	}, validToken)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])
}

func TestServiceErrorsKeepTheirStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	env.weighing.err = apperror.NewOperationClosed(opID)

	w := env.serve(http.MethodPost, "/api/pesaje/registrar", map[string]any{
		"operacionId": opID,
		"atados":      []map[string]any{{"atado": 1, "rollos": 1, "peso": 10}},
	}, validToken)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, apperror.CodeOperationClosed, body["code"])
	assert.Contains(t, body, "details")

	env.weighing.err = apperror.NewStore(errors.New("deadlock"))
	w = env.serve(http.MethodGet, "/api/pesaje/etiquetas/ultima", nil, validToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeDatabase, decode(t, w)["code"])
}

func TestResetAndBundles(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/reset", map[string]any{
		"operacionId": opID,
		"sobrante":    1,
	}, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.weighing.reset, 1)
	assert.Equal(t, weighing.KindSurplus, env.weighing.reset[0].Kind)
	assert.Equal(t, "", env.weighing.reset[0].LotID)

	w = env.serve(http.MethodPost, "/api/pesaje/obtener-atados", map[string]any{
		"operacionId": opID,
		"loteIds":     opID,
	}, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	var bundles []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundles))
	require.Len(t, bundles, 1)
	assert.Equal(t, float64(7), bundles[0]["idRegistroPesaje"])
}

func TestLabels(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/pesaje/etiquetas/siguiente", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["nroEtiqueta"])

	w = env.serve(http.MethodGet, "/api/pesaje/etiquetas/ultima", nil, validToken)
	assert.Equal(t, float64(1), decode(t, w)["nroEtiqueta"])
}

func TestOperationRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodGet, "/api/registracion/operaciones/M01", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.serve(http.MethodGet, "/api/registracion/detalle/"+opID, nil, validToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w)["code"])
}

func TestSuspend(t *testing.T) {
	env := newTestEnv(t, nil)
	path := "/api/registracion/operaciones/suspender/" + opID

	w := env.serve(http.MethodPost, path, map[string]any{"username": "sup", "password": "secret", "suspend": 1}, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["suspendida"])
	assert.Equal(t, []any{opID}, body["operaciones"])
	assert.Equal(t, opID, env.operations.suspend[0].OperationID)

	w = env.serve(http.MethodPost, path, map[string]any{"username": "sup", "password": "wrong"}, validToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.serve(http.MethodPost, path, map[string]any{"username": "sup"}, validToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])
}

func TestProcessOperations(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.serve(http.MethodPost, "/api/registracion/operaciones/procesar", map[string]any{
		"operacionesData": []map[string]any{{"id": opID, "nroBatch": 77}},
	}, validToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(42), decode(t, w)["multiOperacionId"])
	require.Len(t, env.operations.opened, 1)
	assert.Equal(t, "77", env.operations.opened[0].BatchNumber)

	w = env.serve(http.MethodPost, "/api/registracion/operaciones/procesar", map[string]any{
		"operacionesData": []map[string]any{},
	}, validToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
