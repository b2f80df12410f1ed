package api_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"loanapproval/internal/api"
	"loanapproval/internal/api/handler/v1handler"
	mockserving "loanapproval/internal/serving/mock"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

type serverTest struct {
	predictor *mockserving.MockPredictor
	url       string
	token     string
}

func newServerTest(t *testing.T, pprof bool) *serverTest {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubASN1, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubASN1})

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(priv)
	require.NoError(t, err)

	predictor := mockserving.NewMockPredictor(gomock.NewController(t))
	srv, err := api.NewServer(api.Deps{Deps: v1handler.Deps{Predictor: predictor}}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{PublicKey: string(pubPEM)},
		MetricsPath:       "/metrics",
		RequestTimeout:    5 * time.Second,
		Pprof:             pprof,
		Registerer:        prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &serverTest{predictor: predictor, url: ts.URL, token: token}
}

func (st *serverTest) get(t *testing.T, path, token string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, st.url+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, string(body)
}

func TestServer_PublicRoutes(t *testing.T) {
	st := newServerTest(t, false)

	res, _ := st.get(t, "/healthz", "")
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))

	st.predictor.EXPECT().Current().Return(nil)
	res, _ = st.get(t, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	res, body := st.get(t, "/specs/v1.yaml", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/yaml", res.Header.Get("Content-Type"))
	require.Contains(t, body, "/v1/predictions")

	res, _ = st.get(t, "/v1/docs/", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = st.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = st.get(t, "/debug/pprof/", "")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestServer_V1RequiresBearerToken(t *testing.T) {
	st := newServerTest(t, false)

	res, body := st.get(t, "/v1/artifacts/current", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.True(t, strings.Contains(body, `"UNAUTHORIZED"`), body)

	res, _ = st.get(t, "/v1/artifacts/current", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	st.predictor.EXPECT().Current().Return(&domain.Artifact{ID: domain.ArtifactID(uuid.New())})
	res, body = st.get(t, "/v1/artifacts/current", st.token)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
}

func TestServer_Pprof(t *testing.T) {
	st := newServerTest(t, true)

	res, _ := st.get(t, "/debug/pprof/", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_WithoutPublicKey(t *testing.T) {
	predictor := mockserving.NewMockPredictor(gomock.NewController(t))
	srv, err := api.NewServer(api.Deps{Deps: v1handler.Deps{Predictor: predictor}}, api.Options{
		MetricsPath: "/metrics",
		Registerer:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	predictor.EXPECT().Current().Return(nil)
	st := &serverTest{predictor: predictor, url: ts.URL}
	res, _ := st.get(t, "/v1/artifacts/current", "")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestNewServer_InvalidPublicKey(t *testing.T) {
	_, err := api.NewServer(api.Deps{}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{PublicKey: "nope"},
		MetricsPath:       "/metrics",
		Registerer:        prometheus.NewRegistry(),
	})
	require.Error(t, err)
}
