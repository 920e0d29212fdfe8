package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/inference"
	"github.com/YuminosukeSato/burnrate/insights"
	"github.com/YuminosukeSato/burnrate/linear"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"
)

func fixtureArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	genders := []string{"Male", "Female", "Other"}
	companies := []string{"Service", "Product"}
	wfh := []string{"Yes", "No"}

	train := &dataset.Table{Source: "train", HasTarget: true}
	for i := 0; i < 30; i++ {
		join := time.Date(2010+i%12, time.Month(1+i%12), 1, 0, 0, 0, 0, time.UTC)
		fatigue := float64(i%11) * 0.9
		train.Employees = append(train.Employees, dataset.Employee{
			ID:                 "e" + string(rune('A'+i)),
			JoinDate:           &join,
			Gender:             genders[i%3],
			CompanyType:        companies[i%2],
			WFHSetupAvailable:  wfh[(i/2)%2],
			Designation:        float64(i % 6),
			ResourceAllocation: float64(1 + i%10),
			MentalFatigueScore: fatigue,
			BurnRate:           fatigue / 10,
		})
	}

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := features.Preprocess(train, nil, features.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	y, err := res.Train.TargetMatrix()
	require.NoError(t, err)
	lr := linear.NewRidge()
	require.NoError(t, lr.Fit(res.Train.X, y))

	env := &model.Envelope{Name: lr.Name(), FeatureNames: res.Train.Columns, Model: lr}
	return &Artifacts{
		State:       res.State,
		Predictor:   inference.NewPredictor(env, nil),
		Importances: []insights.Importance{
			{Feature: "Mental Fatigue Score", Importance: 0.9},
			{Feature: "Tenure", Importance: 0.1},
		},
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	edaDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(edaDir, insights.DistributionPlot), []byte("png"), 0o644))

	logger, _ := log.NewTestLogger(log.LevelError)
	s, err := New(fixtureArtifacts(t), Options{EDADir: edaDir, InsightsDir: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	return s, edaDir
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func validForm() url.Values {
	return url.Values{
		"gender":               {"Male"},
		"company_type":         {"Service"},
		"wfh_setup_available":  {"No"},
		"designation":          {"2"},
		"resource_allocation":  {"5"},
		"mental_fatigue_score": {"5.0"},
		"tenure":               {"10"},
	}
}

func TestNewRequiresArtifacts(t *testing.T) {
	_, err := New(&Artifacts{}, Options{})
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
}

func TestLoadArtifactsMissingDir(t *testing.T) {
	_, err := LoadArtifacts(filepath.Join(t.TempDir(), "nope"), nil)
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
}

func TestIndexListsExistingCharts(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Burnout Insights Dashboard")
	assert.Contains(t, body, "/images/eda/"+insights.DistributionPlot)
	assert.NotContains(t, body, insights.CorrelationPlot)
	assert.Contains(t, body, "90.0%")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	img := do(s, httptest.NewRequest(http.MethodGet, "/images/eda/"+insights.DistributionPlot, nil))
	assert.Equal(t, http.StatusOK, img.Code)
}

func TestPredictForm(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="mental_fatigue_score"`)
	assert.Contains(t, w.Body.String(), "Other")
}

func TestPredictSubmit(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, formRequest(validForm()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Estimated Burn Rate")
	assert.Regexp(t, "burnout risk", w.Body.String())
}

func TestPredictSubmitDeterministic(t *testing.T) {
	s, _ := newTestServer(t)
	first := do(s, formRequest(validForm())).Body.String()
	second := do(s, formRequest(validForm())).Body.String()
	assert.Equal(t, first, second)
}

func TestPredictSubmitOutOfRange(t *testing.T) {
	s, _ := newTestServer(t)
	form := validForm()
	form.Set("designation", "9")
	w := do(s, formRequest(form))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "designation")
}

func TestAPIPredict(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, jsonRequest(`{"gender":"Female","company_type":"Product","wfh_setup_available":"Yes",
		"designation":3,"resource_allocation":7,"mental_fatigue_score":8.5,"tenure":4}`))
	require.Equal(t, http.StatusOK, w.Code)

	var got Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.GreaterOrEqual(t, got.BurnRate, 0.0)
	assert.LessOrEqual(t, got.BurnRate, 1.0)
	assert.Equal(t, inference.Tier(got.BurnRate), got.Tier)
	assert.Equal(t, got.Tier.Message(), got.Message)
}

func TestAPIPredictErrors(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"gender":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing category", `{"company_type":"Service","wfh_setup_available":"Yes","resource_allocation":3}`,
			http.StatusBadRequest, "INVALID_REQUEST"},
		{"fatigue out of range", `{"gender":"Male","company_type":"Service","wfh_setup_available":"Yes",
			"resource_allocation":3,"mental_fatigue_score":11}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unseen category", `{"gender":"Robot","company_type":"Service","wfh_setup_available":"Yes",
			"resource_allocation":3}`, http.StatusUnprocessableEntity, "UNKNOWN_CATEGORY"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := do(s, jsonRequest(c.body))
			assert.Equal(t, c.status, w.Code)
			assert.Contains(t, w.Body.String(), c.code)
		})
	}
}

func TestRecommendationsAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodGet, "/recommendations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mental Fatigue Mitigation")

	w = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","model":"Ridge"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, formRequest(validForm()))
	do(s, jsonRequest(`{"gender":"Robot","company_type":"Service","wfh_setup_available":"Yes","resource_allocation":3}`))

	w := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "burnrate_predictions_total")
	assert.Contains(t, body, `burnrate_prediction_errors_total{reason="unknown_category"} 1`)
	assert.Contains(t, body, `burnrate_http_requests_total{method="POST",route="/predict",status="200"} 1`)
}

func TestLoadArtifactsFromStore(t *testing.T) {
	a := fixtureArtifacts(t)
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, a.State.Save(store))
	lr := linear.NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{0, 1, 2}), mat.NewDense(3, 1, []float64{0, 0.5, 1})))
	require.NoError(t, store.SaveModel(registry.BestModel, &model.Envelope{Name: lr.Name(), Model: lr}))

	loaded, err := LoadArtifacts(store.Dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", loaded.Predictor.ModelName())
	assert.Nil(t, loaded.Manifest)
	assert.Nil(t, loaded.Importances)
}
