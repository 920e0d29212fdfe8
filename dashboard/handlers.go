package dashboard

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/inference"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Form choices offered by the prediction page.
var (
	GenderChoices      = []string{"Male", "Female", "Other"}
	CompanyTypeChoices = []string{"Service", "Product"}
	WFHChoices         = []string{"Yes", "No"}
)

// PredictRequest is the body of POST /predict (form) and
// POST /api/v1/predict (JSON).
type PredictRequest struct {
	Gender             string  `json:"gender" form:"gender" binding:"required"`
	CompanyType        string  `json:"company_type" form:"company_type" binding:"required"`
	WFHSetupAvailable  string  `json:"wfh_setup_available" form:"wfh_setup_available" binding:"required"`
	Designation        float64 `json:"designation" form:"designation"`
	ResourceAllocation float64 `json:"resource_allocation" form:"resource_allocation"`
	MentalFatigueScore float64 `json:"mental_fatigue_score" form:"mental_fatigue_score"`
	Tenure             float64 `json:"tenure" form:"tenure"`
}

// DefaultRequest is the form's initial state.
var DefaultRequest = PredictRequest{
	Gender:             "Male",
	CompanyType:        "Service",
	WFHSetupAvailable:  "Yes",
	Designation:        2,
	ResourceAllocation: 5,
	MentalFatigueScore: 5,
	Tenure:             10,
}

// Validate checks every slider value is finite and inside its range.
func (r PredictRequest) Validate() error {
	for _, f := range []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"designation", r.Designation, 0, 5},
		{"resource_allocation", r.ResourceAllocation, 1, 10},
		{"mental_fatigue_score", r.MentalFatigueScore, 0, 10},
		{"tenure", r.Tenure, 0, 40},
	} {
		if math.IsNaN(f.v) || f.v < f.min || f.v > f.max {
			return errors.NewValidationError(f.name, fmt.Sprintf("must be between %g and %g", f.min, f.max), f.v)
		}
	}
	return nil
}

// Record converts the request to the transformer's input.
func (r PredictRequest) Record() features.Record {
	return features.Record{
		Gender:             r.Gender,
		CompanyType:        r.CompanyType,
		WFHSetupAvailable:  r.WFHSetupAvailable,
		Designation:        r.Designation,
		ResourceAllocation: r.ResourceAllocation,
		MentalFatigueScore: r.MentalFatigueScore,
		Tenure:             r.Tenure,
	}
}

// Prediction is the outcome of one request.
type Prediction struct {
	BurnRate float64            `json:"burn_rate"`
	Tier     inference.RiskTier `json:"tier"`
	Message  string             `json:"message"`
}

// predict runs the transformer and model for one request. The returned
// status is 400 for invalid input, 422 for an unknown category and 500
// otherwise.
func (s *Server) predict(req PredictRequest) (Prediction, int, error) {
	if err := req.Validate(); err != nil {
		s.metrics.predictionErrors.WithLabelValues("invalid").Inc()
		return Prediction{}, http.StatusBadRequest, err
	}
	x, err := s.artifacts.State.TransformRecord(req.Record())
	if err != nil {
		var unknown *errors.UnknownCategoryError
		if errors.As(err, &unknown) {
			s.metrics.predictionErrors.WithLabelValues("unknown_category").Inc()
			return Prediction{}, http.StatusUnprocessableEntity, err
		}
		s.metrics.predictionErrors.WithLabelValues("transform").Inc()
		return Prediction{}, http.StatusInternalServerError, err
	}
	v, err := s.artifacts.Predictor.PredictOne(x)
	if err != nil {
		s.metrics.predictionErrors.WithLabelValues("model").Inc()
		return Prediction{}, http.StatusInternalServerError, err
	}

	tier := inference.Tier(v)
	s.metrics.predictions.WithLabelValues(string(tier)).Inc()
	s.metrics.burnRate.Observe(v)
	s.logger.Debug("single prediction",
		log.OperationKey, log.OperationPredict,
		log.ScoreKey, v,
		log.TierKey, string(tier),
	)
	return Prediction{BurnRate: v, Tier: tier, Message: tier.Message()}, http.StatusOK, nil
}

type predictPage struct {
	Request   PredictRequest
	Genders   []string
	Companies []string
	WFH       []string
	Result    *Prediction
	Error     string
}

func (s *Server) renderPredict(c *gin.Context, status int, req PredictRequest, res *Prediction, err error) {
	page := predictPage{
		Request:   req,
		Genders:   GenderChoices,
		Companies: CompanyTypeChoices,
		WFH:       WFHChoices,
		Result:    res,
	}
	if err != nil {
		page.Error = err.Error()
	}
	c.HTML(status, "predict.tmpl", page)
}

// Index handles GET /.
func (s *Server) Index(c *gin.Context) {
	data := gin.H{
		"Charts":      s.charts(),
		"Importances": s.artifacts.Importances,
		"Model":       s.artifacts.Predictor.ModelName(),
	}
	if m := s.artifacts.Manifest; m != nil {
		data["Manifest"] = m
	}
	c.HTML(http.StatusOK, "index.tmpl", data)
}

// PredictForm handles GET /predict.
func (s *Server) PredictForm(c *gin.Context) {
	s.renderPredict(c, http.StatusOK, DefaultRequest, nil, nil)
}

// PredictSubmit handles POST /predict.
func (s *Server) PredictSubmit(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBind(&req); err != nil {
		s.metrics.predictionErrors.WithLabelValues("invalid").Inc()
		s.renderPredict(c, http.StatusBadRequest, DefaultRequest, nil, err)
		return
	}
	res, status, err := s.predict(req)
	if err != nil {
		s.renderPredict(c, status, req, nil, err)
		return
	}
	s.renderPredict(c, http.StatusOK, req, &res, nil)
}

// APIPredict handles POST /api/v1/predict.
func (s *Server) APIPredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.predictionErrors.WithLabelValues("invalid").Inc()
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	res, status, err := s.predict(req)
	if err != nil {
		code := "PREDICTION_FAILED"
		switch status {
		case http.StatusBadRequest:
			code = "INVALID_REQUEST"
		case http.StatusUnprocessableEntity:
			code = "UNKNOWN_CATEGORY"
		}
		errorJSON(c, status, code, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func errorJSON(c *gin.Context, status int, code string, err error) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}

// Recommendations handles GET /recommendations.
func (s *Server) Recommendations(c *gin.Context) {
	c.HTML(http.StatusOK, "recommendations.tmpl", gin.H{"Recommendations": recommendations})
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok", "model": s.artifacts.Predictor.ModelName()}
	if m := s.artifacts.Manifest; m != nil {
		body["run_id"] = m.RunID
	}
	c.JSON(http.StatusOK, body)
}

type recommendation struct {
	Title   string
	Finding string
	Action  string
}

var recommendations = []recommendation{
	{
		Title:   "Mental Fatigue Mitigation",
		Finding: "Mental Fatigue Score is the top predictor of burnout.",
		Action:  "Launch wellness programs, encourage breaks, and offer counseling.",
	},
	{
		Title:   "Review Resource Allocation",
		Finding: "High workload is linked to higher burnout.",
		Action:  "Monitor workloads using dashboards and automate reallocation if needed.",
	},
	{
		Title:   "Enable Remote Work",
		Finding: "WFH flexibility shows correlation with lower burnout.",
		Action:  "Offer flexible or hybrid setups with strong support infrastructure.",
	},
	{
		Title:   "Designation Sensitivity",
		Finding: "Junior staff are more burnout-prone.",
		Action:  "Introduce mentorship, reduced KPIs, and learning tracks for juniors.",
	},
	{
		Title:   "Gender & Company Type Patterns",
		Finding: "Burnout trends vary across groups.",
		Action:  "Use inclusion data to craft fair, adaptive HR policies.",
	},
}
