package log

// Run and component context.
const (
	// ModelNameKey identifies a regression candidate or encoder.
	// Examples: "LinearRegression", "RandomForest", "Gender"
	ModelNameKey = "model.name"

	// OperationKey specifies the pipeline operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is emitting the record.
	// Examples: "dataset", "features", "training", "dashboard"
	ComponentKey = "ml.component"

	// PhaseKey indicates the pipeline stage.
	PhaseKey = "ml.phase"

	// RunIDKey carries the UUID of the training run that produced an artifact set.
	RunIDKey = "run.id"

	// ArtifactKey is the filesystem path of a persisted artifact.
	ArtifactKey = "artifact.path"
)

// Data shape.
const (
	SamplesKey     = "data.samples"
	FeaturesKey    = "data.features"
	ColumnKey      = "data.column"
	DroppedRowsKey = "data.dropped_rows"
	MissingKey     = "data.missing"
)

// Metrics and timing.
const (
	DurationMsKey = "perf.duration_ms"
	MSEKey        = "metrics.mse"
	R2ScoreKey    = "metrics.r2_score"
	IterationKey  = "training.iteration"
)

// Predictions and HTTP.
const (
	PredsKey    = "preds.count"
	ScoreKey    = "preds.score"
	TierKey     = "preds.tier"
	RouteKey    = "http.route"
	StatusKey   = "http.status"
	ClientIPKey = "http.client_ip"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters.
const (
	RegularizationKey = "hyperparams.regularization"
	RandomSeedKey     = "config.random_seed"
	TreesKey          = "hyperparams.n_estimators"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationTransform  = "transform"
	OperationPreprocess = "preprocess"
	OperationSelect     = "select"
	OperationPersist    = "persist"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhaseReporting     = "reporting"
)
