// Package burnrate predicts employee burnout from HR survey data.
//
// The module is a small end-to-end regression pipeline: raw employee tables
// are cleaned and encoded, several regressors are trained and compared on a
// held-out split, the best one scores the unlabelled table, and a web
// dashboard serves single-record predictions with a risk tier.
//
// # Pipeline
//
// The burnrate command runs each stage on its own or all of them in order:
//
//	burnrate preprocess   # train.csv/test.csv → processed/*.csv + encoders, scaler
//	burnrate train        # LinearRegression, Ridge, Lasso, RandomForest → best_model
//	burnrate predict      # best_model × test_processed.csv → submission CSV
//	burnrate insights     # RandomForest importances → CSV + bar chart
//	burnrate eda          # distribution, scatter, box and correlation charts
//	burnrate serve        # dashboard on :8501
//	burnrate all          # preprocess, train, predict, eda, insights
//
// Configuration is read from an optional YAML file (BURNRATE_CONFIG or
// -config) and BURNRATE_* environment variables; see package config.
//
// # Packages
//
//   - dataset: raw employee CSV parsing, processed frames and submissions
//   - preprocessing: LabelEncoder, SimpleImputer, MinMaxScaler
//   - features: the fitted transformation shared by batch and dashboard paths
//   - linear: LinearRegression (QR), Ridge, Lasso (coordinate descent)
//   - tree, ensemble: CART regression trees and RandomForestRegressor
//   - metrics: MSE, RMSE, MAE, R²
//   - training: seeded split, candidate fitting and best-model selection
//   - registry: gob artifact store and JSON run manifest
//   - inference: batch prediction, clipping and risk tiers
//   - insights: feature importances and exploratory charts (gonum/plot)
//   - dashboard: gin web UI, JSON API and Prometheus metrics
//   - core/model, core/parallel: shared interfaces, persistence and workers
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Quick Start
//
// Training and scoring from Go:
//
//	train, _ := dataset.ReadEmployees("train.csv")
//	test, _ := dataset.ReadEmployees("test.csv")
//	res, err := features.Preprocess(train, test)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store, _ := registry.Open("models")
//	out, err := training.NewTrainer(training.DefaultConfig()).Run(ctx, res.Train, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pred, _ := inference.LoadPredictor(store, nil)
//	scores, _ := pred.PredictFrame(res.Test)
//	fmt.Println(out.BestResult().Name, len(scores))
package burnrate
