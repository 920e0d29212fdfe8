// Package model はパイプライン全体で共有される推定器インターフェースと
// 学習状態・永続化のユーティリティを提供します。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は列ベクトル (n×1)。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行い n×1 行列を返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は候補モデルが満たすべきインターフェース
type Regressor interface {
	Fitter
	Predictor

	// Name は候補名（"LinearRegression", "Ridge" など）を返す
	Name() string
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coefficients は学習された重み（係数）を返す
	Coefficients() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// FeatureImporter は特徴量重要度を公開するモデルのインターフェース。
// 返り値は学習時の列順で、合計は1に正規化されている。
type FeatureImporter interface {
	FeatureImportances() ([]float64, error)
}
