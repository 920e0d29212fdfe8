// Package metrics は回帰モデルの評価指標を提供する。
// 入力はすべて n×1 の列ベクトル（mat.Matrix）。
package metrics

import (
	"math"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Report は検証データ上の評価値をまとめたもの
type Report struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Map はマニフェストやモデル封筒に格納するための形式に変換する
func (r Report) Map() map[string]float64 {
	return map[string]float64{"mse": r.MSE, "rmse": r.RMSE, "mae": r.MAE, "r2": r.R2}
}

// Evaluate は MSE, RMSE, MAE, R² をまとめて計算する
func Evaluate(yTrue, yPred mat.Matrix) (Report, error) {
	a, b, err := columns("Evaluate", yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	mse := mse(a, b)
	return Report{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  mae(a, b),
		R2:   r2(a, b),
	}, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	a, b, err := columns("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return mse(a, b), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	m, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(m), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	a, b, err := columns("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return mae(a, b), nil
}

// R2Score は決定係数（R²）を計算する。
// yTrue の分散が0の場合、完全一致なら1、そうでなければ0を返す。
func R2Score(yTrue, yPred mat.Matrix) (float64, error) {
	a, b, err := columns("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return r2(a, b), nil
}

// MSE = (1/n) * Σ(yTrue - yPred)²
func mse(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

// MAE = (1/n) * Σ|yTrue - yPred|
func mae(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

func r2(a, b []float64) float64 {
	mean := stat.Mean(a, nil)
	var tss, rss float64
	for i := range a {
		tss += (a[i] - mean) * (a[i] - mean)
		rss += (a[i] - b[i]) * (a[i] - b[i])
	}
	if tss == 0 {
		if rss == 0 {
			return 1
		}
		return 0
	}
	return 1 - rss/tss
}

func columns(op string, yTrue, yPred mat.Matrix) ([]float64, []float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if cTrue != 1 || cPred != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}

	a := mat.Col(nil, 0, yTrue)
	b := mat.Col(nil, 0, yPred)
	return a, b, nil
}
