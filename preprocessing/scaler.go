// Package preprocessing は特徴量変換器（スケーラ・エンコーダ・欠損値補完）を提供します。
package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MinMaxScaler は各特徴量を学習データの最小値・最大値で [lo, hi] に線形変換する。
// NaN は Fit 時に無視され、Transform では NaN のまま伝播する。
// 学習範囲外の値は [lo, hi] の外に写像される（クリップしない）。
type MinMaxScaler struct {
	State *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64
	// DataMax は学習データの最大値
	DataMax []float64
	// Scale は各特徴量のスケール (max - min)。定数列では 1
	Scale []float64
	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		State:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから列ごとの最小値・最大値を計算する。
// 全て NaN の列はエラーになる。
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if math.IsInf(lo, 1) {
			return errors.NewValueError("MinMaxScaler.Fit", "column has no observed values")
		}

		m.DataMin[j] = lo
		m.DataMax[j] = hi
		if dataRange := hi - lo; math.Abs(dataRange) < 1e-8 {
			// 定数特徴量の場合、スケールを1に設定
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.State.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.State.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	if err := m.State.CheckFeatures("MinMaxScaler.Transform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, m.scale(j, X.At(i, j)))
		}
	}
	return result, nil
}

// TransformValue は単一の値を列 j の統計でスケーリングする（ダッシュボード用）。
func (m *MinMaxScaler) TransformValue(j int, v float64) (float64, error) {
	if err := m.State.RequireFitted("MinMaxScaler", "TransformValue"); err != nil {
		return 0, err
	}
	if j < 0 || j >= len(m.DataMin) {
		return 0, errors.NewDimensionError("MinMaxScaler.TransformValue", len(m.DataMin), j+1, 1)
	}
	return m.scale(j, v), nil
}

// X_scaled = (X - X.min) / (X.max - X.min) * (hi - lo) + lo
func (m *MinMaxScaler) scale(j int, v float64) float64 {
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	return (v-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元のスケールに戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.State.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	if err := m.State.CheckFeatures("MinMaxScaler.InverseTransform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := (X.At(i, j) - m.FeatureRange[0]) / featureRange
			result.Set(i, j, v*m.Scale[j]+m.DataMin[j])
		}
	}
	return result, nil
}
