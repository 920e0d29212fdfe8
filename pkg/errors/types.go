package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NotFittedError: 未学習のモデル・変換器で Predict や Transform を呼んだ。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("burnrate: %s is not fitted; call Fit before %s", e.ModelName, e.Method)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NotFittedError").
		Str("model_name", e.ModelName).
		Str("method", e.Method)
}

// NewNotFittedError returns a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError: 行数または特徴量数が学習時と合わない。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 = rows, 1 = features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("burnrate: %s: expected %d %s, got %d", e.Op, e.Expected, e.axisName(), e.Got)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("operation", e.Op).
		Str("axis", e.axisName()).
		Int("expected", e.Expected).
		Int("got", e.Got)
}

// NewDimensionError returns a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError: 設定値・入力値が許容範囲外。ダッシュボードでは 400 になる。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("burnrate: invalid %s: %s (got %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValidationError").
		Str("param", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// NewValidationError returns a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError: 引数の組み合わせとして成立しない（サンプル数不足、y が列ベクトルでない等）。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("burnrate: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValueError").Str("operation", e.Op)
}

// NewValueError returns a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError: 学習・評価・読み込みの失敗。Kind は候補名や失敗の種類。
// 学習ランはこのエラーで中断し、何も永続化しない。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	msg := "burnrate: " + e.Op + ": " + e.Kind
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ModelError").
		Str("operation", e.Op).
		Str("kind", e.Kind)
}

// NewModelError returns a ModelError wrapping err (which may be nil).
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// UnknownCategoryError: エンコーダが学習時に見ていないカテゴリ。
// 未知カテゴリ用のコードは無いので、呼び出し側は致命的エラーとして扱う。
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("burnrate: unknown category %q for column %q", e.Value, e.Column)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "UnknownCategoryError").
		Str("column", e.Column).
		Str("value", e.Value)
}

// NewUnknownCategoryError returns an UnknownCategoryError with a stack trace.
func NewUnknownCategoryError(column, value string) error {
	return errors.WithStack(&UnknownCategoryError{Column: column, Value: value})
}

// MissingColumnError: 入力テーブルに必須列が無い。
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("burnrate: %s: required column %q not found", e.Source, e.Column)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *MissingColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "MissingColumnError").
		Str("source", e.Source).
		Str("column", e.Column)
}

// NewMissingColumnError returns a MissingColumnError with a stack trace.
func NewMissingColumnError(source, column string) error {
	return errors.WithStack(&MissingColumnError{Source: source, Column: column})
}

// NumericalInstabilityError: 学習入力や反復計算に NaN / Inf が現れた。
type NumericalInstabilityError struct {
	Operation string    // 例: "LinearRegression.Fit", "Lasso.Fit"
	Values    []float64 // 問題のある値（最大10個）
	Iteration int       // 入力検証では 0
}

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	more := ""
	if len(shown) > 5 {
		shown, more = shown[:5], ", ..."
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("burnrate: non-finite values in %s at iteration %d: [%s%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "), more)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NumericalInstabilityError").
		Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Int("values", len(e.Values))
}

// NewNumericalInstabilityError returns a NumericalInstabilityError with a
// stack trace.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}
