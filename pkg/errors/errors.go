// Package errors は burnrate 全体で使うエラー型と警告の配送を提供します。
//
// 実体は github.com/cockroachdb/errors で、ここで作られたエラーはすべて
// スタックトレースを持ちます。型付きエラー（types.go）は zerolog の
// LogObjectMarshaler を実装しており、pkg/log が構造化フィールドとして出力します。
//
// パイプラインの致命的エラーの分類:
//
//   - 入力ファイル・成果物の欠落       → ErrArtifactNotFound, MissingColumnError
//   - 学習時に無かったカテゴリ         → UnknownCategoryError
//   - 学習・評価の失敗                 → ModelError（NumericalInstabilityError, PanicError を包む）
//   - 設定・リクエスト値の範囲外       → ValidationError
package errors

import (
	"github.com/cockroachdb/errors"
)

// 共通のセンチネルエラー。Is で判定する。
var (
	// ErrEmptyData は行・値が一つもない入力。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は最小二乗解が一意に定まらない計画行列。
	ErrSingularMatrix = New("singular matrix")

	// ErrArtifactNotFound は入力CSVや永続化済みモデルが存在しない。
	ErrArtifactNotFound = New("artifact not found")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Mark は err のメッセージを保ったまま、errors.Is(err, reference) が真になるよう印を付けます。
func Mark(err, reference error) error {
	return errors.Mark(err, reference)
}
