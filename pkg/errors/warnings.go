package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

// 警告は処理を止めずに報告だけする（Lasso の未収束など）。
// log.Setup が SetZerologWarnFunc で構造化ロガーを登録するまでは
// warningHandler が標準 log に書く。
var (
	warningMu       sync.Mutex
	warningHandler  = defaultWarningHandler
	zerologWarnFunc func(warning error)
)

func defaultWarningHandler(w error) {
	log.Printf("burnrate: warning: %v", w)
}

// SetWarningHandler replaces the fallback warning handler. nil silences
// warnings that are not routed to zerolog.
func SetWarningHandler(handler func(w error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc は警告の出力先を zerolog に切り替える。
// pkg/log からの登録用で、pkg/errors は pkg/log を import できない。
// nil で SetWarningHandler のハンドラに戻る。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports w without interrupting the caller.
func Warn(w error) {
	warningMu.Lock()
	defer warningMu.Unlock()

	switch {
	case zerologWarnFunc != nil:
		zerologWarnFunc(w)
	case warningHandler != nil:
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an iterative solver stops at its
// iteration limit. The fitted coefficients are still usable.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	msg := fmt.Sprintf("%s did not converge in %d iterations", w.Algorithm, w.Iterations)
	if w.Message != "" {
		return msg + ": " + w.Message
	}
	return msg + "; raise max_iter or alpha"
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("detail", w.Message)
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}
