package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// Envelope は永続化されるモデル成果物。
// Model に格納する具象型は各パッケージの init で gob.Register される。
type Envelope struct {
	// Name は候補名（"Ridge" など）
	Name string
	// FeatureNames は学習時の列順
	FeatureNames []string
	// Metrics は検証データでの評価値（"mse", "r2" など）
	Metrics map[string]float64
	// Model は学習済みモデル本体
	Model Regressor
}

// SaveModel はモデルをファイルに保存する。
// 一時ファイルに書き込んでから rename するため、失敗時に既存の成果物は壊れない。
//
// 使用例:
//
//	env := &model.Envelope{Name: "Ridge", Model: ridge}
//	err := model.SaveModel(env, "models/ridge.gob")
func SaveModel(v interface{}, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", filename)
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".tmp-"+filepath.Base(filename))
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer os.Remove(tmp.Name())

	if err := SaveModelToWriter(v, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move model into %s", filename)
	}
	return nil
}

// LoadModel はファイルからモデルを読み込む。
// ファイルが存在しない場合は ErrArtifactNotFound でラップしたエラーを返す。
func LoadModel(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrArtifactNotFound, "%s", filename)
		}
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(v, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
