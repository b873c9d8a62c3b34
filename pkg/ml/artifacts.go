package ml

import (
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/logx"
)

// Artifact file names inside the model directory.
const (
	ModelFileName  = "model.onnx"
	ScalerFileName = "scaler.json"
	SchemaFileName = "feature_columns.csv"
)

// Artifacts bundles the loaded model, scaler, and feature schema. The bundle
// is constructed once at startup and treated as read-only afterwards.
type Artifacts struct {
	Model  Classifier
	Scaler *Scaler
	Schema []string
}

// Ready reports whether every artifact is present. A false answer degrades
// scoring only; acquisition and caching stay fully functional.
func (a *Artifacts) Ready() bool {
	return a != nil && a.Model != nil && a.Scaler != nil && len(a.Schema) > 0
}

// Close releases the model session, if any.
func (a *Artifacts) Close() {
	if a != nil && a.Model != nil {
		a.Model.Close()
	}
}

// Load reads all artifacts from dir. Missing or unreadable artifacts are
// logged and skipped rather than failing startup: the caller checks Ready
// before scoring.
func Load(dir string) *Artifacts {
	out := &Artifacts{}
	if dir == "" {
		logx.Info("ml: no model directory configured, scoring disabled")
		return out
	}
	if _, err := os.Stat(dir); err != nil {
		logx.Errorf("ml: model directory %s not accessible: %v, scoring disabled", dir, err)
		return out
	}

	schema, err := LoadSchema(filepath.Join(dir, SchemaFileName))
	if err != nil {
		logx.Errorf("ml: %v", err)
	} else {
		out.Schema = schema
		logx.Infof("ml: loaded %d feature columns", len(schema))
	}

	scaler, err := LoadScaler(filepath.Join(dir, ScalerFileName))
	if err != nil {
		logx.Errorf("ml: %v", err)
	} else {
		out.Scaler = scaler
	}

	if len(out.Schema) > 0 {
		model, err := NewONNXClassifier(filepath.Join(dir, ModelFileName), len(out.Schema))
		if err != nil {
			logx.Errorf("ml: %v", err)
		} else {
			out.Model = model
		}
	}

	if out.Ready() {
		logx.Info("ml: model, scaler and schema loaded, scoring available")
	} else {
		logx.Info("ml: artifacts incomplete, scoring disabled")
	}
	return out
}
