package strategy

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/pitwall/f1-strategy-manager-go/pkg/ml"
)

// MetaFile is the sidecar next to the estimator files of a family bundle.
const MetaFile = "meta.json"

type bundleMeta struct {
	Scaler  *ml.Scaler `json:"scaler"`
	Trained bool       `json:"trained"`
}

// SaveMeta writes the scaler sidecar, creating the bundle directory if
// needed.
func SaveMeta(dir string, scaler *ml.Scaler) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	buf, err := json.Marshal(bundleMeta{Scaler: scaler, Trained: true})
	if err != nil {
		return fmt.Errorf("encode bundle meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetaFile), buf, 0o644); err != nil {
		return fmt.Errorf("write bundle meta: %w", err)
	}
	return nil
}

// LoadMeta reads the scaler sidecar of a saved bundle.
func LoadMeta(dir string) (*ml.Scaler, error) {
	buf, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return nil, fmt.Errorf("read bundle meta: %w", err)
	}
	var meta bundleMeta
	if err := json.Unmarshal(buf, &meta); err != nil {
		return nil, fmt.Errorf("decode bundle meta: %w", err)
	}
	if meta.Scaler == nil || !meta.Scaler.Fitted() {
		return nil, fmt.Errorf("bundle meta has no fitted scaler")
	}
	return meta.Scaler, nil
}
