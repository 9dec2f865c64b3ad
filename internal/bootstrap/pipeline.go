// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/internal/config"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ocr"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
)

// LoadReconciliationConfig reads the reconciliation YAML at path. An empty path or a
// missing file yields the built-in defaults; a file that exists but fails to parse or
// validate is an error.
func LoadReconciliationConfig(path string) (*pipeline.ReconciliationConfig, error) {
	if path == "" {
		logrus.Info("no reconciliation config path set, using defaults")
		return pipeline.DefaultReconciliationConfig(), nil
	}

	cfg, err := pipeline.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("reconciliation config %s not found, using defaults", path)
		return pipeline.DefaultReconciliationConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	logrus.Infof("loaded reconciliation configuration from %s", path)
	return cfg, nil
}

// InitPipeline builds the pipeline manager over the given storage. The recognition tool
// is configured from the OCR_* settings.
func InitPipeline(cfg *config.Config, reconCfg *pipeline.ReconciliationConfig, storage *Storage) (*pipeline.Manager, error) {
	runner := ocr.NewRunner(ocr.Config{
		Binary:   cfg.OCRBinary,
		Language: cfg.OCRLanguage,
		Timeout:  cfg.OCRTimeout,
	})

	manager, err := pipeline.NewManager(reconCfg, storage.Rosters, storage.Sessions, runner)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline manager: %w", err)
	}

	logrus.Infof("initialized pipeline manager with %d ranks", manager.Ladder().Len())
	return manager, nil
}
