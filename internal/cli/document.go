package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/meta"
	"github.com/mhalstead/rigmeta/pkg/scene"
	"github.com/mhalstead/rigmeta/pkg/sceneio"
)

// loadRegistry builds a type registry from explicit manifest paths plus
// the RIGMETA_TYPE_PATHS environment variable.
func loadRegistry(ctx context.Context, paths []string) (*meta.Registry, error) {
	logger := loggerFromContext(ctx)
	reg := meta.NewRegistry()

	if len(paths) > 0 {
		n, err := reg.ScanPaths(paths)
		if err != nil {
			return nil, fmt.Errorf("scan manifest paths: %w", err)
		}
		logger.Debugf("Registered %d types from --types paths", n)
	}

	n, err := reg.ScanEnv()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", meta.TypePathsEnv, err)
	}
	if n > 0 {
		logger.Debugf("Registered %d types from %s", n, meta.TypePathsEnv)
	}
	return reg, nil
}

// readSceneRecord decodes a scene document from a JSON file.
func readSceneRecord(path string) (sceneio.SceneRecord, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return sceneio.SceneRecord{}, errors.New(errors.ErrCodeFileNotFound,
			"no scene document at %s", path)
	}
	if err != nil {
		return sceneio.SceneRecord{}, err
	}
	defer f.Close()
	return sceneio.Decode(f)
}

// requirementLoaders treats every registered type as a satisfiable
// requirement. Records naming anything else are skipped on import.
func requirementLoaders(reg *meta.Registry) map[string]sceneio.RequirementLoader {
	loaders := make(map[string]sceneio.RequirementLoader)
	for _, name := range reg.Types() {
		loaders[name] = func() error { return nil }
	}
	return loaders
}

// importDocument loads a scene document into a fresh scene, registering
// types from the given manifest paths first.
func importDocument(ctx context.Context, path string, typePaths []string) (*scene.Scene, *meta.Registry, *sceneio.Result, error) {
	reg, err := loadRegistry(ctx, typePaths)
	if err != nil {
		return nil, nil, nil, err
	}

	rec, err := readSceneRecord(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	sc := scene.New()
	result := sceneio.Import(sc, rec, sceneio.ImportOptions{
		Loaders: requirementLoaders(reg),
	})
	return sc, reg, result, nil
}

// reportImport prints the import result, stripping error-code prefixes so
// warnings read as plain sentences. Returns an error in strict mode when
// anything was skipped or partially restored.
func reportImport(result *sceneio.Result, strict bool) error {
	for _, s := range result.Skipped {
		printWarning("Skipped %s: %s", s.Name, errors.UserMessage(s.Err))
	}
	for _, err := range result.Errs {
		printWarning("%s", errors.UserMessage(err))
	}
	if strict && (len(result.Skipped) > 0 || len(result.Errs) > 0) {
		return fmt.Errorf("%d skipped, %d errors", len(result.Skipped), len(result.Errs))
	}
	return nil
}
