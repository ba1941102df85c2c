package meta

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/observability"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// TypePathsEnv names the environment variable holding the manifest search
// paths, separated by the platform list separator.
const TypePathsEnv = "RIGMETA_TYPE_PATHS"

// PathsFromEnv returns the manifest search paths configured through
// TypePathsEnv, empty entries dropped.
func PathsFromEnv() []string {
	var out []string
	for _, p := range filepath.SplitList(os.Getenv(TypePathsEnv)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// manifestFile is the TOML shape of a type manifest:
//
//	[[type]]
//	name = "Rig"
//
//	[[type.attribute]]
//	name = "jointCount"
//	kind = "int"
//	default = 5
type manifestFile struct {
	Types []manifestType `toml:"type"`
}

type manifestType struct {
	Name       string         `toml:"name"`
	Attributes []manifestAttr `toml:"attribute"`
}

type manifestAttr struct {
	Name        string   `toml:"name"`
	Kind        string   `toml:"kind"`
	IsArray     bool     `toml:"isArray"`
	Value       any      `toml:"value"`
	Default     any      `toml:"default"`
	Min         *float64 `toml:"min"`
	Max         *float64 `toml:"max"`
	SoftMin     *float64 `toml:"softMin"`
	SoftMax     *float64 `toml:"softMax"`
	EnumOptions []string `toml:"enumOptions"`
	Keyable     bool     `toml:"keyable"`
	ChannelBox  bool     `toml:"channelBox"`
	Locked      bool     `toml:"locked"`
}

func (a manifestAttr) toSpec() (scene.AttrSpec, error) {
	kind, err := attr.ParseKind(a.Kind)
	if err != nil {
		return scene.AttrSpec{}, errors.Wrap(errors.ErrCodeUnsupportedKind, err,
			"attribute %q", a.Name)
	}
	return scene.AttrSpec{
		Name:        a.Name,
		Kind:        kind,
		IsArray:     a.IsArray,
		Value:       a.Value,
		Default:     a.Default,
		Min:         a.Min,
		Max:         a.Max,
		SoftMin:     a.SoftMin,
		SoftMax:     a.SoftMax,
		EnumOptions: a.EnumOptions,
		Keyable:     a.Keyable,
		ChannelBox:  a.ChannelBox,
		Locked:      a.Locked,
	}, nil
}

// ScanPaths loads type manifests from the given files and directories
// (non-recursive, *.toml) and registers every declared type. Scanning is
// resilient per file: a bad manifest is reported through the registry hooks
// and skipped, siblings still load. Returns the number of types registered
// by this scan; already-registered names count as zero because Register is
// first-wins, which makes re-scans idempotent.
func (r *Registry) ScanPaths(paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		if err := errors.ValidateManifestPath(path); err != nil {
			observability.Registry().OnManifestLoaded(path, 0, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			observability.Registry().OnManifestLoaded(path, 0, err)
			continue
		}
		if !info.IsDir() {
			total += r.loadManifest(path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			observability.Registry().OnManifestLoaded(path, 0, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
				continue
			}
			total += r.loadManifest(filepath.Join(path, e.Name()))
		}
	}
	return total, nil
}

// ScanEnv scans the paths configured through TypePathsEnv.
func (r *Registry) ScanEnv() (int, error) {
	return r.ScanPaths(PathsFromEnv())
}

func (r *Registry) loadManifest(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		observability.Registry().OnManifestLoaded(path, 0, err)
		return 0
	}
	var mf manifestFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		observability.Registry().OnManifestLoaded(path, 0,
			errors.Wrap(errors.ErrCodeInvalidInput, err, "manifest %s", path))
		return 0
	}

	count := 0
	for _, t := range mf.Types {
		if t.Name == "" {
			continue
		}
		if r.Register(t.Name, manifestConstructor(t)) {
			count++
		}
	}
	observability.Registry().OnManifestLoaded(path, count, nil)
	return count
}

// manifestConstructor builds the constructor for a manifest-declared type:
// a Generic that installs the declared attributes when they are missing,
// so it behaves the same at creation and at rehydration.
func manifestConstructor(t manifestType) Constructor {
	return func(base *Node) (Typed, error) {
		for _, a := range t.Attributes {
			_, exists, err := base.Attribute(a.Name)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}
			spec, err := a.toSpec()
			if err != nil {
				return nil, err
			}
			if _, err := base.AddAttribute(spec); err != nil {
				return nil, err
			}
		}
		return &Generic{base: base, tag: t.Name}, nil
	}
}
