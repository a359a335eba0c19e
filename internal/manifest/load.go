package manifest

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Load reads and compiles a single manifest file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return Compile(v)
}

// LoadDir compiles a manifest split across the CUE files of a directory.
// The files are unified into one instance, so facet declarations and
// provisions may live in separate files.
func LoadDir(dir string) (*Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("accessing manifest directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

// LoadAndBuild is the common path from a manifest file to a runnable
// program.
func LoadAndBuild(path string) (*Program, error) {
	var spec *Spec
	var err error
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		spec, err = LoadDir(path)
	} else {
		spec, err = Load(path)
	}
	if err != nil {
		return nil, err
	}
	return Build(spec)
}
