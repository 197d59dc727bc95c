// Package stageconfig loads stage sets from YAML. Built-in sets are embedded
// in the binary; any other name is read as a file path.
package stageconfig

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

//go:embed sets/*.yaml
var builtin embed.FS

// Builtins lists the names of the embedded stage sets
func Builtins() []string {
	entries, err := builtin.ReadDir("sets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Load resolves nameOrPath to an embedded set or a YAML file and validates it
func Load(nameOrPath string) (*stage.Set, error) {
	data, err := read(nameOrPath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a stage set. Unknown fields are rejected so a
// typo in a mechanism key fails at startup instead of scoring silently.
func Parse(data []byte) (*stage.Set, error) {
	var def stage.Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, core.NewValidationError("stage set", "document is empty")
		}
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return stage.NewSet(def, core.NewSetFingerprint(data))
}

func read(nameOrPath string) ([]byte, error) {
	name := strings.TrimSpace(nameOrPath)
	if name == "" {
		return nil, core.NewValidationError("stage set", "name must not be empty")
	}
	if !strings.ContainsAny(name, `/\`) && !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		data, err := builtin.ReadFile(path.Join("sets", name+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", core.ErrStageSetUnknown, name)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrStageSetUnknown, name)
		}
		return nil, fmt.Errorf("read stage set %s: %w", name, err)
	}
	return data, nil
}
