package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/layer-3/playground/ports"
)

// DefaultCommand builds a Move package and prints its modules as base64
const DefaultCommand = "sui move build --dump-bytecode-as-base64 --skip-fetch-latest-git-deps --path"

// MoveCLI implements the Builder interface by running a Move build command.
// The package path is appended as the last argument.
type MoveCLI struct {
	args []string
}

// NewMoveCLI parses command with shell quoting rules
func NewMoveCLI(command string) (ports.Builder, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse build command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("build command is empty")
	}
	return &MoveCLI{args: args}, nil
}

// Build runs the command for packagePath and returns the compiled modules
func (b *MoveCLI) Build(ctx context.Context, packagePath string) ([]string, error) {
	args := append(append([]string(nil), b.args[1:]...), packagePath)
	cmd := exec.CommandContext(ctx, b.args[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("failed to build package: %w", err)
		}
		return nil, fmt.Errorf("failed to build package: %w: %s", err, msg)
	}
	return ParseModules(stdout.Bytes())
}

// ParseModules extracts base64 modules from build output. Both the bare array
// format and the object format with a "modules" field are accepted. Build logs
// printed before the JSON document are skipped.
func ParseModules(output []byte) ([]string, error) {
	start := bytes.IndexAny(output, "[{")
	if start < 0 {
		return nil, errors.New("build output contains no modules")
	}
	doc := output[start:]

	var modules []string
	if doc[0] == '[' {
		if err := json.Unmarshal(doc, &modules); err != nil {
			return nil, fmt.Errorf("failed to decode modules: %w", err)
		}
	} else {
		var out struct {
			Modules []string `json:"modules"`
		}
		if err := json.Unmarshal(doc, &out); err != nil {
			return nil, fmt.Errorf("failed to decode modules: %w", err)
		}
		modules = out.Modules
	}

	if len(modules) == 0 {
		return nil, errors.New("build output contains no modules")
	}
	return modules, nil
}
