// Package hooks runs the user-supplied pre- and post-consume scripts.
// Scripts are ordinary executables; arguments are positional and the
// combined output is surfaced on failure.
package hooks

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Ensure ScriptRunner implements the interface.
var _ driven.HookRunner = (*ScriptRunner)(nil)

// ScriptRunner executes configured shell scripts around consumption.
// Empty paths disable the corresponding hook.
type ScriptRunner struct {
	preScript  string
	postScript string
}

// NewScriptRunner creates a runner for the configured script paths.
func NewScriptRunner(preScript, postScript string) *ScriptRunner {
	return &ScriptRunner{preScript: preScript, postScript: postScript}
}

// RunPreConsume invokes the pre-consume script with the source path.
func (r *ScriptRunner) RunPreConsume(ctx context.Context, sourcePath string) error {
	if r.preScript == "" {
		return nil
	}
	return r.run(ctx, r.preScript, sourcePath)
}

// RunPostConsume invokes the post-consume script with the document
// details as positional arguments.
func (r *ScriptRunner) RunPostConsume(ctx context.Context, args driven.PostConsumeArgs) error {
	if r.postScript == "" {
		return nil
	}
	return r.run(ctx, r.postScript,
		strconv.FormatInt(args.DocumentID, 10),
		args.Filename,
		args.Thumbnail,
		args.DownloadURL,
		args.ThumbnailURL,
		args.Correspondent,
		strings.Join(args.TagNames, ","),
	)
}

func (r *ScriptRunner) run(ctx context.Context, script string, args ...string) error {
	logger.Debug("running hook %s", script)
	cmd := exec.CommandContext(ctx, script, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s: %w: %s", script, err, strings.TrimSpace(string(output)))
	}
	if out := strings.TrimSpace(string(output)); out != "" {
		logger.Debug("hook %s output: %s", script, out)
	}
	return nil
}
