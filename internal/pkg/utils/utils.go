package utils

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// RunCommand executes external binary and returns its trimmed standard output.
// Standard error lines are logged on debug level.
func RunCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	scan := bufio.NewScanner(&stderr)
	for scan.Scan() {
		log.Info(fmt.Sprintf("[%s] e> %s", name, scan.Text()), logger.Debug)
	}

	if err != nil {
		return "", fmt.Errorf("running %s failed: %w", name, err)
	}
	out := strings.TrimSpace(stdout.String())
	log.Info(fmt.Sprintf("[%s] done", name), zap.Strings("args", args), logger.Debug)
	return out, nil
}
