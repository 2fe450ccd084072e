package payments

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// URLLauncher opens the gateway redirect target in the platform
// browser/app switcher
type URLLauncher interface {
	OpenURL(ctx context.Context, url string) error
}

// SystemLauncher opens URLs with the OS default handler
type SystemLauncher struct{}

func (SystemLauncher) OpenURL(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open url: %w", err)
	}
	return nil
}
