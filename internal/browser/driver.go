package browser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Driver abstracts the third-party chat page automation. Element-not-found
// and navigation failures surface as plain errors; the relay worker decides
// when repeated failures warrant escalation.
type Driver interface {
	// Open navigates to the chat page and waits for the input control.
	Open(ctx context.Context) error
	// Ask types the question, clicks send, waits the fixed reply window and
	// returns the latest reply text on the page.
	Ask(ctx context.Context, question string) (string, error)
	// Close shuts the page down.
	Close(ctx context.Context) error
}

// Config holds configuration for the agent-browser driver.
type Config struct {
	TargetURL string        // third-party chat page
	Image     string        // container image (default: laojia-browser-sandbox:latest)
	Timeout   time.Duration // per-invocation command timeout (default: 60s)
	ReplyWait time.Duration // fixed wait for the page to produce a reply (default: 15s)
	InputRef  string        // selector for the message input (default: textarea)
	SendRef   string        // selector for the send button
	ReplyRef  string        // selector for reply message bodies
}

// chatPage drives the page by running agent-browser commands in an isolated
// container, one invocation per step.
type chatPage struct {
	cfg Config
}

// NewChatPage creates a Driver for the configured chat page.
func NewChatPage(cfg Config) Driver {
	if cfg.Image == "" {
		cfg.Image = "laojia-browser-sandbox:latest"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ReplyWait == 0 {
		cfg.ReplyWait = 15 * time.Second
	}
	if cfg.InputRef == "" {
		cfg.InputRef = "textarea"
	}
	if cfg.SendRef == "" {
		cfg.SendRef = "button[type=submit]"
	}
	if cfg.ReplyRef == "" {
		cfg.ReplyRef = ".message-content"
	}

	return &chatPage{cfg: cfg}
}

// allowedCommands is the whitelist of agent-browser subcommands the driver
// may execute.
var allowedCommands = map[string]bool{
	"open":  true,
	"fill":  true,
	"click": true,
	"wait":  true,
	"get":   true,
	"close": true,
}

func (p *chatPage) Open(ctx context.Context) error {
	if !strings.HasPrefix(p.cfg.TargetURL, "http://") && !strings.HasPrefix(p.cfg.TargetURL, "https://") {
		return fmt.Errorf("invalid target URL: must start with http:// or https://")
	}

	_, err := p.run(ctx, []string{
		fmt.Sprintf("open %q", p.cfg.TargetURL),
		fmt.Sprintf("wait %q", p.cfg.InputRef),
	})
	return err
}

func (p *chatPage) Ask(ctx context.Context, question string) (string, error) {
	_, err := p.run(ctx, []string{
		fmt.Sprintf("fill %q %q", p.cfg.InputRef, question),
		fmt.Sprintf("click %q", p.cfg.SendRef),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send question: %w", err)
	}

	// The page gives no completion signal; a fixed wait is all we have.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(p.cfg.ReplyWait):
	}

	out, err := p.run(ctx, []string{
		fmt.Sprintf("get text %q --last", p.cfg.ReplyRef),
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract reply: %w", err)
	}

	reply := strings.TrimSpace(out)
	if reply == "" {
		return "", fmt.Errorf("reply element empty or not found")
	}
	return reply, nil
}

func (p *chatPage) Close(ctx context.Context) error {
	_, err := p.run(ctx, []string{"close"})
	return err
}

// run executes a sequence of agent-browser commands in a container.
func (p *chatPage) run(ctx context.Context, commands []string) (string, error) {
	for _, cmd := range commands {
		if err := validateCommand(cmd); err != nil {
			return "", err
		}
	}

	var script strings.Builder
	script.WriteString("set -e\n")
	for _, cmd := range commands {
		script.WriteString(fmt.Sprintf("agent-browser %s\n", cmd))
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	args := []string{
		"run", "--rm",
		"--network=host", // the page lives on the public internet
		"--shm-size=2g",  // needed for Chrome
		p.cfg.Image,
		"sh", "-c", script.String(),
	}

	cmd := exec.CommandContext(ctx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("timeout after %s", p.cfg.Timeout)
		}
		return "", fmt.Errorf("browser command failed: %w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}

// validateCommand checks the subcommand against the allowlist and rejects
// shell metacharacters so question text cannot escape the quoting.
func validateCommand(cmd string) error {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return fmt.Errorf("empty command")
	}

	if !allowedCommands[parts[0]] {
		return fmt.Errorf("command not allowed: %s", parts[0])
	}

	dangerous := []string{";", "&", "|", "`", "$", "<", ">", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(cmd, d) {
			return fmt.Errorf("invalid characters in command")
		}
	}

	return nil
}
