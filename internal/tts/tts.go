package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// DefaultVoice is the Mandarin voice used when none is configured.
const DefaultVoice = "zh-CN-YunxiNeural"

// Available reports whether the edge-tts CLI is installed. Synthesis is a
// rendering side effect; a missing binary disables the feature instead of
// failing startup.
func Available() bool {
	_, err := exec.LookPath("edge-tts")
	return err == nil
}

// Synthesizer converts reply text to mp3 files via the edge-tts CLI,
// writing them under per-user audio directories.
type Synthesizer struct {
	voice string
	root  string
}

// NewSynthesizer creates a Synthesizer writing under root/users/<name>/audio.
func NewSynthesizer(voice, root string) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{voice: voice, root: root}
}

var (
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	backtickRe = regexp.MustCompile("`(.*?)`")
)

// cleanMarkdown strips the markdown the model tends to emit; reading
// asterisks aloud ruins the voice experience.
func cleanMarkdown(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = backtickRe.ReplaceAllString(text, "$1")
	return text
}

// Synthesize renders text to an mp3 in the user's audio directory and
// returns the path relative to the user directory.
func (s *Synthesizer) Synthesize(ctx context.Context, username, text string) (string, error) {
	dir := filepath.Join(s.root, "users", username, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	name := uuid.NewString() + ".mp3"
	outFile := filepath.Join(dir, name)

	cmd := exec.CommandContext(ctx, "edge-tts",
		"--voice", s.voice,
		"--text", cleanMarkdown(text),
		"--write-media", outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("edge-tts failed: %v: %s", err, out)
	}

	return filepath.Join("audio", name), nil
}
