package codingtool

import "os"

// secretEnv copies a source environment variable into a DEST=value
// pair if the source is set, so each variant injects only the
// credentials it actually uses.
func secretEnv(dest, src string) []string {
	if v := os.Getenv(src); v != "" {
		return []string{dest + "=" + v}
	}
	return nil
}

// NewClaudeCode returns the "claude-code" variant: prompt passed via
// -p, non-interactive.
func NewClaudeCode() Tool {
	return newProcess(spec{
		name:        "claude-code",
		binName:     "claude",
		envOverride: "CLAUDE_PATH",
		knownDirs:   []string{"~/.local/bin", "/opt/homebrew/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"-p", prompt, "--dangerously-skip-permissions"}
		},
		extraEnv: func() []string {
			return secretEnv("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
		},
	})
}

// NewAider returns the "aider" variant: prompt passed via --message,
// auto-committing disabled since the agent loop owns commits.
func NewAider() Tool {
	return newProcess(spec{
		name:        "aider",
		binName:     "aider",
		envOverride: "AIDER_PATH",
		knownDirs:   []string{"~/.local/bin", "/opt/homebrew/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"--yes", "--no-auto-commits", "--message", prompt}
		},
		extraEnv: func() []string {
			return secretEnv("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
		},
	})
}

// NewCodex returns the "codex" variant.
func NewCodex() Tool {
	return newProcess(spec{
		name:        "codex",
		binName:     "codex",
		envOverride: "CODEX_PATH",
		knownDirs:   []string{"~/.local/bin", "/opt/homebrew/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"exec", prompt}
		},
		extraEnv: func() []string {
			return secretEnv("OPENAI_API_KEY", "OPENAI_API_KEY")
		},
	})
}

// NewGemini returns the "gemini" variant.
func NewGemini() Tool {
	return newProcess(spec{
		name:        "gemini",
		binName:     "gemini",
		envOverride: "GEMINI_PATH",
		knownDirs:   []string{"~/.local/bin", "/opt/homebrew/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"-p", prompt, "--yolo"}
		},
		extraEnv: func() []string {
			return secretEnv("GOOGLE_API_KEY", "GOOGLE_API_KEY")
		},
	})
}

// NewContinue returns the "continue" variant.
func NewContinue() Tool {
	return newProcess(spec{
		name:        "continue",
		binName:     "cn",
		envOverride: "CONTINUE_PATH",
		knownDirs:   []string{"~/.local/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"run", prompt}
		},
		extraEnv: func() []string {
			return secretEnv("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
		},
	})
}

// NewCursor returns the "cursor" variant (cursor-agent headless mode).
func NewCursor() Tool {
	return newProcess(spec{
		name:        "cursor",
		binName:     "cursor-agent",
		envOverride: "CURSOR_PATH",
		knownDirs:   []string{"~/.local/bin", "/usr/local/bin"},
		buildArgs: func(prompt string) []string {
			return []string{"-p", prompt, "--force"}
		},
		extraEnv: func() []string {
			return secretEnv("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
		},
	})
}
