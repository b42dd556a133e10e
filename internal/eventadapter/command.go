package eventadapter

import (
	"regexp"
	"strings"
)

// commandPattern is the comment-command grammar: case-insensitive,
// multiline, one command per match.
var commandPattern = regexp.MustCompile(`(?im)^/cloud-code\s+(\w+)(?:\s+(.*))?$`)

// Action names the recognized comment commands.
type Action string

const (
	ActionRun     Action = "run"
	ActionCancel  Action = "cancel"
	ActionStatus  Action = "status"
	ActionHandoff Action = "handoff"
	ActionRetry   Action = "retry"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionConfig  Action = "config"
)

// Command is a parsed /cloud-code comment command.
type Command struct {
	Action Action

	// AgentType is set for "run [agent_type]"; empty means infer.
	AgentType string
	// TargetAgent is set for "handoff <agent_type>".
	TargetAgent string
	// Reason is the free-text argument of "reject [reason]".
	Reason string
	// Key/Value are "config <key> <value>"'s arguments; Value is the
	// rest of the line after the key, so it may itself contain spaces.
	Key   string
	Value string
}

// ParseCommand scans commentBody for the first /cloud-code command and
// tokenizes its arguments per the action. ok is false if no command is
// present.
func ParseCommand(commentBody string) (cmd Command, ok bool) {
	m := commandPattern.FindStringSubmatch(commentBody)
	if m == nil {
		return Command{}, false
	}

	action := Action(strings.ToLower(m[1]))
	args := strings.TrimSpace(m[2])

	cmd = Command{Action: action}
	switch action {
	case ActionRun:
		if args != "" {
			cmd.AgentType = firstToken(args)
		}
	case ActionHandoff:
		cmd.TargetAgent = firstToken(args)
	case ActionReject:
		cmd.Reason = args
	case ActionConfig:
		parts := strings.SplitN(args, " ", 2)
		if len(parts) >= 1 && parts[0] != "" {
			cmd.Key = parts[0]
		}
		if len(parts) == 2 {
			cmd.Value = strings.TrimSpace(parts[1])
		}
	}
	return cmd, true
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
