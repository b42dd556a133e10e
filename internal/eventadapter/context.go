package eventadapter

import (
	"regexp"
	"strings"
)

// TaskSections is the result of classifying an issue body's markdown
// headings.
type TaskSections struct {
	Description        string
	AcceptanceCriteria []string
	RelatedFiles       []string
	ContextNotes       string
}

var bulletPrefix = regexp.MustCompile(`^[-*]\s*|^\d+\.\s*`)

// ExtractTaskContext classifies an issue body into sections by
// "## heading" lines: a heading containing "acceptance" or "criteria"
// starts an acceptance-criteria list; "related" or "files" starts a
// related-files list; "context" appends free text as context notes;
// anything else (including the body before the first heading) is
// plain description text.
func ExtractTaskContext(body string) TaskSections {
	var ctx TaskSections
	section := "description"
	var buf []string

	flush := func() {
		saveSection(&ctx, section, buf)
		buf = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			header := strings.ToLower(strings.TrimSpace(line[3:]))
			switch {
			case strings.Contains(header, "acceptance"), strings.Contains(header, "criteria"):
				section = "acceptance_criteria"
			case strings.Contains(header, "related"), strings.Contains(header, "files"):
				section = "related_files"
			case strings.Contains(header, "context"):
				section = "context_notes"
			default:
				section = "description"
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return ctx
}

func saveSection(ctx *TaskSections, section string, lines []string) {
	content := strings.TrimSpace(strings.Join(lines, "\n"))

	switch section {
	case "description":
		if content != "" && ctx.Description != "" {
			ctx.Description += "\n\n"
		}
		ctx.Description += content
	case "context_notes":
		if content != "" && ctx.ContextNotes != "" {
			ctx.ContextNotes += "\n\n"
		}
		ctx.ContextNotes += content
	case "acceptance_criteria":
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if !isBullet(line) {
				continue
			}
			if c := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, "")); c != "" {
				ctx.AcceptanceCriteria = append(ctx.AcceptanceCriteria, c)
			}
		}
	case "related_files":
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
				continue
			}
			path := strings.TrimSpace(strings.TrimLeft(line, "-* "))
			if path != "" && (strings.Contains(path, "/") || strings.Contains(path, ".")) {
				ctx.RelatedFiles = append(ctx.RelatedFiles, path)
			}
		}
	}
}

// isBullet reports whether line starts a bulleted or numbered list
// item: a "-", "*", or "1."-"9." prefix.
func isBullet(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	for d := '1'; d <= '9'; d++ {
		if strings.HasPrefix(line, string(d)+".") {
			return true
		}
	}
	return false
}
