package main

import (
	"context"
	"errors"
	"net"

	"mediahub/internal/media"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch media.KindOf(err) {
	case media.KindValidation:
		lines = append(lines, "hint: the input was rejected; check the file and command flags.")
	case media.KindNotFound:
		lines = append(lines, "hint: confirm the id or content hash with: mediahub show <id|hash>")
	case media.KindFilesystem:
		lines = append(lines, "hint: verify storage.root exists and is writable (mediahub config get storage.root).")
	case media.KindRemote:
		lines = append(lines, "hint: the record or option store failed; check db_path and options.backend.")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check redis and object storage health.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: verify redis.addr when options.backend is redis.",
			"hint: verify publish.endpoint when publish.enabled is true.",
		)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
