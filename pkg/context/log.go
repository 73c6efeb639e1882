package context

import "log/slog"

func slogWarnFetchFailed(source string, err error) {
	slog.Warn("context assembler: source fetch failed, continuing without it", "source", source, "error", err)
}
