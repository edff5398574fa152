package services

import "topdock/internal/infrastructure/logging"

// LogSink writes every published snapshot to a logger.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a sink that logs at info level
func NewLogSink(logger logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(snapshot Snapshot) {
	fields := []interface{}{
		"sequence", snapshot.Sequence,
		"title", snapshot.Window.Title,
		"has_icon", snapshot.HasIcon(),
	}
	if path, ok := snapshot.Window.Path(); ok {
		fields = append(fields, "executable_path", path)
	}
	if snapshot.IconReason != "" {
		fields = append(fields, "icon_reason", snapshot.IconReason)
	}

	s.logger.Info("Foreground changed", fields...)
}
