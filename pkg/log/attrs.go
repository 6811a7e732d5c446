package log

import "log/slog"

func QueueID[T ~string](id T) slog.Attr {
	return slog.String("queue_id", string(id))
}

func Script(name string) slog.Attr {
	return slog.String("script", name)
}

func Command(name string) slog.Attr {
	return slog.String("command", name)
}

func RecordID(id string) slog.Attr {
	return slog.String("record_id", id)
}

func Tier[T ~string](tier T) slog.Attr {
	return slog.String("tier", string(tier))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
