package chat

// Logger - interface for logging chat events
type Logger interface {
	Println(v ...interface{})
}

func logInfo(l Logger, v ...interface{}) {
	if l == nil {
		return
	}
	l.Println(v...)
}

func logError(l Logger, v ...interface{}) {
	if l == nil {
		return
	}
	l.Println(append([]interface{}{"ERR"}, v...)...)
}

// taggedLogger - prepends tag to every logged line.
type taggedLogger struct {
	Logger
	tag string
}

func (l taggedLogger) Println(v ...interface{}) {
	l.Logger.Println(append([]interface{}{l.tag}, v...)...)
}

// withTag - returns logger which marks lines with the tag, nil stays nil.
func withTag(l Logger, tag string) Logger {
	if l == nil {
		return nil
	}
	return taggedLogger{l, "[" + tag + "]"}
}
