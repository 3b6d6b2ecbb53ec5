package utils

import (
	"fmt"
	"strings"
)

// AddToLogMessage appends one entry to a per-operation log message.
func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	if logMessagesBuilder == nil {
		return
	}
	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {
		logMessagesBuilder.Grow(len(strToAdd) + 2)
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// AddToLogMessagef is AddToLogMessage with fmt.Sprintf formatting.
func AddToLogMessagef(logMessagesBuilder *strings.Builder, format string, args ...any) {
	AddToLogMessage(logMessagesBuilder, fmt.Sprintf(format, args...))
}
