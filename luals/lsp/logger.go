package lsp

import (
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// logger sends messages to the client with window/logMessage and mirrors them to the process log.
type logger struct {
	client *client
	zap    *zap.Logger
}

func newLogger(client *client, zapLogger *zap.Logger) *logger {
	return &logger{
		client: client,
		zap:    zapLogger,
	}
}

func (l *logger) Errorf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	l.zap.Error(msg)
	l.log(protocol.MessageTypeError, msg)
}

func (l *logger) Warningf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	l.zap.Warn(msg)
	l.log(protocol.MessageTypeWarning, msg)
}

func (l *logger) log(typ protocol.MessageType, msg string) {
	err := l.client.WindowLogMessage(&protocol.LogMessageParams{
		Type:    typ,
		Message: msg,
	})
	if err != nil {
		l.zap.Warn("Failed to send log message to client", zap.Error(err))
	}
}
