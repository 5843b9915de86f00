// Package jsonrpc provides a JSON-RPC 2.0 server implementation for the version of the protocol defined at
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#baseProtocol.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const readChunkSize = 4096

// Handler responds to JSON-RPC requests and notifications.
type Handler interface {
	// HandleRequest returns the result of a request. If the returned error is a [*ResponseError] then it's sent to the
	// client as is, otherwise it's sent as an internal error.
	HandleRequest(method string, params *json.RawMessage) (any, error)
	// HandleNotification handles a notification. Any returned error is logged, since notifications are never responded
	// to.
	HandleNotification(method string, params *json.RawMessage) error
}

// Option can be passed to [Serve] to configure its behaviour.
type Option func(*server)

// WithLogger sets the logger which the server logs to. By default, nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// Serve reads JSON-RPC messages from in, passes them to the handler returned by newHandler, and writes the responses
// to out. newHandler is passed a [*Client] which can be used to send notifications to the other end of the
// connection.
// Messages are handled one at a time in the order that they're received. Serve returns nil once in is exhausted.
func Serve(in io.Reader, out io.Writer, newHandler func(*Client) Handler, opts ...Option) error {
	s := &server{
		in:     in,
		out:    out,
		frames: NewFrameReader(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = newHandler(newClient(s))
	return s.Serve()
}

type server struct {
	in      io.Reader
	out     io.Writer
	frames  *FrameReader
	handler Handler
	logger  *zap.Logger
}

func (s *server) Serve() error {
	buf := make([]byte, readChunkSize)
	for {
		n, readErr := s.in.Read(buf)
		if n > 0 {
			payloads, err := s.frames.Feed(buf[:n])
			for _, payload := range payloads {
				if err := s.handlePayload(payload); err != nil {
					return fmt.Errorf("serving jsonrpc requests: %w", err)
				}
			}
			if err != nil {
				s.logger.Warn("Discarded malformed message header", zap.Error(err))
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if buffered := s.frames.Buffered(); buffered > 0 {
					s.logger.Warn("EOF reached with incomplete message buffered", zap.Int("bytes", buffered))
				}
				s.logger.Info("EOF reached, stopping server")
				return nil
			}
			return fmt.Errorf("serving jsonrpc requests: %w", readErr)
		}
	}
}

func (s *server) handlePayload(payload []byte) error {
	s.logger.Debug("Received message", zap.ByteString("content", payload))
	msg, err := unmarshalMessage(payload)
	if err != nil {
		var respErr *ResponseError
		if !errors.As(err, &respErr) {
			respErr = newInternalError(err.Error())
		}
		msgID, ok := salvageID(payload)
		if !ok {
			s.logger.Warn("Dropping message without an id which could not be read", zap.Error(err))
			return nil
		}
		s.logger.Warn("Responding to message which could not be read", zap.Stringer("id", msgID), zap.Error(err))
		return s.write(&response{JSONRPC: validJSONRPC, ID: msgID, Error: respErr})
	}
	return s.handle(msg)
}

func (s *server) write(msg message) error {
	content, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	s.logger.Debug("Sending message", zap.ByteString("content", content))
	if err := WriteFrame(s.out, content); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

func (s *server) handle(msg message) error {
	switch msg := msg.(type) {
	case *request:
		result, err := s.handler.HandleRequest(msg.Method, msg.Params)
		resp := &response{JSONRPC: validJSONRPC, ID: msg.ID}
		if err != nil {
			var respErr *ResponseError
			if errors.As(err, &respErr) {
				resp.Error = respErr
			} else {
				resp.Error = newInternalError(err.Error())
			}
			s.logger.Debug("Request failed", zap.String("method", msg.Method), zap.Error(err))
		} else {
			resultBytes, err := json.Marshal(result)
			if err != nil {
				resp.Error = newInternalError(fmt.Sprintf("unable to marshal result: %v", err))
			} else {
				rawMsg := json.RawMessage(resultBytes)
				resp.Result = &rawMsg
			}
		}
		if writeErr := s.write(resp); writeErr != nil {
			return fmt.Errorf("handling message: %w", writeErr)
		}

	case *notification:
		if err := s.handler.HandleNotification(msg.Method, msg.Params); err != nil {
			s.logger.Error("Error handling notification", zap.String("method", msg.Method), zap.Error(err))
		}

	case *response:
		s.logger.Info("Ignoring response message", zap.Stringer("id", msg.ID))
	}

	return nil
}
