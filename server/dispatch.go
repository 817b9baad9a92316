package server

import (
	"encoding/json"
	"fmt"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// registry maps method names to handlers. It is shared by /rpc and /ws.
func (s *Server) registry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"status":  s.handleStatus,
		"devices": s.handleDevices,
		"lines":   s.handleLines,
	}
}

// Execute dispatches a method call without going through HTTP.
func (s *Server) Execute(method string, params json.RawMessage) (interface{}, error) {
	handler, exists := s.registry()[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(params)
}

func (s *Server) handleStatus(params json.RawMessage) (interface{}, error) {
	return RunStatus{
		RunID:     s.status.RunID(),
		StartedAt: s.status.StartedAt(),
		Devices:   s.status.Status(),
	}, nil
}

func (s *Server) handleDevices(params json.RawMessage) (interface{}, error) {
	return s.status.Status(), nil
}

func (s *Server) handleLines(params json.RawMessage) (interface{}, error) {
	if s.lines == nil {
		return nil, fmt.Errorf("console lines are not available")
	}
	return s.lines.Lines(), nil
}
