package bridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"disc3d-batch/core/engine"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ResponsePrefix marks protocol lines on the engine's stdout. Everything else the
// engine prints (progress, warnings) is passed to the logger.
const ResponsePrefix = "@@disc3d "

// Error kinds sent by the bridge script.
const (
	errKindShapeMismatch   = "shape_mismatch"
	errKindOperationFailed = "operation_failed"
)

type request struct {
	ID   uint64      `json:"id"`
	Op   string      `json:"op"`
	Args engine.Args `json:"args"`
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type response struct {
	ID     uint64        `json:"id"`
	OK     bool          `json:"ok"`
	Result engine.Result `json:"result"`
	Error  *wireError    `json:"error"`
}

// Conn speaks the line protocol with a running bridge script. Calls are serialized;
// the engine processes one operation at a time.
type Conn struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	logger *zap.Logger
	nextID uint64
}

// NewConn creates a connection writing requests to w and reading responses from r.
func NewConn(r io.Reader, w io.Writer, logger *zap.Logger) *Conn {
	return &Conn{
		w:      w,
		r:      bufio.NewReaderSize(r, 64*1024),
		logger: logger,
	}
}

// Call sends one operation and waits for its response.
func (c *Conn) Call(ctx context.Context, op string, args engine.Args) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if args == nil {
		args = engine.Args{}
	}

	line, err := json.Marshal(request{ID: id, Op: op, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}
	line = append(line, '\n')
	if _, err := c.w.Write(line); err != nil {
		return nil, &engine.OperationError{Op: op, Message: fmt.Sprintf("engine connection closed: %v", err)}
	}

	resp, err := c.readResponse(op)
	if err != nil {
		return nil, err
	}
	if resp.ID != id {
		return nil, &engine.OperationError{Op: op, Message: fmt.Sprintf("response id %d does not match request id %d", resp.ID, id)}
	}
	if resp.OK {
		if resp.Result == nil {
			resp.Result = engine.Result{}
		}
		return resp.Result, nil
	}

	if resp.Error == nil {
		return nil, &engine.OperationError{Op: op, Message: "engine reported failure without detail"}
	}
	if resp.Error.Kind == errKindShapeMismatch {
		return nil, &engine.ShapeMismatchError{Op: op, Detail: resp.Error.Message}
	}
	return nil, &engine.OperationError{Op: op, Message: resp.Error.Message}
}

func (c *Conn) readResponse(op string) (*response, error) {
	for {
		raw, err := c.r.ReadBytes('\n')
		if len(raw) > 0 {
			line := bytes.TrimRight(raw, "\r\n")
			if payload, ok := bytes.CutPrefix(line, []byte(ResponsePrefix)); ok {
				var resp response
				if err := json.Unmarshal(payload, &resp); err != nil {
					return nil, &engine.OperationError{Op: op, Message: fmt.Sprintf("malformed engine response: %v", err)}
				}
				return &resp, nil
			}
			if len(line) > 0 {
				c.logger.Debug("engine output", zap.ByteString("line", line))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &engine.OperationError{Op: op, Message: "engine exited before responding"}
			}
			return nil, &engine.OperationError{Op: op, Message: fmt.Sprintf("failed to read engine output: %v", err)}
		}
	}
}
