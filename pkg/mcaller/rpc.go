package mcaller

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/sourcegraph/jsonrpc2"
)

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	rerr := s.reader.Close()
	werr := s.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// notificationsHandler logs requests coming from the server side.
type notificationsHandler struct{}

func (notificationsHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	log.Debug("rpc request from server", "method", req.Method, "notif", req.Notif)
	if !req.Notif {
		err := &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "client does not serve requests"}
		if rerr := conn.ReplyWithError(ctx, req.ID, err); rerr != nil {
			log.Warn("failed to reply to server request", "error", rerr)
		}
	}
}

// NewRPCConn creates a json-rpc 2.0 connection over the stream. nil codec
// means messages with Content-Length headers.
func NewRPCConn(ctx context.Context, rwc io.ReadWriteCloser, codec jsonrpc2.ObjectCodec) *jsonrpc2.Conn {
	if codec == nil {
		codec = jsonrpc2.VSCodeObjectCodec{}
	}
	stream := jsonrpc2.NewBufferedStream(rwc, codec)
	return jsonrpc2.NewConn(ctx, stream, notificationsHandler{})
}

// StartRPCProcess starts the command and returns json-rpc connection over
// its stdin/stdout.
func StartRPCProcess(ctx context.Context, cmd *exec.Cmd, codec jsonrpc2.ObjectCodec) (*jsonrpc2.Conn, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return NewRPCConn(ctx, &stdioReadWriteCloser{reader: stdout, writer: stdin}, codec), nil
}

func (c *Caller) RPCConn() *jsonrpc2.Conn { return c.rpc }

// RPC returns the json-rpc connection for the current rpc method.
func (call *Call) RPC() (*jsonrpc2.Conn, error) {
	if call.method.Kind != KindRPC {
		return nil, fmt.Errorf("%w: %s method %s", ErrWrongKind, call.method.Kind, call.method.Name)
	}
	if call.caller.rpc == nil {
		return nil, fmt.Errorf("%w: no rpc connection", ErrNoConnection)
	}
	return call.caller.rpc, nil
}

// RPCCall is a shortcut for RPC().Call(...).
func (call *Call) RPCCall(ctx context.Context, method string, params, result any) error {
	conn, err := call.RPC()
	if err != nil {
		return err
	}
	if err := conn.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("rpc %s failed: %w", method, err)
	}
	return nil
}

func (c *Caller) rpcNotes() Notes {
	if c.rpc == nil {
		return unavailable("caller has no rpc connection")
	}
	return Notes{Available: true}
}
