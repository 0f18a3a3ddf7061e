package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/pkg/mcaller"
)

// rpcInput is the input of the "call" rpc method.
type rpcInput struct {
	Method string
	Params any
}

func newRPCCaller(conn *jsonrpc2.Conn) *mcaller.Caller {
	c := mcaller.New(mcaller.WithRPC(conn))
	c.MustRegister(mcaller.Method{
		Name:        "call",
		Description: "call json-rpc method of the server",
		Kind:        mcaller.KindRPC,
		Func: func(ctx context.Context, call *mcaller.Call, input any) (any, error) {
			in, ok := input.(rpcInput)
			if !ok {
				return nil, fmt.Errorf("%w: expected rpcInput, got %T", mcaller.ErrInvalidInput, input)
			}
			var result any
			if err := call.RPCCall(ctx, in.Method, in.Params, &result); err != nil {
				return nil, err
			}
			return result, nil
		},
	})
	return c
}

func rpcCodec(name string) (jsonrpc2.ObjectCodec, error) {
	switch name {
	case "", "vscode":
		return jsonrpc2.VSCodeObjectCodec{}, nil
	case "plain":
		return jsonrpc2.PlainObjectCodec{}, nil
	case "varint":
		return jsonrpc2.VarintObjectCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec '%s': expected vscode, plain or varint", name)
}

func rpcCmd() *cli.Command {
	return &cli.Command{
		Name:      "rpc",
		Usage:     "start json-rpc server process and call its method",
		ArgsUsage: "METHOD PARAMS_JSON -- COMMAND [ARGS...]",
		Description: "The server communicates over its stdin/stdout.\n\n" +
			"  aktools rpc initialize '{\"processId\": null}' -- gopls",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "codec",
				Usage: "message framing: vscode (Content-Length headers), plain or varint",
				Value: "vscode",
			},
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			args := cctx.Args().Slice()
			if len(args) < 3 {
				return fmt.Errorf("expected METHOD, PARAMS_JSON and the server command")
			}
			var params any
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("invalid params json: %w", err)
			}
			codec, err := rpcCodec(cctx.String("codec"))
			if err != nil {
				return err
			}

			ctx := cctx.Context
			cmd := exec.CommandContext(ctx, args[2], args[3:]...)
			cmd.Stderr = os.Stderr
			conn, err := mcaller.StartRPCProcess(ctx, cmd, codec)
			if err != nil {
				return err
			}
			defer func() {
				conn.Close()
				if err := cmd.Wait(); err != nil {
					log.Debug("rpc server exited", "error", err)
				}
			}()

			res, err := newRPCCaller(conn).Call(ctx, "call", rpcInput{Method: args[0], Params: params})
			if err != nil {
				return err
			}
			return printValue(cctx, res)
		},
	}
}
