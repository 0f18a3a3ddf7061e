package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/pkg/clitools"
	"github.com/akorshkov/aktools/pkg/connhttp"
	"github.com/akorshkov/aktools/pkg/mcaller"
)

// httpInput is the input of the "request" http method.
type httpInput struct {
	Path string
	Opts connhttp.Options
}

func newHTTPCaller(address, prefix string) *mcaller.Caller {
	var prefixes mcaller.PrefixMap
	var components []string
	if prefix != "" {
		prefixes = mcaller.PrefixMap{"api": prefix}
		components = []string{"api"}
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	c := mcaller.New(mcaller.WithHTTP(connhttp.New(address), prefixes))
	c.MustRegister(mcaller.Method{
		Name:        "request",
		Description: "send http request",
		Kind:        mcaller.KindHTTP,
		Components:  components,
		AuthTypes:   []string{"", "basic", "client", "token"},
		Func: func(ctx context.Context, call *mcaller.Call, input any) (any, error) {
			in, ok := input.(httpInput)
			if !ok {
				return nil, fmt.Errorf("%w: expected httpInput, got %T", mcaller.ErrInvalidInput, input)
			}
			conn, err := call.HTTP()
			if err != nil {
				return nil, err
			}
			log.Info("sending request", "conn", conn.String(), "path", in.Path)
			resp, err := conn.Call(ctx, in.Path, in.Opts)
			if err != nil {
				return nil, err
			}
			if in.Opts.Raw {
				return string(resp.Body), nil
			}
			return resp.Value, nil
		},
	})
	return c
}

func httpCmd() *cli.Command {
	return &cli.Command{
		Name:      "http",
		Usage:     "send http request and print the json response",
		ArgsUsage: "ADDRESS [PATH]",
		Description: "  aktools http https://api.example.com users --param active=1 --user admin --password secret\n" +
			"  aktools http localhost:8080 items --method PUT --data '{\"name\": \"x\"}' --token abc",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "method", Usage: "http method, GET or POST (with --data) by default"},
			&cli.StringSliceFlag{Name: "param", Usage: "key=value query parameter"},
			&cli.StringSliceFlag{Name: "header", Usage: "key=value request header"},
			&cli.StringFlag{Name: "data", Usage: "json request body"},
			&cli.StringFlag{Name: "prefix", Usage: "path prefix of the api"},
			&cli.StringFlag{Name: "user", Usage: "login for basic auth"},
			&cli.StringFlag{Name: "password", Usage: "password for basic auth", EnvVars: []string{"AKTOOLS_HTTP_PASSWORD"}},
			&cli.StringFlag{Name: "token", Usage: "bearer token", EnvVars: []string{"AKTOOLS_HTTP_TOKEN"}},
			&cli.BoolFlag{Name: "raw", Usage: "print the response body as is"},
			&cli.BoolFlag{Name: "methods", Usage: "print available methods of the caller"},
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			if cctx.NArg() < 1 {
				return fmt.Errorf("address is not specified")
			}
			caller := newHTTPCaller(cctx.Args().Get(0), cctx.String("prefix"))
			switch {
			case cctx.IsSet("user"):
				caller = caller.Clone(connhttp.BasicAuth{Login: cctx.String("user"), Password: cctx.String("password")})
			case cctx.IsSet("token"):
				caller = caller.Clone(connhttp.TokenAuth{Token: cctx.String("token")})
			}

			if cctx.Bool("methods") {
				s := clitools.FromContext(cctx)
				return output(cctx, caller.Report(s.Palette(mcaller.Palette))...)
			}

			in := httpInput{Path: cctx.Args().Get(1)}
			in.Opts.Method = cctx.String("method")
			in.Opts.Raw = cctx.Bool("raw")
			params, err := keyValues(cctx.StringSlice("param"))
			if err != nil {
				return err
			}
			if len(params) > 0 {
				in.Opts.Params = url.Values{}
				for k, v := range params {
					in.Opts.Params.Set(k, v)
				}
			}
			if in.Opts.Headers, err = keyValues(cctx.StringSlice("header")); err != nil {
				return err
			}
			if cctx.IsSet("data") {
				var data any
				if err := json.Unmarshal([]byte(cctx.String("data")), &data); err != nil {
					return fmt.Errorf("invalid --data json: %w", err)
				}
				in.Opts.Data = data
			}

			res, err := caller.Call(cctx.Context, "request", in)
			if err != nil {
				return err
			}
			if s, ok := res.(string); ok {
				return output(cctx, s)
			}
			return printValue(cctx, res)
		},
	}
}
