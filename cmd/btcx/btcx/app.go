// Package btcx implements the btcx command line: the light client daemon and
// the client commands that talk to it.
package btcx

import (
	"context"
	"io"
	"net/url"

	"github.com/bitcoin-sv/btcx/services/api"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util/kafka"
	"github.com/urfave/cli/v2"
)

type app struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	out         io.Writer
	dial        func(ctx context.Context, address, apiKey string) (*api.Client, error)
	tipConsumer func(kafkaURL *url.URL) (*kafka.TipConsumer, error)
}

// NewApp returns the btcx command line. Command output goes to out.
func NewApp(logger ulogger.Logger, tSettings *settings.Settings, out io.Writer) *cli.App {
	a := &app{
		logger:      logger,
		settings:    tSettings,
		out:         out,
		tipConsumer: kafka.NewTipConsumer,
	}

	a.dial = func(ctx context.Context, address, apiKey string) (*api.Client, error) {
		return api.NewClient(ctx, a.logger, a.settings, address, apiKey)
	}

	return a.cliApp()
}

func (a *app) cliApp() *cli.App {
	return &cli.App{
		Name:      "btcx",
		Usage:     "proof-of-work header chain light client",
		Writer:    a.out,
		ErrWriter: a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "gRPC address of the light client",
				Value: a.settings.LightClient.GRPCAddress,
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "admin token for authorize and revoke",
				EnvVars: []string{"BTCX_ADMIN_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the light client daemon",
				Action: a.serve,
			},
			{
				Name:   "status",
				Usage:  "print the canonical tip",
				Action: a.status,
			},
			{
				Name:   "submit",
				Usage:  "submit raw headers to the direct submitter",
				Action: a.submit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Usage: "hash of the retained parent header", Required: true},
					&cli.StringFlag{Name: "hex", Usage: "concatenated headers in hex"},
					&cli.StringFlag{Name: "file", Usage: "file of concatenated headers, raw or hex"},
				},
			},
			{
				Name:   "request",
				Usage:  "ask the relay for an attestation",
				Action: a.request,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Usage: "hash of the retained parent header", Required: true},
					&cli.Uint64Flag{Name: "count", Usage: "number of headers on top of parent", Required: true},
				},
			},
			{
				Name:   "submitters",
				Usage:  "list the authorized submitters",
				Action: a.submitters,
			},
			{
				Name:   "authorize",
				Usage:  "authorize a submitter",
				Action: a.setSubmitter(true),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "submitter id", Required: true},
				},
			},
			{
				Name:   "revoke",
				Usage:  "revoke a submitter",
				Action: a.setSubmitter(false),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "submitter id", Required: true},
				},
			},
			{
				Name:   "fetch",
				Usage:  "copy headers from a bitcoind RPC node on top of the tip",
				Action: a.fetch,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rpc", Usage: "node RPC URL", Value: a.settings.RPC.URL},
					&cli.Uint64Flag{Name: "count", Usage: "headers to copy, 0 for up to the node's tip"},
					&cli.Uint64Flag{Name: "batch", Usage: "headers per submission", Value: 1000},
				},
			},
			{
				Name:   "watch",
				Usage:  "print tip notifications from kafka",
				Action: a.watch,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "from-start", Usage: "read the topic from the oldest offset"},
				},
			},
		},
	}
}

func (a *app) client(c *cli.Context) (*api.Client, error) {
	return a.dial(c.Context, c.String("address"), c.String("api-key"))
}

func (a *app) printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = a.out.Write(append(b, '\n'))

	return err
}
