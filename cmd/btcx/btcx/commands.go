package btcx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/urfave/cli/v2"
)

func (a *app) status(c *cli.Context) error {
	client, err := a.client(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	tip, err := client.Tip(c.Context)
	if err != nil {
		return err
	}

	return a.printJSON(tip)
}

func (a *app) submit(c *cli.Context) error {
	parent, err := chainhash.NewHashFromStr(c.String("parent"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid --parent", err)
	}

	headers, err := readHeaders(c.String("hex"), c.String("file"))
	if err != nil {
		return err
	}

	client, err := a.client(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	tip, err := client.Submit(c.Context, parent, headers)
	if err != nil {
		return err
	}

	return a.printJSON(tip)
}

// readHeaders takes headers from hexHeaders or, failing that, from file. A
// file is read as hex when it decodes as such, raw otherwise.
func readHeaders(hexHeaders, file string) ([]byte, error) {
	switch {
	case hexHeaders != "" && file != "":
		return nil, errors.NewInvalidArgumentError("--hex and --file are exclusive")

	case hexHeaders != "":
		b, err := hex.DecodeString(hexHeaders)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("--hex is not hex", err)
		}

		return b, nil

	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("failed to read %s", file, err)
		}

		if decoded, err := hex.DecodeString(string(bytes.TrimSpace(b))); err == nil {
			return decoded, nil
		}

		return b, nil
	}

	return nil, errors.NewInvalidArgumentError("one of --hex or --file is required")
}

func (a *app) request(c *cli.Context) error {
	parent, err := chainhash.NewHashFromStr(c.String("parent"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid --parent", err)
	}

	count, err := safeconversion.Uint64ToUint32(c.Uint64("count"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid --count", err)
	}

	client, err := a.client(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	resp, err := client.RequestAttestation(c.Context, parent, count)
	if err != nil {
		return err
	}

	return a.printJSON(resp)
}

func (a *app) submitters(c *cli.Context) error {
	client, err := a.client(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	ids, err := client.Submitters(c.Context)
	if err != nil {
		return err
	}

	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}

	return nil
}

func (a *app) setSubmitter(authorized bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		client, err := a.client(c)
		if err != nil {
			return err
		}

		defer func() {
			_ = client.Close()
		}()

		id := c.String("id")

		if authorized {
			err = client.Authorize(c.Context, id)
		} else {
			err = client.Revoke(c.Context, id)
		}

		if err != nil {
			return err
		}

		fmt.Fprintf(a.out, "%s authorized=%t\n", id, authorized)

		return nil
	}
}
