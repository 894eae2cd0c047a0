package main

import (
	"fmt"
	"os"

	"github.com/bitcoin-sv/btcx/cmd/btcx/btcx"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/ulogger"
)

func main() {
	tSettings := settings.NewSettings()
	logger := ulogger.New("btcx",
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
	)

	if err := btcx.NewApp(logger, tSettings, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
