package main

import (
	"context"
	"fmt"
	"io"
	"os"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Globals struct {
	Debug  bool      `help:"Enable debug logging." env:"OPDS_DEBUG"`
	Output io.Writer `kong:"-"`
}

type CLI struct {
	Globals

	Parse ParseCmd `cmd:"" help:"Fetch OPDS catalogs and print them as JSON."`
	Serve ServeCmd `cmd:"" help:"Run HTTP gateway which returns OPDS catalogs as JSON."`
}

func main() {
	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("opds"),
		kong.Description("OPDS 1 and OPDS 2 catalog parser."),
		kong.UsageOnError())

	logger, err := newLogger(cli.Debug)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize the logger: %s.\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := logging.WithLogger(context.Background(), logger.Sugar())
	kongCtx.BindTo(ctx, (*context.Context)(nil))

	cli.Output = os.Stdout
	if err := kongCtx.Run(&cli.Globals); err != nil {
		logging.L(ctx).Errorf("%s.", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}
