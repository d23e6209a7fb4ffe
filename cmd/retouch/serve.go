package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/server"
	"github.com/example/retouch/internal/store"
)

type serveCmd struct {
	command
	listen   string
	storage  string
	dir      string
	logLevel string
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	sc := r.config.Server
	c := &serveCmd{command: newCommand(r, "serve")}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.listen, "listen", sc.Listen, "address to listen on")
	c.fs.StringVar(&c.storage, "storage", sc.Storage, "storage backend: filesystem, memory, sqlite or s3")
	c.fs.StringVar(&c.dir, "dir", sc.UploadsDir, "uploads directory; also the URL prefix of stored files")
	c.fs.StringVar(&c.logLevel, "loglevel", sc.LogLevel, "log level (debug, info, warn, error)")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *serveCmd) storeConfig() store.Config {
	sc := c.config.Server
	return store.Config{
		Type:      c.storage,
		Dir:       c.dir,
		SQLiteDSN: sc.SQLiteDSN,
		S3Bucket:  sc.S3Bucket,
		S3Prefix:  c.dir,
	}
}

func (c *serveCmd) serverConfig() server.Config {
	sc := c.config.Server
	return server.Config{
		Listen:         c.listen,
		Prefix:         c.dir,
		ClientHosts:    c.config.ClientHosts(),
		MaxUploadBytes: sc.MaxUploadBytes,
	}
}

func (c *serveCmd) Run() error {
	if err := setLogLevel(c.logLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	st, err := store.New(ctx, c.storeConfig())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if closer, ok := st.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logrus.WithError(err).Warn("close storage")
			}
		}()
	}

	return server.New(st, c.serverConfig()).ListenAndServe(ctx)
}
