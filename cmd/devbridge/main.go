package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/livebud/cli"
	"github.com/livebud/devbridge/internal/cli/graceful"
	"github.com/livebud/devbridge/internal/cli/hot"
	"github.com/livebud/devbridge/internal/config"
	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/pubsub"
	"github.com/livebud/devbridge/internal/watch"
	"github.com/livebud/watcher"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args ...string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cli := cli.New("devbridge", "serve a directory through rollup-style plugins")

	{ // serve [flags] [dir]
		cmd := &Serve{Log: log}
		cli := cli.Command("serve", "serve a directory")
		cli.Flag("config", "path to the config file").String(&cmd.Config).Default(config.File)
		cli.Flag("listen", "address to listen on").String(&cmd.Listen).Default("")
		cli.Flag("live", "enable live reloading").Bool(&cmd.Live).Default(true)
		cli.Arg("dir").String(&cmd.Dir).Default(".")
		cli.Run(cmd.Run)
	}

	return cli.Parse(ctx, args...)
}

type Serve struct {
	Config string
	Listen string
	Live   bool
	Dir    string
	Log    *slog.Logger

	// listener overrides Listen when set
	listener net.Listener
}

// load the config file from dir. A missing file falls back to the defaults
// rooted at dir.
func (s *Serve) load() (*config.Config, error) {
	path := s.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Dir, path)
	}
	c, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		c = config.Default()
		c.Root = s.Dir
	}
	if s.Listen != "" {
		c.Listen = s.Listen
	}
	c.Live = c.Live && s.Live
	return c, nil
}

func (s *Serve) Run(ctx context.Context) error {
	c, err := s.load()
	if err != nil {
		return err
	}
	log := s.Log
	ps := pubsub.New()
	fileWatcher, err := watch.New(log, ps, hot.Topic)
	if err != nil {
		return err
	}
	defer fileWatcher.Close()

	hotServer := hot.New(ps)
	var extra []devserver.Plugin
	if c.Live {
		extra = append(extra, hotServer)
	}
	dc, err := c.DevServer(log, fileWatcher, extra...)
	if err != nil {
		return err
	}
	if c.Live {
		dc.Inject = append(dc.Inject, hot.ClientPath)
	}
	server, err := devserver.New(dc)
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	if c.Live {
		mux.Handle(hot.EventPath, hotServer)
	}
	mux.Handle("/", server)

	listener := s.listener
	if listener == nil {
		listener, err = net.Listen("tcp", c.Listen)
		if err != nil {
			return fmt.Errorf("devbridge: unable to listen on %s: %w", c.Listen, err)
		}
	}
	log.Info("devbridge: serving", "root", c.Root, "url", "http://"+listener.Addr().String(), "live", c.Live)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return graceful.Serve(ctx, listener, mux) })
	eg.Go(func() error { return fileWatcher.Run(ctx) })
	if c.Live {
		eg.Go(func() error {
			err := watcher.Watch(ctx, c.Root, func(events []watcher.Event) error {
				for _, event := range events {
					log.Debug("devbridge: changed", "path", event.Path)
					ps.Publish(hot.Topic, []byte(event.Path))
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}
