package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/retouch/internal/imagesource"
)

type listCmd struct {
	command
	server string
	out    io.Writer
}

func parseListCmd(args []string, r *root) (*listCmd, error) {
	c := &listCmd{command: newCommand(r, "list"), out: os.Stdout}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.server, "server", "", "upload server URL")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *listCmd) Run() error {
	urls, err := c.client(c.server).List(context.Background())
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(c.out, u)
	}
	return nil
}

type deleteCmd struct {
	command
	server string
	urls   []string
	out    io.Writer
}

func parseDeleteCmd(args []string, r *root) (*deleteCmd, error) {
	c := &deleteCmd{command: newCommand(r, "delete"), out: os.Stdout}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.server, "server", "", "upload server URL")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.fs.NArg() < 1 {
		return nil, &UsageError{of: c}
	}
	c.urls = c.fs.Args()
	return c, nil
}

func (c *deleteCmd) Run() error {
	cl := c.client(c.server)
	for _, u := range c.urls {
		msg, err := cl.Delete(context.Background(), u)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s: %s\n", u, msg)
	}
	return nil
}

type fetchCmd struct {
	command
	server string
	output string
	url    string
}

func parseFetchCmd(args []string, r *root) (*fetchCmd, error) {
	c := &fetchCmd{command: newCommand(r, "fetch")}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.server, "server", "", "upload server URL")
	c.fs.StringVar(&c.output, "output", "", "file to write; defaults to a name derived from the URL")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.url = c.fs.Arg(0)
	return c, nil
}

func (c *fetchCmd) Run() error {
	f, err := c.client(c.server).Fetch(context.Background(), c.url)
	if err != nil {
		return err
	}
	if err := imagesource.Validate(f.Name, f.ContentType); err != nil {
		return err
	}
	out := c.output
	if out == "" {
		out = imagesource.NameFromURL(c.url)
	}
	if err := os.WriteFile(out, f.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", out)
	return nil
}
