package main

import (
	"fmt"
	"io"
	"os"

	"github.com/example/retouch/internal/config"
)

type configCmd struct {
	command
	out io.Writer
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	c := &configCmd{command: newCommand(r, "config"), out: os.Stdout}
	c.fs.Usage = usageFunc(c)
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}
	switch args[0] {
	case "print":
		_, err := io.WriteString(c.out, c.config.String())
		return err
	case "save":
		path := config.NewLoader(version, configPathOverride).SavePath()
		if err := c.config.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}
