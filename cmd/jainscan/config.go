package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/example/jainscan/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r.subcommand("config"), fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

// configActions maps each config verb to its handler.
var configActions = map[string]func(*configCmd) error{
	"print": (*configCmd).print,
	"path":  (*configCmd).path,
	"save":  (*configCmd).save,
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) != 1 {
		return &UsageError{of: c}
	}
	action, ok := configActions[args[0]]
	if !ok {
		verbs := make([]string, 0, len(configActions))
		for v := range configActions {
			verbs = append(verbs, v)
		}
		sort.Strings(verbs)
		return fmt.Errorf("unknown config command %q: want one of %s", args[0], strings.Join(verbs, ", "))
	}
	return action(c)
}

func (c *configCmd) loader() *config.Loader {
	return config.NewLoader(version, c.configPath)
}

func (c *configCmd) print() error {
	_, err := fmt.Fprint(c.stdout, c.config.String())
	return err
}

// path reports the file settings come from, or where save would create one.
func (c *configCmd) path() error {
	l := c.loader()
	if p := l.GetConfigPath(); p != "" {
		_, err := fmt.Fprintln(c.stdout, p)
		return err
	}
	_, err := fmt.Fprintf(c.stdout, "%s (not created)\n", l.SavePath())
	return err
}

func (c *configCmd) save() error {
	path, err := c.loader().Save(c.config)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "configuration saved to %s\n", path)
	return nil
}
