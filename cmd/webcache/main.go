package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iTrooz/webcache"
	"github.com/iTrooz/webcache/internal/config"
	"github.com/iTrooz/webcache/internal/proxy"
	"github.com/iTrooz/webcache/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const usage = `Usage: webcache [-config file] [-v] <command> [arguments]

Commands:
  get [-force] URL   print the response for URL, from cache when fresh
  cached URL         exit 0 when URL has a fresh cached response
  clear URL          remove the cached response for URL
  flush              remove every cached response
  inspect URL        print the stored record for URL as YAML
  serve              run the caching HTTP proxy
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("webcache", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := flags.String("config", "", "path to a YAML configuration file")
	verbose := flags.Bool("v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}
	setupLogging(cfg, *verbose, stderr)

	command, rest := flags.Arg(0), flags.Args()[1:]
	if command == "serve" {
		return serve(cfg, stderr)
	}

	c, closer, err := cfg.NewCache()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create cache: %v\n", err)
		return 1
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logrus.Errorf("Failed to close cache storage: %v", err)
		}
	}()

	switch command {
	case "get":
		return get(c, rest, stdout, stderr)
	case "cached":
		if len(rest) != 1 {
			flags.Usage()
			return 2
		}
		if c.Cached(rest[0]) {
			return 0
		}
		return 1
	case "clear":
		if len(rest) != 1 {
			flags.Usage()
			return 2
		}
		return check(c.Clear(rest[0]), stderr)
	case "flush":
		return check(c.Flush(), stderr)
	case "inspect":
		if len(rest) != 1 {
			flags.Usage()
			return 2
		}
		return inspect(c, rest[0], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n", command)
		flags.Usage()
		return 2
	}
}

func setupLogging(cfg *config.Config, verbose bool, out io.Writer) {
	logrus.SetOutput(out)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

func check(err error, stderr io.Writer) int {
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func get(c *webcache.Cache, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	flags.SetOutput(stderr)
	force := flags.Bool("force", false, "ignore any cached response")
	if err := flags.Parse(args); err != nil || flags.NArg() != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	url := flags.Arg(0)

	var resp *webcache.Response
	var err error
	if *force {
		resp, err = c.Refresh(url)
	} else {
		resp, err = c.Get(url)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if !resp.Success() {
		fmt.Fprintln(stderr, resp.ErrorMessage())
		return 1
	}
	if _, err := stdout.Write(resp.Content()); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// storedRecord is the YAML view printed by inspect
type storedRecord struct {
	URL           string `yaml:"url"`
	Key           string `yaml:"key"`
	Fresh         bool   `yaml:"fresh"`
	BaseURI       string `yaml:"base_uri"`
	Code          int    `yaml:"code,omitempty"`
	Error         string `yaml:"error,omitempty"`
	ContentLength int    `yaml:"content_length"`
}

func inspect(c *webcache.Cache, url string, stdout, stderr io.Writer) int {
	key := webcache.Key(url)
	data, err := c.Store().Get(key)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(stderr, "No cached response for %s\n", url)
		return 1
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	resp, err := webcache.UnmarshalResponse(data)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	out, err := yaml.Marshal(storedRecord{
		URL:           url,
		Key:           key,
		Fresh:         c.Cached(url),
		BaseURI:       resp.BaseURI(),
		Code:          resp.Code(),
		Error:         resp.ErrorMessage(),
		ContentLength: len(resp.Content()),
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if _, err := stdout.Write(out); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, stderr io.Writer) int {
	server, err := proxy.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create proxy server: %v\n", err)
		return 1
	}
	defer func() { _ = server.Close() }()

	if err := server.Start(); err != nil {
		fmt.Fprintf(stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}
