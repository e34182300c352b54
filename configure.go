package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

func configure(app *cli.App) {
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   logLevelFlag,
			Usage:  "log level (debug, info, warn, error)",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
		},
		cli.StringFlag{
			Name:   logFormatFlag,
			Usage:  "log format (text, json)",
			Value:  "text",
			EnvVar: "LOG_FORMAT",
		},
	}
	app.Before = configureLogger
	serveCMD := makeServeCMD()
	app.Commands = []cli.Command{serveCMD}
}

func configureLogger(c *cli.Context) error {
	level, err := log.ParseLevel(c.String(logLevelFlag))
	if err != nil {
		return errors.Wrap(err, "failed to parse log level")
	}
	log.SetLevel(level)
	switch c.String(logFormatFlag) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("unknown log format %q", c.String(logFormatFlag))
	}
	return nil
}
