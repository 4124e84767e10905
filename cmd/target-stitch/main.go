/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/singer-go/target-stitch/internal"
	"github.com/singer-go/target-stitch/internal/supporting"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/internal/version"
	spiconfig "github.com/singer-go/target-stitch/spi/config"
	"github.com/urfave/cli"

	_ "github.com/singer-go/target-stitch/internal/sinks/stdout"
	_ "github.com/singer-go/target-stitch/internal/sinks/stitch"
)

var (
	configurationFile string
	dryRun            bool
	verbose           bool
	withCaller        bool
	versionOnly       bool
)

func main() {
	app := &cli.App{
		Name:  "target-stitch",
		Usage: "Singer target persisting record streams to the Stitch Import API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config,c",
				Value:       "",
				Usage:       "Load configuration from `FILE`",
				Destination: &configurationFile,
			},
			&cli.BoolFlag{
				Name:        "dry-run,n",
				Usage:       "Dry run - Do not push data to Stitch",
				Destination: &dryRun,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Show verbose output",
				Destination: &verbose,
			},
			&cli.BoolFlag{
				Name:        "caller",
				Usage:       "Collect caller information for log messages",
				Destination: &withCaller,
			},
			&cli.BoolFlag{
				Name:        "version",
				Usage:       "Prints the version and exits",
				Destination: &versionOnly,
			},
		},
		Action: sync,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func sync(*cli.Context) error {
	// stdout carries the emitted state values, everything else goes to
	// stderr.
	fmt.Fprintf(os.Stderr, "%s version %s (git revision %s; branch %s)\n",
		version.BinName, version.Version, version.CommitHash, version.Branch,
	)

	if versionOnly {
		return nil
	}

	logging.WithCaller = withCaller
	logging.WithVerbose = verbose

	config := &spiconfig.Config{}

	// No configuration file set? Try env variable!
	if configurationFile == "" {
		if cf, present := os.LookupEnv("TARGET_STITCH_CONFIG"); present {
			fmt.Fprintf(os.Stderr, "Using configuration file from environment variable\n")
			configurationFile = cf
		}
	}

	if configurationFile != "" {
		fmt.Fprintf(os.Stderr, "Loading configuration file: %s\n", configurationFile)
		f, err := os.Open(configurationFile)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("Configuration file couldn't be opened: %v\n", err), 3)
		}

		b, err := io.ReadAll(f)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("Configuration file couldn't be read: %v\n", err), 4)
		}

		if err := spiconfig.Unmarshall(b, config, configurationFormat(configurationFile)); err != nil {
			return cli.NewExitError(fmt.Sprintf("Configuration file couldn't be decoded: %v\n", err), 5)
		}
	}

	if dryRun {
		config.Sink.Type = spiconfig.Stdout
	} else if config.Sink.Type == "" {
		config.Sink.Type = spiconfig.Stitch
	}

	if err := logging.InitializeLogging(config); err != nil {
		return err
	}

	persister, err := internal.NewPersister(config)
	if err != nil {
		return supporting.AdaptError(err, 6)
	}

	// The run blocks on stdin. On a termination signal the input stream
	// is closed underneath the pipeline, which ends the run through the
	// regular path and keeps the terminal flush guarantee intact.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-signals
		fmt.Fprintf(os.Stderr, "Received signal %s, stopping\n", sig)
		os.Stdin.Close()
	}()

	if err := persister.Run(os.Stdin, os.Stdout); err != nil {
		return supporting.AdaptError(err, 1)
	}
	return nil
}

func configurationFormat(
	fileName string,
) spiconfig.Format {

	switch filepath.Ext(strings.ToLower(fileName)) {
	case ".toml":
		return spiconfig.FormatToml
	case ".yml", ".yaml":
		return spiconfig.FormatYaml
	default:
		return spiconfig.FormatJson
	}
}
