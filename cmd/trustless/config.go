// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trust/trustconfig"
	"gopkg.in/urfave/cli.v1"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[<file>]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type trustlessConfig struct {
	Trust trustconfig.Config
}

func loadConfig(file string, cfg *trustlessConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration: defaults, then the config file, then
// command line flags.
func makeConfig(ctx *cli.Context) (trustlessConfig, error) {
	cfg := trustlessConfig{Trust: trustconfig.Defaults}
	registry := *params.DefaultRegistryConfig
	cfg.Trust.Registry = &registry
	cfg.Trust.HTTPCors = append([]string(nil), trustconfig.Defaults.HTTPCors...)

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if cfg.Trust.Registry == nil {
		cfg.Trust.Registry = &registry
	}
	applyFlags(ctx, &cfg.Trust)
	return cfg, cfg.Trust.Registry.CheckCompatible()
}

func applyFlags(ctx *cli.Context, cfg *trustconfig.Config) {
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(cacheFlag.Name) {
		cfg.DatabaseCache = ctx.GlobalInt(cacheFlag.Name)
	}
	if ctx.GlobalIsSet(enforceActiveFlag.Name) {
		cfg.Registry.EnforceActiveAgents = ctx.GlobalBool(enforceActiveFlag.Name)
	}
	if ctx.GlobalIsSet(httpHostFlag.Name) {
		cfg.HTTPHost = ctx.GlobalString(httpHostFlag.Name)
	}
	if ctx.GlobalIsSet(httpPortFlag.Name) {
		cfg.HTTPPort = ctx.GlobalInt(httpPortFlag.Name)
	}
	if ctx.GlobalIsSet(httpCorsFlag.Name) {
		cfg.HTTPCors = splitAndTrim(ctx.GlobalString(httpCorsFlag.Name))
	}
	if ctx.GlobalIsSet(metricsFlag.Name) {
		cfg.Metrics = ctx.GlobalBool(metricsFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	comment := ""
	if cfg.Trust.Genesis != nil {
		cfg.Trust.Genesis = nil
		comment += "# Note: this config doesn't contain the genesis.\n\n"
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.WriteString(comment)
	dump.Write(out)
	return nil
}
