package main

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/cache/leveldb"
	"github.com/brunotm/flowdex/cache/memory"
	"github.com/brunotm/flowdex/loader/filesystem"
	"github.com/brunotm/flowdex/persister/sqlite"
	"github.com/brunotm/flowdex/transformer/chunk"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline described by a YAML config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "flowdex.yaml", "path to the pipeline config file")
	return cmd
}

// runPipeline loads configPath via viper (YAML), wires a pipeline per the
// loaded settings, and runs it to completion.
func runPipeline(ctx context.Context, configPath string) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetDefault("name", "flowdex-index")
	v.SetDefault("root", ".")
	v.SetDefault("recursive", true)
	v.SetDefault("chunk_size", 0)
	v.SetDefault("cache", "memory")
	v.SetDefault("cache_path", "flowdex-cache.db")
	v.SetDefault("store_path", "flowdex.db")
	v.SetDefault("concurrency", 0)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("flowdex-index: reading config: %w", err)
	}

	cfg := flowdex.NewConfig(v.AllSettings())

	pipeline := flowdex.NewPipeline(cfg.Get("name").String("flowdex-index"))
	pipeline.FromLoader(filesystem.New(
		cfg.Get("root").String("."),
		cfg.Get("recursive").Bool(true),
		stringSlice(v, "extensions")...,
	))

	if n := cfg.Get("concurrency").Int(0); n > 0 {
		pipeline.WithConcurrency(n)
	}

	nodeCache, closeCache, err := openCache(cfg)
	if err != nil {
		return fmt.Errorf("flowdex-index: opening cache: %w", err)
	}
	if closeCache != nil {
		defer closeCache()
	}
	pipeline.FilterCached(nodeCache, cfg.Get("name").String("flowdex-index"))

	if size := cfg.Get("chunk_size").Int(0); size > 0 {
		pipeline.ThenChunk("chunk", chunk.New(size))
	}

	pipeline.LogErrors()

	store := sqlite.New(cfg.Get("store_path").String("flowdex.db"), cfg.Get("batch_size").Int(0))
	defer store.Close()
	pipeline.ThenStoreWith("store", store)

	outcome, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("flowdex-index: run failed after %d success/%d errors: %w",
			outcome.Success, outcome.Errors, err)
	}

	fmt.Printf("flowdex-index: %d indexed, %d skipped, %d errors in %s\n",
		outcome.Success, outcome.Skipped, outcome.Errors, outcome.Elapsed)
	return nil
}

func openCache(cfg flowdex.Config) (flowdex.NodeCache, func(), error) {
	switch cfg.Get("cache").String("memory") {
	case "leveldb":
		c, err := leveldb.Open(cfg.Get("cache_path").String("flowdex-cache.db"), "flowdex")
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	default:
		c, err := memory.New("flowdex")
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	}
}

func stringSlice(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	if raw == nil {
		return nil
	}
	return raw
}
