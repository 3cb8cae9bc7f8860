package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/config"
)

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local asset cache",
	Long:  `Commands for inspecting and refreshing the local mirror of the store.`,
}

// cacheListCmd represents the cache ls command
var cacheListCmd = &cobra.Command{
	Use:   "ls [namespace]",
	Short: "List cached entries and whether they are current",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd.Context(), openStore())
		if err != nil {
			return err
		}

		collections := c.Collections()
		if len(args) == 1 {
			col, err := c.Collection(args[0])
			if err != nil {
				return err
			}
			collections = []*cache.Collection{col}
		}

		for _, col := range collections {
			fmt.Println(colorize.CyanString("%s/", col.Name()))
			entries := col.Entries()
			if len(entries) == 0 {
				fmt.Println("  (empty)")
			}
			for _, e := range entries {
				switch {
				case e.Remote == "":
					fmt.Printf("  %s %s %s\n", colorize.HiBlackString("-"), e.Path, colorize.HiBlackString("(gone upstream)"))
				case e.Cached == e.Remote:
					fmt.Printf("  %s %s\n", colorize.GreenString("✓"), e.Path)
				case e.Cached == "":
					fmt.Printf("  %s %s %s\n", colorize.YellowString("+"), e.Path, colorize.HiBlackString("(not downloaded)"))
				default:
					fmt.Printf("  %s %s %s\n", colorize.YellowString("~"), e.Path, colorize.HiBlackString("(stale)"))
				}
			}
		}
		return nil
	},
}

// cacheSyncCmd represents the cache sync command
var cacheSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download every new or changed entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd.Context(), openStore())
		if err != nil {
			return err
		}

		failed := 0
		for _, col := range c.Collections() {
			for _, e := range col.Entries() {
				if e.Remote == "" {
					continue
				}
				res := col.Get(cmd.Context(), e.Path)
				if res.Status != cache.Hit {
					failed++
					logger.Warn("sync failed",
						slog.String("namespace", col.Name()),
						slog.String("path", e.Path),
						slog.String("status", res.Status.String()),
						slog.Any("error", res.Err),
					)
				}
			}
		}

		if err := c.Save(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d entries could not be synced", failed)
		}
		fmt.Println(colorize.GreenString("Cache is up to date:"), cfg.CacheDir)
		return nil
	},
}

// cacheInitCmd represents the cache init command
var cacheInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the cache, output and store directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, dir := range []string{cfg.CacheDir, cfg.OutputDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("error creating %s: %v", dir, err)
			}
		}
		for _, ns := range cache.Namespaces {
			if err := os.MkdirAll(filepath.Join(cfg.StoreRoot, ns), 0755); err != nil {
				return fmt.Errorf("error creating store namespace %s: %v", ns, err)
			}
		}

		fmt.Println("Cache initialized at:", cfg.CacheDir)
		fmt.Println("Store initialized at:", cfg.StoreRoot)
		fmt.Println("Config file:", configFile())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheSyncCmd)
	cacheCmd.AddCommand(cacheInitCmd)
}

func configFile() string {
	if envOnly {
		return "(none, --env-only)"
	}
	if configPath != "" {
		return configPath
	}
	return config.GetConfigFilePath()
}
