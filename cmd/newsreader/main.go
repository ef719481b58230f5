package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/newsreader/internal/adapter"
	"github.com/TobiSchelling/newsreader/internal/aggregator"
	"github.com/TobiSchelling/newsreader/internal/config"
	"github.com/TobiSchelling/newsreader/internal/fetch"
	"github.com/TobiSchelling/newsreader/internal/logger"
	"github.com/TobiSchelling/newsreader/internal/prefs"
	"github.com/TobiSchelling/newsreader/internal/resolver"
	"github.com/TobiSchelling/newsreader/internal/sanitize"
	"github.com/TobiSchelling/newsreader/internal/server"
	"github.com/TobiSchelling/newsreader/internal/store"
)

var version = "dev"

var (
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsreader",
	Short:   "Per-user aggregated news feeds",
	Long:    "Newsreader serves personalized news sets assembled from role-gated predefined feeds and user-added feeds.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Init(cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(definitionsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsreader", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsreader/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the store path, fetch limits, and admin role.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Store: %s\n\n", st.Path())
		fmt.Println("Definitions:")
		fmt.Printf("  Predefined: %d\n", stats.PredefinedDefinitions)
		fmt.Printf("  User-defined: %d\n", stats.UserDefinitions)
		fmt.Println("\nUsage:")
		fmt.Printf("  News sets: %d\n", stats.NewsSets)
		fmt.Printf("  Configurations: %d\n", stats.Configurations)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the news reader API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client := fetch.NewClient(cfg.FetchTimeout(), cfg.Fetch.UserAgent)
		registry := adapter.NewRegistry()
		adapter.RegisterDefaults(registry, client, cfg.Fetch.MaxPerFeed)

		res := resolver.New(st)
		stories := fetch.NewResolver(client)
		agg := aggregator.New(res, registry, sanitize.New(), stories, aggregator.Options{
			MaxParallel: cfg.Fetch.MaxParallel,
			Timeout:     cfg.FetchTimeout(),
			Whitelist:   aggregator.KindWhitelist(cfg.Security.AllowedKinds),
		})
		pr := prefs.New(st, cfg.Security.AdminRole)

		srv := server.New(agg, res, pr, stories, server.HeaderRolesService{})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Serve(port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- definitions command ---

var definitionsCmd = &cobra.Command{
	Use:   "definitions",
	Short: "Manage predefined feed definitions",
}

var (
	defName  string
	defFName string
	defURL   string
	defKind  string
	defRoles []string
)

var definitionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a predefined feed definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		def := &store.Definition{
			Kind:         store.KindPredefined,
			AdapterKind:  defKind,
			Name:         defName,
			FName:        defFName,
			Parameters:   map[string]string{"url": defURL},
			DefaultRoles: defRoles,
		}
		if err := st.StoreDefinition(def); err != nil {
			return fmt.Errorf("storing definition: %w", err)
		}

		fmt.Printf("Added definition %d (%s)\n", def.ID, def.FName)
		return nil
	},
}

var definitionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List predefined feed definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		defs, err := st.ListPredefinedDefinitions()
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			fmt.Println("No predefined definitions.")
			return nil
		}

		for _, def := range defs {
			fmt.Printf("%4d  %-24s  %-12s  roles=%s  %s\n",
				def.ID, def.FName, def.AdapterKind,
				strings.Join(def.DefaultRoles, ","), def.Parameters["url"])
		}
		return nil
	},
}

func init() {
	definitionsAddCmd.Flags().StringVar(&defName, "name", "", "Display name")
	definitionsAddCmd.Flags().StringVar(&defFName, "fname", "", "Unique functional name")
	definitionsAddCmd.Flags().StringVar(&defURL, "url", "", "Feed URL")
	definitionsAddCmd.Flags().StringVar(&defKind, "kind", adapter.KindSyndication, "Adapter kind")
	definitionsAddCmd.Flags().StringSliceVar(&defRoles, "roles", nil, "Roles that receive the feed by default")
	definitionsAddCmd.MarkFlagRequired("name")
	definitionsAddCmd.MarkFlagRequired("fname")
	definitionsAddCmd.MarkFlagRequired("url")

	definitionsCmd.AddCommand(definitionsAddCmd)
	definitionsCmd.AddCommand(definitionsListCmd)
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}
