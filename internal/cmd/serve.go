package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/raster"
	"github.com/MeKo-Tech/mapmachine/internal/server"
	"github.com/MeKo-Tech/mapmachine/internal/tilestore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tiles and demo UI (optionally generating missing tiles on-demand)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("demo-dir", filepath.Join("docs", "leaflet-demo"), "Directory for demo static files")
	serveCmd.Flags().String("tilestore", "", "Path to a tilestore database (read-only serving; alternative to on-demand rendering)")

	serveCmd.Flags().Bool("generate-missing", true, "Generate missing tiles on-demand and cache them to disk")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent tile generations")
	serveCmd.Flags().Duration("generation-timeout", 2*time.Minute, "Timeout per tile generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")

	serveCmd.Flags().Int("tile-size", 256, "Base tile size in pixels (256; @2x requests render 512)")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().String("folder-structure", "flat", "Folder layout for on-demand disk cache: flat or nested")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.demo_dir", "demo-dir")
	mustBind("serve.tilestore", "tilestore")
	mustBind("serve.generate_missing", "generate-missing")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.folder_structure", "folder-structure")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	demoDir := viper.GetString("serve.demo_dir")
	tilestorePath := viper.GetString("serve.tilestore")
	generateMissing := viper.GetBool("serve.generate_missing")
	maxConc := viper.GetInt("serve.max_concurrent_generations")
	genTimeout := viper.GetDuration("serve.generation_timeout")
	cacheControl := viper.GetString("serve.cache_control")
	tileSize := viper.GetInt("serve.tile_size")
	pngCompression := viper.GetString("serve.png_compression")
	folderStructure := viper.GetString("serve.folder_structure")
	outputDir := viper.GetString("output-dir")

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/demo/", http.StatusFound)
	})

	fs := http.FileServer(http.Dir(demoDir))
	mux.Handle("/demo/", http.StripPrefix("/demo/", fs))

	if tilestorePath != "" {
		logger.Info("serving tiles read-only from tilestore", "path", tilestorePath)
		store, err := tilestore.Open(tilestorePath)
		if err != nil {
			return fmt.Errorf("open tilestore: %w", err)
		}
		defer store.Close()

		sh := server.NewStoreHandler(store, server.StoreHandlerConfig{CacheControl: cacheControl}, logger)
		mux.Handle("/tiles/", withCORS(sh.Handler()))
	} else {
		logger.Info("serving tiles with on-demand generation", "output_dir", outputDir)

		sch, err := loadSchemeFromConfig()
		if err != nil {
			return err
		}
		fetcher, err := newFetcherFromConfig()
		if err != nil {
			return err
		}

		gen, err := pipeline.NewGenerator(fetcher, sch, raster.NewVectorRasterizer(), outputDir, tileSize, logger, pipeline.GeneratorOptions{
			PNGCompression:  pngCompression,
			FolderStructure: folderStructure,
		})
		if err != nil {
			return fmt.Errorf("init generator: %w", err)
		}

		od := server.NewOnDemandTiles(gen, server.OnDemandTilesConfig{
			CacheControl:             cacheControl,
			MaxConcurrentGenerations: maxConc,
			GenerationTimeout:        genTimeout,
			GenerateMissing:          generateMissing,
		}, logger)

		mux.Handle("/tiles/status", withCORS(od.StatusHandler()))
		mux.Handle("/tiles/", withCORS(od.Handler()))
	}

	logger.Info("demo server listening",
		"addr", addr,
		"demo_dir", demoDir,
		"generate_missing", generateMissing,
		"max_concurrent_generations", maxConc,
	)

	fmt.Printf("\n  -> http://%s/demo/\n\n", addr)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
