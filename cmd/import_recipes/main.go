package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"barkeep/internal/config"
	"barkeep/internal/db"
	"barkeep/internal/importer"
	"barkeep/models"
)

func main() {
	searchTerm := flag.String("search", "", "search the recipe API by drink name instead of reading a cache file")
	cacheOnly := flag.Bool("cache-only", false, "store fetched recipes in the cache without importing them as drinks")
	flag.Parse()

	cachePath := flag.Arg(0)

	if err := run(*searchTerm, cachePath, *cacheOnly); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(searchTerm, cachePath string, cacheOnly bool) error {
	searchTerm = strings.TrimSpace(searchTerm)
	cachePath = strings.TrimSpace(cachePath)
	if searchTerm == "" && cachePath == "" {
		return errors.New("either a cache file argument or -search is required")
	}
	if searchTerm != "" && cachePath != "" {
		return errors.New("a cache file and -search are mutually exclusive")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	ctx := context.Background()

	var recipes []models.CachedRecipe
	var source string
	if searchTerm != "" {
		client := importer.NewClient(cfg.Importer)
		recipes, err = client.SearchByName(ctx, searchTerm)
		if err != nil {
			return fmt.Errorf("search recipes: %w", err)
		}
		source = fmt.Sprintf("search %q", searchTerm)
	} else {
		recipes, err = importer.ReadCacheFile(cachePath)
		if err != nil {
			return fmt.Errorf("read cache file: %w", err)
		}
		source = filepath.Base(cachePath)
	}

	if len(recipes) == 0 {
		fmt.Fprintf(os.Stdout, "No recipes found in %s\n", source)
		return nil
	}

	cached, err := importer.CacheRecipes(ctx, database, recipes)
	if err != nil {
		return fmt.Errorf("cache recipes: %w", err)
	}

	if cacheOnly {
		fmt.Fprintf(os.Stdout, "Cached %d new recipes from %s (%d total fetched)\n", cached, source, len(recipes))
		return nil
	}

	imported := 0
	skipped := 0
	for _, recipe := range recipes {
		_, err := importer.ImportDrink(ctx, database, recipe)
		if errors.Is(err, importer.ErrAlreadyImported) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("import %q: %w", recipe.Name, err)
		}
		imported++
	}

	fmt.Fprintf(os.Stdout, "Imported %d drinks from %s (%d already present, %d newly cached)\n",
		imported, source, skipped, cached)
	return nil
}
