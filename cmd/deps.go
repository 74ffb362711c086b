package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/dataset"
	"github.com/eudatnat/harvest-cli/internal/fetcher"
	"github.com/eudatnat/harvest-cli/internal/store"
	"github.com/eudatnat/harvest-cli/internal/writer"
	"github.com/eudatnat/harvest-cli/pkg/geocode"
	"github.com/eudatnat/harvest-cli/pkg/translate"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "harvest.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRegistry() (*dataset.Registry, error) {
	reg, err := dataset.LoadRegistry(cfg.Metadata.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "load dataset registry")
	}
	return reg, nil
}

// initDeps builds the coordinator collaborators from config. A nil store
// disables the geocode cache.
func initDeps(st store.Store) dataset.Deps {
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{
		Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
	})

	return dataset.Deps{
		HTTP:       httpF,
		FTP:        ftpF,
		Geocoder:   initGeocoder(st),
		Translator: initTranslator(),
		Writers:    writer.NewRegistry(),
		TempDir:    cfg.Fetch.TempDir,
		OutputDir:  cfg.Output.Dir,
		OutputFile: cfg.Output.File,
		TargetLang: cfg.Translate.TargetLang,
	}
}

func initGeocoder(st store.Store) geocode.Client {
	var providers []geocode.Provider
	for _, name := range cfg.Geocode.Providers {
		switch name {
		case "nominatim":
			providers = append(providers, geocode.NewNominatimProvider(cfg.Fetch.UserAgent,
				geocode.WithNominatimURL(cfg.Geocode.NominatimURL),
				geocode.WithNominatimRateLimit(cfg.Geocode.RateLimit),
			))
		case "gisco":
			providers = append(providers, geocode.NewGiscoProvider(
				geocode.WithGiscoURL(cfg.Geocode.GiscoURL),
				geocode.WithGiscoRateLimit(cfg.Geocode.RateLimit),
			))
		case "google":
			providers = append(providers, geocode.NewGoogleProvider(cfg.Geocode.GoogleKey))
		default:
			zap.L().Warn("unknown geocode provider, skipping", zap.String("provider", name))
		}
	}
	if len(providers) == 0 {
		return nil
	}

	opts := []geocode.CascadeOption{
		geocode.WithBatchConcurrency(cfg.Geocode.Concurrency),
	}
	if cfg.Geocode.CacheEnabled && st != nil {
		opts = append(opts, geocode.WithCache(store.GeocodeCache(st)))
	}
	return geocode.NewCascade(providers, opts...)
}

func initTranslator() translate.Translator {
	var inner translate.Translator
	switch cfg.Translate.Provider {
	case "anthropic":
		inner = translate.NewAnthropic(cfg.Translate.AnthropicKey, cfg.Translate.AnthropicModel)
	case "libretranslate":
		inner = translate.NewLibreTranslate(
			translate.WithLibreURL(cfg.Translate.LibreTranslateURL),
			translate.WithLibreAPIKey(cfg.Translate.LibreTranslateKey),
		)
	default:
		zap.L().Warn("unknown translate provider, translation disabled",
			zap.String("provider", cfg.Translate.Provider))
		return nil
	}
	return translate.NewMemo(inner)
}
