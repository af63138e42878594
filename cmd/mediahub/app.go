package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediahub/internal/blobstore"
	"mediahub/internal/config"
	"mediahub/internal/contenthash"
	"mediahub/internal/imagegen"
	"mediahub/internal/media"
	"mediahub/internal/redisopt"
	"mediahub/internal/store"
)

// app bundles the collaborators a command needs.
type app struct {
	store     *store.Store
	options   store.OptionWriter
	files     *blobstore.LocalStore
	assembler *media.Assembler
	closers   []func() error
}

func withApp(ctx context.Context, cfg *config.Config, fn func(*app) error) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("close app", "error", err)
		}
	}()
	return fn(a)
}

func openApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.DBPath, err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	options, err := openOptionStore(cfg, st)
	if err != nil {
		return nil, err
	}
	a.options = options
	if remote, ok := options.(*redisopt.OptionStore); ok {
		a.closers = append(a.closers, remote.Close)
	}

	algorithm, err := contenthash.ParseAlgorithm(cfg.Media.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	hasher, err := contenthash.New(algorithm)
	if err != nil {
		return nil, err
	}

	grouping, err := blobstore.ParseGrouping(cfg.Storage.Grouping)
	if err != nil {
		return nil, err
	}
	files, err := blobstore.NewLocalStore(cfg.Storage.Root, cfg.Storage.PublicPrefix, grouping)
	if err != nil {
		return nil, fmt.Errorf("open storage root %s: %w", cfg.Storage.Root, err)
	}
	a.files = files

	generator := imagegen.NewGenerator(slog.Default().With("component", "imagegen"))
	a.assembler = media.NewAssembler(st, options, files, hasher, generator, slog.Default().With("component", "media"))
	a.assembler.ConfigureLimits(cfg.Media.MaxUploadBytes)

	if cfg.Publish.Enabled {
		publisher, err := blobstore.NewMinioPublisher(ctx, blobstore.MinioConfig{
			Endpoint:      cfg.Publish.Endpoint,
			Bucket:        cfg.Publish.Bucket,
			AccessKey:     cfg.Publish.AccessKey,
			SecretKey:     cfg.Publish.SecretKey,
			UseSSL:        cfg.Publish.UseSSL,
			PublicBaseURL: cfg.Publish.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		a.assembler.ConfigurePublisher(publisher)
	}

	return a, nil
}

func openOptionStore(cfg *config.Config, st *store.Store) (store.OptionWriter, error) {
	switch cfg.Options.Backend {
	case config.OptionsBackendRedis:
		return redisopt.New(redisopt.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	default:
		return st, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
