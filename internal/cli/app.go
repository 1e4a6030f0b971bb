// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/assistant"
	"github.com/jeranaias/dsamentor/internal/cloud"
	"github.com/jeranaias/dsamentor/internal/config"
	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/logging"
	"github.com/jeranaias/dsamentor/internal/playback"
	"github.com/jeranaias/dsamentor/internal/session"
	"github.com/jeranaias/dsamentor/internal/storage"
)

// App is the wired application shared by the commands.
type App struct {
	Config  *config.Config
	Log     *log.Logger
	Store   storage.Store
	Records *storage.Records
	Repo    *conversation.Repository

	// Set by StartAssistant.
	Sessions  *session.Registry
	Gateway   *cloud.Gateway
	Assistant *assistant.Assistant

	logCloser io.Closer
}

// OpenApp opens the log and the store and builds the repository. The
// repository is empty until the caller loads or bootstraps it.
func OpenApp(cfg *config.Config) (*App, error) {
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve log path")
	}
	logger, closer, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: logPath})
	if err != nil {
		return nil, errors.Wrap(err, "could not open log")
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		closer.Close()
		return nil, errors.Wrap(err, "could not resolve data directory")
	}
	backend, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		closer.Close()
		return nil, err
	}
	store, err := storage.Open(backend, dataDir)
	if err != nil {
		closer.Close()
		return nil, errors.Wrapf(err, "could not open %s store in %s", backend, dataDir)
	}
	logger.WithFields(log.Fields{"backend": backend, "data_dir": dataDir}).Debug("store opened")

	records := storage.NewRecords(store, logger)
	return &App{
		Config:    cfg,
		Log:       logger,
		Store:     store,
		Records:   records,
		Repo:      conversation.New(records, conversation.Options{Log: logger}),
		logCloser: closer,
	}, nil
}

// AssistantOptions tunes StartAssistant.
type AssistantOptions struct {
	// OnChunk receives revealed chunks, see assistant.Config.
	OnChunk func(conversationID, chunk string, done bool)

	// Backend replaces the configured provider.
	Backend session.Backend
}

// StartAssistant connects the session registry, bootstraps the repository
// and creates the assistant.
func (a *App) StartAssistant(ctx context.Context, opts AssistantOptions) error {
	cfg := a.Config
	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = cloud.NewBackend(ctx, cloud.BackendConfig{
			Provider: cfg.API.Provider,
			APIKey:   cfg.API.APIKey,
			Model:    cfg.API.Model,
			BaseURL:  cfg.API.BaseURL,
			Timeout:  cfg.Timeout(),
		})
		if err != nil {
			return errors.Wrap(err, "could not create model backend")
		}
	}

	a.Sessions = session.NewRegistry(backend, a.Log)
	a.Repo = conversation.New(a.Records, conversation.Options{Sessions: a.Sessions, Log: a.Log})
	active := a.Repo.Bootstrap()

	a.Gateway = cloud.NewGateway(cloud.GatewayOptions{
		Provider:          cfg.API.Provider,
		APIKey:            cfg.API.APIKey,
		Timeout:           cfg.Timeout(),
		RequestsPerMinute: cfg.API.RequestsPerMinute,
		Log:               a.Log,
	})

	var sim *playback.Simulator
	if cfg.Playback.Enabled {
		sim = playback.New()
	} else {
		sim = playback.New(playback.Instant())
	}

	a.Assistant = assistant.New(assistant.Config{
		Repository: a.Repo,
		Sessions:   a.Sessions,
		Gateway:    a.Gateway,
		Simulator:  sim,
		OnChunk:    opts.OnChunk,
		Log:        a.Log,
	})
	a.Log.WithFields(log.Fields{
		"provider":      a.Gateway.Provider(),
		"key":           a.Gateway.KeyFingerprint(),
		"conversations": a.Repo.Len(),
		"active":        active.ID,
	}).Info("assistant ready")
	return nil
}

// Close stops playback and releases the store and the log.
func (a *App) Close() error {
	if a.Assistant != nil {
		a.Assistant.Stop()
	}
	err := a.Store.Close()
	if cerr := a.logCloser.Close(); err == nil {
		err = cerr
	}
	return err
}
