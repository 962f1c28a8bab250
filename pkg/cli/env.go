package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/nextup/pkg/app"
	"github.com/harrisonrobin/nextup/pkg/auth"
	"github.com/harrisonrobin/nextup/pkg/config"
	"github.com/harrisonrobin/nextup/pkg/kvstore"
	"github.com/harrisonrobin/nextup/pkg/notify"
	"github.com/harrisonrobin/nextup/pkg/todoist"
)

// taskAPIURL is the task API root; tests point it at a local server.
var taskAPIURL = todoist.DefaultBaseURL

// env is what every command works against.
type env struct {
	cfg *config.Config
	kv  *kvstore.Store
	app *app.App
}

func (e *env) Close() {
	e.app.Selector.Wait()
	if err := e.kv.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.calendar != "" {
		cfg.Calendar = flags.calendar
	}
	if flags.timezone != "" {
		cfg.Timezone = flags.timezone
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	return cfg, nil
}

func openStore(flags *globalFlags) (*config.Config, *kvstore.Store, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	kv, err := kvstore.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, kv, nil
}

// openEnv assembles the app, restores the cache and, unless offline, refreshes.
func openEnv(ctx context.Context, flags *globalFlags) (*env, error) {
	cfg, kv, err := openStore(flags)
	if err != nil {
		return nil, err
	}

	httpClient, err := auth.TaskClient(ctx, kv)
	if err != nil && !(flags.offline && errors.Is(err, auth.ErrNoToken)) {
		kv.Close()
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	a := app.New(todoist.NewClient(httpClient, taskAPIURL), kv, app.Options{
		Now:      time.Now,
		Location: loc,
		Debounce: cfg.Debounce(),
		Notifier: notify.Log{},
	})
	e := &env{cfg: cfg, kv: kv, app: a}

	if err := a.LoadCache(ctx); err != nil {
		log.Printf("Warning: %v", err)
	}
	if flags.offline {
		return e, nil
	}
	if _, err := a.Refresh(ctx); err != nil {
		if errors.Is(err, todoist.ErrUnauthorized) {
			e.Close()
			return nil, fmt.Errorf("the stored API token was rejected: %w", err)
		}
		log.Printf("Warning: refresh incomplete, showing cached data: %v", err)
	}
	return e, nil
}
