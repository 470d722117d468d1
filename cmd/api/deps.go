package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-api-auth/internal/application/registration"
	"github.com/go-api-auth/internal/application/session"
	"github.com/go-api-auth/internal/application/verification"
	"github.com/go-api-auth/internal/config"
	"github.com/go-api-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-api-auth/internal/infrastructure/jwt"
	"github.com/go-api-auth/internal/infrastructure/postgres"
	redisinfra "github.com/go-api-auth/internal/infrastructure/redis"
	"github.com/go-api-auth/internal/infrastructure/smtp"
	"github.com/go-api-auth/internal/infrastructure/sns"
	"github.com/go-api-auth/internal/metrics"
	transporthttp "github.com/go-api-auth/internal/transport/http"
	"github.com/go-api-auth/internal/transport/http/handler"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	startupRetries = 5
	startupBackoff = 500 * time.Millisecond
)

type codeStore interface {
	verification.CodeStore
	handler.Pinger
}

// buildDeps wires the infrastructure into the services. cleanup releases every
// client opened here and is safe to call once.
func buildDeps(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*transporthttp.Deps, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, pool.Close)
	if err := waitFor(ctx, "postgres", pool.Ping, startupBackoffPolicy()); err != nil {
		return fail(oops.Code("DB_UNREACHABLE").Wrap(err))
	}

	codes, closeCodes, err := newCodeStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeCodes)
	if err := waitFor(ctx, "codes", codes.Ping, startupBackoffPolicy()); err != nil {
		return fail(oops.Code("CODE_STORE_UNREACHABLE").Wrap(err))
	}

	access, err := jwtinfra.NewAccessProvider(cfg)
	if err != nil {
		return fail(oops.Code("CONFIG_INVALID").Wrap(err))
	}
	refresh, err := jwtinfra.NewRefreshProvider(cfg)
	if err != nil {
		return fail(oops.Code("CONFIG_INVALID").Wrap(err))
	}

	verifyDeps := verification.ServiceDeps{Codes: codes, TTL: cfg.CodeTTL}
	registerDeps := registration.ServiceDeps{Tx: postgres.NewTransactor(pool), Codes: codes}

	// Optional collaborators are assigned only when present so the services see a nil interface.
	publisher, err := sns.NewPublisher(ctx, cfg)
	switch {
	case errors.Is(err, sns.ErrNoTopic):
	case err != nil:
		slog.Warn("event publishing disabled", "error", err)
	default:
		verifyDeps.Events = publisher
		registerDeps.Events = publisher
	}
	if cfg.CodeDelivery == "smtp" {
		verifyDeps.Mailer = smtp.NewMailer(cfg)
	}

	users := postgres.NewUserRepo(pool)
	deps := &transporthttp.Deps{
		Verification: verification.NewService(verifyDeps),
		Registration: registration.NewService(registerDeps),
		Sessions:     session.NewService(session.ServiceDeps{Users: users, Access: access, Refresh: refresh}),
		Health:       map[string]handler.Pinger{"postgres": users, "codes": codes},
	}
	if cfg.MetricsEnabled {
		deps.Metrics = metrics.New()
	}
	return deps, cleanup, nil
}

func newCodeStore(ctx context.Context, cfg *config.Config) (codeStore, func(), error) {
	if cfg.CodeStore == config.CodeStoreDynamo {
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, oops.Code("AWS_CONFIG_FAILED").Wrap(err)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoCodesTable)
		return dynamo.NewCodeStore(client, cfg.DynamoCodesTable), func() {}, nil
	}
	client := redisinfra.NewClient(cfg)
	return redisinfra.NewCodeStore(client), func() {
		if err := client.Close(); err != nil {
			slog.Warn("closing redis client", "error", err)
		}
	}, nil
}

func startupBackoffPolicy() retry.Backoff {
	return retry.WithMaxRetries(startupRetries, retry.NewExponential(startupBackoff))
}

// waitFor pings a dependency until it answers or the backoff gives up.
func waitFor(ctx context.Context, name string, ping func(context.Context) error, b retry.Backoff) error {
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			slog.Warn("dependency not ready", "dependency", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
