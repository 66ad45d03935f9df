package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/plan"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/shared/cache"
	"github.com/radieske/banca-tracker/internal/shared/config"
	"github.com/radieske/banca-tracker/internal/shared/db"
)

var errUsage = errors.New("invalid usage")

// adminStore são as operações de banco usadas pelos scripts
type adminStore interface {
	ListUsers(ctx context.Context) ([]repo.User, error)
	SetPlanPrice(ctx context.Context, name string, price decimal.Decimal) (repo.Plan, error)
}

type admin struct {
	cfg config.Config
	out io.Writer

	// conexões abertas sob demanda; testes preenchem direto
	pg        *sql.DB
	store     adminStore
	planCache plan.FallbackCache
	closers   []func() error
}

func newAdmin(cfg config.Config, out io.Writer) *admin {
	return &admin{cfg: cfg, out: out}
}

func (a *admin) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func (a *admin) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		return a.migrate(ctx)
	case "list-users":
		return a.listUsers(ctx)
	case "set-plan-price":
		return a.setPlanPrice(ctx, args)
	case "token":
		return a.token(args)
	case "flush-plan-cache":
		return a.flushPlanCache(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *admin) database(ctx context.Context) (*sql.DB, error) {
	if a.pg != nil {
		return a.pg, nil
	}
	pg, err := db.ConnectPostgres(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.pg = pg
	a.closers = append(a.closers, pg.Close)
	return pg, nil
}

func (a *admin) openStore(ctx context.Context) (adminStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	pg, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	a.store = repo.NewPostgres(pg)
	return a.store, nil
}

func (a *admin) migrate(ctx context.Context) error {
	pg, err := a.database(ctx)
	if err != nil {
		return err
	}
	v, err := db.Migrate(pg)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(a.out, "schema at version %d\n", v)
	return nil
}

func (a *admin) listUsers(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tEMAIL\tPLANO\tPROMO ATÉ")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Nome, u.Email, deref(u.PlanNome), promoUntil(u.PromoExpiresAt))
	}
	return tw.Flush()
}

func (a *admin) setPlanPrice(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-plan-price", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("plan", "", "nome do plano")
	price := fs.String("price", "", "novo preço (ex: 29.90)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *name == "" || *price == "" {
		return fmt.Errorf("%w: -plan and -price are required", errUsage)
	}
	p, err := decimal.NewFromString(*price)
	if err != nil || p.IsNegative() {
		return fmt.Errorf("%w: invalid price %q", errUsage, *price)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	pl, err := store.SetPlanPrice(ctx, *name, p)
	if err != nil {
		var rerr *repo.Error
		if errors.As(err, &rerr) && rerr.Code == repo.CodeRecordNotFound {
			return fmt.Errorf("plan %q not found", *name)
		}
		return fmt.Errorf("set plan price: %w", err)
	}
	fmt.Fprintf(a.out, "%s (%s): %s\n", pl.Nome, pl.ID, pl.Preco.StringFixed(2))
	return nil
}

func (a *admin) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(a.out)
	user := fs.String("user", "", "id do usuário")
	ttl := fs.Duration("ttl", 24*time.Hour, "validade do token")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *user == "" {
		return fmt.Errorf("%w: -user is required", errUsage)
	}

	tok, err := auth.Issue(*user, a.cfg.JWTSecret, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}

// flushPlanCache só faz sentido com Redis; o cache em memória vive no processo da API
func (a *admin) flushPlanCache(ctx context.Context) error {
	if a.planCache == nil {
		rdb, err := cache.ConnectRedis(ctx, a.cfg.RedisAddr)
		if err != nil {
			return err
		}
		if rdb == nil {
			return errors.New("REDIS_ADDR not set; in-memory cache expires with FALLBACK_PLAN_TTL")
		}
		a.closers = append(a.closers, rdb.Close)
		a.planCache = plan.NewRedisCache(rdb, a.cfg.FallbackPlanName, a.cfg.FallbackPlanTTL)
	}
	a.planCache.Invalidate(ctx)
	fmt.Fprintf(a.out, "fallback plan cache cleared (%s)\n", a.cfg.FallbackPlanName)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func promoUntil(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
