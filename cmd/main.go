// Command resplan inspects and edits resource plans held in the period store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/resplan/internal/adapters/repository"
	app "github.com/okian/resplan/internal/app"
	"github.com/okian/resplan/internal/config"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/pkg/logger"
	"github.com/okian/resplan/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

var errUsage = errors.New("usage")

const usage = `usage: resplan [-metrics] <command> [flags]

commands:
  teams                                  list teams
  periods  -team T                       list a team's periods
  summary  -team T -period P [-collapse] print buckets, groups and people
  backups  -team T -period P             list retained previous versions
  import   -file F                       load teams and periods from YAML or JSON
  edit     -team T -period P [edits]     apply edits and save them
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			_, _ = os.Stderr.WriteString("resplan: " + err.Error() + "\n")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	global := flag.NewFlagSet("resplan", flag.ContinueOnError)
	global.SetOutput(errOut)
	global.Usage = func() { _, _ = io.WriteString(errOut, usage) }
	dumpMetrics := global.Bool("metrics", false, "print metrics in Prometheus text format on exit")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithOutput(errOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get().Named("cli")

	store, err := repository.Open(cfg.StoreDriver, cfg.SQLitePath, repository.WithBackupsToKeep(cfg.BackupsToKeep))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store", logger.Error(err))
		}
	}()

	if cfg.SeedFile != "" {
		if err := importFile(ctx, store, cfg.SeedFile); err != nil {
			return err
		}
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	err = dispatch(ctx, cfg, store, cmd, rest, out, errOut)
	if err == nil && *dumpMetrics {
		err = metrics.WriteText(out)
	}
	return err
}

func dispatch(ctx context.Context, cfg *config.Config, store repository.Store, cmd string, args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(errOut)

	switch cmd {
	case "teams":
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		teams, err := store.GetAllTeams(ctx)
		if err != nil {
			return err
		}
		writeTeams(out, teams)
		return nil

	case "periods":
		team := fs.String("team", "", "team id")
		if err := fs.Parse(args); err != nil || *team == "" {
			fs.Usage()
			return errUsage
		}
		periods, err := store.GetAllPeriods(ctx, *team)
		if err != nil {
			return err
		}
		writePeriods(out, periods)
		return nil

	case "summary":
		team := fs.String("team", "", "team id")
		period := fs.String("period", "", "period id")
		collapse := fs.Bool("collapse", false, "show each block as a single placeholder")
		if err := fs.Parse(args); err != nil || *team == "" || *period == "" {
			fs.Usage()
			return errUsage
		}
		stored, err := store.GetPeriod(ctx, *team, *period)
		if err != nil {
			return err
		}
		writeSummary(out, plan.FromPeriod(stored), *collapse)
		return nil

	case "backups":
		team := fs.String("team", "", "team id")
		period := fs.String("period", "", "period id")
		if err := fs.Parse(args); err != nil || *team == "" || *period == "" {
			fs.Usage()
			return errUsage
		}
		backups, err := store.GetPeriodBackups(ctx, *team, *period)
		if err != nil {
			return err
		}
		writeBackups(out, backups)
		return nil

	case "import":
		file := fs.String("file", "", "YAML or JSON fixture")
		if err := fs.Parse(args); err != nil || *file == "" {
			fs.Usage()
			return errUsage
		}
		return importFile(ctx, store, *file)

	case "edit":
		return runEdit(ctx, cfg, store, fs, args, out)
	}

	_, _ = io.WriteString(errOut, usage)
	return errUsage
}

func importFile(ctx context.Context, store repository.Store, path string) error {
	f, err := repository.LoadFixture(path)
	if err != nil {
		return err
	}
	return repository.Seed(ctx, store, f)
}

// editFlags collects repeatable "old=new" style flags.
type editFlags []string

func (e *editFlags) String() string     { return strings.Join(*e, ",") }
func (e *editFlags) Set(v string) error { *e = append(*e, v); return nil }

func runEdit(ctx context.Context, cfg *config.Config, store repository.Store, fs *flag.FlagSet, args []string, out io.Writer) error {
	var tagRenames, groupRenames, deletePeople editFlags
	team := fs.String("team", "", "team id")
	period := fs.String("period", "", "period id")
	displayName := fs.String("display-name", "", "new period display name")
	fs.Var(&tagRenames, "rename-tag", "rename a tag, as old=new (repeatable)")
	fs.Var(&groupRenames, "rename-group", "rename a group, as type:old=new (repeatable)")
	fs.Var(&deletePeople, "delete-person", "remove a person and their assignments (repeatable)")
	if err := fs.Parse(args); err != nil || *team == "" || *period == "" {
		fs.Usage()
		return errUsage
	}

	edits, err := buildEdits(*displayName, tagRenames, groupRenames, deletePeople)
	if err != nil {
		return err
	}

	svc := app.New(store,
		app.WithQueueSize(cfg.SaveQueueSize),
		app.WithSaveDebounce(cfg.SaveDebounce()),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	stopped := false
	stopSvc := func() error {
		if stopped {
			return nil
		}
		stopped = true
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return svc.Stop(stopCtx)
	}
	defer func() { _ = stopSvc() }()

	sess, err := svc.Open(ctx, *team, *period)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, e := range edits {
		if err := sess.Apply(ctx, e.op, e.apply); err != nil {
			return err
		}
	}

	if err := stopSvc(); err != nil {
		return err
	}
	if conflict := sess.Conflict(); conflict != nil {
		_, _ = io.WriteString(out, conflict.Diff)
		return conflict
	}
	if err := sess.Err(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "saved %s/%s (%d edits), lastUpdateUUID %s\n",
		*team, *period, len(edits), sess.Period().LastUpdateUUID())
	return nil
}

type namedEdit struct {
	op    string
	apply app.Edit
}

func buildEdits(displayName string, tagRenames, groupRenames, deletePeople []string) ([]namedEdit, error) {
	var edits []namedEdit
	if displayName != "" {
		edits = append(edits, namedEdit{"display_name", func(p *plan.Period) (*plan.Period, error) {
			return p.WithDisplayName(displayName), nil
		}})
	}
	for _, r := range tagRenames {
		from, to, ok := strings.Cut(r, "=")
		if !ok || from == "" {
			return nil, fmt.Errorf("-rename-tag %q is not old=new", r)
		}
		edits = append(edits, namedEdit{"rename_tag", func(p *plan.Period) (*plan.Period, error) {
			return p.WithTagRenamed(from, to), nil
		}})
	}
	for _, r := range groupRenames {
		groupType, names, ok := strings.Cut(r, ":")
		from, to, ok2 := strings.Cut(names, "=")
		if !ok || !ok2 || groupType == "" || from == "" {
			return nil, fmt.Errorf("-rename-group %q is not type:old=new", r)
		}
		edits = append(edits, namedEdit{"rename_group", func(p *plan.Period) (*plan.Period, error) {
			return p.WithGroupRenamed(groupType, from, to), nil
		}})
	}
	for _, id := range deletePeople {
		edits = append(edits, namedEdit{"delete_person", func(p *plan.Period) (*plan.Period, error) {
			person, ok := p.Person(id)
			if !ok {
				return nil, fmt.Errorf("unknown person %q", id)
			}
			return p.WithPersonDeleted(person), nil
		}})
	}
	if len(edits) == 0 {
		return nil, errors.New("edit needs at least one change")
	}
	return edits, nil
}
