package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/urfave/cli/v3"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/quotes"
	"github.com/quotedesk/quotedesk/jobs"
)

// QueueStats summarises the default queue.
type QueueStats struct {
	Queue     string
	Size      int
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// InspectQueue reads the default queue counters.
func InspectQueue(inspector queueInspector) (QueueStats, error) {
	info, err := inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, fmt.Errorf("inspect queue: %w", err)
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Size = info.Size
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

func newJobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Background job helpers",
		Flags: []cli.Flag{redisAddrFlag()},
		Commands: []*cli.Command{
			{
				Name:  "trigger-notify",
				Usage: "Re-enqueue the admin notification for a stored quote request",
				Flags: []cli.Flag{
					databaseURLFlag(),
					&cli.StringFlag{Name: "quote-id", Usage: "Quote request id"},
				},
				Action: triggerNotify,
			},
			{
				Name:   "stats",
				Usage:  "Show default queue counters",
				Action: queueStats,
			},
		},
	}
}

func triggerNotify(ctx context.Context, cmd *cli.Command) error {
	quoteID := strings.TrimSpace(cmd.String("quote-id"))
	if quoteID == "" {
		return errQuoteIDRequired
	}
	dsn := cmd.String("database-url")
	if dsn == "" {
		return errDatabaseURLRequired
	}
	redisAddr := cmd.String("redis-addr")
	if redisAddr == "" {
		return errRedisAddrRequired
	}

	pool, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisOpts, err := jobs.RedisOpt(redisAddr)
	if err != nil {
		return err
	}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer client.Close()

	svc := quotes.NewService(quotes.Deps{
		Repo:     quotes.NewRepository(pool),
		Notifier: client,
	})
	info, err := svc.Renotify(ctx, quoteID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "Enqueued %s as task %s on queue %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func queueStats(ctx context.Context, cmd *cli.Command) error {
	redisAddr := cmd.String("redis-addr")
	if redisAddr == "" {
		return errRedisAddrRequired
	}
	redisOpts, err := jobs.RedisOpt(redisAddr)
	if err != nil {
		return err
	}
	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()

	stats, err := InspectQueue(inspector)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "queue=%s size=%d pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Size, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return nil
}
