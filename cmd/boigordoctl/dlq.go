package main

import (
	"fmt"

	"boigordo/internal/config"
	"boigordo/internal/infra"
	"boigordo/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var queues = map[string]string{
	"alerts":  worker.QueueAlerts,
	"reports": worker.QueueReports,
}

var (
	dlqQueue string
	dlqMax   int
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and replay dead-lettered jobs",
}

var dlqStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dead-letter queue lengths",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		for name, q := range queues {
			n, err := worker.DLQLength(ctx, rdb, q)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", name, n)
		}
		return nil
	},
}

var dlqReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Move dead-lettered jobs back onto their queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		queue, ok := queues[dlqQueue]
		if !ok {
			return fmt.Errorf("unknown queue %q (alerts | reports)", dlqQueue)
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		moved, err := worker.ReplayDLQ(ctx, rdb, queue, dlqMax)
		if err != nil {
			return err
		}
		log.Info().Str("queue", queue).Int("moved", moved).Msg("dlq replayed")
		return nil
	},
}

func init() {
	dlqReplayCmd.Flags().StringVar(&dlqQueue, "queue", "alerts", "Queue to replay (alerts | reports)")
	dlqReplayCmd.Flags().IntVar(&dlqMax, "max", 100, "Maximum jobs to move")
	dlqCmd.AddCommand(dlqStatusCmd)
	dlqCmd.AddCommand(dlqReplayCmd)
}
