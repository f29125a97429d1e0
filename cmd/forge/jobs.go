package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/argus-labs/forge/pkg/job"
	"github.com/argus-labs/forge/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

type jobsReport struct {
	Jobs       int       `json:"jobs"`
	Workers    int       `json:"workers"`
	Sleep      string    `json:"sleep"`
	Paused     bool      `json:"paused"`
	Completed  int64     `json:"completed"`
	Total      string    `json:"total"`
	JobsPerSec float64   `json:"jobs_per_sec"`
	Stats      job.Stats `json:"stats"`
}

func newJobsCmd() *cobra.Command {
	var (
		count  int
		opts   job.Options
		sleep  time.Duration
		paused bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Schedule sleeping jobs on the job system and wait for all of them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tel, err := telemetry.New(telemetry.Options{ServiceName: "forge-jobs"})
			if err != nil {
				return eris.Wrap(err, "failed to initialize telemetry")
			}
			log := tel.GetLogger("job")
			opts.Logger = &log

			report, err := runJobs(cmd.Context(), count, opts, sleep, paused)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), asJSON, report, func(w io.Writer) {
				fmt.Fprintf(w, "jobs:       %d on %d workers (paused first=%t)\n", report.Jobs, report.Workers, report.Paused)
				fmt.Fprintf(w, "completed:  %d\n", report.Completed)
				fmt.Fprintf(w, "total:      %s\n", report.Total)
				fmt.Fprintf(w, "throughput: %.0f jobs/s\n", report.JobsPerSec)
				fmt.Fprintf(w, "stolen:     %d\n", report.Stats.Stolen)
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "number of jobs to schedule")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 8, "number of workers")
	cmd.Flags().DurationVar(&sleep, "sleep", 20*time.Millisecond, "how long each job sleeps")
	cmd.Flags().BoolVar(&paused, "paused", false, "queue every job with workers paused, then release them together")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func runJobs(ctx context.Context, count int, opts job.Options, sleep time.Duration, paused bool) (jobsReport, error) {
	js, err := job.New(opts)
	if err != nil {
		return jobsReport{}, eris.Wrap(err, "failed to start job system")
	}

	var completed atomic.Int64
	start := time.Now()
	if paused {
		js.PauseWorkers(true)
	}
	for i := range count {
		js.Schedule(ctx, fmt.Sprintf("sleep-%d", i), func(context.Context) {
			time.Sleep(sleep)
			completed.Add(1)
		})
	}
	if paused {
		js.PauseWorkers(false)
	}
	js.WaitAll()
	elapsed := time.Since(start)

	if err := js.Terminate(); err != nil {
		return jobsReport{}, eris.Wrap(err, "failed to terminate job system")
	}

	return jobsReport{
		Jobs:       count,
		Workers:    js.WorkerCount(),
		Sleep:      sleep.String(),
		Paused:     paused,
		Completed:  completed.Load(),
		Total:      elapsed.String(),
		JobsPerSec: float64(count) / elapsed.Seconds(),
		Stats:      js.Stats(),
	}, nil
}
