package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go-jobalert-scheduler/internal/domain"
	redisrepo "go-jobalert-scheduler/internal/repository/redis"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <job-id>",
	Short: "Post a live job to its social targets, replacing earlier posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

var removeCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Delete every social post of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var postsCmd = &cobra.Command{
	Use:   "posts <job-id>",
	Short: "List the social post records of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runPosts,
}

var (
	publishPlatforms []string
	publishViaEvents bool
)

func init() {
	publishCmd.Flags().StringSliceVarP(&publishPlatforms, "platform", "p", nil, "Restrict to these platforms (default: every configured target)")
	publishCmd.Flags().BoolVar(&publishViaEvents, "via-events", false, "Emit a jobs.published event for the running server instead of posting here")
	removeCmd.Flags().BoolVar(&publishViaEvents, "via-events", false, "Emit a jobs.removed event for the running server instead of deleting here")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(postsCmd)
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func printRecords(records []domain.SocialPostRecord) error {
	if records == nil {
		records = []domain.SocialPostRecord{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runPublish(cmd *cobra.Command, args []string) error {
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if publishViaEvents {
		ev := domain.PublishEvent{JobID: jobID, Platforms: publishPlatforms}
		if err := redisrepo.PublishJobEvent(ctx, a.redis, redisrepo.ChannelJobPublished, ev); err != nil {
			return err
		}
		logger.Log.Info("Publish event emitted", "job_id", jobID)
		return nil
	}

	records, err := a.socialUC.OnPublish(ctx, jobID, publishPlatforms)
	if printErr := printRecords(records); printErr != nil {
		return printErr
	}
	return err
}

func runRemove(cmd *cobra.Command, args []string) error {
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if publishViaEvents {
		return redisrepo.PublishJobEvent(ctx, a.redis, redisrepo.ChannelJobRemoved, domain.PublishEvent{JobID: jobID})
	}
	return a.socialUC.OnRemove(ctx, jobID)
}

func runPosts(cmd *cobra.Command, args []string) error {
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.socialUC.ListPosts(ctx, jobID)
	if err != nil {
		return err
	}
	return printRecords(records)
}
