// Package scheduler runs pipelines on cron schedules in the background.
//
// Each trigger collects and runs the pipeline once. A trigger that fires
// while the previous run of the same entry is still going is skipped.
package scheduler
