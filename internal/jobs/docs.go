// Package jobs provides the scheduled background tasks of the dispatch
// service, built on github.com/robfig/cron/v3.
//
// # Available Jobs
//
//  1. TimeoutMonitorJob - every 60 seconds, sends due reminders and closes
//     expired attempts of every chain in progress
//  2. EscalationRetryJob - every minute, resubmits escalations the matching
//     service has not accepted yet and whose backoff has elapsed
//  3. StaleEscalationReportJob - hourly tick, reports escalations open for
//     too long at most once a day, gated by a persisted last run time
//
// # Usage
//
//	jobManager := jobs.NewJobManager(monitorJob, retryJob, reportJob)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules accept six-field cron expressions (with seconds) and the
// descriptors supported by cron ("@every 30s", "@hourly"). A tick that
// arrives while the previous run is still going is skipped.
//
// # Error Handling
//
// Jobs log failures and keep their schedule. Failures of single chains are
// handled and counted by the command handlers; a job only logs the failure
// of a whole pass.
package jobs
