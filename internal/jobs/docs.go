// Package jobs provides scheduled background tasks for the delivery system.
//
// Jobs are built on github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// 1. DriverPresenceJob - takes online drivers without a recent heartbeat offline (default every 30s)
// 2. OrderDispatchJob - auto-assigns orders still in the created status, oldest first (optional)
//
// # Usage
//
//	presence := jobs.NewDriverPresenceJob(&markStaleHandler, jobs.Options{Schedule: "@every 30s"}, logger)
//	jobManager := jobs.NewJobManager(presence)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Running on several replicas
//
// When Options.Locker is set each run first takes a lease named after the job;
// replicas that miss the lease skip that run. Options.NewRelic records each run
// as a background transaction.
//
// # Error Handling
//
// Runs log their errors and never stop the schedule. Orders that cannot be
// served yet are skipped by the dispatcher without an error.
package jobs
