// Package retention removes offloaded resources once they exceed a maximum
// age.
//
// A Pruner computes a cutoff from its MaxAge and calls Store.Prune. A
// Scheduler runs the pruner on a standard five-field cron expression:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    MaxAge:   24 * time.Hour,
//	    Schedule: "*/15 * * * *",
//	}, logger)
//	if err := pruner.Scheduler().Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Scheduler().Stop()
//
// A zero MaxAge disables pruning. An empty Schedule leaves pruning to
// explicit Prune calls such as the "resources prune" command.
package retention
