package app

import "time"

const (
	Name           = "dripmon"
	ConfigFilename = "config.yaml"
	DBFilename     = "history.db"
	LogFilename    = "dripmon.log"
	EnvFilename    = ".env"

	// HistoryPruneEvery is how many journal appends pass between prunes.
	HistoryPruneEvery = 200
	journalFlushWait  = 2 * time.Second
)
