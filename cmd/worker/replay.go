package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/popcodeorg/playground-backend/config"
	"github.com/popcodeorg/playground-backend/internal/projects/repository"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

// RunReplay rebuilds the session state of a user from the journal and
// prints it as JSON.
func RunReplay(args []string) {
	if len(args) < 1 {
		panic("usage: replay <userID> [journalPath]")
	}
	journal := openJournal(args[1:])
	defer journal.Close()

	envs, err := journal.Envelopes(context.Background(), args[0])
	if err != nil {
		panic(err)
	}
	state, err := store.Replay(store.NewState(), envs)
	if err != nil {
		panic(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		panic(err)
	}
	fmt.Fprintf(os.Stderr, "replayed %d events\n", len(envs))
}

// RunStreams lists the users with journaled events.
func RunStreams(args []string) {
	journal := openJournal(args)
	defer journal.Close()

	streams, err := journal.Streams(context.Background())
	if err != nil {
		panic(err)
	}
	for _, s := range streams {
		fmt.Println(s)
	}
}

func openJournal(args []string) *repository.Journal {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := config.Load()
		if err != nil {
			panic(err)
		}
		path = cfg.Journal.Path
	}
	journal, err := repository.OpenJournal(path)
	if err != nil {
		panic(err)
	}
	return journal
}
