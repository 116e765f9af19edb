package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"

	"github.com/golden-vcr/overlay/internal/store"
	"github.com/golden-vcr/overlay/internal/style"
)

type Config struct {
	TwitchChannelName string `env:"TWITCH_CHANNEL_NAME" required:"true"`
}

func main() {
	// Initialize config from environment vars
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	storeConfig := store.Config{}
	pgConfig := store.PostgresConfig{}
	spacesConfig := store.SpacesConfig{}
	for _, c := range []any{&config, &storeConfig, &pgConfig, &spacesConfig} {
		if err := env.Set(c); err != nil {
			log.Fatalf("error parsing config: %v", err)
		}
	}

	// Open the same snapshot store that the server uses
	ctx := context.Background()
	snapshots, err := store.Open(ctx, storeConfig, pgConfig, spacesConfig)
	if err != nil {
		log.Fatalf("error opening snapshot store: %v", err)
	}
	defer snapshots.Close()
	key := style.StorageKey(config.TwitchChannelName)

	// Print the saved styles for the channel
	data, err := snapshots.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Printf("saved styles for %s: <none>\n", config.TwitchChannelName)
	} else if err != nil {
		log.Fatalf("error loading saved styles: %v", err)
	} else {
		fmt.Printf("saved styles for %s:\n%s\n", config.TwitchChannelName, data)
	}

	// If called with 'set-styles <path>', import the given configuration file; if
	// called with 'clear-styles', revert to the defaults
	if len(os.Args) >= 3 && os.Args[1] == "set-styles" {
		contents, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.Fatalf("error reading %s: %v", os.Args[2], err)
		}
		if _, err := style.ParseImport(contents); err != nil {
			log.Fatalf("refusing to import %s: %v", os.Args[2], err)
		}
		fmt.Printf("importing styles from: %s\n", os.Args[2])
		if err := snapshots.Save(ctx, key, contents); err != nil {
			log.Fatalf("error saving styles: %v", err)
		}
	} else if len(os.Args) >= 2 && os.Args[1] == "clear-styles" {
		if data != nil {
			fmt.Printf("clearing saved styles\n")
			if err := snapshots.Delete(ctx, key); err != nil {
				log.Fatalf("error clearing saved styles: %v", err)
			}
		}
	}
}
