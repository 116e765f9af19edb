package main

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"github.com/golden-vcr/overlay/internal/style"
)

type Config struct {
	OverlayUrl string `env:"OVERLAY_URL" default:"http://localhost:5173/overlay"`
}

// preview opens the overlay page in a browser, configured entirely through URL
// parameters, so that a style file can be checked without saving it
func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <styles.json>", os.Args[0])
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("error reading %s: %v", os.Args[1], err)
	}
	snapshot, skipped, err := style.ParsePersisted(data)
	if err != nil {
		log.Fatalf("error parsing %s: %v", os.Args[1], err)
	}
	if len(skipped) > 0 {
		fmt.Printf("ignoring invalid fields: %v\n", skipped)
	}

	overlayUrl, err := url.Parse(config.OverlayUrl)
	if err != nil {
		log.Fatalf("invalid OVERLAY_URL: %v", err)
	}
	c := style.Merge(style.Defaults(), style.Snapshot{}, snapshot)
	overlayUrl.RawQuery = style.EncodeURL(c).Encode()

	fmt.Printf("%s\n", overlayUrl.String())
	if err := browser.OpenURL(overlayUrl.String()); err != nil {
		log.Fatalf("error opening browser: %v", err)
	}
}
