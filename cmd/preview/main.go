package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/raushankrgupta/fitly-client/preview"
)

func main() {
	urls := os.Args[1:]
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: preview <product-url>...")
		os.Exit(2)
	}

	fetcher := preview.NewFetcher()
	failed := false
	for _, u := range urls {
		fmt.Printf("Testing URL: %s\n", u)
		if r, ok := preview.RetailerFor(u); ok {
			fmt.Printf("Retailer: %s\n", r.Name)
		} else {
			fmt.Println("Retailer: unsupported")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		p, err := fetcher.Preview(ctx, u)
		cancel()
		if err != nil {
			log.Printf("Failed to preview %s: %v\n", u, err)
			failed = true
			continue
		}

		b, _ := json.MarshalIndent(p, "", "  ")
		fmt.Printf("Preview: %s\n", string(b))
		fmt.Println("--------------------------------------------------")
	}
	if failed {
		os.Exit(1)
	}
}
