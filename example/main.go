// Example usage of the Fraction Market SDK Go
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"

	fractionmarket "github.com/fractionlabs/fraction-market-sdk-go"
	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// watchRun prints step transitions until the run halts. Terminal snapshots
// are always delivered, so the goroutine exits with the run instead of
// leaking on its never-closed subscription channel.
func watchRun(run *pipeline.Run) {
	updates := run.Subscribe()
	go func() {
		for snap := range updates {
			info := fractionmarket.StepInfoFor(snap.StepKey)
			fmt.Printf("  [%s] %s\n", snap.Status, info.Title)
			if snap.Status == pipeline.StatusSuccess || snap.Status == pipeline.StatusFailed {
				return
			}
		}
	}()
}

func main() {
	// Initialize the SDK client
	config := fractionmarket.ClientConfig{
		Host:       "https://api.fraction.market", // Replace with actual API host
		APIKey:     "your-api-key-here",
		ChainID:    fractionmarket.ChainIDPolygonAmoy,
		RPCURL:     "https://rpc-amoy.polygon.technology", // Replace with actual RPC URL
		PrivateKey: "your-private-key-here",               // Replace with actual private key
	}

	client, err := fractionmarket.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	assetID := "your-asset-id-here" // Replace with actual asset ID

	// Example: Validate the purchase before building the run
	fmt.Println("Validating purchase amount...")
	requestedUnits := big.NewInt(500_000)
	selected, err := client.ValidatePurchaseAmount(ctx, assetID, "", requestedUnits)
	if err != nil {
		log.Fatalf("Purchase not possible: %v", err)
	}
	fmt.Printf("Selected order %s at %s USD per percent\n",
		selected.Order.ID, selected.Order.PricePerPercentUSD)

	// Example: Run the purchase pipeline
	fmt.Println("\nStarting purchase...")
	run, err := client.NewPurchaseRun(fractionmarket.PurchaseParams{
		AssetID:        assetID,
		OrderID:        selected.Order.ID,
		RequestedUnits: requestedUnits,
	})
	if err != nil {
		log.Fatalf("Failed to build purchase run: %v", err)
	}

	// Example: Observe step progress while the run executes
	watchRun(run)

	if err := run.Start(ctx); err != nil {
		snap := run.Snapshot()
		if snap.LastError != nil {
			log.Printf("Purchase failed at %q: %s", snap.LastError.Key, snap.LastError.Description)
			// Example: Retry only the failing step
			fmt.Println("\nRetrying...")
			watchRun(run)
			if err := run.Retry(ctx); err != nil {
				log.Fatalf("Retry failed: %v", err)
			}
		} else {
			log.Fatalf("Purchase failed: %v", err)
		}
	}

	if run.Snapshot().Status == pipeline.StatusSuccess {
		if result, ok := fractionmarket.PurchaseResult(run); ok {
			fmt.Printf("\nPurchase confirmed: %s\n", result.TxHash)
		}
	}

	// Example: Subscribe to live order updates for the asset
	fmt.Println("\nConnecting to the order feed...")
	feed := fractionmarket.NewFeedClient(fractionmarket.FeedConfig{
		APIKey: config.APIKey,
		OnMessage: func(messageType int, data []byte) {
			fmt.Printf("Feed event: %s\n", data)
		},
		OnError: func(err error) {
			log.Printf("Feed error: %v", err)
		},
	})
	if err := feed.Connect(ctx); err != nil {
		log.Printf("Failed to connect to feed: %v", err)
	} else {
		defer feed.Disconnect()
		if err := feed.SubscribeOrderUpdates(assetID); err != nil {
			log.Printf("Failed to subscribe: %v", err)
		}
	}
}
