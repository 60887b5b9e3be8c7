package beacon_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/crimson-sun/beacon/pkg/beacon"
)

func Example() {
	b, err := beacon.New(beacon.WithHashedDimension(64))
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	var signals []beacon.Signal
	for i := 0; i < 6; i++ {
		signals = append(signals, beacon.Signal{
			ID:          fmt.Sprintf("sig-%d", i),
			Title:       "Approval workflow bottleneck delays releases",
			Description: "Every change waits days for manual sign-off from the review board",
			Severity:    "HIGH",
			Department:  "engineering",
			CreatedAt:   time.Now(),
		})
	}

	res, err := b.Analyze(context.Background(), signals)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Status)
	for _, h := range res.Hotspots {
		fmt.Println(h.Title)
	}
	// Output:
	// SUCCESS
	// Process: approval, bottleneck, delays
}
