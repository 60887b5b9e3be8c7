// Package beacon provides an embedded signal clustering engine: it
// classifies organizational signals by root cause, clusters them with a
// three-stage hybrid method, and returns ranked hotspots.
//
// Quick start:
//
//	b, err := beacon.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	res, err := b.Analyze(ctx, signals)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, h := range res.Hotspots {
//	    fmt.Println(h.Title, h.RankScore)
//	}
//
// The Beacon instance is safe for concurrent use. Create once, reuse across
// batches.
package beacon
