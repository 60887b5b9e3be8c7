package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/source/sqlite"
)

// signalDoc is the ingestion wire format. Severity arrives as a string so
// hand-written fixture files stay readable.
type signalDoc struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Severity    string             `json:"severity"`
	Department  string             `json:"department"`
	Team        string             `json:"team"`
	Category    string             `json:"category"`
	Tags        map[string]string  `json:"tags"`
	Metrics     map[string]float64 `json:"metrics"`
	CreatedAt   time.Time          `json:"created_at"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Load signals from a JSON array into the backlog",
	Long:  "Reads a JSON array of signals from the given file, or stdin when no file is\ngiven, and inserts them into the SQLite backlog. Missing IDs and timestamps\nare filled in.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		var docs []signalDoc
		if err := json.NewDecoder(in).Decode(&docs); err != nil {
			return fmt.Errorf("decode signals: %w", err)
		}

		src, err := sqlite.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer src.Close()

		for _, d := range docs {
			if d.Title == "" {
				return fmt.Errorf("signal %q has no title", d.ID)
			}
			sig := model.Signal{
				ID:          d.ID,
				Title:       d.Title,
				Description: d.Description,
				Severity:    model.ParseSeverity(d.Severity),
				Department:  d.Department,
				Team:        d.Team,
				Category:    d.Category,
				Tags:        d.Tags,
				Metrics:     d.Metrics,
				CreatedAt:   d.CreatedAt,
			}
			if sig.ID == "" {
				sig.ID = uuid.NewString()
			}
			if sig.CreatedAt.IsZero() {
				sig.CreatedAt = time.Now().UTC()
			}
			if err := src.Insert(cmd.Context(), sig); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "ingested %d signals into %s\n", len(docs), cfg.DB)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
