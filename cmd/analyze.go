package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/report"
)

const analyzeSystemPrompt = `You are a TETR.IO Tetra League coach. You are given a structured profile
produced by a stats tool and a question from the player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the player can actually improve.
- Avoid generic Tetris advice unless it directly explains a pattern in the data.

Metrics glossary:
- PPS: pieces placed per second.
- APM: garbage lines sent per minute.
- VS: versus score, attack plus garbage cleared per 100 seconds.
- APP: attack per piece (APM / 60 / PPS). Efficiency of each placement.
- VS/APM: how much of VS comes from cleaning garbage rather than attacking.
- DS/S, DS/P: garbage downstacked per second and per piece.
- GE: garbage efficiency, how well cleared garbage converts into attack.
- Deviations: fraction above (+) or below (-) what the skill curve expects
  for a player of the same overall stat rank.
- Styles: OPENER (strong scripted openers, fast attack early), PLONKER
  (slow, efficient placements), STRIDER (raw speed), INF DS'ER (downstacks
  garbage indefinitely). A secondary style appears when its score is close
  to the primary.
- Percentiles compare the player to others of similar league percentile.
- Momentum traits describe how the previous result changes the next one.`

var (
	analyzeModel   string
	analyzeAPIKey  string
	analyzeHistory int
	analyzeNoCache bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username> <question>",
	Short: "AI-powered grounded analysis of a profile (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default analyze_model)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().IntVar(&analyzeHistory, "history", 5, "include up to N stored reports for trend questions")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "ignore cached snapshots")
}

type analyzeContext struct {
	Profile report.Document      `json:"profile"`
	History []model.StoredReport `json:"history,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	username, question := args[0], args[1]
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fetcher, release, err := newFetcher(ctx, db, analyzeNoCache)
	if err != nil {
		return err
	}
	defer release()

	fmt.Fprintf(os.Stderr, "Fetching %s and recent opponents...\n", username)
	p, err := buildProfile(ctx, fetcher, username)
	if err != nil {
		return err
	}

	data := analyzeContext{Profile: report.NewDocument(p, time.Now())}
	if analyzeHistory > 0 {
		data.History, err = db.ListReports(ctx, username, analyzeHistory)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
	}
	contextJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}

	modelID := analyzeModel
	if modelID == "" {
		modelID = cfg.AnalyzeModel
	}
	return callAnthropic(ctx, analyzeAPIKey, modelID, string(contextJSON), question)
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
