package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	fmt.Println("Enter a question (one per line). Ctrl+C to exit.")

	scanner := bufio.NewScanner(os.Stdin)

	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down")
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				a.logger.Info("stdin closed")
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			a.handleQuestion(ctx, line)
		}
	}
}

func (a *App) handleQuestion(ctx context.Context, question string) {
	result, err := a.Query(ctx, []string{question})
	if err != nil {
		a.logger.Error("query failed", zap.Error(err))
		return
	}

	if len(result.Evidence) == 0 {
		fmt.Println("\nNo relevant segments found.")
		return
	}

	fmt.Printf("\nFound %d relevant segments:\n", len(result.Evidence))
	for i, ev := range result.Evidence {
		fmt.Printf("   %d. %s chunks [%d,%d) (value: %.2f)\n", i+1, ev.DocID, ev.Start, ev.End, ev.Value)
	}

	fmt.Println("\nGenerating answer...")
	answer, err := a.Answer(ctx, question, result.Evidence)
	if err != nil {
		a.logger.Error("answer generation failed", zap.Error(err))
		return
	}

	fmt.Printf("\n%s\n\n", answer)

	if a.outputPath != "" {
		report := &Report{
			Question:    question,
			Evidence:    result.Evidence,
			Answer:      answer,
			ProcessedAt: time.Now().Format("2006-01-02 15:04:05"),
		}
		if err := appendReport(report, a.outputPath); err != nil {
			a.logger.Warn("failed to save report", zap.Error(err))
		} else {
			a.logger.Info("report saved", zap.String("path", a.outputPath))
		}
	}
}
