package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/normalize"
)

// StartFileReplay tails JSONL files of transactions and feeds them into the
// pipeline. Useful for backfills and replaying captured traffic.
func StartFileReplay(ctx context.Context, cfg *config.Manager, out chan<- normalize.RawTransaction, logger *slog.Logger) {
	current := cfg.Get().Ingest.FileReplay
	if !current.Enabled {
		if logger != nil {
			logger.Info("file replay ingest disabled")
		}
		return
	}
	for _, path := range current.Files {
		path := path
		if logger != nil {
			logger.Info("file replay ingest enabled", "path", path, "start_at_end", current.StartAtEnd)
		}
		go tailFile(ctx, path, current.StartAtEnd, out, logger)
	}
}

func tailFile(ctx context.Context, path string, startAtEnd bool, out chan<- normalize.RawTransaction, logger *slog.Logger) {
	var file *os.File
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if file == nil {
			f, err := os.Open(path)
			if err != nil {
				if logger != nil {
					logger.Warn("replay open failed", "path", path, "err", err)
				}
				if !BackoffSleep(ctx, 500*time.Millisecond) {
					return
				}
				continue
			}
			file = f
			if startAtEnd {
				if pos, err := file.Seek(0, io.SeekEnd); err == nil {
					offset = pos
				}
			}
		}

		reader := bufio.NewReader(file)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					if !BackoffSleep(ctx, 200*time.Millisecond) {
						_ = file.Close()
						return
					}
					info, statErr := os.Stat(path)
					if statErr == nil && info.Size() < offset {
						_ = file.Close()
						file = nil
						break
					}
					continue
				}
				if logger != nil {
					logger.Warn("replay read error", "path", path, "err", err)
				}
				_ = file.Close()
				file = nil
				break
			}
			offset += int64(len(line))
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			var raw normalize.RawTransaction
			if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
				if logger != nil {
					logger.Warn("replay decode error", "path", path, "err", err)
				}
				continue
			}
			SendNonBlocking(ctx, out, raw, logger)
		}
	}
}
