package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/guard"
	"github.com/raditpra/unduh-bot/internal/media"
	"github.com/raditpra/unduh-bot/pkg/metrics"
)

// Telegram caps an album at ten items.
const albumChunkSize = 10

// Admission gates and counts deliveries.
type Admission interface {
	Check(ctx context.Context, userID int64, isAdmin bool) (guard.Decision, error)
	RecordDelivery(ctx context.Context, userID int64, isAdmin bool) error
}

// NewDownloadHandler is the default message handler: it extracts a
// TikTok or Instagram link, runs admission, fetches the media and
// delivers it. Messages without a link get a short usage hint.
func NewDownloadHandler(admission Admission, fetcher media.Fetcher, isAdmin func(int64) bool, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		url, ok := media.ExtractURL(c.Text())
		if !ok {
			return c.Send("Send me a TikTok or Instagram link to download it. See /help for details.")
		}

		ctx := context.Background()
		admin := isAdmin != nil && isAdmin(sender.ID)

		decision, err := admission.Check(ctx, sender.ID, admin)
		if err != nil {
			return err
		}

		if !decision.Allowed {
			switch decision.Reason {
			case guard.DenyNotMember:
				return c.Send(fmt.Sprintf("Please join %s first, then try again.", decision.Channel))
			case guard.DenyDailyLimit:
				return c.Send(fmt.Sprintf("Daily limit reached (%d/%d). It resets at midnight, or use /vip for a higher limit.",
					decision.Current, decision.Limit))
			default:
				return c.Send("You cannot download right now. Try again later.")
			}
		}

		if err := c.Notify(telebot.UploadingVideo); err != nil {
			log.Debug("chat action failed", slog.Any("error", err))
		}

		result, err := fetcher.Fetch(ctx, url)
		if err != nil {
			metrics.RecordDownload("unknown", "error")
			return apperrors.NewDownloadError(err)
		}
		defer cleanupFiles(result, log)

		if err := deliver(c, result); err != nil {
			metrics.RecordDownload(string(result.Type), "error")
			return fmt.Errorf("deliver media: %w", err)
		}

		for i := 0; i < result.Items(); i++ {
			if err := admission.RecordDelivery(ctx, sender.ID, admin); err != nil {
				// the user already has the file; only the counter is off
				log.Error("failed to record delivery",
					slog.Int64("user_id", sender.ID),
					slog.Any("error", err))
			}
		}

		metrics.RecordDownload(string(result.Type), "success")

		log.Info("media delivered",
			slog.Int64("user_id", sender.ID),
			slog.String("type", string(result.Type)),
			slog.Int("items", result.Items()))

		return nil
	}
}

func deliver(c telebot.Context, result *media.Result) error {
	if result.Type == media.TypeVideo {
		video := &telebot.Video{
			File:    telebot.FromDisk(result.FilePath),
			Caption: result.Caption,
		}
		return c.Send(video)
	}

	paths := result.FilePaths
	for start := 0; start < len(paths); start += albumChunkSize {
		end := start + albumChunkSize
		if end > len(paths) {
			end = len(paths)
		}

		album := make(telebot.Album, 0, end-start)
		for i, path := range paths[start:end] {
			photo := &telebot.Photo{File: telebot.FromDisk(path)}
			if start == 0 && i == 0 {
				photo.Caption = result.Caption
			}
			album = append(album, photo)
		}

		if err := c.SendAlbum(album); err != nil {
			return err
		}
	}

	return nil
}

func cleanupFiles(result *media.Result, log *slog.Logger) {
	paths := result.FilePaths
	if result.FilePath != "" {
		paths = append(paths, result.FilePath)
	}

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp file",
				slog.String("path", path),
				slog.Any("error", err))
		}
	}
}
