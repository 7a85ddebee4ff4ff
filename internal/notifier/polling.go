package notifier

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler answers one command; an empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

// pollWait is the long-poll timeout passed to getUpdates.
const pollWait = 30 * time.Second

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

func (u update) command() string {
	if u.Message == nil {
		return ""
	}
	return strings.TrimSpace(u.Message.Text)
}

// StartPolling long-polls for commands and replies to each. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollWait + 5*time.Second, Transport: t.Client.Transport}
	offset := 0

	for ctx.Err() == nil {
		q := url.Values{}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("timeout", strconv.Itoa(int(pollWait.Seconds())))

		var updates []update
		if err := t.call(ctx, client, "getUpdates", q, nil, &updates); err != nil {
			if ctx.Err() != nil {
				break
			}
			t.log.Warn("polling request failed", zap.Error(err))
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			cmd := u.command()
			if cmd == "" {
				continue
			}
			t.log.Info("received command", zap.String("text", cmd))
			if reply := handler(ctx, cmd); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.log.Error("send reply", zap.Error(err))
				}
			}
		}
	}
	t.log.Info("telegram polling stopped")
}
