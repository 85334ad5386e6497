package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"trade-signal/internal/domain"
	"trade-signal/internal/service"

	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 10 * time.Second

type SignalQuerier interface {
	Evaluate(ctx context.Context, symbol, interval string) (domain.Evaluation, error)
	ScreenWatchlist(ctx context.Context, interval string, filter domain.ScreenFilter) (service.ScreenResult, error)
	Chart(ctx context.Context, symbol, interval string) ([]byte, domain.Evaluation, error)
}

// StartTelegramBot returns nil when no token is configured.
func StartTelegramBot(token string, signalService SignalQuerier) *AlertDispatcher {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/signal", func(c tele.Context) error {
		if signalService == nil {
			return c.Send("Signal service unavailable")
		}
		symbol, interval, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send(fmt.Sprintf("Usage: /signal AAPL [interval]\nIntervals: %s", strings.Join(domain.SupportedIntervals, ", ")))
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		eval, err := signalService.Evaluate(ctx, symbol, interval)
		if err != nil {
			return c.Send(fmt.Sprintf("Error evaluating %s: %v", symbol, err))
		}
		return c.Send(formatEvaluation(eval))
	})

	b.Handle("/chart", func(c tele.Context) error {
		if signalService == nil {
			return c.Send("Signal service unavailable")
		}
		symbol, interval, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /chart AAPL [interval]")
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		png, eval, err := signalService.Chart(ctx, symbol, interval)
		if err != nil {
			return c.Send(fmt.Sprintf("Error charting %s: %v", symbol, err))
		}
		return c.Send(chartPhoto(png, eval))
	})

	b.Handle("/watchlist", func(c tele.Context) error {
		if signalService == nil {
			return c.Send("Signal service unavailable")
		}
		filter, err := parseWatchlistArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /watchlist [all|bullish|bearish|oversold]")
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		res, err := signalService.ScreenWatchlist(ctx, "", filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error screening watchlist: %v", err))
		}
		return c.Send(formatScreen(res))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, scope, err := parseAlertCommand(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on [all|buy|sell|hold] | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID, scope) {
				return c.Send(fmt.Sprintf("Rating change alerts enabled for this chat (%s).", scope))
			}
			return c.Send(fmt.Sprintf("Rating change alerts are already enabled for this chat (%s).", scope))
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Rating change alerts disabled for this chat.")
			}
			return c.Send("Rating change alerts are already disabled for this chat.")
		default:
			if current, ok := alerts.Scope(chat.ID); ok {
				return c.Send(fmt.Sprintf("Alerts status: ON (%s)", current))
			}
			return c.Send("Alerts status: OFF")
		}
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func parseSignalArgs(args []string) (string, string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", "", errors.New("expected symbol and optional interval")
	}
	symbol, ok := domain.NormalizeSymbol(args[0])
	if !ok {
		return "", "", errors.New("invalid symbol")
	}
	interval := ""
	if len(args) == 2 {
		interval = strings.ToLower(strings.TrimSpace(args[1]))
		if !domain.IsSupportedInterval(interval) {
			return "", "", errors.New("unsupported interval")
		}
	}
	return symbol, interval, nil
}

func chartPhoto(png []byte, eval domain.Evaluation) *tele.Photo {
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: formatEvaluationLine(eval),
	}
}

func parseWatchlistArgs(args []string) (domain.ScreenFilter, error) {
	if len(args) > 1 {
		return "", errors.New("too many arguments")
	}
	raw := ""
	if len(args) == 1 {
		raw = args[0]
	}
	filter, ok := domain.ParseScreenFilter(raw)
	if !ok {
		return "", errors.New("unknown filter")
	}
	return filter, nil
}

func formatEvaluationLine(e domain.Evaluation) string {
	return fmt.Sprintf("%s %s %s (%d%%)", e.Symbol, e.Interval, e.Result.Rating, e.Result.Confidence)
}

func formatEvaluation(e domain.Evaluation) string {
	lines := []string{formatEvaluationLine(e)}
	if !e.Result.Levels.Computed {
		lines = append(lines, fmt.Sprintf("Not enough history (%d bars)", e.Bars))
		return strings.Join(lines, "\n")
	}

	for _, f := range e.Result.Flags {
		mark := "-"
		if f.Passed {
			mark = "+"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%+.2f) %s", mark, f.ID, f.Weight, f.Note))
	}
	l := e.Result.Levels
	lines = append(lines,
		fmt.Sprintf("Entry: %.2f - %.2f", l.Entry[0], l.Entry[1]),
		fmt.Sprintf("Stop: %.2f", l.Stop),
		fmt.Sprintf("Targets: %.2f / %.2f / %.2f", l.TakeProfit[0], l.TakeProfit[1], l.TakeProfit[2]),
		fmt.Sprintf("As of %s", e.BarTime.UTC().Format(time.RFC822)),
	)
	return strings.Join(lines, "\n")
}

func formatScreen(res service.ScreenResult) string {
	lines := []string{fmt.Sprintf(
		"Watchlist %s (%s): %d screened, %d bullish, %d bearish, %d oversold",
		res.Interval, res.Filter, res.Stats.Total, res.Stats.Bullish, res.Stats.Bearish, res.Stats.Oversold,
	)}
	if len(res.Evaluations) == 0 {
		lines = append(lines, "No matching symbols right now.")
	}
	for _, e := range res.Evaluations {
		lines = append(lines, formatEvaluationLine(e))
	}
	if len(res.Failed) > 0 {
		lines = append(lines, "Failed: "+strings.Join(res.Failed, ", "))
	}
	return strings.Join(lines, "\n")
}
