// parkctl is the operational CLI for the reservation ledger: submit a
// request, check or list statuses, export the ledger to Excel, and clear
// the retrieval answer cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"parkbot/internal/channel"
	"parkbot/internal/config"
	"parkbot/internal/database"
	"parkbot/internal/domain"
	"parkbot/internal/export"
	"parkbot/internal/logging"
	"parkbot/internal/models"
	"parkbot/internal/parser"
	"parkbot/internal/registry"
	"parkbot/internal/repository"
	"parkbot/internal/retrieval"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const usage = `Usage: parkctl [flags] <command> [args]

Commands:
  submit "<message>"   parse a reservation message and submit it for approval
  status <REQ-id>      show the current status of a request
  list [status]        list requests, optionally filtered by status
  export [status]      export requests to an Excel file
  clear-cache          remove all cached retrieval answers

Flags:
  -config <path>       config file (default configs/config.yaml)
  -telegram            notify the Telegram admin chat on submit
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("parkctl", flag.ExitOnError)
	configPath := flags.String("config", "configs/config.yaml", "config file path")
	useTelegram := flags.Bool("telegram", false, "notify the Telegram admin chat on submit")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("missing command")
	}
	command := flags.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *useTelegram {
		cfg.Telegram.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "parkctl").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "submit":
		if flags.NArg() < 2 {
			return fmt.Errorf("submit needs a reservation message")
		}
		return submit(ctx, cfg, db, strings.Join(flags.Args()[1:], " "), *useTelegram, &logger)
	case "status":
		if flags.NArg() < 2 {
			return fmt.Errorf("status needs a request id")
		}
		return status(ctx, db, flags.Arg(1))
	case "list":
		return list(ctx, db, flags.Arg(1))
	case "export":
		return exportRequests(ctx, cfg, db, flags.Arg(1), &logger)
	case "clear-cache":
		return clearCache(ctx, cfg, &logger)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func submit(ctx context.Context, cfg *config.Config, db *database.DB, message string, useTelegram bool, logger *zerolog.Logger) error {
	parsed := parser.Parse(message)
	if parsed == nil {
		return fmt.Errorf("could not parse reservation details; expected: reserve <FirstName> <LastName> <VehicleID> <Dates>")
	}

	var ch domain.ApprovalChannel
	if useTelegram {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("telegram bot api: %w", err)
		}
		ch = channel.NewTelegramChannel(botAPI, cfg.Telegram.AdminChatID, db, logger)
	} else {
		// No waiting here, so auto-approval is pointless; the decision
		// worker in the bot process (or an admin) decides later.
		ch = channel.NewSimulatedChannel(false, 0)
	}
	defer func() { _ = ch.Close() }()

	reg := registry.New(db, ch, nil, logger)
	id, err := reg.Submit(ctx, &models.ReservationDetails{
		Name:      parsed.Name,
		Surname:   parsed.Surname,
		VehicleID: parsed.VehicleID,
		Start:     parsed.Start,
		End:       parsed.End,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Submitted %s: %s %s, vehicle %s, %s - %s\n",
		id, parsed.Name, parsed.Surname, parsed.VehicleID,
		parsed.Start.Format("2006-01-02"), parsed.End.Format("2006-01-02"))
	return nil
}

func status(ctx context.Context, db *database.DB, id string) error {
	req, err := db.GetRequest(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Request:  %s\nName:     %s\nVehicle:  %s\nPeriod:   %s\nStatus:   %s\n",
		req.ID, req.DisplayName(), req.VehicleID, req.Period(), strings.ToUpper(req.Status))
	if req.AdminNote != "" {
		fmt.Printf("Note:     %s\n", req.AdminNote)
	}
	if !req.DecidedAt.IsZero() {
		fmt.Printf("Decided:  %s\n", req.DecidedAt.Format(time.RFC3339))
	}
	return nil
}

func list(ctx context.Context, db *database.DB, statusFilter string) error {
	requests, err := db.ListRequests(ctx, statusFilter)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Println("No requests found.")
		return nil
	}

	for _, req := range requests {
		fmt.Printf("%s  %-9s  %-20s  %s\n", req.ID, req.Status, req.DisplayName(), req.Period())
	}
	return nil
}

func exportRequests(ctx context.Context, cfg *config.Config, db *database.DB, statusFilter string, logger *zerolog.Logger) error {
	exporter := export.NewExporter(db, cfg.Exports.Path, logger)
	path, err := exporter.ExportRequests(ctx, statusFilter)
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func clearCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis is not configured; nothing to clear")
	}

	client := repository.NewRedisClient(cfg.Redis)
	defer func() { _ = repository.Close(client) }()
	if err := repository.Ping(ctx, client); err != nil {
		return err
	}

	retriever := retrieval.NewRetriever(retrieval.NewDocumentStore(nil), client, 0, 0, logger)
	removed, err := retriever.ClearCache(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached answer(s).\n", removed)
	return nil
}
