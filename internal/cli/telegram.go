package cli

import (
	"io"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

// Version is reported by the long-running bot, set from main.
var Version = "dev"

// TelegramCommand runs the chat bot until interrupted
type TelegramCommand struct {
	base
	Token string
	Debug bool
}

func NewTelegramCommand(cfg *config.Config, out io.Writer) *TelegramCommand {
	return &TelegramCommand{base: newBase(cfg, out)}
}

func (cmd *TelegramCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("telegram", "telegram [-token T] [options]")
	fs.StringVar(&cmd.Token, "token", cmd.cfg.Telegram.Token, "Bot token from @BotFather (default: $TELEGRAM_TOKEN)")
	fs.BoolVar(&cmd.Debug, "debug", cmd.cfg.Telegram.Debug, "Log raw Bot API traffic")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageError("telegram takes no positional arguments")
	}
	if cmd.Token == "" {
		return usageError("no bot token: pass -token or set TELEGRAM_TOKEN")
	}
	return nil
}

func (cmd *TelegramCommand) Run() error {
	cfg := *cmd.cfg
	cfg.Database.Path = cmd.DatabasePath
	cfg.Telegram.Token = cmd.Token
	cfg.Telegram.Debug = cmd.Debug
	return entrypoint.RunBot(&cfg, Version)
}
