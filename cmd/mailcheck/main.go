// Command mailcheck sends the welcome email to one address so the SendGrid
// key and sender can be verified without registering a user.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"taskmanager/utils"
)

func main() {
	to := flag.String("to", "", "recipient address")
	name := flag.String("name", "there", "recipient first name")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	log := utils.NewLogger(os.Stdout, "debug", "text")

	if err := utils.ValidateEmail(*to); err != nil {
		log.Error("invalid recipient", "to", *to, "error", err)
		os.Exit(2)
	}
	if cfg.SendGridKey == "" {
		log.Error("SENDGRID_API_KEY is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mailer := utils.NewMailer(cfg.SendGridKey, cfg.MailFrom, log)
	if err := mailer.SendWelcome(ctx, *to, *name); err != nil {
		log.Error("send failed", "error", err)
		os.Exit(1)
	}
}
