package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// helpdesk time zones resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"aktis-collector-wonderdesk/cmd/aktis-collector-wonderdesk/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
