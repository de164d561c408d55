package main

import (
	"bankrot-check/cmd/bankrot-check/commands"
	"bankrot-check/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
