package main

const maxConsoleMessages = 200

var consoleLog = messageLog{max: maxConsoleMessages}

// consoleMessage shows a status line above the chat, for errors and
// command results rather than conversation.
func consoleMessage(msg string) {
	if msg == "" {
		return
	}
	consoleLog.Add(msg)
}

func getConsoleMessages() []string {
	format := gs.TimestampFormat
	if format == "" {
		format = "3:04PM"
	}
	return consoleLog.Entries(format, gs.ConsoleTimestamps)
}
