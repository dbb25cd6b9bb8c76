package header

import "net/http"

// CommandHeader carries the CLI subcommand that issued a request.
const CommandHeader = "Scm-Compound-Command"

// When the CLI is initialized, we set this to a string of the current CLI subcommand
// (e.g. `repos`) with no args or flags, so we include it as a header in API requests.
var cliCommandStr string = ""

func SetCommandStr(commandStr string) {
	cliCommandStr = commandStr
}

func GetCommandStr() string {
	return cliCommandStr
}

// Apply stamps the command header on req when a command string is set.
func Apply(req *http.Request) {
	if cliCommandStr != "" {
		req.Header.Set(CommandHeader, cliCommandStr)
	}
}
