package version

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/nsqlite/litebind/sqlitec"
)

const Version = "v0.1.0"

const banner = `
    __    _ __       __    _           __
   / /   (_) /____  / /_  (_)___  ____/ /
  / /   / / __/ _ \/ __ \/ / __ \/ __  / 
 / /___/ / /_/  __/ /_/ / / / / / /_/ /  
/_____/_/\__/\___/_.___/_/_/ /_/\__,_/   
%s %s (SQLite %s)`

// render returns the ASCII art for the given tool name.
func render(tool string) string {
	art := fmt.Sprintf(banner[1:], tool, Version, sqlitec.Version())
	return color.New(color.FgCyan, color.Bold).Sprint(art)
}

// ShellVersion returns the banner of the interactive shell.
func ShellVersion() string {
	return render("Shell")
}

// BenchVersion returns the banner of the benchmark tool.
func BenchVersion() string {
	return render("Bench")
}
