package shell

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Opener shows a redeemed URL to the user.
type Opener interface {
	Open(url string) error
}

// PrintOpener asks the user to open the URL themselves.
type PrintOpener struct {
	W io.Writer
}

func (p PrintOpener) Open(url string) error {
	_, err := fmt.Fprintf(p.W, "Open manually: %s\n", url)
	return err
}

// BrowserOpener hands the URL to the desktop's default handler.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
