// Package logger prints colored, timestamped log lines for the storefront server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	cInf  = color.New(color.FgCyan, color.Bold).SprintFunc()
	cWarn = color.New(color.FgYellow, color.Bold).SprintFunc()
	cErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	cSucc = color.New(color.FgGreen, color.Bold).SprintFunc()
	cFatl = color.New(color.BgRed, color.FgWhite, color.Bold).SprintFunc()
	cTime = color.New(color.FgHiBlack).SprintFunc()
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	log.SetFlags(0)
}

// SetOutput redirects info and error lines. Tests pass io.Discard to keep output quiet.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = out
	stderr = errOut
}

func timeStamp() string {
	return cTime(time.Now().Format("2006-01-02 15:04:05"))
}

func write(w io.Writer, tag, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(w, "%s %s %s\n", timeStamp(), tag, msg)
}

// Writer returns the current info writer, used by the access log middleware.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

func LogInfo(format string, v ...interface{}) {
	write(Writer(), cInf("[INFO]"), format, v...)
}

func LogSuccess(format string, v ...interface{}) {
	write(Writer(), cSucc("[OK]"), format, v...)
}

func LogWarn(format string, v ...interface{}) {
	write(Writer(), cWarn("[WARN]"), format, v...)
}

func LogError(format string, v ...interface{}) {
	mu.Lock()
	w := stderr
	mu.Unlock()
	write(w, cErr("[ERR]"), format, v...)
}

func LogFatal(format string, v ...interface{}) {
	mu.Lock()
	w := stderr
	mu.Unlock()
	write(w, cFatl("[FATAL]"), format, v...)
	os.Exit(1)
}

// LogServerStart prints the startup block once the listener is configured.
func LogServerStart(port int, baseURL, imageDriver string) {
	w := Writer()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   %s  %s\n", cSucc("⚡ Server is Active"), cTime("waiting for requests..."))
	fmt.Fprintf(w, "   %s  %s\n", cInf("➜ Local:"), fmt.Sprintf("http://localhost:%d", port))
	fmt.Fprintf(w, "   %s  %s\n", cInf("➜ Public:"), color.New(color.FgHiBlue, color.Underline).Sprint(baseURL))
	fmt.Fprintf(w, "   %s  %s\n", cInf("➜ Images:"), imageDriver)
	fmt.Fprintln(w)
}
