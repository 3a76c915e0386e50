package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/fatih/color"

	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// statusWriter captures status code and size
type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	length      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	w.length += len(b)
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var (
	cGet     = color.New(color.FgHiCyan, color.Bold).SprintFunc()
	cPost    = color.New(color.FgHiGreen, color.Bold).SprintFunc()
	cDelete  = color.New(color.FgHiRed, color.Bold).SprintFunc()
	cDefault = color.New(color.FgWhite, color.Bold).SprintFunc()

	c200 = color.New(color.FgGreen, color.Bold).SprintFunc()
	c400 = color.New(color.FgYellow, color.Bold).SprintFunc()
	c500 = color.New(color.FgRed, color.Bold).SprintFunc()

	cTime = color.New(color.FgHiBlack).SprintFunc()
	cPath = color.New(color.FgWhite).SprintFunc()
)

// Logger prints one colored access line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		var statusStr string
		code := ww.statusCode
		switch {
		case code >= 500:
			statusStr = c500(code)
		case code >= 400:
			statusStr = c400(code)
		default:
			statusStr = c200(code)
		}

		method := fmt.Sprintf("%-8s", "["+r.Method+"]")
		var methodStr string
		switch r.Method {
		case http.MethodGet:
			methodStr = cGet(method)
		case http.MethodPost:
			methodStr = cPost(method)
		case http.MethodDelete:
			methodStr = cDelete(method)
		default:
			methodStr = cDefault(method)
		}

		fmt.Fprintf(logger.Writer(), "%s %s %s %s %s %s\n",
			cTime(start.Format("2006-01-02 15:04:05")),
			methodStr,
			cPath(r.URL.Path),
			statusStr,
			cTime("|"),
			cTime(duration.String()),
		)
	})
}

// Recover turns a handler panic into a 500 JSON response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.LogError("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Chain wraps h so that the first middleware is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
