// shared/api/middleware.go
package api

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// LoggingMiddleware logs method, path, status and duration of each request.
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{w: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)

			if lrw.hijacked {
				logger.Printf("INFO: %s %s from %s - upgraded", r.Method, r.URL.Path, r.RemoteAddr)
				return
			}
			logger.Printf("INFO: %s %s from %s - Status: %d, Duration: %v", r.Method, r.URL.Path, r.RemoteAddr, lrw.statusCode, time.Since(start))
		})
	}
}

// loggingResponseWriter is a wrapper to capture the HTTP status code.
// It forwards Hijack so protocol upgrades work behind the middleware.
type loggingResponseWriter struct {
	w          http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (lrw *loggingResponseWriter) Header() http.Header {
	return lrw.w.Header()
}

func (lrw *loggingResponseWriter) Write(buf []byte) (int, error) {
	return lrw.w.Write(buf)
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.w.WriteHeader(statusCode)
}

func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err == nil {
		lrw.hijacked = true
	}
	return conn, rw, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.w
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // Cache preflight requests for 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
