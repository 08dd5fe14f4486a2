// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger *log.Logger

func main() {
	port := flag.Int("port", 0, "port for serving HTTP requests")
	dataDir := flag.String("data", "./wikipath-data", "directory with finished artifacts to serve")
	reloadInterval := flag.Duration("reload-interval", 30*time.Second, "how often to scan data for newer artifacts")
	flag.Parse()

	if *port == 0 {
		*port, _ = strconv.Atoi(os.Getenv("PORT"))
	}

	logPath := filepath.Join("logs", "wikipath-serve.log")
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal(err)
	}
	logfile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(logfile, "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)
	logger.Printf("wikipath-serve starting up, data=%s", *dataDir)

	databases := NewDatabaseSet(*dataDir, logger)
	if err := databases.Reload(); err != nil {
		logger.Fatal(err)
	}

	ticker := time.NewTicker(*reloadInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := databases.Reload(); err != nil {
					logger.Printf("reload failed: %v", err)
				}
			}
		}
	}()

	server := NewServer(databases, prometheus.DefaultRegisterer)
	http.HandleFunc("/api/v1/shortest-paths", server.HandleShortestPaths)
	http.HandleFunc("/robots.txt", server.HandleRobotsTxt)
	http.Handle("/metrics", promhttp.Handler())

	logger.Printf("listening on port %d", *port)
	if err := http.ListenAndServe(":"+strconv.Itoa(*port), nil); err != nil {
		logger.Fatal(err)
	}
	ticker.Stop()
	close(done)
}
