// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wikilinks/wikipath"
	"github.com/wikilinks/wikipath/internal/build"
)

var logger *log.Logger

func main() {
	dumpsDir := flag.String("dumps", "/public/dumps/public", "directory with Wikimedia SQL dump files")
	outDir := flag.String("out", "./wikipath-data", "directory to write the finished artifact into")
	lang := flag.String("lang", "", "language code of the dump to build, e.g. \"en\"")
	date := flag.String("date", "", "date code of the dump to build, e.g. \"20240201\"")
	threads := flag.Int("threads", 0, "worker threads for table parsing; 0 means GOMAXPROCS")
	memoryLimit := flag.Int64("memory-limit", 0, "soft RSS ceiling in bytes for the buffered inserter; 0 disables the check")
	mapSizeHint := flag.Int64("map-size-limit", 0, "soft on-disk size ceiling in bytes; 0 disables the check")
	metricsPort := flag.Int("metrics-port", 0, "port to serve /metrics on while building; 0 disables it")
	flag.Parse()

	if *lang == "" || *date == "" {
		fmt.Fprintln(os.Stderr, "usage: wikipath-build -lang=en -date=20240201 [flags]")
		os.Exit(2)
	}

	logPath := filepath.Join("logs", "wikipath-build.log")
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal(err)
	}
	logfile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(logfile, "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)
	logger.Printf("wikipath-build starting up for %s/%s", *lang, *date)

	registry := prometheus.NewRegistry()
	if *metricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			addr := ":" + strconv.Itoa(*metricsPort)
			logger.Printf("serving /metrics on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Printf("metrics listener exited: %v", err)
			}
		}()
	}

	if err := build.CleanupStaleArtifacts(*outDir, logger); err != nil {
		logger.Fatal(err)
	}

	threadCount := *threads
	if threadCount == 0 {
		threadCount = runtime.GOMAXPROCS(0)
	}

	m := wikipath.Metadata{LanguageCode: *lang, DateCode: *date}
	cfg := wikipath.BuildConfig{
		Metadata: m,
		Dumps: build.DumpFiles{
			Page:       filepath.Join(*dumpsDir, *lang+"wiki-"+*date+"-page.sql.gz"),
			Redirect:   filepath.Join(*dumpsDir, *lang+"wiki-"+*date+"-redirect.sql.gz"),
			LinkTarget: filepath.Join(*dumpsDir, *lang+"wiki-"+*date+"-linktarget.sql.gz"),
			PageLinks:  filepath.Join(*dumpsDir, *lang+"wiki-"+*date+"-pagelinks.sql.gz"),
		},
		FinalPath:   build.FinalPath(*outDir, m),
		TmpPath:     build.TmpPath(*outDir, m, uuid.NewString()),
		ThreadCount: threadCount,
		MemoryLimit: *memoryLimit,
		MapSizeHint: *mapSizeHint,
		Metrics:     registry,
		Logger:      logger,
	}

	if err := wikipath.BuildDatabase(cfg); err != nil {
		logger.Printf("build failed: %v", err)
		log.Fatal(err)
	}
	logger.Printf("wikipath-build exiting")
}
