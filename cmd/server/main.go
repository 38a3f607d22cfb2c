// Datastore transfer bridge: exposes plain HTTP endpoints that proxy
// uploads and downloads onto an authenticated hypervisor datastore.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"datastore-transfer/pkg/sizecache"
	"datastore-transfer/pkg/transfer"
	"datastore-transfer/pkg/transferio"
)

var (
	appLog      = logrus.New()
	serverConn  transferio.DatastoreParams
	serverSizes *sizecache.Cache
)

type transferResponse struct {
	Path           string `json:"path"`
	WrittenBytes   int64  `json:"writtenBytes"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
}

type statResponse struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		writeErr(w, http.StatusMethodNotAllowed, errors.New("use POST or PUT"))
		return
	}
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		writeErr(w, http.StatusBadRequest, errors.New("missing path"))
		return
	}
	if r.ContentLength < 0 {
		// The datastore PUT declares the exact size up front.
		writeErr(w, http.StatusLengthRequired, errors.New("missing content length"))
		return
	}

	params := serverConn
	params.FilePath = filePath
	chunks := transferio.ReaderChunks(r.Body, transferio.ReadChunkSize)

	start := time.Now()
	written, err := transfer.UploadImage(r.Context(), chunks, params, r.ContentLength, appLog)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}

	json.NewEncoder(w).Encode(transferResponse{
		Path:           filePath,
		WrittenBytes:   written,
		ElapsedSeconds: int64(time.Since(start).Seconds()),
	})
}

func downloadHandler(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		w.Header().Set("Content-Type", "application/json")
		writeErr(w, http.StatusBadRequest, errors.New("missing path"))
		return
	}

	params := serverConn
	params.FilePath = filePath
	src, err := transferio.NewDatastoreReadStream(r.Context(), params, appLog)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	defer src.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(filePath)+"\"")

	sink := transferio.NewWriterStream(w, appLog)
	pump := &transfer.Pump{Src: src, Dst: sink, Log: appLog}
	if _, err := pump.Run(r.Context()); err != nil {
		// Headers are already gone; all we can do is cut the stream short.
		appLog.WithError(err).WithField("path", filePath).Error("download aborted")
	}
}

func statHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		writeErr(w, http.StatusBadRequest, errors.New("missing path"))
		return
	}
	size, err := serverSizes.Size(filePath)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	json.NewEncoder(w).Encode(statResponse{Path: filePath, Size: size})
}

func writeErr(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

func loadConfig(cfgFile string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetDefault("listen", ":8080")
	cfg.SetDefault("log-level", "info")
	cfg.SetDefault("datastore.scheme", "https")
	cfg.BindEnv("datastore.host", "DATASTORE_HOST")
	cfg.BindEnv("cookie.name", "DATASTORE_COOKIE_NAME")
	cfg.BindEnv("cookie.value", "DATASTORE_COOKIE_VALUE")
	if cfgFile != "" {
		cfg.SetConfigFile(cfgFile)
		if err := cfg.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	cfgFile := flag.String("config", "", "config file (yaml/json/toml)")
	flag.Parse()

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		appLog.WithError(err).Fatal("loading config")
	}
	if level, err := logrus.ParseLevel(cfg.GetString("log-level")); err == nil {
		appLog.SetLevel(level)
	}
	if cfg.GetString("datastore.host") == "" {
		appLog.Fatal("datastore.host is required")
	}

	serverConn = transferio.DatastoreParams{
		Host:       cfg.GetString("datastore.host"),
		Datacenter: cfg.GetString("datastore.datacenter"),
		Datastore:  cfg.GetString("datastore.name"),
		Scheme:     cfg.GetString("datastore.scheme"),
	}
	if name := cfg.GetString("cookie.name"); name != "" {
		serverConn.Cookies = []*http.Cookie{{Name: name, Value: cfg.GetString("cookie.value")}}
	}
	serverSizes = sizecache.New(serverConn, appLog)
	defer serverSizes.Close()

	http.HandleFunc("/upload", uploadHandler)
	http.HandleFunc("/download", downloadHandler)
	http.HandleFunc("/stat", statHandler)
	srv := &http.Server{
		Addr:              cfg.GetString("listen"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLog.WithField("addr", srv.Addr).Info("datastore bridge listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.WithError(err).Fatal("server exited")
	}
}
