package coremain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pmkol/dnscache/pkg/cache"
	"github.com/pmkol/dnscache/pkg/dnscache"
	"github.com/pmkol/dnscache/pkg/record"
)

const maxBodySize = 64 * 1024

type apiHandler struct {
	c      cache.Backend
	logger *zap.Logger
	now    func() time.Time
}

type lookupResult struct {
	Entry   dnscache.Entry `json:"entry" yaml:"entry"`
	Expired bool           `json:"expired" yaml:"expired"`
}

type sweepResult struct {
	Removed int `json:"removed" yaml:"removed"`
}

type errResult struct {
	Error string `json:"error" yaml:"error"`
}

func newAPIHandler(c cache.Backend, lg *zap.Logger, now func() time.Time) http.Handler {
	h := &apiHandler{c: c, logger: lg, now: now}
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /entries", h.upsert)
	mux.HandleFunc("GET /entries/{domain}", h.lookup)
	mux.HandleFunc("DELETE /entries/{domain}", h.delete)
	mux.HandleFunc("POST /sweep", h.sweep)
	mux.HandleFunc("GET /buckets", h.all)
	mux.HandleFunc("GET /buckets/{index}", h.bucket)
	mux.HandleFunc("GET /stats", h.stats)
	return mux
}

func (h *apiHandler) upsert(w http.ResponseWriter, req *http.Request) {
	var f record.Fields
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodySize)).Decode(&f); err != nil {
		h.writeErr(w, req, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	e, err := record.Build(f, h.now())
	if err != nil {
		h.writeErr(w, req, http.StatusBadRequest, err)
		return
	}
	code := http.StatusOK
	if h.c.Upsert(e) {
		code = http.StatusCreated
	}
	h.logger.Debug("entry cached", zap.String("domain", e.Record.Domain), zap.Bool("created", code == http.StatusCreated))
	h.write(w, req, code, e)
}

func (h *apiHandler) lookup(w http.ResponseWriter, req *http.Request) {
	domain := record.Key(req.PathValue("domain"))
	e, ok := h.c.RecordHit(domain)
	if !ok {
		h.writeErr(w, req, http.StatusNotFound, fmt.Errorf("%s not found", domain))
		return
	}
	if req.URL.Query().Get("format") == "rr" {
		rr, err := record.ToRR(e)
		if err != nil {
			h.writeErr(w, req, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, rr.String())
		return
	}
	h.write(w, req, http.StatusOK, lookupResult{Entry: e, Expired: h.c.IsExpired(e)})
}

func (h *apiHandler) delete(w http.ResponseWriter, req *http.Request) {
	domain := record.Key(req.PathValue("domain"))
	if !h.c.Delete(domain) {
		h.writeErr(w, req, http.StatusNotFound, fmt.Errorf("%s not found", domain))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) sweep(w http.ResponseWriter, req *http.Request) {
	n := h.c.SweepExpired()
	h.logger.Info("expired entries swept", zap.Int("removed", n))
	h.write(w, req, http.StatusOK, sweepResult{Removed: n})
}

func (h *apiHandler) bucket(w http.ResponseWriter, req *http.Request) {
	idx, err := strconv.Atoi(req.PathValue("index"))
	if err != nil {
		h.writeErr(w, req, http.StatusBadRequest, fmt.Errorf("invalid bucket index: %w", err))
		return
	}
	entries, err := h.c.Bucket(idx)
	if err != nil {
		h.writeErr(w, req, http.StatusBadRequest, err)
		return
	}
	h.write(w, req, http.StatusOK, dnscache.BucketEntries{Index: idx, Entries: entries})
}

func (h *apiHandler) all(w http.ResponseWriter, req *http.Request) {
	all := h.c.All()
	if all == nil {
		all = []dnscache.BucketEntries{}
	}
	h.write(w, req, http.StatusOK, all)
}

func (h *apiHandler) stats(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, h.c.Statistics())
}

func (h *apiHandler) writeErr(w http.ResponseWriter, req *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError || errors.Is(err, dnscache.ErrIndexOutOfRange) {
		h.logger.Warn("api request failed", zap.String("path", req.URL.Path), zap.Error(err))
	}
	h.write(w, req, code, errResult{Error: err.Error()})
}

// write encodes v as yaml if the query has format=yaml, as json otherwise.
func (h *apiHandler) write(w http.ResponseWriter, req *http.Request, code int, v any) {
	var (
		b   []byte
		err error
	)
	if req.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		b, err = yaml.Marshal(v)
	} else {
		w.Header().Set("Content-Type", "application/json")
		b, err = json.Marshal(v)
	}
	if err != nil {
		h.logger.Error("failed to encode api response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		h.logger.Debug("failed to write api response", zap.Error(err))
	}
}
