package coremain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func doReq(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if len(body) > 0 {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI(t *testing.T) {
	c, clk := newTestCache(t)
	h := newAPIHandler(c, zap.NewNop(), clk.Now)

	rec := doReq(t, h, http.MethodPut, "/entries", `{"domain":"A.com","type":"a","ipv4":"1.2.3.4"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doReq(t, h, http.MethodPut, "/entries", `{"domain":"a.com","type":"A","ipv4":"1.2.3.4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/entries/A.COM", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lr struct {
		Entry struct {
			Record struct {
				Domain string `json:"domain"`
				IPv4   string `json:"ipv4"`
			} `json:"record"`
			Meta struct {
				Hits int `json:"hits"`
			} `json:"meta"`
		} `json:"entry"`
		Expired bool `json:"expired"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	assert.Equal(t, "a.com", lr.Entry.Record.Domain)
	assert.Equal(t, "1.2.3.4", lr.Entry.Record.IPv4)
	assert.Equal(t, 1, lr.Entry.Meta.Hits)
	assert.False(t, lr.Expired)

	rec = doReq(t, h, http.MethodGet, "/entries/a.com?format=rr", "")
	assert.Equal(t, "a.com.\t0\tIN\tA\t1.2.3.4\n", rec.Body.String())

	rec = doReq(t, h, http.MethodGet, "/entries/nope.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"nope.com not found"}`, rec.Body.String())

	idx := c.BucketIndex("a.com")
	rec = doReq(t, h, http.MethodGet, fmt.Sprintf("/buckets/%d", idx), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"domain":"a.com"`)
	rec = doReq(t, h, http.MethodGet, "/buckets/50", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of range")
	rec = doReq(t, h, http.MethodGet, "/buckets/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/buckets", "")
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = doReq(t, h, http.MethodGet, "/stats?format=yaml", "")
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "total: 1\n")
	assert.Contains(t, rec.Body.String(), "load_factor: 0.02\n")

	rec = doReq(t, h, http.MethodPut, "/entries", `{"domain":"x.com","ttl":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	clk.t = clk.t.Add(2 * time.Second)
	rec = doReq(t, h, http.MethodGet, "/entries/x.com", "")
	assert.Contains(t, rec.Body.String(), `"expired":true`)
	rec = doReq(t, h, http.MethodPost, "/sweep", "")
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())
	rec = doReq(t, h, http.MethodPost, "/sweep", "")
	assert.JSONEq(t, `{"removed":0}`, rec.Body.String())

	rec = doReq(t, h, http.MethodDelete, "/entries/a.com", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doReq(t, h, http.MethodDelete, "/entries/a.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/buckets", "")
	assert.Equal(t, "[]", rec.Body.String())
}

func TestAPI_badInput(t *testing.T) {
	c, clk := newTestCache(t)
	h := newAPIHandler(c, zap.NewNop(), clk.Now)

	rec := doReq(t, h, http.MethodPut, "/entries", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doReq(t, h, http.MethodPut, "/entries", `{"domain":"a.com","type":"TXT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown record type")
	assert.Equal(t, 0, c.Len())
}
