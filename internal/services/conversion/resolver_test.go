package conversion

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// batchexecute responses carry JSON-encoded payloads inside JSON strings
const batchPayload = `)]}'

123
[["wrb.fr","mKsvE","[[[\"USD\",\"CNY\"],\"USD / CNY\",[7.11471843,0,0,2,2,2],1727740800]]",null,null,null,"13"]]
25
[["e",4,null,null,161]]`

func TestHighPrecisionScan(t *testing.T) {
	v, ok := HighPrecisionScan(batchPayload)
	require.True(t, ok)
	require.Equal(t, 7.11471843, v)
}

func TestHighPrecisionScanRequiresLeadingPosition(t *testing.T) {
	// number is the second element; no array starts with it
	_, ok := HighPrecisionScan(`[1, 7.11471843, 0]`)
	require.False(t, ok)

	// glued to an identifier
	_, ok = HighPrecisionScan(`[x7.11471843, 0]`)
	require.False(t, ok)

	// fewer than four fractional digits
	_, ok = HighPrecisionScan(`[7.114, 0, 0, 2]`)
	require.False(t, ok)
}

func TestHighPrecisionScanSkipsUnparseable(t *testing.T) {
	raw := `[0.12345, oops] [7.11471843, 0, 0, 2]`
	v, ok := HighPrecisionScan(raw)
	require.True(t, ok)
	require.Equal(t, 7.11471843, v)
}

func TestShapeDirectedOnlyPayload(t *testing.T) {
	// "02" is not valid JSON, so the scan cannot parse the array
	raw := `["wrb.fr","x","[[\"a\"],[7.12345, 0, 0, 2, 02]]"]`

	_, ok := HighPrecisionScan(raw)
	require.False(t, ok)
	_, ok = ContextNarrowedScan(raw)
	require.False(t, ok)

	v, ok := ShapeDirectedMatch(raw)
	require.True(t, ok)
	require.Equal(t, 7.12345, v)

	rate, ok := Extract(raw)
	require.True(t, ok)
	require.Equal(t, 7.12345, rate)
}

func TestContextNarrowedScan(t *testing.T) {
	near := "USD / CNY" + strings.Repeat(" ", 100) + "[7.2001, 0, 0, 2]"
	v, ok := ContextNarrowedScan(near)
	require.True(t, ok)
	require.Equal(t, 7.2001, v)

	far := "USD/CNY" + strings.Repeat(" ", windowAfter) + "[7.2001, 0, 0, 2]"
	_, ok = ContextNarrowedScan(far)
	require.False(t, ok)

	before := "[7.2001, 0, 0, 2]" + strings.Repeat(" ", windowBefore+10) + "USD / CNY"
	_, ok = ContextNarrowedScan(before)
	require.False(t, ok)

	_, ok = ContextNarrowedScan("[7.2001, 0, 0, 2]")
	require.False(t, ok)
}

func TestExtractNothing(t *testing.T) {
	_, ok := Extract(`)]}' [["wrb.fr","x","[]"]]`)
	require.False(t, ok)
}

func TestResolveUSDToCNY(t *testing.T) {
	var (
		method, contentType, sameDomain, body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		sameDomain = r.Header.Get("X-Same-Domain")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = w.Write([]byte(batchPayload))
	}))
	defer srv.Close()

	r := NewResolver(resty.New(), srv.URL, nil)
	rate, err := r.ResolveUSDToCNY(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7.11471843, rate)

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/x-www-form-urlencoded;charset=utf-8", contentType)
	require.Equal(t, "1", sameDomain)
	require.True(t, strings.HasPrefix(body, "f.req="))
}

func TestResolveUSDToCNYFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`)]}' nothing here`))
	}))
	defer srv.Close()

	_, err := NewResolver(resty.New(), srv.URL+"/down", nil).ResolveUSDToCNY(context.Background())
	require.Error(t, err)

	_, err = NewResolver(resty.New(), srv.URL+"/empty", nil).ResolveUSDToCNY(context.Background())
	require.ErrorIs(t, err, ErrRateNotFound)
}

func TestNewResolverDefaultEndpoint(t *testing.T) {
	require.Equal(t, DefaultURL, NewResolver(resty.New(), "", nil).url)
	require.Equal(t, "http://stub", NewResolver(resty.New(), "http://stub", nil).url)
}
