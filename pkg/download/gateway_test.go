package download

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/localwrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayServer(t *testing.T, content map[arfs.TransactionID]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[arfs.TransactionID(r.URL.Path[1:])]
		switch {
		case r.URL.Path == "/"+tx("broken").String():
			w.WriteHeader(http.StatusBadGateway)
		case !ok:
			http.NotFound(w, r)
		default:
			io.WriteString(w, body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGatewaySource_Open(t *testing.T) {
	srv := gatewayServer(t, map[arfs.TransactionID]string{tx("hello"): "hello world"})
	src := NewGatewaySource(srv.URL + "/")

	body, err := src.Open(context.Background(), tx("hello"))
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestGatewaySource_Errors(t *testing.T) {
	srv := gatewayServer(t, nil)
	src := NewGatewaySource(srv.URL)

	_, err := src.Open(context.Background(), tx("missing"))
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = src.Open(context.Background(), tx("broken"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrContentNotFound)
	assert.Contains(t, err.Error(), "502")
}

func TestDownloadFolder_FromGateway(t *testing.T) {
	srv := gatewayServer(t, map[arfs.TransactionID]string{
		tx("index"): "<html></html>",
		tx("logo"):  "png-bytes",
	})
	_, entities := fixture()
	root := t.TempDir()

	res, err := NewDriver(NewFileWriter(NewGatewaySource(srv.URL))).DownloadFolder(context.Background(), root, entities, localwrite.Upsert)
	require.NoError(t, err)
	assert.Len(t, res.WrittenFiles, 2)

	data, err := os.ReadFile(filepath.Join(root, "site", "img", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}
