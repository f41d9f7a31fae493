package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/openmined/arfsync/pkg/arfs"
)

const userAgent = "arfsync"

var ErrContentNotFound = errors.New("content not found on gateway")

// GatewaySource reads transaction data from a gateway at <gateway>/<txid>.
// It makes one attempt per call; retrying is left to the caller.
type GatewaySource struct {
	gateway string
	client  *req.Client
}

func NewGatewaySource(gateway string) *GatewaySource {
	return &GatewaySource{
		gateway: strings.TrimRight(gateway, "/"),
		client:  req.C().SetUserAgent(userAgent),
	}
}

// Open returns the response body. The caller closes it.
func (g *GatewaySource) Open(ctx context.Context, txID arfs.TransactionID) (io.ReadCloser, error) {
	url := g.gateway + "/" + txID.String()

	resp, err := g.client.R().
		DisableAutoReadResponse().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("gateway: get %s: %w", url, err)
	}

	if resp.IsErrorState() {
		resp.Body.Close()
		if resp.GetStatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrContentNotFound, txID)
		}
		return nil, fmt.Errorf("gateway: get %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}
