package credentials

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	ipfsapi "github.com/ipfs/go-ipfs-api"

	httppkg "github.com/talentdao/talentdao-backend/pkg/http"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

const (
	base64JSONPrefix = "data:application/json;base64,"
	ipfsScheme       = "ipfs://"

	// maxMetadataSize caps how much metadata is read from any source.
	maxMetadataSize = 1 << 20
)

// Metadata is the ERC-721 token metadata document.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// MetadataResolver fetches and decodes token metadata from whichever scheme
// the tokenURI uses: inline base64 JSON, ipfs:// (node API with an HTTP
// gateway fallback), or plain http(s).
type MetadataResolver struct {
	http    *httppkg.HTTPClient
	ipfs    *ipfsapi.Shell
	gateway string
	logger  logging.Logger
}

// NewMetadataResolver builds a resolver. ipfs may be nil; ipfs:// URIs then
// go straight to the gateway.
func NewMetadataResolver(client *httppkg.HTTPClient, ipfs *ipfsapi.Shell, gatewayURL string, logger logging.Logger) *MetadataResolver {
	return &MetadataResolver{
		http:    client,
		ipfs:    ipfs,
		gateway: strings.TrimRight(gatewayURL, "/"),
		logger:  logger,
	}
}

func (r *MetadataResolver) Resolve(ctx context.Context, uri string) (*Metadata, error) {
	switch {
	case strings.HasPrefix(uri, base64JSONPrefix):
		return decodeInline(uri)
	case strings.HasPrefix(uri, ipfsScheme):
		return r.resolveIPFS(ctx, strings.TrimPrefix(uri, ipfsScheme))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return r.fetchHTTP(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported token uri scheme: %q", uri)
	}
}

func decodeInline(uri string) (*Metadata, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, base64JSONPrefix))
	if err != nil {
		return nil, fmt.Errorf("undecodable inline metadata: %w", err)
	}
	return parseMetadata(raw)
}

func (r *MetadataResolver) resolveIPFS(ctx context.Context, path string) (*Metadata, error) {
	if r.ipfs != nil {
		reader, err := r.ipfs.Cat(path)
		if err == nil {
			defer func() { _ = reader.Close() }()
			raw, readErr := io.ReadAll(io.LimitReader(reader, maxMetadataSize))
			if readErr == nil {
				return parseMetadata(raw)
			}
			err = readErr
		}
		r.logger.Warnf("IPFS node fetch for %s failed, trying gateway: %v", path, err)
	}
	if r.gateway == "" {
		return nil, fmt.Errorf("no ipfs gateway configured for %s", path)
	}
	return r.fetchHTTP(ctx, r.gateway+"/ipfs/"+path)
}

func (r *MetadataResolver) fetchHTTP(ctx context.Context, url string) (*Metadata, error) {
	resp, err := r.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}
	return parseMetadata(raw)
}

func parseMetadata(raw []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("undecodable token metadata: %w", err)
	}
	return &meta, nil
}
