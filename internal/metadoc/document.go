package metadoc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrInvalidDocument = errors.New("metadoc: invalid collectible document")

// Fetcher is the document fetch collaborator.
type Fetcher interface {
	GetJSON(ctx context.Context, uri string, v any) error
}

// CollectibleDocument is the off-chain metadata of an ERC721/ERC1155 token.
type CollectibleDocument struct {
	Name         string          `json:"name,omitempty"`
	Description  string          `json:"description,omitempty"`
	Image        string          `json:"image,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	ImageData    string          `json:"image_data,omitempty"`
	AnimationURL string          `json:"animation_url,omitempty"`
	ExternalURL  string          `json:"external_url,omitempty"`
	Attributes   json.RawMessage `json:"attributes,omitempty"`
}

// ImageURI returns the first non-empty image field.
func (d CollectibleDocument) ImageURI() string {
	for _, s := range []string{d.Image, d.ImageURL, d.ImageData} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (d CollectibleDocument) Validate() error {
	if d.ImageURI() == "" {
		return errors.Wrap(ErrInvalidDocument, "missing image")
	}
	return nil
}

// FetchCollectible fetches uri and requires the result to carry an image.
func FetchCollectible(ctx context.Context, f Fetcher, uri string) (*CollectibleDocument, error) {
	var doc CollectibleDocument
	if err := f.GetJSON(ctx, uri, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ExpandTokenURI substitutes the ERC1155 {id} placeholder. The zero padded
// lowercase hex form comes first, the raw decimal id second.
func ExpandTokenURI(uri string, tokenID *big.Int) []string {
	if tokenID == nil || !strings.Contains(uri, "{id}") {
		return []string{uri}
	}
	padded := strings.ReplaceAll(uri, "{id}", fmt.Sprintf("%064x", tokenID))
	raw := strings.ReplaceAll(uri, "{id}", tokenID.String())
	if padded == raw {
		return []string{padded}
	}
	return []string{padded, raw}
}

// FetchFirstCollectible tries every candidate independently and returns the
// first valid document.
func FetchFirstCollectible(ctx context.Context, f Fetcher, candidates []string) (*CollectibleDocument, string, error) {
	var errs error
	for _, uri := range candidates {
		doc, err := FetchCollectible(ctx, f, uri)
		if err == nil {
			return doc, uri, nil
		}
		errs = errors.CombineErrors(errs, errors.Wrapf(err, "fetch %s", uri))
	}
	if errs == nil {
		errs = errors.Wrap(ErrInvalidDocument, "no candidate uri")
	}
	return nil, "", errs
}
