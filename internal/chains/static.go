package chains

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// StaticProvider serves pre-built clients, e.g. when the caller owns transport.
type StaticProvider map[string]*ChainClients

func (p StaticProvider) ClientsForNetwork(_ context.Context, networkName string) (*ChainClients, error) {
	for name, c := range p {
		if strings.EqualFold(name, strings.TrimSpace(networkName)) {
			return c, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownNetwork, "%q", networkName)
}
