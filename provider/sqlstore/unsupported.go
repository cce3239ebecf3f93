package sqlstore

import (
	"context"

	"github.com/unkn0wn-root/cachekit"
)

// Lists, sets and hashes fail immediately without touching the database.

func unsupported(capability string) error {
	return &cachekit.NotSupportedError{
		Provider:   Name,
		Capability: capability,
		Suggested:  cachekit.ProviderRedis,
	}
}

var (
	errLists  = unsupported("lists")
	errSets   = unsupported("sets")
	errHashes = unsupported("hashes")
)

func (p *Provider) AddToList(context.Context, string, string, int, bool) (int64, error) {
	return 0, errLists
}

func (p *Provider) GetList(context.Context, string) ([]string, error) {
	return nil, errLists
}

func (p *Provider) RemoveFromList(context.Context, string, string) (int64, error) {
	return 0, errLists
}

func (p *Provider) LengthOfList(context.Context, string) (int64, error) {
	return 0, errLists
}

func (p *Provider) AddToSet(context.Context, string, string, int) (bool, error) {
	return false, errSets
}

func (p *Provider) GetSet(context.Context, string) ([]string, error) {
	return nil, errSets
}

func (p *Provider) RemoveFromSet(context.Context, string, string) (bool, error) {
	return false, errSets
}

func (p *Provider) LengthOfSet(context.Context, string) (int64, error) {
	return 0, errSets
}

func (p *Provider) AddToHash(context.Context, string, string, string, int, bool) (bool, error) {
	return false, errHashes
}

func (p *Provider) GetHash(context.Context, string, string) (string, bool, error) {
	return "", false, errHashes
}

func (p *Provider) GetHashAll(context.Context, string) (map[string]string, error) {
	return nil, errHashes
}

func (p *Provider) RemoveFromHash(context.Context, string, string) (bool, error) {
	return false, errHashes
}

func (p *Provider) LengthOfHash(context.Context, string) (int64, error) {
	return 0, errHashes
}
