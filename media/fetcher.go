package media

import (
	"context"

	"github.com/kbukum/transcribot/encryption"
	"github.com/kbukum/transcribot/errors"
)

// StoreFetcher implements Fetcher on top of a Downloader.
type StoreFetcher struct {
	store Downloader
}

// NewFetcher creates a Fetcher backed by store.
func NewFetcher(store Downloader) *StoreFetcher {
	return &StoreFetcher{store: store}
}

// Fetch downloads plain media.
func (f *StoreFetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	if url == "" {
		return nil, errors.MediaFetchFailed("empty media url", nil)
	}
	data, ct, err := f.store.Download(ctx, url)
	if err != nil {
		return nil, errors.MediaFetchFailed("download", err)
	}
	return &Media{Data: data, ContentType: ct}, nil
}

// FetchEncrypted downloads the ciphertext and decrypts it. The returned
// content type is empty since the store only sees ciphertext.
func (f *StoreFetcher) FetchEncrypted(ctx context.Context, file EncryptedFile) (*Media, error) {
	if file.URL == "" {
		return nil, errors.MediaFetchFailed("encrypted file has no url", nil)
	}
	ciphertext, _, err := f.store.Download(ctx, file.URL)
	if err != nil {
		return nil, errors.MediaFetchFailed("download encrypted", err)
	}
	plain, err := encryption.DecryptAttachment(ciphertext, file.Params())
	if err != nil {
		return nil, errors.MediaFetchFailed("decrypt", err)
	}
	return &Media{Data: plain}, nil
}
