package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// RemoteReaderAt adapts a remote object to io.ReaderAt by issuing one HTTP
// Range request per ReadAt call. It lets archive/zip's central-directory
// parser walk a remote archive without downloading the whole file: the zip
// reader seeks to the directory at the tail, then to each entry it needs.
type RemoteReaderAt struct {
	ctx  context.Context
	url  string
	size int64
}

// NewReaderAt probes url with a HEAD request to learn the object size and
// returns a RemoteReaderAt over it. The server must report Content-Length
// and honor Range requests; both hold for the object stores this system
// reads archives from.
func NewReaderAt(ctx context.Context, url string) (*RemoteReaderAt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("blob: build request for %s: %w", url, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob: probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("blob: probe %s: status %s", url, resp.Status)
	}
	if resp.ContentLength < 0 {
		return nil, fmt.Errorf("blob: probe %s: no content length", url)
	}
	return &RemoteReaderAt{ctx: ctx, url: url, size: resp.ContentLength}, nil
}

// Size returns the remote object's total length in bytes.
func (r *RemoteReaderAt) Size() int64 { return r.size }

// ReadAt fetches [off, off+len(p)) with a Range request. Reads past the end
// of the object are truncated and return io.EOF, per the io.ReaderAt
// contract.
func (r *RemoteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if off+want > r.size {
		want = r.size - off
	}
	data, err := DownloadRange(r.ctx, r.url, off, want)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
