package ripple

import (
	"context"
	"io"
	"strings"

	"github.com/gogpu/ripple/texture"
)

// DefaultLoader fetches http and https URLs over HTTP and opens anything
// else as a local file.
var DefaultLoader texture.Loader = texture.LoaderFunc(func(ctx context.Context, url string) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return texture.HTTPLoader{}.Open(ctx, url)
	}
	return texture.FileLoader.Open(ctx, url)
})
