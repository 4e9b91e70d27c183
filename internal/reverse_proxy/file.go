package reverse_proxy

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/habitat-network/redirector/internal/filestream"
	"github.com/habitat-network/redirector/internal/rules"
	"github.com/habitat-network/redirector/internal/utils"
	"github.com/rs/zerolog"
)

var errOutsideRoot = errors.New("path escapes the rule's root")

// serveFile streams a.Path, or a.Fallback when the former cannot be opened. Any failure to
// open either is answered with an empty 404.
func (s *ProxyServer) serveFile(w http.ResponseWriter, r *http.Request, a rules.ServeFile) {
	logger := zerolog.Ctx(r.Context())

	stream, err := openWithin(a.Root, a.Path)
	if err != nil && a.Fallback != "" {
		if fallback, fbErr := filestream.Open(a.Fallback); fbErr == nil {
			stream, err = fallback, nil
		}
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", a.Path).Msg("[file error]")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer utils.LogClose(logger, stream, "closing file")

	logger.Info().Str("file", stream.Name()).Msg("serving file")
	h := w.Header()
	if ct := mime.TypeByExtension(filepath.Ext(stream.Name())); ct != "" {
		h.Set("Content-Type", ct)
	}
	h.Set("Content-Length", strconv.FormatInt(stream.Size(), 10))
	w.WriteHeader(http.StatusOK)

	if _, err := stream.WriteTo(w); err != nil {
		logger.Debug().Err(err).Msg("file stream interrupted")
	}
}

func openWithin(root, path string) (*filestream.Stream, error) {
	if !within(root, path) {
		return nil, &fs.PathError{Op: "open", Path: path, Err: errOutsideRoot}
	}
	return filestream.Open(path)
}

// within reports whether path, once cleaned, stays under root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
